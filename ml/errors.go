package ml

import "errors"

var (
	// ErrMalformedBody means the body is not a JSON object.
	ErrMalformedBody = errors.New("malformed request body")

	// ErrMissingField means the input key is absent or null.
	ErrMissingField = errors.New("missing field")

	// ErrInvalidInputShape means input does not hold exactly FeatureCount values.
	ErrInvalidInputShape = errors.New("invalid input shape")

	// ErrInvalidInputType means input or one of its elements is not a finite number.
	ErrInvalidInputType = errors.New("invalid input type")

	// ErrModelInference wraps every failure of the model itself.
	ErrModelInference = errors.New("model inference failed")
)

// ErrorKind returns the taxonomy name of err, used in responses, logs and
// metric labels. Errors outside the taxonomy are reported as "InternalError".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedBody):
		return "MalformedBody"
	case errors.Is(err, ErrMissingField):
		return "MissingField"
	case errors.Is(err, ErrInvalidInputShape):
		return "InvalidInputShape"
	case errors.Is(err, ErrInvalidInputType):
		return "InvalidInputType"
	case errors.Is(err, ErrModelInference):
		return "ModelInferenceError"
	default:
		return "InternalError"
	}
}

// IsClientError reports whether err was caused by the request rather than the
// model.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedBody) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidInputShape) ||
		errors.Is(err, ErrInvalidInputType)
}
