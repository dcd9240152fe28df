package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"powercast/ml"
	"powercast/monitoring"
)

const (
	// ErrorModeStructured answers invalid requests with 4xx and a JSON error body.
	ErrorModeStructured = "structured"

	// ErrorModeOpaque answers every failure except an unparsable body with a
	// bare 500, matching services that perform no input validation.
	ErrorModeOpaque = "opaque"
)

type predictRequest struct {
	Input json.RawMessage `json:"input"`
}

type predictResponse struct {
	Prediction float64 `json:"prediction"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// PredictHandler serves one prediction per request against a model loaded at
// start-up.
type PredictHandler struct {
	model     ml.Model
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	errorMode string
}

// NewPredictHandler creates the handler. logger and metrics may be nil; an
// empty errorMode means ErrorModeStructured.
func NewPredictHandler(model ml.Model, logger *zap.Logger, metrics *monitoring.Metrics, errorMode string) *PredictHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if errorMode == "" {
		errorMode = ErrorModeStructured
	}
	return &PredictHandler{
		model:     model,
		logger:    logger,
		metrics:   metrics,
		errorMode: errorMode,
	}
}

// ServeHTTP answers with {"prediction": x} or a taxonomy error.
func (h *PredictHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	prediction, err := h.predict(r)
	h.metrics.ObservePrediction(err)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, predictResponse{Prediction: prediction})
}

func (h *PredictHandler) predict(r *http.Request) (float64, error) {
	values, err := decodeInput(r.Body)
	if err != nil {
		return 0, err
	}
	record, err := ml.MapFeatures(values)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	prediction, err := ml.PredictOne(r.Context(), h.model, record)
	h.metrics.ObserveInference(time.Since(start))
	return prediction, err
}

// decodeInput extracts the feature vector from a {"input": [...]} body.
func decodeInput(body io.Reader) ([]float64, error) {
	payload, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ml.ErrMalformedBody, err)
	}

	var req predictRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ml.ErrMalformedBody, err)
	}
	raw := bytes.TrimSpace(req.Input)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: input", ml.ErrMissingField)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("%w: input must be an array of numbers", ml.ErrInvalidInputType)
	}
	if len(elements) != ml.FeatureCount {
		return nil, fmt.Errorf("%w: input has %d values, expected %d", ml.ErrInvalidInputShape, len(elements), ml.FeatureCount)
	}

	values := make([]float64, len(elements))
	for i, element := range elements {
		var v interface{}
		if err := json.Unmarshal(element, &v); err != nil {
			return nil, fmt.Errorf("%w: input[%d] is not a representable number", ml.ErrInvalidInputType, i)
		}
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: input[%d] is %s, not a number", ml.ErrInvalidInputType, i, bytes.TrimSpace(element))
		}
		values[i] = f
	}
	return values, nil
}

func (h *PredictHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := ml.ErrorKind(err)
	fields := []zap.Field{
		zap.String("request_id", GetRequestID(r.Context())),
		zap.String("kind", kind),
		zap.Error(err),
	}

	status := http.StatusInternalServerError
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, ml.ErrMalformedBody):
		status = http.StatusBadRequest
	case ml.IsClientError(err) && h.errorMode != ErrorModeOpaque:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("prediction failed", fields...)
	} else {
		h.logger.Info("rejected prediction request", fields...)
	}

	if h.errorMode == ErrorModeOpaque {
		http.Error(w, http.StatusText(status), status)
		return
	}
	respondJSON(w, status, errorResponse{Error: kind, Message: err.Error()})
}
