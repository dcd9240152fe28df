package ml

import (
	"context"
	"fmt"
	"math"
)

// Model is a loaded, read-only regression model. Implementations must be safe
// for concurrent use and return one prediction per row.
type Model interface {
	Predict(ctx context.Context, rows []FeatureRecord) ([]float64, error)
}

// PredictOne runs the model on a single row and returns the first element of
// the result. Every failure is reported as ErrModelInference.
func PredictOne(ctx context.Context, model Model, record FeatureRecord) (float64, error) {
	if model == nil {
		return 0, fmt.Errorf("%w: model not loaded", ErrModelInference)
	}
	predictions, err := model.Predict(ctx, []FeatureRecord{record})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrModelInference, err)
	}
	if len(predictions) == 0 {
		return 0, fmt.Errorf("%w: model returned no predictions", ErrModelInference)
	}
	prediction := predictions[0]
	if math.IsNaN(prediction) || math.IsInf(prediction, 0) {
		return 0, fmt.Errorf("%w: non-finite prediction %v", ErrModelInference, prediction)
	}
	return prediction, nil
}

func checkFeatureNames(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != FeatureCount {
		return fmt.Errorf("model expects %d features, service provides %d", len(names), FeatureCount)
	}
	for i, name := range names {
		if name != featureNames[i] {
			return fmt.Errorf("feature %d is %q in model, %q in service", i, name, featureNames[i])
		}
	}
	return nil
}
