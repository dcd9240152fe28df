package ml

import (
	"context"
	"errors"
	"fmt"
)

// LinearRegression predicts Intercept plus the dot product of the
// coefficients and the feature values.
type LinearRegression struct {
	Intercept    float64
	Coefficients [FeatureCount]float64
}

type linearArtifact struct {
	FeatureNames []string  `json:"feature_names,omitempty"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// Predict implements Model.
func (lr *LinearRegression) Predict(ctx context.Context, rows []FeatureRecord) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	predictions := make([]float64, len(rows))
	for i, row := range rows {
		sum := lr.Intercept
		for j := 0; j < FeatureCount; j++ {
			sum += lr.Coefficients[j] * row.at(j)
		}
		predictions[i] = sum
	}
	return predictions, nil
}

func (lr *LinearRegression) load(artifact linearArtifact) error {
	if err := checkFeatureNames(artifact.FeatureNames); err != nil {
		return err
	}
	if len(artifact.Coefficients) == 0 {
		return errors.New("linear model has no coefficients")
	}
	if len(artifact.Coefficients) != FeatureCount {
		return fmt.Errorf("linear model has %d coefficients, want %d", len(artifact.Coefficients), FeatureCount)
	}
	lr.Intercept = artifact.Intercept
	copy(lr.Coefficients[:], artifact.Coefficients)
	return nil
}
