package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	// ModelTypeLinear is a LinearRegression artifact.
	ModelTypeLinear = "linear"

	// ModelTypeRegressionTree is a single RegressionTree artifact.
	ModelTypeRegressionTree = "regression_tree"

	// ModelTypeGradientBoosting is a GradientBoosting artifact.
	ModelTypeGradientBoosting = "gradient_boosting"
)

// LoadModel reads a model artifact from path. An empty modelType lets the
// artifact's "type" field decide; otherwise both must agree.
func LoadModel(modelType, path string) (Model, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	model, err := ParseModel(modelType, payload)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return model, nil
}

// ParseModel decodes a JSON model artifact.
func ParseModel(modelType string, payload []byte) (Model, error) {
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &header); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}

	switch {
	case modelType == "" && header.Type == "":
		return nil, errors.New("model type not specified")
	case modelType == "":
		modelType = header.Type
	case header.Type != "" && header.Type != modelType:
		return nil, fmt.Errorf("artifact is %q, configured type is %q", header.Type, modelType)
	}

	switch modelType {
	case ModelTypeLinear:
		var artifact linearArtifact
		if err := json.Unmarshal(payload, &artifact); err != nil {
			return nil, fmt.Errorf("decode linear model: %w", err)
		}
		model := &LinearRegression{}
		if err := model.load(artifact); err != nil {
			return nil, err
		}
		return model, nil
	case ModelTypeRegressionTree:
		var artifact treeArtifact
		if err := json.Unmarshal(payload, &artifact); err != nil {
			return nil, fmt.Errorf("decode regression tree: %w", err)
		}
		model := &RegressionTree{}
		if err := model.load(artifact); err != nil {
			return nil, err
		}
		return model, nil
	case ModelTypeGradientBoosting:
		var artifact boostingArtifact
		if err := json.Unmarshal(payload, &artifact); err != nil {
			return nil, fmt.Errorf("decode gradient boosting model: %w", err)
		}
		model := &GradientBoosting{}
		if err := model.load(artifact); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
}
