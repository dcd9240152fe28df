package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// GradientBoosting sums the outputs of its trees, scaled by the learning
// rate, on top of a constant base score.
type GradientBoosting struct {
	BaseScore    float64
	LearningRate float64
	trees        []*RegressionTree
}

type boostingArtifact struct {
	FeatureNames []string     `json:"feature_names,omitempty"`
	BaseScore    float64      `json:"base_score"`
	LearningRate *float64     `json:"learning_rate"`
	Trees        [][]TreeNode `json:"trees"`
}

// Predict implements Model.
func (gb *GradientBoosting) Predict(ctx context.Context, rows []FeatureRecord) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(gb.trees) == 0 {
		return nil, errors.New("model not loaded")
	}
	predictions := make([]float64, len(rows))
	for i, row := range rows {
		sum := 0.0
		for _, tree := range gb.trees {
			value, err := tree.evaluate(row)
			if err != nil {
				return nil, err
			}
			sum += value
		}
		predictions[i] = gb.BaseScore + gb.LearningRate*sum
	}
	return predictions, nil
}

func (gb *GradientBoosting) load(artifact boostingArtifact) error {
	if err := checkFeatureNames(artifact.FeatureNames); err != nil {
		return err
	}
	if len(artifact.Trees) == 0 {
		return errors.New("ensemble has no trees")
	}
	learningRate := 1.0
	if artifact.LearningRate != nil {
		learningRate = *artifact.LearningRate
	}
	if learningRate <= 0 || math.IsInf(learningRate, 0) || math.IsNaN(learningRate) {
		return fmt.Errorf("learning rate must be positive, got %v", learningRate)
	}

	trees := make([]*RegressionTree, 0, len(artifact.Trees))
	for i, nodes := range artifact.Trees {
		tree, err := NewRegressionTree(nodes)
		if err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
		trees = append(trees, tree)
	}

	gb.BaseScore = artifact.BaseScore
	gb.LearningRate = learningRate
	gb.trees = trees
	return nil
}
