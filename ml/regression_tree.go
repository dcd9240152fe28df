package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// RegressionTree walks a flattened tree from the root to a leaf value.
type RegressionTree struct {
	nodes []TreeNode
}

// TreeNode is one node of a flattened tree. Child indices are absolute
// positions in the node list and always greater than the parent's index.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

type treeArtifact struct {
	FeatureNames []string   `json:"feature_names,omitempty"`
	Nodes        []TreeNode `json:"nodes"`
}

// NewRegressionTree validates nodes and returns a tree ready for prediction.
func NewRegressionTree(nodes []TreeNode) (*RegressionTree, error) {
	if err := validateNodes(nodes); err != nil {
		return nil, err
	}
	copied := make([]TreeNode, len(nodes))
	copy(copied, nodes)
	return &RegressionTree{nodes: copied}, nil
}

// Predict implements Model.
func (rt *RegressionTree) Predict(ctx context.Context, rows []FeatureRecord) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	predictions := make([]float64, len(rows))
	for i, row := range rows {
		value, err := rt.evaluate(row)
		if err != nil {
			return nil, err
		}
		predictions[i] = value
	}
	return predictions, nil
}

func (rt *RegressionTree) evaluate(row FeatureRecord) (float64, error) {
	if len(rt.nodes) == 0 {
		return 0, errors.New("model not loaded")
	}
	idx := 0
	for {
		node := rt.nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= FeatureCount {
			return 0, errors.New("feature index out of range")
		}
		if row.at(node.FeatureIdx) <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(rt.nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func (rt *RegressionTree) load(artifact treeArtifact) error {
	if err := checkFeatureNames(artifact.FeatureNames); err != nil {
		return err
	}
	if err := validateNodes(artifact.Nodes); err != nil {
		return err
	}
	rt.nodes = artifact.Nodes
	return nil
}

func validateNodes(nodes []TreeNode) error {
	if len(nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range nodes {
		if math.IsNaN(node.Value) || math.IsInf(node.Value, 0) {
			return fmt.Errorf("node %d: value is not finite", i)
		}
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= FeatureCount {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if math.IsNaN(node.Threshold) {
			return fmt.Errorf("node %d: threshold is NaN", i)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(nodes) {
				return fmt.Errorf("node %d: child index %d out of range", i, child)
			}
		}
	}
	return nil
}
