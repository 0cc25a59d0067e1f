package ml

import (
	"errors"
	"fmt"
	"math"
)

const ModelTypeGradientBoosting = "gradient_boosting"

// RegressionNode is one node of a boosted tree. Samples go left when the
// feature is strictly below the threshold.
type RegressionNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// RegressionTree contributes a log-odds margin.
type RegressionTree struct {
	Nodes []RegressionNode `json:"nodes"`
}

type boostedPayload struct {
	BaseScore float64          `json:"base_score"`
	Trees     []RegressionTree `json:"trees"`
}

// GradientBoosting is an additive ensemble of regression trees with a
// logistic link, laid out the way XGBoost dumps binary:logistic models.
type GradientBoosting struct {
	artifactMeta
	baseScore float64
	trees     []RegressionTree
}

func NewGradientBoosting(baseScore float64, trees []RegressionTree, featureNames []string, schemaVersion string) *GradientBoosting {
	return &GradientBoosting{
		artifactMeta: artifactMeta{featureNames: append([]string(nil), featureNames...), schemaVersion: schemaVersion},
		baseScore:    baseScore,
		trees:        trees,
	}
}

func (gb *GradientBoosting) PredictProba(features []float64) ([]float64, error) {
	if len(features) != len(gb.featureNames) {
		return nil, fmt.Errorf("expected %d features, got %d", len(gb.featureNames), len(features))
	}
	margin := gb.baseScore
	for i, tree := range gb.trees {
		v, err := tree.eval(features)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		margin += v
	}
	p := sigmoid(margin)
	return []float64{1 - p, p}, nil
}

func (t RegressionTree) eval(features []float64) (float64, error) {
	idx := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		node := t.Nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if features[node.FeatureIdx] < node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
	return 0, errors.New("tree walk did not reach a leaf")
}

func (gb *GradientBoosting) validate() error {
	if len(gb.trees) == 0 {
		return errors.New("ensemble has no trees")
	}
	for ti, tree := range gb.trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni, node := range tree.Nodes {
			if node.IsLeaf {
				if math.IsNaN(node.Value) || math.IsInf(node.Value, 0) {
					return fmt.Errorf("tree %d node %d: invalid leaf value", ti, ni)
				}
				continue
			}
			if node.FeatureIdx < 0 || node.FeatureIdx >= len(gb.featureNames) {
				return fmt.Errorf("tree %d node %d: feature index %d out of range", ti, ni, node.FeatureIdx)
			}
			if node.LeftChild < 0 || node.LeftChild >= len(tree.Nodes) || node.RightChild < 0 || node.RightChild >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d: invalid children", ti, ni)
			}
		}
	}
	return nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
