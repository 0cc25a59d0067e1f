package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// LoadModel reads a classifier artifact of the configured type. Every
// failure is reported as ErrArtifactUnavailable.
func LoadModel(modelType, path string) (Classifier, error) {
	model, err := loadModel(modelType, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactUnavailable, path, err)
	}
	return model, nil
}

func loadModel(modelType, path string) (Classifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if artifact.ModelType != modelType {
		return nil, fmt.Errorf("artifact holds %q, configured %q", artifact.ModelType, modelType)
	}
	if len(artifact.FeatureNames) == 0 {
		return nil, errors.New("artifact lists no feature names")
	}
	meta := artifactMeta{featureNames: artifact.FeatureNames, schemaVersion: artifact.SchemaVersion}

	switch modelType {
	case ModelTypeDecisionTree:
		var nodes []TreeNode
		if err := json.Unmarshal(artifact.Model, &nodes); err != nil {
			return nil, fmt.Errorf("decode tree: %w", err)
		}
		model := &DecisionTree{artifactMeta: meta, nodes: nodes}
		if err := model.validate(); err != nil {
			return nil, err
		}
		return model, nil
	case ModelTypeGradientBoosting:
		var p boostedPayload
		if err := json.Unmarshal(artifact.Model, &p); err != nil {
			return nil, fmt.Errorf("decode ensemble: %w", err)
		}
		model := &GradientBoosting{artifactMeta: meta, baseScore: p.BaseScore, trees: p.Trees}
		if err := model.validate(); err != nil {
			return nil, err
		}
		return model, nil
	case ModelTypeLogisticRegression:
		var p logisticPayload
		if err := json.Unmarshal(artifact.Model, &p); err != nil {
			return nil, fmt.Errorf("decode coefficients: %w", err)
		}
		model := &LogisticRegression{artifactMeta: meta, intercept: p.Intercept, coefficients: p.Coefficients}
		if err := model.validate(); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, errors.New("unsupported model type")
	}
}

// SaveModel writes an artifact for a model built in memory.
func SaveModel(model Classifier, path string) error {
	var (
		payload []byte
		err     error
	)
	switch m := model.(type) {
	case *DecisionTree:
		return m.Save(path)
	case *GradientBoosting:
		payload, err = m.envelope(ModelTypeGradientBoosting, boostedPayload{BaseScore: m.baseScore, Trees: m.trees})
	case *LogisticRegression:
		payload, err = m.envelope(ModelTypeLogisticRegression, logisticPayload{Intercept: m.intercept, Coefficients: m.coefficients})
	default:
		return fmt.Errorf("cannot save %T", model)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}
