package ml

import "encoding/json"

// Classifier is a frozen binary classifier. PredictProba returns one
// probability per class, index 1 being the positive class.
type Classifier interface {
	PredictProba(features []float64) ([]float64, error)
	FeatureNames() []string
	SchemaVersion() string
}

// Artifact is the on-disk envelope shared by all model types.
type Artifact struct {
	ModelType     string          `json:"model_type"`
	SchemaVersion string          `json:"schema_version,omitempty"`
	FeatureNames  []string        `json:"feature_names"`
	Model         json.RawMessage `json:"model"`
}

type artifactMeta struct {
	featureNames  []string
	schemaVersion string
}

func (m artifactMeta) FeatureNames() []string {
	return append([]string(nil), m.featureNames...)
}

func (m artifactMeta) SchemaVersion() string {
	return m.schemaVersion
}

func (m artifactMeta) envelope(modelType string, model interface{}) ([]byte, error) {
	payload, err := json.Marshal(model)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(Artifact{
		ModelType:     modelType,
		SchemaVersion: m.schemaVersion,
		FeatureNames:  m.featureNames,
		Model:         payload,
	}, "", "  ")
}
