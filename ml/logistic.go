package ml

import (
	"errors"
	"fmt"
	"math"
)

const ModelTypeLogisticRegression = "logistic_regression"

type logisticPayload struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

type LogisticRegression struct {
	artifactMeta
	intercept    float64
	coefficients []float64
}

func NewLogisticRegression(intercept float64, coefficients []float64, featureNames []string, schemaVersion string) *LogisticRegression {
	return &LogisticRegression{
		artifactMeta: artifactMeta{featureNames: append([]string(nil), featureNames...), schemaVersion: schemaVersion},
		intercept:    intercept,
		coefficients: append([]float64(nil), coefficients...),
	}
}

func (lr *LogisticRegression) PredictProba(features []float64) ([]float64, error) {
	if len(features) != len(lr.coefficients) {
		return nil, fmt.Errorf("expected %d features, got %d", len(lr.coefficients), len(features))
	}
	z := lr.intercept
	for i, w := range lr.coefficients {
		z += w * features[i]
	}
	p := sigmoid(z)
	return []float64{1 - p, p}, nil
}

func (lr *LogisticRegression) validate() error {
	if len(lr.coefficients) == 0 {
		return errors.New("no coefficients")
	}
	if len(lr.coefficients) != len(lr.featureNames) {
		return fmt.Errorf("%d coefficients for %d features", len(lr.coefficients), len(lr.featureNames))
	}
	for i, w := range lr.coefficients {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	return nil
}
