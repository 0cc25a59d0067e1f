package ml

import (
	"context"
	"fmt"
	"math"
)

// Probability is the mass assigned to the positive class.
type Probability float64

// Percent returns the probability as a percentage rounded to two decimals.
func (p Probability) Percent() float64 {
	return math.Round(float64(p)*100*100) / 100
}

// Predictor scores encoded vectors with a frozen classifier. It never
// mutates the model or the vectors it is given.
type Predictor struct {
	model Classifier
}

func NewPredictor(model Classifier) *Predictor {
	return &Predictor{model: model}
}

// Model returns the underlying classifier.
func (p *Predictor) Model() Classifier {
	return p.model
}

// Predict checks that v has exactly the columns the classifier was trained
// on, in the same order, and returns the positive class probability.
func (p *Predictor) Predict(ctx context.Context, v Vector) (Probability, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(v.Columns) != len(v.Values) {
		return 0, fmt.Errorf("%w: %d columns but %d values", ErrSchemaMismatch, len(v.Columns), len(v.Values))
	}
	if err := verifyColumns(p.model.FeatureNames(), v.Columns); err != nil {
		return 0, err
	}

	proba, err := p.model.PredictProba(v.Values)
	if err != nil {
		return 0, fmt.Errorf("score vector: %w", err)
	}
	if len(proba) < 2 {
		return 0, fmt.Errorf("classifier returned %d class probabilities", len(proba))
	}
	positive := proba[1]
	if math.IsNaN(positive) || positive < 0 || positive > 1 {
		return 0, fmt.Errorf("classifier returned probability %v outside [0,1]", positive)
	}
	return Probability(positive), nil
}
