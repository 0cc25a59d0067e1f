package ml

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDecisionTreeTrainPredict(t *testing.T) {
	features := [][]float64{
		{0.1, 0.2},
		{0.2, 0.1},
		{0.9, 0.8},
		{0.8, 0.9},
	}
	labels := []int{0, 0, 1, 1}

	model := NewDecisionTree(2, []string{"a", "b"}, "")
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, confidence, err := model.Predict([]float64{0.15, 0.15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}
	if confidence != 1 {
		t.Fatalf("expected confidence 1 on a pure leaf, got %f", confidence)
	}

	proba, err := model.PredictProba([]float64{0.85, 0.85})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proba[1] != 1 || proba[0] != 0 {
		t.Fatalf("unexpected probabilities: %v", proba)
	}
}

func TestDecisionTreeSplitsIndicators(t *testing.T) {
	features := [][]float64{{0, 1}, {0, 1}, {0, 1}, {1, 0}}
	labels := []int{0, 0, 0, 1}
	model := NewDecisionTree(3, []string{"x_Yes", "x_No"}, "")
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proba, err := model.PredictProba([]float64{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proba[1] != 1 {
		t.Fatalf("expected indicator split, got %v", proba)
	}
}

func TestDecisionTreeTrainErrors(t *testing.T) {
	model := NewDecisionTree(2, []string{"a"}, "")
	if err := model.Train(nil, nil); err == nil {
		t.Fatal("expected error for empty input")
	}
	if err := model.Train([][]float64{{1}}, []int{0, 1}); err == nil {
		t.Fatal("expected error for size mismatch")
	}
	if err := model.Train([][]float64{{1}}, []int{2}); err == nil {
		t.Fatal("expected error for non binary label")
	}
	if err := model.Train([][]float64{{1, 2}}, []int{1}); err == nil {
		t.Fatal("expected error for wrong feature count")
	}
	if _, err := model.PredictProba([]float64{1}); err == nil {
		t.Fatal("expected error for untrained model")
	}
}

func TestDecisionTreeSaveLoad(t *testing.T) {
	model := NewDecisionTree(2, []string{"a", "b"}, "abc123")
	if err := model.Train([][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, []int{0, 0, 1, 1}); err != nil {
		t.Fatalf("train: %v", err)
	}
	path := filepath.Join(t.TempDir(), "tree.json")
	if err := SaveModel(model, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadModel(ModelTypeDecisionTree, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.SchemaVersion() != "abc123" {
		t.Fatalf("schema version lost: %q", loaded.SchemaVersion())
	}
	if names := loaded.FeatureNames(); len(names) != 2 || names[0] != "a" {
		t.Fatalf("feature names lost: %v", names)
	}
	want, _ := model.PredictProba([]float64{1, 0})
	got, err := loaded.PredictProba([]float64{1, 0})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got[1] != want[1] {
		t.Fatalf("loaded model predicts %v, original %v", got, want)
	}
}

func TestLoadModelErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		return path
	}

	tests := []struct {
		name      string
		modelType string
		path      string
	}{
		{name: "missing file", modelType: ModelTypeDecisionTree, path: filepath.Join(dir, "missing.json")},
		{name: "corrupt json", modelType: ModelTypeDecisionTree, path: write("corrupt.json", "{not json")},
		{name: "type mismatch", modelType: ModelTypeGradientBoosting, path: write("tree.json",
			`{"model_type":"decision_tree","feature_names":["a"],"model":[{"is_leaf":true,"probability":0.5}]}`)},
		{name: "unsupported type", modelType: "xgb_pickle", path: write("pickle.json",
			`{"model_type":"xgb_pickle","feature_names":["a"],"model":{}}`)},
		{name: "no feature names", modelType: ModelTypeDecisionTree, path: write("nofeatures.json",
			`{"model_type":"decision_tree","model":[{"is_leaf":true,"probability":0.5}]}`)},
		{name: "bad child index", modelType: ModelTypeDecisionTree, path: write("badtree.json",
			`{"model_type":"decision_tree","feature_names":["a"],"model":[{"feature_idx":0,"left_child":5,"right_child":6}]}`)},
		{name: "empty ensemble", modelType: ModelTypeGradientBoosting, path: write("empty.json",
			`{"model_type":"gradient_boosting","feature_names":["a"],"model":{"base_score":0,"trees":[]}}`)},
		{name: "coefficient count", modelType: ModelTypeLogisticRegression, path: write("lr.json",
			`{"model_type":"logistic_regression","feature_names":["a","b"],"model":{"intercept":0,"coefficients":[1]}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := LoadModel(tt.modelType, tt.path)
			if !errors.Is(err, ErrArtifactUnavailable) {
				t.Fatalf("expected ErrArtifactUnavailable, got %v", err)
			}
			if model != nil {
				t.Fatal("expected no model on failure")
			}
		})
	}
}

func TestGradientBoosting(t *testing.T) {
	stump := RegressionTree{Nodes: []RegressionNode{
		{FeatureIdx: 0, Threshold: 0.5, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, Value: -1},
		{IsLeaf: true, Value: 1},
	}}
	model := NewGradientBoosting(0, []RegressionTree{stump, stump}, []string{"x"}, "")

	path := filepath.Join(t.TempDir(), "gb.json")
	if err := SaveModel(model, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadModel(ModelTypeGradientBoosting, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	proba, err := loaded.PredictProba([]float64{1})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	want := 1 / (1 + math.Exp(-2))
	if math.Abs(proba[1]-want) > 1e-12 {
		t.Fatalf("expected %f, got %f", want, proba[1])
	}
	if math.Abs(proba[0]+proba[1]-1) > 1e-12 {
		t.Fatalf("probabilities do not sum to 1: %v", proba)
	}

	// XGBoost routes values equal to the threshold to the right.
	atThreshold, _ := loaded.PredictProba([]float64{0.5})
	if atThreshold[1] != proba[1] {
		t.Fatalf("threshold routing: %v", atThreshold)
	}

	if _, err := loaded.PredictProba([]float64{1, 2}); err == nil {
		t.Fatal("expected error for wrong feature count")
	}
}

func TestLogisticRegression(t *testing.T) {
	model := NewLogisticRegression(-1, []float64{2, 0.5}, []string{"a", "b"}, "v1")
	path := filepath.Join(t.TempDir(), "lr.json")
	if err := SaveModel(model, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadModel(ModelTypeLogisticRegression, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	proba, err := loaded.PredictProba([]float64{1, 2})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	want := 1 / (1 + math.Exp(-2))
	if math.Abs(proba[1]-want) > 1e-12 {
		t.Fatalf("expected %f, got %f", want, proba[1])
	}
}

func TestPredictorRoundTrip(t *testing.T) {
	table, enc := referenceEncoder(t)
	features, labels, err := BuildTrainingSet(table, enc)
	if err != nil {
		t.Fatalf("training set: %v", err)
	}
	model := NewDecisionTree(4, enc.Schema().Columns, enc.Schema().Version)
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("train: %v", err)
	}
	predictor := NewPredictor(model)

	for i, row := range table.Rows {
		v, err := enc.Encode(row)
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		p, err := predictor.Predict(context.Background(), v)
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		if p < 0 || p > 1 {
			t.Fatalf("row %d: probability %v outside [0,1]", i, p)
		}
	}

	accuracy, _, _ := Evaluate(model, features, labels)
	if accuracy < 0.75 {
		t.Fatalf("expected the tree to fit its training data, accuracy %.2f", accuracy)
	}
}

func TestPredictorRejectsMisalignedVector(t *testing.T) {
	model := NewLogisticRegression(0, []float64{1, 1}, []string{"a", "b"}, "")
	predictor := NewPredictor(model)

	_, err := predictor.Predict(context.Background(), Vector{Columns: []string{"b", "a"}, Values: []float64{1, 0}})
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	_, err = predictor.Predict(context.Background(), Vector{Columns: []string{"a"}, Values: []float64{1}})
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	_, err = predictor.Predict(context.Background(), Vector{Columns: []string{"a", "b"}, Values: []float64{1}})
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch for ragged vector, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := predictor.Predict(ctx, Vector{Columns: []string{"a", "b"}, Values: []float64{1, 0}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProbabilityPercent(t *testing.T) {
	tests := []struct {
		p    Probability
		want float64
	}{
		{p: 0, want: 0},
		{p: 1, want: 100},
		{p: 0.123456, want: 12.35},
		{p: 0.5, want: 50},
	}
	for _, tt := range tests {
		if got := tt.p.Percent(); got != tt.want {
			t.Fatalf("Percent(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestSplitDataset(t *testing.T) {
	features := make([][]float64, 10)
	labels := make([]int, 10)
	for i := range features {
		features[i] = []float64{float64(i)}
	}
	trainX, trainY, testX, testY := SplitDataset(features, labels, 0.3)
	if len(trainX) != 7 || len(trainY) != 7 || len(testX) != 3 || len(testY) != 3 {
		t.Fatalf("unexpected split sizes %d/%d", len(trainX), len(testX))
	}
	if testX[0][0] != 7 {
		t.Fatal("split should keep row order")
	}
}
