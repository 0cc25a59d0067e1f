package ml

import (
	"errors"
	"fmt"

	"heartrisk/dataset"
)

// BuildTrainingSet encodes every labelled row of the table with enc.
func BuildTrainingSet(t *dataset.Table, enc *Encoder) (features [][]float64, labels []int, err error) {
	if t == nil || t.Len() == 0 {
		return nil, nil, errors.New("table is empty")
	}
	features = make([][]float64, 0, t.Len())
	labels = make([]int, 0, t.Len())
	for i, row := range t.Rows {
		if t.Labels[i] == dataset.LabelUnknown {
			continue
		}
		v, err := enc.Encode(row)
		if err != nil {
			return nil, nil, fmt.Errorf("row %s: %w", t.IDs[i], err)
		}
		features = append(features, v.Values)
		labels = append(labels, t.Labels[i])
	}
	if len(features) == 0 {
		return nil, nil, errors.New("no labelled rows")
	}
	return features, labels, nil
}

// SplitDataset keeps the first share of rows for training and the rest for testing.
func SplitDataset(features [][]float64, labels []int, testRatio float64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}

	split := int(float64(len(features)) * (1 - testRatio))
	for i := range features {
		if i < split {
			trainX = append(trainX, features[i])
			trainY = append(trainY, labels[i])
		} else {
			testX = append(testX, features[i])
			testY = append(testY, labels[i])
		}
	}
	return trainX, trainY, testX, testY
}

// Evaluate reports accuracy, precision and recall of model on a held-out set,
// counting label 1 as positive.
func Evaluate(model Classifier, testX [][]float64, testY []int) (accuracy, precision, recall float64) {
	if len(testX) == 0 {
		return 0, 0, 0
	}

	var correct int
	var truePositive int
	var predictedPositive int
	var actualPositive int

	for i, feature := range testX {
		proba, err := model.PredictProba(feature)
		if err != nil || len(proba) < 2 {
			continue
		}
		label := 0
		if proba[1] >= 0.5 {
			label = 1
		}
		if label == testY[i] {
			correct++
		}
		if label == 1 {
			predictedPositive++
		}
		if testY[i] == 1 {
			actualPositive++
			if label == 1 {
				truePositive++
			}
		}
	}

	accuracy = float64(correct) / float64(len(testX))
	if predictedPositive > 0 {
		precision = float64(truePositive) / float64(predictedPositive)
	}
	if actualPositive > 0 {
		recall = float64(truePositive) / float64(actualPositive)
	}
	return accuracy, precision, recall
}
