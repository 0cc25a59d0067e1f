package ml

import (
	"os"
	"testing"

	"heartrisk/dataset"
)

const referencePath = "../dataset/testdata/reference.csv"

func loadReference(t *testing.T) *dataset.Table {
	t.Helper()
	file, err := os.Open(referencePath)
	if err != nil {
		t.Fatalf("open reference: %v", err)
	}
	defer file.Close()
	table, err := dataset.ReadCSV(file)
	if err != nil {
		t.Fatalf("read reference: %v", err)
	}
	return table
}

func referenceEncoder(t *testing.T) (*dataset.Table, *Encoder) {
	t.Helper()
	table := loadReference(t)
	schema, err := BuildSchema(table)
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	enc, err := NewEncoder(schema)
	if err != nil {
		t.Fatalf("new encoder: %v", err)
	}
	return table, enc
}

func baseRecord() dataset.Record {
	return dataset.Record{
		PhysicalHealth:   2,
		MentalHealth:     1,
		SleepTime:        7,
		BMICategory:      "Normal weight",
		Smoking:          "No",
		AlcoholDrinking:  "No",
		Stroke:           "No",
		DiffWalking:      "No",
		Sex:              "Female",
		AgeCategory:      "55-59",
		Race:             "White",
		Diabetic:         "No",
		PhysicalActivity: "Yes",
		GenHealth:        "Good",
		Asthma:           "No",
		KidneyDisease:    "No",
		SkinCancer:       "No",
	}
}
