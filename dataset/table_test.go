package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const fixturePath = "testdata/reference.csv"

func loadFixture(t *testing.T) *Table {
	t.Helper()
	file, err := os.Open(fixturePath)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer file.Close()
	table, err := ReadCSV(file)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return table
}

func TestReadCSV(t *testing.T) {
	table := loadFixture(t)

	if table.Len() != 12 {
		t.Fatalf("expected 12 rows, got %d", table.Len())
	}
	if table.Columns[0] != LabelColumn {
		t.Fatalf("expected first data column %s, got %s", LabelColumn, table.Columns[0])
	}
	first := table.Rows[0]
	if first.PhysicalHealth != 3 || first.MentalHealth != 30 || first.SleepTime != 5 {
		t.Fatalf("unexpected numeric values: %+v", first)
	}
	if first.BMICategory != "Underweight" || first.Sex != "Female" {
		t.Fatalf("unexpected categorical values: %+v", first)
	}
	if table.Rows[7].Diabetic != "No, borderline diabetes" {
		t.Fatalf("quoted value not preserved: %q", table.Rows[7].Diabetic)
	}
	if table.Labels[5] != 1 || table.Labels[0] != 0 {
		t.Fatalf("unexpected labels: %v", table.Labels)
	}
	if table.IDs[11] != "11" {
		t.Fatalf("unexpected row id: %s", table.IDs[11])
	}
}

func TestReadCSVErrors(t *testing.T) {
	header := ",HeartDisease,Smoking,AlcoholDrinking,Stroke,PhysicalHealth,MentalHealth,DiffWalking,Sex,AgeCategory,Race,Diabetic,PhysicalActivity,GenHealth,SleepTime,Asthma,KidneyDisease,SkinCancer,BMICategory\n"
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "header only", input: header},
		{name: "missing column", input: ",HeartDisease,Smoking\n0,No,Yes\n"},
		{name: "bad number", input: header + "0,No,Yes,No,No,abc,0,No,Male,18-24,White,No,Yes,Good,7,No,No,No,Obese\n"},
		{name: "fractional number", input: header + "0,No,Yes,No,No,1.5,0,No,Male,18-24,White,No,Yes,Good,7,No,No,No,Obese\n"},
		{name: "bad label", input: header + "0,Maybe,Yes,No,No,1,0,No,Male,18-24,White,No,Yes,Good,7,No,No,No,Obese\n"},
		{name: "empty category", input: header + "0,No,,No,No,1,0,No,Male,18-24,White,No,Yes,Good,7,No,No,No,Obese\n"},
		{name: "short row", input: header + "0,No,Yes\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			if !errors.Is(err, ErrDataUnavailable) {
				t.Fatalf("expected ErrDataUnavailable, got %v", err)
			}
		})
	}
}

func TestDistinctAndUnique(t *testing.T) {
	table := loadFixture(t)

	bmi := table.Distinct("BMICategory")
	want := []string{"Normal weight", "Obese", "Overweight", "Underweight"}
	if !reflect.DeepEqual(bmi, want) {
		t.Fatalf("Distinct = %v, want %v", bmi, want)
	}

	race := table.Unique("Race")
	wantRace := []string{"White", "Black", "Hispanic", "Asian"}
	if !reflect.DeepEqual(race, wantRace) {
		t.Fatalf("Unique = %v, want %v", race, wantRace)
	}

	if table.Distinct("SleepTime") != nil {
		t.Fatal("expected nil for numeric field")
	}
}

func TestAppendLeavesReferenceUntouched(t *testing.T) {
	table := loadFixture(t)
	rec := table.Rows[0]
	rec.Race = "Other"

	combined := table.Append(rec)
	if combined.Len() != table.Len()+1 {
		t.Fatalf("expected %d rows, got %d", table.Len()+1, combined.Len())
	}
	if combined.Labels[combined.Len()-1] != LabelUnknown {
		t.Fatal("appended row should have unknown label")
	}
	if combined.Rows[combined.Len()-1].Race != "Other" {
		t.Fatal("appended row not last")
	}
	if table.Len() != 12 {
		t.Fatal("reference table mutated")
	}
	for _, v := range table.Distinct("Race") {
		if v == "Other" {
			t.Fatal("reference table picked up appended category")
		}
	}
}

func TestLoaderLoadsOnce(t *testing.T) {
	payload, err := os.ReadFile(fixturePath)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "reference.csv")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	loader := NewLoader(path, nil)
	first, err := loader.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	second, err := loader.Load()
	if err != nil {
		t.Fatalf("second load should be served from memory: %v", err)
	}
	if first != second {
		t.Fatal("expected the same table instance")
	}
}

func TestLoaderMissingFile(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "missing.csv"), nil)
	table, err := loader.Load()
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if table != nil {
		t.Fatal("expected nil table")
	}
	if _, err := loader.Load(); !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected remembered error, got %v", err)
	}
}
