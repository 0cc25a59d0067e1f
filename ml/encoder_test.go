package ml

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"heartrisk/dataset"
)

func TestOrdinalEncodingScenario(t *testing.T) {
	table := &dataset.Table{Columns: []string{dataset.LabelColumn, "PhysicalHealth", "MentalHealth", "SleepTime", "BMICategory", "AgeCategory"}}
	for i, bmi := range []string{"Underweight", "Normal", "Overweight"} {
		rec := baseRecord()
		rec.BMICategory = bmi
		table.IDs = append(table.IDs, string(rune('a'+i)))
		table.Rows = append(table.Rows, rec)
		table.Labels = append(table.Labels, 0)
	}

	rec := baseRecord()
	rec.BMICategory = "Normal"
	_, vector, err := EncodeCombined(table, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	code, ok := vector.Get("BMICategory")
	if !ok {
		t.Fatal("BMICategory column missing")
	}
	// Lexical order is Normal, Overweight, Underweight.
	if code != 0 {
		t.Fatalf("expected Normal to encode as 0, got %v", code)
	}

	schema, err := BuildSchema(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	enc, err := NewEncoder(schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for want, bmi := range []string{"Normal", "Overweight", "Underweight"} {
		rec.BMICategory = bmi
		v, err := enc.Encode(rec)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, _ := v.Get("BMICategory"); got != float64(want) {
			t.Fatalf("%s encoded as %v, want %d", bmi, got, want)
		}
	}
}

func TestOrdinalEncodingIsMonotonic(t *testing.T) {
	table, enc := referenceEncoder(t)
	for _, field := range dataset.OrdinalFields {
		values := table.Distinct(field)
		prev := -1.0
		for _, value := range values {
			rec := baseRecord()
			switch field {
			case "BMICategory":
				rec.BMICategory = value
			case "AgeCategory":
				rec.AgeCategory = value
			}
			v, err := enc.Encode(rec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			code, _ := v.Get(field)
			if code <= prev {
				t.Fatalf("%s=%q got rank %v, not above previous %v", field, value, code, prev)
			}
			prev = code
		}
	}
}

func TestOneHotSmokingScenario(t *testing.T) {
	_, enc := referenceEncoder(t)

	tests := []struct {
		smoking string
		no      float64
		yes     float64
	}{
		{smoking: "Yes", no: 0, yes: 1},
		{smoking: "No", no: 1, yes: 0},
	}
	for _, tt := range tests {
		t.Run(tt.smoking, func(t *testing.T) {
			rec := baseRecord()
			rec.Smoking = tt.smoking
			v, err := enc.Encode(rec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			no, _ := v.Get("Smoking_No")
			yes, _ := v.Get("Smoking_Yes")
			if no != tt.no || yes != tt.yes {
				t.Fatalf("Smoking_No=%v Smoking_Yes=%v, want %v %v", no, yes, tt.no, tt.yes)
			}
		})
	}
}

func TestOneHotExactlyOnePerField(t *testing.T) {
	table, enc := referenceEncoder(t)
	for i, row := range table.Rows {
		v, err := enc.Encode(row)
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		for _, field := range dataset.OneHotFields {
			ones, zeros := 0, 0
			for j, col := range v.Columns {
				if !strings.HasPrefix(col, field+"_") {
					continue
				}
				switch v.Values[j] {
				case 1:
					ones++
				case 0:
					zeros++
				default:
					t.Fatalf("row %d: indicator %s has value %v", i, col, v.Values[j])
				}
			}
			if ones != 1 {
				t.Fatalf("row %d: field %s has %d hot columns (%d cold)", i, field, ones, zeros)
			}
		}
	}
}

func TestEncodeIsIdempotent(t *testing.T) {
	table, enc := referenceEncoder(t)
	rec := baseRecord()

	first, err := enc.Encode(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := enc.Encode(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Encode is not deterministic")
	}

	_, a, err := EncodeCombined(table, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, b, err := EncodeCombined(table, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("EncodeCombined is not deterministic")
	}
}

func TestCombinedAndSchemaEncodersAgree(t *testing.T) {
	table, enc := referenceEncoder(t)
	for i, row := range table.Rows {
		_, combined, err := EncodeCombined(table, row)
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		fixed, err := enc.Encode(row)
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		if !reflect.DeepEqual(combined, fixed) {
			t.Fatalf("row %d: combined %v != fixed %v", i, combined.Values, fixed.Values)
		}
		if err := enc.Schema().Verify(combined.Columns); err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
	}
}

func TestEncodeCombinedTable(t *testing.T) {
	table := loadReference(t)
	encoded, vector, err := EncodeCombined(table, baseRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(encoded.Rows) != table.Len()+1 {
		t.Fatalf("expected %d rows, got %d", table.Len()+1, len(encoded.Rows))
	}
	if !reflect.DeepEqual(encoded.Rows[len(encoded.Rows)-1], vector.Values) {
		t.Fatal("returned vector is not the last encoded row")
	}
	if table.Len() != 12 {
		t.Fatal("reference table mutated")
	}
}

func TestEncodeCombinedUnseenCategoryWidensLayout(t *testing.T) {
	table, enc := referenceEncoder(t)
	rec := baseRecord()
	rec.Race = "Other"

	_, vector, err := EncodeCombined(table, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vector.Columns) != len(enc.Schema().Columns)+1 {
		t.Fatalf("expected one extra column, got %d vs %d", len(vector.Columns), len(enc.Schema().Columns))
	}
	if err := enc.Schema().Verify(vector.Columns); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}

	if _, err := enc.Encode(rec); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestEncodeUnknownOrdinal(t *testing.T) {
	_, enc := referenceEncoder(t)
	rec := baseRecord()
	rec.AgeCategory = "120+"
	if _, err := enc.Encode(rec); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestNewEncoderRejectsInconsistentSchema(t *testing.T) {
	schema, err := BuildSchema(loadReference(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	broken := *schema
	broken.Columns = append([]string(nil), schema.Columns...)
	broken.Columns[len(broken.Columns)-1] = "SkinCancer_Maybe"
	if _, err := NewEncoder(&broken); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}

	broken.Columns = append([]string{"Sex"}, schema.Columns[1:]...)
	if _, err := NewEncoder(&broken); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch for one-hot field in passthrough, got %v", err)
	}

	if _, err := NewEncoder(nil); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch for nil schema, got %v", err)
	}
}
