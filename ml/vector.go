package ml

import (
	"fmt"
	"strconv"
	"strings"
)

// Vector is one encoded row together with its column names.
type Vector struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

// Get returns the value of a named column.
func (v Vector) Get(column string) (float64, bool) {
	for i, c := range v.Columns {
		if c == column {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Key renders the values as a compact string, usable as a cache key.
func (v Vector) Key() string {
	var b strings.Builder
	for i, value := range v.Values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(value, 'g', -1, 64))
	}
	return b.String()
}

func verifyColumns(expected, got []string) error {
	if len(expected) != len(got) {
		return fmt.Errorf("%w: expected %d columns, got %d", ErrSchemaMismatch, len(expected), len(got))
	}
	for i := range expected {
		if expected[i] != got[i] {
			return fmt.Errorf("%w: column %d is %q, expected %q", ErrSchemaMismatch, i, got[i], expected[i])
		}
	}
	return nil
}
