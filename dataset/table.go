package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrDataUnavailable is returned when the reference dataset is missing or malformed.
var ErrDataUnavailable = errors.New("reference data unavailable")

// Table is the reference record set. Columns keeps the file order of the
// data columns (row id excluded, label included).
type Table struct {
	Columns []string
	IDs     []string
	Rows    []Record
	Labels  []int
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Distinct returns the sorted distinct values of a categorical field.
func (t *Table) Distinct(field string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, row := range t.Rows {
		v, ok := row.Category(field)
		if !ok {
			return nil
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// Unique returns the distinct values of a categorical field in first-seen order.
func (t *Table) Unique(field string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, row := range t.Rows {
		v, ok := row.Category(field)
		if !ok {
			return nil
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

// Append returns a new table with rec as its last row. t is left untouched.
func (t *Table) Append(rec Record) *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		IDs:     make([]string, 0, len(t.IDs)+1),
		Rows:    make([]Record, 0, len(t.Rows)+1),
		Labels:  make([]int, 0, len(t.Labels)+1),
	}
	out.IDs = append(append(out.IDs, t.IDs...), "")
	out.Rows = append(append(out.Rows, t.Rows...), rec)
	out.Labels = append(append(out.Labels, t.Labels...), LabelUnknown)
	return out
}

// ReadCSV parses a reference dataset. The first column is a row identifier;
// every input field and the label column must be present.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrDataUnavailable)
		}
		return nil, fmt.Errorf("%w: read header: %v", ErrDataUnavailable, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: header has %d columns", ErrDataUnavailable, len(header))
	}

	columns := make([]string, len(header)-1)
	index := make(map[string]int, len(columns))
	for i, name := range header[1:] {
		name = normalize(name)
		columns[i] = name
		index[name] = i + 1
	}
	for _, f := range Fields {
		if _, ok := index[f.Name]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrDataUnavailable, f.Name)
		}
	}
	labelIdx, ok := index[LabelColumn]
	if !ok {
		return nil, fmt.Errorf("%w: missing column %s", ErrDataUnavailable, LabelColumn)
	}

	table := &Table{Columns: columns}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrDataUnavailable, line, err)
		}

		var row Record
		for _, f := range Fields {
			raw := normalize(record[index[f.Name]])
			if f.Kind == KindNumeric {
				v, err := parseNumber(raw)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %s: %v", ErrDataUnavailable, line, f.Name, err)
				}
				*row.intField(f.Name) = v
				continue
			}
			if raw == "" {
				return nil, fmt.Errorf("%w: line %d: %s is empty", ErrDataUnavailable, line, f.Name)
			}
			*row.stringField(f.Name) = raw
		}

		label, err := parseLabel(normalize(record[labelIdx]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrDataUnavailable, line, err)
		}

		table.IDs = append(table.IDs, record[0])
		table.Rows = append(table.Rows, row)
		table.Labels = append(table.Labels, label)
	}

	if table.Len() == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrDataUnavailable)
	}
	return table, nil
}

// parseNumber accepts integral values written as floats ("7.0"), which is
// how pandas exports integer columns that once held NaN.
func parseNumber(raw string) (int, error) {
	if v, err := strconv.Atoi(raw); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("non-integral value %q", raw)
	}
	return int(f), nil
}

func parseLabel(raw string) (int, error) {
	switch raw {
	case "No", "0":
		return 0, nil
	case "Yes", "1":
		return 1, nil
	default:
		return 0, fmt.Errorf("invalid %s value %q", LabelColumn, raw)
	}
}

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
