package ml

import (
	"fmt"

	"heartrisk/dataset"
)

type passthroughColumn struct {
	field   string
	ordinal map[string]int
}

type oneHotBlock struct {
	field  string
	offset int
	index  map[string]int
}

// Encoder maps records onto a fixed FeatureSchema. It holds no mutable
// state and is safe for concurrent use.
type Encoder struct {
	schema      *FeatureSchema
	passthrough []passthroughColumn
	blocks      []oneHotBlock
}

// NewEncoder prepares lookup tables for schema and checks that its columns
// are consistent with its category sets.
func NewEncoder(schema *FeatureSchema) (*Encoder, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrSchemaMismatch)
	}

	ordinal := make(map[string]map[string]int, len(schema.Ordinal))
	for _, set := range schema.Ordinal {
		ranks := make(map[string]int, len(set.Values))
		for i, v := range set.Values {
			ranks[v] = i
		}
		ordinal[set.Field] = ranks
	}

	width := 0
	for _, set := range schema.OneHot {
		width += len(set.Values)
	}
	head := len(schema.Columns) - width
	if head < 0 {
		return nil, fmt.Errorf("%w: %d indicator values exceed %d columns", ErrSchemaMismatch, width, len(schema.Columns))
	}

	enc := &Encoder{schema: schema}
	for _, col := range schema.Columns[:head] {
		f, ok := dataset.LookupField(col)
		if !ok {
			return nil, fmt.Errorf("%w: unknown column %q", ErrSchemaMismatch, col)
		}
		switch f.Kind {
		case dataset.KindNumeric:
			enc.passthrough = append(enc.passthrough, passthroughColumn{field: col})
		case dataset.KindOrdinal:
			ranks, ok := ordinal[col]
			if !ok {
				return nil, fmt.Errorf("%w: no categories for ordinal column %q", ErrSchemaMismatch, col)
			}
			enc.passthrough = append(enc.passthrough, passthroughColumn{field: col, ordinal: ranks})
		default:
			return nil, fmt.Errorf("%w: column %q must be one-hot encoded", ErrSchemaMismatch, col)
		}
	}

	offset := head
	for _, set := range schema.OneHot {
		block := oneHotBlock{field: set.Field, offset: offset, index: make(map[string]int, len(set.Values))}
		for i, v := range set.Values {
			want := set.Field + "_" + v
			if got := schema.Columns[offset+i]; got != want {
				return nil, fmt.Errorf("%w: column %d is %q, expected %q", ErrSchemaMismatch, offset+i, got, want)
			}
			block.index[v] = i
		}
		enc.blocks = append(enc.blocks, block)
		offset += len(set.Values)
	}
	return enc, nil
}

// Schema returns the layout the encoder produces.
func (e *Encoder) Schema() *FeatureSchema {
	return e.schema
}

// Encode produces the feature vector of rec.
func (e *Encoder) Encode(rec dataset.Record) (Vector, error) {
	values := make([]float64, len(e.schema.Columns))
	for i, col := range e.passthrough {
		if col.ordinal == nil {
			n, _ := rec.Number(col.field)
			values[i] = float64(n)
			continue
		}
		v, _ := rec.Category(col.field)
		rank, ok := col.ordinal[v]
		if !ok {
			return Vector{}, fmt.Errorf("%w: %s=%q", ErrUnknownCategory, col.field, v)
		}
		values[i] = float64(rank)
	}
	for _, block := range e.blocks {
		v, _ := rec.Category(block.field)
		pos, ok := block.index[v]
		if !ok {
			return Vector{}, fmt.Errorf("%w: %s=%q", ErrUnknownCategory, block.field, v)
		}
		values[block.offset+pos] = 1
	}
	return Vector{
		Columns: append([]string(nil), e.schema.Columns...),
		Values:  values,
	}, nil
}

// EncodedTable is a fully encoded table, one row per input row.
type EncodedTable struct {
	Columns []string
	Rows    [][]float64
}

// EncodeCombined appends rec to the reference table, fits the ordinal and
// indicator encodings over the combined rows, and returns both the encoded
// combined table and its last row. Categories that only rec carries widen
// the layout, so callers serving a frozen classifier should use an Encoder
// built from a fixed schema instead.
func EncodeCombined(ref *dataset.Table, rec dataset.Record) (*EncodedTable, Vector, error) {
	if ref == nil {
		return nil, Vector{}, fmt.Errorf("%w: nil reference table", dataset.ErrDataUnavailable)
	}
	combined := ref.Append(rec)

	schema, err := BuildSchema(combined)
	if err != nil {
		return nil, Vector{}, err
	}
	enc, err := NewEncoder(schema)
	if err != nil {
		return nil, Vector{}, err
	}

	table := &EncodedTable{
		Columns: schema.Columns,
		Rows:    make([][]float64, combined.Len()),
	}
	for i, row := range combined.Rows {
		v, err := enc.Encode(row)
		if err != nil {
			return nil, Vector{}, fmt.Errorf("row %d: %w", i, err)
		}
		table.Rows[i] = v.Values
	}

	last := table.Rows[len(table.Rows)-1]
	return table, Vector{
		Columns: append([]string(nil), schema.Columns...),
		Values:  append([]float64(nil), last...),
	}, nil
}
