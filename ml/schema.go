package ml

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"heartrisk/dataset"
)

// CategorySet is the sorted value universe of one categorical field.
type CategorySet struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

// FeatureSchema fixes the encoded column layout. Version is derived from the
// layout, so equal layouts always share a version.
type FeatureSchema struct {
	Version string        `json:"version"`
	Label   string        `json:"label"`
	Columns []string      `json:"columns"`
	Ordinal []CategorySet `json:"ordinal"`
	OneHot  []CategorySet `json:"one_hot"`
}

// BuildSchema computes the encoding layout of a table: numeric and ordinal
// columns in table order, then one indicator block per one-hot field with
// its values ascending.
func BuildSchema(t *dataset.Table) (*FeatureSchema, error) {
	if t == nil || t.Len() == 0 {
		return nil, fmt.Errorf("%w: reference table is empty", dataset.ErrDataUnavailable)
	}

	schema := &FeatureSchema{Label: dataset.LabelColumn}
	for _, col := range t.Columns {
		if col == dataset.LabelColumn || slices.Contains(dataset.OneHotFields, col) {
			continue
		}
		f, ok := dataset.LookupField(col)
		if !ok {
			continue
		}
		if f.Kind == dataset.KindNumeric || f.Kind == dataset.KindOrdinal {
			schema.Columns = append(schema.Columns, col)
		}
	}
	for _, field := range dataset.OrdinalFields {
		schema.Ordinal = append(schema.Ordinal, CategorySet{Field: field, Values: t.Distinct(field)})
	}
	for _, field := range dataset.OneHotFields {
		values := t.Distinct(field)
		schema.OneHot = append(schema.OneHot, CategorySet{Field: field, Values: values})
		for _, v := range values {
			schema.Columns = append(schema.Columns, field+"_"+v)
		}
	}

	version, err := schema.computeVersion()
	if err != nil {
		return nil, err
	}
	schema.Version = version
	return schema, nil
}

// Verify checks that columns match the schema in both membership and order.
func (s *FeatureSchema) Verify(columns []string) error {
	return verifyColumns(s.Columns, columns)
}

// Equal reports whether two schemas describe the same layout.
func (s *FeatureSchema) Equal(other *FeatureSchema) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Label == other.Label &&
		slices.Equal(s.Columns, other.Columns) &&
		slices.EqualFunc(s.Ordinal, other.Ordinal, equalCategorySet) &&
		slices.EqualFunc(s.OneHot, other.OneHot, equalCategorySet)
}

// Diff describes the first difference between two schemas, or "" when equal.
func (s *FeatureSchema) Diff(other *FeatureSchema) string {
	if s.Equal(other) {
		return ""
	}
	if err := verifyColumns(s.Columns, other.Columns); err != nil {
		return err.Error()
	}
	for i, set := range s.Ordinal {
		if i >= len(other.Ordinal) || !equalCategorySet(set, other.Ordinal[i]) {
			return fmt.Sprintf("ordinal categories differ for %s", set.Field)
		}
	}
	return "schema structure differs"
}

func equalCategorySet(a, b CategorySet) bool {
	return a.Field == b.Field && slices.Equal(a.Values, b.Values)
}

func (s *FeatureSchema) computeVersion() (string, error) {
	layout := struct {
		Label   string        `json:"label"`
		Columns []string      `json:"columns"`
		Ordinal []CategorySet `json:"ordinal"`
		OneHot  []CategorySet `json:"one_hot"`
	}{s.Label, s.Columns, s.Ordinal, s.OneHot}
	payload, err := json.Marshal(layout)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:12], nil
}

// SaveSchema writes the schema as indented JSON.
func (s *FeatureSchema) SaveSchema(path string) error {
	payload, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

// LoadSchema reads a schema file and checks its version against its content.
func LoadSchema(path string) (*FeatureSchema, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactUnavailable, err)
	}
	var schema FeatureSchema
	if err := json.Unmarshal(payload, &schema); err != nil {
		return nil, fmt.Errorf("%w: decode schema %s: %v", ErrArtifactUnavailable, path, err)
	}
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("%w: schema %s has no columns", ErrArtifactUnavailable, path)
	}
	version, err := schema.computeVersion()
	if err != nil {
		return nil, err
	}
	if version != schema.Version {
		return nil, fmt.Errorf("%w: schema %s declares version %s but its content hashes to %s",
			ErrArtifactUnavailable, path, schema.Version, version)
	}
	return &schema, nil
}
