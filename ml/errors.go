package ml

import "errors"

var (
	// ErrArtifactUnavailable is returned when the classifier artifact or the
	// feature schema file is missing or corrupt.
	ErrArtifactUnavailable = errors.New("classifier artifact unavailable")
	// ErrSchemaMismatch is returned when an encoded layout differs from the
	// layout the classifier was trained on.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
	// ErrUnknownCategory is returned when a record carries a category the schema does not know.
	ErrUnknownCategory = errors.New("unknown category")
)
