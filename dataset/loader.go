package dataset

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Loader reads the reference dataset once and hands out the same table for
// the rest of the process lifetime.
type Loader struct {
	path   string
	logger *zap.Logger

	once  sync.Once
	table *Table
	err   error
}

// NewLoader creates a loader for the CSV file at path.
func NewLoader(path string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{path: path, logger: logger}
}

// Load returns the cached table, reading it from disk on the first call.
// A failed first load is remembered and returned on every later call.
func (l *Loader) Load() (*Table, error) {
	l.once.Do(func() {
		l.table, l.err = l.read()
	})
	return l.table, l.err
}

// Path returns the file the loader reads.
func (l *Loader) Path() string {
	return l.path
}

func (l *Loader) read() (*Table, error) {
	start := time.Now()
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer file.Close()

	table, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	l.logger.Info("reference dataset loaded",
		zap.String("path", l.path),
		zap.Int("rows", table.Len()),
		zap.Int("columns", len(table.Columns)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return table, nil
}
