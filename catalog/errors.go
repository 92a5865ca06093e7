package catalog

import (
	"errors"
	"fmt"
)

// ErrNoRows reports a source that was read but produced no usable rows.
var ErrNoRows = errors.New("no valid rows")

// LoadError reports a source that could not be used at all.
type LoadError struct {
	Source string // "models" or "mappings"
	Path   string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s from %s: %v", e.Source, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// RowError reports one skipped row. Line is the 1-based line (CSV) or row ordinal
// (SQLite) where the record starts.
type RowError struct {
	Source string
	Line   int
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Source, e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
