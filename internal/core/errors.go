package core

import (
	"errors"
	"fmt"
)

var (
	// ErrDataSourceNotFound is returned when the configured input does not exist.
	ErrDataSourceNotFound = errors.New("data source not found")
	// ErrMalformedRow matches any *MalformedRowError.
	ErrMalformedRow = errors.New("malformed row")
	// ErrMissingColumn is returned when a mapped column is absent from the header.
	ErrMissingColumn = errors.New("missing column")
)

// MalformedRowError describes a row whose date, amount or alias could not be parsed.
// Line is the 1-based record number, counting preamble and header records.
type MalformedRowError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row at line %d: column %q value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *MalformedRowError) Unwrap() error {
	return e.Err
}

func (e *MalformedRowError) Is(target error) bool {
	return target == ErrMalformedRow
}
