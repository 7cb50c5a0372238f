package simlog

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is returned when a record lacks a required attribute.
	ErrMissingField = errors.New("missing field")
	// ErrNotNumeric is returned when an attribute does not parse as a float.
	ErrNotNumeric = errors.New("value is not numeric")
)

// SourceError reports a log that is not well-formed. It is fatal for the pass.
type SourceError struct {
	Offset int64
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("malformed log near byte %d: %v", e.Offset, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// RecordError reports a single record that could not be decoded. Callers skip
// the record and continue.
type RecordError struct {
	Tag   string
	Field string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("<%s> field %q: %v", e.Tag, e.Field, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
