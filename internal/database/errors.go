package database

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTable  = errors.New("unknown table")
	ErrEmptyTable    = errors.New("table is empty")
	ErrRowNotFound   = errors.New("row not found")
	ErrStaleRevision = errors.New("table changed since it was loaded")
)

// ParseError reports a table file that exists but cannot be read back.
// It is never repaired automatically.
type ParseError struct {
	Table Table
	Line  int
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Table.Filename(), e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
