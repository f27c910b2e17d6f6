package dataset

import (
	"errors"
	"fmt"
)

// ErrSourceNotFound indicates a source CSV could not be opened.
var ErrSourceNotFound = errors.New("source file not found")

// SchemaError reports a source table missing an expected column.
type SchemaError struct {
	Source string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing expected column %q", e.Source, e.Column)
}

// MalformedInputError reports a cell that could not be coerced to its
// expected type. Line is 1-based and counts the header row.
type MalformedInputError struct {
	Source string
	Line   int
	Column string
	Value  string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%s:%d: malformed value %q in column %q", e.Source, e.Line, e.Value, e.Column)
}
