package fileset

import (
	"fmt"

	"github.com/filesmith/filesmith/extract"
)

// SyntaxError indicates the payload does not parse under its declared
// format.
type SyntaxError struct {
	Format extract.Format
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed %s payload: %v", e.Format, e.Err)
}

// Unwrap returns the underlying parser error.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// SchemaError indicates the payload parsed but is not a mapping of string
// path to string content.
type SchemaError struct {
	Detail string
}

func (e *SchemaError) Error() string {
	return "schema violation: " + e.Detail
}

// DuplicateKeyError indicates the payload encodes the same relative path
// more than once.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate path %q in payload", e.Key)
}
