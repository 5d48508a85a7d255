// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

package wordstar

import (
	"errors"
	"fmt"
)

// ErrMalformedDocument matches every *MalformedError with errors.Is.
var ErrMalformedDocument = errors.New("malformed document")

// MalformedError reports a document that does not match the grammar. Line and
// Column are 1-based; a zero Line means the failure is not tied to a line
// (for example a truncated file header).
type MalformedError struct {
	Line   int
	Column int
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", ErrMalformedDocument, e.Reason)
	}
	return fmt.Sprintf("%s: line %d, column %d: %s", ErrMalformedDocument, e.Line, e.Column, e.Reason)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedDocument
}
