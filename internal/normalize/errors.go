package normalize

import "fmt"

// MalformedRowError reports one unusable source row. The row is skipped and
// recorded; a malformed row never aborts a run.
type MalformedRowError struct {
	Source string
	Line   int
	Field  string
	Reason string
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("%s line %d: field %q: %s", e.Source, e.Line, e.Field, e.Reason)
}

func malformed(source string, line int, field, reason string) *MalformedRowError {
	return &MalformedRowError{Source: source, Line: line, Field: field, Reason: reason}
}
