package report

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput    = errors.New("empty input")
	ErrMalformedCSV  = errors.New("malformed csv")
	ErrBadHeader     = errors.New("unparseable header row")
	ErrNoCategories  = errors.New("no categories found")
	ErrMissingTotals = errors.New("required totals missing")
)

// ParseError is returned for any input the parser rejects. Line is the
// 1-based CSV line when known.
type ParseError struct {
	Line   int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse income statement: line %d: %s", e.Line, e.Reason)
	}
	return "parse income statement: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(line int, err error, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Reason: fmt.Sprintf(format, args...), Err: err}
}
