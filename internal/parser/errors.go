package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGrammarMismatch is wrapped by every error for a line that is neither
	// an entry nor a day header.
	ErrGrammarMismatch = errors.New("grammar mismatch")
	// ErrNestingTooDeep is returned when parenthesized extras nest deeper
	// than MaxExtraDepth.
	ErrNestingTooDeep = errors.New("extras nested too deep")
	// ErrInvalidDay is returned by ParseDeferErrors for entries below a day
	// header that failed to parse.
	ErrInvalidDay = errors.New("invalid day header")
)

// GrammarError reports where a line stopped matching the grammar.
type GrammarError struct {
	LineNo   int
	Column   int
	Line     string
	Expected []string
	Err      error
}

func (e *GrammarError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "line %d, column %d: ", e.LineNo, e.Column)
	switch {
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	case len(e.Expected) > 0:
		b.WriteString("expected " + strings.Join(e.Expected, " or "))
	default:
		b.WriteString(ErrGrammarMismatch.Error())
	}
	fmt.Fprintf(&b, ": %q", e.Line)
	return b.String()
}

func (e *GrammarError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrGrammarMismatch, e.Err}
	}
	return []error{ErrGrammarMismatch}
}

// ParseError is a line that failed in ParseDeferErrors.
type ParseError struct {
	Err        error
	Line       string
	LineNo     int
	DayContext string // day header in effect, without the leading '#'
}

func (e *ParseError) Error() string {
	if e.DayContext == "" {
		return fmt.Sprintf("no day: %v", e.Err)
	}
	return fmt.Sprintf("day %s: %v", e.DayContext, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Warning is a non-fatal problem with a parsed line.
type Warning struct {
	LineNo  int
	Line    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s: %q", w.LineNo, w.Message, w.Line)
}
