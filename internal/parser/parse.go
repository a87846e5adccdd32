// Package parser turns log notes into events.
//
// A note is a sequence of day headers and entries:
//
//	# 2018-04-14
//	08:00 - 100mg Caffeine + 200mg L-Theanine
//	~12:30 - 1x Multivitamin (100mg Magnesium (from Citrate) + 10mg Zinc)
//	+00:30 - 0.5mg Melatonin
//	21:00 - Went to bed
//
// Parse is strict and fails on the first malformed line. ParseDeferErrors
// parses line by line and collects failures instead.
package parser

import (
	"fmt"
	"strings"

	"github.com/rcliao/doselog/internal/model"
)

// Result is the outcome of parsing a note.
type Result struct {
	Events   []model.Event
	Errors   []*ParseError
	Warnings []Warning

	// Lines counts the lines attempted; valid headers and blank lines are
	// not counted. Lines == Parsed + len(Errors).
	Lines  int
	Parsed int
}

// Parse parses text strictly. The first line that is neither blank, a day
// header, nor an entry aborts with a *GrammarError.
func Parse(text string) (*Result, error) {
	doc, err := ParseDocument(text)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	v := newVisitor(res)
	for _, n := range doc.Nodes {
		if _, ok := n.(*Entry); ok {
			res.Lines++
			res.Parsed++
		}
		v.visit(n)
	}
	return res, nil
}

// ParseDeferErrors parses text line by line under the most recent day
// header. Lines that fail are recorded in Result.Errors and parsing
// continues with the next line. When a header line fails, the entries below
// it fail with ErrInvalidDay until the next valid header.
func ParseDeferErrors(text string) *Result {
	res := &Result{}
	v := newVisitor(res)
	dayContext := ""
	invalidDay := false
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		n, err := parseLine(raw, i+1)
		isHeader := strings.HasPrefix(line, "#")
		if isHeader {
			dayContext = strings.TrimSpace(strings.TrimPrefix(line, "#"))
			invalidDay = err != nil
			if err == nil {
				v.visit(n)
				continue
			}
		}
		res.Lines++
		if err == nil && invalidDay {
			err = fmt.Errorf("%w: %q", ErrInvalidDay, "# "+dayContext)
		}
		if err != nil {
			res.Errors = append(res.Errors, &ParseError{
				Err:        err,
				Line:       line,
				LineNo:     i + 1,
				DayContext: dayContext,
			})
			continue
		}
		res.Parsed++
		v.visit(n)
	}
	return res
}

// Doses returns only the dose events of the result.
func (r *Result) Doses() []model.Event {
	var out []model.Event
	for _, e := range r.Events {
		if e.Kind == model.KindDose {
			out = append(out, e)
		}
	}
	return out
}
