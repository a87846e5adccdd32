// Package chunker splits a multi-day log note into sections that can be
// parsed independently. Every section starts at a day header, or carries the
// header it continues under, so no section loses its day.
package chunker

import (
	"strings"
	"unicode"
)

const (
	DefaultTargetLines = 200
	DefaultMaxLines    = 400
)

// Options configures chunking behavior.
type Options struct {
	TargetLines int // consecutive days are merged up to this many lines
	MaxLines    int // a single day longer than this is split
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{
		TargetLines: DefaultTargetLines,
		MaxLines:    DefaultMaxLines,
	}
}

// Section is a run of lines from the original note.
type Section struct {
	// Header is the day header the section continues under when it was split
	// out of a longer day. Empty when Text starts with its own header or
	// precedes every header.
	Header    string
	Text      string
	StartLine int
	EndLine   int
}

// Source returns the text to parse and the offset that turns a line number
// within it into a line number of the original note.
func (s Section) Source() (string, int) {
	if s.Header == "" {
		return s.Text, s.StartLine - 1
	}
	return s.Header + "\n" + s.Text, s.StartLine - 2
}

// IsDayHeader reports whether a trimmed line looks like "# 2018-04-14".
func IsDayHeader(line string) bool {
	if !strings.HasPrefix(line, "#") {
		return false
	}
	rest := strings.TrimLeft(line[1:], " \t")
	return rest != "" && unicode.IsDigit(rune(rest[0]))
}

// Chunk splits text into sections. Lines are kept verbatim so line numbers
// map back to the note.
func Chunk(text string, opts Options) []Section {
	if opts.TargetLines == 0 {
		opts = DefaultOptions()
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return mergeBlocks(splitDays(text), opts)
}

// block is the lines of one day.
type block struct {
	header    string
	lines     []string
	startLine int
}

func (b block) endLine() int { return b.startLine + len(b.lines) - 1 }

func (b block) blank() bool {
	for _, l := range b.lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}

// splitDays splits text on day header lines.
func splitDays(text string) []block {
	lines := strings.Split(text, "\n")
	var blocks []block
	cur := block{startLine: 1}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if IsDayHeader(trimmed) {
			if len(cur.lines) > 0 && !cur.blank() {
				blocks = append(blocks, cur)
			}
			cur = block{header: trimmed, startLine: i + 1}
		}
		cur.lines = append(cur.lines, line)
	}
	if !cur.blank() {
		blocks = append(blocks, cur)
	}
	return blocks
}

// mergeBlocks combines small consecutive days and splits oversized ones.
func mergeBlocks(blocks []block, opts Options) []Section {
	var results []Section
	var accum *block

	flush := func() {
		if accum == nil {
			return
		}
		if len(accum.lines) > opts.MaxLines {
			results = append(results, hardSplit(*accum, opts)...)
		} else {
			results = append(results, Section{
				Text:      strings.Join(accum.lines, "\n"),
				StartLine: accum.startLine,
				EndLine:   accum.endLine(),
			})
		}
		accum = nil
	}

	for _, b := range blocks {
		b := b
		if accum == nil {
			accum = &b
			continue
		}
		if len(accum.lines)+len(b.lines) <= opts.TargetLines {
			accum.lines = append(accum.lines, b.lines...)
			continue
		}
		flush()
		accum = &b
	}
	flush()

	return results
}

// hardSplit breaks one oversized day into pieces of TargetLines lines. Pieces
// after the first continue under the day's header.
func hardSplit(b block, opts Options) []Section {
	size := opts.TargetLines
	if size <= 0 || size > opts.MaxLines {
		size = opts.MaxLines
	}
	var results []Section
	for i := 0; i < len(b.lines); i += size {
		end := i + size
		if end > len(b.lines) {
			end = len(b.lines)
		}
		s := Section{
			Text:      strings.Join(b.lines[i:end], "\n"),
			StartLine: b.startLine + i,
			EndLine:   b.startLine + end - 1,
		}
		if i > 0 {
			s.Header = b.header
		}
		results = append(results, s)
	}
	return results
}
