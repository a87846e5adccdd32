// Package loader finds log notes on disk, splits them into day sections and
// parses the sections in parallel.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/doselog/internal/chunker"
	"github.com/rcliao/doselog/internal/model"
	"github.com/rcliao/doselog/internal/parser"
)

// Extensions are the file extensions read as notes.
var Extensions = []string{".md", ".txt", ".json"}

// LineError is a line that failed to parse, located in its source.
type LineError struct {
	Source string
	*parser.ParseError
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.LineNo, e.ParseError)
}

// LineWarning is a parser warning located in its source.
type LineWarning struct {
	Source string
	parser.Warning
}

func (w LineWarning) String() string {
	return fmt.Sprintf("%s:%d: %s", w.Source, w.LineNo, w.Message)
}

// FileResult holds what was parsed from one file.
type FileResult struct {
	Path     string
	Events   []model.Event
	Errors   []*LineError
	Warnings []LineWarning
	Lines    int
	Parsed   int
}

// Result is the outcome of loading a set of files.
type Result struct {
	Files []*FileResult
}

// Events returns all events, deduplicated and sorted by time.
func (r *Result) Events() []model.Event {
	var all []model.Event
	for _, f := range r.Files {
		all = append(all, f.Events...)
	}
	all = model.Dedup(all)
	model.Sort(all)
	return all
}

// Errors returns the line errors of every file.
func (r *Result) Errors() []*LineError {
	var all []*LineError
	for _, f := range r.Files {
		all = append(all, f.Errors...)
	}
	return all
}

// Warnings returns the warnings of every file.
func (r *Result) Warnings() []LineWarning {
	var all []LineWarning
	for _, f := range r.Files {
		all = append(all, f.Warnings...)
	}
	return all
}

// Loader parses notes with a bounded number of workers.
type Loader struct {
	logger  *zap.Logger
	chunks  chunker.Options
	workers int
}

// Option configures a Loader.
type Option func(*Loader)

// WithWorkers sets the number of sections parsed concurrently.
func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithChunkOptions sets how notes are split into sections.
func WithChunkOptions(opts chunker.Options) Option {
	return func(l *Loader) { l.chunks = opts }
}

// New creates a Loader.
func New(logger *zap.Logger, opts ...Option) *Loader {
	l := &Loader{
		logger:  logger,
		chunks:  chunker.DefaultOptions(),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Discover expands glob patterns ("**" allowed) into a sorted list of note
// files with a known extension.
func Discover(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !HasNoteExtension(m) || seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// HasNoteExtension reports whether path is a file the loader reads.
func HasNoteExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load discovers and parses every file matching patterns.
func (l *Loader) Load(ctx context.Context, patterns []string) (*Result, error) {
	files, err := Discover(patterns)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("discovered notes", zap.Int("files", len(files)))
	return l.LoadFiles(ctx, files)
}

// job is one day section of one note.
type job struct {
	file    int
	source  string
	section chunker.Section
	offset  int
}

// LoadFiles parses the given files. Sections are parsed in parallel; results
// keep file and line order.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) (*Result, error) {
	res := &Result{Files: make([]*FileResult, len(paths))}
	var jobs []job
	for i, path := range paths {
		res.Files[i] = &FileResult{Path: path}
		notes, err := ReadNotes(path)
		if err != nil {
			return nil, err
		}
		for _, n := range notes {
			for _, s := range chunker.Chunk(n.Text, l.chunks) {
				jobs = append(jobs, job{file: i, source: n.Source, section: s, offset: n.LineOffset})
			}
		}
	}

	parsed := make([]*parser.Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, _ := j.section.Source()
			parsed[i] = parser.ParseDeferErrors(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, j := range jobs {
		_, sectionOffset := j.section.Source()
		offset := sectionOffset + j.offset
		f := res.Files[j.file]
		p := parsed[i]
		f.Events = append(f.Events, p.Events...)
		f.Lines += p.Lines
		f.Parsed += p.Parsed
		for _, pe := range p.Errors {
			located := *pe
			located.LineNo += offset
			f.Errors = append(f.Errors, &LineError{Source: j.source, ParseError: &located})
		}
		for _, w := range p.Warnings {
			w.LineNo += offset
			f.Warnings = append(f.Warnings, LineWarning{Source: j.source, Warning: w})
		}
	}

	for _, f := range res.Files {
		l.logger.Debug("parsed note",
			zap.String("path", f.Path),
			zap.Int("events", len(f.Events)),
			zap.Int("errors", len(f.Errors)))
	}
	return res, nil
}
