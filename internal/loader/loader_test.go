package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rcliao/doselog/internal/chunker"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const twoDays = `# 2018-04-14
08:00 - 100mg Caffeine
not an entry

# 2018-04-15
08:00 - 100mg Caffeine
+00:30 - 0.5mg Melatonin
`

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", twoDays)
	writeFile(t, dir, "nested/deep/b.txt", twoDays)
	writeFile(t, dir, "nested/c.png", "binary")

	files, err := Discover([]string{filepath.Join(dir, "**", "*"), filepath.Join(dir, "*.md")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "nested", "deep", "b.txt"),
	}, files)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "log.md", twoDays)

	l := New(zap.NewNop(), WithChunkOptions(chunker.Options{TargetLines: 1, MaxLines: 2}))
	res, err := l.LoadFiles(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)

	f := res.Files[0]
	assert.Equal(t, 4, f.Lines)
	assert.Equal(t, 3, f.Parsed)
	require.Len(t, f.Errors, 1)
	assert.Equal(t, 3, f.Errors[0].LineNo)
	assert.Equal(t, "not an entry", f.Errors[0].Line)
	assert.Equal(t, path, f.Errors[0].Source)

	events := res.Events()
	require.Len(t, events, 3)
	assert.Equal(t, time.Date(2018, 4, 16, 0, 30, 0, 0, time.UTC), events[2].Timestamp)
}

func TestLoadFilesSplitDayKeepsLineNumbers(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "log.md", "# 2018-04-14\n08:00 - 1x A\n08:01 - 1x B\n08:02 - 1x C\nbroken\n08:04 - 1x E")

	l := New(zap.NewNop(), WithChunkOptions(chunker.Options{TargetLines: 2, MaxLines: 3}))
	res, err := l.LoadFiles(context.Background(), []string{path})
	require.NoError(t, err)

	require.Len(t, res.Errors(), 1)
	assert.Equal(t, 5, res.Errors()[0].LineNo)
	assert.Equal(t, "2018-04-14", res.Errors()[0].DayContext)
	events := res.Events()
	require.Len(t, events, 4)
	for _, e := range events {
		assert.Equal(t, 14, e.Timestamp.Day())
	}
}

func TestLoadDeduplicatesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", twoDays)
	writeFile(t, dir, "b.md", twoDays)

	res, err := New(zap.NewNop(), WithWorkers(2)).Load(context.Background(), []string{filepath.Join(dir, "*.md")})
	require.NoError(t, err)
	assert.Len(t, res.Files, 2)
	assert.Len(t, res.Events(), 3)
	assert.Len(t, res.Errors(), 2)
}

func TestLoadStandardNotes(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Standard Notes Decrypted Backup.txt", `{
  "items": [
    {"content": {"title": "2018-04-15", "text": "08:00 - 50mg Caffeine\noops"}},
    {"content": {"title": "Shopping list", "text": "milk"}},
    {"content": {"title": "Log 2018-04-16", "text": "08:00 - 10mg Caffeine"}},
    {"content": {"references": []}},
    {"content": {"title": "2018-04-14", "text": "08:00 - 100mg Caffeine"}}
  ]
}`)
	notes, err := ReadNotes(path)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, path+"#2018-04-14", notes[0].Source)
	assert.Equal(t, "# 2018-04-14\n\n08:00 - 100mg Caffeine", notes[0].Text)

	res, err := New(zap.NewNop()).LoadFiles(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Len(t, res.Events(), 2)
	assert.Empty(t, res.Warnings())
	require.Len(t, res.Errors(), 1)
	assert.Equal(t, path+"#2018-04-15", res.Errors()[0].Source)
	assert.Equal(t, 2, res.Errors()[0].LineNo)
}

func TestReadNotesEvernote(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Note 2018-04-14.md", ">author:someone\n---\n## Metadata\n08:00 - 100mg Caffeine\n")
	notes, err := ReadNotes(path)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, -1, notes[0].LineOffset)

	res, err := New(zap.NewNop()).LoadFiles(context.Background(), []string{path})
	require.NoError(t, err)
	events := res.Events()
	require.Len(t, events, 1)
	assert.Equal(t, time.Date(2018, 4, 14, 8, 0, 0, 0, time.UTC), events[0].Timestamp)
	assert.Empty(t, res.Warnings())
}

func TestLoadWarningsAreLocated(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "undated.md", "\n12:00 - 1x Aspirin")
	res, err := New(zap.NewNop()).LoadFiles(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, res.Warnings(), 1)
	assert.Equal(t, 2, res.Warnings()[0].LineNo)
	assert.Equal(t, path, res.Warnings()[0].Source)
}

func TestLoadCancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "log.md", twoDays)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(zap.NewNop()).LoadFiles(ctx, []string{path})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New(zap.NewNop()).LoadFiles(context.Background(), []string{filepath.Join(t.TempDir(), "nope.md")})
	assert.Error(t, err)
}
