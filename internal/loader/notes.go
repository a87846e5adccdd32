package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rcliao/doselog/internal/chunker"
)

var (
	reDate = regexp.MustCompile(`[0-9]{4}-[0-9]{1,2}-[0-9]{1,2}`)
	// Backup titles become day headers, so the date must lead.
	reTitleDate = regexp.MustCompile(`^[0-9]{4}-[0-9]{1,2}-[0-9]{1,2}`)
)

// Note is the text of one log note and where it came from.
type Note struct {
	Source string // file path, with "#title" for notes inside a backup
	Text   string
	// LineOffset is added to line numbers of Text to get line numbers of the
	// source; negative when a header line was synthesized.
	LineOffset int
}

// ReadNotes reads a file into notes. Standard Notes backups (JSON) yield one
// note per item titled with a date; any other file is one note.
func ReadNotes(path string) ([]Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if notes, ok := standardNotes(path, data); ok {
		return notes, nil
	}
	text, offset := markdownNote(path, string(data))
	return []Note{{Source: path, Text: text, LineOffset: offset}}, nil
}

type standardNotesBackup struct {
	Items []struct {
		Content struct {
			Title *string `json:"title"`
			Text  *string `json:"text"`
		} `json:"content"`
	} `json:"items"`
}

// standardNotes decodes a Standard Notes decrypted backup. Items without a
// title and text, or whose title is not a date, are skipped.
func standardNotes(path string, data []byte) ([]Note, bool) {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var backup standardNotesBackup
	if err := json.Unmarshal(data, &backup); err != nil || backup.Items == nil {
		return nil, false
	}
	var notes []Note
	for _, item := range backup.Items {
		title, text := item.Content.Title, item.Content.Text
		if title == nil || text == nil || !reTitleDate.MatchString(*title) {
			continue
		}
		notes = append(notes, Note{
			Source:     path + "#" + *title,
			Text:       fmt.Sprintf("# %s\n\n%s", *title, *text),
			LineOffset: -2,
		})
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].Source < notes[j].Source })
	return notes, true
}

// markdownNote drops Evernote export metadata lines, blanking them so line
// numbers hold. A note without a day header gets one from a date in its
// file name.
func markdownNote(path, text string) (string, int) {
	lines := strings.Split(text, "\n")
	hasHeader := false
	for i, line := range lines {
		if strings.HasPrefix(line, ">") || strings.HasPrefix(line, "---") || strings.HasPrefix(line, "##") {
			lines[i] = ""
			continue
		}
		if chunker.IsDayHeader(strings.TrimSpace(line)) {
			hasHeader = true
		}
	}
	text = strings.Join(lines, "\n")
	if d := reDate.FindString(filepath.Base(path)); d != "" && !hasHeader {
		return "# " + d + "\n" + text, -1
	}
	return text, 0
}
