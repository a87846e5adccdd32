package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func TestChunk_EmptyInput(t *testing.T) {
	result := Chunk("  \n\n", DefaultOptions())
	if result != nil {
		t.Errorf("expected nil, got %v", result)
	}
}

func TestChunk_SingleDay(t *testing.T) {
	text := "# 2018-04-14\n08:00 - 100mg Caffeine"
	result := Chunk(text, DefaultOptions())
	if len(result) != 1 {
		t.Fatalf("expected 1 section, got %d", len(result))
	}
	if result[0].Text != text {
		t.Errorf("expected %q, got %q", text, result[0].Text)
	}
	if result[0].StartLine != 1 || result[0].EndLine != 2 {
		t.Errorf("expected lines 1-2, got %d-%d", result[0].StartLine, result[0].EndLine)
	}
}

func TestChunk_SplitsOnDayHeaders(t *testing.T) {
	text := "# 2018-04-14\n08:00 - 1x A\n\n# 2018-04-15\n08:00 - 1x B\n## Notes\n# 2018-04-16\n08:00 - 1x C"
	opts := Options{TargetLines: 2, MaxLines: 10}
	result := Chunk(text, opts)
	if len(result) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(result))
	}
	if !strings.HasPrefix(result[1].Text, "# 2018-04-15") {
		t.Errorf("second section should start at its header, got %q", result[1].Text)
	}
	if !strings.Contains(result[1].Text, "## Notes") {
		t.Errorf("markdown headings should not split days, got %q", result[1].Text)
	}
	if result[2].StartLine != 7 {
		t.Errorf("expected third section at line 7, got %d", result[2].StartLine)
	}
}

func TestChunk_MergesSmallDays(t *testing.T) {
	text := "# 2018-04-14\n08:00 - 1x A\n# 2018-04-15\n08:00 - 1x B"
	result := Chunk(text, DefaultOptions())
	if len(result) != 1 {
		t.Fatalf("expected 1 merged section, got %d", len(result))
	}
	if result[0].EndLine != 4 {
		t.Errorf("expected EndLine 4, got %d", result[0].EndLine)
	}
}

func TestChunk_KeepsPreamble(t *testing.T) {
	text := "12:00 - 1x A\n# 2018-04-15\n08:00 - 1x B"
	result := Chunk(text, Options{TargetLines: 1, MaxLines: 10})
	if len(result) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(result))
	}
	if result[0].Text != "12:00 - 1x A" {
		t.Errorf("unexpected preamble %q", result[0].Text)
	}
}

func TestChunk_HardSplitsLongDay(t *testing.T) {
	lines := []string{"# 2018-04-14"}
	for i := 0; i < 25; i++ {
		lines = append(lines, fmt.Sprintf("08:%02d - 1x A", i))
	}
	result := Chunk(strings.Join(lines, "\n"), Options{TargetLines: 10, MaxLines: 20})
	if len(result) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(result))
	}
	if result[0].Header != "" {
		t.Errorf("first piece has its own header, got %q", result[0].Header)
	}
	for _, s := range result[1:] {
		if s.Header != "# 2018-04-14" {
			t.Errorf("expected continuation header, got %q", s.Header)
		}
	}
	if result[1].StartLine != 11 || result[2].EndLine != 26 {
		t.Errorf("unexpected line ranges %d, %d", result[1].StartLine, result[2].EndLine)
	}
}

func TestSection_Source(t *testing.T) {
	s := Section{Header: "# 2018-04-14", Text: "08:10 - 1x A", StartLine: 11, EndLine: 11}
	text, offset := s.Source()
	if text != "# 2018-04-14\n08:10 - 1x A" {
		t.Errorf("unexpected source %q", text)
	}
	// line 2 of the source is line 11 of the note
	if offset+2 != 11 {
		t.Errorf("expected offset 9, got %d", offset)
	}

	s = Section{Text: "# 2018-04-14\n08:10 - 1x A", StartLine: 5, EndLine: 6}
	_, offset = s.Source()
	if offset+1 != 5 {
		t.Errorf("expected offset 4, got %d", offset)
	}
}

func TestIsDayHeader(t *testing.T) {
	cases := map[string]bool{
		"# 2018-04-14":         true,
		"#2018-04-14 - Sunday": true,
		"## Notes":             false,
		"# Notes":              false,
		"08:00 - 1x A":         false,
		"#":                    false,
	}
	for in, want := range cases {
		if got := IsDayHeader(in); got != want {
			t.Errorf("IsDayHeader(%q): expected %v, got %v", in, want, got)
		}
	}
}
