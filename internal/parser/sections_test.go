package parser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/otaku572/gptproduct/internal/models"
)

func TestSplitSections(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []models.Section
	}{
		{
			name: "empty text",
			text: "",
			want: nil,
		},
		{
			name: "heading then two turns",
			text: "# Title\nUser: hi\nAssistant: hello\n",
			want: []models.Section{
				{Label: models.SectionGeneral, Heading: "Intro", Content: "# Title", StartLine: 1},
				{Label: models.SectionUser, Heading: "User: hi", Content: "hi", StartLine: 2},
				{Label: models.SectionAssistant, Heading: "Assistant: hello", Content: "hello", StartLine: 3},
			},
		},
		{
			name: "markers are case-insensitive",
			text: "user: lower\nDECISION: upper\naction: mixed",
			want: []models.Section{
				{Label: models.SectionUser, Heading: "user: lower", Content: "lower", StartLine: 1},
				{Label: models.SectionDecision, Heading: "DECISION: upper", Content: "upper", StartLine: 2},
				{Label: models.SectionAction, Heading: "action: mixed", Content: "mixed", StartLine: 3},
			},
		},
		{
			name: "continuation lines join the open section",
			text: "User: first\nsecond\nthird",
			want: []models.Section{
				{Label: models.SectionUser, Heading: "User: first", Content: "first\nsecond\nthird", StartLine: 1},
			},
		},
		{
			name: "marker only lines yield empty content",
			text: "Decision:\nAction:",
			want: []models.Section{
				{Label: models.SectionDecision, Heading: "Decision:", Content: "", StartLine: 1},
				{Label: models.SectionAction, Heading: "Action:", Content: "", StartLine: 2},
			},
		},
		{
			name: "marker mid-line is not a marker",
			text: "said User: something",
			want: []models.Section{
				{Label: models.SectionGeneral, Heading: "Intro", Content: "said User: something", StartLine: 1},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSections(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitSections() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// Marker count determines section count: N marker lines produce exactly N
// labeled sections, plus at most one leading General section.
func TestSplitSections_MarkerCount(t *testing.T) {
	text := "intro line\nUser: one\nmore\nAssistant: two\nDecision: three\nplain\nAction: four"
	sections := SplitSections(text)
	if len(sections) != 5 {
		t.Fatalf("expected 5 sections, got %d", len(sections))
	}
	if sections[0].Label != models.SectionGeneral {
		t.Errorf("first section should be General, got %s", sections[0].Label)
	}
	for _, s := range sections[1:] {
		if s.Label == models.SectionGeneral {
			t.Errorf("unexpected non-leading General section: %+v", s)
		}
	}
}

// Sections partition the input lines: start lines are strictly increasing and
// each section's content line count fits inside its line span.
func TestSplitSections_PartitionsLines(t *testing.T) {
	text := "a\nb\nUser: hi\nx\ny\nAssistant: ok\nz"
	sections := SplitSections(text)
	total := len(strings.Split(text, "\n"))
	for i, s := range sections {
		if i > 0 && s.StartLine <= sections[i-1].StartLine {
			t.Errorf("start lines not increasing at %d: %+v", i, sections)
		}
		end := total
		if i+1 < len(sections) {
			end = sections[i+1].StartLine - 1
		}
		if got := len(strings.Split(s.Content, "\n")); got > end-s.StartLine+1 {
			t.Errorf("section %d content overflows its span: %d lines in [%d,%d]", i, got, s.StartLine, end)
		}
	}
	// With no blank edge lines the join reconstructs the original text minus markers.
	var rebuilt []string
	for _, s := range sections {
		if s.Label == models.SectionGeneral {
			rebuilt = append(rebuilt, s.Content)
			continue
		}
		rebuilt = append(rebuilt, s.Heading)
		if rest := strings.SplitN(s.Content, "\n", 2); len(rest) == 2 {
			rebuilt = append(rebuilt, rest[1])
		}
	}
	want := "a\nb\nUser: hi\nx\ny\nAssistant: ok\nz"
	if got := strings.Join(rebuilt, "\n"); got != want {
		t.Errorf("reconstruction = %q, want %q", got, want)
	}
}

func TestSplitSections_Idempotent(t *testing.T) {
	text := "User: hi\nAssistant: hello\nDecision: ship it\n"
	if !reflect.DeepEqual(SplitSections(text), SplitSections(text)) {
		t.Error("two splits of the same text differ")
	}
}
