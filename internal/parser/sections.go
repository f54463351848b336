package parser

import (
	"regexp"
	"strings"

	"github.com/otaku572/gptproduct/internal/models"
)

// sectionMarkers are matched against a line's leading tokens, in order.
var sectionMarkers = []struct {
	label string
	re    *regexp.Regexp
}{
	{models.SectionUser, regexp.MustCompile(`(?i)^User:\s*`)},
	{models.SectionAssistant, regexp.MustCompile(`(?i)^Assistant:\s*`)},
	{models.SectionDecision, regexp.MustCompile(`(?i)^Decision:\s*`)},
	{models.SectionAction, regexp.MustCompile(`(?i)^Action:\s*`)},
}

type openSection struct {
	label     string
	heading   string
	startLine int
	lines     []string
}

func (s *openSection) close() models.Section {
	return models.Section{
		Label:     s.label,
		Heading:   s.heading,
		Content:   strings.TrimSpace(strings.Join(s.lines, "\n")),
		StartLine: s.startLine,
	}
}

// SplitSections splits text into labeled sections at marker lines (User:,
// Assistant:, Decision:, Action:, case-insensitive). A marker line closes the
// open section and starts a new one whose heading is the trimmed marker line
// and whose content begins with the remainder after the marker. Text before
// the first marker goes into an implicit General section headed "Intro".
// Section content is the newline-joined line run, trimmed at both ends.
func SplitSections(text string) []models.Section {
	if text == "" {
		return nil
	}
	var sections []models.Section
	var current *openSection
	for i, line := range strings.Split(text, "\n") {
		matched := false
		for _, m := range sectionMarkers {
			loc := m.re.FindStringIndex(line)
			if loc == nil {
				continue
			}
			if current != nil {
				sections = append(sections, current.close())
			}
			current = &openSection{
				label:     m.label,
				heading:   strings.TrimSpace(line),
				startLine: i + 1,
				lines:     []string{line[loc[1]:]},
			}
			matched = true
			break
		}
		if matched {
			continue
		}
		if current == nil {
			current = &openSection{
				label:     models.SectionGeneral,
				heading:   "Intro",
				startLine: i + 1,
			}
		}
		current.lines = append(current.lines, line)
	}
	if current != nil {
		sections = append(sections, current.close())
	}
	return sections
}
