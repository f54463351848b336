// Package parser derives structural metadata from raw document text.
// All derivations are pure line-based scans with no I/O and no failure mode:
// any input, including empty text, yields a (possibly empty) result.
package parser

import (
	"regexp"
	"strings"

	"github.com/otaku572/gptproduct/internal/models"
)

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// ExtractTOC scans text for markdown headings and returns one entry per
// heading in input order. Level is the number of '#' characters, line numbers
// are 1-based.
func ExtractTOC(text string) []models.TOCEntry {
	if text == "" {
		return nil
	}
	var toc []models.TOCEntry
	for i, line := range strings.Split(text, "\n") {
		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		toc = append(toc, models.TOCEntry{
			Level: len(m[1]),
			Text:  strings.TrimSpace(m[2]),
			Line:  i + 1,
		})
	}
	return toc
}
