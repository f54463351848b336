// Package cli provides CLI output utilities for textctr.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/otaku572/gptproduct/internal/models"
	"github.com/otaku572/gptproduct/pkg/utils"
)

// OutputFormat is the format for parse result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseResult bundles everything the parser derives from one document.
type ParseResult struct {
	TOC      []models.TOCEntry     `json:"toc"`
	Sections []models.Section      `json:"sections"`
	Outline  []models.OutlineEntry `json:"outline"`
}

// WriteParseResult writes a parse result to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteParseResult(w io.Writer, result *ParseResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		writeParseResultText(w, result)
		return nil
	}
}

func writeParseResultText(w io.Writer, result *ParseResult) {
	fmt.Fprintf(w, "\n%d headings, %d sections, %d outline entries\n",
		len(result.TOC), len(result.Sections), len(result.Outline))
	if len(result.TOC) > 0 {
		fmt.Fprintln(w, "\n--- Table of contents ---")
		for _, e := range result.TOC {
			fmt.Fprintf(w, "%4d  %s%s\n", e.Line, strings.Repeat("  ", e.Level-1), e.Text)
		}
	}
	if len(result.Sections) > 0 {
		fmt.Fprintln(w, "\n--- Sections ---")
		for _, sec := range result.Sections {
			fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
			fmt.Fprintf(w, "[%s] %s (line %d)\n", sec.Label, sec.Heading, sec.StartLine)
			fmt.Fprintf(w, "%s\n", utils.Truncate(sec.Content, 200))
		}
	}
	if len(result.Outline) > 0 {
		fmt.Fprintln(w, "\n--- Outline ---")
		for _, e := range result.Outline {
			fmt.Fprintf(w, "@%-6d [%s] %s\n", e.Position, e.Type, e.Text)
		}
	}
	fmt.Fprintln(w)
}
