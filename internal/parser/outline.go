package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/otaku572/gptproduct/internal/models"
	"github.com/otaku572/gptproduct/pkg/utils"
)

const (
	userPrefixLen      = len("User:")
	assistantPrefixLen = len("Assistant:")
)

// Outline walks text tracking a running character offset and emits one entry
// per heading, User:/Assistant: turn, and separator-underlined line, in line
// order. Positions are exact byte offsets into text assuming "\n" separators,
// so they can drive jump-to-position navigation. The four checks are not
// mutually exclusive; a single line may emit more than one entry.
func Outline(text string) []models.OutlineEntry {
	if text == "" {
		return nil
	}
	var entries []models.OutlineEntry
	lines := strings.Split(text, "\n")
	position := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if m := headingRe.FindStringSubmatch(trimmed); m != nil {
			entries = append(entries, models.OutlineEntry{
				Type:     models.OutlineHeading,
				Level:    len(m[1]),
				Text:     m[2],
				Position: position,
			})
		}

		if strings.HasPrefix(trimmed, "User:") || strings.HasPrefix(trimmed, "USER:") {
			entries = append(entries, models.OutlineEntry{
				Type:     models.OutlineUser,
				Level:    1,
				Text:     turnText(trimmed, userPrefixLen, "User message", 65),
				Position: position,
			})
		}

		if strings.HasPrefix(trimmed, "Assistant:") || strings.HasPrefix(trimmed, "ASSISTANT:") {
			entries = append(entries, models.OutlineEntry{
				Type:     models.OutlineAssistant,
				Level:    1,
				Text:     turnText(trimmed, assistantPrefixLen, "Assistant response", 70),
				Position: position,
			})
		}

		if isSeparator(trimmed) && i > 0 {
			prev := strings.TrimSpace(lines[i-1])
			if prev != "" && !isSeparator(prev) {
				entries = append(entries, models.OutlineEntry{
					Type:     models.OutlineCustom,
					Level:    1,
					Text:     utils.Truncate(prev, 50),
					Position: position - len(prev) - 1,
				})
			}
		}

		position += len(line) + 1
	}
	return entries
}

// turnText extracts the message body after a User:/Assistant: prefix,
// truncated to 60 characters. The ellipsis is keyed to the length of the full
// trimmed line, not the body, preserving the navigation sidebar's historical
// behavior.
func turnText(trimmed string, prefixLen int, fallback string, ellipsisOver int) string {
	body := strings.TrimSpace(trimmed[prefixLen:])
	if len(body) > 60 {
		cut := 60
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	if body == "" {
		body = fallback
	}
	if len(trimmed) > ellipsisOver {
		body += "..."
	}
	return body
}

// isSeparator reports whether s is three or more repeated '-' or '=' characters.
func isSeparator(s string) bool {
	if len(s) < 3 {
		return false
	}
	for _, r := range s {
		if r != '-' && r != '=' {
			return false
		}
	}
	return true
}
