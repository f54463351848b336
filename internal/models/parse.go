package models

// TOCEntry is one heading-derived table-of-contents entry. Line is 1-based.
type TOCEntry struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Line  int    `json:"line"`
}

// Section labels assigned by the section splitter.
const (
	SectionUser      = "User"
	SectionAssistant = "Assistant"
	SectionDecision  = "Decision"
	SectionAction    = "Action"
	SectionGeneral   = "General"
)

// Section is a contiguous span of document text attributed to one semantic
// label based on a leading marker line. StartLine is 1-based.
type Section struct {
	Label     string `json:"label"`
	Heading   string `json:"heading"`
	Content   string `json:"content"`
	StartLine int    `json:"start_line"`
}

// Outline entry types.
const (
	OutlineHeading   = "heading"
	OutlineUser      = "user"
	OutlineAssistant = "assistant"
	OutlineCustom    = "custom"
)

// OutlineEntry is one jump-to-position navigation entry. Position is an exact
// byte offset into the original text assuming "\n" line separators.
type OutlineEntry struct {
	Type     string `json:"type"`
	Level    int    `json:"level"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}
