package models

import "strings"

// RefKind distinguishes the two ways a caller may reference a document.
type RefKind int

const (
	// RefByID references a document by its stable backend identifier.
	RefByID RefKind = iota
	// RefByTitle references a document by its current display title.
	RefByTitle
)

// DocRef is a tagged document reference, resolved through one explicit
// function instead of type-sniffing at each call site.
type DocRef struct {
	Kind  RefKind
	Value string
}

// ByID returns a reference to a document by stable identifier.
func ByID(id string) DocRef { return DocRef{Kind: RefByID, Value: id} }

// ByTitle returns a reference to a document by display title. Any trailing
// conventional suffix is stripped before comparison.
func ByTitle(title string) DocRef { return DocRef{Kind: RefByTitle, Value: StripTitleSuffix(title)} }

// StripTitleSuffix removes the historical file-extension-like suffix from a
// title reference.
func StripTitleSuffix(title string) string {
	title = strings.TrimSuffix(title, ".json")
	return strings.TrimSuffix(title, ".md")
}
