package models

import "time"

// Metadata keys reserved for parser-derived fields. They are overwritten on
// every content-changing write and must never be hand-edited.
const (
	MetadataTOC      = "toc"
	MetadataSections = "sections"
	MetadataTags     = "tags"
)

// Document is a single editable text artifact owned by exactly one project.
// Metadata mixes caller-supplied fields (tags, ...) with the derived "toc"
// and "sections" entries, which are a cache of the structural parse of
// Content, not a source of truth.
type Document struct {
	ID        string         `json:"id" db:"id"`
	ProjectID string         `json:"project_id" db:"project_id"`
	Title     string         `json:"title" db:"title"`
	Content   string         `json:"content" db:"content"`
	Metadata  map[string]any `json:"metadata" db:"metadata"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// TagList returns the caller-supplied tags from metadata, if any.
func (d *Document) TagList() []string {
	if d.Metadata == nil {
		return nil
	}
	switch v := d.Metadata[MetadataTags].(type) {
	case []string:
		return v
	case []any:
		tags := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
		return tags
	}
	return nil
}

// Snapshot is an immutable point-in-time copy of a document's content.
// Version is a caller-chosen label; duplicates are legal and distinguishable
// only by ID.
type Snapshot struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Version    string    `json:"version" db:"version"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
