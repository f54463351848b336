// Package models defines core data structures for projects, documents, and snapshots.
package models

import "time"

// Project is a top-level grouping of documents. The ID is assigned on create
// (slug of the name on the files backend, store-generated elsewhere) and is
// immutable afterwards; Name may be edited freely.
type Project struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Tags        []string  `json:"tags" db:"tags"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProjectUpdate carries the editable project fields for a partial update.
// Nil fields are left unchanged.
type ProjectUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}
