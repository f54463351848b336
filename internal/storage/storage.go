// Package storage defines the persistence port for projects, documents, and
// snapshots, with two interchangeable adapters: a file hierarchy and SQLite.
// Both adapters must behave identically for the same sequence of calls.
package storage

import (
	"context"
	"errors"

	"github.com/otaku572/gptproduct/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrUnavailable is returned when the backing store cannot be reached.
// Callers are expected to retry on the next request rather than give up.
var ErrUnavailable = errors.New("storage unavailable")

// Store defines persistence operations for all entities. Create methods
// assign the record's ID and timestamps in place when unset; Update methods
// refresh UpdatedAt in place.
type Store interface {
	// Ping verifies the store is reachable, lazily (re)initializing it when
	// possible. Returns ErrUnavailable when it is not.
	Ping(ctx context.Context) error

	// Project operations. DeleteProject cascades to the project's documents
	// and their snapshots.
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id string) error
	ListProjects(ctx context.Context) ([]*models.Project, error)

	// Document operations. DeleteDocument cascades to the document's
	// snapshots; deleting a document with no snapshots is not an error.
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, projectID, id string) (*models.Document, error)
	GetDocumentByTitle(ctx context.Context, projectID, title string) (*models.Document, error)
	UpdateDocument(ctx context.Context, doc *models.Document) error
	DeleteDocument(ctx context.Context, projectID, id string) error
	ListDocuments(ctx context.Context, projectID string) ([]*models.Document, error)

	// Snapshot operations. Snapshots are immutable once created and are only
	// removed by the document/project delete cascades.
	CreateSnapshot(ctx context.Context, projectID string, snap *models.Snapshot) error
	ListSnapshots(ctx context.Context, projectID, documentID string) ([]*models.Snapshot, error)

	// Stats returns record counts for the status endpoint.
	Stats(ctx context.Context) (*models.StoreStats, error)

	Close() error
}
