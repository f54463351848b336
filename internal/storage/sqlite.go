package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/otaku572/gptproduct/internal/models"
)

// SQLiteStore implements Store on a SQLite database. Records carry
// store-generated UUID identifiers, so document identity is stable across
// renames. Metadata and tag lists are stored as JSON columns.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	// foreign_keys and busy_timeout are connection-scoped, so they go in the
	// DSN where the driver applies them to every pooled connection. WAL is
	// persistent in the database file and only needs to be set once.
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=1&_busy_timeout=10000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_documents_project_id ON documents(project_id);
	CREATE INDEX IF NOT EXISTS idx_documents_project_title ON documents(project_id, title);

	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		version TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_document_id ON snapshots(document_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// CreateProject inserts a project, generating a UUID identifier when unset.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	tagsJSON, err := json.Marshal(tagsOrEmpty(p.Tags))
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, string(tagsJSON), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetProject returns a project by ID.
func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, tags, created_at, updated_at
		 FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// UpdateProject updates an existing project's editable fields.
func (s *SQLiteStore) UpdateProject(ctx context.Context, p *models.Project) error {
	p.UpdatedAt = time.Now().UTC()
	tagsJSON, err := json.Marshal(tagsOrEmpty(p.Tags))
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Description, string(tagsJSON), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProject removes a project; documents and snapshots follow via the
// foreign-key cascades.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return err
}

// ListProjects returns all projects ordered by creation time.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]*models.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, tags, created_at, updated_at
		 FROM projects ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateDocument inserts a document, generating a UUID identifier when unset.
func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	if _, err := s.GetProject(ctx, doc.ProjectID); err != nil {
		return err
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, project_id, title, content, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.ProjectID, doc.Title, doc.Content, string(metadataJSON), doc.CreatedAt, doc.UpdatedAt,
	)
	return err
}

// GetDocument returns a document by ID within a project.
func (s *SQLiteStore) GetDocument(ctx context.Context, projectID, id string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, title, content, metadata, created_at, updated_at
		 FROM documents WHERE project_id = ? AND id = ?`, projectID, id)
	return scanDocument(row)
}

// GetDocumentByTitle returns the document with the given title within a
// project. Title uniqueness within a project is enforced by the service layer.
func (s *SQLiteStore) GetDocumentByTitle(ctx context.Context, projectID, title string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, title, content, metadata, created_at, updated_at
		 FROM documents WHERE project_id = ? AND title = ? LIMIT 1`, projectID, title)
	return scanDocument(row)
}

// UpdateDocument updates an existing document in place. IDs are stable here,
// so a title change is an ordinary column update.
func (s *SQLiteStore) UpdateDocument(ctx context.Context, doc *models.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE documents SET title = ?, content = ?, metadata = ?, updated_at = ?
		 WHERE project_id = ? AND id = ?`,
		doc.Title, doc.Content, string(metadataJSON), doc.UpdatedAt, doc.ProjectID, doc.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDocument removes a document; its snapshots follow via the cascade.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, projectID, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE project_id = ? AND id = ?`, projectID, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDocuments returns all documents in a project ordered by creation time.
func (s *SQLiteStore) ListDocuments(ctx context.Context, projectID string) ([]*models.Document, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, title, content, metadata, created_at, updated_at
		 FROM documents WHERE project_id = ? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// CreateSnapshot inserts an immutable snapshot with a UUID identifier.
// Version labels are not unique; duplicates simply produce distinct records.
func (s *SQLiteStore) CreateSnapshot(ctx context.Context, _ string, snap *models.Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	snap.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, document_id, version, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.DocumentID, snap.Version, snap.Content, snap.CreatedAt,
	)
	return err
}

// ListSnapshots returns all snapshots owned by a document, in no guaranteed
// order.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, _, documentID string) ([]*models.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, version, content, created_at
		 FROM snapshots WHERE document_id = ?`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*models.Snapshot
	for rows.Next() {
		var snap models.Snapshot
		if err := rows.Scan(&snap.ID, &snap.DocumentID, &snap.Version, &snap.Content, &snap.CreatedAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, &snap)
	}
	return snaps, rows.Err()
}

// Stats returns record counts for all three tables.
func (s *SQLiteStore) Stats(ctx context.Context) (*models.StoreStats, error) {
	var stats models.StoreStats
	for _, q := range []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM projects`, &stats.Projects},
		{`SELECT COUNT(*) FROM documents`, &stats.Documents},
		{`SELECT COUNT(*) FROM snapshots`, &stats.Snapshots},
	} {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return &stats, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	var tagsJSON string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &tagsJSON, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return &p, nil
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var metadataJSON sql.NullString
	err := row.Scan(&doc.ID, &doc.ProjectID, &doc.Title, &doc.Content, &metadataJSON, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if metadataJSON.Valid && strings.TrimSpace(metadataJSON.String) != "" && metadataJSON.String != "null" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &doc, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
