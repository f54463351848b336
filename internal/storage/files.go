package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/otaku572/gptproduct/internal/models"
	"github.com/otaku572/gptproduct/pkg/utils"
)

const (
	projectFileName = "project.json"
	documentsDir    = "documents"
	snapshotsDir    = "snapshots"
	docSuffix       = ".json"
)

// FilesStore implements Store on a plain file hierarchy:
//
//	<root>/projects/<projectID>/project.json
//	<root>/projects/<projectID>/documents/<title>.json
//	<root>/projects/<projectID>/snapshots/<title>_v<version>.json
//
// Identity is filename-based: a project's ID is the slug of its name, a
// document's ID is its title plus the ".json" suffix. Renaming a document
// therefore changes its ID; the snapshot files are migrated to the new prefix
// so the rename is invisible to callers.
type FilesStore struct {
	root string
}

// NewFilesStore creates a files-backed store rooted at dir. The directory
// layout is created lazily on Ping/first write.
func NewFilesStore(dir string) *FilesStore {
	return &FilesStore{root: dir}
}

// Ping ensures the root layout exists, creating it when missing.
func (s *FilesStore) Ping(_ context.Context) error {
	if err := os.MkdirAll(s.projectsRoot(), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *FilesStore) projectsRoot() string { return filepath.Join(s.root, "projects") }

func (s *FilesStore) projectDir(id string) string { return filepath.Join(s.projectsRoot(), id) }

func (s *FilesStore) docPath(projectID, docID string) string {
	return filepath.Join(s.projectDir(projectID), documentsDir, docID)
}

func (s *FilesStore) snapDir(projectID string) string {
	return filepath.Join(s.projectDir(projectID), snapshotsDir)
}

// docID derives the filename identity for a document title.
func docID(title string) string { return title + docSuffix }

// snapStem is the snapshot filename prefix owned by a document reference.
func snapStem(docID string) string { return strings.TrimSuffix(docID, docSuffix) }

// CreateProject assigns a slug ID from the name (when unset), creates the
// project directory layout, and writes project.json.
func (s *FilesStore) CreateProject(ctx context.Context, p *models.Project) error {
	if err := s.Ping(ctx); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = utils.Slug(p.Name)
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	dir := s.projectDir(p.ID)
	for _, d := range []string{dir, filepath.Join(dir, documentsDir), s.snapDir(p.ID)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create project layout: %w", err)
		}
	}
	return writeJSONAtomic(filepath.Join(dir, projectFileName), p)
}

// GetProject reads project.json for id.
func (s *FilesStore) GetProject(_ context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := readJSON(filepath.Join(s.projectDir(id), projectFileName), &p); err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

// UpdateProject rewrites project.json. The ID (directory name) is immutable.
func (s *FilesStore) UpdateProject(ctx context.Context, p *models.Project) error {
	if _, err := s.GetProject(ctx, p.ID); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	return writeJSONAtomic(filepath.Join(s.projectDir(p.ID), projectFileName), p)
}

// DeleteProject removes the project directory, cascading to its documents and
// snapshots. Deleting a missing project is not an error.
func (s *FilesStore) DeleteProject(_ context.Context, id string) error {
	return os.RemoveAll(s.projectDir(id))
}

// ListProjects returns every project directory under the root. A directory
// without a readable project.json still appears, with the directory name as
// its project name.
func (s *FilesStore) ListProjects(ctx context.Context) ([]*models.Project, error) {
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.projectsRoot())
	if err != nil {
		return nil, fmt.Errorf("read projects root: %w", err)
	}
	projects := make([]*models.Project, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p, err := s.GetProject(ctx, e.Name())
		if err != nil {
			p = &models.Project{ID: e.Name(), Name: e.Name(), Tags: []string{}}
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// CreateDocument writes the document file, deriving the filename ID from the
// title when unset.
func (s *FilesStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	if _, err := s.GetProject(ctx, doc.ProjectID); err != nil {
		return err
	}
	if doc.ID == "" {
		doc.ID = docID(doc.Title)
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	path := s.docPath(doc.ProjectID, doc.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create documents dir: %w", err)
	}
	return writeJSONAtomic(path, doc)
}

// GetDocument reads a document by filename ID.
func (s *FilesStore) GetDocument(_ context.Context, projectID, id string) (*models.Document, error) {
	var doc models.Document
	if err := readJSON(s.docPath(projectID, id), &doc); err != nil {
		return nil, err
	}
	doc.ID = id
	doc.ProjectID = projectID
	return &doc, nil
}

// GetDocumentByTitle resolves a document by its current title. On this
// backend the title is the identity, so this is a direct filename lookup.
func (s *FilesStore) GetDocumentByTitle(ctx context.Context, projectID, title string) (*models.Document, error) {
	return s.GetDocument(ctx, projectID, docID(title))
}

// UpdateDocument rewrites the document file. A title change renames the file
// (the old record is removed, never left behind) and migrates the document's
// snapshot files to the new filename prefix so snapshot ownership survives
// the rename, matching the database backend's stable-ID behavior.
func (s *FilesStore) UpdateDocument(ctx context.Context, doc *models.Document) error {
	oldID := doc.ID
	if _, err := s.GetDocument(ctx, doc.ProjectID, oldID); err != nil {
		return err
	}
	newID := docID(doc.Title)
	doc.UpdatedAt = time.Now().UTC()
	if newID != oldID {
		if err := s.migrateSnapshots(doc.ProjectID, oldID, newID); err != nil {
			return err
		}
		if err := os.Remove(s.docPath(doc.ProjectID, oldID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove renamed document: %w", err)
		}
		doc.ID = newID
	}
	return writeJSONAtomic(s.docPath(doc.ProjectID, doc.ID), doc)
}

// DeleteDocument removes the document file and every snapshot it owns.
// The filename prefix only narrows the directory scan; ownership is decided
// by the document reference stored inside each snapshot, so nesting titles
// (notes vs notes_v1) cannot cross-delete. Missing snapshots are not an
// error.
func (s *FilesStore) DeleteDocument(_ context.Context, projectID, id string) error {
	if err := os.Remove(s.docPath(projectID, id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("remove document: %w", err)
	}
	entries, err := os.ReadDir(s.snapDir(projectID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read snapshots dir: %w", err)
	}
	prefix := snapStem(id) + "_v"
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		path := filepath.Join(s.snapDir(projectID), e.Name())
		var snap models.Snapshot
		if err := readJSON(path, &snap); err != nil || snap.DocumentID != id {
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove snapshot: %w", err)
		}
	}
	return nil
}

// ListDocuments returns every document in the project.
func (s *FilesStore) ListDocuments(ctx context.Context, projectID string) ([]*models.Document, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.projectDir(projectID), documentsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read documents dir: %w", err)
	}
	var docs []*models.Document
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), docSuffix) {
			continue
		}
		doc, err := s.GetDocument(ctx, projectID, e.Name())
		if err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// CreateSnapshot writes an immutable snapshot file named after the owning
// document and version label. A duplicate version label gets a random suffix
// so both records remain, distinguishable by ID.
func (s *FilesStore) CreateSnapshot(_ context.Context, projectID string, snap *models.Snapshot) error {
	if err := os.MkdirAll(s.snapDir(projectID), 0o755); err != nil {
		return fmt.Errorf("create snapshots dir: %w", err)
	}
	snap.CreatedAt = time.Now().UTC()
	name := fmt.Sprintf("%s_v%s%s", snapStem(snap.DocumentID), snap.Version, docSuffix)
	path := filepath.Join(s.snapDir(projectID), name)
	if _, err := os.Stat(path); err == nil {
		name = fmt.Sprintf("%s_v%s-%s%s", snapStem(snap.DocumentID), snap.Version, uuid.New().String()[:8], docSuffix)
		path = filepath.Join(s.snapDir(projectID), name)
	}
	snap.ID = name
	return writeJSONAtomic(path, snap)
}

// ListSnapshots returns the snapshots owned by the document, in directory
// order (no guaranteed ordering).
func (s *FilesStore) ListSnapshots(_ context.Context, projectID, documentID string) ([]*models.Snapshot, error) {
	entries, err := os.ReadDir(s.snapDir(projectID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshots dir: %w", err)
	}
	prefix := snapStem(documentID) + "_v"
	var snaps []*models.Snapshot
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), prefix) || !strings.HasSuffix(e.Name(), docSuffix) {
			continue
		}
		var snap models.Snapshot
		if err := readJSON(filepath.Join(s.snapDir(projectID), e.Name()), &snap); err != nil {
			continue
		}
		// The prefix scan over-matches nesting titles; the stored document
		// reference is authoritative.
		if snap.DocumentID != documentID {
			continue
		}
		snap.ID = e.Name()
		snaps = append(snaps, &snap)
	}
	return snaps, nil
}

// migrateSnapshots renames a document's snapshot files from the old filename
// prefix to the new one and rewrites their stored document reference.
func (s *FilesStore) migrateSnapshots(projectID, oldID, newID string) error {
	entries, err := os.ReadDir(s.snapDir(projectID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read snapshots dir: %w", err)
	}
	oldPrefix := snapStem(oldID) + "_v"
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), oldPrefix) {
			continue
		}
		oldPath := filepath.Join(s.snapDir(projectID), e.Name())
		var snap models.Snapshot
		if err := readJSON(oldPath, &snap); err != nil || snap.DocumentID != oldID {
			continue
		}
		snap.DocumentID = newID
		newName := snapStem(newID) + "_v" + strings.TrimPrefix(e.Name(), oldPrefix)
		snap.ID = newName
		if err := writeJSONAtomic(filepath.Join(s.snapDir(projectID), newName), &snap); err != nil {
			return err
		}
		if err := os.Remove(oldPath); err != nil {
			return fmt.Errorf("remove migrated snapshot: %w", err)
		}
	}
	return nil
}

// Stats counts projects, documents, and snapshots by walking the hierarchy.
func (s *FilesStore) Stats(ctx context.Context) (*models.StoreStats, error) {
	projects, err := s.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	stats := &models.StoreStats{Projects: int64(len(projects))}
	for _, p := range projects {
		docs, err := s.ListDocuments(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		stats.Documents += int64(len(docs))
		entries, err := os.ReadDir(s.snapDir(p.ID))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), docSuffix) {
				stats.Snapshots++
			}
		}
	}
	return stats, nil
}

// Close is a no-op for the files backend.
func (s *FilesStore) Close() error { return nil }

// readJSON decodes the JSON file at path into v, mapping a missing file to
// ErrNotFound.
func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSONAtomic writes v as indented JSON via a temp file and rename, so a
// failed write never leaves a truncated record behind.
func writeJSONAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}
