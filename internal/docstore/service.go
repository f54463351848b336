// Package docstore implements the document and snapshot store on top of the
// storage port: it recomputes derived structural metadata on every
// content-changing write, resolves caller references (stable ID or title)
// through one explicit resolver, and enforces title uniqueness per project.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/otaku572/gptproduct/internal/models"
	"github.com/otaku572/gptproduct/internal/parser"
	"github.com/otaku572/gptproduct/internal/storage"
	"github.com/otaku572/gptproduct/pkg/utils"
)

// Service exposes the core read/write contract consumed by the HTTP adapter.
// It holds an explicitly injected store handle; there is no process-global
// connection state.
type Service struct {
	store  storage.Store
	logger *zap.Logger
}

// New creates a service over the given store.
func New(store storage.Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Store returns the underlying storage handle (used by the status endpoint).
func (s *Service) Store() storage.Store { return s.store }

// ListProjects returns all projects.
func (s *Service) ListProjects(ctx context.Context) ([]*models.Project, error) {
	return s.store.ListProjects(ctx)
}

// CreateProject creates a project with the given name. Names that slug to an
// existing project's identity fail with ErrConflict on both backends, so the
// files adapter can never silently overwrite a project directory.
func (s *Service) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	if err := validateProjectName(name); err != nil {
		return nil, err
	}
	if err := s.checkProjectNameFree(ctx, name, ""); err != nil {
		return nil, err
	}
	p := &models.Project{Name: name, Tags: []string{}}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Debug("project created", zap.String("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// UpdateProject applies a partial update to the project's editable fields.
// The project ID is immutable.
func (s *Service) UpdateProject(ctx context.Context, id string, updates models.ProjectUpdate) (*models.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if updates.Name != nil {
		if err := validateProjectName(*updates.Name); err != nil {
			return nil, err
		}
		if *updates.Name != p.Name {
			if err := s.checkProjectNameFree(ctx, *updates.Name, p.ID); err != nil {
				return nil, err
			}
		}
		p.Name = *updates.Name
	}
	if updates.Description != nil {
		p.Description = *updates.Description
	}
	if updates.Tags != nil {
		p.Tags = updates.Tags
	}
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProject removes a project and everything it owns.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	return s.store.DeleteProject(ctx, id)
}

// ListDocuments returns all documents in a project.
func (s *Service) ListDocuments(ctx context.Context, projectID string) ([]*models.Document, error) {
	return s.store.ListDocuments(ctx, projectID)
}

// Resolve maps a tagged document reference to the current persisted record.
func (s *Service) Resolve(ctx context.Context, projectID string, ref models.DocRef) (*models.Document, error) {
	switch ref.Kind {
	case models.RefByID:
		return s.store.GetDocument(ctx, projectID, ref.Value)
	case models.RefByTitle:
		return s.store.GetDocumentByTitle(ctx, projectID, ref.Value)
	}
	return nil, fmt.Errorf("%w: unknown reference kind", ErrValidation)
}

// ResolveAny resolves an externally supplied reference that may be either a
// stable identifier or a display title with a conventional suffix: identifiers
// are tried first, then the suffix-stripped title within the project.
func (s *Service) ResolveAny(ctx context.Context, projectID, ref string) (*models.Document, error) {
	doc, err := s.Resolve(ctx, projectID, models.ByID(ref))
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.Resolve(ctx, projectID, models.ByTitle(ref))
}

// UpsertInput carries the fields of a document write request.
type UpsertInput struct {
	ProjectID string
	Title     string
	Content   string
	Metadata  map[string]any
	// PreviousTitle, when set and different from Title, marks the write as a
	// rename: the record currently holding PreviousTitle is updated in place.
	PreviousTitle string
}

// UpsertDocument creates or updates a document. When content is supplied the
// derived toc/sections metadata is recomputed from it; those keys always come
// from the parser and are not caller-overridable. The target record is
// resolved via PreviousTitle when given, otherwise Title; a resolved record
// is mutated in place (a rename leaves no stale record behind), an unresolved
// one is created. A write that would give two records the same title fails
// with ErrConflict.
func (s *Service) UpsertDocument(ctx context.Context, in UpsertInput) (*models.Document, error) {
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}

	ref := in.PreviousTitle
	if ref == "" {
		ref = in.Title
	}
	existing, err := s.ResolveAny(ctx, in.ProjectID, ref)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if existing == nil {
		if in.Content == "" {
			return nil, fmt.Errorf("%w: content is required", ErrValidation)
		}
		if err := s.checkTitleFree(ctx, in.ProjectID, in.Title, ""); err != nil {
			return nil, err
		}
		doc := &models.Document{
			ProjectID: in.ProjectID,
			Title:     in.Title,
			Content:   in.Content,
			Metadata:  deriveMetadata(in.Metadata, nil, in.Content),
		}
		if err := s.store.CreateDocument(ctx, doc); err != nil {
			return nil, err
		}
		s.logger.Debug("document created",
			zap.String("project_id", in.ProjectID), zap.String("id", doc.ID))
		return doc, nil
	}

	if in.Title != existing.Title {
		if err := s.checkTitleFree(ctx, in.ProjectID, in.Title, existing.ID); err != nil {
			return nil, err
		}
	}
	existing.Title = in.Title
	if in.Content != "" {
		existing.Content = in.Content
	}
	existing.Metadata = deriveMetadata(in.Metadata, existing.Metadata, in.Content)
	if err := s.store.UpdateDocument(ctx, existing); err != nil {
		return nil, err
	}
	s.logger.Debug("document updated",
		zap.String("project_id", in.ProjectID), zap.String("id", existing.ID))
	return existing, nil
}

// DeleteDocument removes a document and all of its snapshots.
func (s *Service) DeleteDocument(ctx context.Context, projectID, ref string) error {
	doc, err := s.ResolveAny(ctx, projectID, ref)
	if err != nil {
		return err
	}
	return s.store.DeleteDocument(ctx, projectID, doc.ID)
}

// checkTitleFree fails with ErrConflict when a different record already holds
// the title within the project.
func (s *Service) checkTitleFree(ctx context.Context, projectID, title, ownID string) error {
	other, err := s.store.GetDocumentByTitle(ctx, projectID, title)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if other.ID != ownID {
		return fmt.Errorf("%w: a document titled %q already exists", ErrConflict, title)
	}
	return nil
}

// deriveMetadata overlays caller metadata onto the document's previous
// metadata, then, when content changed, replaces the derived keys with a
// fresh structural parse. The derived entries are a cache of the parse of
// Content, never a source of truth.
func deriveMetadata(caller, previous map[string]any, content string) map[string]any {
	merged := make(map[string]any, len(previous)+len(caller)+2)
	for k, v := range previous {
		merged[k] = v
	}
	for k, v := range caller {
		// The derived keys are never caller-supplied; a stale copy sent back
		// by a client must not shadow the parse.
		if k == models.MetadataTOC || k == models.MetadataSections {
			continue
		}
		merged[k] = v
	}
	if content != "" {
		merged[models.MetadataTOC] = parser.ExtractTOC(content)
		merged[models.MetadataSections] = parser.SplitSections(content)
	}
	return merged
}

// Outline derives the jump-to-position navigation entries for a document's
// current content. Recomputed on every call, never cached across documents.
func (s *Service) Outline(ctx context.Context, projectID, ref string) ([]models.OutlineEntry, error) {
	doc, err := s.ResolveAny(ctx, projectID, ref)
	if err != nil {
		return nil, err
	}
	return parser.Outline(doc.Content), nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: document title is required", ErrValidation)
	}
	if !safeSegment(title) {
		return fmt.Errorf("%w: document title must not contain path separators", ErrValidation)
	}
	return nil
}

func validateProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: project name is required", ErrValidation)
	}
	if !safeSegment(name) {
		return fmt.Errorf("%w: project name must not contain path separators", ErrValidation)
	}
	return nil
}

// safeSegment reports whether v can safely become a single path component on
// the files backend: no separators and no relative-path names.
func safeSegment(v string) bool {
	return v != "." && v != ".." && filepath.Base(v) == v
}

// checkProjectNameFree fails with ErrConflict when another project's name
// slugs to the same identity.
func (s *Service) checkProjectNameFree(ctx context.Context, name, ownID string) error {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return err
	}
	slug := utils.Slug(name)
	for _, p := range projects {
		if p.ID != ownID && utils.Slug(p.Name) == slug {
			return fmt.Errorf("%w: project name %q already in use", ErrConflict, name)
		}
	}
	return nil
}
