package docstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/otaku572/gptproduct/internal/models"
)

// CreateSnapshot captures an immutable copy of the document's current content
// under the given version label. An empty label defaults to the current
// snapshot count plus one; the label is a convention, not a uniqueness
// constraint, and duplicates are legal.
func (s *Service) CreateSnapshot(ctx context.Context, projectID, ref, version string) (*models.Snapshot, error) {
	if version != "" && !safeSegment(version) {
		return nil, fmt.Errorf("%w: version label must not contain path separators", ErrValidation)
	}
	doc, err := s.ResolveAny(ctx, projectID, ref)
	if err != nil {
		return nil, err
	}
	if version == "" {
		existing, err := s.store.ListSnapshots(ctx, projectID, doc.ID)
		if err != nil {
			return nil, err
		}
		version = strconv.Itoa(len(existing) + 1)
	}
	snap := &models.Snapshot{
		DocumentID: doc.ID,
		Version:    version,
		Content:    doc.Content,
	}
	if err := s.store.CreateSnapshot(ctx, projectID, snap); err != nil {
		return nil, err
	}
	s.logger.Debug("snapshot created",
		zap.String("document_id", doc.ID), zap.String("version", version))
	return snap, nil
}

// ListSnapshots returns all snapshots of the referenced document, in no
// guaranteed order. An unresolvable reference yields an empty list, not an
// error; callers needing chronology sort by CreatedAt.
func (s *Service) ListSnapshots(ctx context.Context, projectID, ref string) ([]*models.Snapshot, error) {
	doc, err := s.ResolveAny(ctx, projectID, ref)
	if errors.Is(err, ErrNotFound) {
		return []*models.Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	snaps, err := s.store.ListSnapshots(ctx, projectID, doc.ID)
	if err != nil {
		return nil, err
	}
	if snaps == nil {
		snaps = []*models.Snapshot{}
	}
	return snaps, nil
}

// GetSnapshot returns one snapshot of the referenced document by snapshot ID.
func (s *Service) GetSnapshot(ctx context.Context, projectID, ref, snapshotID string) (*models.Snapshot, error) {
	doc, err := s.ResolveAny(ctx, projectID, ref)
	if err != nil {
		return nil, err
	}
	snaps, err := s.store.ListSnapshots(ctx, projectID, doc.ID)
	if err != nil {
		return nil, err
	}
	for _, snap := range snaps {
		if snap.ID == snapshotID {
			return snap, nil
		}
	}
	return nil, ErrNotFound
}

// RestoreSnapshot writes a snapshot's stored content back as the document's
// current content. It is composed from reads and UpsertDocument, so the
// restored content's structural metadata is re-derived as part of the write.
func (s *Service) RestoreSnapshot(ctx context.Context, projectID, ref, snapshotID string) (*models.Document, error) {
	doc, err := s.ResolveAny(ctx, projectID, ref)
	if err != nil {
		return nil, err
	}
	snap, err := s.GetSnapshot(ctx, projectID, ref, snapshotID)
	if err != nil {
		return nil, err
	}
	return s.UpsertDocument(ctx, UpsertInput{
		ProjectID: projectID,
		Title:     doc.Title,
		Content:   snap.Content,
	})
}
