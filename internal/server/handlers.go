package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/otaku572/gptproduct/internal/docstore"
	"github.com/otaku572/gptproduct/internal/models"
	"github.com/otaku572/gptproduct/internal/render"
	"github.com/otaku572/gptproduct/internal/storage"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Store().Stats(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	resp := map[string]interface{}{
		"projects":  stats.Projects,
		"documents": stats.Documents,
		"snapshots": stats.Snapshots,
		"backend":   s.config.Storage.Backend,
	}
	diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DataDir, s.config.Storage.DatabasePath)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.svc.ListProjects(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	project, err := s.svc.CreateProject(r.Context(), input.Name)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var updates models.ProjectUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	project, err := s.svc.UpdateProject(r.Context(), chi.URLParam(r, "projectID"), updates)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	s.logger.Debug("delete project request", zap.String("id", id))
	if err := s.svc.DeleteProject(r.Context(), id); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.svc.ListDocuments(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, docs)
}

type documentInput struct {
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var input documentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	projectID := chi.URLParam(r, "projectID")
	s.logger.Debug("create document request",
		zap.String("project_id", projectID), zap.String("title", input.Title))
	doc, err := s.svc.UpsertDocument(r.Context(), docstore.UpsertInput{
		ProjectID: projectID,
		Title:     input.Title,
		Content:   input.Content,
		Metadata:  input.Metadata,
	})
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.ResolveAny(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "ref"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

// handleUpdateDocument updates the document the URL ref resolves to. A body
// title that differs from the stored one is a rename; omitted fields keep
// their current values.
func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var input documentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	projectID := chi.URLParam(r, "projectID")
	existing, err := s.svc.ResolveAny(r.Context(), projectID, chi.URLParam(r, "ref"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	title := input.Title
	if title == "" {
		title = existing.Title
	}
	doc, err := s.svc.UpsertDocument(r.Context(), docstore.UpsertInput{
		ProjectID:     projectID,
		Title:         title,
		Content:       input.Content,
		Metadata:      input.Metadata,
		PreviousTitle: existing.Title,
	})
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	ref := chi.URLParam(r, "ref")
	s.logger.Debug("delete document request",
		zap.String("project_id", projectID), zap.String("ref", ref))
	if err := s.svc.DeleteDocument(r.Context(), projectID, ref); err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	outline, err := s.svc.Outline(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "ref"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"outline": outline})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.ResolveAny(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "ref"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	html, err := render.HTML(doc.Content)
	if err != nil {
		s.logger.Error("export render failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.svc.ListSnapshots(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "ref"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Version string `json:"version"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	snap, err := s.svc.CreateSnapshot(r.Context(),
		chi.URLParam(r, "projectID"), chi.URLParam(r, "ref"), input.Version)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.RestoreSnapshot(r.Context(),
		chi.URLParam(r, "projectID"), chi.URLParam(r, "ref"), chi.URLParam(r, "snapshotID"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.svc.AllTags(r.Context())
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"tags": tags})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	results, err := s.svc.Search(r.Context(), query, r.URL.Query().Get("project"))
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

// respondStoreError maps service and storage errors to HTTP statuses.
func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, docstore.ErrValidation):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, docstore.ErrConflict):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrUnavailable):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
