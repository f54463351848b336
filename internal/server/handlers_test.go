package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/otaku572/gptproduct/internal/config"
	"github.com/otaku572/gptproduct/internal/docstore"
	"github.com/otaku572/gptproduct/internal/models"
	"github.com/otaku572/gptproduct/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	dir := t.TempDir()
	store := storage.NewFilesStore(dir)
	t.Cleanup(func() { _ = store.Close() })
	svc := docstore.New(store, zap.NewNop())
	cfg := &config.Config{
		Server:  config.ServerConfig{Host: "localhost", Port: 0},
		Storage: config.StorageConfig{Backend: config.BackendFiles, DataDir: dir},
	}
	srv := NewServer(svc, cfg, zap.NewNop())
	return srv, srv.router()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(out))
}

func createProject(t *testing.T, h http.Handler, name string) models.Project {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/projects", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p models.Project
	decode(t, w, &p)
	return p
}

func createDocument(t *testing.T, h http.Handler, projectID, title, content string) models.Document {
	t.Helper()
	w := doJSON(t, h, http.MethodPost,
		fmt.Sprintf("/api/projects/%s/documents", projectID),
		map[string]interface{}{"title": title, "content": content})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var d models.Document
	decode(t, w, &d)
	return d
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)
	w := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProjectLifecycle(t *testing.T) {
	_, h := newTestServer(t)

	p := createProject(t, h, "notes")
	require.NotEmpty(t, p.ID)
	assert.Equal(t, "notes", p.Name)

	w := doJSON(t, h, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Project
	decode(t, w, &list)
	require.Len(t, list, 1)

	w = doJSON(t, h, http.MethodPut, "/api/projects/"+p.ID,
		map[string]interface{}{"description": "scratch", "tags": []string{"work"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Project
	decode(t, w, &updated)
	assert.Equal(t, "notes", updated.Name)
	assert.Equal(t, "scratch", updated.Description)
	assert.Equal(t, []string{"work"}, updated.Tags)

	w = doJSON(t, h, http.MethodDelete, "/api/projects/"+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/projects", nil)
	decode(t, w, &list)
	assert.Empty(t, list)
}

func TestCreateProject_MissingName(t *testing.T) {
	_, h := newTestServer(t)
	w := doJSON(t, h, http.MethodPost, "/api/projects", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentLifecycle(t *testing.T) {
	_, h := newTestServer(t)
	p := createProject(t, h, "notes")

	doc := createDocument(t, h, p.ID, "meeting", "# Agenda\nUser: hello\nAssistant: hi\n")
	require.NotEmpty(t, doc.ID)
	assert.Contains(t, doc.Metadata, models.MetadataTOC)
	assert.Contains(t, doc.Metadata, models.MetadataSections)

	// Fetch by ID and by title, with and without suffix.
	for _, ref := range []string{doc.ID, "meeting", "meeting.md", "meeting.json"} {
		w := doJSON(t, h, http.MethodGet,
			fmt.Sprintf("/api/projects/%s/documents/%s", p.ID, ref), nil)
		require.Equal(t, http.StatusOK, w.Code, "ref %q: %s", ref, w.Body.String())
		var got models.Document
		decode(t, w, &got)
		assert.Equal(t, doc.ID, got.ID, "ref %q", ref)
	}

	w := doJSON(t, h, http.MethodDelete,
		fmt.Sprintf("/api/projects/%s/documents/%s", p.ID, "meeting"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet,
		fmt.Sprintf("/api/projects/%s/documents/%s", p.ID, "meeting"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateDocument_RenameKeepsSingleRecord(t *testing.T) {
	_, h := newTestServer(t)
	p := createProject(t, h, "notes")
	createDocument(t, h, p.ID, "draft", "body")

	w := doJSON(t, h, http.MethodPut,
		fmt.Sprintf("/api/projects/%s/documents/%s", p.ID, "draft"),
		map[string]interface{}{"title": "final"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var doc models.Document
	decode(t, w, &doc)
	assert.Equal(t, "final", doc.Title)
	assert.Equal(t, "body", doc.Content)

	w = doJSON(t, h, http.MethodGet,
		fmt.Sprintf("/api/projects/%s/documents", p.ID), nil)
	var list []models.Document
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "final", list[0].Title)

	w = doJSON(t, h, http.MethodGet,
		fmt.Sprintf("/api/projects/%s/documents/%s", p.ID, "draft"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateDocument_RenameConflict(t *testing.T) {
	_, h := newTestServer(t)
	p := createProject(t, h, "notes")
	createDocument(t, h, p.ID, "one", "a")
	createDocument(t, h, p.ID, "two", "b")

	w := doJSON(t, h, http.MethodPut,
		fmt.Sprintf("/api/projects/%s/documents/%s", p.ID, "one"),
		map[string]interface{}{"title": "two"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateDocument_DuplicateTitleConflict(t *testing.T) {
	_, h := newTestServer(t)
	p := createProject(t, h, "notes")
	createDocument(t, h, p.ID, "one", "a")

	w := doJSON(t, h, http.MethodPost,
		fmt.Sprintf("/api/projects/%s/documents", p.ID),
		map[string]interface{}{"title": "one", "content": "b"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOutline(t *testing.T) {
	_, h := newTestServer(t)
	p := createProject(t, h, "notes")
	createDocument(t, h, p.ID, "chat", "# Title\nUser: hello there\nAssistant: hi\n")

	w := doJSON(t, h, http.MethodGet,
		fmt.Sprintf("/api/projects/%s/documents/chat/outline", p.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Outline []models.OutlineEntry `json:"outline"`
	}
	decode(t, w, &out)
	require.Len(t, out.Outline, 3)
	assert.Equal(t, models.OutlineHeading, out.Outline[0].Type)
	assert.Equal(t, models.OutlineUser, out.Outline[1].Type)
	assert.Equal(t, models.OutlineAssistant, out.Outline[2].Type)
}

func TestExport(t *testing.T) {
	_, h := newTestServer(t)
	p := createProject(t, h, "notes")
	createDocument(t, h, p.ID, "doc", "# Heading\n\nSome *emphasis*.\n")

	w := doJSON(t, h, http.MethodGet,
		fmt.Sprintf("/api/projects/%s/documents/doc/export", p.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<h1")
	assert.Contains(t, w.Body.String(), "<em>emphasis</em>")
}

func TestSnapshotFlow(t *testing.T) {
	_, h := newTestServer(t)
	p := createProject(t, h, "notes")
	createDocument(t, h, p.ID, "doc", "first draft")

	base := fmt.Sprintf("/api/projects/%s/documents/doc/snapshots", p.ID)

	w := doJSON(t, h, http.MethodPost, base, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var snap models.Snapshot
	decode(t, w, &snap)
	assert.Equal(t, "1", snap.Version)
	assert.Equal(t, "first draft", snap.Content)

	// Edit, then restore the snapshot.
	w = doJSON(t, h, http.MethodPut,
		fmt.Sprintf("/api/projects/%s/documents/doc", p.ID),
		map[string]interface{}{"content": "second draft"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snaps []models.Snapshot
	decode(t, w, &snaps)
	require.Len(t, snaps, 1)
	assert.Equal(t, "first draft", snaps[0].Content)

	w = doJSON(t, h, http.MethodPost, base+"/"+snap.ID+"/restore", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var doc models.Document
	decode(t, w, &doc)
	assert.Equal(t, "first draft", doc.Content)
}

func TestListSnapshots_EmptyForNewDocument(t *testing.T) {
	_, h := newTestServer(t)
	p := createProject(t, h, "notes")
	createDocument(t, h, p.ID, "doc", "text")

	w := doJSON(t, h, http.MethodGet,
		fmt.Sprintf("/api/projects/%s/documents/doc/snapshots", p.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snaps []models.Snapshot
	decode(t, w, &snaps)
	assert.Empty(t, snaps)
}

func TestSearch(t *testing.T) {
	_, h := newTestServer(t)
	p := createProject(t, h, "notes")
	createDocument(t, h, p.ID, "alpha", "the quick brown fox")
	createDocument(t, h, p.ID, "beta", "lazy dog")

	w := doJSON(t, h, http.MethodGet, "/api/search?q=QUICK", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Results []models.SearchResult `json:"results"`
		Count   int                   `json:"count"`
	}
	decode(t, w, &out)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "alpha", out.Results[0].DocumentTitle)

	w = doJSON(t, h, http.MethodGet, "/api/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTags(t *testing.T) {
	_, h := newTestServer(t)
	p := createProject(t, h, "notes")
	w := doJSON(t, h, http.MethodPost,
		fmt.Sprintf("/api/projects/%s/documents", p.ID),
		map[string]interface{}{
			"title":    "doc",
			"content":  "text",
			"metadata": map[string]interface{}{"tags": []string{"go", "notes"}},
		})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/tags", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Tags map[string]int `json:"tags"`
	}
	decode(t, w, &out)
	assert.Equal(t, 1, out.Tags["go"])
	assert.Equal(t, 1, out.Tags["notes"])
}

func TestStatus(t *testing.T) {
	_, h := newTestServer(t)
	p := createProject(t, h, "notes")
	createDocument(t, h, p.ID, "doc", "text")

	w := doJSON(t, h, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]interface{}
	decode(t, w, &out)
	assert.Equal(t, float64(1), out["projects"])
	assert.Equal(t, float64(1), out["documents"])
	assert.Equal(t, "files", out["backend"])
}

func TestNotFoundStatuses(t *testing.T) {
	_, h := newTestServer(t)
	p := createProject(t, h, "notes")

	w := doJSON(t, h, http.MethodGet,
		fmt.Sprintf("/api/projects/%s/documents/nope", p.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, h, http.MethodPut, "/api/projects/missing",
		map[string]interface{}{"description": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, h, http.MethodPost,
		fmt.Sprintf("/api/projects/%s/documents/nope/snapshots", p.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
