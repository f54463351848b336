package e2e

import (
	"context"
	"encoding/json"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/otaku572/gptproduct/internal/docstore"
	"github.com/otaku572/gptproduct/internal/storage"
	"go.uber.org/zap"
)

func newBackends(t *testing.T) map[string]storage.Store {
	t.Helper()
	sqlite, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "e2e.db"))
	if err != nil {
		t.Fatal(err)
	}
	files := storage.NewFilesStore(t.TempDir())
	t.Cleanup(func() {
		_ = sqlite.Close()
		_ = files.Close()
	})
	return map[string]storage.Store{
		"files":  files,
		"sqlite": sqlite,
	}
}

// observation is a backend-independent record of everything a scenario
// observed. Two backends running the same scenario must produce equal
// observations; IDs and timestamps are deliberately excluded.
type observation struct {
	DocumentTitles   []string
	Contents         map[string]string
	MetadataJSON     map[string]string
	SnapshotVersions map[string][]string
	SnapshotContents map[string][]string
	SearchHits       map[string][]string
	Tags             map[string]int
}

// runScenario drives one full lifecycle through the service layer: creates a
// project and documents, edits, renames, snapshots, restores, and searches,
// returning what it observed along the way.
func runScenario(t *testing.T, store storage.Store) *observation {
	t.Helper()
	ctx := context.Background()
	svc := docstore.New(store, zap.NewNop())

	project, err := svc.CreateProject(ctx, "e2e")
	if err != nil {
		t.Fatal(err)
	}

	corpus := BuildCorpus()
	for _, doc := range corpus.Documents {
		_, err := svc.UpsertDocument(ctx, docstore.UpsertInput{
			ProjectID: project.ID,
			Title:     doc.Title,
			Content:   doc.Content,
			Metadata:  map[string]any{"tags": []string{"corpus"}},
		})
		if err != nil {
			t.Fatalf("upsert %q: %v", doc.Title, err)
		}
	}

	// Snapshot, edit, snapshot again, rename, then restore the first version.
	target := corpus.Documents[0].Title
	snap1, err := svc.CreateSnapshot(ctx, project.ID, target, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpsertDocument(ctx, docstore.UpsertInput{
		ProjectID: project.ID,
		Title:     target,
		Content:   "# Revised\n\nUser: is this the new draft?\nAssistant: yes.",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateSnapshot(ctx, project.ID, target, "revised"); err != nil {
		t.Fatal(err)
	}
	renamed := target + "-renamed"
	if _, err := svc.UpsertDocument(ctx, docstore.UpsertInput{
		ProjectID:     project.ID,
		Title:         renamed,
		PreviousTitle: target,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RestoreSnapshot(ctx, project.ID, renamed, snap1.ID); err != nil {
		t.Fatal(err)
	}

	// Delete one document and verify the rest of the world is unaffected.
	if err := svc.DeleteDocument(ctx, project.ID, corpus.Documents[1].Title); err != nil {
		t.Fatal(err)
	}

	obs := &observation{
		Contents:         map[string]string{},
		MetadataJSON:     map[string]string{},
		SnapshotVersions: map[string][]string{},
		SnapshotContents: map[string][]string{},
		SearchHits:       map[string][]string{},
	}

	docs, err := svc.ListDocuments(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, doc := range docs {
		obs.DocumentTitles = append(obs.DocumentTitles, doc.Title)
		obs.Contents[doc.Title] = doc.Content
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			t.Fatal(err)
		}
		obs.MetadataJSON[doc.Title] = string(meta)

		snaps, err := svc.ListSnapshots(ctx, project.ID, doc.Title)
		if err != nil {
			t.Fatal(err)
		}
		for _, snap := range snaps {
			obs.SnapshotVersions[doc.Title] = append(obs.SnapshotVersions[doc.Title], snap.Version)
			obs.SnapshotContents[doc.Title] = append(obs.SnapshotContents[doc.Title], snap.Content)
		}
		sort.Strings(obs.SnapshotVersions[doc.Title])
		sort.Strings(obs.SnapshotContents[doc.Title])
	}
	sort.Strings(obs.DocumentTitles)

	for _, tc := range BuildCorpus().TestCases {
		results, err := svc.Search(ctx, tc.Query, project.ID)
		if err != nil {
			t.Fatalf("search %q: %v", tc.Query, err)
		}
		var titles []string
		for _, r := range results {
			titles = append(titles, r.DocumentTitle)
		}
		sort.Strings(titles)
		obs.SearchHits[tc.Query] = titles
	}

	tags, err := svc.AllTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	obs.Tags = tags

	return obs
}

func TestE2E_BackendParity(t *testing.T) {
	observations := map[string]*observation{}
	for name, store := range newBackends(t) {
		observations[name] = runScenario(t, store)
	}
	files, sqlite := observations["files"], observations["sqlite"]
	if !reflect.DeepEqual(files, sqlite) {
		t.Errorf("backends diverged:\nfiles:  %+v\nsqlite: %+v", files, sqlite)
	}
}

func TestE2E_SearchReturnsCorrectResults(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := docstore.New(store, zap.NewNop())
			project, err := svc.CreateProject(ctx, "search")
			if err != nil {
				t.Fatal(err)
			}
			corpus := BuildCorpus()
			for _, doc := range corpus.Documents {
				if _, err := svc.UpsertDocument(ctx, docstore.UpsertInput{
					ProjectID: project.ID,
					Title:     doc.Title,
					Content:   doc.Content,
				}); err != nil {
					t.Fatalf("upsert %q: %v", doc.Title, err)
				}
			}
			for _, tc := range corpus.TestCases {
				results, err := svc.Search(ctx, tc.Query, project.ID)
				if err != nil {
					t.Fatalf("search %q: %v", tc.Query, err)
				}
				found := false
				for _, r := range results {
					for _, want := range tc.ExpectedTitles {
						if r.DocumentTitle == want {
							found = true
						}
					}
				}
				if !found {
					t.Errorf("%s: query %q: expected one of %v in %d results",
						tc.Description, tc.Query, tc.ExpectedTitles, len(results))
				}
			}
		})
	}
}

func TestE2E_SnapshotSurvivesRenameOnBothBackends(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := docstore.New(store, zap.NewNop())
			project, err := svc.CreateProject(ctx, "rename")
			if err != nil {
				t.Fatal(err)
			}
			if _, err := svc.UpsertDocument(ctx, docstore.UpsertInput{
				ProjectID: project.ID, Title: "before", Content: "original",
			}); err != nil {
				t.Fatal(err)
			}
			snap, err := svc.CreateSnapshot(ctx, project.ID, "before", "v1")
			if err != nil {
				t.Fatal(err)
			}
			if _, err := svc.UpsertDocument(ctx, docstore.UpsertInput{
				ProjectID: project.ID, Title: "after", PreviousTitle: "before",
			}); err != nil {
				t.Fatal(err)
			}
			snaps, err := svc.ListSnapshots(ctx, project.ID, "after")
			if err != nil {
				t.Fatal(err)
			}
			if len(snaps) != 1 || snaps[0].ID != snap.ID || snaps[0].Content != "original" {
				t.Errorf("snapshots after rename: %+v", snaps)
			}
		})
	}
}
