package docstore

import (
	"context"
	"strings"

	"github.com/otaku572/gptproduct/internal/models"
	"github.com/otaku572/gptproduct/pkg/utils"
)

const snippetLength = 200

// Search scans document contents for a case-insensitive substring match.
// When projectID is non-empty the scan is restricted to that project. Results
// carry a fixed-length snippet of the matching document's content.
func (s *Service) Search(ctx context.Context, query, projectID string) ([]models.SearchResult, error) {
	needle := strings.ToLower(query)
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	results := []models.SearchResult{}
	for _, p := range projects {
		if projectID != "" && p.ID != projectID {
			continue
		}
		docs, err := s.store.ListDocuments(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if doc.Content == "" || !strings.Contains(strings.ToLower(doc.Content), needle) {
				continue
			}
			results = append(results, models.SearchResult{
				ProjectID:     p.ID,
				ProjectName:   p.Name,
				DocumentID:    doc.ID,
				DocumentTitle: doc.Title,
				Snippet:       utils.Truncate(doc.Content, snippetLength),
			})
		}
	}
	return results, nil
}

// AllTags aggregates tag occurrence counts across every document's metadata.
func (s *Service) AllTags(ctx context.Context) (map[string]int, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, p := range projects {
		docs, err := s.store.ListDocuments(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			for _, tag := range doc.TagList() {
				counts[tag]++
			}
		}
	}
	return counts, nil
}
