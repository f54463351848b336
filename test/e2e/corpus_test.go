package e2e

import (
	"strings"
	"testing"
)

func TestBuildCorpus_UniqueTitles(t *testing.T) {
	corpus := BuildCorpus()
	if corpus.TotalDocs == 0 {
		t.Fatal("corpus has no documents")
	}
	if corpus.TotalQueries == 0 {
		t.Fatal("corpus has no query test cases")
	}
	seen := map[string]bool{}
	for _, doc := range corpus.Documents {
		if seen[doc.Title] {
			t.Errorf("duplicate title %q", doc.Title)
		}
		seen[doc.Title] = true
		if doc.Content == "" {
			t.Errorf("document %q has empty content", doc.Title)
		}
	}
}

func TestBuildCorpus_QueriesHitExpectedDocuments(t *testing.T) {
	corpus := BuildCorpus()
	byTitle := map[string]string{}
	for _, doc := range corpus.Documents {
		byTitle[doc.Title] = strings.ToLower(doc.Content)
	}
	for _, tc := range corpus.TestCases {
		matched := false
		for _, title := range tc.ExpectedTitles {
			content, ok := byTitle[title]
			if !ok {
				t.Errorf("%s: expected title %q not in corpus", tc.Description, title)
				continue
			}
			if strings.Contains(content, strings.ToLower(tc.Query)) {
				matched = true
			}
		}
		if !matched {
			t.Errorf("%s: query %q is not a substring of any expected document", tc.Description, tc.Query)
		}
	}
}
