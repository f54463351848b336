// Package e2e provides end-to-end tests that run the same scenario against
// both storage backends and assert they observe identical behavior.
package e2e

import (
	"fmt"
	"strings"
)

// E2EDocument is a document entry in the E2E corpus (title, content).
type E2EDocument struct {
	Title   string
	Content string
}

// QueryTestCase defines a search query and the document title(s) that must
// appear in the results. At least one of ExpectedTitles must be present.
type QueryTestCase struct {
	Query          string
	ExpectedTitles []string
	Description    string
}

// Corpus holds documents and query test cases for E2E tests.
type Corpus struct {
	Documents    []E2EDocument
	TestCases    []QueryTestCase
	TotalDocs    int
	TotalQueries int
}

// BuildCorpus returns a corpus of documents with varied structure (markdown
// headings, chat transcripts, decision logs) and query test cases. Each
// document carries a unique signature phrase so queries can assert the
// correct document is returned.
func BuildCorpus() *Corpus {
	docs := buildDocuments(60)
	cases := buildQueryTestCases(docs)
	return &Corpus{
		Documents:    docs,
		TestCases:    cases,
		TotalDocs:    len(docs),
		TotalQueries: len(cases),
	}
}

func buildDocuments(n int) []E2EDocument {
	topics := []struct {
		title  string
		phrase string
		body   string
	}{
		{"python-guide", "Python programming language", "# Python Guide\n\nPython is a high-level language.\n\n## Usage\n\nThe Python programming language is used for web development and data science."},
		{"kubernetes-docs", "Kubernetes container orchestration", "# Kubernetes\n\nUser: how do I scale a deployment?\nAssistant: Kubernetes container orchestration automates deployment and scaling."},
		{"react-notes", "React hooks and components", "# React\n\n## Hooks\n\nReact hooks and components enable building user interfaces."},
		{"go-language", "Go golang concurrency", "# Go\n\nUser: what makes Go concurrent?\nAssistant: Go golang concurrency is achieved with goroutines and channels.\nDecision: adopt Go for the worker fleet."},
		{"postgres-manual", "PostgreSQL relational database", "# PostgreSQL\n\nPostgreSQL relational database supports JSON and full-text search.\n\n---\n\nAction: migrate the reporting schema."},
		{"docker-handbook", "Docker container images", "# Docker\n\nDocker container images are portable across environments."},
		{"ml-overview", "machine learning algorithms", "# Machine Learning\n\n## Algorithms\n\nMachine learning algorithms learn patterns from data."},
		{"meeting-log", "quarterly planning meeting", "User: agenda for the quarterly planning meeting?\nAssistant: roadmap review, then budget.\nDecision: ship the indexer in Q3.\nAction: draft the announcement."},
	}
	docs := make([]E2EDocument, 0, n)
	for i := 0; i < n; i++ {
		topic := topics[i%len(topics)]
		title := topic.title
		if i >= len(topics) {
			title = fmt.Sprintf("%s-%d", topic.title, i/len(topics))
		}
		content := topic.body
		if i >= len(topics) {
			content = strings.Replace(content, topic.phrase, fmt.Sprintf("%s variant %d", topic.phrase, i), 1)
		}
		docs = append(docs, E2EDocument{Title: title, Content: content})
	}
	return docs
}

func buildQueryTestCases(docs []E2EDocument) []QueryTestCase {
	cases := []QueryTestCase{
		{Query: "goroutines and channels", ExpectedTitles: []string{"go-language"}, Description: "exact phrase"},
		{Query: "CONTAINER ORCHESTRATION", ExpectedTitles: []string{"kubernetes-docs"}, Description: "case-insensitive match"},
		{Query: "quarterly planning", ExpectedTitles: []string{"meeting-log"}, Description: "chat transcript body"},
		{Query: "full-text search", ExpectedTitles: []string{"postgres-manual"}, Description: "hyphenated phrase"},
	}
	// Every corpus document must be reachable by its own signature phrase.
	for _, doc := range docs[:4] {
		cases = append(cases, QueryTestCase{
			Query:          firstSentence(doc.Content),
			ExpectedTitles: []string{doc.Title},
			Description:    "signature for " + doc.Title,
		})
	}
	return cases
}

// firstSentence extracts a distinctive mid-document query string: the last
// non-empty line of the content, which carries the signature phrase.
func firstSentence(content string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	for _, prefix := range []string{"User:", "Assistant:", "Decision:", "Action:"} {
		last = strings.TrimSpace(strings.TrimPrefix(last, prefix))
	}
	return last
}
