package models

// SearchResult is one match from the naive substring search.
type SearchResult struct {
	ProjectID     string `json:"project_id"`
	ProjectName   string `json:"project_name"`
	DocumentID    string `json:"document_id"`
	DocumentTitle string `json:"document_title"`
	Snippet       string `json:"snippet"`
}

// StoreStats summarizes the current contents of the backing store.
type StoreStats struct {
	Projects  int64 `json:"projects"`
	Documents int64 `json:"documents"`
	Snapshots int64 `json:"snapshots"`
}
