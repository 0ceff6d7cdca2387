package models

import "time"

// NewsItem is a normalized headline record from the news-search provider.
// Items within one request are deduplicated by URL.
type NewsItem struct {
	Title       string    `json:"title"`
	Snippet     string    `json:"snippet"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// KnowledgeKind tags where a background document came from.
type KnowledgeKind string

const (
	KnowledgeKindWeb          KnowledgeKind = "web"
	KnowledgeKindEncyclopedia KnowledgeKind = "encyclopedia"
)

// KnowledgeSnippet is a normalized background document from the
// web-knowledge provider.
type KnowledgeSnippet struct {
	Title string        `json:"title"`
	URL   string        `json:"url"`
	Text  string        `json:"text"`
	Kind  KnowledgeKind `json:"source_kind"`
}
