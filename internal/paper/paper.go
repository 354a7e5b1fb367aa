// Package paper defines the core domain types for arxiv papers.
package paper

import "time"

// Paper represents an arxiv paper tracked by the system.
type Paper struct {
	// Identity
	ID      int64  `json:"id"`       // Internal stable identifier, never reused
	ArxivID string `json:"arxiv_id"` // Arxiv identifier without version suffix
	Version int    `json:"version"`  // Arxiv version number (v1, v2, ...)

	// Metadata
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Summary  string   `json:"summary"` // Abstract text
	Category string   `json:"category"`
	Links    Links    `json:"links"`

	Published time.Time `json:"published"`
	Updated   time.Time `json:"updated"`

	// Embedding is the dense vector for the title + abstract, or nil
	// when the paper has not been embedded yet.
	Embedding []float32 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// Links holds the arxiv URLs for a paper.
type Links struct {
	Abs string `json:"abs,omitempty"` // Abstract page
	PDF string `json:"pdf,omitempty"` // PDF download
}

// HasEmbedding reports whether the paper carries an embedding vector.
func (p *Paper) HasEmbedding() bool {
	return len(p.Embedding) > 0
}
