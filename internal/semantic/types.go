// Package semantic provides the in-memory vector cache and
// similarity-ranking engine for paper abstracts.
package semantic

import (
	"context"
	"errors"
)

// Errors returned by cache and ranking operations.
var (
	// ErrSourceUnavailable means a reload could not fetch from the record
	// source; the cache keeps its previous snapshot.
	ErrSourceUnavailable = errors.New("record source unavailable")

	// ErrEmptyInput means an aggregate operation was given zero vectors.
	ErrEmptyInput = errors.New("empty input")
)

// Record is one (paper id, embedding) pair from the record source.
type Record struct {
	ID     int64
	Vector []float32
}

// RecordSource supplies the full set of embedded papers currently
// persisted. FetchAllEmbedded must fail cleanly: no partial results
// on error.
type RecordSource interface {
	FetchAllEmbedded(ctx context.Context) ([]Record, error)
}

// Embedder converts free text into a vector of the cache's
// dimensionality.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// KeywordSearcher is the degraded-mode fallback: substring match on
// paper titles, delegated to the record store.
type KeywordSearcher interface {
	SearchTitles(ctx context.Context, query string, limit int) ([]int64, error)
}

// ReloadStats reports the outcome of a successful reload.
type ReloadStats struct {
	Loaded  int `json:"loaded"`  // Rows in the published snapshot
	Skipped int `json:"skipped"` // Records rejected (dimension mismatch, duplicate id)
}

// Snapshot is an immutable, internally consistent set of (id, embedding)
// pairs. Position i in ids corresponds to row i of the matrix. Once
// published a snapshot is never mutated; concurrent queries read it
// freely until it is superseded and discarded.
type Snapshot struct {
	ids  []int64
	vecs [][]float32
	rows map[int64]int // id -> row index
}

// emptySnapshot is the state of a cache before its first load.
var emptySnapshot = &Snapshot{rows: map[int64]int{}}

// Len returns the number of rows in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.ids)
}

// Vector returns the embedding for id, or false if the paper is not
// in the snapshot. The returned slice must not be modified.
func (s *Snapshot) Vector(id int64) ([]float32, bool) {
	row, ok := s.rows[id]
	if !ok {
		return nil, false
	}
	return s.vecs[row], true
}

// Contains reports whether id has a row in the snapshot.
func (s *Snapshot) Contains(id int64) bool {
	_, ok := s.rows[id]
	return ok
}

// IDs returns a copy of the snapshot's paper ids in row order.
func (s *Snapshot) IDs() []int64 {
	out := make([]int64, len(s.ids))
	copy(out, s.ids)
	return out
}
