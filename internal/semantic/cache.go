package semantic

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Cache holds the current snapshot of paper embeddings. It is created
// empty, replaced wholesale by Reload, and never partially mutated.
// Reload may run concurrently with any number of readers: a query that
// captured a snapshot keeps ranking against it even if a reload publishes
// a newer one mid-flight. Overlapping reloads are last-writer-wins.
type Cache struct {
	dims int
	snap atomic.Pointer[Snapshot]
}

// NewCache creates an empty cache expecting vectors of the given
// dimensionality. Dimensionality is fixed per deployment by the
// embedding model (e.g. 384 for all-minilm).
func NewCache(dims int) *Cache {
	c := &Cache{dims: dims}
	c.snap.Store(emptySnapshot)
	return c
}

// Dimensions returns the expected vector dimensionality.
func (c *Cache) Dimensions() int {
	return c.dims
}

// Reload fetches all embedded records from src, builds a fresh snapshot
// and publishes it atomically. Records whose vector length does not match
// the cache dimensionality are skipped and counted, not fatal. A fetch
// failure returns ErrSourceUnavailable and leaves the previous snapshot
// untouched. Zero qualifying records publishes the empty snapshot.
func (c *Cache) Reload(ctx context.Context, src RecordSource) (ReloadStats, error) {
	records, err := src.FetchAllEmbedded(ctx)
	if err != nil {
		return ReloadStats{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	var stats ReloadStats
	next := &Snapshot{
		ids:  make([]int64, 0, len(records)),
		vecs: make([][]float32, 0, len(records)),
		rows: make(map[int64]int, len(records)),
	}
	for _, rec := range records {
		if len(rec.Vector) != c.dims {
			stats.Skipped++
			continue
		}
		if _, dup := next.rows[rec.ID]; dup {
			stats.Skipped++
			continue
		}
		next.rows[rec.ID] = len(next.ids)
		next.ids = append(next.ids, rec.ID)
		next.vecs = append(next.vecs, rec.Vector)
	}
	stats.Loaded = len(next.ids)

	c.snap.Store(next)
	return stats, nil
}

// Current returns the snapshot to use for the duration of a single
// query. The caller must not assume it stays current across calls.
func (c *Cache) Current() *Snapshot {
	return c.snap.Load()
}

// Loaded reports whether the current snapshot has at least one row.
func (c *Cache) Loaded() bool {
	return c.Current().Len() > 0
}
