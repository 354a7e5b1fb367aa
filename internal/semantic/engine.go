package semantic

import (
	"context"

	"go.uber.org/zap"
)

// Engine answers the three supported query shapes by composing the
// cache, the ranking primitives and the text embedder. It holds no
// mutable state of its own; every query captures one snapshot and
// ranks only against it.
type Engine struct {
	cache    *Cache
	embedder Embedder
	keywords KeywordSearcher
	logger   *zap.Logger
}

// NewEngine creates a query engine. A nil logger is replaced with a
// no-op logger.
func NewEngine(cache *Cache, embedder Embedder, keywords KeywordSearcher, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cache:    cache,
		embedder: embedder,
		keywords: keywords,
		logger:   logger,
	}
}

// Cache returns the engine's vector cache.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// Search finds papers semantically similar to free text and returns
// their ids, best first. When the cache is unloaded or the embedder
// fails, it degrades to a keyword (title substring) match through the
// record store; this is a documented degraded mode, not a silent error.
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]int64, error) {
	snap := e.cache.Current()
	if snap.Len() > 0 {
		vec, err := e.embedder.EmbedText(ctx, query)
		if err == nil {
			return RankAgainst(vec, snap, topK, nil), nil
		}
		e.logger.Warn("query embedding failed, falling back to keyword match",
			zap.Error(err))
	}
	return e.keywords.SearchTitles(ctx, query, topK)
}

// SimilarTo finds papers similar to the given paper's own vector,
// excluding the paper itself. An unknown id or an unloaded cache yields
// an empty result; partially-embedded catalogs are expected in steady
// state, so this is not an error.
func (e *Engine) SimilarTo(_ context.Context, paperID int64, topK int) []int64 {
	snap := e.cache.Current()
	vec, ok := snap.Vector(paperID)
	if !ok {
		return nil
	}
	exclude := map[int64]struct{}{paperID: {}}
	return RankAgainst(vec, snap, topK, exclude)
}

// RecommendFor ranks the snapshot against the mean vector of the
// user's library. Library ids missing from the snapshot are silently
// skipped; if none remain the result is empty. Papers already in the
// library are never recommended.
func (e *Engine) RecommendFor(_ context.Context, libraryIDs []int64, topK int) []int64 {
	if len(libraryIDs) == 0 {
		return nil
	}

	snap := e.cache.Current()
	exclude := make(map[int64]struct{}, len(libraryIDs))
	owned := make([][]float32, 0, len(libraryIDs))
	for _, id := range libraryIDs {
		exclude[id] = struct{}{}
		if vec, ok := snap.Vector(id); ok {
			owned = append(owned, vec)
		}
	}
	if len(owned) == 0 {
		return nil
	}

	mean, err := MeanVector(owned)
	if err != nil {
		return nil
	}
	return RankAgainst(mean, snap, topK, exclude)
}
