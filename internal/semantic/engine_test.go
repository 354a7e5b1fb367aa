package semantic

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeEmbedder returns a fixed vector or error for any text.
type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedText(_ context.Context, _ string) ([]float32, error) {
	return f.vector, f.err
}

// fakeKeywords records calls and serves canned title-match results.
type fakeKeywords struct {
	results []int64
	queries []string
}

func (f *fakeKeywords) SearchTitles(_ context.Context, query string, _ int) ([]int64, error) {
	f.queries = append(f.queries, query)
	return f.results, nil
}

// threePaperCache builds the canonical fixture: 1 and 2 nearly parallel,
// 3 pointing the opposite way.
func threePaperCache(t *testing.T) *Cache {
	t.Helper()
	c := NewCache(2)
	src := &fakeSource{records: []Record{
		{ID: 1, Vector: []float32{1, 0}},
		{ID: 2, Vector: []float32{0.9, 0.1}},
		{ID: 3, Vector: []float32{-1, 0}},
	}}
	if _, err := c.Reload(context.Background(), src); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	return c
}

func TestEngine_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("semantic path when loaded", func(t *testing.T) {
		kw := &fakeKeywords{results: []int64{99}}
		e := NewEngine(threePaperCache(t), &fakeEmbedder{vector: []float32{1, 0}}, kw, nil)

		got, err := e.Search(ctx, "neural nets", 2)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(got) != 2 || got[0] != 1 || got[1] != 2 {
			t.Errorf("got %v, want [1 2]", got)
		}
		if len(kw.queries) != 0 {
			t.Error("keyword fallback must not run when the semantic path succeeds")
		}
	})

	t.Run("keyword fallback on empty cache", func(t *testing.T) {
		kw := &fakeKeywords{results: []int64{42, 43}}
		e := NewEngine(NewCache(2), &fakeEmbedder{vector: []float32{1, 0}}, kw, nil)

		got, err := e.Search(ctx, "neural nets", 10)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(got) != 2 || got[0] != 42 {
			t.Errorf("got %v, want keyword results [42 43]", got)
		}
		if len(kw.queries) != 1 || kw.queries[0] != "neural nets" {
			t.Errorf("keyword searcher saw %v, want the original query", kw.queries)
		}
	})

	t.Run("keyword fallback on embedding failure", func(t *testing.T) {
		kw := &fakeKeywords{results: []int64{7}}
		e := NewEngine(threePaperCache(t), &fakeEmbedder{err: errors.New("model unavailable")}, kw, nil)

		got, err := e.Search(ctx, "transformers", 5)
		if err != nil {
			t.Fatalf("Search must degrade, not fail: %v", err)
		}
		if len(got) != 1 || got[0] != 7 {
			t.Errorf("got %v, want [7]", got)
		}
	})
}

func TestEngine_SimilarTo(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(threePaperCache(t), &fakeEmbedder{}, &fakeKeywords{}, nil)

	t.Run("ranks neighbors excluding self", func(t *testing.T) {
		got := e.SimilarTo(ctx, 1, 2)
		if len(got) != 2 || got[0] != 2 || got[1] != 3 {
			t.Errorf("got %v, want [2 3]", got)
		}
	})

	t.Run("unknown paper yields empty", func(t *testing.T) {
		if got := e.SimilarTo(ctx, 999, 5); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})

	t.Run("unloaded cache yields empty", func(t *testing.T) {
		cold := NewEngine(NewCache(2), &fakeEmbedder{}, &fakeKeywords{}, nil)
		if got := cold.SimilarTo(ctx, 1, 5); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})
}

func TestEngine_RecommendFor(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(threePaperCache(t), &fakeEmbedder{}, &fakeKeywords{}, nil)

	t.Run("ranks by mean vector excluding library", func(t *testing.T) {
		got := e.RecommendFor(ctx, []int64{2}, 2)
		if len(got) != 2 || got[0] != 1 || got[1] != 3 {
			t.Errorf("got %v, want [1 3]", got)
		}
		for _, id := range got {
			if id == 2 {
				t.Error("library paper must never be recommended")
			}
		}
	})

	t.Run("empty library yields empty", func(t *testing.T) {
		if got := e.RecommendFor(ctx, nil, 5); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})

	t.Run("library disjoint from snapshot yields empty", func(t *testing.T) {
		if got := e.RecommendFor(ctx, []int64{100, 200}, 5); len(got) != 0 {
			t.Errorf("got %v, want empty", got)
		}
	})

	t.Run("unembedded library papers are skipped", func(t *testing.T) {
		// 100 is not in the snapshot; recommendation still works from 2.
		got := e.RecommendFor(ctx, []int64{2, 100}, 3)
		if len(got) != 2 {
			t.Fatalf("got %v, want two results", got)
		}
		if got[0] != 1 || got[1] != 3 {
			t.Errorf("got %v, want [1 3]", got)
		}
	})
}

// Guards the interface contracts the engine is built against.
func TestEngine_CollaboratorInterfaces(t *testing.T) {
	var _ RecordSource = (*fakeSource)(nil)
	var _ Embedder = (*fakeEmbedder)(nil)
	var _ KeywordSearcher = (*fakeKeywords)(nil)

	if !strings.Contains(ErrSourceUnavailable.Error(), "unavailable") {
		t.Error("ErrSourceUnavailable message changed unexpectedly")
	}
}
