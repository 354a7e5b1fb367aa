package semantic

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fakeSource is a RecordSource backed by a fixed slice or error.
type fakeSource struct {
	records []Record
	err     error
}

func (f *fakeSource) FetchAllEmbedded(_ context.Context) ([]Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func TestCache_Reload(t *testing.T) {
	ctx := context.Background()

	t.Run("loads matching records", func(t *testing.T) {
		c := NewCache(2)
		src := &fakeSource{records: []Record{
			{ID: 1, Vector: []float32{1, 0}},
			{ID: 2, Vector: []float32{0, 1}},
		}}

		stats, err := c.Reload(ctx, src)
		if err != nil {
			t.Fatalf("Reload failed: %v", err)
		}
		if stats.Loaded != 2 || stats.Skipped != 0 {
			t.Errorf("stats = %+v, want Loaded=2 Skipped=0", stats)
		}
		if !c.Loaded() {
			t.Error("cache should be loaded")
		}
		if !c.Current().Contains(1) || !c.Current().Contains(2) {
			t.Error("snapshot missing loaded ids")
		}
	})

	t.Run("skips dimension mismatches", func(t *testing.T) {
		c := NewCache(2)
		src := &fakeSource{records: []Record{
			{ID: 1, Vector: []float32{1, 0}},
			{ID: 2, Vector: []float32{1, 0, 0}}, // wrong dimensionality
			{ID: 3, Vector: nil},
		}}

		stats, err := c.Reload(ctx, src)
		if err != nil {
			t.Fatalf("Reload failed: %v", err)
		}
		if stats.Loaded != 1 || stats.Skipped != 2 {
			t.Errorf("stats = %+v, want Loaded=1 Skipped=2", stats)
		}
		if c.Current().Contains(2) || c.Current().Contains(3) {
			t.Error("rejected records must not appear in the snapshot")
		}
	})

	t.Run("skips duplicate ids", func(t *testing.T) {
		c := NewCache(2)
		src := &fakeSource{records: []Record{
			{ID: 1, Vector: []float32{1, 0}},
			{ID: 1, Vector: []float32{0, 1}},
		}}

		stats, err := c.Reload(ctx, src)
		if err != nil {
			t.Fatalf("Reload failed: %v", err)
		}
		if stats.Loaded != 1 || stats.Skipped != 1 {
			t.Errorf("stats = %+v, want Loaded=1 Skipped=1", stats)
		}
	})

	t.Run("empty source unloads the cache", func(t *testing.T) {
		c := NewCache(2)
		if _, err := c.Reload(ctx, &fakeSource{records: []Record{{ID: 1, Vector: []float32{1, 0}}}}); err != nil {
			t.Fatalf("Reload failed: %v", err)
		}

		stats, err := c.Reload(ctx, &fakeSource{})
		if err != nil {
			t.Fatalf("Reload of empty source failed: %v", err)
		}
		if stats.Loaded != 0 {
			t.Errorf("Loaded = %d, want 0", stats.Loaded)
		}
		if c.Loaded() {
			t.Error("cache should report unloaded after empty reload")
		}
	})

	t.Run("fetch failure keeps previous snapshot", func(t *testing.T) {
		c := NewCache(2)
		if _, err := c.Reload(ctx, &fakeSource{records: []Record{{ID: 1, Vector: []float32{1, 0}}}}); err != nil {
			t.Fatalf("Reload failed: %v", err)
		}

		_, err := c.Reload(ctx, &fakeSource{err: errors.New("connection refused")})
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Fatalf("error = %v, want ErrSourceUnavailable", err)
		}
		if !c.Loaded() || !c.Current().Contains(1) {
			t.Error("failed reload must not clobber the existing snapshot")
		}
	})

	t.Run("reload is idempotent", func(t *testing.T) {
		c := NewCache(2)
		src := &fakeSource{records: []Record{
			{ID: 3, Vector: []float32{0, 1}},
			{ID: 1, Vector: []float32{1, 0}},
		}}

		if _, err := c.Reload(ctx, src); err != nil {
			t.Fatalf("first reload failed: %v", err)
		}
		first := c.Current().IDs()
		firstRank := RankAgainst([]float32{1, 0}, c.Current(), 10, nil)

		if _, err := c.Reload(ctx, src); err != nil {
			t.Fatalf("second reload failed: %v", err)
		}
		second := c.Current().IDs()
		secondRank := RankAgainst([]float32{1, 0}, c.Current(), 10, nil)

		if len(first) != len(second) {
			t.Fatalf("id sets differ: %v vs %v", first, second)
		}
		for i := range first {
			if first[i] != second[i] {
				t.Errorf("id order differs at %d: %v vs %v", i, first, second)
			}
		}
		for i := range firstRank {
			if firstRank[i] != secondRank[i] {
				t.Errorf("ranking differs at %d: %v vs %v", i, firstRank, secondRank)
			}
		}
	})
}

func TestCache_EmptyBeforeFirstLoad(t *testing.T) {
	c := NewCache(2)
	if c.Loaded() {
		t.Error("new cache must not report loaded")
	}
	if c.Current().Len() != 0 {
		t.Error("new cache must expose the empty snapshot")
	}
	if _, ok := c.Current().Vector(1); ok {
		t.Error("empty snapshot must not contain vectors")
	}
}

// TestCache_ConcurrentReloadAndRead hammers reload from several
// goroutines while readers rank against whatever snapshot they capture.
// Run with -race; readers must always observe an internally consistent
// snapshot.
func TestCache_ConcurrentReloadAndRead(t *testing.T) {
	ctx := context.Background()
	c := NewCache(2)

	sources := []*fakeSource{
		{records: []Record{{ID: 1, Vector: []float32{1, 0}}, {ID: 2, Vector: []float32{0, 1}}}},
		{records: []Record{{ID: 3, Vector: []float32{1, 1}}}},
		{},
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := c.Reload(ctx, sources[(n+j)%len(sources)]); err != nil {
					t.Errorf("Reload failed: %v", err)
					return
				}
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap := c.Current()
				ids := RankAgainst([]float32{1, 0}, snap, 10, nil)
				// Every returned id must resolve in the captured snapshot.
				for _, id := range ids {
					if _, ok := snap.Vector(id); !ok {
						t.Errorf("id %d returned but missing from its snapshot", id)
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	// The cache must end consistent with one of the attempted reloads.
	final := c.Current().Len()
	if final != 0 && final != 1 && final != 2 {
		t.Errorf("final snapshot has %d rows, want 0, 1 or 2", final)
	}
}
