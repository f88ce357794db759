package cache

import (
	"fmt"
	"testing"

	"jsonlview/app/interfaces"
)

func view(n int) ([]*interfaces.Row, []int) {
	rows := make([]*interfaces.Row, n)
	indices := make([]int, n)
	for i := range rows {
		rows[i] = &interfaces.Row{Index: i}
		indices[i] = i
	}
	return rows, indices
}

func TestCacheStoreAndGet(t *testing.T) {
	c := New(DefaultMaxSize)
	rows, indices := view(3)
	c.Store("k1", rows, indices)

	gotRows, gotIndices, found := c.Get("k1")
	if !found {
		t.Fatal("stored entry not found")
	}
	if len(gotRows) != 3 || len(gotIndices) != 3 {
		t.Errorf("got %d rows %d indices, want 3 each", len(gotRows), len(gotIndices))
	}
	if gotRows[0] != rows[0] {
		t.Error("cache should return the same row pointers")
	}

	if _, _, found := c.Get("missing"); found {
		t.Error("unknown key reported found")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	// Each entry: 10 indices * 16 bytes + 2-byte key = 162. Three fit in
	// 400, the fourth forces evictions.
	c := New(400)
	for i := 0; i < 2; i++ {
		rows, indices := view(10)
		c.Store(fmt.Sprintf("k%d", i), rows, indices)
	}

	// Touch k0 so k1 is the eviction victim.
	if _, _, found := c.Get("k0"); !found {
		t.Fatal("k0 missing before eviction")
	}

	rows, indices := view(10)
	c.Store("k2", rows, indices)

	if _, _, found := c.Get("k1"); found {
		t.Error("least recently used entry k1 should have been evicted")
	}
	if _, _, found := c.Get("k0"); !found {
		t.Error("recently used k0 should survive")
	}
	if _, _, found := c.Get("k2"); !found {
		t.Error("newly stored k2 should be present")
	}
}

func TestCacheOversizeEntryNotStored(t *testing.T) {
	c := New(100)
	rows, indices := view(1000)
	c.Store("huge", rows, indices)
	if _, _, found := c.Get("huge"); found {
		t.Error("entry larger than the whole cache must not be stored")
	}
}

func TestCacheOverwriteSameKey(t *testing.T) {
	c := New(DefaultMaxSize)
	rows, indices := view(5)
	c.Store("k", rows, indices)
	rows2, indices2 := view(2)
	c.Store("k", rows2, indices2)

	got, _, found := c.Get("k")
	if !found || len(got) != 2 {
		t.Errorf("got %d rows, want the overwritten 2", len(got))
	}
	if stats := c.GetStats(); stats.Entries != 1 {
		t.Errorf("entries = %d, want 1", stats.Entries)
	}
}

func TestCacheClear(t *testing.T) {
	c := New(DefaultMaxSize)
	rows, indices := view(3)
	c.Store("k", rows, indices)
	c.Clear()

	if _, _, found := c.Get("k"); found {
		t.Error("entry survived Clear")
	}
	stats := c.GetStats()
	if stats.Entries != 0 || stats.TotalSize != 0 {
		t.Errorf("stats after clear = %+v", stats)
	}
}

func TestCacheStats(t *testing.T) {
	c := New(DefaultMaxSize)
	rows, indices := view(3)
	c.Store("k", rows, indices)

	c.Get("k")
	c.Get("k")
	c.Get("nope")

	stats := c.GetStats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 2/1", stats.Hits, stats.Misses)
	}
	if stats.Entries != 1 || stats.TotalSize == 0 || stats.UsagePercent <= 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCacheRemove(t *testing.T) {
	c := New(DefaultMaxSize)
	rows, indices := view(3)
	c.Store("k", rows, indices)
	c.Remove("k")
	if _, _, found := c.Get("k"); found {
		t.Error("entry survived Remove")
	}
	// Removing a missing key is a no-op.
	c.Remove("k")
}
