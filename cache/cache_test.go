package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestStore() *Store {
	// Sweeper disabled: tests exercise lazy expiry explicitly.
	return NewStore(Options{DefaultTTL: 5 * time.Minute, SweepInterval: -1})
}

func TestStore_GetSetDelete(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	if _, ok := s.Get("missing"); ok {
		t.Error("Get on empty store should miss")
	}

	s.Set("k", "v", 0)
	got, ok := s.Get("k")
	if !ok || got != "v" {
		t.Errorf("Get = (%v, %v), want (v, true)", got, ok)
	}

	if !s.Delete("k") {
		t.Error("Delete of present key should report true")
	}
	if s.Delete("k") {
		t.Error("Delete of absent key should report false")
	}
	if _, ok := s.Get("k"); ok {
		t.Error("Get after Delete should miss")
	}
}

func TestStore_LazyExpiry(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Set("x", map[string]any{"a": 1}, 100*time.Millisecond)

	got, ok := s.Get("x")
	if !ok {
		t.Fatal("Get immediately after Set should hit")
	}
	if m := got.(map[string]any); m["a"] != 1 {
		t.Errorf("value = %v", got)
	}

	time.Sleep(150 * time.Millisecond)

	// No sweeper is running: expiry must be enforced on read.
	if _, ok := s.Get("x"); ok {
		t.Error("Get after TTL should miss")
	}
	if s.Stats().Entries != 0 {
		t.Error("expired entry should be removed on read")
	}

	// A subsequent Set works normally.
	s.Set("x", "fresh", 0)
	if got, ok := s.Get("x"); !ok || got != "fresh" {
		t.Errorf("Set after expiry: Get = (%v, %v)", got, ok)
	}
}

func TestStore_SetOverwrites(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Set("k", "old", 0)
	s.Set("k", "new", 0)
	if got, _ := s.Get("k"); got != "new" {
		t.Errorf("Get = %v, want new", got)
	}
}

func TestStore_ClearPattern(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Set("tags:space1:all", 1, 0)
	s.Set("tags:space2:all", 2, 0)
	s.Set("members:team:all", 3, 0)

	removed, err := s.ClearPattern("^tags:space1:")
	if err != nil {
		t.Fatalf("ClearPattern failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, ok := s.Get("tags:space1:all"); ok {
		t.Error("matching key should be gone")
	}
	if _, ok := s.Get("tags:space2:all"); !ok {
		t.Error("non-matching key in same namespace should survive")
	}
	if _, ok := s.Get("members:team:all"); !ok {
		t.Error("other namespace should survive")
	}
}

func TestStore_ClearPattern_Invalid(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	if _, err := s.ClearPattern("("); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("expected ErrInvalidPattern, got %v", err)
	}
}

func TestStore_ClearResetsCounters(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Set("a", 1, 0)
	s.Get("a")
	s.Get("nope")

	s.Clear()
	stats := s.Stats()
	if stats.Hits != 0 || stats.Misses != 0 || stats.Entries != 0 {
		t.Errorf("Stats after Clear = %+v, want zeros", stats)
	}
}

func TestStore_GetOrSet(t *testing.T) {
	s := newTestStore()
	defer s.Close()
	ctx := context.Background()

	calls := 0
	fetch := func(ctx context.Context) (any, error) {
		calls++
		return "fetched", nil
	}

	got, err := s.GetOrSet(ctx, "k", 0, fetch)
	if err != nil || got != "fetched" {
		t.Fatalf("GetOrSet = (%v, %v)", got, err)
	}
	got, err = s.GetOrSet(ctx, "k", 0, fetch)
	if err != nil || got != "fetched" {
		t.Fatalf("second GetOrSet = (%v, %v)", got, err)
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1", calls)
	}
}

func TestStore_GetOrSet_ErrorNotCached(t *testing.T) {
	s := newTestStore()
	defer s.Close()
	ctx := context.Background()

	fetchErr := errors.New("upstream down")
	_, err := s.GetOrSet(ctx, "k", 0, func(ctx context.Context) (any, error) {
		return nil, fetchErr
	})
	if !errors.Is(err, fetchErr) {
		t.Fatalf("fetch error should propagate unmodified, got %v", err)
	}
	if _, ok := s.Get("k"); ok {
		t.Error("failed fetch must not populate the cache")
	}

	// Next call fetches again and can succeed.
	got, err := s.GetOrSet(ctx, "k", 0, func(ctx context.Context) (any, error) {
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Errorf("GetOrSet after failure = (%v, %v)", got, err)
	}
}

func TestStore_GetOrSet_SingleFlight(t *testing.T) {
	s := newTestStore()
	defer s.Close()
	ctx := context.Background()

	var fetches atomic.Int32
	release := make(chan struct{})

	fetch := func(ctx context.Context) (any, error) {
		fetches.Add(1)
		<-release
		return "shared", nil
	}

	const waiters = 8
	var wg sync.WaitGroup
	results := make([]any, waiters)
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func(i int) {
			defer wg.Done()
			v, err := s.GetOrSet(ctx, "hot", 0, fetch)
			if err != nil {
				t.Errorf("GetOrSet failed: %v", err)
			}
			results[i] = v
		}(i)
	}

	// Give the goroutines a moment to pile onto the key, then release.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1 (concurrent misses must share one fetch)", got)
	}
	for i, v := range results {
		if v != "shared" {
			t.Errorf("results[%d] = %v, want shared", i, v)
		}
	}
}

func TestStore_Sweep(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Set("short", 1, 10*time.Millisecond)
	s.Set("long", 2, time.Hour)
	time.Sleep(20 * time.Millisecond)

	removed := s.sweep(time.Now())
	if removed != 1 {
		t.Errorf("sweep removed %d, want 1", removed)
	}
	if _, ok := s.Get("long"); !ok {
		t.Error("unexpired entry should survive the sweep")
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	s.Set("a", 1, 0)
	s.Get("a")
	s.Get("a")
	s.Get("missing")

	stats := s.Stats()
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Entries != 1 {
		t.Errorf("Entries = %d, want 1", stats.Entries)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := newTestStore()
	defer s.Close()

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				switch j % 4 {
				case 0:
					s.Set("k", j, 0)
				case 1:
					s.Get("k")
				case 2:
					s.Delete("k")
				case 3:
					s.ClearPattern("^k$")
				}
			}
		}(i)
	}
	wg.Wait()
}
