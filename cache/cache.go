package cache

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Sentinel errors for cache operations.
var (
	ErrInvalidPattern = errors.New("cache: invalid pattern")
)

// Options configures a Store.
type Options struct {
	// DefaultTTL is applied when Set/GetOrSet is called with ttl <= 0.
	// Default: 5 minutes.
	DefaultTTL time.Duration

	// SweepInterval is how often the background sweeper removes expired
	// entries. Independent of any entry's TTL; it only bounds memory
	// growth from abandoned keys. Default: 60s. Negative disables the
	// sweeper entirely (expiry is still enforced lazily on Get).
	SweepInterval time.Duration
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Store is an in-memory TTL cache.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: Get never errors; a failed GetOrSet fetch propagates the
//   fetch error unmodified and caches nothing.
// - Expiry: entries are invisible once expired, whether or not the
//   sweeper has run; expired entries found on Get are removed.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	hits    int64
	misses  int64

	defaultTTL time.Duration
	group      singleflight.Group

	stopOnce sync.Once
	stop     chan struct{}
}

type entry struct {
	value     any
	createdAt time.Time
	expiresAt time.Time
}

// NewStore creates a Store and starts its background sweeper.
func NewStore(opts Options) *Store {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 5 * time.Minute
	}
	if opts.SweepInterval == 0 {
		opts.SweepInterval = time.Minute
	}

	s := &Store{
		entries:    make(map[string]entry),
		defaultTTL: opts.DefaultTTL,
		stop:       make(chan struct{}),
	}

	if opts.SweepInterval > 0 {
		go s.sweepLoop(opts.SweepInterval)
	}
	return s
}

// Get retrieves a value. Returns (nil, false) on miss or expiry, and
// removes the entry when expiry is detected.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		s.countMiss()
		return nil, false
	}

	if !time.Now().Before(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; a Set may have raced in.
		if cur, ok := s.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, key)
		}
		s.misses++
		s.mu.Unlock()
		return nil, false
	}

	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
	return e.value, true
}

// Set stores a value, unconditionally overwriting any existing entry.
// A ttl <= 0 uses the store default.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := time.Now()

	s.mu.Lock()
	s.entries[key] = entry{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	s.mu.Unlock()
}

// Delete removes a key, reporting whether anything was removed.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()
	return ok
}

// ClearPattern removes every key matching the regular expression and
// returns the removal count.
func (s *Store) ClearPattern(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, errors.Join(ErrInvalidPattern, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.entries {
		if re.MatchString(key) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Clear removes all entries and resets the hit/miss counters.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.hits = 0
	s.misses = 0
	s.mu.Unlock()
}

// GetOrSet returns the cached value for key, or fetches, stores, and
// returns it on a miss. Concurrent misses on the same key share one
// in-flight fetch. Fetch failures propagate unmodified and are never
// cached.
func (s *Store) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetch func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// Another waiter may have populated the key while we queued.
		if v, ok := s.Get(key); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.Set(key, v, ttl)
		return v, nil
	})
	return v, err
}

// Stats returns a snapshot of the counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Hits:    s.hits,
		Misses:  s.misses,
		Entries: len(s.entries),
	}
}

// Close stops the background sweeper. Idempotent.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *Store) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

func (s *Store) countMiss() {
	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
}
