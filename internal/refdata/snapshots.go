package refdata

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"hotel_sync/internal/adapters/observability"
	"hotel_sync/internal/domain"
)

// Snapshot is an immutable, wholesale-replaced copy of partner data.
type Snapshot[T any] struct {
	Data      T         `json:"data"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Lookup is the answer of Snapshots.Get.
type Lookup[T any] struct {
	Snapshot[T]
	Found  bool  // a snapshot (fresh or stale) is available
	Cached bool  // served without a partner fetch
	Err    error // refresh failure; the previous snapshot, if any, is kept
}

// Snapshots holds keyed snapshots refreshed at most once per TTL window.
// Concurrent refreshes of one key collapse into a single fetch. When a
// shared store is set, it is consulted before fetching and written after.
type Snapshots[T any] struct {
	name   string
	shared domain.Cache
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	items map[string]Snapshot[T]
	group singleflight.Group
}

func NewSnapshots[T any](name string, shared domain.Cache, ttl time.Duration, now func() time.Time) *Snapshots[T] {
	if now == nil {
		now = time.Now
	}
	return &Snapshots[T]{name: name, shared: shared, ttl: ttl, now: now, items: map[string]Snapshot[T]{}}
}

func (s *Snapshots[T]) fresh(snap Snapshot[T]) bool {
	return !snap.FetchedAt.IsZero() && s.now().Sub(snap.FetchedAt) < s.ttl
}

// Peek returns the in-process snapshot without refreshing.
func (s *Snapshots[T]) Peek(key string) (Snapshot[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.items[key]
	return snap, ok
}

func (s *Snapshots[T]) Get(ctx context.Context, key string, fetch func(context.Context) (T, error)) Lookup[T] {
	if snap, ok := s.Peek(key); ok && s.fresh(snap) {
		observability.ObserveCache(s.name, "hit")
		return Lookup[T]{Snapshot: snap, Found: true, Cached: true}
	}
	observability.ObserveCache(s.name, "miss")

	v, _, _ := s.group.Do(key, func() (any, error) {
		// another flight may have landed while we waited
		cur, ok := s.Peek(key)
		if ok && s.fresh(cur) {
			return Lookup[T]{Snapshot: cur, Found: true, Cached: true}, nil
		}
		if snap, hit := s.loadShared(ctx, key); hit {
			s.store(key, snap)
			return Lookup[T]{Snapshot: snap, Found: true, Cached: true}, nil
		}
		snap, err := s.fetch(ctx, key, fetch)
		if err != nil {
			return Lookup[T]{Snapshot: cur, Found: ok, Err: err}, nil
		}
		return Lookup[T]{Snapshot: snap, Found: true}, nil
	})
	return v.(Lookup[T])
}

// Refresh fetches unconditionally, bypassing both freshness checks.
func (s *Snapshots[T]) Refresh(ctx context.Context, key string, fetch func(context.Context) (T, error)) (Snapshot[T], error) {
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.fetch(ctx, key, fetch)
	})
	if err != nil {
		return Snapshot[T]{}, err
	}
	return v.(Snapshot[T]), nil
}

func (s *Snapshots[T]) Delete(ctx context.Context, key string) {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	if s.shared != nil {
		_ = s.shared.Del(ctx, s.sharedKey(key))
	}
}

func (s *Snapshots[T]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	return keys
}

func (s *Snapshots[T]) TTL() time.Duration { return s.ttl }

func (s *Snapshots[T]) fetch(ctx context.Context, key string, fetch func(context.Context) (T, error)) (Snapshot[T], error) {
	data, err := fetch(ctx)
	if err != nil {
		observability.ObserveCache(s.name, "refresh_error")
		return Snapshot[T]{}, err
	}
	snap := Snapshot[T]{Data: data, FetchedAt: s.now()}
	s.store(key, snap)
	observability.ObserveCache(s.name, "refresh")
	if s.shared != nil {
		_ = s.shared.Set(ctx, s.sharedKey(key), snap, int(s.ttl.Seconds()))
	}
	return snap, nil
}

func (s *Snapshots[T]) store(key string, snap Snapshot[T]) {
	s.mu.Lock()
	s.items[key] = snap
	s.mu.Unlock()
}

func (s *Snapshots[T]) loadShared(ctx context.Context, key string) (Snapshot[T], bool) {
	if s.shared == nil {
		return Snapshot[T]{}, false
	}
	var snap Snapshot[T]
	ok, err := s.shared.Get(ctx, s.sharedKey(key), &snap)
	if err != nil || !ok || !s.fresh(snap) {
		return Snapshot[T]{}, false
	}
	return snap, true
}

func (s *Snapshots[T]) sharedKey(key string) string { return s.name + ":" + key }
