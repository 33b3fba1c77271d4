package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// Sessions keeps one value per client session id, in memory only. Values are
// created lazily by the constructor passed to NewSessions. A session that is
// not used for ttl is dropped, and at most capacity sessions are kept (the
// least recently used goes first).
type Sessions[T any] struct {
	mu    sync.Mutex
	items *ttlcache.Cache[string, T]
	newFn func() T
}

func NewSessions[T any](newFn func() T, ttl time.Duration, capacity uint64) *Sessions[T] {
	opts := []ttlcache.Option[string, T]{ttlcache.WithTTL[string, T](ttl)}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, T](capacity))
	}
	return &Sessions[T]{items: ttlcache.New[string, T](opts...), newFn: newFn}
}

// Start runs the expiry loop until Stop is called. Expired sessions are
// unreachable even without it; the loop only frees their memory.
func (s *Sessions[T]) Start() {
	s.items.Start()
}

func (s *Sessions[T]) Stop() {
	s.items.Stop()
}

// Lookup returns the live session for id without creating one. A hit counts
// as use and extends the session's lifetime.
func (s *Sessions[T]) Lookup(id string) (T, bool) {
	if id == "" {
		var zero T
		return zero, false
	}
	item := s.items.Get(id)
	if item == nil {
		var zero T
		return zero, false
	}
	return item.Value(), true
}

// Open returns the session for id. Unknown ids get a new session under a
// freshly issued id, which is the one the caller must keep using.
func (s *Sessions[T]) Open(id string) (string, T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.Lookup(id); ok {
		return id, v
	}
	return s.create()
}

// Fresh drops the session behind previous (if any) and starts a new empty one.
func (s *Sessions[T]) Fresh(previous string) (string, T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if previous != "" {
		s.items.Delete(previous)
	}
	return s.create()
}

func (s *Sessions[T]) create() (string, T) {
	id := uuid.NewString()
	v := s.newFn()
	s.items.Set(id, v, ttlcache.DefaultTTL)
	return id, v
}

func (s *Sessions[T]) Drop(id string) {
	s.items.Delete(id)
}

// Len counts live sessions.
func (s *Sessions[T]) Len() int {
	s.items.DeleteExpired()
	return s.items.Len()
}
