package tools

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/metrics"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/jonboulle/clockwork"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 30 * time.Minute

// Session is one conversation's state. Callers serialize turns with Lock.
type Session[T any] struct {
	ID      string
	Created time.Time
	Value   T

	mu       sync.Mutex
	lastUsed atomic.Int64 // unix nanoseconds on the owning clock
}

func (s *Session[T]) Lock()   { s.mu.Lock() }
func (s *Session[T]) Unlock() { s.mu.Unlock() }

// Sessions maps opaque tokens to session values. Entries expire after ttl
// without access, measured on the configured clock; release runs for every
// evicted or deleted value.
type Sessions[T any] struct {
	cache   *ttlcache.Cache[string, *Session[T]]
	ttl     time.Duration
	clock   clockwork.Clock
	create  func() T
	release func(T)
	logger  *slog.Logger
}

// SessionOptions configures NewSessions. Zero fields take defaults.
type SessionOptions[T any] struct {
	TTL     time.Duration
	Clock   clockwork.Clock
	Release func(T)
	Logger  *slog.Logger
}

func NewSessions[T any](create func() T, opt SessionOptions[T]) *Sessions[T] {
	if opt.TTL <= 0 {
		opt.TTL = DefaultSessionTTL
	}
	if opt.Clock == nil {
		opt.Clock = clockwork.NewRealClock()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	s := &Sessions[T]{
		cache:   ttlcache.New[string, *Session[T]](),
		ttl:     opt.TTL,
		clock:   opt.Clock,
		create:  create,
		release: opt.Release,
		logger:  opt.Logger,
	}
	s.cache.OnInsertion(func(_ context.Context, _ *ttlcache.Item[string, *Session[T]]) {
		metrics.ActiveSessions.Inc()
	})
	s.cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session[T]]) {
		metrics.ActiveSessions.Dec()
		s.logger.Debug("session evicted", "session", item.Key(), "reason", reason)
		if s.release != nil {
			s.release(item.Value().Value)
		}
	})
	return s
}

// Create starts a new session with a random token.
func (s *Sessions[T]) Create() *Session[T] {
	sess := &Session[T]{ID: uuid.NewString(), Created: s.clock.Now(), Value: s.create()}
	sess.lastUsed.Store(sess.Created.UnixNano())
	s.cache.Set(sess.ID, sess, ttlcache.NoTTL)
	s.logger.Debug("session created", "session", sess.ID)
	return sess
}

// Get returns a live session and extends its lifetime.
func (s *Sessions[T]) Get(id string) (*Session[T], bool) {
	item := s.cache.Get(id)
	if item == nil {
		return nil, false
	}
	sess := item.Value()
	if s.expired(sess) {
		s.cache.Delete(id)
		return nil, false
	}
	sess.lastUsed.Store(s.clock.Now().UnixNano())
	return sess, true
}

func (s *Sessions[T]) expired(sess *Session[T]) bool {
	return s.clock.Since(time.Unix(0, sess.lastUsed.Load())) > s.ttl
}

// DeleteExpired drops every session idle for longer than the TTL.
func (s *Sessions[T]) DeleteExpired() int {
	var stale []string
	s.cache.Range(func(item *ttlcache.Item[string, *Session[T]]) bool {
		if s.expired(item.Value()) {
			stale = append(stale, item.Key())
		}
		return true
	})
	for _, id := range stale {
		s.cache.Delete(id)
	}
	return len(stale)
}

// Delete ends a session immediately.
func (s *Sessions[T]) Delete(id string) bool {
	if !s.cache.Has(id) {
		return false
	}
	s.cache.Delete(id)
	return true
}

func (s *Sessions[T]) Len() int { return s.cache.Len() }

// Run sweeps expired sessions every interval until ctx is done, then drops
// every remaining session.
func (s *Sessions[T]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.cache.DeleteAll()
			return
		case <-ticker.Chan():
			if n := s.DeleteExpired(); n > 0 {
				s.logger.Debug("expired sessions swept", "count", n)
			}
		}
	}
}
