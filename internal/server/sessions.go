package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-dynform/pkg/form"
	"github.com/goliatone/go-dynform/pkg/metrics"
)

const (
	DefaultMaxSessions        = 1000
	DefaultSessionIdleTimeout = 30 * time.Minute
)

var (
	// ErrSessionNotFound is returned for unknown, deleted or expired session
	// ids.
	ErrSessionNotFound = errors.New("server: session not found")
	// ErrTooManySessions is returned when the registry is full of live
	// sessions.
	ErrTooManySessions = errors.New("server: too many sessions")
)

type sessionEntry struct {
	session  *form.Session
	lastSeen time.Time
}

// registry holds live sessions. Sessions idle for longer than idle are
// dropped; at most limit sessions are kept. A zero limit disables that bound.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	limit    int
	idle     time.Duration
	now      func() time.Time
	metrics  *metrics.Collector
}

func newRegistry(collector *metrics.Collector, limit int, idle time.Duration) *registry {
	return &registry{
		sessions: make(map[string]*sessionEntry),
		limit:    limit,
		idle:     idle,
		now:      time.Now,
		metrics:  collector,
	}
}

func (r *registry) add(session *form.Session) (string, error) {
	id := uuid.NewString()

	r.mu.Lock()
	now := r.now()
	r.sweepLocked(now)
	if r.limit > 0 && len(r.sessions) >= r.limit {
		r.mu.Unlock()
		return "", ErrTooManySessions
	}
	r.sessions[id] = &sessionEntry{session: session, lastSeen: now}
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetSessions(n)
	return id, nil
}

// get returns the session and marks it as used.
func (r *registry) get(id string) (*form.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := r.now()
	if r.expired(entry, now) {
		delete(r.sessions, id)
		r.metrics.SetSessions(len(r.sessions))
		return nil, ErrSessionNotFound
	}
	entry.lastSeen = now
	return entry.session, nil
}

func (r *registry) remove(id string) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	r.metrics.SetSessions(n)
	return nil
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(r.now())
	return len(r.sessions)
}

func (r *registry) sweepLocked(now time.Time) {
	before := len(r.sessions)
	for id, entry := range r.sessions {
		if r.expired(entry, now) {
			delete(r.sessions, id)
		}
	}
	if len(r.sessions) != before {
		r.metrics.SetSessions(len(r.sessions))
	}
}

func (r *registry) expired(entry *sessionEntry, now time.Time) bool {
	return r.idle > 0 && now.Sub(entry.lastSeen) > r.idle
}
