package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aurelink/aurelink/internal/player"
)

// resumableEntry is a paused Session waiting out its resume TTL in the
// Registry's resumable map.
type resumableEntry struct {
	session   *Session
	expiresAt time.Time
}

// Registry owns every session this node currently knows about: the
// actively-connected ones and the paused-but-resumable ones, matching the
// teacher-grounded pattern of an RWMutex-guarded map per
// pkg/audio/discord.Connection rather than a concurrent-map library.
type Registry struct {
	defaultMaxQueue int
	defaultResumeTTL time.Duration

	mu        sync.RWMutex
	active    map[string]*Session
	resumable map[string]*resumableEntry
}

// NewRegistry builds an empty Registry. maxQueueSize and resumeTTL apply
// to sessions that don't negotiate their own values; both fall back to
// the spec defaults (1000, 60s) when zero.
func NewRegistry(maxQueueSize int, resumeTTL time.Duration) *Registry {
	if maxQueueSize <= 0 {
		maxQueueSize = 1000
	}
	if resumeTTL <= 0 {
		resumeTTL = 60 * time.Second
	}
	return &Registry{
		defaultMaxQueue:  maxQueueSize,
		defaultResumeTTL: resumeTTL,
		active:           make(map[string]*Session),
		resumable:        make(map[string]*resumableEntry),
	}
}

// NewSession mints a new session with a server-generated UUID, wires it
// to players, and registers it as active. This is the entry point the WS
// upgrade handler calls when no resumable Session-Id was honored.
func (r *Registry) NewSession(userID string, sender Sender, players *player.Manager) *Session {
	s := New(uuid.NewString(), userID, sender, r.defaultMaxQueue, players)
	r.mu.Lock()
	r.active[s.ID()] = s
	r.mu.Unlock()
	return s
}

// Resume looks up id among paused-but-not-expired sessions, reattaches
// sender as its live transport, and promotes it back to active. Returns
// false if no such resumable session exists.
func (r *Registry) Resume(id string, sender Sender) (*Session, [][]byte, bool) {
	r.mu.Lock()
	entry, ok := r.resumable[id]
	if !ok {
		r.mu.Unlock()
		return nil, nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(r.resumable, id)
		r.mu.Unlock()
		entry.session.Shutdown()
		return nil, nil, false
	}
	delete(r.resumable, id)
	r.active[id] = entry.session
	r.mu.Unlock()

	queued := entry.session.Resume(sender)
	return entry.session, queued, true
}

// Get returns the active session for id, if connected right now.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.active[id]
	return s, ok
}

// Detach handles a WS close for id: if the session is resumable, it's
// paused and moved to the resumable map with its TTL; otherwise it's
// dropped outright and every player it owns is torn down.
func (r *Registry) Detach(id string) {
	r.mu.Lock()
	s, ok := r.active[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.active, id)

	if !s.Resumable() {
		r.mu.Unlock()
		s.Shutdown()
		return
	}

	s.Pause()
	r.resumable[id] = &resumableEntry{session: s, expiresAt: time.Now().Add(s.ResumeTTL())}
	r.mu.Unlock()
}

// ActiveSessions returns a snapshot of every currently-connected session,
// for broadcasting the periodic Stats heartbeat.
func (r *Registry) ActiveSessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.active))
	for _, s := range r.active {
		out = append(out, s)
	}
	return out
}

// ActiveCount and ResumableCount report the Registry's current size, for
// tests and diagnostics.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}

func (r *Registry) ResumableCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resumable)
}

// PruneExpired drops every resumable session whose TTL has elapsed,
// shutting down its players. Returns how many were reaped.
func (r *Registry) PruneExpired() int {
	now := time.Now()

	r.mu.Lock()
	var expired []*Session
	for id, entry := range r.resumable {
		if now.After(entry.expiresAt) {
			expired = append(expired, entry.session)
			delete(r.resumable, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Shutdown()
	}
	return len(expired)
}

// RunReaper spawns a goroutine that calls PruneExpired every interval
// until ctx is done, mirroring Reconnector's own context-owned background
// loop in this package.
func (r *Registry) RunReaper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.PruneExpired()
			}
		}
	}()
}
