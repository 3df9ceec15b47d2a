// Package session implements the WS client session: the resumable
// session/queue lifecycle of internal/session/{session,session_manager}.go
// (guild-id -> player map, outgoing event queue, resume semantics) plus the
// voice-gateway Reconnector already in this package.
package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aurelink/aurelink/internal/player"
)

// Sender delivers a raw outgoing WS frame. The ws layer implements this
// over a *coder/websocket.Conn; tests use an in-memory fake.
type Sender interface {
	Send(data []byte) error
}

// Session is one client's WS connection: its player set, its outgoing
// transport, and (while disconnected-but-resumable) its queued events.
// Safe for concurrent use.
type Session struct {
	id        string
	userID    string
	createdAt time.Time

	Players *player.Manager

	mu           sync.Mutex
	sender       Sender
	resumable    bool
	resumeTTL    time.Duration
	paused       bool
	queue        [][]byte
	maxQueueSize int

	framesSent   uint64
	framesNulled uint64
}

// New builds a freshly-connected Session. sender is the transport events
// are written to until the WS disconnects; maxQueueSize bounds the queue
// used while paused (disconnected but resumable), dropping the oldest
// entry on overflow, per spec's default of 1000.
func New(id, userID string, sender Sender, maxQueueSize int, players *player.Manager) *Session {
	if maxQueueSize <= 0 {
		maxQueueSize = 1000
	}
	return &Session{
		id:           id,
		userID:       userID,
		createdAt:    time.Now(),
		Players:      players,
		sender:       sender,
		maxQueueSize: maxQueueSize,
	}
}

// ID returns the session's UUID.
func (s *Session) ID() string { return s.id }

// UserID returns the Discord user ID that opened this session, or "".
func (s *Session) UserID() string { return s.userID }

// Uptime reports how long this session has existed (across any
// disconnect/resume cycles — it's tied to session creation, not the
// current transport).
func (s *Session) Uptime() time.Duration { return time.Since(s.createdAt) }

// SetResumable toggles whether a WS close should pause this session for
// later resume (true) or shut it down immediately (false), and sets the
// TTL a paused session is kept alive for.
func (s *Session) SetResumable(resumable bool, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumable = resumable
	if ttl > 0 {
		s.resumeTTL = ttl
	}
}

// Resumable reports whether this session should survive a WS close.
func (s *Session) Resumable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumable
}

// ResumeTTL returns the configured resume grace period, defaulting to 60s
// (the spec's default resume_timeout_secs) if never set.
func (s *Session) ResumeTTL() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resumeTTL <= 0 {
		return 60 * time.Second
	}
	return s.resumeTTL
}

// Pause marks the session disconnected-but-resumable: further sends are
// queued instead of written to a (now-gone) transport.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	s.sender = nil
}

// Resume reattaches sender as the live transport, unpauses the session,
// and drains the queued events accumulated while paused, oldest first, so
// the caller can replay them over the new transport in order.
func (s *Session) Resume(sender Sender) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender = sender
	s.paused = false
	queued := s.queue
	s.queue = nil
	return queued
}

// Send writes data to the live transport, or queues it (bounded,
// drop-oldest) if the session is currently paused.
func (s *Session) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused || s.sender == nil {
		if len(s.queue) >= s.maxQueueSize {
			s.queue = s.queue[1:]
		}
		// Copy: callers often reuse the buffer that produced data.
		cp := make([]byte, len(data))
		copy(cp, data)
		s.queue = append(s.queue, cp)
		return nil
	}
	return s.sender.Send(data)
}

// SendJSON marshals v and sends it, matching Session::send_message.
func (s *Session) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: marshal message: %w", err)
	}
	return s.Send(data)
}

// AddFrameStats accumulates per-tick frame counters a speak loop reports,
// so a session's Stats payload reflects players that have since been
// destroyed as well as those still live.
func (s *Session) AddFrameStats(sent, nulled uint64) {
	s.mu.Lock()
	s.framesSent += sent
	s.framesNulled += nulled
	s.mu.Unlock()
}

// FrameStats returns the session's historical sent/nulled frame totals.
func (s *Session) FrameStats() (sent, nulled uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.framesSent, s.framesNulled
}

// Shutdown tears down every player this session owns. Idempotent.
func (s *Session) Shutdown() {
	if s.Players != nil {
		s.Players.DestroyAll()
	}
}
