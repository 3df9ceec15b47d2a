package voicelink

import (
	"sync"

	"github.com/aurelink/aurelink/internal/session"
)

// Registry owns one voicelink.Manager per session ID, shared between the
// WS and REST layers so a guild's Discord voice connection survives a
// client WS disconnect/resume cycle (it has nothing to do with the
// client's transport to this node) and so REST PATCH-player voice
// updates land on the same link a WS voiceUpdate would have.
type Registry struct {
	mu   sync.Mutex
	mgrs map[string]*Manager
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{mgrs: make(map[string]*Manager)}
}

// Manager returns the voice-link manager for sess, creating one on first
// use. The returned Manager surfaces non-resumable voice gateway closes
// as a WebSocketClosed event through sess.
func (r *Registry) Manager(sess *session.Session) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.mgrs[sess.ID()]; ok {
		return m
	}
	m := New(func(guildID string, code int, reason string, byRemote bool) {
		sess.SendJSON(webSocketClosedEvent(guildID, code, reason, byRemote))
	})
	r.mgrs[sess.ID()] = m
	return m
}

// Drop tears down and forgets the voice links for sessionID, for when a
// session is no longer resumable.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	m, ok := r.mgrs[sessionID]
	delete(r.mgrs, sessionID)
	r.mu.Unlock()
	if ok {
		m.CloseAll()
	}
}

func webSocketClosedEvent(guildID string, code int, reason string, byRemote bool) map[string]any {
	return map[string]any{
		"op":       "event",
		"type":     "WebSocketClosed",
		"guildId":  guildID,
		"code":     code,
		"reason":   reason,
		"byRemote": byRemote,
	}
}
