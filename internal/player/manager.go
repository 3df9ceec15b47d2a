package player

import (
	"sync"

	"github.com/aurelink/aurelink/pkg/lyrics"
)

// Manager owns the set of players active in one session, keyed by guild
// ID, matching the Session's `mapping guild-id -> player` ownership.
type Manager struct {
	sink      EventSink
	lyricsMgr *lyrics.Manager
	cfg       Config

	mu      sync.Mutex
	players map[string]*Player
}

// NewManager builds an empty Manager. sink is shared by every player
// this manager creates.
func NewManager(sink EventSink, lyricsMgr *lyrics.Manager, cfg Config) *Manager {
	return &Manager{
		sink:      sink,
		lyricsMgr: lyricsMgr,
		cfg:       cfg,
		players:   make(map[string]*Player),
	}
}

// GetOrCreate returns the player for guildID, creating one if absent.
func (m *Manager) GetOrCreate(guildID string) *Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.players[guildID]; ok {
		return p
	}
	p := New(guildID, m.sink, m.lyricsMgr, m.cfg)
	m.players[guildID] = p
	return p
}

// Get returns the player for guildID, or nil if none exists.
func (m *Manager) Get(guildID string) *Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players[guildID]
}

// Destroy tears down and removes the player for guildID. A no-op if no
// player exists for that guild.
func (m *Manager) Destroy(guildID string) {
	m.mu.Lock()
	p, ok := m.players[guildID]
	delete(m.players, guildID)
	m.mu.Unlock()

	if ok {
		p.Destroy()
	}
}

// DestroyAll tears down every player this manager owns, e.g. when its
// owning session is dropped.
func (m *Manager) DestroyAll() {
	m.mu.Lock()
	players := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	m.players = make(map[string]*Player)
	m.mu.Unlock()

	for _, p := range players {
		p.Destroy()
	}
}

// All returns a snapshot of every player this manager owns, for
// resume-replay and REST list endpoints.
func (m *Manager) All() []*Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	players := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	return players
}

// Len reports how many players are currently active.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players)
}

// PlayingCount reports how many players currently have a live, unpaused
// track, matching the `playingPlayers` field of a Lavalink Stats payload.
func (m *Manager) PlayingCount() int {
	m.mu.Lock()
	players := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	m.mu.Unlock()

	n := 0
	for _, p := range players {
		if p.CurrentTrack() != nil && !p.Paused() {
			n++
		}
	}
	return n
}
