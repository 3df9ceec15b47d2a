// Package voicelink wires a player's negotiated voice state to a live
// Discord voice gateway connection: dialing on voiceUpdate, keeping the
// connection alive across drops via internal/session's Reconnector,
// driving the 20ms speak loop off the player, and reporting connection
// state back onto the player/session so REST and WS clients see it.
package voicelink

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aurelink/aurelink/internal/player"
	"github.com/aurelink/aurelink/internal/session"
	"github.com/aurelink/aurelink/pkg/voice"
)

// link is one guild's live voice connection: the gateway, the
// reconnector watching it, and the speak loop feeding it frames from the
// player.
type link struct {
	recon  *session.Reconnector
	cancel context.CancelFunc
}

// Manager owns every guild's voice link for one session. Safe for
// concurrent use.
type Manager struct {
	onClosed func(guildID string, code int, reason string, byRemote bool)

	mu    sync.Mutex
	links map[string]*link
}

// New creates an empty Manager. onClosed is invoked whenever a guild's
// voice connection gives up reconnecting, so the caller can emit a
// WebSocketClosed event to its client.
func New(onClosed func(guildID string, code int, reason string, byRemote bool)) *Manager {
	return &Manager{onClosed: onClosed, links: make(map[string]*link)}
}

// Update applies a voiceUpdate: if the player's voice state actually
// changed (new token/endpoint/session id), any existing connection for
// this guild is torn down and a fresh one dialed.
func (m *Manager) Update(ctx context.Context, p *player.Player, sess *session.Session, userID string, vs player.VoiceState) error {
	if !p.SetVoiceState(vs) {
		return nil
	}
	guildID := p.GuildID()
	m.Close(guildID)

	uid, _ := strconv.ParseUint(userID, 10, 64)

	dial := func(dctx context.Context) (*voice.Gateway, error) {
		gw := voice.New(voice.ServerUpdate{
			Token:     vs.Token,
			Endpoint:  vs.Endpoint,
			GuildID:   guildID,
			UserID:    userID,
			SessionID: vs.SessionID,
		}, uid, 0)
		if err := gw.Connect(dctx); err != nil {
			return nil, fmt.Errorf("voicelink: connect guild %s: %w", guildID, err)
		}
		return gw, nil
	}

	recon := session.NewReconnector(session.ReconnectorConfig{
		Dial:       dial,
		MaxRetries: 5,
		OnReconnect: func(gw *voice.Gateway) {
			p.SetConnected(true)
		},
		OnGiveUp: func() {
			p.SetConnected(false)
			if m.onClosed != nil {
				m.onClosed(guildID, 0, "voice gateway reconnect exhausted", false)
			}
		},
	})

	gw, err := recon.Connect(ctx)
	if err != nil {
		return err
	}
	p.SetConnected(true)

	linkCtx, cancel := context.WithCancel(context.Background())
	recon.Monitor(linkCtx)

	speakLoop := voice.NewSpeakLoop(gw, p, p.Flow.Filters)
	go func() {
		if err := speakLoop.Run(linkCtx); err != nil && linkCtx.Err() == nil {
			slog.Warn("voicelink: speak loop exited", "guild", guildID, "error", err)
		}
	}()
	if sess != nil {
		go reportFrameStats(linkCtx, speakLoop, sess)
	}

	m.mu.Lock()
	m.links[guildID] = &link{recon: recon, cancel: cancel}
	m.mu.Unlock()

	return nil
}

// reportFrameStats periodically folds a speak loop's cumulative sent/
// nulled counters into the owning session's running totals, so a Stats
// heartbeat still reflects a guild's frame history after its player is
// destroyed.
func reportFrameStats(ctx context.Context, loop *voice.SpeakLoop, sess *session.Session) {
	var prevSent, prevNulled uint64
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sent, nulled := loop.FramesSent(), loop.FramesNulled()
			sess.AddFrameStats(sent-prevSent, nulled-prevNulled)
			prevSent, prevNulled = sent, nulled
		}
	}
}

// Close tears down the voice connection for guildID, if any. Safe to call
// when no link exists.
func (m *Manager) Close(guildID string) {
	m.mu.Lock()
	l, ok := m.links[guildID]
	delete(m.links, guildID)
	m.mu.Unlock()
	if !ok {
		return
	}
	l.cancel()
	if err := l.recon.Stop(); err != nil {
		slog.Warn("voicelink: stop reconnector", "guild", guildID, "error", err)
	}
}

// CloseAll tears down every voice connection this manager owns, for
// session shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	guildIDs := make([]string, 0, len(m.links))
	for id := range m.links {
		guildIDs = append(guildIDs, id)
	}
	m.mu.Unlock()
	for _, id := range guildIDs {
		m.Close(id)
	}
}
