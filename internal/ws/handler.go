// Package ws implements the Lavalink v4 WebSocket surface: the
// /v4/websocket upgrade, password auth, session creation/resume, and
// dispatch of incoming ops (voiceUpdate, play, stop, destroy) onto the
// player/voicelink layers.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/aurelink/aurelink/internal/player"
	"github.com/aurelink/aurelink/internal/session"
	"github.com/aurelink/aurelink/internal/voicelink"
	"github.com/aurelink/aurelink/pkg/lyrics"
	"github.com/aurelink/aurelink/pkg/routeplanner"
	"github.com/aurelink/aurelink/pkg/source"
)

// Config configures a [Handler].
type Config struct {
	Password     string
	Sessions     *session.Registry
	Sources      *source.Registry
	Planner      routeplanner.Planner
	LyricsMgr    *lyrics.Manager
	PlayerConfig player.Config
	VoiceLinks   *voicelink.Registry
	StartedAt    time.Time
}

// Handler serves /v4/websocket upgrades.
type Handler struct {
	cfg Config
}

// NewHandler builds a Handler from cfg.
func NewHandler(cfg Config) *Handler {
	return &Handler{cfg: cfg}
}

// wsSender adapts a *websocket.Conn to session.Sender.
type wsSender struct {
	ws *websocket.Conn
}

func (c wsSender) Send(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.ws.Write(ctx, websocket.MessageText, data)
}

type readyMessage struct {
	Op        string `json:"op"`
	Resumed   bool   `json:"resumed"`
	SessionID string `json:"sessionId"`
}

// ServeHTTP upgrades the connection, authenticates it against the
// configured password, resumes or mints a session, and dispatches
// incoming frames until the socket closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Password != "" && r.Header.Get("Authorization") != h.cfg.Password {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID := r.Header.Get("User-Id")
	resumeID := r.Header.Get("Session-Id")

	wsConn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("ws: accept failed", "error", err)
		return
	}
	defer wsConn.Close(websocket.StatusNormalClosure, "")

	sender := wsSender{ws: wsConn}

	var sess *session.Session
	var resumed bool
	if resumeID != "" {
		if s, queued, ok := h.cfg.Sessions.Resume(resumeID, sender); ok {
			sess = s
			resumed = true
			for _, frame := range queued {
				if err := sender.Send(frame); err != nil {
					slog.Warn("ws: replay queued frame failed", "session", sess.ID(), "error", err)
					break
				}
			}
		}
	}

	if sess == nil {
		sink := newSink()
		players := player.NewManager(sink, h.cfg.LyricsMgr, h.cfg.PlayerConfig)
		sess = h.cfg.Sessions.NewSession(userID, sender, players)
		sink.attach(sess)
	} else {
		for _, p := range sess.Players.All() {
			sess.SendJSON(playerUpdateMessage{Op: "playerUpdate", GuildID: p.GuildID(), State: p.ToResponse().State})
		}
	}

	vlink := h.cfg.VoiceLinks.Manager(sess)

	if err := sender.Send(mustJSON(readyMessage{Op: "ready", Resumed: resumed, SessionID: sess.ID()})); err != nil {
		slog.Warn("ws: send ready failed", "session", sess.ID(), "error", err)
	}

	d := dispatcher{
		sources: h.cfg.Sources,
		planner: h.cfg.Planner,
		sess:    sess,
		vlink:   vlink,
		userID:  userID,
	}

	ctx := r.Context()
	for {
		_, data, err := wsConn.Read(ctx)
		if err != nil {
			break
		}
		d.dispatch(ctx, data)
	}

	h.cfg.Sessions.Detach(sess.ID())
	if !sess.Resumable() {
		h.cfg.VoiceLinks.Drop(sess.ID())
	}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("ws: marshal %T: %v", v, err))
	}
	return b
}
