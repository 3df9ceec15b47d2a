// Package rest implements the Lavalink v4 REST API: node info/stats,
// track loading/decoding, and per-session player CRUD.
package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aurelink/aurelink/internal/player"
	"github.com/aurelink/aurelink/internal/session"
	"github.com/aurelink/aurelink/internal/voicelink"
	"github.com/aurelink/aurelink/pkg/routeplanner"
	"github.com/aurelink/aurelink/pkg/source"
)

// nodeVersion is the Lavalink-protocol version string this node reports
// from /v4/version and the version block of /v4/info.
const nodeVersion = "4.0.0-aurelink"

// Config configures a [Handler].
type Config struct {
	Password     string
	Sessions     *session.Registry
	Sources      *source.Registry
	Planner      routeplanner.Planner
	PlayerConfig player.Config
	VoiceLinks   *voicelink.Registry
	StartedAt    time.Time
}

// Handler serves the /v4 REST surface.
type Handler struct {
	cfg Config
}

// NewHandler builds a Handler from cfg.
func NewHandler(cfg Config) *Handler {
	return &Handler{cfg: cfg}
}

// Routes assembles the chi router mounted at /v4.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.authenticate)

	r.Get("/info", h.getInfo)
	r.Get("/stats", h.getStats)
	r.Get("/version", h.getVersion)

	r.Get("/loadtracks", h.loadTracks)
	r.Get("/loadsearch", h.loadSearch)
	r.Get("/decodetrack", h.decodeTrack)
	r.Post("/decodetracks", h.decodeTracks)

	r.Get("/sessions/{sessionId}/players", h.listPlayers)
	r.Get("/sessions/{sessionId}/players/{guildId}", h.getPlayer)
	r.Patch("/sessions/{sessionId}/players/{guildId}", h.patchPlayer)
	r.Delete("/sessions/{sessionId}/players/{guildId}", h.deletePlayer)
	r.Patch("/sessions/{sessionId}", h.patchSession)

	r.Get("/routeplanner/status", h.routePlannerStatus)
	r.Post("/routeplanner/free/address", h.routePlannerFreeAddress)
	r.Post("/routeplanner/free/all", h.routePlannerFreeAll)

	return r
}

// authenticate rejects any /v4 request whose Authorization header
// doesn't match the configured server password.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.Password != "" && r.Header.Get("Authorization") != h.cfg.Password {
			writeError(w, r, http.StatusUnauthorized, "invalid or missing Authorization header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// apiError is the Lavalink v4 error body shape.
type apiError struct {
	Timestamp int64  `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
	Trace     string `json:"trace,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, apiError{
		Timestamp: time.Now().UnixMilli(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
	})
}

func (h *Handler) sessionOrErr(w http.ResponseWriter, r *http.Request, sessionID string) (*session.Session, bool) {
	sess, ok := h.cfg.Sessions.Get(sessionID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown session: "+sessionID)
		return nil, false
	}
	return sess, true
}
