package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aurelink/aurelink/internal/player"
	"github.com/aurelink/aurelink/internal/wire"
)

func secondsToDuration(secs int64) time.Duration {
	return time.Duration(secs) * time.Second
}

func (h *Handler) listPlayers(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOrErr(w, r, chi.URLParam(r, "sessionId"))
	if !ok {
		return
	}
	players := sess.Players.All()
	out := make([]player.Response, 0, len(players))
	for _, p := range players {
		out = append(out, p.ToResponse())
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getPlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOrErr(w, r, chi.URLParam(r, "sessionId"))
	if !ok {
		return
	}
	guildID := chi.URLParam(r, "guildId")
	p := sess.Players.Get(guildID)
	if p == nil {
		writeError(w, r, http.StatusNotFound, "no player for guild "+guildID)
		return
	}
	writeJSON(w, http.StatusOK, p.ToResponse())
}

// patchPlayerBody is the UpdatePlayer request body: every field is
// optional, matching Lavalink v4's partial-update semantics.
type patchPlayerBody struct {
	Track *struct {
		Encoded  *string        `json:"encoded"`
		UserData map[string]any `json:"userData"`
	} `json:"track"`
	Position *int64         `json:"position"`
	EndTime  *int64         `json:"endTime"`
	Volume   *int           `json:"volume"`
	Paused   *bool          `json:"paused"`
	Filters  map[string]any `json:"filters"`
	Voice    *struct {
		Token     string `json:"token"`
		Endpoint  string `json:"endpoint"`
		SessionID string `json:"sessionId"`
	} `json:"voice"`
}

func (h *Handler) patchPlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOrErr(w, r, chi.URLParam(r, "sessionId"))
	if !ok {
		return
	}
	guildID := chi.URLParam(r, "guildId")

	var body patchPlayerBody
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
	}

	p := sess.Players.GetOrCreate(guildID)

	if body.Voice != nil {
		vlink := h.cfg.VoiceLinks.Manager(sess)
		vs := player.VoiceState{Token: body.Voice.Token, Endpoint: body.Voice.Endpoint, SessionID: body.Voice.SessionID}
		if err := vlink.Update(r.Context(), p, sess, sess.UserID(), vs); err != nil {
			writeError(w, r, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if body.Volume != nil {
		p.SetVolume(*body.Volume)
	}
	if body.EndTime != nil {
		p.SetEndTime(body.EndTime)
	}
	if body.Filters != nil {
		p.SetFilters(body.Filters)
		if err := wire.ApplyFilters(p.Flow.Filters, body.Filters); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid filters: "+err.Error())
			return
		}
	}
	if body.Track != nil && body.Track.Encoded != nil {
		if err := p.StartPlayback(r.Context(), h.cfg.Sources, h.cfg.Planner, *body.Track.Encoded, body.Track.UserData, body.EndTime); err != nil {
			writeError(w, r, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if body.Position != nil {
		if err := p.Seek(uint64(*body.Position)); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	if body.Paused != nil {
		p.SetPaused(*body.Paused)
	}

	writeJSON(w, http.StatusOK, p.ToResponse())
}

func (h *Handler) deletePlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOrErr(w, r, chi.URLParam(r, "sessionId"))
	if !ok {
		return
	}
	guildID := chi.URLParam(r, "guildId")
	sess.Players.Destroy(guildID)
	h.cfg.VoiceLinks.Manager(sess).Close(guildID)
	w.WriteHeader(http.StatusNoContent)
}

type patchSessionBody struct {
	Resuming *bool  `json:"resuming"`
	Timeout  *int64 `json:"timeout"`
}

func (h *Handler) patchSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionOrErr(w, r, chi.URLParam(r, "sessionId"))
	if !ok {
		return
	}
	var body patchSessionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	resuming := sess.Resumable()
	if body.Resuming != nil {
		resuming = *body.Resuming
	}
	var ttl int64
	if body.Timeout != nil {
		ttl = *body.Timeout
	}
	sess.SetResumable(resuming, secondsToDuration(ttl))

	writeJSON(w, http.StatusOK, patchSessionBody{Resuming: &resuming, Timeout: body.Timeout})
}
