package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aurelink/aurelink/pkg/source"
	"github.com/aurelink/aurelink/pkg/track"
)

func (h *Handler) loadTracks(w http.ResponseWriter, r *http.Request) {
	identifier := r.URL.Query().Get("identifier")
	if identifier == "" {
		writeError(w, r, http.StatusBadRequest, "missing identifier")
		return
	}

	result, err := h.cfg.Sources.Load(r.Context(), identifier, h.cfg.Planner)
	if err != nil {
		writeJSON(w, http.StatusOK, track.ErrorResult(track.LoadError{
			Message:  "failed to load track",
			Severity: track.SeverityFault,
			Cause:    err.Error(),
		}))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) loadSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, r, http.StatusBadRequest, "missing query")
		return
	}

	var types []source.SearchType
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			types = append(types, source.SearchType(strings.TrimSpace(t)))
		}
	}

	result, err := h.cfg.Sources.LoadSearch(r.Context(), query, types, h.cfg.Planner)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) decodeTrack(w http.ResponseWriter, r *http.Request) {
	encoded := r.URL.Query().Get("encodedTrack")
	if encoded == "" {
		writeError(w, r, http.StatusBadRequest, "missing encodedTrack")
		return
	}
	t, err := track.Decode(encoded)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) decodeTracks(w http.ResponseWriter, r *http.Request) {
	var encoded []string
	if err := json.NewDecoder(r.Body).Decode(&encoded); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	tracks := make([]track.Track, 0, len(encoded))
	for _, e := range encoded {
		t, err := track.Decode(e)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		tracks = append(tracks, t)
	}
	writeJSON(w, http.StatusOK, tracks)
}
