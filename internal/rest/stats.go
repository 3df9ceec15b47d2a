package rest

import "net/http"

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats := h.cfg.Sessions.ComputeStats(h.cfg.StartedAt)
	writeJSON(w, http.StatusOK, stats)
}
