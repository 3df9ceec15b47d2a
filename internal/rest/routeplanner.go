package rest

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/aurelink/aurelink/pkg/routeplanner"
)

func (h *Handler) routePlannerStatus(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Planner == nil {
		writeJSON(w, http.StatusOK, routeplanner.Status{})
		return
	}
	writeJSON(w, http.StatusOK, h.cfg.Planner.Status())
}

type freeAddressBody struct {
	Address string `json:"address"`
}

func (h *Handler) routePlannerFreeAddress(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Planner == nil {
		writeError(w, r, http.StatusNotFound, "route planner disabled")
		return
	}
	var body freeAddressBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	ip := net.ParseIP(body.Address)
	if ip == nil {
		writeError(w, r, http.StatusBadRequest, "invalid address: "+body.Address)
		return
	}
	h.cfg.Planner.FreeAddress(ip)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) routePlannerFreeAll(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Planner == nil {
		writeError(w, r, http.StatusNotFound, "route planner disabled")
		return
	}
	h.cfg.Planner.FreeAllAddresses()
	w.WriteHeader(http.StatusNoContent)
}
