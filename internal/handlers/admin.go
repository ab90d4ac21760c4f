package handlers

import (
	"net/http"

	"github.com/assoportal/pollengine/internal/services"
)

// handleGetStats returns aggregate statistics for the admin dashboard
func (h *Handlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Results.GetStats(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, stats)
}

// handleGetSettings returns the current settings
func (h *Handlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Settings.AllSettings(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, settings)
}

// handleUpdateSettings applies a partial settings update
func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req services.Settings
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Settings.UpdateSettings(r.Context(), req); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Settings updated")
}
