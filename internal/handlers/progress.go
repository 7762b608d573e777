package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mediahub/internal/catalog"
	"mediahub/internal/logging"
)

// GetProgress returns the stored playback position for an item. Items
// never played report position zero.
func (h *Handlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	item, ok := h.itemFromRequest(w, r)
	if !ok {
		return
	}

	progress, err := h.cat.PlaybackProgressFor(r.Context(), item.ID)
	if errors.Is(err, catalog.ErrNotFound) {
		writeJSON(w, catalog.PlaybackProgress{MediaItemID: item.ID})
		return
	}
	if err != nil {
		logging.Error("Failed to load progress for item %d: %v", item.ID, err)
		writeJSONError(w, "failed to load progress", http.StatusInternalServerError)
		return
	}

	writeJSON(w, progress)
}

// SaveProgress records a playback position, last write wins.
func (h *Handlers) SaveProgress(w http.ResponseWriter, r *http.Request) {
	item, ok := h.itemFromRequest(w, r)
	if !ok {
		return
	}

	var body struct {
		Position float64 `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Position < 0 {
		writeJSONError(w, "position must be non-negative", http.StatusBadRequest)
		return
	}

	if err := h.cat.SavePlaybackProgress(r.Context(), item.ID, body.Position); err != nil {
		logging.Error("Failed to save progress for item %d: %v", item.ID, err)
		writeJSONError(w, "failed to save progress", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "saved")
}
