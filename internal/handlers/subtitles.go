package handlers

import (
	"net/http"

	"mediahub/internal/catalog"
	"mediahub/internal/logging"
)

// GetSubtitles returns an item's subtitle tracks, fetching them from the
// provider on first request. Items with no provider id or no available
// subtitles return an empty list.
func (h *Handlers) GetSubtitles(w http.ResponseWriter, r *http.Request) {
	item, ok := h.itemFromRequest(w, r)
	if !ok {
		return
	}

	subs, err := h.subs.GetOrFetch(r.Context(), item)
	if err != nil {
		logging.Error("Subtitle fetch failed for item %d: %v", item.ID, err)
		writeJSONError(w, "subtitle fetch failed", http.StatusInternalServerError)
		return
	}
	if subs == nil {
		subs = []catalog.SubtitleItem{}
	}
	writeJSON(w, subs)
}
