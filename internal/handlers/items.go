package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"mediahub/internal/catalog"
	"mediahub/internal/logging"

	"github.com/gorilla/mux"
)

// itemFromRequest resolves the {id} route variable to a catalog item.
func (h *Handlers) itemFromRequest(w http.ResponseWriter, r *http.Request) (*catalog.MediaItem, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSONError(w, "invalid item id", http.StatusBadRequest)
		return nil, false
	}

	item, err := h.cat.MediaItemByID(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeJSONError(w, "item not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		logging.Error("Failed to load item %d: %v", id, err)
		writeJSONError(w, "failed to load item", http.StatusInternalServerError)
		return nil, false
	}

	return item, true
}

// GetItem returns one media item.
func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.itemFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, item)
}

// Search returns items matching the q query parameter.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSONError(w, "missing query", http.StatusBadRequest)
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
	}

	items, err := h.cat.Search(r.Context(), query, limit)
	if err != nil {
		logging.Error("Search failed for %q: %v", query, err)
		writeJSONError(w, "search failed", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []catalog.MediaItem{}
	}
	writeJSON(w, items)
}

// GetStats returns catalog statistics from the last scan.
func (h *Handlers) GetStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.cat.GetStats())
}

// TriggerRefresh starts a catalog scan if none is running.
func (h *Handlers) TriggerRefresh(w http.ResponseWriter, _ *http.Request) {
	if h.coordinator.TriggerScan() {
		writeJSONStatus(w, "started")
		return
	}
	writeJSONStatus(w, "already_running")
}
