package handlers

import (
	"errors"
	"net/http"

	"mediahub/internal/catalog"
	"mediahub/internal/logging"
	"mediahub/internal/media"
	"mediahub/internal/streaming"
)

// itemFromPathQuery resolves the path query parameter to a catalog item.
// Only cataloged paths are served, so the endpoints cannot read arbitrary
// files.
func (h *Handlers) itemFromPathQuery(w http.ResponseWriter, r *http.Request) (*catalog.MediaItem, bool) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "missing path", http.StatusBadRequest)
		return nil, false
	}

	item, err := h.cat.MediaItemByPath(r.Context(), path)
	if errors.Is(err, catalog.ErrNotFound) {
		writeJSONError(w, "file not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		logging.Error("Failed to resolve media path %q: %v", path, err)
		writeJSONError(w, "failed to resolve path", http.StatusInternalServerError)
		return nil, false
	}

	return item, true
}

// StreamMedia serves a cataloged file with byte-range support.
func (h *Handlers) StreamMedia(w http.ResponseWriter, r *http.Request) {
	item, ok := h.itemFromPathQuery(w, r)
	if !ok {
		return
	}

	streaming.Serve(w, r, item.FilePath)
}

// GetPreview serves a display preview: the file itself for images, an
// extracted frame for videos.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	item, ok := h.itemFromPathQuery(w, r)
	if !ok {
		return
	}

	previewPath, err := h.previews.Preview(item.FilePath, item.IsVideo)
	if errors.Is(err, media.ErrUnavailable) {
		writeJSONError(w, "preview not available", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("Preview failed for %s: %v", item.FilePath, err)
		writeJSONError(w, "preview failed", http.StatusInternalServerError)
		return
	}

	http.ServeFile(w, r, previewPath)
}
