package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"mediahub/internal/catalog"
	"mediahub/internal/logging"

	"github.com/gorilla/mux"
)

// ListLibraries returns the configured libraries. Hidden libraries are
// included only when the X-Hidden-Pin header matches the configured PIN.
func (h *Handlers) ListLibraries(w http.ResponseWriter, r *http.Request) {
	includeHidden := h.hiddenPinMatches(r)

	libs, err := h.cat.Libraries(r.Context(), includeHidden)
	if err != nil {
		logging.Error("Failed to list libraries: %v", err)
		writeJSONError(w, "failed to list libraries", http.StatusInternalServerError)
		return
	}
	if libs == nil {
		libs = []catalog.Library{}
	}
	writeJSON(w, libs)
}

// hiddenPinMatches compares the request's PIN header against the config.
// An unset PIN never unlocks hidden libraries.
func (h *Handlers) hiddenPinMatches(r *http.Request) bool {
	pin := r.Header.Get("X-Hidden-Pin")
	if pin == "" {
		return false
	}

	file, err := h.cfg.LoadFile()
	if err != nil {
		logging.Warn("Failed to load config for PIN check: %v", err)
		return false
	}
	if file.HiddenPIN == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(pin), []byte(file.HiddenPIN)) == 1
}

// LibraryResponse is a library with its items.
type LibraryResponse struct {
	catalog.Library
	Items []catalog.MediaItem `json:"items"`
}

// GetLibrary returns one library and its items ordered by title.
func (h *Handlers) GetLibrary(w http.ResponseWriter, r *http.Request) {
	lib, ok := h.libraryFromRequest(w, r)
	if !ok {
		return
	}

	items, err := h.cat.ItemsByLibrary(r.Context(), lib.ID)
	if err != nil {
		logging.Error("Failed to list items for library %q: %v", lib.Slug, err)
		writeJSONError(w, "failed to list items", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []catalog.MediaItem{}
	}

	writeJSON(w, LibraryResponse{Library: *lib, Items: items})
}

// FolderListing is one level of a library's folder tree.
type FolderListing struct {
	Folders []catalog.Folder    `json:"folders"`
	Items   []catalog.MediaItem `json:"items"`
}

// GetFolders returns the folders and items one level below the given
// parent. Without a parent query parameter it lists the library root.
func (h *Handlers) GetFolders(w http.ResponseWriter, r *http.Request) {
	lib, ok := h.libraryFromRequest(w, r)
	if !ok {
		return
	}

	var parentID *int64
	if parent := r.URL.Query().Get("parent"); parent != "" {
		id, err := strconv.ParseInt(parent, 10, 64)
		if err != nil {
			writeJSONError(w, "invalid parent id", http.StatusBadRequest)
			return
		}
		parentID = &id
	}

	folders, err := h.cat.ChildFolders(r.Context(), lib.ID, parentID)
	if err != nil {
		logging.Error("Failed to list folders for library %q: %v", lib.Slug, err)
		writeJSONError(w, "failed to list folders", http.StatusInternalServerError)
		return
	}

	var items []catalog.MediaItem
	if parentID != nil {
		items, err = h.cat.ItemsByFolder(r.Context(), *parentID)
		if err != nil {
			logging.Error("Failed to list folder items: %v", err)
			writeJSONError(w, "failed to list items", http.StatusInternalServerError)
			return
		}
	}

	listing := FolderListing{Folders: folders, Items: items}
	if listing.Folders == nil {
		listing.Folders = []catalog.Folder{}
	}
	if listing.Items == nil {
		listing.Items = []catalog.MediaItem{}
	}
	writeJSON(w, listing)
}

// GetImageItems returns a library's image items ordered by title, the
// viewer's prev/next navigation source.
func (h *Handlers) GetImageItems(w http.ResponseWriter, r *http.Request) {
	lib, ok := h.libraryFromRequest(w, r)
	if !ok {
		return
	}

	items, err := h.cat.ImageItemsByLibrary(r.Context(), lib.ID)
	if err != nil {
		logging.Error("Failed to list images for library %q: %v", lib.Slug, err)
		writeJSONError(w, "failed to list images", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []catalog.MediaItem{}
	}
	writeJSON(w, items)
}

// libraryFromRequest resolves the {slug} route variable, enforcing the
// hidden PIN for hidden libraries.
func (h *Handlers) libraryFromRequest(w http.ResponseWriter, r *http.Request) (*catalog.Library, bool) {
	slug := mux.Vars(r)["slug"]

	lib, err := h.cat.LibraryBySlug(r.Context(), slug)
	if errors.Is(err, catalog.ErrNotFound) {
		writeJSONError(w, "library not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		logging.Error("Failed to load library %q: %v", slug, err)
		writeJSONError(w, "failed to load library", http.StatusInternalServerError)
		return nil, false
	}

	if lib.Hidden && !h.hiddenPinMatches(r) {
		writeJSONError(w, "library not found", http.StatusNotFound)
		return nil, false
	}

	return lib, true
}
