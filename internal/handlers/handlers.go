package handlers

import (
	"mediahub/internal/catalog"
	"mediahub/internal/config"
	"mediahub/internal/media"
	"mediahub/internal/scanner"
	"mediahub/internal/subtitles"

	"github.com/gorilla/mux"
)

// Handlers bundles the HTTP surface's dependencies.
type Handlers struct {
	cat         *catalog.Catalog
	coordinator *scanner.Coordinator
	previews    *media.PreviewGenerator
	subs        *subtitles.Manager
	cfg         *config.Config
}

// New creates the handler set.
func New(cat *catalog.Catalog, coordinator *scanner.Coordinator, previews *media.PreviewGenerator, subs *subtitles.Manager, cfg *config.Config) *Handlers {
	return &Handlers{
		cat:         cat,
		coordinator: coordinator,
		previews:    previews,
		subs:        subs,
		cfg:         cfg,
	}
}

// RegisterRoutes attaches every route to the router.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/libraries", h.ListLibraries).Methods("GET")
	api.HandleFunc("/library/{slug}", h.GetLibrary).Methods("GET")
	api.HandleFunc("/library/{slug}/folders", h.GetFolders).Methods("GET")
	api.HandleFunc("/library/{slug}/images", h.GetImageItems).Methods("GET")
	api.HandleFunc("/item/{id:[0-9]+}", h.GetItem).Methods("GET")
	api.HandleFunc("/item/{id:[0-9]+}/subtitles", h.GetSubtitles).Methods("GET")
	api.HandleFunc("/item/{id:[0-9]+}/progress", h.GetProgress).Methods("GET")
	api.HandleFunc("/item/{id:[0-9]+}/progress", h.SaveProgress).Methods("POST")
	api.HandleFunc("/search", h.Search).Methods("GET")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/refresh", h.TriggerRefresh).Methods("POST")

	mediaRoutes := r.PathPrefix("/media").Subrouter()
	mediaRoutes.HandleFunc("/stream", h.StreamMedia).Methods("GET")
	mediaRoutes.HandleFunc("/preview", h.GetPreview).Methods("GET")
}
