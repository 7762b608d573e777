package catalog

import "time"

// Library is one configured media root, reconciled from config on each scan.
type Library struct {
	ID     int64  `json:"id"`
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	Hidden bool   `json:"hidden"`
	Sync   bool   `json:"sync"`
	Type   string `json:"type"`
}

// Folder is one directory discovered under a library root. Folders form a
// tree through ParentID; root-level folders have a nil parent. The tree is
// an id-keyed arena, never pointer-linked.
type Folder struct {
	ID        int64  `json:"id"`
	LibraryID int64  `json:"libraryId"`
	ParentID  *int64 `json:"parentId,omitempty"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Poster    string `json:"poster,omitempty"`
}

// MediaItem is one recognized asset file. FilePath is the natural key used
// for reconciliation against the filesystem.
type MediaItem struct {
	ID           int64    `json:"id"`
	LibraryID    int64    `json:"libraryId"`
	FolderID     *int64   `json:"folderId,omitempty"`
	FilePath     string   `json:"filePath"`
	Title        string   `json:"title"`
	Ext          string   `json:"ext"`
	IsVideo      bool     `json:"isVideo"`
	Width        int      `json:"width,omitempty"`
	Height       int      `json:"height,omitempty"`
	Size         int64    `json:"size"`
	Year         int      `json:"year,omitempty"`
	Synopsis     string   `json:"synopsis,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Poster       string   `json:"poster,omitempty"`
	Backdrop     string   `json:"backdrop,omitempty"`
	ProviderID   string   `json:"providerId,omitempty"`
	CollectionID *int64   `json:"collectionId,omitempty"`
}

// Collection is a provider-defined grouping of media items (a film series).
type Collection struct {
	ID         int64  `json:"id"`
	ProviderID string `json:"providerId"`
	Name       string `json:"name"`
}

// PlaybackProgress records the last playback position for an item.
type PlaybackProgress struct {
	MediaItemID int64     `json:"mediaItemId"`
	Position    float64   `json:"position"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SubtitleItem is one subtitle track for a media item. Ordinal is assigned
// as max(existing)+1 within (item, language).
type SubtitleItem struct {
	ID          int64  `json:"id"`
	MediaItemID int64  `json:"mediaItemId"`
	Language    string `json:"language"`
	Ordinal     int    `json:"ordinal"`
	Path        string `json:"path"`
}

// Enrichment carries the provider-supplied fields applied to a media item
// after a successful metadata lookup.
type Enrichment struct {
	Title        string
	Synopsis     string
	Genres       []string
	ProviderID   string
	CollectionID *int64
	Poster       string
	Backdrop     string
}

// ItemRef is a lightweight (id, path) pair used during stale-entry pruning.
type ItemRef struct {
	ID       int64
	FilePath string
}

// Stats summarizes the catalog contents after a scan.
type Stats struct {
	TotalLibraries int       `json:"totalLibraries"`
	TotalFolders   int       `json:"totalFolders"`
	TotalItems     int       `json:"totalItems"`
	TotalVideos    int       `json:"totalVideos"`
	TotalImages    int       `json:"totalImages"`
	LastScan       time.Time `json:"lastScan"`
	ScanDuration   string    `json:"scanDuration"`
}
