package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediahub/internal/catalog"
	"mediahub/internal/config"
	"mediahub/internal/logging"
	"mediahub/internal/media"
	"mediahub/internal/mediatypes"
	"mediahub/internal/metrics"
)

// Scheduler receives enrichment work discovered during a scan.
type Scheduler interface {
	Enqueue(itemID int64)
}

// Result summarizes one reconciliation pass.
type Result struct {
	Files     int
	Folders   int
	Pruned    int
	Scheduled int
	Duration  time.Duration
}

// Scanner reconciles the catalog against the configured library roots.
// It owns the catalog write path; queries and streaming only read.
type Scanner struct {
	cfg       *config.Config
	cat       *catalog.Catalog
	scheduler Scheduler
}

// New creates a scanner. scheduler may be nil to disable enrichment.
func New(cfg *config.Config, cat *catalog.Catalog, scheduler Scheduler) *Scanner {
	return &Scanner{cfg: cfg, cat: cat, scheduler: scheduler}
}

// Reconcile runs one full pass: reload config, reconcile libraries, prune
// stale entries, walk each library tree, then schedule enrichment. Callers
// must serialize invocations; the coordinator guarantees that.
func (s *Scanner) Reconcile(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}

	// The config file is re-read on every pass so library changes take
	// effect without a restart.
	file, err := s.cfg.LoadFile()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	libs, err := s.reconcileLibraries(ctx, file.Libraries)
	if err != nil {
		return nil, fmt.Errorf("library reconciliation failed: %w", err)
	}

	// Prune before walking so a moved file is delete+create, not update.
	pruned, err := s.pruneStaleEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("stale-entry pruning failed: %w", err)
	}
	result.Pruned = pruned

	for _, lib := range libs {
		if err := s.walkLibrary(ctx, lib, result); err != nil {
			// An unreadable root skips the library for this pass only.
			logging.Warn("Skipping library %q: %v", lib.Name, err)
			metrics.ScanErrors.Inc()
		}
	}

	result.Scheduled = s.scheduleEnrichment(ctx, libs)
	result.Duration = time.Since(start)

	s.refreshStats(ctx, start, result.Duration)

	logging.Info("Scan complete: %d files, %d folders, %d pruned, %d enrichments scheduled in %v",
		result.Files, result.Folders, result.Pruned, result.Scheduled, result.Duration)

	return result, nil
}

// reconcileLibraries upserts every configured library and deletes rows for
// libraries no longer in the config.
func (s *Scanner) reconcileLibraries(ctx context.Context, configured []config.Library) ([]catalog.Library, error) {
	libs := make([]catalog.Library, 0, len(configured))
	keep := make([]string, 0, len(configured))

	for _, c := range configured {
		lib := catalog.Library{
			Slug:   mediatypes.Slugify(c.Name),
			Name:   c.Name,
			Path:   c.Path,
			Hidden: c.Hidden,
			Sync:   c.Sync,
			Type:   string(c.Type),
		}
		if err := s.cat.UpsertLibrary(ctx, &lib); err != nil {
			return nil, err
		}
		libs = append(libs, lib)
		keep = append(keep, lib.Slug)
	}

	removed, err := s.cat.DeleteLibrariesExcept(ctx, keep)
	if err != nil {
		return nil, err
	}
	if removed > 0 {
		logging.Info("Removed %d libraries no longer configured", removed)
	}

	return libs, nil
}

// pruneStaleEntries deletes catalog rows whose backing path is gone.
func (s *Scanner) pruneStaleEntries(ctx context.Context) (int, error) {
	refs, err := s.cat.AllItemRefs(ctx)
	if err != nil {
		return 0, err
	}

	var staleItems []int64
	for _, ref := range refs {
		if _, err := os.Stat(ref.FilePath); os.IsNotExist(err) {
			staleItems = append(staleItems, ref.ID)
		}
	}
	if err := s.cat.DeleteMediaItems(ctx, staleItems); err != nil {
		return 0, err
	}

	folders, err := s.cat.AllFolders(ctx)
	if err != nil {
		return 0, err
	}

	var staleFolders []int64
	for _, f := range folders {
		if info, err := os.Stat(f.Path); os.IsNotExist(err) || (err == nil && !info.IsDir()) {
			staleFolders = append(staleFolders, f.ID)
		}
	}
	if err := s.cat.DeleteFolders(ctx, staleFolders); err != nil {
		return 0, err
	}

	pruned := len(staleItems) + len(staleFolders)
	if pruned > 0 {
		metrics.ScanItemsPruned.Add(float64(pruned))
		logging.Info("Pruned %d stale catalog entries", pruned)
	}
	return pruned, nil
}

// walkLibrary walks one library root depth-first, upserting folders and
// creating items for newly discovered files.
func (s *Scanner) walkLibrary(ctx context.Context, lib catalog.Library, result *Result) error {
	info, err := os.Stat(lib.Path)
	if err != nil {
		return fmt.Errorf("root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root is not a directory: %s", lib.Path)
	}

	logging.Debug("Walking library %q at %s", lib.Name, lib.Path)

	// The library root itself has no folder record; its entries hang off
	// a nil parent.
	_, err = s.walkDir(ctx, lib, lib.Path, nil, result)
	return err
}

// walkDir processes one directory's entries in name order and returns the
// first image encountered in the subtree, the folder-poster heuristic.
func (s *Scanner) walkDir(ctx context.Context, lib catalog.Library, dir string, parentID *int64, result *Result) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn("Error reading directory %s: %v", dir, err)
		return "", nil
	}

	firstImage := ""

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return firstImage, err
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		if entry.IsDir() {
			folder := catalog.Folder{
				LibraryID: lib.ID,
				ParentID:  parentID,
				Name:      name,
				Path:      path,
			}
			if err := s.cat.UpsertFolder(ctx, &folder); err != nil {
				logging.Warn("Failed to upsert folder %s: %v", path, err)
				metrics.ScanErrors.Inc()
				continue
			}
			result.Folders++
			metrics.ScanFoldersProcessed.Inc()

			subImage, err := s.walkDir(ctx, lib, path, &folder.ID, result)
			if err != nil {
				return firstImage, err
			}
			if subImage != "" {
				if err := s.cat.UpdateFolderPoster(ctx, folder.ID, subImage); err != nil {
					logging.Warn("Failed to set folder poster for %s: %v", path, err)
				}
				if firstImage == "" {
					firstImage = subImage
				}
			}
			continue
		}

		fileType := mediatypes.Classify(path)
		if fileType == mediatypes.FileTypeOther {
			continue
		}
		if fileType == mediatypes.FileTypeImage && firstImage == "" {
			firstImage = path
		}

		if err := s.indexFile(ctx, lib, path, parentID, entry, fileType); err != nil {
			logging.Warn("Failed to index %s: %v", path, err)
			metrics.ScanErrors.Inc()
			continue
		}
		result.Files++
		metrics.ScanFilesProcessed.Inc()
	}

	return firstImage, nil
}

// indexFile creates a media item for a newly discovered file. An existing
// item is reused untouched, so first-scan titles stay sticky.
func (s *Scanner) indexFile(ctx context.Context, lib catalog.Library, path string, folderID *int64, entry os.DirEntry, fileType mediatypes.FileType) error {
	_, err := s.cat.MediaItemByPath(ctx, path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return err
	}

	info, err := entry.Info()
	if err != nil {
		return fmt.Errorf("stat failed: %w", err)
	}

	title, year := mediatypes.ParseTitle(entry.Name())

	item := catalog.MediaItem{
		LibraryID: lib.ID,
		FolderID:  folderID,
		FilePath:  path,
		Title:     title,
		Ext:       strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		IsVideo:   fileType == mediatypes.FileTypeVideo,
		Size:      info.Size(),
		Year:      year,
	}

	if fileType == mediatypes.FileTypeImage {
		// Dimension probe fails soft; an unreadable image still indexes.
		if dims, err := media.GetImageDimensions(path); err == nil {
			item.Width = dims.Width
			item.Height = dims.Height
		} else {
			logging.Debug("Dimension probe failed for %s: %v", path, err)
		}
	}

	return s.cat.InsertMediaItem(ctx, &item)
}

// scheduleEnrichment enqueues one job per poster-less video in each
// sync-enabled library. Fire-and-forget; the job itself is idempotent.
func (s *Scanner) scheduleEnrichment(ctx context.Context, libs []catalog.Library) int {
	if s.scheduler == nil {
		return 0
	}

	scheduled := 0
	for _, lib := range libs {
		if !lib.Sync {
			continue
		}
		ids, err := s.cat.ItemsMissingPoster(ctx, lib.ID)
		if err != nil {
			logging.Warn("Failed to list enrichment candidates for %q: %v", lib.Name, err)
			continue
		}
		for _, id := range ids {
			s.scheduler.Enqueue(id)
			scheduled++
		}
	}
	return scheduled
}

func (s *Scanner) refreshStats(ctx context.Context, start time.Time, duration time.Duration) {
	stats, err := s.cat.CalculateStats(ctx)
	if err != nil {
		logging.Warn("Failed to calculate catalog stats: %v", err)
		return
	}
	stats.LastScan = start
	stats.ScanDuration = duration.Round(time.Millisecond).String()
	s.cat.UpdateStats(stats)

	metrics.CatalogLibrariesTotal.Set(float64(stats.TotalLibraries))
	metrics.CatalogFoldersTotal.Set(float64(stats.TotalFolders))
	metrics.CatalogItemsTotal.WithLabelValues("video").Set(float64(stats.TotalVideos))
	metrics.CatalogItemsTotal.WithLabelValues("image").Set(float64(stats.TotalImages))
}
