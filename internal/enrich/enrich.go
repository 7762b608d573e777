package enrich

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"mediahub/internal/catalog"
	"mediahub/internal/imagecache"
	"mediahub/internal/logging"
	"mediahub/internal/metadata"
	"mediahub/internal/metrics"
)

const defaultQueueSize = 1024

// Pool runs metadata enrichment jobs on a fixed set of workers. Jobs are
// item ids, not snapshots; each worker re-fetches the item when the job
// runs so stale queue entries act on current state.
type Pool struct {
	cat      *catalog.Catalog
	provider *metadata.Client
	images   *imagecache.Store

	jobs chan int64
	wg   sync.WaitGroup
	once sync.Once
}

// NewPool creates an enrichment pool. Call Start before enqueueing.
func NewPool(cat *catalog.Catalog, provider *metadata.Client, images *imagecache.Store) *Pool {
	return &Pool{
		cat:      cat,
		provider: provider,
		images:   images,
		jobs:     make(chan int64, defaultQueueSize),
	}
}

// Start launches the worker goroutines. Workers exit when ctx is canceled
// or Stop is called.
func (p *Pool) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	logging.Info("Enrichment pool: %d workers", workers)

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.once.Do(func() { close(p.jobs) })
	p.wg.Wait()
}

// Enqueue schedules an enrichment job without blocking. When the queue is
// full the job is dropped; the item stays eligible and the next scan will
// re-schedule it.
func (p *Pool) Enqueue(itemID int64) {
	select {
	case p.jobs <- itemID:
		metrics.EnrichQueueDepth.Set(float64(len(p.jobs)))
	default:
		metrics.EnrichQueueDropped.Inc()
		logging.Debug("Enrichment queue full, dropping item %d", itemID)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case itemID, ok := <-p.jobs:
			if !ok {
				return
			}
			metrics.EnrichQueueDepth.Set(float64(len(p.jobs)))

			start := time.Now()
			status := p.enrich(ctx, itemID)
			metrics.EnrichJobsTotal.WithLabelValues(status).Inc()
			metrics.EnrichJobDuration.Observe(time.Since(start).Seconds())
		}
	}
}

// enrich runs one job to completion. Nothing here raises past the job
// boundary: every failure leaves the item untouched and retryable, and
// only the returned status distinguishes the outcomes.
func (p *Pool) enrich(ctx context.Context, itemID int64) string {
	item, err := p.cat.MediaItemByID(ctx, itemID)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			logging.Warn("Enrichment lookup failed for item %d: %v", itemID, err)
		}
		return "skipped"
	}

	// A populated poster is the completion signal; duplicate scheduling
	// across scans lands here.
	if item.Poster != "" {
		return "skipped"
	}

	match, err := p.provider.Lookup(ctx, item.Title, item.Year)
	if errors.Is(err, metadata.ErrNoMatch) {
		logging.Debug("No metadata match for item %d (%q)", itemID, item.Title)
		return "no_match"
	}
	if err != nil {
		logging.Warn("Metadata lookup failed for item %d: %v", itemID, err)
		return "error"
	}

	e := catalog.Enrichment{
		Title:      match.Title,
		Synopsis:   match.Synopsis,
		Genres:     match.Genres,
		ProviderID: match.ProviderID,
	}

	if match.CollectionID != "" {
		collectionID, err := p.cat.GetOrCreateCollection(ctx, match.CollectionID, match.CollectionName)
		if err != nil {
			logging.Warn("Collection link failed for item %d: %v", itemID, err)
			return "error"
		}
		e.CollectionID = &collectionID
	}

	// Artwork keys derive from the source file, so a file replaced in
	// place gets fresh downloads while re-runs reuse the cache.
	info, err := os.Stat(item.FilePath)
	if err != nil {
		logging.Warn("Source file vanished during enrichment of item %d: %v", itemID, err)
		return "error"
	}
	mtime := fmt.Sprintf("%d", info.ModTime().UnixNano())

	if match.PosterURL != "" {
		key := imagecache.Key(item.FilePath, mtime, "poster")
		if err := p.images.Download(ctx, match.PosterURL, key); err != nil {
			logging.Warn("Poster download failed for item %d: %v", itemID, err)
			return "error"
		}
		e.Poster = key
	}

	if match.BackdropURL != "" {
		key := imagecache.Key(item.FilePath, mtime, "backdrop")
		if err := p.images.Download(ctx, match.BackdropURL, key); err != nil {
			logging.Warn("Backdrop download failed for item %d: %v", itemID, err)
			return "error"
		}
		e.Backdrop = key
	}

	if err := p.cat.ApplyEnrichment(ctx, itemID, e); err != nil {
		logging.Warn("Failed to apply enrichment for item %d: %v", itemID, err)
		return "error"
	}

	logging.Debug("Enriched item %d: %q (%s)", itemID, e.Title, e.ProviderID)
	return "enriched"
}
