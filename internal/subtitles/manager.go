package subtitles

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mediahub/internal/catalog"
	"mediahub/internal/logging"
	"mediahub/internal/metrics"
)

// Manager resolves subtitle tracks for catalog items: stored tracks are
// returned as-is, otherwise the provider is queried, the results converted
// to WebVTT and recorded in the catalog. Creation for one (item, language)
// is serialized through a per-key lock so ordinals never collide.
type Manager struct {
	client    *Client
	cat       *catalog.Catalog
	dir       string
	languages string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a manager storing subtitle files under dir.
func NewManager(client *Client, cat *catalog.Catalog, dir, languages string) *Manager {
	if languages == "" {
		languages = "EN"
	}
	return &Manager{
		client:    client,
		cat:       cat,
		dir:       dir,
		languages: languages,
		locks:     make(map[string]*sync.Mutex),
	}
}

// keyLock returns the mutex serializing writes for one (item, language).
func (m *Manager) keyLock(itemID int64, language string) *sync.Mutex {
	key := fmt.Sprintf("%d/%s", itemID, language)

	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}

// GetOrFetch returns the subtitle tracks for an item, fetching them from
// the provider on first request. Items without a provider id, or with no
// subtitles available, return an empty list without error.
func (m *Manager) GetOrFetch(ctx context.Context, item *catalog.MediaItem) ([]catalog.SubtitleItem, error) {
	subs, err := m.cat.SubtitlesForItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if len(subs) > 0 {
		metrics.SubtitleFetchesTotal.WithLabelValues("cached").Inc()
		return subs, nil
	}

	if item.ProviderID == "" {
		return nil, nil
	}

	if err := m.fetch(ctx, item); err != nil {
		if errors.Is(err, ErrNoSubtitles) {
			logging.Debug("No subtitles available for item %d", item.ID)
			return nil, nil
		}
		metrics.SubtitleFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.SubtitleFetchesTotal.WithLabelValues("fetched").Inc()
	return m.cat.SubtitlesForItem(ctx, item.ID)
}

// fetch pulls every offered subtitle for the item, converts and stores it.
// Individual download failures are soft; the fetch succeeds if at least
// one track lands.
func (m *Manager) fetch(ctx context.Context, item *catalog.MediaItem) error {
	descriptors, err := m.client.Search(ctx, item.ProviderID, m.languages)
	if err != nil {
		return err
	}

	stored := 0
	for _, d := range descriptors {
		lang := strings.ToUpper(d.Language)
		if lang == "" {
			lang = "EN"
		}

		if err := m.storeOne(ctx, item, lang, d); err != nil {
			logging.Warn("Failed to store subtitle for item %d (%s): %v", item.ID, lang, err)
			continue
		}
		stored++
	}

	if stored == 0 {
		return ErrNoSubtitles
	}
	return nil
}

func (m *Manager) storeOne(ctx context.Context, item *catalog.MediaItem, lang string, d Descriptor) error {
	srt, err := m.client.Download(ctx, d)
	if err != nil {
		return err
	}

	lock := m.keyLock(item.ID, lang)
	lock.Lock()
	defer lock.Unlock()

	langDir := filepath.Join(m.dir, item.ProviderID, lang)
	if err := os.MkdirAll(langDir, 0o755); err != nil {
		return fmt.Errorf("failed to create subtitle dir: %w", err)
	}

	sub, err := m.cat.CreateSubtitleItem(ctx, item.ID, lang, "")
	if err != nil {
		return err
	}

	path := filepath.Join(langDir, fmt.Sprintf("%s-%d.vtt", lang, sub.Ordinal))
	if err := os.WriteFile(path, []byte(ConvertSRT(srt)), 0o644); err != nil {
		return fmt.Errorf("failed to write subtitle file: %w", err)
	}

	if err := m.cat.UpdateSubtitlePath(ctx, sub.ID, path); err != nil {
		return err
	}

	logging.Debug("Subtitle stored: item %d %s #%d -> %s", item.ID, lang, sub.Ordinal, path)
	return nil
}
