package imagecache

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediahub/internal/logging"
)

const downloadTimeout = 30 * time.Second

// Store is a content-addressed on-disk cache of downloaded images. Keys
// are supplied by the caller, so the same logical asset always lands in
// the same file and re-downloads are no-ops.
type Store struct {
	dir    string
	client *http.Client
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image cache dir: %w", err)
	}
	return &Store{
		dir:    dir,
		client: &http.Client{Timeout: downloadTimeout},
	}, nil
}

// Key hashes the given parts into a stable cache filename. Enrichment
// keys artwork by (source path, mtime, kind) so a file replaced in place
// gets fresh artwork while re-runs against an unchanged file reuse it.
func Key(parts ...string) string {
	return fmt.Sprintf("%x.jpg", sha1.Sum([]byte(strings.Join(parts, "|"))))
}

// Path returns the absolute path a key resolves to inside the store.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key)
}

// Has reports whether a key is already cached.
func (s *Store) Has(key string) bool {
	_, err := os.Stat(s.Path(key))
	return err == nil
}

// Download fetches the image at url into the store under key. Idempotent:
// a key already on disk short-circuits without a fetch. The file lands via
// a temp file and rename, so a crash mid-download never leaves a truncated
// entry behind.
func (s *Store) Download(ctx context.Context, url, key string) error {
	path := s.Path(key)

	if _, err := os.Stat(path); err == nil {
		logging.Debug("Image cache hit: %s", key)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(s.dir, ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize image: %w", err)
	}

	logging.Debug("Image cached: %s -> %s", url, key)
	return nil
}
