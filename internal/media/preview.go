package media

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"mediahub/internal/logging"
	"mediahub/internal/metrics"

	"github.com/disintegration/imaging"
)

// ErrUnavailable is returned when a preview cannot be produced for a file.
var ErrUnavailable = errors.New("preview not available")

const frameTimestamp = "00:00:02"

// PreviewGenerator produces display previews for media files. Images are
// served as-is; videos get a frame extracted with ffmpeg, scaled down and
// cached as JPEG. Cache entries are keyed by a hash of the source path and
// its mtime, so replacing a file at the same path invalidates its preview.
type PreviewGenerator struct {
	cacheDir string
	mu       sync.Mutex
}

// NewPreviewGenerator creates a generator caching under cacheDir.
func NewPreviewGenerator(cacheDir string) *PreviewGenerator {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		logging.Warn("PreviewGenerator: failed to create cache dir: %v", err)
	}
	return &PreviewGenerator{cacheDir: cacheDir}
}

// cacheKey derives the preview filename from the source path and mtime.
func cacheKey(path string, mtime time.Time) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%d", path, mtime.UnixNano())))
	return fmt.Sprintf("%x.jpg", sum)
}

// Preview returns the on-disk path of a preview for the file. For images
// this is the source file itself; for videos it is a cached extracted
// frame. Returns ErrUnavailable when extraction fails; there is no retry,
// the next request attempts extraction again.
func (p *PreviewGenerator) Preview(filePath string, isVideo bool) (string, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return "", fmt.Errorf("file not accessible: %w", err)
	}

	if !isVideo {
		return filePath, nil
	}

	cachePath := filepath.Join(p.cacheDir, cacheKey(filePath, info.ModTime()))
	if _, err := os.Stat(cachePath); err == nil {
		logging.Debug("Preview cache hit: %s", filePath)
		metrics.PreviewCacheHits.Inc()
		return cachePath, nil
	}
	metrics.PreviewCacheMisses.Inc()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another request may have generated it while we waited for the lock.
	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	start := time.Now()
	img, err := extractVideoFrame(filePath)
	if err != nil {
		metrics.PreviewGenerationsTotal.WithLabelValues("video", "error").Inc()
		logging.Debug("Preview extraction failed for %s: %v", filePath, err)
		return "", ErrUnavailable
	}

	thumb := imaging.Fit(img, 640, 640, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		metrics.PreviewGenerationsTotal.WithLabelValues("video", "error").Inc()
		return "", fmt.Errorf("failed to encode preview: %w", err)
	}

	if err := os.WriteFile(cachePath, buf.Bytes(), 0o644); err != nil {
		metrics.PreviewGenerationsTotal.WithLabelValues("video", "error").Inc()
		return "", fmt.Errorf("failed to cache preview: %w", err)
	}

	metrics.PreviewGenerationsTotal.WithLabelValues("video", "success").Inc()
	metrics.PreviewGenerationDuration.WithLabelValues("video").Observe(time.Since(start).Seconds())
	logging.Debug("Preview cached: %s -> %s", filePath, cachePath)
	return cachePath, nil
}

// extractVideoFrame pulls one frame out of a video with ffmpeg. Seeking to
// a fixed timestamp fails on clips shorter than that, so a second attempt
// without the seek covers them.
func extractVideoFrame(filePath string) (image.Image, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	cmd := exec.Command("ffmpeg",
		"-ss", frameTimestamp,
		"-i", filePath,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil || stdout.Len() == 0 {
		logging.Debug("ffmpeg seek attempt failed for %s: %v, stderr: %s", filePath, err, stderr.String())

		cmd = exec.Command("ffmpeg",
			"-i", filePath,
			"-vframes", "1",
			"-f", "image2pipe",
			"-vcodec", "png",
			"-",
		)
		stdout.Reset()
		stderr.Reset()
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
		}
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", filePath)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}
