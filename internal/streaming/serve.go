package streaming

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"mediahub/internal/logging"
	"mediahub/internal/metrics"
	"mediahub/internal/mediatypes"
)

// Serve writes a file to an HTTP response honoring single-range requests.
// No Range header (or an unsupported multi-range one) sends the whole file
// with status 200; a valid single range sends status 206 with the exact
// span requested. A range outside the file gets 416.
func Serve(w http.ResponseWriter, r *http.Request, filePath string) {
	file, err := os.Open(filePath)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close streamed file %s: %v", filePath, err)
		}
	}()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	size := info.Size()

	byteRange, err := ParseRange(r.Header.Get("Range"), size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Requested range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(filePath))
	w.Header().Set("Accept-Ranges", "bytes")

	var reader io.Reader = file
	var length = size

	if byteRange != nil {
		if _, err := file.Seek(byteRange.Start, io.SeekStart); err != nil {
			http.Error(w, "Failed to seek file", http.StatusInternalServerError)
			return
		}
		length = byteRange.Length()
		reader = io.LimitReader(file, length)

		w.Header().Set("Content-Length", fmt.Sprintf("%d", length))
		w.Header().Set("Content-Range",
			fmt.Sprintf("bytes %d-%d/%d", byteRange.Start, byteRange.End, size))
		w.WriteHeader(http.StatusPartialContent)
		metrics.StreamRequestsTotal.WithLabelValues("range").Inc()
	} else {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		metrics.StreamRequestsTotal.WithLabelValues("full").Inc()
	}

	tw := NewTimeoutWriter(r.Context(), w, DefaultWriterConfig())
	defer func() {
		if err := tw.Close(); err != nil {
			logging.Warn("failed to close timeout writer: %v", err)
		}
	}()

	_, err = io.Copy(tw, reader)

	bytesWritten, duration := tw.Stats()
	metrics.StreamBytesSent.Add(float64(bytesWritten))

	if err != nil && !errors.Is(err, ErrClientGone) {
		logging.Debug("Stream ended early for %s: %v", filePath, err)
		return
	}
	logging.Debug("Streamed %s: %d bytes in %v", filePath, bytesWritten, duration)
}
