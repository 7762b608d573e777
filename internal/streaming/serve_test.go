package streaming

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, size int) string {
	t.Helper()

	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}

	path := filepath.Join(t.TempDir(), "movie.mp4")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestServeFullFile(t *testing.T) {
	path := writeTestFile(t, 1000)

	req := httptest.NewRequest(http.MethodGet, "/media/stream", nil)
	w := httptest.NewRecorder()

	Serve(w, req, path)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Expected Accept-Ranges: bytes, got %q", got)
	}
	if got := resp.Header.Get("Content-Length"); got != "1000" {
		t.Errorf("Expected Content-Length 1000, got %q", got)
	}
	if got := resp.Header.Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Expected Content-Type video/mp4, got %q", got)
	}
	if w.Body.Len() != 1000 {
		t.Errorf("Expected 1000 body bytes, got %d", w.Body.Len())
	}
}

func TestServePartialContent(t *testing.T) {
	path := writeTestFile(t, 1000)

	req := httptest.NewRequest(http.MethodGet, "/media/stream", nil)
	req.Header.Set("Range", "bytes=100-199")
	w := httptest.NewRecorder()

	Serve(w, req, path)

	resp := w.Result()
	if resp.StatusCode != http.StatusPartialContent {
		t.Fatalf("Expected status 206, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Range"); got != "bytes 100-199/1000" {
		t.Errorf("Expected Content-Range bytes 100-199/1000, got %q", got)
	}
	if got := resp.Header.Get("Content-Length"); got != "100" {
		t.Errorf("Expected Content-Length 100, got %q", got)
	}

	body := w.Body.Bytes()
	if len(body) != 100 {
		t.Fatalf("Expected 100 body bytes, got %d", len(body))
	}

	want := make([]byte, 100)
	for i := range want {
		want[i] = byte((i + 100) % 251)
	}
	if !bytes.Equal(body, want) {
		t.Error("Body does not match bytes [100,199] of the file")
	}
}

func TestServeOpenEndedRange(t *testing.T) {
	path := writeTestFile(t, 1000)

	req := httptest.NewRequest(http.MethodGet, "/media/stream", nil)
	req.Header.Set("Range", "bytes=900-")
	w := httptest.NewRecorder()

	Serve(w, req, path)

	resp := w.Result()
	if resp.StatusCode != http.StatusPartialContent {
		t.Fatalf("Expected status 206, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Range"); got != "bytes 900-999/1000" {
		t.Errorf("Expected Content-Range bytes 900-999/1000, got %q", got)
	}
	if w.Body.Len() != 100 {
		t.Errorf("Expected 100 body bytes, got %d", w.Body.Len())
	}
}

func TestServeMultiRangeFallsBackToFull(t *testing.T) {
	path := writeTestFile(t, 1000)

	req := httptest.NewRequest(http.MethodGet, "/media/stream", nil)
	req.Header.Set("Range", "bytes=0-99,200-299")
	w := httptest.NewRecorder()

	Serve(w, req, path)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200 for multi-range, got %d", w.Result().StatusCode)
	}
	if w.Body.Len() != 1000 {
		t.Errorf("Expected full 1000-byte body, got %d", w.Body.Len())
	}
}

func TestServeUnsatisfiableRange(t *testing.T) {
	path := writeTestFile(t, 1000)

	req := httptest.NewRequest(http.MethodGet, "/media/stream", nil)
	req.Header.Set("Range", "bytes=5000-")
	w := httptest.NewRecorder()

	Serve(w, req, path)

	resp := w.Result()
	if resp.StatusCode != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("Expected status 416, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Range"); got != "bytes */1000" {
		t.Errorf("Expected Content-Range bytes */1000, got %q", got)
	}
}

func TestServeMissingFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/media/stream", nil)
	w := httptest.NewRecorder()

	Serve(w, req, filepath.Join(t.TempDir(), "missing.mp4"))

	if w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Result().StatusCode)
	}
}
