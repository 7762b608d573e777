package subtitles

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func zipArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func TestSearchReturnsDescriptors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("api_key") != "test-key" || q.Get("imdb_id") != "tt0133093" || q.Get("languages") != "EN,DE" {
			t.Errorf("Unexpected search query: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"subtitles": [
			{"language": "en", "url": "/sub-en.zip"},
			{"language": "de", "url": "/sub-de.zip"}
		]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, "test-key")
	descriptors, err := c.Search(context.Background(), "tt0133093", "EN,DE")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(descriptors) != 2 || descriptors[0].URL != "/sub-en.zip" {
		t.Errorf("Unexpected descriptors: %+v", descriptors)
	}
}

func TestSearchEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"subtitles": []}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, "test-key")
	if _, err := c.Search(context.Background(), "tt0000000", "EN"); !errors.Is(err, ErrNoSubtitles) {
		t.Errorf("Expected ErrNoSubtitles, got %v", err)
	}
}

func TestSearchWithoutAPIKey(t *testing.T) {
	c := NewClient("http://unused.invalid", "http://unused.invalid", "")
	if _, err := c.Search(context.Background(), "tt0133093", "EN"); !errors.Is(err, ErrNoSubtitles) {
		t.Errorf("Expected ErrNoSubtitles with empty api key, got %v", err)
	}
}

func TestDownloadExtractsFirstSRT(t *testing.T) {
	archive := zipArchive(t, map[string]string{
		"readme.txt": "ignore me",
		"movie.srt":  "1\n00:00:01,000 --> 00:00:02,000\nHi\n",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sub.zip" {
			t.Errorf("Unexpected download path: %s", r.URL.Path)
		}
		w.Write(archive)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, "test-key")
	text, err := c.Download(context.Background(), Descriptor{Language: "en", URL: "/sub.zip"})
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if text != "1\n00:00:01,000 --> 00:00:02,000\nHi\n" {
		t.Errorf("Unexpected subtitle text: %q", text)
	}
}

func TestDownloadArchiveWithoutSRT(t *testing.T) {
	archive := zipArchive(t, map[string]string{"readme.txt": "nothing here"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, "test-key")
	if _, err := c.Download(context.Background(), Descriptor{URL: "/sub.zip"}); !errors.Is(err, ErrNoSubtitles) {
		t.Errorf("Expected ErrNoSubtitles, got %v", err)
	}
}

func TestDownloadRejectsNonArchive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a zip"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, "test-key")
	if _, err := c.Download(context.Background(), Descriptor{URL: "/sub.zip"}); err == nil {
		t.Error("Expected error for invalid archive")
	}
}
