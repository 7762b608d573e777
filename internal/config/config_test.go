package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadFileParsesLibraries(t *testing.T) {
	path := writeConfigFile(t, `
libraries:
  - name: Movies
    path: /media/movies
    type: movies
    sync: true
  - name: Family Pictures
    path: /media/pictures
    type: pictures
    hidden: true
hidden_pin: "1234"
metadata:
  url: https://meta.example
  api_key: meta-key
subtitles:
  url: https://subs.example
  download_url: https://dl.example
  api_key: subs-key
  languages: EN,DE
`)

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if len(f.Libraries) != 2 {
		t.Fatalf("Expected 2 libraries, got %d", len(f.Libraries))
	}
	movies := f.Libraries[0]
	if movies.Name != "Movies" || movies.Path != "/media/movies" || !movies.Sync || movies.Type != LibraryTypeMovies {
		t.Errorf("Unexpected first library: %+v", movies)
	}
	if !f.Libraries[1].Hidden {
		t.Error("Expected second library to be hidden")
	}
	if f.HiddenPIN != "1234" {
		t.Errorf("Unexpected hidden pin: %q", f.HiddenPIN)
	}
	if f.Metadata.APIKey != "meta-key" || f.Subtitles.Languages != "EN,DE" {
		t.Errorf("Provider config not parsed: %+v %+v", f.Metadata, f.Subtitles)
	}
}

func TestLoadFileDefaultsLibraryType(t *testing.T) {
	path := writeConfigFile(t, `
libraries:
  - name: Stuff
    path: /media/stuff
`)

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if f.Libraries[0].Type != LibraryTypeOther {
		t.Errorf("Expected default type %q, got %q", LibraryTypeOther, f.Libraries[0].Type)
	}
}

func TestLoadFileValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "libraries:\n  - path: /media/x\n",
			wantErr: "name is required",
		},
		{
			name:    "missing path",
			content: "libraries:\n  - name: X\n",
			wantErr: "path is required",
		},
		{
			name:    "duplicate name",
			content: "libraries:\n  - name: X\n    path: /a\n  - name: X\n    path: /b\n",
			wantErr: "duplicate library name",
		},
		{
			name:    "unknown type",
			content: "libraries:\n  - name: X\n    path: /a\n    type: music\n",
			wantErr: "unknown type",
		},
		{
			name:    "invalid yaml",
			content: "libraries: [",
			wantErr: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFileMissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadConfigDerivesPaths(t *testing.T) {
	base := t.TempDir()
	t.Setenv("CONFIG_PATH", filepath.Join(base, "config.yaml"))
	t.Setenv("CACHE_DIR", filepath.Join(base, "cache"))
	t.Setenv("DATABASE_DIR", filepath.Join(base, "db"))
	t.Setenv("PORT", "9999")
	t.Setenv("SCAN_INTERVAL", "5m")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Port != "9999" {
		t.Errorf("Unexpected port: %q", cfg.Port)
	}
	if cfg.ScanInterval.Minutes() != 5 {
		t.Errorf("Unexpected scan interval: %v", cfg.ScanInterval)
	}
	if cfg.DatabasePath != filepath.Join(base, "db", "mediahub.db") {
		t.Errorf("Unexpected database path: %q", cfg.DatabasePath)
	}

	for _, dir := range []string{cfg.PosterDir, cfg.PreviewDir, cfg.SubtitleDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("Expected cache directory %q to exist", dir)
		}
	}
}

func TestLoadConfigInvalidScanInterval(t *testing.T) {
	base := t.TempDir()
	t.Setenv("CACHE_DIR", filepath.Join(base, "cache"))
	t.Setenv("DATABASE_DIR", filepath.Join(base, "db"))
	t.Setenv("SCAN_INTERVAL", "not-a-duration")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ScanInterval.Minutes() != 30 {
		t.Errorf("Expected fallback to 30m, got %v", cfg.ScanInterval)
	}
}
