package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"mediahub/internal/logging"

	"gopkg.in/yaml.v3"
)

// LibraryType distinguishes how a library's contents are presented.
type LibraryType string

const (
	// LibraryTypeMovies is a flat video collection.
	LibraryTypeMovies LibraryType = "movies"
	// LibraryTypePictures is a folder-structured picture collection.
	LibraryTypePictures LibraryType = "pictures"
	// LibraryTypeOther is anything else.
	LibraryTypeOther LibraryType = "other"
)

// Library is one configured media root.
type Library struct {
	Name   string      `yaml:"name"`
	Path   string      `yaml:"path"`
	Hidden bool        `yaml:"hidden"`
	Sync   bool        `yaml:"sync"`
	Type   LibraryType `yaml:"type"`
}

// Provider holds connection details for the external metadata service.
type Provider struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// SubtitleProvider holds connection details for the external subtitle service.
type SubtitleProvider struct {
	URL         string `yaml:"url"`
	DownloadURL string `yaml:"download_url"`
	APIKey      string `yaml:"api_key"`
	Languages   string `yaml:"languages"`
}

// File is the declarative part of the configuration, read from config.yaml.
// It is reloaded fully on every scan trigger; nothing in it is cached.
type File struct {
	Libraries []Library        `yaml:"libraries"`
	HiddenPIN string           `yaml:"hidden_pin"`
	Metadata  Provider         `yaml:"metadata"`
	Subtitles SubtitleProvider `yaml:"subtitles"`
}

// Config holds all application configuration.
type Config struct {
	ConfigPath    string
	CacheDir      string
	DatabaseDir   string
	Port          string
	MetricsPort   string
	ScanInterval  time.Duration
	EnrichWorkers int
	MetricsEnabled bool

	// Derived paths
	DatabasePath string
	PosterDir    string
	PreviewDir   string
	SubtitleDir  string
}

// LoadConfig loads and validates configuration from environment variables.
func LoadConfig() (*Config, error) {
	configPath := getEnv("CONFIG_PATH", "config.yaml")
	cacheDir := getEnv("CACHE_DIR", "/cache")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	scanIntervalStr := getEnv("SCAN_INTERVAL", "30m")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	logging.Info("  CONFIG_PATH:     %s", configPath)
	logging.Info("  CACHE_DIR:       %s", cacheDir)
	logging.Info("  DATABASE_DIR:    %s", databaseDir)
	logging.Info("  PORT:            %s", port)
	logging.Info("  METRICS_PORT:    %s", metricsPort)
	logging.Info("  METRICS_ENABLED: %v", metricsEnabled)
	logging.Info("  SCAN_INTERVAL:   %s", scanIntervalStr)
	logging.Info("  LOG_LEVEL:       %s", logging.GetLevel())

	scanInterval, err := time.ParseDuration(scanIntervalStr)
	if err != nil {
		logging.Warn("  Invalid SCAN_INTERVAL, using default: 30m")
		scanInterval = 30 * time.Minute
	}

	enrichWorkers := 0
	if v := os.Getenv("ENRICH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			enrichWorkers = n
		} else {
			logging.Warn("  Invalid ENRICH_WORKERS: %q", v)
		}
	}

	cacheDir, err = filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	cfg := &Config{
		ConfigPath:     configPath,
		CacheDir:       cacheDir,
		DatabaseDir:    databaseDir,
		Port:           port,
		MetricsPort:    metricsPort,
		ScanInterval:   scanInterval,
		EnrichWorkers:  enrichWorkers,
		MetricsEnabled: metricsEnabled,
		DatabasePath:   filepath.Join(databaseDir, "mediahub.db"),
		PosterDir:      filepath.Join(cacheDir, "posters"),
		PreviewDir:     filepath.Join(cacheDir, "previews"),
		SubtitleDir:    filepath.Join(cacheDir, "subtitles"),
	}

	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable: %w", err)
	}

	for _, dir := range []string{cfg.PosterDir, cfg.PreviewDir, cfg.SubtitleDir} {
		if err := ensureDirectory(dir, "cache"); err != nil {
			return nil, fmt.Errorf("cache directory error: %w", err)
		}
	}

	return cfg, nil
}

// LoadFile reads and parses the declarative config file. It is called on
// every scan trigger so that library changes take effect without a restart.
func (c *Config) LoadFile() (*File, error) {
	return LoadFile(c.ConfigPath)
}

// LoadFile reads and parses a config.yaml from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	seen := make(map[string]bool, len(f.Libraries))
	for i := range f.Libraries {
		lib := &f.Libraries[i]
		if lib.Name == "" {
			return nil, fmt.Errorf("library %d: name is required", i)
		}
		if lib.Path == "" {
			return nil, fmt.Errorf("library %q: path is required", lib.Name)
		}
		if seen[lib.Name] {
			return nil, fmt.Errorf("duplicate library name %q", lib.Name)
		}
		seen[lib.Name] = true

		switch lib.Type {
		case LibraryTypeMovies, LibraryTypePictures, LibraryTypeOther:
		case "":
			lib.Type = LibraryTypeOther
		default:
			return nil, fmt.Errorf("library %q: unknown type %q", lib.Name, lib.Type)
		}
	}

	return &f, nil
}

func ensureDirectory(path, name string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("  Creating %s directory: %s", name, path)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
