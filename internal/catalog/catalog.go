package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"mediahub/internal/logging"
	"mediahub/internal/metrics"
)

// Default timeout for catalog operations
const defaultTimeout = 5 * time.Second

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Catalog manages the persisted tree of libraries, folders and media items.
// The scanner owns the write path; the query/streaming path only reads.
type Catalog struct {
	db      *sql.DB
	dbPath  string
	mu      sync.RWMutex
	stats   Stats
	statsMu sync.RWMutex
	txStart time.Time
}

// New opens (or creates) the catalog database at dbPath. The parent
// directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*Catalog, error) {
	logging.Info("Catalog path: %s", dbPath)

	// WAL mode and busy_timeout keep concurrent readers from tripping over
	// the single writer. Foreign keys enforce library cascade deletes.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalog after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	c := &Catalog{
		db:     db,
		dbPath: dbPath,
	}

	if err := c.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalog after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	logging.Info("Catalog initialized successfully at %s", dbPath)
	return c, nil
}

func (c *Catalog) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS libraries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		hidden INTEGER NOT NULL DEFAULT 0,
		sync INTEGER NOT NULL DEFAULT 0,
		type TEXT NOT NULL DEFAULT 'other'
	);

	CREATE TABLE IF NOT EXISTS folders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		library_id INTEGER NOT NULL,
		parent_id INTEGER,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		poster TEXT,
		FOREIGN KEY (library_id) REFERENCES libraries(id) ON DELETE CASCADE,
		FOREIGN KEY (parent_id) REFERENCES folders(id) ON DELETE CASCADE,
		UNIQUE(library_id, path)
	);

	CREATE INDEX IF NOT EXISTS idx_folders_library ON folders(library_id);
	CREATE INDEX IF NOT EXISTS idx_folders_parent ON folders(parent_id);

	CREATE TABLE IF NOT EXISTS collections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS media_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		library_id INTEGER NOT NULL,
		folder_id INTEGER,
		file_path TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		ext TEXT NOT NULL,
		is_video INTEGER NOT NULL DEFAULT 0,
		width INTEGER,
		height INTEGER,
		size INTEGER NOT NULL DEFAULT 0,
		year INTEGER,
		synopsis TEXT,
		genres TEXT,
		poster TEXT,
		backdrop TEXT,
		provider_id TEXT,
		collection_id INTEGER,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (library_id) REFERENCES libraries(id) ON DELETE CASCADE,
		FOREIGN KEY (folder_id) REFERENCES folders(id) ON DELETE SET NULL,
		FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE SET NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_library ON media_items(library_id);
	CREATE INDEX IF NOT EXISTS idx_items_folder ON media_items(folder_id);
	CREATE INDEX IF NOT EXISTS idx_items_title ON media_items(title COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_items_enrich ON media_items(is_video, poster);

	-- Full-text search over item titles
	CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
		title,
		file_path,
		content='media_items',
		content_rowid='id',
		tokenize='trigram'
	);

	CREATE TRIGGER IF NOT EXISTS items_ai AFTER INSERT ON media_items BEGIN
		INSERT INTO items_fts(rowid, title, file_path) VALUES (new.id, new.title, new.file_path);
	END;

	CREATE TRIGGER IF NOT EXISTS items_ad AFTER DELETE ON media_items BEGIN
		INSERT INTO items_fts(items_fts, rowid, title, file_path) VALUES('delete', old.id, old.title, old.file_path);
	END;

	CREATE TRIGGER IF NOT EXISTS items_au AFTER UPDATE ON media_items BEGIN
		INSERT INTO items_fts(items_fts, rowid, title, file_path) VALUES('delete', old.id, old.title, old.file_path);
		INSERT INTO items_fts(rowid, title, file_path) VALUES (new.id, new.title, new.file_path);
	END;

	CREATE TABLE IF NOT EXISTS playback_progress (
		media_item_id INTEGER PRIMARY KEY,
		position REAL NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (media_item_id) REFERENCES media_items(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS subtitle_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		media_item_id INTEGER NOT NULL,
		language TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		path TEXT NOT NULL,
		FOREIGN KEY (media_item_id) REFERENCES media_items(id) ON DELETE CASCADE,
		UNIQUE(media_item_id, language, ordinal)
	);

	CREATE INDEX IF NOT EXISTS idx_subtitles_item ON subtitle_items(media_item_id);
	`

	_, err := c.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// BeginBatch starts a transaction for batch operations.
// The caller is responsible for calling EndBatch when done.
func (c *Catalog) BeginBatch() (*sql.Tx, error) {
	c.mu.Lock()
	txStart := time.Now()

	// Background context: the transaction's lifetime is managed by EndBatch,
	// not a timeout.
	tx, err := c.db.BeginTx(context.Background(), nil)
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}

	c.txStart = txStart
	return tx, nil
}

// EndBatch commits or rolls back a transaction.
func (c *Catalog) EndBatch(tx *sql.Tx, err error) error {
	duration := time.Since(c.txStart).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		rbErr := tx.Rollback()
		if rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return tx.Commit()
}

// UpdateStats updates the cached statistics.
func (c *Catalog) UpdateStats(stats Stats) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.stats = stats
}

// GetStats returns the current catalog statistics.
func (c *Catalog) GetStats() Stats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.stats
}

// CalculateStats recomputes catalog counts from the database.
func (c *Catalog) CalculateStats(ctx context.Context) (Stats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("calculate_stats", start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats Stats
	err = c.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM libraries),
			(SELECT COUNT(*) FROM folders),
			(SELECT COUNT(*) FROM media_items),
			(SELECT COUNT(*) FROM media_items WHERE is_video = 1),
			(SELECT COUNT(*) FROM media_items WHERE is_video = 0)
	`).Scan(&stats.TotalLibraries, &stats.TotalFolders, &stats.TotalItems,
		&stats.TotalVideos, &stats.TotalImages)
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// recordQuery records catalog query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}
