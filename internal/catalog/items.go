package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// InsertMediaItem creates a media item row and fills in its id. The caller
// guarantees FilePath is not yet present; a duplicate path is an error.
func (c *Catalog) InsertMediaItem(ctx context.Context, item *MediaItem) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("insert_item", start, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := c.db.ExecContext(ctx, `
		INSERT INTO media_items
			(library_id, folder_id, file_path, title, ext, is_video, width, height, size, year)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.LibraryID, nullableID(item.FolderID), item.FilePath, item.Title, item.Ext,
		item.IsVideo, nullableInt(item.Width), nullableInt(item.Height), item.Size,
		nullableInt(item.Year))
	if err != nil {
		return err
	}

	item.ID, err = result.LastInsertId()
	return err
}

// MediaItemByPath returns the item with the given file path, or ErrNotFound.
func (c *Catalog) MediaItemByPath(ctx context.Context, path string) (*MediaItem, error) {
	return c.itemBy(ctx, "item_by_path", "file_path = ?", path)
}

// MediaItemByID returns the item with the given id, or ErrNotFound.
func (c *Catalog) MediaItemByID(ctx context.Context, id int64) (*MediaItem, error) {
	return c.itemBy(ctx, "item_by_id", "id = ?", id)
}

func (c *Catalog) itemBy(ctx context.Context, op, where string, arg interface{}) (*MediaItem, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(op, start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := c.db.QueryRowContext(ctx, itemSelect+" WHERE "+where, arg)
	item, err := scanItemRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ItemsByLibrary returns the library's items ordered by title.
func (c *Catalog) ItemsByLibrary(ctx context.Context, libraryID int64) ([]MediaItem, error) {
	return c.itemList(ctx, "items_by_library",
		itemSelect+" WHERE library_id = ? ORDER BY title COLLATE NOCASE", libraryID)
}

// ImageItemsByLibrary returns only the library's image items ordered by
// title, for viewer prev/next navigation.
func (c *Catalog) ImageItemsByLibrary(ctx context.Context, libraryID int64) ([]MediaItem, error) {
	return c.itemList(ctx, "images_by_library",
		itemSelect+" WHERE library_id = ? AND is_video = 0 ORDER BY title COLLATE NOCASE", libraryID)
}

// ItemsByFolder returns the items directly inside a folder in one query.
func (c *Catalog) ItemsByFolder(ctx context.Context, folderID int64) ([]MediaItem, error) {
	return c.itemList(ctx, "items_by_folder",
		itemSelect+" WHERE folder_id = ? ORDER BY title COLLATE NOCASE", folderID)
}

// AllItemRefs returns (id, path) for every persisted item, used by the
// scanner's stale-entry pruning pass.
func (c *Catalog) AllItemRefs(ctx context.Context) ([]ItemRef, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("all_item_refs", start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, "SELECT id, file_path FROM media_items")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []ItemRef
	for rows.Next() {
		var ref ItemRef
		if err = rows.Scan(&ref.ID, &ref.FilePath); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	err = rows.Err()
	return refs, err
}

// DeleteMediaItems removes the given item rows in one batch transaction.
func (c *Catalog) DeleteMediaItems(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("delete_items", start, err) }()

	tx, err := c.BeginBatch()
	if err != nil {
		return fmt.Errorf("failed to begin item cleanup: %w", err)
	}

	for _, id := range ids {
		if _, execErr := tx.ExecContext(context.Background(),
			"DELETE FROM media_items WHERE id = ?", id); execErr != nil {
			err = execErr
			break
		}
	}

	return c.EndBatch(tx, err)
}

// ItemsMissingPoster returns the ids of video items in sync-enabled
// libraries that have no cached poster yet. A populated poster is the
// enrichment job's completion signal, so these are exactly the items
// still eligible for scheduling.
func (c *Catalog) ItemsMissingPoster(ctx context.Context, libraryID int64) ([]int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("items_missing_poster", start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
		SELECT m.id
		FROM media_items m
		JOIN libraries l ON l.id = m.library_id
		WHERE m.library_id = ? AND l.sync = 1 AND m.is_video = 1
		  AND (m.poster IS NULL OR m.poster = '')
		ORDER BY m.id
	`, libraryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	return ids, err
}

// ApplyEnrichment overwrites the provider-supplied fields on an item.
func (c *Catalog) ApplyEnrichment(ctx context.Context, id int64, e Enrichment) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("apply_enrichment", start, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = c.db.ExecContext(ctx, `
		UPDATE media_items SET
			title = ?,
			synopsis = ?,
			genres = ?,
			provider_id = ?,
			collection_id = ?,
			poster = ?,
			backdrop = ?
		WHERE id = ?
	`, e.Title, nullableString(e.Synopsis), nullableString(joinGenres(e.Genres)),
		nullableString(e.ProviderID), nullableID(e.CollectionID),
		nullableString(e.Poster), nullableString(e.Backdrop), id)
	return err
}

// GetOrCreateCollection returns the id of the collection with the given
// provider id, creating it if absent. Safe under concurrent callers: the
// insert ignores a unique-constraint conflict and the id is re-fetched.
func (c *Catalog) GetOrCreateCollection(ctx context.Context, providerID, name string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_or_create_collection", start, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err = c.db.ExecContext(ctx, `
		INSERT INTO collections (provider_id, name) VALUES (?, ?)
		ON CONFLICT(provider_id) DO NOTHING
	`, providerID, name); err != nil {
		return 0, err
	}

	var id int64
	err = c.db.QueryRowContext(ctx,
		"SELECT id FROM collections WHERE provider_id = ?", providerID).Scan(&id)
	return id, err
}

// Search returns items whose title or path matches the query, using the
// full-text index.
func (c *Catalog) Search(ctx context.Context, query string, limit int) ([]MediaItem, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}

	// Quote the query so FTS operators in user input can't break the match.
	ftsQuery := `"` + strings.ReplaceAll(query, `"`, `""`) + `"`

	return c.itemList(ctx, "search", `
		SELECT m.id, m.library_id, m.folder_id, m.file_path, m.title, m.ext, m.is_video,
			m.width, m.height, m.size, m.year, m.synopsis, m.genres, m.poster,
			m.backdrop, m.provider_id, m.collection_id
		FROM media_items m
		JOIN items_fts f ON f.rowid = m.id
		WHERE items_fts MATCH ?
		ORDER BY rank
		LIMIT `+fmt.Sprintf("%d", limit), ftsQuery)
}

const itemSelect = `
	SELECT id, library_id, folder_id, file_path, title, ext, is_video,
		width, height, size, year, synopsis, genres, poster,
		backdrop, provider_id, collection_id
	FROM media_items`

func (c *Catalog) itemList(ctx context.Context, op, query string, args ...interface{}) ([]MediaItem, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(op, start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s query failed: %w", op, err)
	}
	defer rows.Close()

	var items []MediaItem
	for rows.Next() {
		var item *MediaItem
		item, err = scanItemRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	err = rows.Err()
	return items, err
}

func scanItemRow(scan func(dest ...interface{}) error) (*MediaItem, error) {
	var item MediaItem
	var folderID, collectionID sql.NullInt64
	var width, height, year sql.NullInt64
	var synopsis, genres, poster, backdrop, providerID sql.NullString

	err := scan(&item.ID, &item.LibraryID, &folderID, &item.FilePath, &item.Title,
		&item.Ext, &item.IsVideo, &width, &height, &item.Size, &year,
		&synopsis, &genres, &poster, &backdrop, &providerID, &collectionID)
	if err != nil {
		return nil, err
	}

	if folderID.Valid {
		id := folderID.Int64
		item.FolderID = &id
	}
	if collectionID.Valid {
		id := collectionID.Int64
		item.CollectionID = &id
	}
	item.Width = int(width.Int64)
	item.Height = int(height.Int64)
	item.Year = int(year.Int64)
	item.Synopsis = synopsis.String
	item.Genres = splitGenres(genres.String)
	item.Poster = poster.String
	item.Backdrop = backdrop.String
	item.ProviderID = providerID.String

	return &item, nil
}

func joinGenres(genres []string) string {
	return strings.Join(genres, ",")
}

func splitGenres(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			genres = append(genres, p)
		}
	}
	return genres
}

func nullableID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func nullableInt(v int) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
