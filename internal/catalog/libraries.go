package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UpsertLibrary inserts or updates a library keyed by its slug and fills
// in the row id on the passed struct.
func (c *Catalog) UpsertLibrary(ctx context.Context, lib *Library) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_library", start, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO libraries (slug, name, path, hidden, sync, type)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			name = excluded.name,
			path = excluded.path,
			hidden = excluded.hidden,
			sync = excluded.sync,
			type = excluded.type
	`, lib.Slug, lib.Name, lib.Path, lib.Hidden, lib.Sync, lib.Type)
	if err != nil {
		return err
	}

	err = c.db.QueryRowContext(ctx, "SELECT id FROM libraries WHERE slug = ?", lib.Slug).Scan(&lib.ID)
	return err
}

// DeleteLibrariesExcept removes every library whose slug is not in keep.
// Folders and media items cascade with the library row.
func (c *Catalog) DeleteLibrariesExcept(ctx context.Context, keep []string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_libraries", start, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := "DELETE FROM libraries"
	args := make([]interface{}, 0, len(keep))
	if len(keep) > 0 {
		query += " WHERE slug NOT IN (?" + strings.Repeat(",?", len(keep)-1) + ")"
		for _, slug := range keep {
			args = append(args, slug)
		}
	}

	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Libraries returns all libraries, optionally filtering out hidden ones.
func (c *Catalog) Libraries(ctx context.Context, includeHidden bool) ([]Library, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_libraries", start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := "SELECT id, slug, name, path, hidden, sync, type FROM libraries"
	if !includeHidden {
		query += " WHERE hidden = 0"
	}
	query += " ORDER BY name COLLATE NOCASE"

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("libraries query failed: %w", err)
	}
	defer rows.Close()

	var libs []Library
	for rows.Next() {
		var lib Library
		if err = rows.Scan(&lib.ID, &lib.Slug, &lib.Name, &lib.Path, &lib.Hidden, &lib.Sync, &lib.Type); err != nil {
			return nil, err
		}
		libs = append(libs, lib)
	}
	err = rows.Err()
	return libs, err
}

// LibraryBySlug returns the library with the given slug, or ErrNotFound.
func (c *Catalog) LibraryBySlug(ctx context.Context, slug string) (*Library, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("library_by_slug", start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var lib Library
	err = c.db.QueryRowContext(ctx,
		"SELECT id, slug, name, path, hidden, sync, type FROM libraries WHERE slug = ?", slug,
	).Scan(&lib.ID, &lib.Slug, &lib.Name, &lib.Path, &lib.Hidden, &lib.Sync, &lib.Type)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &lib, nil
}

// UpsertFolder inserts or updates a folder keyed by (library, path) and
// fills in the row id on the passed struct.
func (c *Catalog) UpsertFolder(ctx context.Context, f *Folder) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_folder", start, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var parent interface{}
	if f.ParentID != nil {
		parent = *f.ParentID
	}
	var poster interface{}
	if f.Poster != "" {
		poster = f.Poster
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO folders (library_id, parent_id, name, path, poster)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(library_id, path) DO UPDATE SET
			parent_id = excluded.parent_id,
			name = excluded.name,
			poster = excluded.poster
	`, f.LibraryID, parent, f.Name, f.Path, poster)
	if err != nil {
		return err
	}

	err = c.db.QueryRowContext(ctx,
		"SELECT id FROM folders WHERE library_id = ? AND path = ?", f.LibraryID, f.Path,
	).Scan(&f.ID)
	return err
}

// AllFolders returns every persisted folder across all libraries, used by
// the scanner's stale-entry pruning pass.
func (c *Catalog) AllFolders(ctx context.Context) ([]Folder, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("all_folders", start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx,
		"SELECT id, library_id, parent_id, name, path, COALESCE(poster, '') FROM folders")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFolders(rows)
}

// ChildFolders returns the immediate children of parentID within a library
// in a single query. A nil parentID selects the library's root folders.
func (c *Catalog) ChildFolders(ctx context.Context, libraryID int64, parentID *int64) ([]Folder, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("child_folders", start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows *sql.Rows
	if parentID == nil {
		rows, err = c.db.QueryContext(ctx, `
			SELECT id, library_id, parent_id, name, path, COALESCE(poster, '')
			FROM folders WHERE library_id = ? AND parent_id IS NULL
			ORDER BY name COLLATE NOCASE`, libraryID)
	} else {
		rows, err = c.db.QueryContext(ctx, `
			SELECT id, library_id, parent_id, name, path, COALESCE(poster, '')
			FROM folders WHERE library_id = ? AND parent_id = ?
			ORDER BY name COLLATE NOCASE`, libraryID, *parentID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFolders(rows)
}

// DeleteFolders removes the given folder rows in one batch transaction.
// Children cascade through parent_id.
func (c *Catalog) DeleteFolders(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("delete_folders", start, err) }()

	tx, err := c.BeginBatch()
	if err != nil {
		return fmt.Errorf("failed to begin folder cleanup: %w", err)
	}

	for _, id := range ids {
		if _, execErr := tx.ExecContext(context.Background(),
			"DELETE FROM folders WHERE id = ?", id); execErr != nil {
			err = execErr
			break
		}
	}

	return c.EndBatch(tx, err)
}

// UpdateFolderPoster records the poster path cached for a folder.
func (c *Catalog) UpdateFolderPoster(ctx context.Context, id int64, poster string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_folder_poster", start, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value interface{}
	if poster != "" {
		value = poster
	}
	_, err = c.db.ExecContext(ctx, "UPDATE folders SET poster = ? WHERE id = ?", value, id)
	return err
}

func scanFolders(rows *sql.Rows) ([]Folder, error) {
	var folders []Folder
	for rows.Next() {
		var f Folder
		var parent sql.NullInt64
		if err := rows.Scan(&f.ID, &f.LibraryID, &parent, &f.Name, &f.Path, &f.Poster); err != nil {
			return nil, err
		}
		if parent.Valid {
			id := parent.Int64
			f.ParentID = &id
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}
