package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SavePlaybackProgress records the last playback position for an item,
// replacing any previous position.
func (c *Catalog) SavePlaybackProgress(ctx context.Context, itemID int64, position float64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("save_progress", start, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO playback_progress (media_item_id, position, updated_at)
		VALUES (?, ?, strftime('%s', 'now'))
		ON CONFLICT(media_item_id) DO UPDATE SET
			position = excluded.position,
			updated_at = excluded.updated_at
	`, itemID, position)
	return err
}

// PlaybackProgressFor returns the stored position for an item, or
// ErrNotFound if nothing has been recorded.
func (c *Catalog) PlaybackProgressFor(ctx context.Context, itemID int64) (*PlaybackProgress, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_progress", start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p PlaybackProgress
	var updated int64
	err = c.db.QueryRowContext(ctx, `
		SELECT media_item_id, position, updated_at
		FROM playback_progress WHERE media_item_id = ?
	`, itemID).Scan(&p.MediaItemID, &p.Position, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Unix(updated, 0)
	return &p, nil
}

// CreateSubtitleItem stores a subtitle track for an item, assigning the
// next free ordinal within (item, language) atomically. The INSERT and the
// max lookup run as one statement, so concurrent callers cannot claim the
// same ordinal; the unique constraint is the backstop.
func (c *Catalog) CreateSubtitleItem(ctx context.Context, itemID int64, language, path string) (*SubtitleItem, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_subtitle", start, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := c.db.ExecContext(ctx, `
		INSERT INTO subtitle_items (media_item_id, language, ordinal, path)
		SELECT ?, ?, COALESCE(MAX(ordinal), 0) + 1, ?
		FROM subtitle_items WHERE media_item_id = ? AND language = ?
	`, itemID, language, path, itemID, language)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	sub := &SubtitleItem{ID: id, MediaItemID: itemID, Language: language, Path: path}
	err = c.db.QueryRowContext(ctx,
		"SELECT ordinal FROM subtitle_items WHERE id = ?", id).Scan(&sub.Ordinal)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// UpdateSubtitlePath records the on-disk file backing a subtitle track.
func (c *Catalog) UpdateSubtitlePath(ctx context.Context, id int64, path string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_subtitle_path", start, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = c.db.ExecContext(ctx, "UPDATE subtitle_items SET path = ? WHERE id = ?", path, id)
	return err
}

// SubtitlesForItem returns an item's subtitle tracks ordered by language
// then ordinal.
func (c *Catalog) SubtitlesForItem(ctx context.Context, itemID int64) ([]SubtitleItem, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("subtitles_for_item", start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, media_item_id, language, ordinal, path
		FROM subtitle_items WHERE media_item_id = ?
		ORDER BY language, ordinal
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []SubtitleItem
	for rows.Next() {
		var s SubtitleItem
		if err = rows.Scan(&s.ID, &s.MediaItemID, &s.Language, &s.Ordinal, &s.Path); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	err = rows.Err()
	return subs, err
}
