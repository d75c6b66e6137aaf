package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tonearm/src/music"
)

// AddCollection adds a collection to the database.
func (d *SqliteStore) AddCollection(ctx context.Context, collection *music.Collection) error {
	if err := collection.Validate(); err != nil {
		slog.Error("AddCollection: validation failed", "error", err, "id", collection.ID)
		return err
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO collections (id, title, kind, music_dir, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, collection.ID, collection.Title, collection.Kind, collection.MusicDir,
		collection.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return music.ErrDuplicateEntry
		}
		return err
	}
	return nil
}

// GetCollection returns a single collection by ID.
func (d *SqliteStore) GetCollection(ctx context.Context, id string) (*music.Collection, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, title, kind, music_dir, created_at FROM collections WHERE id = ?
	`, id)
	return scanCollection(row)
}

// GetCollections returns all collections.
func (d *SqliteStore) GetCollections(ctx context.Context) ([]*music.Collection, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, title, kind, music_dir, created_at FROM collections ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []*music.Collection
	for rows.Next() {
		collection, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, collection)
	}
	return collections, rows.Err()
}

// UpdateCollection updates a collection's metadata.
func (d *SqliteStore) UpdateCollection(ctx context.Context, collection *music.Collection) error {
	if err := collection.Validate(); err != nil {
		return err
	}
	result, err := d.db.ExecContext(ctx, `
		UPDATE collections SET title = ?, kind = ?, music_dir = ? WHERE id = ?
	`, collection.Title, collection.Kind, collection.MusicDir, collection.ID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return music.ErrNotFound
	}
	return nil
}

// DeleteCollection deletes a collection. Directory entries and tracks
// below it are removed by the foreign key cascade.
func (d *SqliteStore) DeleteCollection(ctx context.Context, id string) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return music.ErrNotFound
	}
	slog.Debug("Collection deleted", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollection(row rowScanner) (*music.Collection, error) {
	var collection music.Collection
	var createdAt string
	err := row.Scan(&collection.ID, &collection.Title, &collection.Kind, &collection.MusicDir, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, music.ErrNotFound
		}
		return nil, err
	}
	collection.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, err
	}
	return &collection, nil
}
