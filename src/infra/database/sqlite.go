package database

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteStore is the SQLite implementation of the collection store, the
// track entity store and the directory entry cache.
type SqliteStore struct {
	db *sql.DB
}

// NewSqliteStore opens (or creates) the database at the given path.
func NewSqliteStore(path string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, err
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &SqliteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (d *SqliteStore) Close() error {
	return d.db.Close()
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS collections (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			kind TEXT,
			music_dir TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS media_dir_cache (
			id INTEGER PRIMARY KEY,
			collection_id TEXT NOT NULL,
			path TEXT NOT NULL,
			digest BLOB NOT NULL,
			status TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE(collection_id, path),
			FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE
		);

		-- (collection_id, path) carries no unique constraint: ambiguous
		-- media paths must stay observable for the replace engine.
		CREATE TABLE IF NOT EXISTS tracks (
			uid TEXT PRIMARY KEY,
			collection_id TEXT NOT NULL,
			rev INTEGER NOT NULL,
			payload_format INTEGER NOT NULL,
			payload_version_major INTEGER NOT NULL,
			payload_version_minor INTEGER NOT NULL,
			payload_blob BLOB NOT NULL,
			path TEXT NOT NULL,
			content_type TEXT NOT NULL,
			content_type_norm TEXT NOT NULL,
			collected_at TEXT NOT NULL,
			title_norm TEXT,
			artist_norm TEXT,
			album_title_norm TEXT,
			album_artist_norm TEXT,
			release_date TEXT,
			duration_ms REAL,
			FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_media_dir_cache_status ON media_dir_cache(collection_id, status);
		CREATE INDEX IF NOT EXISTS idx_tracks_path ON tracks(collection_id, path);
		CREATE INDEX IF NOT EXISTS idx_tracks_collected ON tracks(collection_id, collected_at);
	`)
	return err
}
