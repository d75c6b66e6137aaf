package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tonearm/src/music"
)

// InsertTrack stores a new entity at its current revision.
func (d *SqliteStore) InsertTrack(ctx context.Context, collectionID string, entity music.TrackEntity, payload music.TrackPayload) error {
	cols := denormalize(&entity.Track)
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO tracks (uid, collection_id, rev, payload_format, payload_version_major,
			payload_version_minor, payload_blob, path, content_type, content_type_norm,
			collected_at, title_norm, artist_norm, album_title_norm, album_artist_norm,
			release_date, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entity.Header.UID, collectionID, entity.Header.Rev,
		payload.Format, payload.Version.Major, payload.Version.Minor, payload.Blob,
		entity.Track.Source.Path, entity.Track.Source.ContentType, cols.contentType,
		entity.Track.Source.CollectedAt.UTC().Format(time.RFC3339),
		cols.title, cols.artist, cols.albumTitle, cols.albumArtist,
		cols.releaseDate, cols.durationMs)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return music.ErrDuplicateEntry
		}
		return err
	}
	return nil
}

// UpdateTrack replaces the entity body iff the stored revision still
// equals the one supplied. The revision check and the write are one
// conditional statement, so concurrent writers cannot interleave
// between check and write.
func (d *SqliteStore) UpdateTrack(ctx context.Context, entity music.TrackEntity, payload music.TrackPayload) (music.UpdateResult, error) {
	cols := denormalize(&entity.Track)
	result, err := d.db.ExecContext(ctx, `
		UPDATE tracks SET rev = rev + 1, payload_format = ?, payload_version_major = ?,
			payload_version_minor = ?, payload_blob = ?, path = ?, content_type = ?,
			content_type_norm = ?, collected_at = ?, title_norm = ?, artist_norm = ?,
			album_title_norm = ?, album_artist_norm = ?, release_date = ?, duration_ms = ?
		WHERE uid = ? AND rev = ?
	`, payload.Format, payload.Version.Major, payload.Version.Minor, payload.Blob,
		entity.Track.Source.Path, entity.Track.Source.ContentType, cols.contentType,
		entity.Track.Source.CollectedAt.UTC().Format(time.RFC3339),
		cols.title, cols.artist, cols.albumTitle, cols.albumArtist,
		cols.releaseDate, cols.durationMs,
		entity.Header.UID, entity.Header.Rev)
	if err != nil {
		return music.UpdateResult{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return music.UpdateResult{}, err
	}
	if affected > 0 {
		return music.UpdateResult{Outcome: music.UpdateApplied, Rev: entity.Header.Rev.Next()}, nil
	}

	// Zero rows: reload to tell a lost revision race from a missing row.
	var storedRev music.Revision
	err = d.db.QueryRowContext(ctx, `SELECT rev FROM tracks WHERE uid = ?`, entity.Header.UID).Scan(&storedRev)
	if errors.Is(err, sql.ErrNoRows) {
		return music.UpdateResult{Outcome: music.UpdateNotFound}, nil
	}
	if err != nil {
		return music.UpdateResult{}, err
	}
	return music.UpdateResult{Outcome: music.UpdateConflict, Rev: storedRev}, nil
}

const trackColumns = `uid, rev, payload_format, payload_version_major, payload_version_minor, payload_blob`

// LoadTrack loads one entity and its payload by UID.
func (d *SqliteStore) LoadTrack(ctx context.Context, uid string) (*music.TrackEntity, *music.TrackPayload, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE uid = ?`, uid)
	entity, payload, err := scanTrack(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, music.ErrNotFound
		}
		return nil, nil, err
	}
	return entity, payload, nil
}

// LoadTracks loads entities by UID, best-effort: missing UIDs are
// silently absent from the result and the order is unspecified.
func (d *SqliteStore) LoadTracks(ctx context.Context, uids []string) ([]music.TrackEntity, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(uids)-1) + "?"
	args := make([]any, len(uids))
	for i, uid := range uids {
		args[i] = uid
	}
	rows, err := d.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE uid IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTracks(rows)
}

// LocateTracksByPath finds all entities whose media source path equals
// the given path.
func (d *SqliteStore) LocateTracksByPath(ctx context.Context, collectionID, path string) ([]music.LocatedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE path = ?`
	args := []any{path}
	if collectionID != "" {
		query += ` AND collection_id = ?`
		args = append(args, collectionID)
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var located []music.LocatedTrack
	for rows.Next() {
		entity, payload, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		located = append(located, music.LocatedTrack{Entity: *entity, Payload: *payload})
	}
	return located, rows.Err()
}

// SearchTracks executes one bounded filtered search.
func (d *SqliteStore) SearchTracks(ctx context.Context, collectionID string, filter music.Filter, ordering []music.SortOrder, limit int) ([]music.TrackEntity, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + trackColumns + ` FROM tracks t WHERE t.collection_id = ?`)
	args := []any{collectionID}

	if filter != nil {
		clause, err := renderFilter(filter, &args)
		if err != nil {
			return nil, err
		}
		sb.WriteString(` AND ` + clause)
	}

	if len(ordering) > 0 {
		terms := make([]string, 0, len(ordering))
		for _, order := range ordering {
			term, err := renderSortOrder(order)
			if err != nil {
				return nil, err
			}
			terms = append(terms, term)
		}
		sb.WriteString(` ORDER BY ` + strings.Join(terms, ", "))
	}
	if limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTracks(rows)
}

// CountTracks returns the number of tracks, scoped to the collection if
// non-empty.
func (d *SqliteStore) CountTracks(ctx context.Context, collectionID string) (int, error) {
	query := `SELECT COUNT(*) FROM tracks`
	var args []any
	if collectionID != "" {
		query += ` WHERE collection_id = ?`
		args = append(args, collectionID)
	}
	var count int
	err := d.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// DeleteTrack removes an entity by UID.
func (d *SqliteStore) DeleteTrack(ctx context.Context, uid string) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM tracks WHERE uid = ?`, uid)
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

// denormalizedColumns are the searchable projections of a track body.
type denormalizedColumns struct {
	title       string
	artist      string
	albumTitle  string
	albumArtist string
	contentType string
	releaseDate sql.NullString
	durationMs  sql.NullFloat64
}

func denormalize(track *music.Track) denormalizedColumns {
	cols := denormalizedColumns{
		title:       music.NormalizeSearchTerm(track.Title),
		artist:      music.NormalizeSearchTerm(track.TrackArtist()),
		albumTitle:  music.NormalizeSearchTerm(track.AlbumTitle),
		albumArtist: music.NormalizeSearchTerm(track.AlbumArtist),
		contentType: music.NormalizeSearchTerm(track.Source.ContentType),
	}
	if track.ReleaseDate != "" {
		cols.releaseDate = sql.NullString{String: track.ReleaseDate, Valid: true}
	}
	if track.Source.Audio.DurationMs > 0 {
		cols.durationMs = sql.NullFloat64{Float64: track.Source.Audio.DurationMs, Valid: true}
	}
	return cols
}

func phraseColumn(field music.StringField) (string, error) {
	switch field {
	case music.FieldTrackArtist:
		return "t.artist_norm", nil
	case music.FieldTrackTitle:
		return "t.title_norm", nil
	case music.FieldAlbumArtist:
		return "t.album_artist_norm", nil
	case music.FieldAlbumTitle:
		return "t.album_title_norm", nil
	case music.FieldSourceType:
		return "t.content_type_norm", nil
	}
	return "", fmt.Errorf("unknown string field: %d", field)
}

// renderFilter renders one filter node into a SQL condition, appending
// its bind values to args.
func renderFilter(filter music.Filter, args *[]any) (string, error) {
	switch f := filter.(type) {
	case music.AllFilter:
		if len(f) == 0 {
			return "1 = 1", nil
		}
		clauses := make([]string, 0, len(f))
		for _, child := range f {
			clause, err := renderFilter(child, args)
			if err != nil {
				return "", err
			}
			clauses = append(clauses, clause)
		}
		return "(" + strings.Join(clauses, " AND ") + ")", nil

	case music.PhraseFilter:
		column, err := phraseColumn(f.Field)
		if err != nil {
			return "", err
		}
		if len(f.Terms) == 0 {
			return "1 = 1", nil
		}
		placeholders := make([]string, 0, len(f.Terms))
		for _, term := range f.Terms {
			placeholders = append(placeholders, "?")
			*args = append(*args, term)
		}
		if len(placeholders) == 1 {
			return column + " = ?", nil
		}
		return column + " IN (" + strings.Join(placeholders, ", ") + ")", nil

	case music.NumericRangeFilter:
		if f.Field != music.FieldAudioDurationMs {
			return "", fmt.Errorf("unknown numeric field: %d", f.Field)
		}
		if f.Min == nil && f.Max == nil {
			return "t.duration_ms IS NULL", nil
		}
		clauses := make([]string, 0, 2)
		if f.Min != nil {
			clauses = append(clauses, "t.duration_ms >= ?")
			*args = append(*args, *f.Min)
		}
		if f.Max != nil {
			clauses = append(clauses, "t.duration_ms <= ?")
			*args = append(*args, *f.Max)
		}
		return "(" + strings.Join(clauses, " AND ") + ")", nil

	case music.ReleaseDateFilter:
		if f.Equals == nil {
			return "t.release_date IS NULL", nil
		}
		*args = append(*args, *f.Equals)
		return "t.release_date = ?", nil

	case music.ConditionFilter:
		if f != music.SourceTracked {
			return "", fmt.Errorf("unknown condition filter: %d", f)
		}
		// A source is tracked when its path lies below a non-orphaned
		// cache entry of its collection.
		*args = append(*args, music.EntryOrphaned.String())
		return `EXISTS (
			SELECT 1 FROM media_dir_cache m
			JOIN collections col ON col.id = m.collection_id
			WHERE m.collection_id = t.collection_id AND m.status <> ?
			AND substr(t.path, 1, length(col.music_dir) + 1) = col.music_dir || '/'
			AND (m.path = '' OR substr(t.path, length(col.music_dir) + 2) LIKE m.path || '%')
		)`, nil
	}
	return "", fmt.Errorf("unknown filter type: %T", filter)
}

func renderSortOrder(order music.SortOrder) (string, error) {
	if order.Field != music.SortCollectedAt {
		return "", fmt.Errorf("unknown sort field: %d", order.Field)
	}
	if order.Direction == music.SortDescending {
		return "t.collected_at DESC", nil
	}
	return "t.collected_at ASC", nil
}

func scanTrack(row rowScanner) (*music.TrackEntity, *music.TrackPayload, error) {
	var uid string
	var rev music.Revision
	var payload music.TrackPayload
	err := row.Scan(&uid, &rev, &payload.Format, &payload.Version.Major, &payload.Version.Minor, &payload.Blob)
	if err != nil {
		return nil, nil, err
	}
	entity := &music.TrackEntity{Header: music.EntityHeader{UID: uid, Rev: rev}}
	// Payloads in an unknown format or version keep an empty body; the
	// raw payload still surfaces so the replace engine can report the
	// mismatch instead of this scan failing.
	if payload.Format == music.PayloadFormatJSON && payload.Version.Major == music.PayloadVersionV1.Major {
		track, err := music.UnmarshalTrackPayload(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("corrupt payload for track %s: %w", uid, err)
		}
		entity.Track = *track
	}
	return entity, &payload, nil
}

func collectTracks(rows *sql.Rows) ([]music.TrackEntity, error) {
	var entities []music.TrackEntity
	for rows.Next() {
		entity, _, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, *entity)
	}
	return entities, rows.Err()
}
