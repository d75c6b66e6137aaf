package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tonearm/src/music"
)

// UpdateEntriesStatus bulk-flips entry statuses under a path prefix and
// returns the number of transitioned rows.
func (d *SqliteStore) UpdateEntriesStatus(ctx context.Context, collectionID, pathPrefix string, oldStatus *music.EntryStatus, newStatus music.EntryStatus) (int, error) {
	query := `
		UPDATE media_dir_cache SET status = ?, updated_at = ?
		WHERE collection_id = ? AND path LIKE ? || '%'
	`
	args := []any{newStatus.String(), now(), collectionID, pathPrefix}
	if oldStatus != nil {
		query += ` AND status = ?`
		args = append(args, oldStatus.String())
	}
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

// DeleteEntries deletes orphaned entries under a path prefix. The
// orphaned condition is part of the statement, not caller discipline:
// entries in any other state survive regardless of the status argument.
func (d *SqliteStore) DeleteEntries(ctx context.Context, collectionID, pathPrefix string, status *music.EntryStatus) (int, error) {
	query := `
		DELETE FROM media_dir_cache
		WHERE collection_id = ? AND path LIKE ? || '%' AND status = ?
	`
	args := []any{collectionID, pathPrefix, music.EntryOrphaned.String()}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, status.String())
	}
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

// UpdateEntryDigest reconciles a freshly computed digest for one path.
//
// The four steps run in priority order, each as a single conditional
// statement, so exactly one outcome fires per call even with concurrent
// callers racing on the same path. A digest match on an outdated or
// orphaned entry must win over the blind overwrite, otherwise a path
// that reappears unchanged would be recorded as modified.
func (d *SqliteStore) UpdateEntryDigest(ctx context.Context, collectionID, path string, digest music.Digest) (music.DigestOutcome, error) {
	// (i) confirm an unchanged entry that was marked stale
	result, err := d.db.ExecContext(ctx, `
		UPDATE media_dir_cache SET status = ?, updated_at = ?
		WHERE collection_id = ? AND path = ? AND digest = ? AND status IN (?, ?)
	`, music.EntryCurrent.String(), now(), collectionID, path, digest[:],
		music.EntryOutdated.String(), music.EntryOrphaned.String())
	if err != nil {
		return 0, err
	}
	if affected, err := result.RowsAffected(); err != nil {
		return 0, err
	} else if affected > 0 {
		return music.DigestCurrent, nil
	}

	// (ii) overwrite a changed digest
	result, err = d.db.ExecContext(ctx, `
		UPDATE media_dir_cache SET digest = ?, status = ?, updated_at = ?
		WHERE collection_id = ? AND path = ? AND digest <> ?
	`, digest[:], music.EntryModified.String(), now(), collectionID, path, digest[:])
	if err != nil {
		return 0, err
	}
	if affected, err := result.RowsAffected(); err != nil {
		return 0, err
	} else if affected > 0 {
		return music.DigestUpdated, nil
	}

	// (iii) insert a never-seen path
	result, err = d.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO media_dir_cache (collection_id, path, digest, status, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, collectionID, path, digest[:], music.EntryAdded.String(), now())
	if err != nil {
		return 0, err
	}
	if affected, err := result.RowsAffected(); err != nil {
		return 0, err
	} else if affected > 0 {
		return music.DigestInserted, nil
	}

	// (iv) the entry exists with this digest in a settled state
	return music.DigestSkipped, nil
}

// ResetEntryStatusToCurrent confirms an entry whose path and digest are
// both known exactly.
func (d *SqliteStore) ResetEntryStatusToCurrent(ctx context.Context, collectionID, path string, digest music.Digest) (bool, error) {
	result, err := d.db.ExecContext(ctx, `
		UPDATE media_dir_cache SET status = ?, updated_at = ?
		WHERE collection_id = ? AND path = ? AND digest = ?
	`, music.EntryCurrent.String(), now(), collectionID, path, digest[:])
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// LoadEntryStatusByPath returns the status of one entry, or ErrNotFound.
func (d *SqliteStore) LoadEntryStatusByPath(ctx context.Context, collectionID, path string) (music.EntryStatus, error) {
	var status string
	err := d.db.QueryRowContext(ctx, `
		SELECT status FROM media_dir_cache WHERE collection_id = ? AND path = ?
	`, collectionID, path).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, music.ErrNotFound
		}
		return 0, err
	}
	return music.ParseEntryStatus(status)
}

// AggregateStatus counts entries per status under a path prefix.
func (d *SqliteStore) AggregateStatus(ctx context.Context, collectionID, pathPrefix string) (music.AggregateStatus, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM media_dir_cache
		WHERE collection_id = ? AND path LIKE ? || '%'
		GROUP BY status
	`, collectionID, pathPrefix)
	if err != nil {
		return music.AggregateStatus{}, err
	}
	defer rows.Close()

	var aggregate music.AggregateStatus
	for rows.Next() {
		var statusName string
		var count int
		if err := rows.Scan(&statusName, &count); err != nil {
			return music.AggregateStatus{}, err
		}
		status, err := music.ParseEntryStatus(statusName)
		if err != nil {
			return music.AggregateStatus{}, err
		}
		switch status {
		case music.EntryCurrent:
			aggregate.Current = count
		case music.EntryOutdated:
			aggregate.Outdated = count
		case music.EntryAdded:
			aggregate.Added = count
		case music.EntryModified:
			aggregate.Modified = count
		case music.EntryOrphaned:
			aggregate.Orphaned = count
		}
	}
	return aggregate, rows.Err()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
