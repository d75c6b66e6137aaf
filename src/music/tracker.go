package music

import (
	"context"
	"fmt"
	"time"
)

// EntryStatus is the lifecycle state of one tracked directory path.
// The five states are mutually exclusive.
type EntryStatus int

const (
	// EntryCurrent means the digest matches the last confirmed scan.
	EntryCurrent EntryStatus = iota
	// EntryOutdated is set at the start of a new scan pass; superseded
	// when the path is revisited, orphaned if not.
	EntryOutdated
	// EntryAdded is a newly observed path that has never been seen before.
	EntryAdded
	// EntryModified is a previously known path whose digest changed.
	EntryModified
	// EntryOrphaned means the path was still outdated at the end of a
	// completed pass, i.e. it no longer exists under the scanned root.
	EntryOrphaned
)

func (s EntryStatus) String() string {
	switch s {
	case EntryCurrent:
		return "current"
	case EntryOutdated:
		return "outdated"
	case EntryAdded:
		return "added"
	case EntryModified:
		return "modified"
	case EntryOrphaned:
		return "orphaned"
	}
	return fmt.Sprintf("EntryStatus(%d)", int(s))
}

// ParseEntryStatus parses the string form produced by String.
func ParseEntryStatus(s string) (EntryStatus, error) {
	switch s {
	case "current":
		return EntryCurrent, nil
	case "outdated":
		return EntryOutdated, nil
	case "added":
		return EntryAdded, nil
	case "modified":
		return EntryModified, nil
	case "orphaned":
		return EntryOrphaned, nil
	}
	return 0, fmt.Errorf("unknown entry status: %q", s)
}

// DirectoryEntry is the cached state of one scanned directory within a
// collection. At most one entry exists per (collection, path).
type DirectoryEntry struct {
	CollectionID string
	Path         string
	Digest       Digest
	Status       EntryStatus
	UpdatedAt    time.Time
}

// AggregateStatus summarizes entry counts per status for a path prefix.
// It is derived on demand and never persisted.
type AggregateStatus struct {
	Current  int
	Outdated int
	Added    int
	Modified int
	Orphaned int
}

// Total returns the number of entries across all states.
func (a AggregateStatus) Total() int {
	return a.Current + a.Outdated + a.Added + a.Modified + a.Orphaned
}

// DigestOutcome is the result of probing the cache with a freshly
// computed directory digest. Exactly one outcome fires per call.
type DigestOutcome int

const (
	// DigestCurrent confirmed an outdated or orphaned entry whose digest
	// is unchanged.
	DigestCurrent DigestOutcome = iota
	// DigestUpdated overwrote the digest of an entry that changed.
	DigestUpdated
	// DigestInserted added an entry for a never-seen path.
	DigestInserted
	// DigestSkipped left an already added or modified entry untouched.
	DigestSkipped
)

func (o DigestOutcome) String() string {
	switch o {
	case DigestCurrent:
		return "current"
	case DigestUpdated:
		return "updated"
	case DigestInserted:
		return "inserted"
	case DigestSkipped:
		return "skipped"
	}
	return fmt.Sprintf("DigestOutcome(%d)", int(o))
}

// DirectoryCache persists the per-directory scan state of a collection.
//
// Every operation is a single atomic conditional statement against the
// store. Concurrent callers may race but always converge on a consistent
// final state; no cross-call locks are held.
type DirectoryCache interface {
	// UpdateEntriesStatus bulk-flips the status of all entries under the
	// path prefix, optionally only those currently in oldStatus, and
	// returns the number of transitioned rows.
	UpdateEntriesStatus(ctx context.Context, collectionID, pathPrefix string, oldStatus *EntryStatus, newStatus EntryStatus) (int, error)

	// DeleteEntries deletes orphaned entries under the path prefix,
	// optionally further filtered by status. Non-orphaned entries are
	// never deleted.
	DeleteEntries(ctx context.Context, collectionID, pathPrefix string, status *EntryStatus) (int, error)

	// UpdateEntryDigest reconciles a freshly computed digest for one
	// path, trying in priority order: confirm an unchanged outdated or
	// orphaned entry, overwrite a changed digest, insert a new entry,
	// or skip. The ordering is the correctness contract: a digest match
	// on a stale entry must win over a blind overwrite.
	UpdateEntryDigest(ctx context.Context, collectionID, path string, digest Digest) (DigestOutcome, error)

	// ResetEntryStatusToCurrent confirms an entry whose path and digest
	// are both known exactly, without the probing sequence.
	ResetEntryStatusToCurrent(ctx context.Context, collectionID, path string, digest Digest) (bool, error)

	// LoadEntryStatusByPath returns the current status of one entry,
	// or ErrNotFound.
	LoadEntryStatusByPath(ctx context.Context, collectionID, path string) (EntryStatus, error)

	// AggregateStatus counts entries per status under the path prefix.
	AggregateStatus(ctx context.Context, collectionID, pathPrefix string) (AggregateStatus, error)
}
