package scanning

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sync/atomic"
	"time"

	"tonearm/src/features/config"
	"tonearm/src/features/jobs"
	"tonearm/src/music"
)

// Service drives scan passes over collection directories and reconciles
// them against the directory entry cache.
type Service struct {
	cache       music.DirectoryCache
	collections music.CollectionStore
	config      *config.Manager
	jobService  jobs.JobService
	observers   []OutcomeObserver
}

// OutcomeObserver is notified with the outcome of every completed pass.
type OutcomeObserver interface {
	ScanFinished(collectionID string, outcome Outcome)
}

// NewService creates a new scanning service.
func NewService(cache music.DirectoryCache, collections music.CollectionStore, cfg *config.Manager, jobService jobs.JobService) *Service {
	return &Service{
		cache:       cache,
		collections: collections,
		config:      cfg,
		jobService:  jobService,
	}
}

// AddObserver registers an observer for scan outcomes.
func (s *Service) AddObserver(observer OutcomeObserver) {
	s.observers = append(s.observers, observer)
}

// StartScan starts a background scan job for the collection.
func (s *Service) StartScan(ctx context.Context, collectionID string) (string, error) {
	slog.Debug("StartScan service called", "collection_id", collectionID)
	if _, err := s.collections.GetCollection(ctx, collectionID); err != nil {
		return "", fmt.Errorf("failed to resolve collection: %w", err)
	}
	jobID, err := s.jobService.StartJob("collection_scan", "Collection Scan", map[string]any{
		"collection_id": collectionID,
	})
	if err != nil {
		slog.Error("Service.StartScan: failed to start job", "error", err)
		return "", fmt.Errorf("failed to start scan job: %w", err)
	}
	return jobID, nil
}

// Scan runs one full pass over the collection's music directory.
//
// The pass first pessimistically marks every current entry below the
// root as outdated, then walks the tree feeding fresh digests into the
// cache. Only a finished pass orphans the entries it did not revisit;
// an aborted pass leaves them outdated so a later pass can pick them
// up, and every digest committed so far stays valid.
func (s *Service) Scan(ctx context.Context, collectionID string, abortFlag *atomic.Bool, progressFn func(ProgressEvent)) (Outcome, error) {
	started := time.Now()
	collection, err := s.collections.GetCollection(ctx, collectionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load collection: %w", err)
	}

	oldStatus := music.EntryCurrent
	outdatedCount, err := s.cache.UpdateEntriesStatus(ctx, collectionID, "", &oldStatus, music.EntryOutdated)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to mark current entries outdated: %w", err)
	}
	slog.Debug("Marked current cache entries as outdated", "count", outdatedCount, "collection_id", collectionID)

	var summary Summary
	maxDepth := s.config.Get().Scan.MaxDepth
	completion, err := hashDirectoriesRecursively(ctx, collection.MusicDir, maxDepth, abortFlag, progressFn,
		func(relPath string, digest music.Digest) error {
			entryPath := normalizeEntryPath(relPath)
			outcome, err := s.cache.UpdateEntryDigest(ctx, collectionID, entryPath, digest)
			if err != nil {
				return fmt.Errorf("failed to update entry digest for %s: %w", entryPath, err)
			}
			switch outcome {
			case music.DigestCurrent:
				summary.Current++
			case music.DigestInserted:
				slog.Debug("Found added directory", "path", entryPath)
				summary.Added++
			case music.DigestUpdated:
				slog.Debug("Found modified directory", "path", entryPath)
				summary.Modified++
			case music.DigestSkipped:
				slog.Debug("Skipped directory", "path", entryPath)
				summary.Skipped++
			}
			return nil
		})
	if err != nil {
		return Outcome{}, err
	}

	if completion == CompletionFinished {
		// Entries still outdated were never revisited this pass, i.e.
		// they no longer exist below the scanned root.
		outdated := music.EntryOutdated
		orphaned, err := s.cache.UpdateEntriesStatus(ctx, collectionID, "", &outdated, music.EntryOrphaned)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to mark outdated entries orphaned: %w", err)
		}
		if orphaned > outdatedCount {
			slog.Warn("Orphaned more entries than were outdated at pass start", "orphaned", orphaned, "outdated", outdatedCount)
		}
		summary.Orphaned = orphaned
	}

	outcome := Outcome{Completion: completion, Summary: summary, Elapsed: time.Since(started)}
	for _, observer := range s.observers {
		observer.ScanFinished(collectionID, outcome)
	}
	slog.Info("Scan pass done",
		"collection_id", collectionID,
		"completion", completion.String(),
		"current", summary.Current,
		"added", summary.Added,
		"modified", summary.Modified,
		"orphaned", summary.Orphaned,
		"skipped", summary.Skipped,
	)
	return outcome, nil
}

// Status aggregates the entry counts per status for the collection,
// optionally below a path prefix.
func (s *Service) Status(ctx context.Context, collectionID, pathPrefix string) (music.AggregateStatus, error) {
	return s.cache.AggregateStatus(ctx, collectionID, pathPrefix)
}

// EntryStatus returns the tracking status of one directory path.
func (s *Service) EntryStatus(ctx context.Context, collectionID, entryPath string) (music.EntryStatus, error) {
	return s.cache.LoadEntryStatusByPath(ctx, collectionID, entryPath)
}

// PurgeOrphaned deletes orphaned entries below the path prefix and
// returns the purged count. Entries in any other state are untouched.
func (s *Service) PurgeOrphaned(ctx context.Context, collectionID, pathPrefix string) (int, error) {
	count, err := s.cache.DeleteEntries(ctx, collectionID, pathPrefix, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to purge orphaned entries: %w", err)
	}
	slog.Info("Purged orphaned entries", "collection_id", collectionID, "count", count)
	return count, nil
}

// normalizeEntryPath converts a root-relative walk path into the
// canonical cache form: "" for the root itself, otherwise a
// slash-separated path with a trailing slash so that prefix filters
// never match partial path segments.
func normalizeEntryPath(relPath string) string {
	cleaned := path.Clean(filepath.ToSlash(relPath))
	if cleaned == "." || cleaned == "/" {
		return ""
	}
	return cleaned + "/"
}
