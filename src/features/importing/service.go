package importing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tonearm/src/features/config"
	"tonearm/src/features/jobs"
	"tonearm/src/music"
)

var supportedExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
}

// TagReader decodes the tags of a single audio file into a Track value.
type TagReader interface {
	ReadFileTags(ctx context.Context, filePath string) (*music.Track, error)
}

// Service is the domain service for importing files into the library.
type Service struct {
	store       music.TrackStore
	collections music.CollectionStore
	tagReader   TagReader
	config      *config.Manager
	jobService  jobs.JobService
	observers   []ResultObserver
}

// ResultObserver is notified with every individual replace result.
type ResultObserver interface {
	ReplaceFinished(collectionID string, result ReplaceResult)
}

// NewService creates a new importing service.
func NewService(store music.TrackStore, collections music.CollectionStore, tagReader TagReader, cfg *config.Manager, jobService jobs.JobService) *Service {
	return &Service{
		store:       store,
		collections: collections,
		tagReader:   tagReader,
		config:      cfg,
		jobService:  jobService,
	}
}

// AddObserver registers an observer for replace results.
func (s *Service) AddObserver(observer ResultObserver) {
	s.observers = append(s.observers, observer)
}

// ImportDirectory starts a job to import all files from a directory
// below the collection's music dir recursively.
func (s *Service) ImportDirectory(ctx context.Context, collectionID, path string) (string, error) {
	slog.Debug("ImportDirectory service called", "collection_id", collectionID, "path", path)
	if _, err := s.collections.GetCollection(ctx, collectionID); err != nil {
		return "", fmt.Errorf("failed to resolve collection: %w", err)
	}
	jobID, err := s.jobService.StartJob("directory_import", "Directory Import", map[string]any{
		"collection_id": collectionID,
		"path":          path,
	})
	if err != nil {
		slog.Error("Service.ImportDirectory: failed to start job", "error", err)
		return "", fmt.Errorf("failed to start directory import job: %w", err)
	}
	return jobID, nil
}

// replaceMode resolves the configured replace mode, defaulting to
// update-or-create on bad configuration.
func (s *Service) replaceMode() ReplaceMode {
	mode, err := ParseReplaceMode(s.config.Get().Import.Mode)
	if err != nil {
		slog.Warn("Unknown import mode, using update-or-create", "mode", s.config.Get().Import.Mode)
		return UpdateOrCreate
	}
	return mode
}

// ImportFile decodes one file and replaces it into the store.
func (s *Service) ImportFile(ctx context.Context, collectionID, filePath string) (ReplaceResult, error) {
	track, err := s.tagReader.ReadFileTags(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags from %s: %w", filePath, err)
	}
	return s.replaceTrack(ctx, collectionID, s.replaceMode(), track)
}

// replaceTrack prepares the candidate track and runs the replace engine.
//
// Audio properties of an existing entity are only overwritten if the
// candidate is at least as trustworthy; otherwise the stored values are
// kept and marked stale so a decoder-driven re-import can refresh them.
func (s *Service) replaceTrack(ctx context.Context, collectionID string, mode ReplaceMode, track *music.Track) (ReplaceResult, error) {
	located, err := s.store.LocateTracksByPath(ctx, collectionID, track.Source.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to locate existing tracks: %w", err)
	}
	if len(located) == 1 {
		existing := &located[0].Entity.Track
		track.Source.CollectedAt = existing.Source.CollectedAt
		s.reconcileAudioMetadata(existing, track)
	} else {
		track.Source.CollectedAt = time.Now()
	}

	result, err := ReplaceTrack(ctx, s.store, collectionID, mode, *track)
	if err != nil {
		return nil, err
	}
	for _, observer := range s.observers {
		observer.ReplaceFinished(collectionID, result)
	}
	return result, nil
}

// reconcileAudioMetadata applies the content metadata trust gate: the
// candidate's flags are offered to the existing state, and on rejection
// the existing audio properties win.
func (s *Service) reconcileAudioMetadata(existing, candidate *music.Track) {
	flags := existing.Source.MetadataFlags
	if flags.Update(candidate.Source.MetadataFlags) {
		candidate.Source.MetadataFlags = flags
		return
	}
	slog.Debug("Keeping more reliable audio metadata",
		"path", candidate.Source.Path,
		"existing_flags", fmt.Sprintf("%04b", existing.Source.MetadataFlags),
		"candidate_flags", fmt.Sprintf("%04b", candidate.Source.MetadataFlags),
	)
	candidate.Source.Audio = existing.Source.Audio
	candidate.Source.MetadataFlags = flags
}
