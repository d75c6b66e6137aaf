package library

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tonearm/src/music"
)

// Service is the domain service for the library feature. It manages
// collections and exposes read access to their tracks.
type Service struct {
	collections music.CollectionStore
	tracks      music.TrackStore
	cache       music.DirectoryCache
}

// NewService creates a new library service.
func NewService(collections music.CollectionStore, tracks music.TrackStore, cache music.DirectoryCache) *Service {
	return &Service{
		collections: collections,
		tracks:      tracks,
		cache:       cache,
	}
}

// CreateCollection creates a new collection rooted at the given music
// directory.
func (s *Service) CreateCollection(ctx context.Context, title, kind, musicDir string) (*music.Collection, error) {
	slog.Debug("CreateCollection service called", "title", title, "music_dir", musicDir)
	collection := &music.Collection{
		ID:        uuid.New().String(),
		Title:     title,
		Kind:      kind,
		MusicDir:  musicDir,
		CreatedAt: time.Now(),
	}
	if err := collection.Validate(); err != nil {
		return nil, err
	}
	if err := s.collections.AddCollection(ctx, collection); err != nil {
		slog.Error("CreateCollection failed", "title", title, "error", err)
		return nil, err
	}
	slog.Info("Collection created", "id", collection.ID, "title", title)
	return collection, nil
}

// GetCollection returns a single collection.
func (s *Service) GetCollection(ctx context.Context, id string) (*music.Collection, error) {
	slog.Debug("GetCollection service called", "id", id)
	collection, err := s.collections.GetCollection(ctx, id)
	if err != nil {
		slog.Error("GetCollection failed", "id", id, "error", err)
		return nil, err
	}
	return collection, nil
}

// GetCollections returns all collections.
func (s *Service) GetCollections(ctx context.Context) ([]*music.Collection, error) {
	slog.Debug("GetCollections service called")
	collections, err := s.collections.GetCollections(ctx)
	if err != nil {
		slog.Error("GetCollections failed", "error", err)
		return nil, err
	}
	slog.Debug("GetCollections completed", "count", len(collections))
	return collections, nil
}

// UpdateCollection updates a collection's metadata.
func (s *Service) UpdateCollection(ctx context.Context, collection *music.Collection) error {
	slog.Debug("UpdateCollection service called", "id", collection.ID)
	if err := collection.Validate(); err != nil {
		return err
	}
	if err := s.collections.UpdateCollection(ctx, collection); err != nil {
		slog.Error("UpdateCollection failed", "id", collection.ID, "error", err)
		return err
	}
	return nil
}

// DeleteCollection deletes a collection. All directory entries and
// tracks below it are deleted as well.
func (s *Service) DeleteCollection(ctx context.Context, id string) error {
	slog.Debug("DeleteCollection service called", "id", id)
	if err := s.collections.DeleteCollection(ctx, id); err != nil {
		slog.Error("DeleteCollection failed", "id", id, "error", err)
		return err
	}
	slog.Info("Collection deleted", "id", id)
	return nil
}

// GetTrack returns one track entity by UID.
func (s *Service) GetTrack(ctx context.Context, uid string) (*music.TrackEntity, error) {
	slog.Debug("GetTrack service called", "uid", uid)
	entity, _, err := s.tracks.LoadTrack(ctx, uid)
	if err != nil {
		slog.Error("GetTrack failed", "uid", uid, "error", err)
		return nil, err
	}
	return entity, nil
}

// GetTracksByPath returns all track entities at a media source path. A
// healthy library has at most one; more than one indicates a data
// integrity problem that callers surface rather than hide.
func (s *Service) GetTracksByPath(ctx context.Context, collectionID, path string) ([]music.TrackEntity, error) {
	slog.Debug("GetTracksByPath service called", "collection_id", collectionID, "path", path)
	located, err := s.tracks.LocateTracksByPath(ctx, collectionID, path)
	if err != nil {
		slog.Error("GetTracksByPath failed", "path", path, "error", err)
		return nil, err
	}
	entities := make([]music.TrackEntity, 0, len(located))
	for _, l := range located {
		entities = append(entities, l.Entity)
	}
	return entities, nil
}

// GetTracksCount returns the number of tracks in a collection.
func (s *Service) GetTracksCount(ctx context.Context, collectionID string) (int, error) {
	slog.Debug("GetTracksCount service called", "collection_id", collectionID)
	count, err := s.tracks.CountTracks(ctx, collectionID)
	if err != nil {
		slog.Error("GetTracksCount failed", "collection_id", collectionID, "error", err)
		return 0, err
	}
	return count, nil
}

// DeleteTrack deletes a track from the library.
func (s *Service) DeleteTrack(ctx context.Context, uid string) error {
	slog.Debug("DeleteTrack service called", "uid", uid)
	if err := s.tracks.DeleteTrack(ctx, uid); err != nil {
		slog.Error("DeleteTrack failed", "uid", uid, "error", err)
		return err
	}
	return nil
}

// Stats summarizes one collection: track count plus the directory
// tracking status.
type Stats struct {
	Collection  *music.Collection
	Tracks      int
	Directories music.AggregateStatus
}

// GetStats returns the statistics of one collection.
func (s *Service) GetStats(ctx context.Context, collectionID string) (*Stats, error) {
	slog.Debug("GetStats service called", "collection_id", collectionID)
	collection, err := s.collections.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve collection: %w", err)
	}
	tracks, err := s.tracks.CountTracks(ctx, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tracks: %w", err)
	}
	directories, err := s.cache.AggregateStatus(ctx, collectionID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate directory status: %w", err)
	}
	return &Stats{Collection: collection, Tracks: tracks, Directories: directories}, nil
}
