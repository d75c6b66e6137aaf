package deduping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tonearm/src/features/config"
	"tonearm/src/music"
)

// ErrAmbiguousPath is returned when more than one track references the
// media source path, so no single query track can be chosen.
var ErrAmbiguousPath = errors.New("ambiguous media source path")

// SearchFlags selects which track fields participate in the duplicate
// candidate filter. Every enabled flag narrows the search further.
type SearchFlags uint8

const (
	SearchNone          SearchFlags = 0b00000000
	SearchSourceTracked SearchFlags = 0b00000001
	SearchAlbumArtist   SearchFlags = 0b00000010
	SearchAlbumTitle    SearchFlags = 0b00000100
	SearchTrackArtist   SearchFlags = 0b00001000
	SearchTrackTitle    SearchFlags = 0b00010000
	SearchReleaseDate   SearchFlags = 0b00100000
	SearchAll           SearchFlags = 0b00111111
)

// Has reports whether all bits of flag are set.
func (f SearchFlags) Has(flag SearchFlags) bool {
	return f&flag == flag
}

// Params are the tolerances of a duplicate candidate search.
type Params struct {
	// AudioDurationToleranceMs widens the duration constraint to
	// [duration-tolerance, duration+tolerance].
	AudioDurationToleranceMs float64
	// MaxResults bounds the candidate set. Two results are enough to
	// tell "exactly one candidate" from "more than one".
	MaxResults  int
	SearchFlags SearchFlags
}

// DefaultParams returns the default search tolerances.
func DefaultParams() Params {
	return Params{
		AudioDurationToleranceMs: 500,
		MaxResults:               2,
		SearchFlags:              SearchAll,
	}
}

// Candidate is one likely duplicate of the queried track.
type Candidate struct {
	UID   string
	Track music.Track
}

// Service finds likely duplicate tracks within a collection.
type Service struct {
	store       music.TrackStore
	collections music.CollectionStore
	config      *config.Manager
}

// NewService creates a new deduping service.
func NewService(store music.TrackStore, collections music.CollectionStore, cfg *config.Manager) *Service {
	return &Service{store: store, collections: collections, config: cfg}
}

// ConfiguredParams resolves the search tolerances from the configuration,
// falling back to the defaults for unset values.
func (s *Service) ConfiguredParams() Params {
	params := DefaultParams()
	cfg := s.config.Get().Dedup
	if cfg.DurationToleranceMs > 0 {
		params.AudioDurationToleranceMs = cfg.DurationToleranceMs
	}
	if cfg.MaxResults > 0 {
		params.MaxResults = cfg.MaxResults
	}
	return params
}

// FindDuplicates searches the collection for tracks that look like
// duplicates of the given track. The track's own UID is never part of the
// result, and at most params.MaxResults candidates are returned, newest
// collected first.
func (s *Service) FindDuplicates(ctx context.Context, collectionID, trackUID string, track *music.Track, params Params) ([]Candidate, error) {
	if params.MaxResults <= 0 {
		return nil, fmt.Errorf("max results must be positive, got %d", params.MaxResults)
	}

	filter := buildFilter(track, params)
	ordering := []music.SortOrder{{Field: music.SortCollectedAt, Direction: music.SortDescending}}
	// One extra row so that a self-match does not eat into the bound.
	entities, err := s.store.SearchTracks(ctx, collectionID, filter, ordering, params.MaxResults+1)
	if err != nil {
		return nil, fmt.Errorf("duplicate search failed: %w", err)
	}

	candidates := make([]Candidate, 0, params.MaxResults)
	for _, entity := range entities {
		if entity.Header.UID == trackUID {
			continue
		}
		if len(candidates) == params.MaxResults {
			break
		}
		candidates = append(candidates, Candidate{UID: entity.Header.UID, Track: entity.Track})
	}
	slog.Debug("Duplicate search finished",
		"collection_id", collectionID,
		"track_uid", trackUID,
		"candidates", len(candidates),
	)
	return candidates, nil
}

// FindDuplicatesByPath locates the track at the given media source path
// and searches for its duplicates.
func (s *Service) FindDuplicatesByPath(ctx context.Context, collectionID, path string, params Params) ([]Candidate, error) {
	if _, err := s.collections.GetCollection(ctx, collectionID); err != nil {
		return nil, fmt.Errorf("failed to resolve collection: %w", err)
	}
	located, err := s.store.LocateTracksByPath(ctx, collectionID, path)
	if err != nil {
		return nil, fmt.Errorf("failed to locate track at %s: %w", path, err)
	}
	switch len(located) {
	case 0:
		return nil, fmt.Errorf("no track at path %s: %w", path, music.ErrNotFound)
	case 1:
	default:
		return nil, fmt.Errorf("%w %s: %d matches", ErrAmbiguousPath, path, len(located))
	}
	entity := located[0].Entity
	return s.FindDuplicates(ctx, collectionID, entity.Header.UID, &entity.Track, params)
}

// FindDuplicatesByUID loads a stored track and searches for its
// duplicates.
func (s *Service) FindDuplicatesByUID(ctx context.Context, collectionID, uid string, params Params) ([]Candidate, error) {
	entity, _, err := s.store.LoadTrack(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load track %s: %w", uid, err)
	}
	return s.FindDuplicates(ctx, collectionID, uid, &entity.Track, params)
}

// buildFilter assembles the conjunctive candidate filter: one phrase
// sub-filter per enabled non-empty field, and unconditionally the audio
// duration window and the content type.
func buildFilter(track *music.Track, params Params) music.Filter {
	filters := make(music.AllFilter, 0, 8)
	if params.SearchFlags.Has(SearchTrackArtist) {
		if artist := track.TrackArtist(); artist != "" {
			filters = append(filters, phrase(music.FieldTrackArtist, artist))
		}
	}
	if params.SearchFlags.Has(SearchTrackTitle) {
		if title := strings.TrimSpace(track.Title); title != "" {
			filters = append(filters, phrase(music.FieldTrackTitle, title))
		}
	}
	if params.SearchFlags.Has(SearchAlbumArtist) {
		if artist := strings.TrimSpace(track.AlbumArtist); artist != "" {
			filters = append(filters, phrase(music.FieldAlbumArtist, artist))
		}
	}
	if params.SearchFlags.Has(SearchAlbumTitle) {
		if title := strings.TrimSpace(track.AlbumTitle); title != "" {
			filters = append(filters, phrase(music.FieldAlbumTitle, title))
		}
	}
	if params.SearchFlags.Has(SearchReleaseDate) {
		if track.ReleaseDate != "" {
			date := track.ReleaseDate
			filters = append(filters, music.ReleaseDateFilter{Equals: &date})
		} else {
			// No release date matches only tracks that also have none.
			filters = append(filters, music.ReleaseDateFilter{})
		}
	}
	if params.SearchFlags.Has(SearchSourceTracked) {
		filters = append(filters, music.SourceTracked)
	}

	// Only sources with a similar audio duration.
	if duration := track.Source.Audio.DurationMs; duration > 0 {
		lower := duration - params.AudioDurationToleranceMs
		upper := duration + params.AudioDurationToleranceMs
		filters = append(filters, music.NumericRangeFilter{
			Field: music.FieldAudioDurationMs,
			Min:   &lower,
			Max:   &upper,
		})
	} else {
		// Unknown duration matches only tracks with unknown duration.
		filters = append(filters, music.NumericRangeFilter{Field: music.FieldAudioDurationMs})
	}

	// Only sources with the equal content type.
	filters = append(filters, phrase(music.FieldSourceType, track.Source.ContentType))
	return filters
}

func phrase(field music.StringField, term string) music.PhraseFilter {
	return music.PhraseFilter{Field: field, Terms: []string{music.NormalizeSearchTerm(term)}}
}
