package deduping

import (
	"context"
	"errors"
	"testing"

	"tonearm/src/features/config"
	"tonearm/src/music"
)

// capturingStore records the filter of the last search and returns a
// canned result set.
type capturingStore struct {
	music.TrackStore

	lastFilter   music.Filter
	lastOrdering []music.SortOrder
	lastLimit    int
	results      []music.TrackEntity
	located      []music.LocatedTrack
	loaded       music.TrackEntity
}

func (s *capturingStore) SearchTracks(ctx context.Context, collectionID string, filter music.Filter, ordering []music.SortOrder, limit int) ([]music.TrackEntity, error) {
	s.lastFilter = filter
	s.lastOrdering = ordering
	s.lastLimit = limit
	return s.results, nil
}

func (s *capturingStore) LocateTracksByPath(ctx context.Context, collectionID, path string) ([]music.LocatedTrack, error) {
	return s.located, nil
}

func (s *capturingStore) LoadTrack(ctx context.Context, uid string) (*music.TrackEntity, *music.TrackPayload, error) {
	if s.loaded.Header.UID != uid {
		return nil, nil, music.ErrNotFound
	}
	entity := s.loaded
	return &entity, &music.TrackPayload{}, nil
}

type fixedCollections struct{}

func (fixedCollections) AddCollection(ctx context.Context, c *music.Collection) error { return nil }
func (fixedCollections) GetCollection(ctx context.Context, id string) (*music.Collection, error) {
	return &music.Collection{ID: id, Title: "Test", MusicDir: "/music"}, nil
}
func (fixedCollections) GetCollections(ctx context.Context) ([]*music.Collection, error) {
	return nil, nil
}
func (fixedCollections) UpdateCollection(ctx context.Context, c *music.Collection) error { return nil }
func (fixedCollections) DeleteCollection(ctx context.Context, id string) error           { return nil }

func newDedupService(store music.TrackStore) *Service {
	return NewService(store, fixedCollections{}, config.NewManager(&config.Config{}))
}

func queryTrack() *music.Track {
	return &music.Track{
		Title:       "Morning Song",
		Artist:      "Beyoncé",
		AlbumTitle:  "First Album",
		AlbumArtist: "Beyoncé",
		ReleaseDate: "2016-04-23",
		Source: music.MediaSource{
			Path:        "/music/a/one.mp3",
			ContentType: "audio/mpeg",
			Audio:       music.AudioContent{DurationMs: 215000},
		},
	}
}

func entityWithUID(uid string) music.TrackEntity {
	return music.TrackEntity{
		Header: music.EntityHeader{UID: uid},
		Track:  *queryTrack(),
	}
}

// flattenFilters collects the top-level conjunction into a slice.
func flattenFilters(t *testing.T, filter music.Filter) []music.Filter {
	t.Helper()
	all, ok := filter.(music.AllFilter)
	if !ok {
		t.Fatalf("expected AllFilter at the top level, got %T", filter)
	}
	return all
}

func findPhrase(filters []music.Filter, field music.StringField) (music.PhraseFilter, bool) {
	for _, f := range filters {
		if phrase, ok := f.(music.PhraseFilter); ok && phrase.Field == field {
			return phrase, true
		}
	}
	return music.PhraseFilter{}, false
}

func TestFindDuplicates_SelfExclusion(t *testing.T) {
	store := &capturingStore{results: []music.TrackEntity{
		entityWithUID("self"),
		entityWithUID("other"),
	}}
	service := newDedupService(store)

	candidates, err := service.FindDuplicates(context.Background(), "col-1", "self", queryTrack(), DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	for _, candidate := range candidates {
		if candidate.UID == "self" {
			t.Error("query track must never appear in its own candidate set")
		}
	}
	if len(candidates) != 1 || candidates[0].UID != "other" {
		t.Errorf("expected only the other track, got %+v", candidates)
	}
}

func TestFindDuplicates_MaxResultsTruncation(t *testing.T) {
	store := &capturingStore{results: []music.TrackEntity{
		entityWithUID("a"), entityWithUID("b"), entityWithUID("c"), entityWithUID("d"),
	}}
	service := newDedupService(store)

	params := DefaultParams()
	params.MaxResults = 2
	candidates, err := service.FindDuplicates(context.Background(), "col-1", "self", queryTrack(), params)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	// The store is asked for one extra row to absorb a self-match.
	if store.lastLimit != 3 {
		t.Errorf("expected search limit 3, got %d", store.lastLimit)
	}
}

func TestFindDuplicates_FlagGatedFilters(t *testing.T) {
	store := &capturingStore{}
	service := newDedupService(store)

	params := DefaultParams()
	params.SearchFlags = SearchTrackTitle | SearchTrackArtist
	if _, err := service.FindDuplicates(context.Background(), "col-1", "self", queryTrack(), params); err != nil {
		t.Fatal(err)
	}

	filters := flattenFilters(t, store.lastFilter)
	if _, ok := findPhrase(filters, music.FieldTrackTitle); !ok {
		t.Error("expected a track title filter")
	}
	if _, ok := findPhrase(filters, music.FieldTrackArtist); !ok {
		t.Error("expected a track artist filter")
	}
	if _, ok := findPhrase(filters, music.FieldAlbumTitle); ok {
		t.Error("album title filter must be gated off")
	}
	for _, f := range filters {
		if _, ok := f.(music.ReleaseDateFilter); ok {
			t.Error("release date filter must be gated off")
		}
		if _, ok := f.(music.ConditionFilter); ok {
			t.Error("source tracked filter must be gated off")
		}
	}
}

func TestFindDuplicates_AlwaysConstrainsDurationAndContentType(t *testing.T) {
	store := &capturingStore{}
	service := newDedupService(store)

	params := DefaultParams()
	params.SearchFlags = SearchNone
	params.AudioDurationToleranceMs = 500
	if _, err := service.FindDuplicates(context.Background(), "col-1", "self", queryTrack(), params); err != nil {
		t.Fatal(err)
	}

	filters := flattenFilters(t, store.lastFilter)
	var rangeFilter *music.NumericRangeFilter
	for _, f := range filters {
		if nr, ok := f.(music.NumericRangeFilter); ok {
			rangeFilter = &nr
		}
	}
	if rangeFilter == nil {
		t.Fatal("expected a duration range filter even with no search flags")
	}
	if rangeFilter.Min == nil || *rangeFilter.Min != 214500 {
		t.Errorf("expected lower bound 214500, got %v", rangeFilter.Min)
	}
	if rangeFilter.Max == nil || *rangeFilter.Max != 215500 {
		t.Errorf("expected upper bound 215500, got %v", rangeFilter.Max)
	}

	contentType, ok := findPhrase(filters, music.FieldSourceType)
	if !ok {
		t.Fatal("expected a content type filter even with no search flags")
	}
	if len(contentType.Terms) != 1 || contentType.Terms[0] != "audio/mpeg" {
		t.Errorf("unexpected content type terms: %v", contentType.Terms)
	}
}

func TestFindDuplicates_NormalizesPhraseTerms(t *testing.T) {
	store := &capturingStore{}
	service := newDedupService(store)

	track := queryTrack()
	track.Artist = "  Beyoncé "
	if _, err := service.FindDuplicates(context.Background(), "col-1", "self", track, DefaultParams()); err != nil {
		t.Fatal(err)
	}

	filters := flattenFilters(t, store.lastFilter)
	artist, ok := findPhrase(filters, music.FieldTrackArtist)
	if !ok {
		t.Fatal("expected a track artist filter")
	}
	if len(artist.Terms) != 1 || artist.Terms[0] != "beyonce" {
		t.Errorf("expected normalized term %q, got %v", "beyonce", artist.Terms)
	}
}

func TestFindDuplicates_UnknownDurationMatchesUnknownOnly(t *testing.T) {
	store := &capturingStore{}
	service := newDedupService(store)

	track := queryTrack()
	track.Source.Audio.DurationMs = 0
	if _, err := service.FindDuplicates(context.Background(), "col-1", "self", track, DefaultParams()); err != nil {
		t.Fatal(err)
	}

	filters := flattenFilters(t, store.lastFilter)
	for _, f := range filters {
		if nr, ok := f.(music.NumericRangeFilter); ok {
			if nr.Min != nil || nr.Max != nil {
				t.Errorf("expected an unbounded range for unknown duration, got %+v", nr)
			}
			return
		}
	}
	t.Fatal("expected a duration filter")
}

func TestFindDuplicates_OrdersByCollectedAtDescending(t *testing.T) {
	store := &capturingStore{}
	service := newDedupService(store)

	if _, err := service.FindDuplicates(context.Background(), "col-1", "self", queryTrack(), DefaultParams()); err != nil {
		t.Fatal(err)
	}
	if len(store.lastOrdering) != 1 {
		t.Fatalf("expected a single ordering term, got %d", len(store.lastOrdering))
	}
	order := store.lastOrdering[0]
	if order.Field != music.SortCollectedAt || order.Direction != music.SortDescending {
		t.Errorf("expected collected-at descending, got %+v", order)
	}
}

func TestFindDuplicatesByPath_AmbiguousPath(t *testing.T) {
	store := &capturingStore{located: []music.LocatedTrack{
		{Entity: entityWithUID("a")},
		{Entity: entityWithUID("b")},
	}}
	service := newDedupService(store)

	_, err := service.FindDuplicatesByPath(context.Background(), "col-1", "/music/a/one.mp3", DefaultParams())
	if !errors.Is(err, ErrAmbiguousPath) {
		t.Errorf("expected ErrAmbiguousPath, got %v", err)
	}
}

func TestFindDuplicatesByUID(t *testing.T) {
	store := &capturingStore{
		loaded: entityWithUID("self"),
		results: []music.TrackEntity{
			entityWithUID("self"),
			entityWithUID("other"),
		},
	}
	service := newDedupService(store)

	candidates, err := service.FindDuplicatesByUID(context.Background(), "col-1", "self", DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 || candidates[0].UID != "other" {
		t.Fatalf("expected only the other track as candidate, got %+v", candidates)
	}
}

func TestFindDuplicatesByUID_UnknownTrack(t *testing.T) {
	service := newDedupService(&capturingStore{})

	_, err := service.FindDuplicatesByUID(context.Background(), "col-1", "missing", DefaultParams())
	if !errors.Is(err, music.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConfiguredParams_Defaults(t *testing.T) {
	service := newDedupService(&capturingStore{})
	params := service.ConfiguredParams()
	if params.AudioDurationToleranceMs != 500 || params.MaxResults != 2 || params.SearchFlags != SearchAll {
		t.Errorf("unexpected default params: %+v", params)
	}
}
