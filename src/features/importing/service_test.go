package importing

import (
	"context"
	"testing"

	"tonearm/src/features/config"
	"tonearm/src/music"
)

type stubTagReader struct {
	track *music.Track
	err   error
}

func (s *stubTagReader) ReadFileTags(ctx context.Context, filePath string) (*music.Track, error) {
	if s.err != nil {
		return nil, s.err
	}
	track := *s.track
	track.Source.Path = filePath
	return &track, nil
}

type stubCollections struct{}

func (stubCollections) AddCollection(ctx context.Context, c *music.Collection) error { return nil }
func (stubCollections) GetCollection(ctx context.Context, id string) (*music.Collection, error) {
	return &music.Collection{ID: id, Title: "Test", MusicDir: "/music"}, nil
}
func (stubCollections) GetCollections(ctx context.Context) ([]*music.Collection, error) {
	return nil, nil
}
func (stubCollections) UpdateCollection(ctx context.Context, c *music.Collection) error { return nil }
func (stubCollections) DeleteCollection(ctx context.Context, id string) error           { return nil }

func newImportService(store music.TrackStore, reader TagReader) *Service {
	cfg := config.NewManager(&config.Config{Import: config.Import{Mode: "update-or-create"}})
	return NewService(store, stubCollections{}, reader, cfg, nil)
}

func TestImportFile_CreatesTrack(t *testing.T) {
	store := NewMockTrackStore()
	track := testTrack("placeholder")
	service := newImportService(store, &stubTagReader{track: &track})

	result, err := service.ImportFile(context.Background(), "col-1", "/music/a/one.mp3")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := result.(ReplaceCreated); !ok {
		t.Fatalf("expected ReplaceCreated, got %T", result)
	}
	located, err := store.LocateTracksByPath(context.Background(), "col-1", "/music/a/one.mp3")
	if err != nil {
		t.Fatal(err)
	}
	if len(located) != 1 {
		t.Fatalf("expected 1 stored track, got %d", len(located))
	}
	if located[0].Entity.Track.Source.CollectedAt.IsZero() {
		t.Error("expected collected-at to be set on first import")
	}
}

func TestImportFile_ReimportKeepsReliableAudio(t *testing.T) {
	store := NewMockTrackStore()
	reliable := testTrack("placeholder")
	reliable.Source.Audio.DurationMs = 200000
	reliable.Source.MetadataFlags = music.MetadataReliable
	service := newImportService(store, &stubTagReader{track: &reliable})

	ctx := context.Background()
	if _, err := service.ImportFile(ctx, "col-1", "/music/a/one.mp3"); err != nil {
		t.Fatal(err)
	}

	// Re-import from tags reports a slightly different duration at a
	// lower trust level.
	unreliable := testTrack("placeholder")
	unreliable.Source.Audio.DurationMs = 199000
	unreliable.Source.MetadataFlags = music.MetadataUnreliable
	service.tagReader = &stubTagReader{track: &unreliable}

	result, err := service.ImportFile(ctx, "col-1", "/music/a/one.mp3")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result.(ReplaceUpdated); !ok {
		t.Fatalf("expected ReplaceUpdated, got %T", result)
	}

	located, err := store.LocateTracksByPath(ctx, "col-1", "/music/a/one.mp3")
	if err != nil {
		t.Fatal(err)
	}
	source := located[0].Entity.Track.Source
	if source.Audio.DurationMs != 200000 {
		t.Errorf("expected reliable duration to be preserved, got %f", source.Audio.DurationMs)
	}
	if !source.MetadataFlags.IsReliable() {
		t.Error("expected reliable flag to survive the re-import")
	}
	if !source.MetadataFlags.IsStale() {
		t.Error("expected stale flag after rejected downgrade")
	}
}

func TestImportFile_ReimportUpgradesUnreliableAudio(t *testing.T) {
	store := NewMockTrackStore()
	unreliable := testTrack("placeholder")
	unreliable.Source.Audio.DurationMs = 199000
	service := newImportService(store, &stubTagReader{track: &unreliable})

	ctx := context.Background()
	if _, err := service.ImportFile(ctx, "col-1", "/music/a/one.mp3"); err != nil {
		t.Fatal(err)
	}

	reliable := testTrack("placeholder")
	reliable.Source.Audio.DurationMs = 200000
	reliable.Source.MetadataFlags = music.MetadataReliable
	service.tagReader = &stubTagReader{track: &reliable}

	if _, err := service.ImportFile(ctx, "col-1", "/music/a/one.mp3"); err != nil {
		t.Fatal(err)
	}
	located, err := store.LocateTracksByPath(ctx, "col-1", "/music/a/one.mp3")
	if err != nil {
		t.Fatal(err)
	}
	source := located[0].Entity.Track.Source
	if source.Audio.DurationMs != 200000 {
		t.Errorf("expected upgraded duration, got %f", source.Audio.DurationMs)
	}
	if !source.MetadataFlags.IsReliable() || source.MetadataFlags.IsStale() {
		t.Errorf("expected clean reliable flags, got %04b", source.MetadataFlags)
	}
}

func TestImportFile_PreservesCollectedAt(t *testing.T) {
	store := NewMockTrackStore()
	track := testTrack("placeholder")
	service := newImportService(store, &stubTagReader{track: &track})

	ctx := context.Background()
	if _, err := service.ImportFile(ctx, "col-1", "/music/a/one.mp3"); err != nil {
		t.Fatal(err)
	}
	located, _ := store.LocateTracksByPath(ctx, "col-1", "/music/a/one.mp3")
	firstCollected := located[0].Entity.Track.Source.CollectedAt

	changed := testTrack("placeholder")
	changed.Title = "Revised Title"
	service.tagReader = &stubTagReader{track: &changed}
	if _, err := service.ImportFile(ctx, "col-1", "/music/a/one.mp3"); err != nil {
		t.Fatal(err)
	}
	located, _ = store.LocateTracksByPath(ctx, "col-1", "/music/a/one.mp3")
	if !located[0].Entity.Track.Source.CollectedAt.Equal(firstCollected) {
		t.Error("expected collected-at to be preserved across re-imports")
	}
}
