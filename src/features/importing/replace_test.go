package importing

import (
	"context"
	"testing"

	"tonearm/src/music"
)

// MockTrackStore is an in-memory implementation of music.TrackStore.
type MockTrackStore struct {
	records map[string]*storedTrack // keyed by UID

	updateCalls int
	insertCalls int
	// forceConflict makes every UpdateTrack lose the revision race.
	forceConflict bool
}

type storedTrack struct {
	collectionID string
	entity       music.TrackEntity
	payload      music.TrackPayload
}

func NewMockTrackStore() *MockTrackStore {
	return &MockTrackStore{records: make(map[string]*storedTrack)}
}

func (m *MockTrackStore) InsertTrack(ctx context.Context, collectionID string, entity music.TrackEntity, payload music.TrackPayload) error {
	m.insertCalls++
	if _, ok := m.records[entity.Header.UID]; ok {
		return music.ErrDuplicateEntry
	}
	m.records[entity.Header.UID] = &storedTrack{collectionID: collectionID, entity: entity, payload: payload}
	return nil
}

func (m *MockTrackStore) UpdateTrack(ctx context.Context, entity music.TrackEntity, payload music.TrackPayload) (music.UpdateResult, error) {
	m.updateCalls++
	record, ok := m.records[entity.Header.UID]
	if !ok {
		return music.UpdateResult{Outcome: music.UpdateNotFound}, nil
	}
	if m.forceConflict || record.entity.Header.Rev != entity.Header.Rev {
		return music.UpdateResult{Outcome: music.UpdateConflict, Rev: record.entity.Header.Rev}, nil
	}
	entity.Header = entity.Header.NextRev()
	record.entity = entity
	record.payload = payload
	return music.UpdateResult{Outcome: music.UpdateApplied, Rev: entity.Header.Rev}, nil
}

func (m *MockTrackStore) LoadTrack(ctx context.Context, uid string) (*music.TrackEntity, *music.TrackPayload, error) {
	record, ok := m.records[uid]
	if !ok {
		return nil, nil, music.ErrNotFound
	}
	entity := record.entity
	payload := record.payload
	return &entity, &payload, nil
}

func (m *MockTrackStore) LoadTracks(ctx context.Context, uids []string) ([]music.TrackEntity, error) {
	entities := make([]music.TrackEntity, 0, len(uids))
	for _, uid := range uids {
		if record, ok := m.records[uid]; ok {
			entities = append(entities, record.entity)
		}
	}
	return entities, nil
}

func (m *MockTrackStore) LocateTracksByPath(ctx context.Context, collectionID, path string) ([]music.LocatedTrack, error) {
	var located []music.LocatedTrack
	for _, record := range m.records {
		if collectionID != "" && record.collectionID != collectionID {
			continue
		}
		if record.entity.Track.Source.Path == path {
			located = append(located, music.LocatedTrack{Entity: record.entity, Payload: record.payload})
		}
	}
	return located, nil
}

func (m *MockTrackStore) SearchTracks(ctx context.Context, collectionID string, filter music.Filter, ordering []music.SortOrder, limit int) ([]music.TrackEntity, error) {
	return nil, nil
}

func (m *MockTrackStore) CountTracks(ctx context.Context, collectionID string) (int, error) {
	count := 0
	for _, record := range m.records {
		if collectionID == "" || record.collectionID == collectionID {
			count++
		}
	}
	return count, nil
}

func (m *MockTrackStore) DeleteTrack(ctx context.Context, uid string) error {
	if _, ok := m.records[uid]; !ok {
		return music.ErrNotFound
	}
	delete(m.records, uid)
	return nil
}

func testTrack(path string) music.Track {
	return music.Track{
		Title:  "Test Title",
		Artist: "Test Artist",
		Source: music.MediaSource{
			Path:        path,
			ContentType: "audio/mpeg",
			Audio:       music.AudioContent{DurationMs: 215000},
		},
	}
}

func TestReplaceTrack_CreatesWhenMissing(t *testing.T) {
	store := NewMockTrackStore()
	result, err := ReplaceTrack(context.Background(), store, "col-1", UpdateOrCreate, testTrack("x.mp3"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	created, ok := result.(ReplaceCreated)
	if !ok {
		t.Fatalf("expected ReplaceCreated, got %T", result)
	}
	if created.Header.Rev != 0 {
		t.Errorf("expected a fresh entity at revision 0, got %d", created.Header.Rev)
	}
}

func TestReplaceTrack_UpdateOnlyDoesNotCreate(t *testing.T) {
	store := NewMockTrackStore()
	result, err := ReplaceTrack(context.Background(), store, "col-1", UpdateOnly, testTrack("x.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result.(ReplaceNotCreated); !ok {
		t.Errorf("expected ReplaceNotCreated, got %T", result)
	}
	if store.insertCalls != 0 {
		t.Error("expected no insert in update-only mode")
	}
}

func TestReplaceTrack_IdenticalPayloadIsUnchanged(t *testing.T) {
	store := NewMockTrackStore()
	ctx := context.Background()
	track := testTrack("x.mp3")
	if _, err := ReplaceTrack(ctx, store, "col-1", UpdateOrCreate, track); err != nil {
		t.Fatal(err)
	}

	result, err := ReplaceTrack(ctx, store, "col-1", UpdateOrCreate, track)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result.(ReplaceUnchanged); !ok {
		t.Fatalf("expected ReplaceUnchanged, got %T", result)
	}
	if store.updateCalls != 0 {
		t.Error("unchanged replace must not issue a write")
	}
}

func TestReplaceTrack_ChangedPayloadBumpsRevision(t *testing.T) {
	store := NewMockTrackStore()
	ctx := context.Background()
	track := testTrack("x.mp3")
	if _, err := ReplaceTrack(ctx, store, "col-1", UpdateOrCreate, track); err != nil {
		t.Fatal(err)
	}

	track.Title = "Revised Title"
	result, err := ReplaceTrack(ctx, store, "col-1", UpdateOrCreate, track)
	if err != nil {
		t.Fatal(err)
	}
	updated, ok := result.(ReplaceUpdated)
	if !ok {
		t.Fatalf("expected ReplaceUpdated, got %T", result)
	}
	if updated.Header.Rev != 1 {
		t.Errorf("expected revision 1 after one update, got %d", updated.Header.Rev)
	}
}

func TestReplaceTrack_AmbiguousPath(t *testing.T) {
	store := NewMockTrackStore()
	ctx := context.Background()
	for range 2 {
		entity := music.TrackEntity{Header: music.NewEntityHeader(), Track: testTrack("x.mp3")}
		payload, err := music.MarshalTrackPayload(&entity.Track)
		if err != nil {
			t.Fatal(err)
		}
		if err := store.InsertTrack(ctx, "col-1", entity, payload); err != nil {
			t.Fatal(err)
		}
	}

	before := store.updateCalls + store.insertCalls
	result, err := ReplaceTrack(ctx, store, "col-1", UpdateOrCreate, testTrack("x.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	ambiguous, ok := result.(ReplaceAmbiguous)
	if !ok {
		t.Fatalf("expected ReplaceAmbiguous, got %T", result)
	}
	if ambiguous.Matches != 2 {
		t.Errorf("expected 2 matches, got %d", ambiguous.Matches)
	}
	if store.updateCalls+store.insertCalls != before {
		t.Error("ambiguous path must not mutate anything")
	}
}

func TestReplaceTrack_IncompatiblePayloadVersion(t *testing.T) {
	store := NewMockTrackStore()
	ctx := context.Background()
	track := testTrack("x.mp3")
	entity := music.TrackEntity{Header: music.NewEntityHeader(), Track: track}
	payload, err := music.MarshalTrackPayload(&track)
	if err != nil {
		t.Fatal(err)
	}
	payload.Version = music.PayloadVersion{Major: 0, Minor: 9}
	if err := store.InsertTrack(ctx, "col-1", entity, payload); err != nil {
		t.Fatal(err)
	}

	result, err := ReplaceTrack(ctx, store, "col-1", UpdateOrCreate, track)
	if err != nil {
		t.Fatal(err)
	}
	incompatible, ok := result.(ReplaceIncompatibleVersion)
	if !ok {
		t.Fatalf("expected ReplaceIncompatibleVersion, got %T", result)
	}
	if incompatible.Version.Major != 0 || incompatible.Version.Minor != 9 {
		t.Errorf("expected stored version 0.9, got %s", incompatible.Version)
	}
}

func TestReplaceTrack_ConflictAfterLocateIsHardError(t *testing.T) {
	store := NewMockTrackStore()
	ctx := context.Background()
	track := testTrack("x.mp3")
	if _, err := ReplaceTrack(ctx, store, "col-1", UpdateOrCreate, track); err != nil {
		t.Fatal(err)
	}

	store.forceConflict = true
	track.Title = "Revised Title"
	if _, err := ReplaceTrack(ctx, store, "col-1", UpdateOrCreate, track); err == nil {
		t.Error("expected a hard error when the update conflicts right after locate")
	}
}

func TestReplaceTrack_CreateOnlyDoesNotUpdate(t *testing.T) {
	store := NewMockTrackStore()
	ctx := context.Background()
	track := testTrack("x.mp3")
	if _, err := ReplaceTrack(ctx, store, "col-1", CreateOnly, track); err != nil {
		t.Fatal(err)
	}

	track.Title = "Revised Title"
	result, err := ReplaceTrack(ctx, store, "col-1", CreateOnly, track)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result.(ReplaceNotCreated); !ok {
		t.Errorf("expected ReplaceNotCreated for occupied path in create-only mode, got %T", result)
	}
	if store.updateCalls != 0 {
		t.Error("create-only mode must never update")
	}
}

func TestReplaceTrack_InvalidTrack(t *testing.T) {
	store := NewMockTrackStore()
	track := testTrack("")
	if _, err := ReplaceTrack(context.Background(), store, "col-1", UpdateOrCreate, track); err == nil {
		t.Error("expected validation error for track without path")
	}
}

func TestParseReplaceMode(t *testing.T) {
	for _, mode := range []ReplaceMode{UpdateOrCreate, UpdateOnly, CreateOnly} {
		parsed, err := ParseReplaceMode(mode.String())
		if err != nil {
			t.Fatalf("expected no error for %s, got %v", mode, err)
		}
		if parsed != mode {
			t.Errorf("expected %v, got %v", mode, parsed)
		}
	}
	if _, err := ParseReplaceMode("upsert"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestBatchSummary_Tally(t *testing.T) {
	var summary BatchSummary
	header := music.NewEntityHeader()
	for _, result := range []ReplaceResult{
		ReplaceCreated{Header: header},
		ReplaceUpdated{Header: header},
		ReplaceUnchanged{Header: header},
		ReplaceNotCreated{},
		ReplaceAmbiguous{Matches: 2},
		ReplaceIncompatibleFormat{Format: music.PayloadFormatJSON},
		ReplaceIncompatibleVersion{Version: music.PayloadVersionV1},
	} {
		summary.Tally(result)
	}
	if summary.Created != 1 || summary.Updated != 1 || summary.Unchanged != 1 || summary.NotCreated != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if summary.Conflicts != 3 {
		t.Errorf("expected 3 conflicts, got %d", summary.Conflicts)
	}
	if summary.Total() != 7 {
		t.Errorf("expected total 7, got %d", summary.Total())
	}
}

