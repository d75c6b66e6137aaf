package library

import (
	"context"
	"testing"

	"tonearm/src/music"
)

type mockCollectionStore struct {
	collections map[string]*music.Collection
}

func newMockCollectionStore() *mockCollectionStore {
	return &mockCollectionStore{collections: make(map[string]*music.Collection)}
}

func (m *mockCollectionStore) AddCollection(ctx context.Context, collection *music.Collection) error {
	if _, ok := m.collections[collection.ID]; ok {
		return music.ErrDuplicateEntry
	}
	stored := *collection
	m.collections[collection.ID] = &stored
	return nil
}

func (m *mockCollectionStore) GetCollection(ctx context.Context, id string) (*music.Collection, error) {
	collection, ok := m.collections[id]
	if !ok {
		return nil, music.ErrNotFound
	}
	found := *collection
	return &found, nil
}

func (m *mockCollectionStore) GetCollections(ctx context.Context) ([]*music.Collection, error) {
	all := make([]*music.Collection, 0, len(m.collections))
	for _, collection := range m.collections {
		found := *collection
		all = append(all, &found)
	}
	return all, nil
}

func (m *mockCollectionStore) UpdateCollection(ctx context.Context, collection *music.Collection) error {
	if _, ok := m.collections[collection.ID]; !ok {
		return music.ErrNotFound
	}
	stored := *collection
	m.collections[collection.ID] = &stored
	return nil
}

func (m *mockCollectionStore) DeleteCollection(ctx context.Context, id string) error {
	if _, ok := m.collections[id]; !ok {
		return music.ErrNotFound
	}
	delete(m.collections, id)
	return nil
}

type mockTrackStore struct {
	music.TrackStore

	count int
}

func (m *mockTrackStore) CountTracks(ctx context.Context, collectionID string) (int, error) {
	return m.count, nil
}

type mockCache struct {
	music.DirectoryCache

	status music.AggregateStatus
}

func (m *mockCache) AggregateStatus(ctx context.Context, collectionID, pathPrefix string) (music.AggregateStatus, error) {
	return m.status, nil
}

func TestCreateCollection(t *testing.T) {
	store := newMockCollectionStore()
	service := NewService(store, &mockTrackStore{}, &mockCache{})

	collection, err := service.CreateCollection(context.Background(), "My Library", "local", "/music")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if collection.ID == "" {
		t.Error("expected a generated collection id")
	}
	if collection.CreatedAt.IsZero() {
		t.Error("expected created-at to be set")
	}
	if _, err := store.GetCollection(context.Background(), collection.ID); err != nil {
		t.Errorf("expected collection to be stored, got %v", err)
	}
}

func TestCreateCollection_Invalid(t *testing.T) {
	service := NewService(newMockCollectionStore(), &mockTrackStore{}, &mockCache{})
	if _, err := service.CreateCollection(context.Background(), "", "local", "/music"); err == nil {
		t.Error("expected validation error for empty title")
	}
}

func TestDeleteCollection_NotFound(t *testing.T) {
	service := NewService(newMockCollectionStore(), &mockTrackStore{}, &mockCache{})
	if err := service.DeleteCollection(context.Background(), "missing"); err == nil {
		t.Error("expected an error for an unknown collection")
	}
}

func TestGetStats(t *testing.T) {
	store := newMockCollectionStore()
	tracks := &mockTrackStore{count: 42}
	cache := &mockCache{status: music.AggregateStatus{Current: 10, Orphaned: 1}}
	service := NewService(store, tracks, cache)

	collection, err := service.CreateCollection(context.Background(), "My Library", "local", "/music")
	if err != nil {
		t.Fatal(err)
	}

	stats, err := service.GetStats(context.Background(), collection.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if stats.Tracks != 42 {
		t.Errorf("expected 42 tracks, got %d", stats.Tracks)
	}
	if stats.Directories.Total() != 11 {
		t.Errorf("expected 11 directories, got %d", stats.Directories.Total())
	}
}

func TestGetStats_UnknownCollection(t *testing.T) {
	service := NewService(newMockCollectionStore(), &mockTrackStore{}, &mockCache{})
	if _, err := service.GetStats(context.Background(), "missing"); err == nil {
		t.Error("expected an error for an unknown collection")
	}
}
