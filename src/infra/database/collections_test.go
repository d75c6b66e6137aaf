package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"tonearm/src/music"
)

func TestAddCollection_RejectsDuplicateID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	collection := &music.Collection{
		ID:        uuid.New().String(),
		Title:     "Main",
		Kind:      "local",
		MusicDir:  "/music",
		CreatedAt: time.Now(),
	}
	if err := store.AddCollection(ctx, collection); err != nil {
		t.Fatal(err)
	}
	if err := store.AddCollection(ctx, collection); !errors.Is(err, music.ErrDuplicateEntry) {
		t.Errorf("expected ErrDuplicateEntry, got %v", err)
	}
}

func TestGetCollection_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	collection := &music.Collection{
		ID:        uuid.New().String(),
		Title:     "Main",
		Kind:      "local",
		MusicDir:  "/music",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := store.AddCollection(ctx, collection); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.GetCollection(ctx, collection.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Title != collection.Title || loaded.MusicDir != collection.MusicDir {
		t.Errorf("unexpected collection: %+v", loaded)
	}
	if !loaded.CreatedAt.Equal(collection.CreatedAt) {
		t.Errorf("expected created at %v, got %v", collection.CreatedAt, loaded.CreatedAt)
	}
}

func TestUpdateCollection_NotFound(t *testing.T) {
	store := newTestStore(t)
	collection := &music.Collection{
		ID:        uuid.New().String(),
		Title:     "Ghost",
		Kind:      "local",
		MusicDir:  "/music",
		CreatedAt: time.Now(),
	}
	err := store.UpdateCollection(context.Background(), collection)
	if !errors.Is(err, music.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetCollections_ListsAll(t *testing.T) {
	store := newTestStore(t)
	newTestCollection(t, store)
	newTestCollection(t, store)

	collections, err := store.GetCollections(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(collections) != 2 {
		t.Errorf("expected 2 collections, got %d", len(collections))
	}
}
