package library

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"tonearm/src/music"
)

// Handler is the handler for the library feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the library feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createCollectionRequest struct {
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	MusicDir string `json:"musicDir"`
}

// CreateCollection is the handler for creating a collection.
func (h *Handler) CreateCollection(c *fiber.Ctx) error {
	var req createCollectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	collection, err := h.service.CreateCollection(c.Context(), req.Title, req.Kind, req.MusicDir)
	if err != nil {
		slog.Error("Error creating collection", "title", req.Title, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(describeCollection(collection))
}

// GetCollections is the handler for listing all collections.
func (h *Handler) GetCollections(c *fiber.Ctx) error {
	collections, err := h.service.GetCollections(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	described := make([]fiber.Map, 0, len(collections))
	for _, collection := range collections {
		described = append(described, describeCollection(collection))
	}
	return c.JSON(fiber.Map{"collections": described})
}

// GetCollection is the handler for loading one collection.
func (h *Handler) GetCollection(c *fiber.Ctx) error {
	id := c.Params("collectionId")
	collection, err := h.service.GetCollection(c.Context(), id)
	if err != nil {
		if errors.Is(err, music.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "collection not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(describeCollection(collection))
}

// UpdateCollection is the handler for updating a collection's metadata.
func (h *Handler) UpdateCollection(c *fiber.Ctx) error {
	id := c.Params("collectionId")
	collection, err := h.service.GetCollection(c.Context(), id)
	if err != nil {
		if errors.Is(err, music.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "collection not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var req createCollectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Title != "" {
		collection.Title = req.Title
	}
	if req.Kind != "" {
		collection.Kind = req.Kind
	}
	if req.MusicDir != "" {
		collection.MusicDir = req.MusicDir
	}
	if err := h.service.UpdateCollection(c.Context(), collection); err != nil {
		slog.Error("Error updating collection", "id", id, "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(describeCollection(collection))
}

// DeleteCollection is the handler for deleting a collection.
func (h *Handler) DeleteCollection(c *fiber.Ctx) error {
	id := c.Params("collectionId")
	if err := h.service.DeleteCollection(c.Context(), id); err != nil {
		if errors.Is(err, music.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "collection not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetStats is the handler for collection statistics.
func (h *Handler) GetStats(c *fiber.Ctx) error {
	id := c.Params("collectionId")
	stats, err := h.service.GetStats(c.Context(), id)
	if err != nil {
		if errors.Is(err, music.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "collection not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"collection": describeCollection(stats.Collection),
		"tracks":     stats.Tracks,
		"directories": fiber.Map{
			"current":  stats.Directories.Current,
			"outdated": stats.Directories.Outdated,
			"added":    stats.Directories.Added,
			"modified": stats.Directories.Modified,
			"orphaned": stats.Directories.Orphaned,
			"total":    stats.Directories.Total(),
		},
	})
}

// GetTrack is the handler for loading one track by UID.
func (h *Handler) GetTrack(c *fiber.Ctx) error {
	uid := c.Params("uid")
	entity, err := h.service.GetTrack(c.Context(), uid)
	if err != nil {
		if errors.Is(err, music.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "track not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(describeTrack(entity))
}

// GetTracksByPath is the handler for locating tracks at a media source
// path.
func (h *Handler) GetTracksByPath(c *fiber.Ctx) error {
	collectionID := c.Params("collectionId")
	path := c.Query("path")
	if path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path query parameter is required"})
	}
	entities, err := h.service.GetTracksByPath(c.Context(), collectionID, path)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	described := make([]fiber.Map, 0, len(entities))
	for i := range entities {
		described = append(described, describeTrack(&entities[i]))
	}
	return c.JSON(fiber.Map{"tracks": described})
}

// DeleteTrack is the handler for deleting a track.
func (h *Handler) DeleteTrack(c *fiber.Ctx) error {
	uid := c.Params("uid")
	if err := h.service.DeleteTrack(c.Context(), uid); err != nil {
		if errors.Is(err, music.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "track not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func describeCollection(collection *music.Collection) fiber.Map {
	return fiber.Map{
		"id":        collection.ID,
		"title":     collection.Title,
		"kind":      collection.Kind,
		"musicDir":  collection.MusicDir,
		"createdAt": collection.CreatedAt,
	}
}

func describeTrack(entity *music.TrackEntity) fiber.Map {
	return fiber.Map{
		"uid":         entity.Header.UID,
		"rev":         entity.Header.Rev,
		"title":       entity.Track.Title,
		"artist":      entity.Track.TrackArtist(),
		"albumTitle":  entity.Track.AlbumTitle,
		"albumArtist": entity.Track.AlbumArtist,
		"releaseDate": entity.Track.ReleaseDate,
		"path":        entity.Track.Source.Path,
		"contentType": entity.Track.Source.ContentType,
		"durationMs":  entity.Track.Source.Audio.DurationMs,
		"collectedAt": entity.Track.Source.CollectedAt,
	}
}
