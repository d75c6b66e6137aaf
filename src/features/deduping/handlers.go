package deduping

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"tonearm/src/music"
)

// Handler is the handler for the deduping feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the deduping feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// FindByPath is the handler for finding duplicates of the track at a
// media source path.
func (h *Handler) FindByPath(c *fiber.Ctx) error {
	collectionID := c.Params("collectionId")
	path := c.Query("path")
	if path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path query parameter is required"})
	}

	params := h.service.ConfiguredParams()
	if flags := c.QueryInt("flags", -1); flags >= 0 {
		params.SearchFlags = SearchFlags(flags)
	}

	candidates, err := h.service.FindDuplicatesByPath(c.Context(), collectionID, path, params)
	if err != nil {
		if errors.Is(err, music.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "track not found"})
		}
		if errors.Is(err, ErrAmbiguousPath) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		slog.Error("Error finding duplicates", "collection_id", collectionID, "path", path, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"candidates": describeCandidates(candidates)})
}

// FindByTrack is the handler for finding duplicates of a stored track.
func (h *Handler) FindByTrack(c *fiber.Ctx) error {
	collectionID := c.Params("collectionId")
	uid := c.Params("uid")

	candidates, err := h.service.FindDuplicatesByUID(c.Context(), collectionID, uid, h.service.ConfiguredParams())
	if err != nil {
		if errors.Is(err, music.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "track not found"})
		}
		slog.Error("Error finding duplicates", "collection_id", collectionID, "uid", uid, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"candidates": describeCandidates(candidates)})
}

func describeCandidates(candidates []Candidate) []fiber.Map {
	described := make([]fiber.Map, 0, len(candidates))
	for _, candidate := range candidates {
		described = append(described, fiber.Map{
			"uid":         candidate.UID,
			"title":       candidate.Track.Title,
			"artist":      candidate.Track.TrackArtist(),
			"path":        candidate.Track.Source.Path,
			"collectedAt": candidate.Track.Source.CollectedAt,
		})
	}
	return described
}
