package scanning

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"tonearm/src/music"
)

// Handler is the handler for the scanning feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the scanning feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// StartScan is the handler for starting a collection scan job.
func (h *Handler) StartScan(c *fiber.Ctx) error {
	collectionID := c.Params("collectionId")
	jobID, err := h.service.StartScan(c.Context(), collectionID)
	if err != nil {
		slog.Error("Error starting scan", "collection_id", collectionID, "error", err)
		if errors.Is(err, music.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "collection not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"jobId": jobID})
}

// GetStatus is the handler for the aggregate tracking status.
func (h *Handler) GetStatus(c *fiber.Ctx) error {
	collectionID := c.Params("collectionId")
	pathPrefix := c.Query("prefix")
	status, err := h.service.Status(c.Context(), collectionID, pathPrefix)
	if err != nil {
		slog.Error("Error loading aggregate status", "collection_id", collectionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"current":  status.Current,
		"outdated": status.Outdated,
		"added":    status.Added,
		"modified": status.Modified,
		"orphaned": status.Orphaned,
		"total":    status.Total(),
	})
}

// GetEntryStatus is the handler for one directory's tracking status.
func (h *Handler) GetEntryStatus(c *fiber.Ctx) error {
	collectionID := c.Params("collectionId")
	entryPath := c.Query("path")
	status, err := h.service.EntryStatus(c.Context(), collectionID, entryPath)
	if err != nil {
		if errors.Is(err, music.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "entry not found"})
		}
		slog.Error("Error loading entry status", "collection_id", collectionID, "path", entryPath, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"path": entryPath, "status": status.String()})
}

// PurgeOrphaned is the handler for deleting orphaned entries.
func (h *Handler) PurgeOrphaned(c *fiber.Ctx) error {
	collectionID := c.Params("collectionId")
	pathPrefix := c.Query("prefix")
	count, err := h.service.PurgeOrphaned(c.Context(), collectionID, pathPrefix)
	if err != nil {
		slog.Error("Error purging orphaned entries", "collection_id", collectionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"purged": count})
}
