package importing

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"tonearm/src/music"
)

// Handler is the handler for the importing feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the importing feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type importRequest struct {
	Path string `json:"path"`
}

// ImportDirectory is the handler for starting a directory import job.
func (h *Handler) ImportDirectory(c *fiber.Ctx) error {
	collectionID := c.Params("collectionId")
	var req importRequest
	if err := c.BodyParser(&req); err != nil || req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing path"})
	}
	jobID, err := h.service.ImportDirectory(c.Context(), collectionID, req.Path)
	if err != nil {
		slog.Error("Error starting import", "collection_id", collectionID, "error", err)
		if errors.Is(err, music.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "collection not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"jobId": jobID})
}

// ImportFile is the handler for synchronously importing a single file.
func (h *Handler) ImportFile(c *fiber.Ctx) error {
	collectionID := c.Params("collectionId")
	var req importRequest
	if err := c.BodyParser(&req); err != nil || req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing path"})
	}
	result, err := h.service.ImportFile(c.Context(), collectionID, req.Path)
	if err != nil {
		slog.Error("Error importing file", "collection_id", collectionID, "path", req.Path, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(describeReplaceResult(result))
}

// describeReplaceResult flattens a replace result for the API.
func describeReplaceResult(result ReplaceResult) fiber.Map {
	switch r := result.(type) {
	case ReplaceCreated:
		return fiber.Map{"outcome": "created", "uid": r.Header.UID, "rev": r.Header.Rev}
	case ReplaceUpdated:
		return fiber.Map{"outcome": "updated", "uid": r.Header.UID, "rev": r.Header.Rev}
	case ReplaceUnchanged:
		return fiber.Map{"outcome": "unchanged", "uid": r.Header.UID, "rev": r.Header.Rev}
	case ReplaceNotCreated:
		return fiber.Map{"outcome": "notCreated"}
	case ReplaceAmbiguous:
		return fiber.Map{"outcome": "ambiguousMediaPath", "matches": r.Matches}
	case ReplaceIncompatibleFormat:
		return fiber.Map{"outcome": "incompatibleFormat", "format": int(r.Format)}
	case ReplaceIncompatibleVersion:
		return fiber.Map{"outcome": "incompatibleVersion", "version": r.Version.String()}
	}
	return fiber.Map{"outcome": "unknown"}
}
