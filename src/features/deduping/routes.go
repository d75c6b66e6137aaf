package deduping

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the deduping feature.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	duplicates := app.Group("/collections/:collectionId/duplicates")
	duplicates.Get("/", handler.FindByPath)
	duplicates.Get("/:uid", handler.FindByTrack)
}
