package importing

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the importing feature.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	imports := app.Group("/collections/:collectionId/import")
	imports.Post("/directory", handler.ImportDirectory)
	imports.Post("/file", handler.ImportFile)
}
