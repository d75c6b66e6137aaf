package library

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the library feature.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	collections := app.Group("/collections")
	collections.Post("/", handler.CreateCollection)
	collections.Get("/", handler.GetCollections)
	collections.Get("/:collectionId", handler.GetCollection)
	collections.Put("/:collectionId", handler.UpdateCollection)
	collections.Delete("/:collectionId", handler.DeleteCollection)
	collections.Get("/:collectionId/stats", handler.GetStats)
	collections.Get("/:collectionId/tracks", handler.GetTracksByPath)

	tracks := app.Group("/tracks")
	tracks.Get("/:uid", handler.GetTrack)
	tracks.Delete("/:uid", handler.DeleteTrack)
}
