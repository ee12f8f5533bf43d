package handler

import (
	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes mounts the API under /api/v1.
func RegisterRoutes(app *fiber.App, discovery *DiscoveryHandler, library *LibraryHandler) {
	app.Get("/health", discovery.Health)

	api := app.Group("/api/v1")
	api.Get("/trending", discovery.GetTrending)
	api.Get("/suggestions", discovery.GetSuggestions)
	api.Get("/recommendations", discovery.GetRecommendations)
	api.Get("/search", discovery.Search)
	api.Get("/titles/:media_type/:id", discovery.GetDetail)
	api.Get("/titles/:media_type/:id/playable", discovery.GetPlayableSources)
	api.Get("/views/:surface", discovery.GetView)
	api.Post("/admin/genres/sync", discovery.SyncGenres)

	api.Get("/lists/:list", library.ListItems)
	api.Post("/lists/:list", library.SaveItem)
	api.Delete("/lists/:list/:media_type/:id", library.RemoveItem)
	api.Get("/preferences", library.GetPreference)
	api.Put("/preferences", library.SetPreference)
}
