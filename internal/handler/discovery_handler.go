package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-catalog-service/internal/catalog"
	"movie-discovery-catalog-service/internal/middleware"
	"movie-discovery-catalog-service/internal/models"
	"movie-discovery-catalog-service/internal/repository"
	"movie-discovery-catalog-service/internal/service"
)

// DiscoveryHandler handles HTTP requests for the browse surfaces.
type DiscoveryHandler struct {
	svc *service.DiscoveryService
}

// NewDiscoveryHandler creates a new DiscoveryHandler.
func NewDiscoveryHandler(svc *service.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{svc: svc}
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ExhaustedResponse signals "nothing available", distinct from loading.
type ExhaustedResponse struct {
	State string `json:"state"`
	Error string `json:"error"`
}

// NotFoundResponse carries the link that retries the same request.
type NotFoundResponse struct {
	Error string `json:"error"`
	Retry string `json:"retry"`
}

// ListResponse wraps a result collection.
type ListResponse[T any] struct {
	Results []T `json:"results"`
	Total   int `json:"total"`
}

func list[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Results: items, Total: len(items)}
}

// Health returns service health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *DiscoveryHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "catalog-service",
	})
}

// GetTrending returns the trending carousel.
// @Summary Trending carousel
// @Tags discovery
// @Produce json
// @Param category query string false "Category" Enums(Movies,TV Series,Animation,Mystery,K-Drama) default(Movies)
// @Success 200 {object} ListResponse[models.CatalogItem]
// @Success 204 "superseded by a newer request"
// @Failure 503 {object} ExhaustedResponse
// @Router /trending [get]
func (h *DiscoveryHandler) GetTrending(c fiber.Ctx) error {
	cat, err := catalog.ParseCategory(c.Query("category"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	items, err := h.svc.GetTrending(c.Context(), middleware.UserID(c), cat)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list(items))
}

// GetSuggestions returns the "you might like" sample.
// @Summary You might like
// @Tags discovery
// @Produce json
// @Param category query string false "Category" default(Movies)
// @Success 200 {object} ListResponse[models.Suggestion]
// @Failure 503 {object} ExhaustedResponse
// @Router /suggestions [get]
func (h *DiscoveryHandler) GetSuggestions(c fiber.Ctx) error {
	cat, err := catalog.ParseCategory(c.Query("category"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	items, err := h.svc.GetSuggestions(c.Context(), middleware.UserID(c), cat)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list(items))
}

// GetRecommendations returns personalized recommendations.
// @Summary Recommendations
// @Tags discovery
// @Produce json
// @Success 200 {object} ListResponse[models.CatalogItem]
// @Failure 503 {object} ExhaustedResponse
// @Router /recommendations [get]
func (h *DiscoveryHandler) GetRecommendations(c fiber.Ctx) error {
	items, err := h.svc.GetRecommendations(c.Context(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list(items))
}

// GetDetail returns the detail bundle of one title.
// @Summary Title detail
// @Tags discovery
// @Produce json
// @Param media_type path string true "movie or tv"
// @Param id path int true "TMDB ID"
// @Success 200 {object} models.DetailBundle
// @Failure 404 {object} NotFoundResponse
// @Router /titles/{media_type}/{id} [get]
func (h *DiscoveryHandler) GetDetail(c fiber.Ctx) error {
	key, err := parseKey(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	bundle, err := h.svc.GetDetail(c.Context(), middleware.UserID(c), key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(bundle)
}

// GetPlayableSources returns full-length video candidates for the open title.
// @Summary Playable sources
// @Tags discovery
// @Produce json
// @Param media_type path string true "movie or tv"
// @Param id path int true "TMDB ID"
// @Success 200 {object} ListResponse[models.Video]
// @Failure 409 {object} ErrorResponse
// @Router /titles/{media_type}/{id}/playable [get]
func (h *DiscoveryHandler) GetPlayableSources(c fiber.Ctx) error {
	key, err := parseKey(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	videos, err := h.svc.GetPlayableSources(c.Context(), middleware.UserID(c), key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list(videos))
}

// Search runs a debounced multi-type search.
// @Summary Search
// @Tags discovery
// @Produce json
// @Param q query string false "Search text"
// @Success 200 {object} ListResponse[models.CatalogItem]
// @Success 204 "superseded by a newer keystroke"
// @Router /search [get]
func (h *DiscoveryHandler) Search(c fiber.Ctx) error {
	items, err := h.svc.Search(c.Context(), middleware.UserID(c), c.Query("q"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list(items))
}

// GetView returns the visible state of a surface.
// @Summary Surface view
// @Tags discovery
// @Produce json
// @Param surface path string true "Surface" Enums(trending,suggestions,recommendations,search,detail)
// @Success 200 {object} service.View
// @Failure 404 {object} ErrorResponse
// @Router /views/{surface} [get]
func (h *DiscoveryHandler) GetView(c fiber.Ctx) error {
	surface := catalog.Surface(c.Params("surface"))
	if !catalog.ValidSurfaces[surface] {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "unknown surface"})
	}

	view, ok := h.svc.View(middleware.UserID(c), surface)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "nothing requested yet"})
	}
	return c.JSON(view)
}

// SyncGenres refreshes the genre directory from TMDB.
// @Summary Sync genres from TMDB
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /admin/genres/sync [post]
func (h *DiscoveryHandler) SyncGenres(c fiber.Ctx) error {
	count, err := h.svc.SyncGenres(c.Context())
	if err != nil {
		slog.Error("genre sync failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "genre sync failed: " + err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message":      "genre sync completed",
		"genre_synced": count,
	})
}

func parseKey(c fiber.Ctx) (models.ItemKey, error) {
	mt, err := models.ParseMediaType(c.Params("media_type"))
	if err != nil {
		return models.ItemKey{}, err
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return models.ItemKey{}, errors.New("invalid title ID")
	}
	return models.ItemKey{MediaType: mt, ID: id}, nil
}

// writeError maps pipeline and service errors to responses. A superseded
// request answers 204 so the client keeps its newer state.
func writeError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, catalog.ErrCancelled):
		return c.SendStatus(fiber.StatusNoContent)
	case errors.Is(err, catalog.ErrAllSourcesExhausted):
		return c.Status(fiber.StatusServiceUnavailable).JSON(ExhaustedResponse{
			State: service.StateExhausted,
			Error: "nothing available right now",
		})
	case errors.Is(err, catalog.ErrDetailNotFound):
		return c.Status(fiber.StatusNotFound).JSON(NotFoundResponse{
			Error: "title not found, check your connection",
			Retry: c.OriginalURL(),
		})
	case errors.Is(err, service.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotCurrentSelection):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "not found"})
	}

	slog.Error("request failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error"})
}
