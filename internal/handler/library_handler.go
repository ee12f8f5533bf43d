package handler

import (
	"github.com/gofiber/fiber/v3"

	"movie-discovery-catalog-service/internal/middleware"
	"movie-discovery-catalog-service/internal/models"
	"movie-discovery-catalog-service/internal/service"
)

// LibraryHandler handles favorites, watchlist and preferences.
type LibraryHandler struct {
	svc *service.LibraryService
}

// NewLibraryHandler creates a new LibraryHandler.
func NewLibraryHandler(svc *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{svc: svc}
}

// SaveItem adds a title to one of the user's lists.
func (h *LibraryHandler) SaveItem(c fiber.Ctx) error {
	var req models.SaveItemRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	item, err := h.svc.SaveItem(c.Context(), middleware.UserID(c), c.Params("list"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// ListItems returns one of the user's lists.
func (h *LibraryHandler) ListItems(c fiber.Ctx) error {
	items, err := h.svc.ListItems(c.Context(), middleware.UserID(c), c.Params("list"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list(items))
}

// RemoveItem removes a title from one of the user's lists.
func (h *LibraryHandler) RemoveItem(c fiber.Ctx) error {
	key, err := parseKey(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	if err := h.svc.RemoveItem(c.Context(), middleware.UserID(c), c.Params("list"), key); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetPreference returns the user's preferences.
func (h *LibraryHandler) GetPreference(c fiber.Ctx) error {
	pref, err := h.svc.GetPreference(c.Context(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(pref)
}

// SetPreference sets the user's preferences.
func (h *LibraryHandler) SetPreference(c fiber.Ctx) error {
	var req models.SetPreferenceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	pref, err := h.svc.SetPreference(c.Context(), middleware.UserID(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(pref)
}
