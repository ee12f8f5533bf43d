package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"movie-discovery-catalog-service/internal/models"
)

// LibraryStore is the saved-items and preferences collaborator.
type LibraryStore interface {
	SaveItem(ctx context.Context, userID, list string, req models.SaveItemRequest) (*models.SavedItem, error)
	ListItems(ctx context.Context, userID, list string) ([]models.SavedItem, error)
	RemoveItem(ctx context.Context, userID, list string, key models.ItemKey) error
	UpsertPreference(ctx context.Context, userID string, req models.SetPreferenceRequest) (*models.UserPreference, error)
	GetPreference(ctx context.Context, userID string) (*models.UserPreference, error)
}

// LibraryService handles favorites, watchlist and preferences.
type LibraryService struct {
	store LibraryStore
}

// NewLibraryService creates a new LibraryService.
func NewLibraryService(store LibraryStore) *LibraryService {
	return &LibraryService{store: store}
}

// SaveItem adds an entity to the user's list.
func (s *LibraryService) SaveItem(ctx context.Context, userID, list string, req models.SaveItemRequest) (*models.SavedItem, error) {
	if !models.ValidLists[list] {
		return nil, fmt.Errorf("%w: unknown list %q", ErrInvalidInput, list)
	}
	if _, err := models.ParseMediaType(req.MediaType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.TMDBId <= 0 {
		return nil, fmt.Errorf("%w: tmdb_id must be positive", ErrInvalidInput)
	}
	req.Title = strings.TrimSpace(req.Title)

	item, err := s.store.SaveItem(ctx, userID, list, req)
	if err != nil {
		return nil, err
	}
	slog.Info("item saved", "user_id", userID, "list", list, "key", item.Key().String())
	return item, nil
}

// ListItems returns the user's list, newest first.
func (s *LibraryService) ListItems(ctx context.Context, userID, list string) ([]models.SavedItem, error) {
	if !models.ValidLists[list] {
		return nil, fmt.Errorf("%w: unknown list %q", ErrInvalidInput, list)
	}
	return s.store.ListItems(ctx, userID, list)
}

// RemoveItem removes an entity from the user's list.
func (s *LibraryService) RemoveItem(ctx context.Context, userID, list string, key models.ItemKey) error {
	if !models.ValidLists[list] {
		return fmt.Errorf("%w: unknown list %q", ErrInvalidInput, list)
	}
	return s.store.RemoveItem(ctx, userID, list, key)
}

// GetPreference returns the user's preferences.
func (s *LibraryService) GetPreference(ctx context.Context, userID string) (*models.UserPreference, error) {
	return s.store.GetPreference(ctx, userID)
}

// SetPreference stores the user's preferences.
func (s *LibraryService) SetPreference(ctx context.Context, userID string, req models.SetPreferenceRequest) (*models.UserPreference, error) {
	return s.store.UpsertPreference(ctx, userID, req)
}
