package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-discovery-catalog-service/internal/models"
	"movie-discovery-catalog-service/internal/repository"
)

func TestSaveItemValidates(t *testing.T) {
	svc := NewLibraryService(newFakeLibrary())
	ctx := context.Background()

	_, err := svc.SaveItem(ctx, "u1", "wishlist", models.SaveItemRequest{MediaType: "movie", TMDBId: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SaveItem(ctx, "u1", models.ListFavorites, models.SaveItemRequest{MediaType: "person", TMDBId: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SaveItem(ctx, "u1", models.ListFavorites, models.SaveItemRequest{MediaType: "tv", TMDBId: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSaveListRemove(t *testing.T) {
	svc := NewLibraryService(newFakeLibrary())
	ctx := context.Background()

	item, err := svc.SaveItem(ctx, "u1", models.ListWatchlist, models.SaveItemRequest{MediaType: "tv", TMDBId: 9, Title: " Dark "})
	require.NoError(t, err)
	assert.Equal(t, "Dark", item.Title)

	list, err := svc.ListItems(ctx, "u1", models.ListWatchlist)
	require.NoError(t, err)
	require.Len(t, list, 1)

	key := models.ItemKey{MediaType: models.MediaTV, ID: 9}
	require.NoError(t, svc.RemoveItem(ctx, "u1", models.ListWatchlist, key))
	assert.ErrorIs(t, svc.RemoveItem(ctx, "u1", models.ListWatchlist, key), repository.ErrNotFound)
}

func TestPreferences(t *testing.T) {
	svc := NewLibraryService(newFakeLibrary())
	ctx := context.Background()

	pref, err := svc.GetPreference(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, pref.AdultContent)

	_, err = svc.SetPreference(ctx, "u1", models.SetPreferenceRequest{AdultContent: true})
	require.NoError(t, err)
	pref, err = svc.GetPreference(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, pref.AdultContent)
}
