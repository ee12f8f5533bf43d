package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-discovery-catalog-service/internal/catalog"
	"movie-discovery-catalog-service/internal/config"
	"movie-discovery-catalog-service/internal/models"
)

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		TrendingTarget:       20,
		SuggestionPool:       12,
		SuggestionSample:     4,
		RecommendationTarget: 36,
		TopGenres:            6,
		AffinityLocale:       "KR",
		SearchDebounce:       10 * time.Millisecond,
		CastLimit:            12,
		PlayableLimit:        15,
	}
}

func items(mt models.MediaType, ids ...int) []models.CatalogItem {
	out := make([]models.CatalogItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.CatalogItem{ID: id, MediaType: mt, GenreIDs: []int{28, 35, 18}})
	}
	return out
}

func itemIDs(list []models.CatalogItem) []int {
	out := make([]int, 0, len(list))
	for _, it := range list {
		out = append(out, it.ID)
	}
	return out
}

func newTestService(cat *fakeCatalog, lib *fakeLibrary, genres *fakeGenres) *DiscoveryService {
	if genres == nil {
		genres = &fakeGenres{names: map[int]string{}}
	}
	return NewDiscoveryService(testPipelineConfig(), cat, fakeVideos{}, lib, genres, rand.New(rand.NewPCG(1, 2)))
}

func TestGetTrending(t *testing.T) {
	cat := &fakeCatalog{lists: map[string][]models.CatalogItem{
		"/trending/tv/week": items(models.MediaTV, 1, 2, 3),
	}}
	svc := newTestService(cat, newFakeLibrary(), nil)

	got, err := svc.GetTrending(context.Background(), "u1", catalog.CategoryTVSeries)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, itemIDs(got))

	view, ok := svc.View("u1", catalog.SurfaceTrending)
	require.True(t, ok)
	assert.Equal(t, StateReady, view.State)
	assert.Equal(t, "TV Series", view.Label)
	assert.Equal(t, catalog.ContentPolicy{}, cat.policies[0])
}

func TestGetTrendingExhausted(t *testing.T) {
	svc := newTestService(&fakeCatalog{failing: true}, newFakeLibrary(), nil)

	got, err := svc.GetTrending(context.Background(), "u1", catalog.CategoryMovies)
	require.ErrorIs(t, err, catalog.ErrAllSourcesExhausted)
	assert.Empty(t, got)

	view, ok := svc.View("u1", catalog.SurfaceTrending)
	require.True(t, ok)
	assert.Equal(t, StateExhausted, view.State)
}

func TestContentPolicyFollowsPreference(t *testing.T) {
	cat := &fakeCatalog{lists: map[string][]models.CatalogItem{"/trending/movie/week": items(models.MediaMovie, 1)}}
	lib := newFakeLibrary()
	lib.adult["u1"] = true
	svc := newTestService(cat, lib, nil)

	_, err := svc.GetTrending(context.Background(), "u1", catalog.CategoryMovies)
	require.NoError(t, err)
	assert.True(t, cat.policies[0].AllowAdult)
}

func TestGetRecommendationsExcludesFavorites(t *testing.T) {
	cat := &fakeCatalog{lists: map[string][]models.CatalogItem{
		"/discover/movie?28|35": items(models.MediaMovie, 41, 42, 43),
		"/discover/movie?28":    items(models.MediaMovie, 43, 44),
		"/movie/popular":        items(models.MediaMovie, 45),
	}}
	lib := newFakeLibrary()
	_, _ = lib.SaveItem(context.Background(), "u1", models.ListFavorites, models.SaveItemRequest{MediaType: "movie", TMDBId: 42, GenreIDs: []int{28, 35}})
	_, _ = lib.SaveItem(context.Background(), "u1", models.ListFavorites, models.SaveItemRequest{MediaType: "movie", TMDBId: 7, GenreIDs: []int{28}})
	svc := newTestService(cat, lib, nil)

	got, err := svc.GetRecommendations(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []int{41, 43, 44, 45}, itemIDs(got))
}

func TestGetRecommendationsFavoritesUnavailable(t *testing.T) {
	lib := newFakeLibrary()
	lib.listErr = errors.New("db down")
	cat := &fakeCatalog{lists: map[string][]models.CatalogItem{"/movie/popular": items(models.MediaMovie, 1)}}
	svc := newTestService(cat, lib, nil)

	got, err := svc.GetRecommendations(context.Background(), "u1")
	require.Error(t, err)
	assert.Nil(t, got)

	view, ok := svc.View("u1", catalog.SurfaceRecommendations)
	require.True(t, ok)
	assert.Equal(t, StateFailed, view.State)
	assert.Empty(t, cat.policies)
}

func TestGetRecommendationsWithoutFavoritesUsesFallbacks(t *testing.T) {
	cat := &fakeCatalog{lists: map[string][]models.CatalogItem{
		"/movie/top_rated": items(models.MediaMovie, 9),
	}}
	svc := newTestService(cat, newFakeLibrary(), nil)

	got, err := svc.GetRecommendations(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []int{9}, itemIDs(got))
}

func TestGetSuggestionsSamplesWithLabels(t *testing.T) {
	cat := &fakeCatalog{lists: map[string][]models.CatalogItem{
		"/movie/popular": items(models.MediaMovie, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13),
	}}
	genres := &fakeGenres{names: map[int]string{28: "Action", 35: "Comedy", 18: "Drama"}}
	svc := newTestService(cat, newFakeLibrary(), genres)

	got, err := svc.GetSuggestions(context.Background(), "u1", catalog.CategoryMovies)
	require.NoError(t, err)
	require.Len(t, got, 4)
	seen := map[int]bool{}
	for _, s := range got {
		assert.LessOrEqual(t, s.ID, 12)
		assert.False(t, seen[s.ID])
		seen[s.ID] = true
		assert.Equal(t, "Action · Comedy", s.GenreLabel)
	}
}

func TestGenreLabel(t *testing.T) {
	names := map[int]string{28: "Action", 16: "Animation"}
	assert.Equal(t, "Action · Animation", GenreLabel([]int{28, 99, 16, 35}, names))
	assert.Equal(t, "Animation", GenreLabel([]int{16}, names))
	assert.Equal(t, "Entertainment", GenreLabel([]int{99}, names))
	assert.Equal(t, "Entertainment", GenreLabel(nil, nil))
}

func TestGetDetailAndPlayableSources(t *testing.T) {
	svc := newTestService(&fakeCatalog{}, newFakeLibrary(), nil)
	keyA := models.ItemKey{MediaType: models.MediaMovie, ID: 1}
	keyB := models.ItemKey{MediaType: models.MediaMovie, ID: 2}

	bundle, err := svc.GetDetail(context.Background(), "u1", keyA)
	require.NoError(t, err)
	assert.Equal(t, keyA, bundle.Key)
	assert.Len(t, bundle.Trailers, 1)

	view, ok := svc.View("u1", catalog.SurfaceDetail)
	require.True(t, ok)
	assert.Equal(t, StateReady, view.State)

	_, err = svc.GetPlayableSources(context.Background(), "u1", keyB)
	assert.ErrorIs(t, err, ErrNotCurrentSelection)

	videos, err := svc.GetPlayableSources(context.Background(), "u1", keyA)
	require.NoError(t, err)
	require.Len(t, videos, 4)
	assert.Equal(t, "Heat 1995 full movie", videos[0].ID)
}

func TestGetDetailNotFound(t *testing.T) {
	svc := newTestService(&fakeCatalog{missing: map[int]bool{5: true}}, newFakeLibrary(), nil)

	_, err := svc.GetDetail(context.Background(), "u1", models.ItemKey{MediaType: models.MediaTV, ID: 5})
	require.ErrorIs(t, err, catalog.ErrDetailNotFound)

	view, ok := svc.View("u1", catalog.SurfaceDetail)
	require.True(t, ok)
	assert.Equal(t, StateNotFound, view.State)
}

func TestSearch(t *testing.T) {
	cat := &fakeCatalog{lists: map[string][]models.CatalogItem{"/search/multi?bat": items(models.MediaMovie, 3)}}
	svc := newTestService(cat, newFakeLibrary(), nil)
	defer svc.Close()

	got, err := svc.Search(context.Background(), "u1", "bat")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, itemIDs(got))

	got, err = svc.Search(context.Background(), "u1", "  ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPruneIdleKeepsRecentUsers(t *testing.T) {
	cat := &fakeCatalog{lists: map[string][]models.CatalogItem{
		"/trending/movie/week": items(models.MediaMovie, 1),
		"/search/multi?bat":    items(models.MediaMovie, 3),
	}}
	svc := newTestService(cat, newFakeLibrary(), nil)
	defer svc.Close()

	_, err := svc.GetTrending(context.Background(), "u1", catalog.CategoryMovies)
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), "u1", "bat")
	require.NoError(t, err)

	assert.Zero(t, svc.PruneIdle(time.Now().Add(-time.Hour)))
	_, ok := svc.View("u1", catalog.SurfaceTrending)
	assert.True(t, ok)

	// trending slot, search slot, search session
	assert.Equal(t, 3, svc.PruneIdle(time.Now().Add(time.Minute)))
	_, ok = svc.View("u1", catalog.SurfaceTrending)
	assert.False(t, ok)
	_, ok = svc.View("u1", catalog.SurfaceSearch)
	assert.False(t, ok)
}

func TestSyncGenres(t *testing.T) {
	cat := &fakeCatalog{genres: map[models.MediaType][]models.Genre{
		models.MediaMovie: {{ID: 28, Name: "Action"}},
		models.MediaTV:    {{ID: 10759, Name: "Action & Adventure"}, {ID: 18, Name: "Drama"}},
	}}
	genres := &fakeGenres{names: map[int]string{}}
	svc := newTestService(cat, newFakeLibrary(), genres)

	n, err := svc.SyncGenres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "Drama", genres.names[18])
}
