package service

import (
	"context"
	"errors"
	"sync"

	"movie-discovery-catalog-service/internal/catalog"
	"movie-discovery-catalog-service/internal/models"
	"movie-discovery-catalog-service/internal/repository"
	"movie-discovery-catalog-service/internal/youtube"
)

type fakeCatalog struct {
	mu       sync.Mutex
	lists    map[string][]models.CatalogItem
	failing  bool
	policies []catalog.ContentPolicy
	genres   map[models.MediaType][]models.Genre
	missing  map[int]bool
}

func (f *fakeCatalog) Fetch(tok *catalog.Token, src catalog.QuerySource, policy catalog.ContentPolicy) ([]models.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.policies = append(f.policies, policy)
	if err := tok.Err(); err != nil {
		return nil, err
	}
	if f.failing {
		return nil, &catalog.SourceUnavailableError{Endpoint: src.Endpoint(), Err: errors.New("down")}
	}
	key := src.Endpoint()
	for _, p := range src.Params() {
		if p.Key == "with_genres" || p.Key == "query" {
			key += "?" + p.Value
		}
	}
	return append([]models.CatalogItem(nil), f.lists[key]...), nil
}

func (f *fakeCatalog) Record(_ *catalog.Token, key models.ItemKey, _ catalog.ContentPolicy) (*models.DetailRecord, error) {
	if f.missing[key.ID] {
		return nil, &catalog.SourceUnavailableError{Endpoint: key.String(), Err: errors.New("404")}
	}
	return &models.DetailRecord{CatalogItem: models.CatalogItem{ID: key.ID, MediaType: key.MediaType, Title: "Heat", ReleaseYear: 1995}}, nil
}

func (f *fakeCatalog) Videos(*catalog.Token, models.ItemKey, catalog.ContentPolicy) ([]models.MediaAsset, error) {
	return []models.MediaAsset{{Key: "t", Site: "YouTube", Type: "Trailer"}}, nil
}

func (f *fakeCatalog) Credits(*catalog.Token, models.ItemKey, catalog.ContentPolicy) ([]models.CastMember, error) {
	return []models.CastMember{{ID: 1, Name: "Al Pacino"}}, nil
}

func (f *fakeCatalog) Genres(_ *catalog.Token, mt models.MediaType, _ catalog.ContentPolicy) ([]models.Genre, error) {
	return f.genres[mt], nil
}

type fakeLibrary struct {
	mu      sync.Mutex
	items   map[string][]models.SavedItem
	adult   map[string]bool
	listErr error
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{items: map[string][]models.SavedItem{}, adult: map[string]bool{}}
}

func (f *fakeLibrary) SaveItem(_ context.Context, userID, list string, req models.SaveItemRequest) (*models.SavedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item := models.SavedItem{
		ID:            "id",
		UserID:        userID,
		List:          list,
		MediaType:     models.MediaType(req.MediaType),
		TMDBId:        req.TMDBId,
		Title:         req.Title,
		GenreIDs:      req.GenreIDs,
		OriginCountry: req.OriginCountry,
	}
	f.items[userID+"/"+list] = append(f.items[userID+"/"+list], item)
	return &item, nil
}

func (f *fakeLibrary) ListItems(_ context.Context, userID, list string) ([]models.SavedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.SavedItem{}, f.items[userID+"/"+list]...), nil
}

func (f *fakeLibrary) RemoveItem(_ context.Context, userID, list string, key models.ItemKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.items[userID+"/"+list]
	for i, it := range items {
		if it.Key() == key {
			f.items[userID+"/"+list] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeLibrary) UpsertPreference(_ context.Context, userID string, req models.SetPreferenceRequest) (*models.UserPreference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adult[userID] = req.AdultContent
	return &models.UserPreference{UserID: userID, AdultContent: req.AdultContent}, nil
}

func (f *fakeLibrary) GetPreference(_ context.Context, userID string) (*models.UserPreference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.UserPreference{UserID: userID, AdultContent: f.adult[userID]}, nil
}

type fakeGenres struct {
	mu    sync.Mutex
	names map[int]string
}

func (f *fakeGenres) UpsertGenre(_ context.Context, g models.Genre) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names[g.ID] = g.Name
	return nil
}

func (f *fakeGenres) GenreNames(context.Context) (map[int]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int]string, len(f.names))
	for k, v := range f.names {
		out[k] = v
	}
	return out, nil
}

type fakeVideos struct{}

func (fakeVideos) Search(_ context.Context, query string, _ youtube.SearchOptions) ([]models.Video, error) {
	return []models.Video{{ID: query}}, nil
}
