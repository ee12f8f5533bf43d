package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"

	"movie-discovery-catalog-service/internal/models"
)

func movie(id int) models.CatalogItem {
	return models.CatalogItem{ID: id, MediaType: models.MediaMovie, Title: "movie", GenreIDs: []int{}}
}

func show(id int) models.CatalogItem {
	return models.CatalogItem{ID: id, MediaType: models.MediaTV, Title: "show", GenreIDs: []int{}}
}

func movies(ids ...int) []models.CatalogItem {
	out := make([]models.CatalogItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, movie(id))
	}
	return out
}

func ids(items []models.CatalogItem) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

// fakeQuerier answers by source identity and records call order.
type fakeQuerier struct {
	mu      sync.Mutex
	results map[string][]models.CatalogItem
	fail    map[string]bool
	calls   []string
	onFetch func(tok *Token, src QuerySource)
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{results: map[string][]models.CatalogItem{}, fail: map[string]bool{}}
}

func (f *fakeQuerier) Fetch(tok *Token, src QuerySource, _ ContentPolicy) ([]models.CatalogItem, error) {
	f.mu.Lock()
	f.calls = append(f.calls, src.Identity())
	hook := f.onFetch
	res, failing := f.results[src.Identity()], f.fail[src.Identity()]
	f.mu.Unlock()

	if hook != nil {
		hook(tok, src)
	}
	if err := tok.Err(); err != nil {
		return nil, err
	}
	if failing {
		return nil, &SourceUnavailableError{Endpoint: src.Endpoint(), Err: errors.New("boom")}
	}
	return append([]models.CatalogItem(nil), res...), nil
}

func (f *fakeQuerier) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeTransport decodes a canned body per path and records the params.
type fakeTransport struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	calls  []url.Values
	paths  []string
	block  chan struct{}
}

func (f *fakeTransport) Get(ctx context.Context, path string, params url.Values, dst any) error {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.calls = append(f.calls, params)
	body, err, block := f.bodies[path], f.errs[path], f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return err
	}
	if body == "" {
		body = `{}`
	}
	return json.Unmarshal([]byte(body), dst)
}
