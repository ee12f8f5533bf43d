// Package catalog implements the catalog aggregation pipeline: a single
// query client, the dedupe/cap merge, the source cascade, the
// recommendation planner, detail composition and debounced search.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"movie-discovery-catalog-service/internal/models"
	"movie-discovery-catalog-service/internal/tmdb"
)

// Transport is the raw "GET JSON with API-key injection" primitive.
type Transport interface {
	Get(ctx context.Context, path string, params url.Values, dst any) error
}

// ContentPolicy is resolved once per request. The zero value disallows
// adult content.
type ContentPolicy struct {
	AllowAdult bool
}

// Client issues single logical catalog queries. It is stateless between
// calls and never retries.
type Client struct {
	transport Transport
}

// NewClient creates a catalog client over the given transport.
func NewClient(t Transport) *Client {
	return &Client{transport: t}
}

// Query runs one list query against endpoint.
func (c *Client) Query(tok *Token, endpoint string, params []Param, policy ContentPolicy) ([]models.CatalogItem, error) {
	return c.Fetch(tok, NewQuerySource("", endpoint, 0, "", params...), policy)
}

// Fetch runs the list query described by src and normalizes its results.
func (c *Client) Fetch(tok *Token, src QuerySource, policy ContentPolicy) ([]models.CatalogItem, error) {
	var page tmdb.Page
	if err := c.get(tok, src.Endpoint(), src.Params(), policy, &page); err != nil {
		return nil, err
	}

	items := make([]models.CatalogItem, 0, len(page.Results))
	for _, raw := range page.Results {
		item, ok := normalize(raw, src.MediaType())
		if !ok {
			continue
		}
		if item.Adult && !policy.AllowAdult {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Record fetches the primary record of one entity.
func (c *Client) Record(tok *Token, key models.ItemKey, policy ContentPolicy) (*models.DetailRecord, error) {
	var raw tmdb.Detail
	endpoint := fmt.Sprintf("/%s/%d", key.MediaType, key.ID)
	if err := c.get(tok, endpoint, []Param{{Key: "language", Value: "en-US"}}, policy, &raw); err != nil {
		return nil, err
	}

	item, ok := normalize(raw.Item, key.MediaType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDetailNotFound, key)
	}
	item.MediaType = key.MediaType
	if item.Adult && !policy.AllowAdult {
		return nil, fmt.Errorf("%w: %s is not allowed by content policy", ErrDetailNotFound, key)
	}

	rec := &models.DetailRecord{
		CatalogItem: item,
		Genres:      make([]models.Genre, 0, len(raw.Genres)),
		Runtime:     raw.Runtime,
		Tagline:     raw.Tagline,
		Status:      raw.Status,
	}
	if rec.Runtime == 0 && len(raw.EpisodeRunTime) > 0 {
		rec.Runtime = raw.EpisodeRunTime[0]
	}
	if len(rec.GenreIDs) == 0 {
		for _, g := range raw.Genres {
			rec.GenreIDs = append(rec.GenreIDs, g.ID)
		}
	}
	for _, g := range raw.Genres {
		rec.Genres = append(rec.Genres, models.Genre{ID: g.ID, MediaType: key.MediaType, Name: g.Name})
	}
	return rec, nil
}

// Videos fetches the media assets attached to one entity.
func (c *Client) Videos(tok *Token, key models.ItemKey, policy ContentPolicy) ([]models.MediaAsset, error) {
	var raw tmdb.VideoList
	endpoint := fmt.Sprintf("/%s/%d/videos", key.MediaType, key.ID)
	if err := c.get(tok, endpoint, []Param{{Key: "language", Value: "en-US"}}, policy, &raw); err != nil {
		return nil, err
	}
	assets := make([]models.MediaAsset, 0, len(raw.Results))
	for _, v := range raw.Results {
		assets = append(assets, models.MediaAsset{Key: v.Key, Name: v.Name, Site: v.Site, Type: v.Type})
	}
	return assets, nil
}

// Credits fetches the cast of one entity in billing order.
func (c *Client) Credits(tok *Token, key models.ItemKey, policy ContentPolicy) ([]models.CastMember, error) {
	var raw tmdb.Credits
	endpoint := fmt.Sprintf("/%s/%d/credits", key.MediaType, key.ID)
	if err := c.get(tok, endpoint, []Param{{Key: "language", Value: "en-US"}}, policy, &raw); err != nil {
		return nil, err
	}
	cast := make([]models.CastMember, 0, len(raw.Cast))
	for _, m := range raw.Cast {
		cast = append(cast, models.CastMember{
			ID:          m.ID,
			Name:        m.Name,
			Character:   m.Character,
			ProfilePath: m.ProfilePath,
			Order:       m.Order,
		})
	}
	return cast, nil
}

// Genres fetches the genre list of one media type.
func (c *Client) Genres(tok *Token, mediaType models.MediaType, policy ContentPolicy) ([]models.Genre, error) {
	var raw tmdb.GenreList
	if err := c.get(tok, fmt.Sprintf("/genre/%s/list", mediaType), nil, policy, &raw); err != nil {
		return nil, err
	}
	genres := make([]models.Genre, 0, len(raw.Genres))
	for _, g := range raw.Genres {
		genres = append(genres, models.Genre{ID: g.ID, MediaType: mediaType, Name: g.Name})
	}
	return genres, nil
}

// get is the single place where the content policy is injected and the
// token is checked around the suspension.
func (c *Client) get(tok *Token, endpoint string, params []Param, policy ContentPolicy, dst any) error {
	if err := tok.Err(); err != nil {
		return err
	}

	q := paramValues(params)
	q.Set("include_adult", strconv.FormatBool(policy.AllowAdult))

	err := c.transport.Get(tok.Context(), endpoint, q, dst)
	if tok.Cancelled() {
		return ErrCancelled
	}
	if err != nil {
		return &SourceUnavailableError{Endpoint: endpoint, Err: err}
	}
	return nil
}

// normalize turns a raw record into the uniform tagged shape. People and
// unknown kinds are rejected.
func normalize(raw tmdb.Item, fallback models.MediaType) (models.CatalogItem, bool) {
	var mt models.MediaType
	switch raw.MediaType {
	case "movie":
		mt = models.MediaMovie
	case "tv":
		mt = models.MediaTV
	case "":
		mt = fallback
		if mt == "" {
			if raw.Title != "" || raw.ReleaseDate != "" {
				mt = models.MediaMovie
			} else if raw.Name != "" || raw.FirstAirDate != "" {
				mt = models.MediaTV
			}
		}
	default:
		return models.CatalogItem{}, false
	}
	if mt == "" || raw.ID == 0 {
		return models.CatalogItem{}, false
	}

	item := models.CatalogItem{
		ID:            raw.ID,
		MediaType:     mt,
		GenreIDs:      append([]int{}, raw.GenreIDs...),
		PosterPath:    raw.PosterPath,
		BackdropPath:  raw.BackdropPath,
		VoteAverage:   raw.VoteAverage,
		Overview:      raw.Overview,
		OriginCountry: append([]string(nil), raw.OriginCountry...),
		Adult:         raw.Adult,
	}
	if raw.PosterPath != nil {
		item.PosterURL = models.PosterURL(*raw.PosterPath)
	}
	if raw.BackdropPath != nil {
		item.BackdropURL = models.BackdropURL(*raw.BackdropPath)
	}
	if mt == models.MediaTV {
		item.Title = firstNonEmpty(raw.Name, raw.Title)
		item.ReleaseYear = parseYear(firstNonEmpty(raw.FirstAirDate, raw.ReleaseDate))
	} else {
		item.Title = firstNonEmpty(raw.Title, raw.Name)
		item.ReleaseYear = parseYear(firstNonEmpty(raw.ReleaseDate, raw.FirstAirDate))
	}
	return item, true
}

func parseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
