package models

import "fmt"

// MediaType discriminates the two kinds of catalog entity.
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// ParseMediaType accepts the wire names used by the catalog API.
func ParseMediaType(s string) (MediaType, error) {
	switch s {
	case "movie":
		return MediaMovie, nil
	case "tv":
		return MediaTV, nil
	}
	return "", fmt.Errorf("unknown media type %q", s)
}

// ItemKey is the identity of an entity. The same numeric id may exist once
// as a movie and once as a TV show.
type ItemKey struct {
	MediaType MediaType `json:"media_type"`
	ID        int       `json:"id"`
}

func (k ItemKey) String() string {
	return fmt.Sprintf("%s:%d", k.MediaType, k.ID)
}

// CatalogItem is a normalized movie or TV entity.
type CatalogItem struct {
	ID            int       `json:"id"`
	MediaType     MediaType `json:"media_type"`
	Title         string    `json:"title"`
	ReleaseYear   int       `json:"release_year,omitempty"`
	GenreIDs      []int     `json:"genre_ids"`
	PosterPath    *string   `json:"poster_path"`
	BackdropPath  *string   `json:"backdrop_path"`
	PosterURL     string    `json:"poster_url,omitempty"`
	BackdropURL   string    `json:"backdrop_url,omitempty"`
	VoteAverage   *float64  `json:"vote_average"`
	Overview      string    `json:"overview"`
	OriginCountry []string  `json:"origin_country,omitempty"`
	Adult         bool      `json:"-"`
}

// Key returns the dedup identity of the item.
func (c CatalogItem) Key() ItemKey {
	return ItemKey{MediaType: c.MediaType, ID: c.ID}
}

// Genre is a named catalog genre.
type Genre struct {
	ID        int       `json:"id"`
	MediaType MediaType `json:"media_type"`
	Name      string    `json:"name"`
}

// DetailRecord is the primary record of a single entity.
type DetailRecord struct {
	CatalogItem
	Genres  []Genre `json:"genres"`
	Runtime int     `json:"runtime"`
	Tagline string  `json:"tagline,omitempty"`
	Status  string  `json:"status,omitempty"`
}

// MediaAsset is a video attached to an entity, e.g. a trailer.
type MediaAsset struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// CastMember is one credited performer.
type CastMember struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
	Order       int     `json:"order"`
}

// DetailBundle is the composite read model for the detail page. Any of the
// three parts may still be missing while Pending lists it.
type DetailBundle struct {
	Key      ItemKey       `json:"key"`
	Record   *DetailRecord `json:"record"`
	Trailers []MediaAsset  `json:"trailers"`
	Cast     []CastMember  `json:"cast"`
	Pending  []string      `json:"pending,omitempty"`
}

// Complete reports whether all three fan-out calls have settled.
func (b DetailBundle) Complete() bool {
	return len(b.Pending) == 0
}

// Video is one video-search hit.
type Video struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	Thumbnail string `json:"thumbnail"`
}

// Suggestion is a "you might like" card.
type Suggestion struct {
	CatalogItem
	GenreLabel string `json:"genre_label"`
}

const (
	TMDBImageBaseW500  = "https://image.tmdb.org/t/p/w500"
	TMDBImageBaseW1280 = "https://image.tmdb.org/t/p/w1280"
)

// PosterURL returns the w500 image URL of a poster path, or "" without one.
func PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return TMDBImageBaseW500 + path
}

// BackdropURL returns the w1280 image URL of a backdrop path.
func BackdropURL(path string) string {
	if path == "" {
		return ""
	}
	return TMDBImageBaseW1280 + path
}
