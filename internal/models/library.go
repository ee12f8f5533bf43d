package models

import "time"

// Saved item lists.
const (
	ListFavorites = "favorites"
	ListWatchlist = "watchlist"
)

// ValidLists enumerates the saved-item lists a user owns.
var ValidLists = map[string]bool{
	ListFavorites: true,
	ListWatchlist: true,
}

// SavedItem is a catalog entity saved to one of a user's lists.
type SavedItem struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	List          string    `json:"list"`
	MediaType     MediaType `json:"media_type"`
	TMDBId        int       `json:"tmdb_id"`
	Title         string    `json:"title"`
	ReleaseYear   int       `json:"release_year,omitempty"`
	GenreIDs      []int     `json:"genre_ids"`
	OriginCountry []string  `json:"origin_country"`
	PosterPath    string    `json:"poster_path"`
	BackdropPath  string    `json:"backdrop_path"`
	PosterURL     string    `json:"poster_url,omitempty"`
	BackdropURL   string    `json:"backdrop_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Key returns the catalog identity of the saved entity.
func (s SavedItem) Key() ItemKey {
	return ItemKey{MediaType: s.MediaType, ID: s.TMDBId}
}

// SaveItemRequest is the request body for saving an item.
type SaveItemRequest struct {
	MediaType     string   `json:"media_type"`
	TMDBId        int      `json:"tmdb_id"`
	Title         string   `json:"title"`
	ReleaseYear   int      `json:"release_year"`
	GenreIDs      []int    `json:"genre_ids"`
	OriginCountry []string `json:"origin_country"`
	PosterPath    string   `json:"poster_path"`
	BackdropPath  string   `json:"backdrop_path"`
}

// UserPreference holds account-level preferences.
type UserPreference struct {
	UserID       string    `json:"user_id"`
	AdultContent bool      `json:"adult_content"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SetPreferenceRequest is the request body for setting preferences.
type SetPreferenceRequest struct {
	AdultContent bool `json:"adult_content"`
}
