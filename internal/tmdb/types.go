package tmdb

// ---- TMDB Response Types (raw wire shapes, normalized by the catalog package) ----

// Page is the envelope of every list endpoint (trending, discover, search).
type Page struct {
	Page         int    `json:"page"`
	Results      []Item `json:"results"`
	TotalPages   int    `json:"total_pages"`
	TotalResults int    `json:"total_results"`
}

// Item is a raw list record. Movies carry title/release_date, TV shows
// carry name/first_air_date; multi-type search adds media_type and may
// return people.
type Item struct {
	ID            int      `json:"id"`
	MediaType     string   `json:"media_type"`
	Title         string   `json:"title"`
	Name          string   `json:"name"`
	ReleaseDate   string   `json:"release_date"`
	FirstAirDate  string   `json:"first_air_date"`
	GenreIDs      []int    `json:"genre_ids"`
	PosterPath    *string  `json:"poster_path"`
	BackdropPath  *string  `json:"backdrop_path"`
	VoteAverage   *float64 `json:"vote_average"`
	Overview      string   `json:"overview"`
	OriginCountry []string `json:"origin_country"`
	Adult         bool     `json:"adult"`
}

// Detail is the primary record returned by /movie/{id} and /tv/{id}.
type Detail struct {
	Item
	Genres         []GenreEntry `json:"genres"`
	Runtime        int          `json:"runtime"`
	EpisodeRunTime []int        `json:"episode_run_time"`
	Tagline        string       `json:"tagline"`
	Status         string       `json:"status"`
}

// GenreEntry is a genre from TMDB.
type GenreEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreList is the /genre/{type}/list response.
type GenreList struct {
	Genres []GenreEntry `json:"genres"`
}

// VideoList is the /{type}/{id}/videos response.
type VideoList struct {
	Results []VideoEntry `json:"results"`
}

// VideoEntry is one attached video.
type VideoEntry struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// Credits is the /{type}/{id}/credits response.
type Credits struct {
	Cast []CastEntry `json:"cast"`
}

// CastEntry is one credited performer.
type CastEntry struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
	Order       int     `json:"order"`
}
