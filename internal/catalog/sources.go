package catalog

import (
	"fmt"
	"strconv"

	"movie-discovery-catalog-service/internal/models"
)

// Category is a browse category of the trending carousel and the
// "you might like" strip.
type Category string

const (
	CategoryMovies    Category = "Movies"
	CategoryTVSeries  Category = "TV Series"
	CategoryAnimation Category = "Animation"
	CategoryMystery   Category = "Mystery"
	CategoryKDrama    Category = "K-Drama"
)

const (
	genreAnimation = 16
	genreMystery   = 9648
)

// Categories lists the categories in display order.
var Categories = []Category{
	CategoryMovies,
	CategoryTVSeries,
	CategoryAnimation,
	CategoryMystery,
	CategoryKDrama,
}

// ParseCategory accepts a category name; empty means Movies.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryMovies, nil
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// TrendingSource is the static source of the trending carousel for cat.
func TrendingSource(cat Category) QuerySource {
	switch cat {
	case CategoryTVSeries:
		return NewQuerySource("trending-tv", "/trending/tv/week", 1, models.MediaTV)
	case CategoryAnimation:
		return genreDiscover("animation", genreAnimation, 1)
	case CategoryMystery:
		return genreDiscover("mystery", genreMystery, 1)
	case CategoryKDrama:
		return localeDiscover("k-drama", "KR", 1)
	default:
		return NewQuerySource("trending-movie", "/trending/movie/week", 1, models.MediaMovie)
	}
}

// SuggestionSource is the static source of the "you might like" strip. It
// differs from the carousel only for Movies, which uses the popular list.
func SuggestionSource(cat Category) QuerySource {
	if cat == CategoryMovies {
		return NewQuerySource("popular-movie", "/movie/popular", 1, models.MediaMovie)
	}
	return TrendingSource(cat)
}

// DefaultFallbacks is the generic fallback floor in its fixed order.
func DefaultFallbacks() []QuerySource {
	return []QuerySource{
		NewQuerySource("popular", "/movie/popular", 0, models.MediaMovie),
		NewQuerySource("top-rated", "/movie/top_rated", 0, models.MediaMovie),
		NewQuerySource("trending-week", "/trending/movie/week", 0, models.MediaMovie),
	}
}

// SearchSource is the multi-type search query for text.
func SearchSource(text string) QuerySource {
	return NewQuerySource("search", "/search/multi", 0, "",
		Param{Key: "query", Value: text},
		Param{Key: "page", Value: "1"},
	)
}

func genreDiscover(name string, genre, priority int) QuerySource {
	return NewQuerySource(name, "/discover/movie", priority, models.MediaMovie,
		Param{Key: "with_genres", Value: strconv.Itoa(genre)},
	)
}

func localeDiscover(name, country string, priority int) QuerySource {
	return NewQuerySource(name, "/discover/tv", priority, models.MediaTV,
		Param{Key: "with_origin_country", Value: country},
	)
}
