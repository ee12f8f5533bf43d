package catalog

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"movie-discovery-catalog-service/internal/models"
)

// AffinityProfile is derived from a favorites snapshot on every request and
// never stored.
type AffinityProfile struct {
	GenreWeights   map[int]int
	TVAffinity     bool
	LocaleAffinity bool
}

// BuildProfile weights each genre by how many favorites carry it. locale is
// the origin country that sets LocaleAffinity.
func BuildProfile(favorites []models.SavedItem, locale string) AffinityProfile {
	p := AffinityProfile{GenreWeights: make(map[int]int)}
	for _, f := range favorites {
		for _, g := range f.GenreIDs {
			if g > 0 {
				p.GenreWeights[g]++
			}
		}
		if f.MediaType == models.MediaTV {
			p.TVAffinity = true
		}
		if locale != "" && slices.Contains(f.OriginCountry, locale) {
			p.LocaleAffinity = true
		}
	}
	return p
}

// TopGenres returns up to n genre ids by weight descending, ties by id
// ascending. n <= 0 returns all of them.
func (p AffinityProfile) TopGenres(n int) []int {
	ids := make([]int, 0, len(p.GenreWeights))
	for id, w := range p.GenreWeights {
		if w > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		wi, wj := p.GenreWeights[ids[i]], p.GenreWeights[ids[j]]
		if wi != wj {
			return wi > wj
		}
		return ids[i] < ids[j]
	})
	if n > 0 && len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// Planner turns an affinity profile into a ranked source list.
type Planner struct {
	Locale    string
	TopGenres int
	Fallbacks []QuerySource
}

// NewPlanner creates a planner with the default fallback floor.
func NewPlanner(locale string, topGenres int) *Planner {
	return &Planner{Locale: locale, TopGenres: topGenres, Fallbacks: DefaultFallbacks()}
}

// Plan returns the sources to cascade through, highest priority first.
// A profile without genre weights yields the fallbacks alone.
func (pl *Planner) Plan(p AffinityProfile) []QuerySource {
	fallbacks := pl.Fallbacks
	if fallbacks == nil {
		fallbacks = DefaultFallbacks()
	}

	genres := p.TopGenres(pl.TopGenres)
	if len(genres) == 0 {
		return rank(fallbacks)
	}

	var plan []QuerySource
	if p.TVAffinity {
		plan = append(plan, NewQuerySource("affinity-tv", "/trending/tv/week", 0, models.MediaTV))
	}
	if p.LocaleAffinity && pl.Locale != "" {
		plan = append(plan, localeDiscover("affinity-locale", pl.Locale, 0))
	}

	ids := make([]string, len(genres))
	for i, g := range genres {
		ids[i] = strconv.Itoa(g)
	}
	plan = append(plan, affinityDiscover("affinity-genres", strings.Join(ids, "|")))
	for _, id := range ids {
		plan = append(plan, affinityDiscover("affinity-genre-"+id, id))
	}

	return rank(append(plan, fallbacks...))
}

// rank assigns strictly descending priorities matching list order.
func rank(sources []QuerySource) []QuerySource {
	out := make([]QuerySource, len(sources))
	for i, src := range sources {
		out[i] = src.WithPriority(len(sources) - i)
	}
	return out
}

func affinityDiscover(name, genres string) QuerySource {
	return NewQuerySource(name, "/discover/movie", 0, models.MediaMovie,
		Param{Key: "with_genres", Value: genres},
		Param{Key: "sort_by", Value: "popularity.desc"},
		Param{Key: "vote_count.gte", Value: "10"},
		Param{Key: "page", Value: "1"},
	)
}
