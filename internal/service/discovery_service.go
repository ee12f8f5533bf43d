package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"movie-discovery-catalog-service/internal/catalog"
	"movie-discovery-catalog-service/internal/config"
	"movie-discovery-catalog-service/internal/models"
)

// View states of a surface.
const (
	StateLoading   = "loading"
	StatePartial   = "partial"
	StateReady     = "ready"
	StateExhausted = "exhausted"
	StateNotFound  = "not_found"
	StateFailed    = "failed"
)

const defaultGenreLabel = "Entertainment"

// View is the visible state of one surface for one user.
type View struct {
	Surface catalog.Surface `json:"surface"`
	State   string          `json:"state"`
	Label   string          `json:"label,omitempty"`
	Data    any             `json:"data,omitempty"`
}

// CatalogClient is the subset of *catalog.Client the service drives.
type CatalogClient interface {
	catalog.Querier
	catalog.DetailSource
	Genres(tok *catalog.Token, mediaType models.MediaType, policy catalog.ContentPolicy) ([]models.Genre, error)
}

// GenreStore is the genre directory.
type GenreStore interface {
	UpsertGenre(ctx context.Context, g models.Genre) error
	GenreNames(ctx context.Context) (map[int]string, error)
}

// DiscoveryService exposes the pipeline entry points. Each surface holds at
// most one active session per user; starting a request cancels the previous
// one on the same surface.
type DiscoveryService struct {
	cfg        config.PipelineConfig
	client     CatalogClient
	registry   *catalog.Registry
	aggregator *catalog.Aggregator
	planner    *catalog.Planner
	composer   *catalog.DetailComposer
	library    LibraryStore
	genres     GenreStore

	rngMu sync.Mutex
	rng   *rand.Rand

	searchMu sync.Mutex
	searches map[string]*searchEntry
}

type searchEntry struct {
	session  *catalog.SearchSession
	lastUsed time.Time
}

// NewDiscoveryService creates a new DiscoveryService. rng drives the
// "you might like" sampling only.
func NewDiscoveryService(
	cfg config.PipelineConfig,
	client CatalogClient,
	videos catalog.VideoSearcher,
	library LibraryStore,
	genres GenreStore,
	rng *rand.Rand,
) *DiscoveryService {
	return &DiscoveryService{
		cfg:        cfg,
		client:     client,
		registry:   catalog.NewRegistry(),
		aggregator: catalog.NewAggregator(client, nil),
		planner:    catalog.NewPlanner(cfg.AffinityLocale, cfg.TopGenres),
		composer:   catalog.NewDetailComposer(client, videos, cfg.CastLimit, cfg.PlayableLimit),
		library:    library,
		genres:     genres,
		rng:        rng,
		searches:   make(map[string]*searchEntry),
	}
}

// GetTrending returns the trending carousel of a category.
func (s *DiscoveryService) GetTrending(ctx context.Context, userID string, cat catalog.Category) ([]models.CatalogItem, error) {
	tok := s.begin(ctx, userID, catalog.SurfaceTrending, string(cat))
	defer tok.Finish()

	out, err := s.aggregator.Run(tok, catalog.Request{
		Sources: []catalog.QuerySource{catalog.TrendingSource(cat)},
		Target:  s.cfg.TrendingTarget,
		Policy:  s.policy(ctx, userID),
	})
	return s.settle(tok, catalog.SurfaceTrending, out, err)
}

// GetSuggestions returns a random sample of a category's pool with genre
// labels.
func (s *DiscoveryService) GetSuggestions(ctx context.Context, userID string, cat catalog.Category) ([]models.Suggestion, error) {
	tok := s.begin(ctx, userID, catalog.SurfaceSuggestions, string(cat))
	defer tok.Finish()

	out, err := s.aggregator.Run(tok, catalog.Request{
		Sources: []catalog.QuerySource{catalog.SuggestionSource(cat)},
		Target:  s.cfg.SuggestionPool,
		Policy:  s.policy(ctx, userID),
	})
	if err != nil {
		_, err = s.settle(tok, catalog.SurfaceSuggestions, out, err)
		return nil, err
	}

	names := s.genreNames(ctx)
	picked := s.sample(out.Items, s.cfg.SuggestionSample)
	suggestions := make([]models.Suggestion, 0, len(picked))
	for _, item := range picked {
		suggestions = append(suggestions, models.Suggestion{CatalogItem: item, GenreLabel: GenreLabel(item.GenreIDs, names)})
	}

	if !s.publish(tok, catalog.SurfaceSuggestions, StateReady, suggestions) {
		return nil, catalog.ErrCancelled
	}
	return suggestions, nil
}

// GetRecommendations plans sources from the user's current favorites and
// cascades through them, omitting what the user already saved.
func (s *DiscoveryService) GetRecommendations(ctx context.Context, userID string) ([]models.CatalogItem, error) {
	tok := s.begin(ctx, userID, catalog.SurfaceRecommendations, "")
	defer tok.Finish()

	favorites, err := s.library.ListItems(ctx, userID, models.ListFavorites)
	if err != nil {
		if !s.publish(tok, catalog.SurfaceRecommendations, StateFailed, nil) {
			return nil, catalog.ErrCancelled
		}
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}

	exclude := make(catalog.ExcludeSet, len(favorites))
	for _, f := range favorites {
		exclude[f.Key()] = struct{}{}
	}
	profile := catalog.BuildProfile(favorites, s.cfg.AffinityLocale)
	plan := s.planner.Plan(profile)

	slog.Debug("recommendation plan built",
		"user_id", userID,
		"favorites", len(favorites),
		"sources", len(plan),
		"tv_affinity", profile.TVAffinity,
		"locale_affinity", profile.LocaleAffinity,
	)

	out, err := s.aggregator.Run(tok, catalog.Request{
		Sources: plan,
		Target:  s.cfg.RecommendationTarget,
		Exclude: exclude,
		Policy:  s.policy(ctx, userID),
	})
	return s.settle(tok, catalog.SurfaceRecommendations, out, err)
}

// GetDetail composes the detail page of key. Intermediate snapshots are
// visible through View while the fan-out is in flight.
func (s *DiscoveryService) GetDetail(ctx context.Context, userID string, key models.ItemKey) (*models.DetailBundle, error) {
	tok := s.begin(ctx, userID, catalog.SurfaceDetail, key.String())
	defer tok.Finish()

	bundle, err := s.composer.Compose(tok, key, s.policy(ctx, userID), func(b models.DetailBundle) {
		state := StatePartial
		if b.Complete() {
			state = StateReady
		}
		s.publish(tok, catalog.SurfaceDetail, state, b)
	})
	switch {
	case errors.Is(err, catalog.ErrCancelled):
		return nil, catalog.ErrCancelled
	case err != nil:
		slog.Warn("detail composition failed", "user_id", userID, "key", key.String(), "error", err)
		if !s.publish(tok, catalog.SurfaceDetail, StateNotFound, nil) {
			return nil, catalog.ErrCancelled
		}
		return nil, err
	}

	if !s.publish(tok, catalog.SurfaceDetail, StateReady, *bundle) {
		return nil, catalog.ErrCancelled
	}
	return bundle, nil
}

// GetPlayableSources searches full-length videos for key. It only runs while
// key is the user's open detail page and stops when that page changes.
func (s *DiscoveryService) GetPlayableSources(ctx context.Context, userID string, key models.ItemKey) ([]models.Video, error) {
	cur, ok := s.registry.Current(userID, catalog.SurfaceDetail)
	if !ok || cur.Label() != key.String() {
		return nil, ErrNotCurrentSelection
	}

	tok := cur.Derive()
	defer tok.Cancel()
	stop := context.AfterFunc(ctx, tok.Cancel)
	defer stop()

	title, year, err := s.detailTitle(tok, userID, key, s.policy(ctx, userID))
	if err != nil {
		return nil, err
	}
	return s.composer.FetchPlayableSources(tok, title, year)
}

// Search runs a debounced multi-type search for the user. Superseded
// searches return catalog.ErrCancelled.
func (s *DiscoveryService) Search(ctx context.Context, userID, text string) ([]models.CatalogItem, error) {
	tok := s.begin(ctx, userID, catalog.SurfaceSearch, text)
	defer tok.Finish()

	items, err := s.searchSession(userID).Submit(ctx, text, s.policy(ctx, userID))
	if errors.Is(err, catalog.ErrCancelled) {
		return nil, catalog.ErrCancelled
	}
	if err != nil {
		slog.Warn("search source unavailable", "user_id", userID, "error", err)
		items = []models.CatalogItem{}
	}

	if !s.publish(tok, catalog.SurfaceSearch, StateReady, items) {
		return nil, catalog.ErrCancelled
	}
	return items, nil
}

// View returns the visible state of a surface.
func (s *DiscoveryService) View(userID string, surface catalog.Surface) (View, bool) {
	v, ok := s.registry.Visible(userID, surface)
	if !ok {
		return View{}, false
	}
	view, ok := v.(View)
	return view, ok
}

// SyncGenres refreshes the genre directory from the catalog.
func (s *DiscoveryService) SyncGenres(ctx context.Context) (int, error) {
	tok := catalog.Detached(ctx)
	defer tok.Cancel()

	synced := 0
	for _, mt := range []models.MediaType{models.MediaMovie, models.MediaTV} {
		genres, err := s.client.Genres(tok, mt, catalog.ContentPolicy{})
		if err != nil {
			return synced, fmt.Errorf("failed to fetch %s genres: %w", mt, err)
		}
		for _, g := range genres {
			if err := s.genres.UpsertGenre(ctx, g); err != nil {
				slog.Error("failed to upsert genre", "genre", g.Name, "error", err)
				continue
			}
			synced++
		}
	}

	slog.Info("genre sync completed", "total_synced", synced)
	return synced, nil
}

// Close drops pending searches.
func (s *DiscoveryService) Close() {
	s.searchMu.Lock()
	defer s.searchMu.Unlock()
	for _, e := range s.searches {
		e.session.Close()
	}
	s.searches = make(map[string]*searchEntry)
}

// PruneIdle drops the sessions and visible state of users that have been
// idle since cutoff. Running searches are kept.
func (s *DiscoveryService) PruneIdle(cutoff time.Time) int {
	pruned := s.registry.Prune(cutoff)

	s.searchMu.Lock()
	defer s.searchMu.Unlock()
	for userID, e := range s.searches {
		if e.lastUsed.Before(cutoff) && e.session.Idle() {
			e.session.Close()
			delete(s.searches, userID)
			pruned++
		}
	}
	return pruned
}

// RunJanitor prunes idle sessions every ttl/2 until ctx is done.
func (s *DiscoveryService) RunJanitor(ctx context.Context, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.PruneIdle(now.Add(-ttl)); n > 0 {
				slog.Debug("pruned idle sessions", "count", n)
			}
		}
	}
}

// GenreLabel is the "A · B" label of the first two known genres.
func GenreLabel(ids []int, names map[int]string) string {
	var parts []string
	for _, id := range ids {
		if name, ok := names[id]; ok {
			parts = append(parts, name)
		}
		if len(parts) == 2 {
			break
		}
	}
	if len(parts) == 0 {
		return defaultGenreLabel
	}
	return strings.Join(parts, " · ")
}

// ---- Helpers ----

func (s *DiscoveryService) begin(ctx context.Context, userID string, surface catalog.Surface, label string) *catalog.Token {
	tok := s.registry.Begin(ctx, userID, surface, label)
	s.publish(tok, surface, StateLoading, nil)
	return tok
}

// publish writes the surface's view if tok is still current.
func (s *DiscoveryService) publish(tok *catalog.Token, surface catalog.Surface, state string, data any) bool {
	return s.registry.Apply(tok, func(any) any {
		return View{Surface: surface, State: state, Label: tok.Label(), Data: data}
	})
}

// settle maps a cascade outcome to the surface view and return values.
func (s *DiscoveryService) settle(tok *catalog.Token, surface catalog.Surface, out catalog.Outcome, err error) ([]models.CatalogItem, error) {
	switch {
	case errors.Is(err, catalog.ErrCancelled):
		return nil, catalog.ErrCancelled
	case errors.Is(err, catalog.ErrAllSourcesExhausted):
		slog.Warn("all catalog sources exhausted", "surface", surface, "failed", len(out.Failed))
		if !s.publish(tok, surface, StateExhausted, out.Items) {
			return nil, catalog.ErrCancelled
		}
		return out.Items, err
	case err != nil:
		if !s.publish(tok, surface, StateFailed, nil) {
			return nil, catalog.ErrCancelled
		}
		return nil, err
	}

	if !s.publish(tok, surface, StateReady, out.Items) {
		return nil, catalog.ErrCancelled
	}
	return out.Items, nil
}

// policy resolves the content policy for this request. Lookup failures fall
// back to the restrictive zero value.
func (s *DiscoveryService) policy(ctx context.Context, userID string) catalog.ContentPolicy {
	pref, err := s.library.GetPreference(ctx, userID)
	if err != nil {
		slog.Warn("failed to load preference, disallowing adult content", "user_id", userID, "error", err)
		return catalog.ContentPolicy{}
	}
	return catalog.ContentPolicy{AllowAdult: pref.AdultContent}
}

func (s *DiscoveryService) genreNames(ctx context.Context) map[int]string {
	if s.genres == nil {
		return nil
	}
	names, err := s.genres.GenreNames(ctx)
	if err != nil {
		slog.Warn("failed to load genre names", "error", err)
		return nil
	}
	return names
}

func (s *DiscoveryService) sample(items []models.CatalogItem, n int) []models.CatalogItem {
	s.rngMu.Lock()
	perm := s.rng.Perm(len(items))
	s.rngMu.Unlock()

	if n <= 0 || n > len(items) {
		n = len(items)
	}
	out := make([]models.CatalogItem, 0, n)
	for _, i := range perm[:n] {
		out = append(out, items[i])
	}
	return out
}

// detailTitle reads title and year from the visible detail bundle, fetching
// the record when it has not arrived yet.
func (s *DiscoveryService) detailTitle(tok *catalog.Token, userID string, key models.ItemKey, policy catalog.ContentPolicy) (string, int, error) {
	if v, ok := s.View(userID, catalog.SurfaceDetail); ok {
		if b, ok := v.Data.(models.DetailBundle); ok && b.Key == key && b.Record != nil {
			return b.Record.Title, b.Record.ReleaseYear, nil
		}
	}
	rec, err := s.client.Record(tok, key, policy)
	if err != nil {
		if errors.Is(err, catalog.ErrCancelled) {
			return "", 0, err
		}
		return "", 0, fmt.Errorf("%w: %w", catalog.ErrDetailNotFound, err)
	}
	return rec.Title, rec.ReleaseYear, nil
}

func (s *DiscoveryService) searchSession(userID string) *catalog.SearchSession {
	s.searchMu.Lock()
	defer s.searchMu.Unlock()
	e, ok := s.searches[userID]
	if !ok {
		e = &searchEntry{session: catalog.NewSearchSession(s.client, s.cfg.SearchDebounce)}
		s.searches[userID] = e
	}
	e.lastUsed = time.Now()
	return e.session
}
