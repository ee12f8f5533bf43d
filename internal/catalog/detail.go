package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/sourcegraph/conc"

	"movie-discovery-catalog-service/internal/metrics"
	"movie-discovery-catalog-service/internal/models"
	"movie-discovery-catalog-service/internal/youtube"
)

// Parts of a detail bundle, as listed in DetailBundle.Pending.
const (
	PartRecord   = "record"
	PartTrailers = "trailers"
	PartCast     = "cast"
)

// DetailSource fetches the three parts of a detail page. *Client implements it.
type DetailSource interface {
	Record(tok *Token, key models.ItemKey, policy ContentPolicy) (*models.DetailRecord, error)
	Videos(tok *Token, key models.ItemKey, policy ContentPolicy) ([]models.MediaAsset, error)
	Credits(tok *Token, key models.ItemKey, policy ContentPolicy) ([]models.CastMember, error)
}

// VideoSearcher runs one free-text video search. *youtube.Client implements it.
type VideoSearcher interface {
	Search(ctx context.Context, query string, opts youtube.SearchOptions) ([]models.Video, error)
}

// DetailComposer assembles the detail page of one entity.
type DetailComposer struct {
	source        DetailSource
	videos        VideoSearcher
	castLimit     int
	playableLimit int
}

// NewDetailComposer creates a composer. videos may be nil, in which case
// playable sources are always empty.
func NewDetailComposer(source DetailSource, videos VideoSearcher, castLimit, playableLimit int) *DetailComposer {
	return &DetailComposer{
		source:        source,
		videos:        videos,
		castLimit:     castLimit,
		playableLimit: playableLimit,
	}
}

// Compose fetches record, trailers and cast concurrently. publish, if not
// nil, receives a snapshot each time a part settles while tok is current.
// A failed record yields ErrDetailNotFound; failed trailers or cast leave
// that part empty.
func (d *DetailComposer) Compose(tok *Token, key models.ItemKey, policy ContentPolicy, publish func(models.DetailBundle)) (*models.DetailBundle, error) {
	if err := tok.Err(); err != nil {
		return nil, err
	}

	var (
		mu        sync.Mutex
		recordErr error
		bundle    = models.DetailBundle{
			Key:      key,
			Trailers: []models.MediaAsset{},
			Cast:     []models.CastMember{},
			Pending:  []string{PartRecord, PartTrailers, PartCast},
		}
	)

	settle := func(part string, apply func()) {
		mu.Lock()
		defer mu.Unlock()
		if tok.Cancelled() {
			return
		}
		apply()
		bundle.Pending = slices.DeleteFunc(bundle.Pending, func(p string) bool { return p == part })
		if publish != nil {
			publish(snapshot(bundle))
		}
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		rec, err := d.source.Record(tok, key, policy)
		settle(PartRecord, func() {
			if err != nil {
				recordErr = err
				return
			}
			bundle.Record = rec
		})
	})
	wg.Go(func() {
		assets, err := d.source.Videos(tok, key, policy)
		settle(PartTrailers, func() {
			if err != nil {
				slog.Warn("detail trailers unavailable", "key", key.String(), "error", err)
				return
			}
			bundle.Trailers = youTubeTrailers(assets)
		})
	})
	wg.Go(func() {
		cast, err := d.source.Credits(tok, key, policy)
		settle(PartCast, func() {
			if err != nil {
				slog.Warn("detail cast unavailable", "key", key.String(), "error", err)
				return
			}
			if d.castLimit > 0 && len(cast) > d.castLimit {
				cast = cast[:d.castLimit]
			}
			bundle.Cast = cast
		})
	})
	wg.Wait()

	if tok.Cancelled() {
		return nil, ErrCancelled
	}

	mu.Lock()
	defer mu.Unlock()
	if recordErr != nil {
		if errors.Is(recordErr, ErrCancelled) {
			return nil, ErrCancelled
		}
		if errors.Is(recordErr, ErrDetailNotFound) {
			return nil, recordErr
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDetailNotFound, key, recordErr)
	}
	if bundle.Record == nil {
		return nil, fmt.Errorf("%w: %s", ErrDetailNotFound, key)
	}
	out := snapshot(bundle)
	return &out, nil
}

// PlayableQueries returns the ranked search variants for title. Variants
// naming the year are skipped when year is unknown.
func PlayableQueries(title string, year int) []string {
	title = strings.TrimSpace(title)
	if year <= 0 {
		return []string{title + " full movie", title + " free movie"}
	}
	y := strconv.Itoa(year)
	return []string{
		title + " " + y + " full movie",
		title + " full movie",
		title + " " + y + " free movie",
		title + " free movie",
	}
}

// FetchPlayableSources searches for full-length videos of title. Results are
// concatenated in variant order, deduplicated by video id and capped. A
// failing variant is skipped.
func (d *DetailComposer) FetchPlayableSources(tok *Token, title string, year int) ([]models.Video, error) {
	if err := tok.Err(); err != nil {
		return nil, err
	}
	out := []models.Video{}
	if d.videos == nil || strings.TrimSpace(title) == "" {
		return out, nil
	}

	opts := youtube.SearchOptions{MaxResults: 5, VideoDuration: "long", Order: "relevance"}
	seen := make(map[string]struct{})
	for _, q := range PlayableQueries(title, year) {
		if d.playableLimit > 0 && len(out) >= d.playableLimit {
			break
		}
		if err := tok.Err(); err != nil {
			return nil, err
		}

		videos, err := d.videos.Search(tok.Context(), q, opts)
		if tok.Cancelled() {
			metrics.SourceRequests.WithLabelValues("youtube", "cancelled").Inc()
			return nil, ErrCancelled
		}
		if err != nil {
			metrics.SourceRequests.WithLabelValues("youtube", "unavailable").Inc()
			slog.Warn("video search variant failed", "query", q, "error", err)
			continue
		}
		metrics.SourceRequests.WithLabelValues("youtube", "ok").Inc()

		for _, v := range videos {
			if _, dup := seen[v.ID]; dup || v.ID == "" {
				continue
			}
			if d.playableLimit > 0 && len(out) >= d.playableLimit {
				break
			}
			seen[v.ID] = struct{}{}
			out = append(out, v)
		}
	}
	return out, nil
}

func youTubeTrailers(assets []models.MediaAsset) []models.MediaAsset {
	out := make([]models.MediaAsset, 0, len(assets))
	for _, a := range assets {
		if a.Site == "YouTube" && a.Type == "Trailer" {
			out = append(out, a)
		}
	}
	return out
}

func snapshot(b models.DetailBundle) models.DetailBundle {
	b.Trailers = slices.Clone(b.Trailers)
	b.Cast = slices.Clone(b.Cast)
	b.Pending = slices.Clone(b.Pending)
	return b
}
