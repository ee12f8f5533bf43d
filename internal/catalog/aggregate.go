package catalog

import (
	"errors"
	"log/slog"
	"sort"

	"movie-discovery-catalog-service/internal/metrics"
	"movie-discovery-catalog-service/internal/models"
)

// Querier runs one list query. *Client implements it.
type Querier interface {
	Fetch(tok *Token, src QuerySource, policy ContentPolicy) ([]models.CatalogItem, error)
}

// Request is the input of one cascade run.
type Request struct {
	Sources []QuerySource
	Target  int
	Exclude ExcludeSet
	Policy  ContentPolicy
}

// Outcome is the result of one cascade run.
type Outcome struct {
	Items      []models.CatalogItem
	Failed     []string
	Visited    int
	ReachedCap bool
}

// Aggregator walks ranked sources one at a time, merging results until the
// target is met. A failing source is skipped, never fatal.
type Aggregator struct {
	client    Querier
	fallbacks []QuerySource
}

// NewAggregator creates an aggregator. fallbacks is the floor attempted when
// the ranked sources under-deliver; nil means DefaultFallbacks.
func NewAggregator(client Querier, fallbacks []QuerySource) *Aggregator {
	if fallbacks == nil {
		fallbacks = DefaultFallbacks()
	}
	return &Aggregator{client: client, fallbacks: fallbacks}
}

// Run executes the cascade. It returns ErrCancelled, with partial results
// discarded, once tok is cancelled, and ErrAllSourcesExhausted with an empty
// item list when every source including the fallbacks produced nothing.
func (a *Aggregator) Run(tok *Token, req Request) (Outcome, error) {
	ranked := append([]QuerySource(nil), req.Sources...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Priority() > ranked[j].Priority()
	})

	out := Outcome{Items: []models.CatalogItem{}}
	visited := make(map[string]bool, len(ranked)+len(a.fallbacks))

	walk := func(sources []QuerySource) error {
		for _, src := range sources {
			if out.ReachedCap {
				return nil
			}
			id := src.Identity()
			if visited[id] {
				continue
			}
			visited[id] = true
			out.Visited++

			batch, err := a.client.Fetch(tok, src, req.Policy)
			if errors.Is(err, ErrCancelled) || tok.Cancelled() {
				metrics.SourceRequests.WithLabelValues(src.String(), "cancelled").Inc()
				return ErrCancelled
			}
			if err != nil {
				metrics.SourceRequests.WithLabelValues(src.String(), "unavailable").Inc()
				slog.Warn("catalog source failed", "source", src.String(), "error", err)
				out.Failed = append(out.Failed, id)
				continue
			}
			metrics.SourceRequests.WithLabelValues(src.String(), "ok").Inc()

			out.Items, out.ReachedCap = Merge(out.Items, batch, req.Exclude, req.Target)
			slog.Debug("catalog source merged",
				"source", src.String(),
				"batch", len(batch),
				"total", len(out.Items),
				"reached_cap", out.ReachedCap,
			)
		}
		return nil
	}

	if err := walk(ranked); err != nil {
		return Outcome{}, err
	}
	if a.underTarget(out, req.Target) {
		if err := walk(a.fallbacks); err != nil {
			return Outcome{}, err
		}
	}

	metrics.CascadeSteps.WithLabelValues(cascadeResult(out)).Observe(float64(out.Visited))

	if len(out.Items) == 0 {
		return Outcome{Items: []models.CatalogItem{}, Failed: out.Failed, Visited: out.Visited}, ErrAllSourcesExhausted
	}
	return out, nil
}

func (a *Aggregator) underTarget(out Outcome, target int) bool {
	if out.ReachedCap {
		return false
	}
	if target <= 0 {
		return len(out.Items) == 0
	}
	return len(out.Items) < target
}

func cascadeResult(out Outcome) string {
	switch {
	case out.ReachedCap:
		return "cap"
	case len(out.Items) == 0:
		return "exhausted"
	default:
		return "partial"
	}
}

