package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"movie-discovery-catalog-service/internal/models"
)

type searchResult struct {
	items []models.CatalogItem
	err   error
}

// SearchSession debounces query changes into single-flight multi-type
// searches. Only the most recent query may update the visible results.
type SearchSession struct {
	client   Querier
	debounce time.Duration

	mu       sync.Mutex
	gen      uint64
	timer    *time.Timer
	inflight *Token
	waiter   chan searchResult
	visible  []models.CatalogItem
}

// NewSearchSession creates a search session with the given debounce window.
func NewSearchSession(client Querier, debounce time.Duration) *SearchSession {
	return &SearchSession{client: client, debounce: debounce, visible: []models.CatalogItem{}}
}

// OnQueryChange registers a keystroke. The search runs once no further change
// arrives within the debounce window; its result is read with Visible.
func (s *SearchSession) OnQueryChange(text string, policy ContentPolicy) {
	s.schedule(text, policy)
}

// Submit is OnQueryChange that waits for the outcome. It returns ErrCancelled
// when a later change supersedes text or ctx ends first.
func (s *SearchSession) Submit(ctx context.Context, text string, policy ContentPolicy) ([]models.CatalogItem, error) {
	done, gen := s.schedule(text, policy)
	select {
	case res := <-done:
		return res.items, res.err
	case <-ctx.Done():
		s.abandon(gen)
		return nil, ErrCancelled
	}
}

// Idle reports whether no search is pending or in flight.
func (s *SearchSession) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer == nil && s.inflight == nil && s.waiter == nil
}

// Visible returns the results of the most recent completed search.
func (s *SearchSession) Visible() []models.CatalogItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CatalogItem, len(s.visible))
	copy(out, s.visible)
	return out
}

// Close drops any pending or in-flight search.
func (s *SearchSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.supersedeLocked()
}

func (s *SearchSession) schedule(text string, policy ContentPolicy) (<-chan searchResult, uint64) {
	done := make(chan searchResult, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	gen := s.gen
	s.supersedeLocked()

	if strings.TrimSpace(text) == "" {
		s.visible = []models.CatalogItem{}
		done <- searchResult{items: []models.CatalogItem{}}
		return done, gen
	}

	s.waiter = done
	s.timer = time.AfterFunc(s.debounce, func() {
		s.fire(gen, strings.TrimSpace(text), policy)
	})
	return done, gen
}

// abandon drops the search scheduled as gen when its caller stopped waiting.
// A newer schedule is left alone.
func (s *SearchSession) abandon(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.gen++
	s.supersedeLocked()
}

// supersedeLocked stops the pending timer, cancels the in-flight call and
// resolves the previous waiter as cancelled.
func (s *SearchSession) supersedeLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.inflight != nil {
		s.inflight.Cancel()
		s.inflight = nil
	}
	if s.waiter != nil {
		s.waiter <- searchResult{err: ErrCancelled}
		s.waiter = nil
	}
}

func (s *SearchSession) fire(gen uint64, text string, policy ContentPolicy) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	tok := Detached(context.Background())
	s.inflight = tok
	s.timer = nil
	s.mu.Unlock()

	items, err := s.client.Fetch(tok, SearchSource(text), policy)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || tok.Cancelled() {
		return
	}
	s.inflight = nil
	tok.Cancel()

	waiter := s.waiter
	s.waiter = nil
	if err != nil {
		slog.Warn("search failed", "query", text, "error", err)
		if waiter != nil {
			waiter <- searchResult{err: err}
		}
		return
	}

	s.visible = items
	if waiter != nil {
		waiter <- searchResult{items: items}
	}
}
