package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"movie-discovery-catalog-service/internal/metrics"
)

// Surface names a UI surface that holds at most one active session.
type Surface string

const (
	SurfaceTrending        Surface = "trending"
	SurfaceSuggestions     Surface = "suggestions"
	SurfaceRecommendations Surface = "recommendations"
	SurfaceSearch          Surface = "search"
	SurfaceDetail          Surface = "detail"
)

// ValidSurfaces lists the surfaces whose visible state can be read back.
var ValidSurfaces = map[Surface]bool{
	SurfaceTrending:        true,
	SurfaceSuggestions:     true,
	SurfaceRecommendations: true,
	SurfaceSearch:          true,
	SurfaceDetail:          true,
}

// Token is the cancellation token threaded through every suspension point
// of a session. It is cancelled either explicitly or when a newer session
// begins on the same surface; both cases read as Cancelled.
type Token struct {
	ctx      context.Context
	cancel   context.CancelFunc
	gen      uint64
	label    string
	slot     *slot
	finished atomic.Bool
}

// Detached returns a token bound to no surface. It is cancelled only by
// Cancel or by ctx.
func Detached(ctx context.Context) *Token {
	cctx, cancel := context.WithCancel(ctx)
	return &Token{ctx: cctx, cancel: cancel}
}

// Context carries the token's cancellation into the transport.
func (t *Token) Context() context.Context { return t.ctx }

// Label is the selection the session was started for, e.g. "movie:42".
func (t *Token) Label() string { return t.label }

// Cancel cancels the token and any in-flight transport call using it.
func (t *Token) Cancel() { t.cancel() }

// Cancelled is the cooperative check point used after every suspension.
func (t *Token) Cancelled() bool {
	if t.ctx.Err() != nil {
		return true
	}
	return t.slot != nil && t.slot.gen.Load() != t.gen
}

// Err returns ErrCancelled once the token is cancelled.
func (t *Token) Err() error {
	if t.Cancelled() {
		return ErrCancelled
	}
	return nil
}

// Derive returns a child token that shares this token's surface generation
// and is cancelled together with it.
func (t *Token) Derive() *Token {
	cctx, cancel := context.WithCancel(t.ctx)
	return &Token{ctx: cctx, cancel: cancel, gen: t.gen, label: t.label, slot: t.slot}
}

// Finish marks the session as completed so that replacing it is not
// counted as a supersession.
func (t *Token) Finish() { t.finished.Store(true) }

// Publish replaces the surface's visible state with update(prev), but only
// while the token is still the surface's current session. The check and
// the write happen under the surface lock, so a superseded session can
// never overwrite a newer one.
func (t *Token) Publish(update func(prev any) any) bool {
	s := t.slot
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ctx.Err() != nil || s.gen.Load() != t.gen {
		return false
	}
	s.value = update(s.value)
	s.hasValue = true
	s.touched = time.Now()
	return true
}

type slot struct {
	surface  Surface
	mu       sync.Mutex
	gen      atomic.Uint64
	active   *Token
	value    any
	hasValue bool
	touched  time.Time
}

// idleLocked reports whether nothing is running on the slot and it was last
// used before cutoff.
func (s *slot) idleLocked(cutoff time.Time) bool {
	if s.active != nil && !s.active.finished.Load() && s.active.ctx.Err() == nil {
		return false
	}
	return s.touched.Before(cutoff)
}

type slotKey struct {
	scope   string
	surface Surface
}

// Registry holds the single active session per (scope, surface). The scope
// is usually the user id.
type Registry struct {
	mu    sync.Mutex
	slots map[slotKey]*slot
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[slotKey]*slot)}
}

func (r *Registry) slot(scope string, surface Surface, create bool) *slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slotLocked(scope, surface, create)
}

func (r *Registry) slotLocked(scope string, surface Surface, create bool) *slot {
	k := slotKey{scope: scope, surface: surface}
	s, ok := r.slots[k]
	if !ok && create {
		s = &slot{surface: surface}
		r.slots[k] = s
	}
	return s
}

// Begin starts a new session on the surface, cancelling the previous one
// before any new call is issued. The token outlives ctx's cancellation but
// keeps its values.
func (r *Registry) Begin(ctx context.Context, scope string, surface Surface, label string) *Token {
	// The slot is locked before the registry is released so Prune cannot
	// drop it between lookup and activation.
	r.mu.Lock()
	s := r.slotLocked(scope, surface, true)
	s.mu.Lock()
	r.mu.Unlock()
	defer s.mu.Unlock()

	if prev := s.active; prev != nil {
		if !prev.finished.Load() && prev.ctx.Err() == nil {
			metrics.SessionsSuperseded.WithLabelValues(string(surface)).Inc()
		}
		prev.cancel()
	}
	gen := s.gen.Add(1)
	cctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	tok := &Token{ctx: cctx, cancel: cancel, gen: gen, label: label, slot: s}
	s.active = tok
	s.touched = time.Now()
	return tok
}

// Current returns the surface's active, not yet cancelled session.
func (r *Registry) Current(scope string, surface Surface) (*Token, bool) {
	s := r.slot(scope, surface, false)
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.Cancelled() {
		return nil, false
	}
	return s.active, true
}

// Visible returns the surface's current visible state.
func (r *Registry) Visible(scope string, surface Surface) (any, bool) {
	s := r.slot(scope, surface, false)
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.hasValue
}

// Apply writes the surface's visible state through tok. It is a no-op
// returning false once tok has been superseded or cancelled.
func (r *Registry) Apply(tok *Token, update func(prev any) any) bool {
	if tok == nil {
		return false
	}
	return tok.Publish(update)
}

// Prune drops the slots of sessions that finished and were not used since
// cutoff, and returns how many were dropped. A dropped surface reads as never
// visited.
func (r *Registry) Prune(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	pruned := 0
	for k, s := range r.slots {
		s.mu.Lock()
		idle := s.idleLocked(cutoff)
		s.mu.Unlock()
		if idle {
			delete(r.slots, k)
			pruned++
		}
	}
	return pruned
}

// Len returns the number of live slots.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}
