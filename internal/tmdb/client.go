package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"movie-discovery-catalog-service/internal/config"
	"movie-discovery-catalog-service/internal/metrics"
)

const breakerName = "tmdb-api"

// StatusError is returned when the catalog API answers with a non-2xx status.
type StatusError struct {
	Status int
	Path   string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("TMDB API returned status %d for %s: %s", e.Status, e.Path, e.Body)
}

// Client is the TMDB API transport: GET JSON over HTTPS with api-key
// injection, outbound throttling, a circuit breaker and an optional
// Redis response cache.
type Client struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]byte]
	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient creates a new TMDB API client. rdb may be nil.
func NewClient(cfg config.TMDBConfig, rdb *redis.Client) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
		limiter:  rate.NewLimiter(limit, burst),
		breaker:  newBreaker(),
		redis:    rdb,
		cacheTTL: cfg.CacheTTL,
	}
}

func newBreaker() *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		// Client errors and caller cancellation say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			var se *StatusError
			if errors.As(err, &se) {
				return se.Status < 500 && se.Status != http.StatusTooManyRequests
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Get issues GET baseURL+path with params and decodes the JSON body into dst.
// path may carry its own query string; it is merged with params.
func (c *Client) Get(ctx context.Context, path string, params url.Values, dst any) error {
	path, query, err := splitPath(path, params)
	if err != nil {
		return err
	}

	cacheKey := "tmdb:" + path + "?" + query.Encode()
	if cached, err := c.getFromCache(ctx, cacheKey); err == nil {
		if json.Unmarshal(cached, dst) == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			slog.Debug("cache hit", "key", cacheKey)
			return nil
		}
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	query.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + query.Encode()

	slog.Debug("fetching TMDB", "path", path)
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doGet(ctx, reqURL, path)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	c.setCache(ctx, cacheKey, body)
	return nil
}

func (c *Client) doGet(ctx context.Context, reqURL, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Path: path, Body: truncate(string(body), 256)}
	}
	return body, nil
}

func splitPath(path string, params url.Values) (string, url.Values, error) {
	query := url.Values{}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		parsed, err := url.ParseQuery(path[i+1:])
		if err != nil {
			return "", nil, fmt.Errorf("invalid endpoint %q: %w", path, err)
		}
		query = parsed
		path = path[:i]
	}
	for k, vs := range params {
		query[k] = append([]string(nil), vs...)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, query, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ---- Redis Helpers ----

func (c *Client) getFromCache(ctx context.Context, key string) ([]byte, error) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return nil, fmt.Errorf("redis not available")
	}
	return c.redis.Get(ctx, key).Bytes()
}

func (c *Client) setCache(ctx context.Context, key string, value []byte) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	if err := c.redis.Set(ctx, key, value, c.cacheTTL).Err(); err != nil {
		slog.Error("failed to set cache", "key", key, "error", err)
	}
}
