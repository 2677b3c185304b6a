// Package attraction looks up points of interest near a destination and caches
// them per (city, state) with an explicit expiry check.
package attraction

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pkordes/trip-planner/internal/domain"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attraction_cache_hits_total",
		Help: "Attraction lookups served from cache",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attraction_cache_misses_total",
		Help: "Attraction lookups that went to the upstream fetcher",
	})
)

// DefaultLimit is used when the caller does not ask for a specific count.
const DefaultLimit = 10

// Fetcher is the external attraction collaborator.
type Fetcher interface {
	Fetch(ctx context.Context, city, state string, limit int) ([]domain.Attraction, error)
}

// Key identifies a cache entry. City and State are compared case-insensitively.
type Key struct {
	City  string
	State string
}

// NewKey normalizes city/state into a Key.
func NewKey(city, state string) Key {
	return Key{City: strings.ToLower(strings.TrimSpace(city)), State: strings.ToLower(strings.TrimSpace(state))}
}

func (k Key) String() string { return k.City + "|" + k.State }

// Entry is a cached lookup result. Limit is the count that was requested
// from the fetcher; the upstream may have returned fewer.
type Entry struct {
	Attractions []domain.Attraction `json:"attractions"`
	FetchedAt   time.Time           `json:"fetched_at"`
	Limit       int                 `json:"limit"`
}

// Expired reports whether the entry is older than ttl at now.
func (e Entry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) >= ttl
}

// Cache stores entries by key. Get returns ok=false when nothing is stored;
// expiry is decided by the caller via Entry.Expired.
type Cache interface {
	Get(ctx context.Context, k Key) (Entry, bool, error)
	Set(ctx context.Context, k Key, e Entry) error
}

// Service serves attraction lookups through a Cache.
type Service struct {
	fetcher Fetcher
	cache   Cache
	ttl     time.Duration
	now     func() time.Time
}

// NewService constructs a Service. now may be nil to use time.Now.
func NewService(f Fetcher, c Cache, ttl time.Duration, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{fetcher: f, cache: c, ttl: ttl, now: now}
}

// Attractions returns up to limit attractions for city/state. A fresh cache
// entry is served as is; otherwise the fetcher is called and the result stored.
// Cache read or write failures are logged and bypassed.
func (s *Service) Attractions(ctx context.Context, city, state string, limit int) ([]domain.Attraction, error) {
	if strings.TrimSpace(city) == "" || strings.TrimSpace(state) == "" {
		return nil, fmt.Errorf("%w: city and state are required", domain.ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	key := NewKey(city, state)

	entry, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("attraction cache read failed", "key", key.String(), "error", err)
	}
	if ok && !entry.Expired(s.now(), s.ttl) && entry.Limit >= limit {
		cacheHits.Inc()
		return slices.Clone(entry.Attractions[:min(limit, len(entry.Attractions))]), nil
	}
	cacheMisses.Inc()

	fetched, err := s.fetcher.Fetch(ctx, city, state, limit)
	if err != nil {
		return nil, fmt.Errorf("attraction.Service.Attractions: %w", err)
	}
	if fetched == nil {
		fetched = []domain.Attraction{}
	}
	if err := s.cache.Set(ctx, key, Entry{Attractions: fetched, FetchedAt: s.now().UTC(), Limit: limit}); err != nil {
		slog.Warn("attraction cache write failed", "key", key.String(), "error", err)
	}
	return fetched, nil
}
