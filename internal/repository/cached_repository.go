package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/zhejian/shortcodes/internal/model"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKeyPrefix = "link:"

	// notFoundSentinel marks a short code known to be absent.
	notFoundSentinel = "__NOT_FOUND__"
)

// CacheOptions configures a CachedRepository.
type CacheOptions struct {
	TTL         time.Duration
	NegativeTTL time.Duration
	Registerer  prometheus.Registerer
	Logger      *slog.Logger
}

// CachedRepository decorates a ShortLinkRepository with a Redis cache-aside
// layer. Redis failures never fail a request: lookups fall back to the inner
// repository and a circuit breaker stops hammering an unhealthy Redis.
type CachedRepository struct {
	inner       ShortLinkRepository
	cache       *redis.Client
	ttl         time.Duration
	negativeTTL time.Duration
	breaker     *gobreaker.CircuitBreaker
	group       singleflight.Group
	metrics     *CacheMetrics
	logger      *slog.Logger
}

// NewCachedRepository wraps inner. A nil cache client makes the decorator a pass-through.
func NewCachedRepository(inner ShortLinkRepository, cache *redis.Client, opts CacheOptions) *CachedRepository {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &CachedRepository{
		inner:       inner,
		cache:       cache,
		ttl:         opts.TTL,
		negativeTTL: opts.NegativeTTL,
		metrics:     NewCacheMetrics(opts.Registerer),
		logger:      logger,
	}

	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return r
}

func cacheKey(code string) string {
	return cacheKeyPrefix + code
}

// GetByCode with cache-aside pattern and negative caching
func (r *CachedRepository) GetByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	if r.cache == nil {
		return r.inner.GetByCode(ctx, code)
	}

	key := cacheKey(code)

	// 1. Try cache first
	if link, hit := r.lookup(ctx, key); hit {
		if link == nil {
			return nil, ErrNotFound
		}
		return link, nil
	}

	// 2. Query the inner store once per key, however many callers miss at the same time
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		link, err := r.inner.GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				r.write(ctx, key, notFoundSentinel, r.negativeTTL, "negative")
			}
			return nil, err
		}

		// 3. Store in cache
		if data, mErr := json.Marshal(link); mErr == nil {
			r.write(ctx, key, data, r.ttl, "positive")
		}
		return link, nil
	})
	if err != nil {
		return nil, err
	}

	link := *v.(*model.ShortLink)
	return &link, nil
}

// Exists is answered through GetByCode so negative entries are shared with lookups.
func (r *CachedRepository) Exists(ctx context.Context, code string) (bool, error) {
	if r.cache == nil {
		return r.inner.Exists(ctx, code)
	}

	_, err := r.GetByCode(ctx, code)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Create writes through: the record is cached only after the inner store accepted it,
// which also replaces any negative entry for the code.
func (r *CachedRepository) Create(ctx context.Context, link *model.ShortLink) error {
	if err := r.inner.Create(ctx, link); err != nil {
		return err
	}

	if r.cache != nil {
		if data, err := json.Marshal(link); err == nil {
			r.write(ctx, cacheKey(link.ShortCode), data, r.ttl, "positive")
		}
	}

	return nil
}

// lookup returns hit=false when the caller must consult the inner store.
// A hit with a nil link is a cached not-found.
func (r *CachedRepository) lookup(ctx context.Context, key string) (*model.ShortLink, bool) {
	v, err := r.breaker.Execute(func() (interface{}, error) {
		val, err := r.cache.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return val, err
	})
	if err != nil {
		r.metrics.Lookups.WithLabelValues(cacheResultError).Inc()
		r.logger.WarnContext(ctx, "cache lookup failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, false
	}

	cached := v.(string)
	switch cached {
	case "":
		r.metrics.Lookups.WithLabelValues(cacheResultMiss).Inc()
		return nil, false
	case notFoundSentinel:
		r.metrics.Lookups.WithLabelValues(cacheResultNegativeHit).Inc()
		return nil, true
	}

	var link model.ShortLink
	if err := json.Unmarshal([]byte(cached), &link); err != nil {
		r.metrics.Lookups.WithLabelValues(cacheResultError).Inc()
		r.logger.WarnContext(ctx, "discarding undecodable cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, false
	}

	r.metrics.Lookups.WithLabelValues(cacheResultHit).Inc()
	return &link, true
}

func (r *CachedRepository) write(ctx context.Context, key string, value interface{}, ttl time.Duration, kind string) {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.cache.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		r.metrics.Writes.WithLabelValues(kind, "error").Inc()
		r.logger.WarnContext(ctx, "cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return
	}
	r.metrics.Writes.WithLabelValues(kind, "ok").Inc()
}

var _ ShortLinkRepository = (*CachedRepository)(nil)
