package repository

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	cacheResultHit         = "hit"
	cacheResultNegativeHit = "negative_hit"
	cacheResultMiss        = "miss"
	cacheResultError       = "error"
)

// CacheMetrics contains the Prometheus collectors for the short link cache.
type CacheMetrics struct {
	Lookups *prometheus.CounterVec
	Writes  *prometheus.CounterVec
}

// NewCacheMetrics creates the cache collectors and registers them on reg.
// A nil registerer yields unregistered collectors.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	factory := promauto.With(reg)
	return &CacheMetrics{
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shortcodes",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Short link cache lookups by result.",
		}, []string{"result"}),
		Writes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shortcodes",
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Short link cache writes by kind and status.",
		}, []string{"kind", "status"}),
	}
}
