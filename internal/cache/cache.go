// Package cache provides a small JSON object cache for derived data such
// as report pivots and dashboard statistics. Values live in Redis when it
// is configured and in process memory otherwise; both backends apply the
// configured key prefix and default TTL the same way.
package cache

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/helpdesk-io/helpdesk-ce/internal/config"
)

const defaultTTL = 5 * time.Minute

var (
	hitCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helpdesk_cache_hits_total",
		Help: "Cache lookups that found a live entry",
	}, []string{"backend"})
	missCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helpdesk_cache_misses_total",
		Help: "Cache lookups that found nothing",
	}, []string{"backend"})
	errorCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "helpdesk_cache_errors_total",
		Help: "Cache operations that failed",
	}, []string{"backend"})
)

// Store is a typed object cache. Get unmarshals into dest and reports
// whether a live entry was found; a zero ttl on Set means the store's
// default.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// New builds the store the configuration asks for. With Redis disabled the
// in-process store is returned, which is also the test substrate.
func New(cfg config.RedisConfig) (Store, error) {
	if !cfg.Enabled {
		return NewMemoryStore(cfg.Cache.Prefix, cfg.Cache.TTL), nil
	}
	return NewRedisStore(cfg)
}

// ReportKey names the cache entry for one report kind under one query
// spec. The encoded spec is hashed so keys stay short and charset-safe.
func ReportKey(report, encodedQuery string) string {
	h := fnv.New64a()
	h.Write([]byte(encodedQuery))
	return fmt.Sprintf("report:%s:%x", report, h.Sum64())
}

// StatsKey names the dashboard statistics entry.
func StatsKey() string {
	return "stats:basic"
}

// InvalidateDerived drops every report pivot and the dashboard statistics.
// Called after ticket mutations so stale aggregates never outlive a write
// by more than the TTL.
func InvalidateDerived(ctx context.Context, store Store) error {
	if store == nil {
		return nil
	}
	if err := store.DeletePrefix(ctx, "report:"); err != nil {
		return err
	}
	return store.Delete(ctx, StatsKey())
}
