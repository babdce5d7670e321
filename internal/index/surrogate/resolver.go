package surrogate

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type cacheKey struct {
	cat   Category
	value string
}

// Stats receives resolver cache events. Implementations must be safe for
// concurrent use.
type Stats interface {
	IncCacheHit()
	IncCacheMiss()
	IncIDsMinted()
}

type noStats struct{}

func (noStats) IncCacheHit()  {}
func (noStats) IncCacheMiss() {}
func (noStats) IncIDsMinted() {}

// Resolver is the process-wide identifier model. It fronts a Store with an
// unbounded concurrent cache; the identifier space (coding systems, unit
// codes, parameter names) is small enough that entries are never evicted.
//
// Concurrent first-use of the same (category, value) pair is coalesced so
// that at most one store round trip is in flight per key; misses on distinct
// keys proceed in parallel.
type Resolver struct {
	store  Store
	cache  sync.Map // cacheKey -> int64
	flight singleflight.Group
	logger zerolog.Logger
	stats  Stats
}

// NewResolver creates a Resolver over the given store.
func NewResolver(store Store, logger zerolog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger, stats: noStats{}}
}

// WithStats attaches a stats collector and returns the resolver.
func (r *Resolver) WithStats(s Stats) *Resolver {
	r.stats = s
	return r
}

// Cached returns the id for (cat, value) when it is already in the cache,
// without touching the store.
func (r *Resolver) Cached(cat Category, value string) (int64, bool) {
	v, ok := r.cache.Load(cacheKey{cat, value})
	if !ok {
		return 0, false
	}
	return v.(int64), true
}

// Resolve returns the surrogate id for (cat, value), minting one on first
// observation. All callers eventually observe the same id for a given pair,
// even under concurrent first use from multiple processes: the store's
// uniqueness constraint decides the winner and losers adopt the winning id.
func (r *Resolver) Resolve(ctx context.Context, cat Category, value string) (int64, error) {
	key := cacheKey{cat, value}
	if v, ok := r.cache.Load(key); ok {
		r.stats.IncCacheHit()
		return v.(int64), nil
	}
	r.stats.IncCacheMiss()

	v, err, _ := r.flight.Do(flightKey(cat, value), func() (interface{}, error) {
		// Re-check under the flight: a concurrent caller may have populated
		// the cache while this one was queued.
		if v, ok := r.cache.Load(key); ok {
			return v.(int64), nil
		}
		// The round trip is shared by every caller queued on this key, so it
		// runs detached from the leader's context; one caller cancelling must
		// not fail the rest of the flight.
		id, err := r.resolveFromStore(context.WithoutCancel(ctx), cat, value)
		if err != nil {
			return int64(0), err
		}
		r.cache.Store(key, id)
		return id, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (r *Resolver) resolveFromStore(ctx context.Context, cat Category, value string) (int64, error) {
	// Another writer, possibly in another process, may have assigned the id
	// already; adopt it before attempting an insert.
	id, found, err := r.store.Lookup(ctx, cat, value)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	id, err = r.store.Insert(ctx, cat, value)
	if err != nil {
		return 0, err
	}
	r.stats.IncIDsMinted()
	r.logger.Debug().
		Str("category", cat.String()).
		Str("value", value).
		Int64("id", id).
		Msg("minted surrogate id")
	return id, nil
}

func flightKey(cat Category, value string) string {
	return fmt.Sprintf("%d\x00%s", cat, value)
}
