package redis

import (
	"context"
	"errors"
	"time"

	"github.com/alem-hub/study-progress-core/pkg/circuitbreaker"
	"github.com/alem-hub/study-progress-core/pkg/logger"
)

// BreakerStore guards a Store with a circuit breaker. Once Redis has failed
// a few times in a row, calls fail fast with circuitbreaker.ErrCircuitOpen
// until the breaker tries again. Cache misses do not count as failures.
type BreakerStore struct {
	next    Store
	breaker *circuitbreaker.CircuitBreaker
}

var _ Store = (*BreakerStore)(nil)

// NewBreakerStore wraps next with circuitbreaker.CacheBreaker.
func NewBreakerStore(next Store, log *logger.Logger) *BreakerStore {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("catalog_cache"))

	breaker := circuitbreaker.CacheBreaker(isCacheFailure, func(name string, from, to circuitbreaker.State) {
		log.Warn("cache circuit state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})
	return &BreakerStore{next: next, breaker: breaker}
}

// State exposes the breaker state for health reporting.
func (b *BreakerStore) State() circuitbreaker.State {
	return b.breaker.State()
}

func (b *BreakerStore) Get(ctx context.Context, key string, dest any) error {
	return b.breaker.Execute(ctx, func(ctx context.Context) error {
		return b.next.Get(ctx, key, dest)
	})
}

func (b *BreakerStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return b.breaker.Execute(ctx, func(ctx context.Context) error {
		return b.next.Set(ctx, key, value, ttl)
	})
}

func (b *BreakerStore) Delete(ctx context.Context, keys ...string) error {
	return b.breaker.Execute(ctx, func(ctx context.Context) error {
		return b.next.Delete(ctx, keys...)
	})
}

// isCacheFailure counts connectivity problems only. A miss or a value
// that fails to decode says nothing about Redis being reachable.
func isCacheFailure(err error) bool {
	return !errors.Is(err, ErrCacheMiss) &&
		!errors.Is(err, ErrCacheSerialization) &&
		!errors.Is(err, ErrCacheKeyEmpty)
}
