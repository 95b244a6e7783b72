package grpc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultSetTimeout   = 5 * time.Second
	maxTTLJitter        = 30 * time.Second
)

// cacheEntry is what findAndCache stores: the value and when it was computed.
type cacheEntry[T any] struct {
	Value    T         `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// refreshDue reports whether an entry has used up the first three quarters of
// its ttl. Entries without a timestamp are always due.
func refreshDue(storedAt time.Time, ttl time.Duration, now time.Time) bool {
	if storedAt.IsZero() {
		return true
	}
	return now.Sub(storedAt) >= ttl-ttl/4
}

// addTTLJitter spreads expirations by up to ±maxTTLJitter/2.
func addTTLJitter(ttl time.Duration) time.Duration {
	if ttl <= maxTTLJitter {
		return ttl
	}
	return ttl + time.Duration(rand.Int63n(int64(maxTTLJitter))) - maxTTLJitter/2
}

func storeInBackground[T any](c Cacher, key string, ttl time.Duration, logger *zap.Logger, v T, reason string) {
	go func() {
		setCtx, cancel := context.WithTimeout(context.Background(), defaultSetTimeout)
		defer cancel()

		ttlWithJitter := addTTLJitter(ttl)
		entry := cacheEntry[T]{Value: v, StoredAt: time.Now().UTC()}
		if err := c.Set(setCtx, key, entry, ttlWithJitter); err != nil {
			logger.Warn("failed to write cache", zap.String("key", key), zap.String("reason", reason), zap.Error(err))
			return
		}
		logger.Debug("cache written", zap.String("key", key), zap.String("reason", reason), zap.Duration("ttl", ttlWithJitter))
	}()
}

// triggerBackgroundRefresh recomputes an entry close to expiry so hot keys
// never fall out of the cache.
func triggerBackgroundRefresh[T any](
	c Cacher,
	sf *singleflight.Group,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	fn FetchFunc[T],
) {
	go func() {
		time.Sleep(time.Duration(rand.Intn(1000)) * time.Millisecond)

		_, _, _ = sf.Do(key+":refresh", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), defaultFetchTimeout)
			defer cancel()

			value, err := fn(ctx)
			if err != nil {
				logger.Warn("background refresh failed", zap.String("key", key), zap.Error(err))
				return nil, err
			}
			storeInBackground(c, key, ttl, logger, value, "refresh")
			return value, nil
		})
	}()
}

// Cache lookup outcomes reported to a CacheObserver.
const (
	cacheHit    = "hit"
	cacheMiss   = "miss"
	cacheError  = "error"
	cacheBypass = "bypass"
)

// readThrough bundles what findAndCache needs besides the key and fetcher.
type readThrough struct {
	cache    Cacher
	sf       *singleflight.Group
	ttl      time.Duration
	logger   *zap.Logger
	observer CacheObserver
}

func (r readThrough) observe(result string) {
	if r.observer != nil {
		r.observer.ObserveCache(result)
	}
}

// lookup reports whether key was served from the cache.
func lookup[T any](ctx context.Context, r readThrough, key string, dest *T) bool {
	if r.cache == nil {
		r.observe(cacheBypass)
		return false
	}

	err := r.cache.Get(ctx, key, dest)
	switch {
	case err == nil:
		r.logger.Debug("cache hit", zap.String("key", key))
		r.observe(cacheHit)
		return true
	case errors.Is(err, redis.Nil):
		r.logger.Debug("cache miss", zap.String("key", key))
		r.observe(cacheMiss)
	default:
		r.logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
		r.observe(cacheError)
	}
	return false
}

// findAndCache implements read-through caching with singleflight and refresh-ahead
// logic. Results are deterministic, so a hit only triggers a refresh once the
// entry is in the last quarter of its ttl. With a nil cache it only collapses
// concurrent identical calls.
func findAndCache[T any](ctx context.Context, r readThrough, key string, fn FetchFunc[T]) (T, error) {
	var zero T
	if r.logger == nil {
		r.logger = zap.NewNop()
	}

	var cached cacheEntry[T]
	if lookup(ctx, r, key, &cached) {
		if refreshDue(cached.StoredAt, r.ttl, time.Now()) {
			triggerBackgroundRefresh(r.cache, r.sf, key, r.ttl, r.logger, fn)
		}
		return cached.Value, nil
	}

	v, err, shared := r.sf.Do(key, func() (any, error) {
		value, err := fn(ctx)
		if err != nil {
			return zero, err
		}
		if r.cache != nil {
			storeInBackground(r.cache, key, r.ttl, r.logger, value, "miss")
		}
		return value, nil
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		r.logger.Error("singleflight type mismatch", zap.String("key", key))
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}
	if shared {
		r.logger.Debug("singleflight shared result", zap.String("key", key))
	}
	return value, nil
}
