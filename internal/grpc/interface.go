package grpc

import (
	"context"
	"time"

	"github.com/godilite/astromatch/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type SynastryService interface {
	BuildChart(ctx context.Context, d service.BirthDetails) (service.ChartResult, error)
	Match(ctx context.Context, a, b service.BirthDetails) (service.MatchResult, error)
	QuickMatch(sign1, sign2 string) service.QuickResult
}

// CacheObserver receives the outcome of every cache lookup.
type CacheObserver interface {
	ObserveCache(result string)
}
