package geocoding

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrNotFound = errors.New("location not found")

// Location is a resolved birth place.
type Location struct {
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	TimezoneOffsetHours float64 `json:"timezone_offset_hours"`
	DisplayName         string  `json:"display_name"`
}

// DefaultLocation is returned when nothing else resolves a city.
var DefaultLocation = Location{
	Latitude:            40.7128,
	Longitude:           -74.0060,
	TimezoneOffsetHours: -5,
	DisplayName:         "New York, NY, USA",
}

// Store is the local geocode cache. Finders return ErrNotFound on a miss.
type Store interface {
	FindExact(ctx context.Context, name string) (Location, error)
	FindContaining(ctx context.Context, name string) (Location, error)
	Save(ctx context.Context, name string, loc Location) error
}

// Lookup is an external geocoding service.
type Lookup interface {
	Search(ctx context.Context, query string) (Location, error)
}

// Tier names the step of the resolution chain that answered.
type Tier string

const (
	TierExact   Tier = "exact"
	TierPartial Tier = "partial"
	TierLookup  Tier = "lookup"
	TierDefault Tier = "default"
)

type Option func(*Geocoder)

func WithLookup(l Lookup) Option {
	return func(g *Geocoder) { g.lookup = l }
}

func WithLogger(logger *zap.Logger) Option {
	return func(g *Geocoder) { g.logger = logger }
}

// WithHook registers a callback invoked once per Resolve with the answering tier.
func WithHook(fn func(tier Tier)) Option {
	return func(g *Geocoder) { g.hook = fn }
}

func WithDefault(loc Location) Option {
	return func(g *Geocoder) { g.fallback = loc }
}

// Geocoder resolves city names through the store, the optional lookup and finally
// a fixed default. It never fails.
type Geocoder struct {
	store    Store
	lookup   Lookup
	fallback Location
	hook     func(Tier)
	logger   *zap.Logger
	sf       singleflight.Group
}

func NewGeocoder(store Store, opts ...Option) *Geocoder {
	if store == nil {
		panic("store must not be nil")
	}
	g := &Geocoder{
		store:    store,
		fallback: DefaultLocation,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	g.logger = g.logger.Named("geocoder")
	return g
}

// NormalizeName is the cache key form of a city name.
func NormalizeName(city string) string {
	return strings.ToLower(strings.Join(strings.Fields(city), " "))
}

type resolved struct {
	loc  Location
	tier Tier
}

// Resolve maps a city name to a location.
func (g *Geocoder) Resolve(ctx context.Context, city string) Location {
	key := NormalizeName(city)
	if key == "" {
		g.report(key, TierDefault)
		return g.fallback
	}

	v, _, _ := g.sf.Do(key, func() (any, error) {
		return g.resolve(ctx, key), nil
	})
	r := v.(resolved)
	g.report(key, r.tier)
	return r.loc
}

func (g *Geocoder) resolve(ctx context.Context, key string) resolved {
	loc, err := g.store.FindExact(ctx, key)
	if err == nil {
		return resolved{loc, TierExact}
	}
	g.logMiss("exact", key, err)

	loc, err = g.store.FindContaining(ctx, key)
	if err == nil {
		return resolved{loc, TierPartial}
	}
	g.logMiss("partial", key, err)

	if g.lookup != nil {
		loc, err = g.lookup.Search(ctx, key)
		if err == nil {
			if err := g.store.Save(ctx, key, loc); err != nil {
				g.logger.Warn("failed to cache geocode result", zap.String("city", key), zap.Error(err))
			}
			return resolved{loc, TierLookup}
		}
		g.logMiss("lookup", key, err)
	}

	return resolved{g.fallback, TierDefault}
}

func (g *Geocoder) logMiss(tier, key string, err error) {
	if errors.Is(err, ErrNotFound) {
		return
	}
	g.logger.Warn("geocode tier failed", zap.String("tier", tier), zap.String("city", key), zap.Error(err))
}

func (g *Geocoder) report(key string, tier Tier) {
	g.logger.Debug("city resolved", zap.String("city", key), zap.String("tier", string(tier)))
	if g.hook != nil {
		g.hook(tier)
	}
}
