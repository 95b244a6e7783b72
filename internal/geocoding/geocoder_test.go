package geocoding_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/godilite/astromatch/internal/geocoding"
	"github.com/godilite/astromatch/internal/geocoding/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var paris = geocoding.Location{Latitude: 48.8566, Longitude: 2.3522, TimezoneOffsetHours: 1, DisplayName: "Paris, France"}

func TestNewGeocoder(t *testing.T) {
	assert.Panics(t, func() { geocoding.NewGeocoder(nil) })
	assert.NotNil(t, geocoding.NewGeocoder(&mocks.MockStore{}))
}

func TestGeocoder_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("exact hit", func(t *testing.T) {
		var tiers []geocoding.Tier
		store := &mocks.MockStore{
			FindExactFunc: func(ctx context.Context, name string) (geocoding.Location, error) {
				assert.Equal(t, "paris", name)
				return paris, nil
			},
			FindContainingFunc: func(ctx context.Context, name string) (geocoding.Location, error) {
				t.Fatal("partial tier should not run")
				return geocoding.Location{}, nil
			},
		}
		g := geocoding.NewGeocoder(store,
			geocoding.WithLogger(zaptest.NewLogger(t)),
			geocoding.WithHook(func(tier geocoding.Tier) { tiers = append(tiers, tier) }))

		assert.Equal(t, paris, g.Resolve(ctx, "  PARIS "))
		assert.Equal(t, []geocoding.Tier{geocoding.TierExact}, tiers)
	})

	t.Run("partial hit", func(t *testing.T) {
		var tier geocoding.Tier
		store := &mocks.MockStore{
			FindContainingFunc: func(ctx context.Context, name string) (geocoding.Location, error) {
				assert.Equal(t, "paris, france", name)
				return paris, nil
			},
		}
		g := geocoding.NewGeocoder(store, geocoding.WithHook(func(t geocoding.Tier) { tier = t }))

		assert.Equal(t, paris, g.Resolve(ctx, "Paris, France"))
		assert.Equal(t, geocoding.TierPartial, tier)
	})

	t.Run("lookup result is cached", func(t *testing.T) {
		var saved string
		store := &mocks.MockStore{
			SaveFunc: func(ctx context.Context, name string, loc geocoding.Location) error {
				saved = name
				assert.Equal(t, paris, loc)
				return nil
			},
		}
		lookup := &mocks.MockLookup{
			SearchFunc: func(ctx context.Context, query string) (geocoding.Location, error) {
				return paris, nil
			},
		}
		var tier geocoding.Tier
		g := geocoding.NewGeocoder(store, geocoding.WithLookup(lookup),
			geocoding.WithHook(func(t geocoding.Tier) { tier = t }))

		assert.Equal(t, paris, g.Resolve(ctx, "Paris"))
		assert.Equal(t, "paris", saved)
		assert.Equal(t, geocoding.TierLookup, tier)
	})

	t.Run("save failure still returns the lookup result", func(t *testing.T) {
		store := &mocks.MockStore{
			SaveFunc: func(ctx context.Context, name string, loc geocoding.Location) error {
				return errors.New("disk full")
			},
		}
		lookup := &mocks.MockLookup{
			SearchFunc: func(ctx context.Context, query string) (geocoding.Location, error) {
				return paris, nil
			},
		}
		g := geocoding.NewGeocoder(store, geocoding.WithLookup(lookup), geocoding.WithLogger(zaptest.NewLogger(t)))
		assert.Equal(t, paris, g.Resolve(ctx, "Paris"))
	})

	t.Run("everything fails", func(t *testing.T) {
		store := &mocks.MockStore{
			FindExactFunc: func(ctx context.Context, name string) (geocoding.Location, error) {
				return geocoding.Location{}, errors.New("db locked")
			},
		}
		lookup := &mocks.MockLookup{
			SearchFunc: func(ctx context.Context, query string) (geocoding.Location, error) {
				return geocoding.Location{}, errors.New("network down")
			},
		}
		var tier geocoding.Tier
		g := geocoding.NewGeocoder(store, geocoding.WithLookup(lookup),
			geocoding.WithLogger(zaptest.NewLogger(t)),
			geocoding.WithHook(func(t geocoding.Tier) { tier = t }))

		assert.Equal(t, geocoding.DefaultLocation, g.Resolve(ctx, "Atlantis"))
		assert.Equal(t, geocoding.TierDefault, tier)
	})

	t.Run("no lookup configured", func(t *testing.T) {
		g := geocoding.NewGeocoder(&mocks.MockStore{})
		assert.Equal(t, geocoding.DefaultLocation, g.Resolve(ctx, "Atlantis"))
	})

	t.Run("blank name skips the chain", func(t *testing.T) {
		store := &mocks.MockStore{
			FindExactFunc: func(ctx context.Context, name string) (geocoding.Location, error) {
				t.Fatal("store should not be queried")
				return geocoding.Location{}, nil
			},
		}
		g := geocoding.NewGeocoder(store)
		assert.Equal(t, geocoding.DefaultLocation, g.Resolve(ctx, "   "))
	})

	t.Run("custom default", func(t *testing.T) {
		g := geocoding.NewGeocoder(&mocks.MockStore{}, geocoding.WithDefault(paris))
		assert.Equal(t, paris, g.Resolve(ctx, "Atlantis"))
	})
}

func TestGeocoder_CollapsesConcurrentLookups(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	lookup := &mocks.MockLookup{
		SearchFunc: func(ctx context.Context, query string) (geocoding.Location, error) {
			atomic.AddInt32(&calls, 1)
			<-release
			return paris, nil
		},
	}
	g := geocoding.NewGeocoder(&mocks.MockStore{}, geocoding.WithLookup(lookup))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, paris, g.Resolve(context.Background(), "Paris"))
		}()
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := geocoding.NewMemoryStore(geocoding.BuiltinCities())

	t.Run("exact", func(t *testing.T) {
		loc, err := store.FindExact(ctx, "Tokyo")
		require.NoError(t, err)
		assert.Equal(t, "Tokyo, Japan", loc.DisplayName)

		_, err = store.FindExact(ctx, "Tokyo, Japan")
		assert.ErrorIs(t, err, geocoding.ErrNotFound)
	})

	t.Run("query contains stored name", func(t *testing.T) {
		loc, err := store.FindContaining(ctx, "Tokyo, Japan")
		require.NoError(t, err)
		assert.Equal(t, 139.6503, loc.Longitude)
	})

	t.Run("stored name contains query", func(t *testing.T) {
		loc, err := store.FindContaining(ctx, "janeiro")
		require.NoError(t, err)
		assert.Equal(t, "Rio de Janeiro, Brazil", loc.DisplayName)
	})

	t.Run("miss", func(t *testing.T) {
		_, err := store.FindContaining(ctx, "Atlantis")
		assert.ErrorIs(t, err, geocoding.ErrNotFound)
		_, err = store.FindContaining(ctx, "")
		assert.ErrorIs(t, err, geocoding.ErrNotFound)
	})

	t.Run("save then find", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "Reykjavik", geocoding.Location{Latitude: 64.1466, Longitude: -21.9426}))
		loc, err := store.FindExact(ctx, "reykjavik")
		require.NoError(t, err)
		assert.Equal(t, 64.1466, loc.Latitude)
	})

	t.Run("default city is seeded", func(t *testing.T) {
		loc, err := store.FindExact(ctx, "New York")
		require.NoError(t, err)
		assert.Equal(t, geocoding.DefaultLocation, loc)
	})
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "new york", geocoding.NormalizeName("  New   York "))
	assert.Equal(t, "", geocoding.NormalizeName("\t"))
}
