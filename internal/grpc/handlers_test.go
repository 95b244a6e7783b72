package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	pb "github.com/godilite/astromatch/api/v1"
	"github.com/godilite/astromatch/internal/astro"
	"github.com/godilite/astromatch/internal/geocoding"
	"github.com/godilite/astromatch/internal/grpc/mocks"
	"github.com/godilite/astromatch/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func mustStruct(t *testing.T, v any) *structpb.Struct {
	t.Helper()
	s, err := pb.Encode(v)
	require.NoError(t, err)
	return s
}

func sampleChart(city string) service.ChartResult {
	return service.ChartResult{
		Chart: astro.NatalChart{
			Sun:    astro.ZodiacPosition{Sign: astro.Cancer, Degree: 23.46, Longitude: 113.46},
			Moon:   astro.ZodiacPosition{Sign: astro.Pisces, Degree: 2.1, Longitude: 332.1},
			Rising: astro.ZodiacPosition{Sign: astro.Leo, Degree: 10, Longitude: 130},
		},
		BigThree: astro.BigThree{Sun: astro.Cancer, Moon: astro.Pisces, Rising: astro.Leo},
		Location: geocoding.Location{DisplayName: city},
	}
}

func TestNewGRPCHandlers(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		svc := &mocks.MockSynastryService{}
		cache := &mocks.MockCacher{}

		h := NewGRPCHandlers(svc, cache, zaptest.NewLogger(t), 5*time.Minute)

		assert.NotNil(t, h)
		assert.Equal(t, svc, h.synastry)
		assert.Equal(t, cache, h.cache)
		assert.Equal(t, 5*time.Minute, h.cacheTTL)
		assert.NotNil(t, h.logger)
	})

	t.Run("nil synastry service panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGRPCHandlers(nil, &mocks.MockCacher{}, zap.NewNop(), time.Minute)
		})
	})

	t.Run("cache observer option", func(t *testing.T) {
		obs := &outcomeRecorder{}
		h := NewGRPCHandlers(&mocks.MockSynastryService{}, nil, nil, time.Minute, WithCacheObserver(obs))

		assert.Equal(t, obs, h.observer)
	})

	t.Run("nil logger and zero ttl fall back to defaults", func(t *testing.T) {
		h := NewGRPCHandlers(&mocks.MockSynastryService{}, nil, nil, 0)

		assert.NotNil(t, h.logger)
		assert.Equal(t, defaultCacheDuration, h.cacheTTL)
		assert.Nil(t, h.cache)
	})
}

func TestNormalizeKey(t *testing.T) {
	a := service.BirthDetails{Date: "1990-07-15", Time: "2:30 PM", City: "Paris "}
	b := service.BirthDetails{Date: " 1990-07-15", Time: "2:30pm", City: "paris"}

	t.Run("equivalent details share a key", func(t *testing.T) {
		assert.Equal(t, normalizeKey(cacheKeyChart, a), normalizeKey(cacheKeyChart, b))
	})

	t.Run("prefix is kept", func(t *testing.T) {
		key := normalizeKey(cacheKeyCompatibility, a, b)
		assert.Regexp(t, `^grpc:compatibility:[0-9a-f]{32}$`, key)
	})

	t.Run("different inputs differ", func(t *testing.T) {
		c := a
		c.Date = "1990-07-16"
		assert.NotEqual(t, normalizeKey(cacheKeyChart, a), normalizeKey(cacheKeyChart, c))
		assert.NotEqual(t, normalizeKey(cacheKeyChart, a), normalizeKey(cacheKeyCompatibility, a))
	})

	t.Run("city casing matters when coordinates are given", func(t *testing.T) {
		lat, lon := 48.85, 2.35
		upper := service.BirthDetails{Date: "1990-07-15", City: "Paris", Latitude: &lat, Longitude: &lon}
		lower := upper
		lower.City = "paris"
		padded := upper
		padded.City = " Paris "

		assert.NotEqual(t, normalizeKey(cacheKeyChart, upper), normalizeKey(cacheKeyChart, lower))
		assert.Equal(t, normalizeKey(cacheKeyChart, upper), normalizeKey(cacheKeyChart, padded))
	})

	t.Run("pair order matters", func(t *testing.T) {
		c := a
		c.City = "tokyo"
		assert.NotEqual(t,
			normalizeKey(cacheKeyCompatibility, a, c),
			normalizeKey(cacheKeyCompatibility, c, a))
	})
}

func TestHandleError(t *testing.T) {
	h := &GRPCHandlers{logger: zap.NewNop()}

	t.Run("context canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := h.handleError(ctx, "op", errors.New("boom"))

		assert.Equal(t, codes.Canceled, status.Code(err))
	})

	t.Run("context deadline exceeded", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		err := h.handleError(ctx, "op", errors.New("boom"))

		assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
	})

	tests := []struct {
		name string
		err  error
		code codes.Code
		msg  string
	}{
		{"invalid date", fmt.Errorf("%w: month 13", service.ErrInvalidBirthDate), codes.InvalidArgument, "month 13"},
		{"invalid coordinates", fmt.Errorf("person a: %w", service.ErrInvalidCoordinates), codes.InvalidArgument, "person a"},
		{"ephemeris", fmt.Errorf("Mars: %w", service.ErrEphemerisUnavailable), codes.Unavailable, "retry later"},
		{"unknown", errors.New("disk on fire"), codes.Internal, "op failed: disk on fire"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.handleError(context.Background(), "op", tt.err)

			assert.Equal(t, tt.code, status.Code(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestBuildChart(t *testing.T) {
	t.Run("success writes through cache", func(t *testing.T) {
		var got service.BirthDetails
		svc := &mocks.MockSynastryService{
			BuildChartFunc: func(ctx context.Context, d service.BirthDetails) (service.ChartResult, error) {
				got = d
				return sampleChart(d.City), nil
			},
		}
		cache := &mocks.MockCacher{}
		h := NewGRPCHandlers(svc, cache, zaptest.NewLogger(t), time.Minute)

		req := mustStruct(t, service.BirthDetails{Date: "1990-07-15", Time: "14:30", City: "Paris"})
		resp, err := h.BuildChart(context.Background(), req)
		require.NoError(t, err)

		var out service.ChartResult
		require.NoError(t, pb.Decode(resp, &out))
		assert.Equal(t, astro.Cancer, out.BigThree.Sun)
		assert.Equal(t, 23.46, out.Chart.Sun.Degree)
		assert.Equal(t, "Paris", got.City)

		assert.Eventually(t, func() bool { return len(cache.SetKeys()) == 1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, normalizeKey(cacheKeyChart, got), cache.SetKeys()[0])
	})

	t.Run("cache hit skips the service", func(t *testing.T) {
		var calls atomic.Int32
		svc := &mocks.MockSynastryService{
			BuildChartFunc: func(ctx context.Context, d service.BirthDetails) (service.ChartResult, error) {
				calls.Add(1)
				return sampleChart(d.City), nil
			},
		}
		cached := sampleChart("Tokyo")
		cached.BigThree.Sun = astro.Leo
		cache := &mocks.MockCacher{
			GetFunc: func(ctx context.Context, key string, dest any) error {
				raw, _ := json.Marshal(cacheEntry[service.ChartResult]{Value: cached, StoredAt: time.Now()})
				return json.Unmarshal(raw, dest)
			},
		}
		h := NewGRPCHandlers(svc, cache, zap.NewNop(), time.Minute)

		resp, err := h.BuildChart(context.Background(), mustStruct(t, service.BirthDetails{Date: "1990-07-15"}))
		require.NoError(t, err)

		var out service.ChartResult
		require.NoError(t, pb.Decode(resp, &out))
		assert.Equal(t, astro.Leo, out.BigThree.Sun)
	})

	t.Run("cache errors are treated as a miss", func(t *testing.T) {
		svc := &mocks.MockSynastryService{
			BuildChartFunc: func(ctx context.Context, d service.BirthDetails) (service.ChartResult, error) {
				return sampleChart(d.City), nil
			},
		}
		cache := &mocks.MockCacher{
			GetFunc: func(ctx context.Context, key string, dest any) error {
				return errors.New("connection refused")
			},
		}
		h := NewGRPCHandlers(svc, cache, zap.NewNop(), time.Minute)

		_, err := h.BuildChart(context.Background(), mustStruct(t, service.BirthDetails{Date: "1990-07-15"}))

		assert.NoError(t, err)
	})

	t.Run("nil cache passes through", func(t *testing.T) {
		svc := &mocks.MockSynastryService{
			BuildChartFunc: func(ctx context.Context, d service.BirthDetails) (service.ChartResult, error) {
				return sampleChart(d.City), nil
			},
		}
		h := NewGRPCHandlers(svc, nil, zap.NewNop(), time.Minute)

		resp, err := h.BuildChart(context.Background(), mustStruct(t, service.BirthDetails{Date: "1990-07-15"}))

		require.NoError(t, err)
		assert.NotNil(t, resp)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		h := NewGRPCHandlers(&mocks.MockSynastryService{}, nil, zap.NewNop(), time.Minute)
		req, err := structpb.NewStruct(map[string]any{"date": "1990-07-15", "zodiac": "tropical"})
		require.NoError(t, err)

		resp, err := h.BuildChart(context.Background(), req)

		assert.Nil(t, resp)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.Contains(t, err.Error(), "malformed request")
	})

	t.Run("invalid date maps to InvalidArgument", func(t *testing.T) {
		svc := &mocks.MockSynastryService{
			BuildChartFunc: func(ctx context.Context, d service.BirthDetails) (service.ChartResult, error) {
				return service.ChartResult{}, fmt.Errorf("%w: %q", service.ErrInvalidBirthDate, d.Date)
			},
		}
		h := NewGRPCHandlers(svc, nil, zap.NewNop(), time.Minute)

		_, err := h.BuildChart(context.Background(), mustStruct(t, service.BirthDetails{Date: "15/07/1990"}))

		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestGetCompatibility(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mocks.MockSynastryService{
			MatchFunc: func(ctx context.Context, a, b service.BirthDetails) (service.MatchResult, error) {
				return service.MatchResult{
					PersonA:       sampleChart(a.City),
					PersonB:       sampleChart(b.City),
					Compatibility: astro.CompatibilityResult{Overall: 61, Emotional: 55, Communication: 68},
				}, nil
			},
		}
		h := NewGRPCHandlers(svc, &mocks.MockCacher{}, zaptest.NewLogger(t), time.Minute)

		req := mustStruct(t, compatibilityRequest{
			PersonA: service.BirthDetails{Date: "1990-07-15", City: "Paris"},
			PersonB: service.BirthDetails{Date: "1992-03-02", City: "Tokyo"},
		})
		resp, err := h.GetCompatibility(context.Background(), req)
		require.NoError(t, err)

		var out service.MatchResult
		require.NoError(t, pb.Decode(resp, &out))
		assert.Equal(t, 61, out.Compatibility.Overall)
		assert.Equal(t, 68, out.Compatibility.Communication)
	})

	t.Run("ephemeris failure maps to Unavailable", func(t *testing.T) {
		svc := &mocks.MockSynastryService{
			MatchFunc: func(ctx context.Context, a, b service.BirthDetails) (service.MatchResult, error) {
				return service.MatchResult{}, fmt.Errorf("person b: %w", service.ErrEphemerisUnavailable)
			},
		}
		h := NewGRPCHandlers(svc, nil, zap.NewNop(), time.Minute)

		resp, err := h.GetCompatibility(context.Background(), mustStruct(t, compatibilityRequest{}))

		assert.Nil(t, resp)
		assert.Equal(t, codes.Unavailable, status.Code(err))
	})

	t.Run("canceled request", func(t *testing.T) {
		svc := &mocks.MockSynastryService{
			MatchFunc: func(ctx context.Context, a, b service.BirthDetails) (service.MatchResult, error) {
				return service.MatchResult{}, ctx.Err()
			},
		}
		h := NewGRPCHandlers(svc, nil, zap.NewNop(), time.Minute)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := h.GetCompatibility(ctx, mustStruct(t, compatibilityRequest{}))

		assert.Equal(t, codes.Canceled, status.Code(err))
	})
}

func TestGetQuickCompatibility(t *testing.T) {
	svc := &mocks.MockSynastryService{
		QuickMatchFunc: func(sign1, sign2 string) service.QuickResult {
			return service.QuickResult{Sign1: sign1, Sign2: sign2, Element1: astro.Fire, Element2: astro.Air, Score: 80}
		},
	}
	h := NewGRPCHandlers(svc, nil, zap.NewNop(), time.Minute)

	t.Run("success", func(t *testing.T) {
		resp, err := h.GetQuickCompatibility(context.Background(), mustStruct(t, quickRequest{Sign1: "Aries", Sign2: "Gemini"}))
		require.NoError(t, err)

		var out service.QuickResult
		require.NoError(t, pb.Decode(resp, &out))
		assert.Equal(t, 80, out.Score)
		assert.Equal(t, "Gemini", out.Sign2)
	})

	t.Run("missing sign", func(t *testing.T) {
		_, err := h.GetQuickCompatibility(context.Background(), mustStruct(t, quickRequest{Sign1: "Aries", Sign2: "  "}))

		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}
