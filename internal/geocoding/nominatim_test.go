package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNominatimClient_Search(t *testing.T) {
	t.Run("parses the first place", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "lagos, nigeria", r.URL.Query().Get("q"))
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			assert.Equal(t, "astromatch-test", r.Header.Get("User-Agent"))
			w.Write([]byte(`[{"lat":"6.4550575","lon":"3.3941795","display_name":"Lagos, Lagos State, Nigeria"}]`))
		}))
		defer srv.Close()

		c := NewNominatimClient(WithBaseURL(srv.URL), WithUserAgent("astromatch-test"),
			WithNominatimLogger(zaptest.NewLogger(t)))
		loc, err := c.Search(context.Background(), "lagos, nigeria")
		require.NoError(t, err)

		assert.InDelta(t, 6.4550575, loc.Latitude, 1e-9)
		assert.InDelta(t, 3.3941795, loc.Longitude, 1e-9)
		assert.Equal(t, 0.0, loc.TimezoneOffsetHours)
		assert.Equal(t, "Lagos, Lagos State, Nigeria", loc.DisplayName)
	})

	t.Run("no results", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		_, err := NewNominatimClient(WithBaseURL(srv.URL)).Search(context.Background(), "atlantis")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := NewNominatimClient(WithBaseURL(srv.URL)).Search(context.Background(), "paris")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("malformed coordinates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"lat":"north","lon":"3.39"}]`))
		}))
		defer srv.Close()

		_, err := NewNominatimClient(WithBaseURL(srv.URL)).Search(context.Background(), "paris")
		assert.Error(t, err)
	})
}

func TestNominatimClient_RateLimit(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`[{"lat":"1","lon":"2"}]`))
	}))
	defer srv.Close()

	t.Run("spaces requests from one client", func(t *testing.T) {
		c := NewNominatimClient(WithBaseURL(srv.URL), WithMinInterval(80*time.Millisecond))

		start := time.Now()
		for i := 0; i < 3; i++ {
			_, err := c.Search(context.Background(), "x")
			require.NoError(t, err)
		}
		assert.GreaterOrEqual(t, time.Since(start), 160*time.Millisecond)
	})

	t.Run("clients do not share state", func(t *testing.T) {
		a := NewNominatimClient(WithBaseURL(srv.URL), WithMinInterval(time.Hour))
		b := NewNominatimClient(WithBaseURL(srv.URL), WithMinInterval(time.Hour))

		start := time.Now()
		_, err := a.Search(context.Background(), "x")
		require.NoError(t, err)
		_, err = b.Search(context.Background(), "x")
		require.NoError(t, err)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("waiting honors cancellation", func(t *testing.T) {
		c := NewNominatimClient(WithBaseURL(srv.URL), WithMinInterval(time.Hour))
		_, err := c.Search(context.Background(), "x")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = c.Search(ctx, "x")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestEstimateTimezoneOffset(t *testing.T) {
	assert.Equal(t, -5.0, EstimateTimezoneOffset(-74.006))
	assert.Equal(t, 9.0, EstimateTimezoneOffset(139.65))
	assert.Equal(t, 0.0, EstimateTimezoneOffset(-0.1278))
	assert.Equal(t, 12.0, EstimateTimezoneOffset(179.9))
}
