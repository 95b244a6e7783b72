package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/godilite/astromatch/internal/service"
)

type SynastryService interface {
	BuildChart(ctx context.Context, d service.BirthDetails) (service.ChartResult, error)
	Match(ctx context.Context, a, b service.BirthDetails) (service.MatchResult, error)
	QuickMatch(sign1, sign2 string) service.QuickResult
}

// Metrics records request outcomes and serves the scrape endpoint.
type Metrics interface {
	ObserveHTTP(route, method string, code int, d time.Duration)
	Handler() http.Handler
}
