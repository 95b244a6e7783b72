package mocks

import (
	"context"
	"errors"

	"github.com/godilite/astromatch/internal/service"
)

// MockSynastryService is a mock implementation of the SynastryService interface
// for testing the transport layers. It uses function-based mocking for flexibility.
type MockSynastryService struct {
	BuildChartFunc func(ctx context.Context, d service.BirthDetails) (service.ChartResult, error)
	MatchFunc      func(ctx context.Context, a, b service.BirthDetails) (service.MatchResult, error)
	QuickMatchFunc func(sign1, sign2 string) service.QuickResult
}

// BuildChart implements the SynastryService interface
func (m *MockSynastryService) BuildChart(ctx context.Context, d service.BirthDetails) (service.ChartResult, error) {
	if m.BuildChartFunc != nil {
		return m.BuildChartFunc(ctx, d)
	}
	return service.ChartResult{}, errors.New("BuildChartFunc not implemented")
}

// Match implements the SynastryService interface
func (m *MockSynastryService) Match(ctx context.Context, a, b service.BirthDetails) (service.MatchResult, error) {
	if m.MatchFunc != nil {
		return m.MatchFunc(ctx, a, b)
	}
	return service.MatchResult{}, errors.New("MatchFunc not implemented")
}

// QuickMatch implements the SynastryService interface
func (m *MockSynastryService) QuickMatch(sign1, sign2 string) service.QuickResult {
	if m.QuickMatchFunc != nil {
		return m.QuickMatchFunc(sign1, sign2)
	}
	return service.QuickResult{Sign1: sign1, Sign2: sign2, Score: 50}
}
