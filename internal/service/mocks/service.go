package mocks

import (
	"context"
	"errors"

	"github.com/godilite/astromatch/internal/astro"
	"github.com/godilite/astromatch/internal/geocoding"
)

// MockChartBuilder is a mock implementation of the ChartBuilder interface
// for testing the service layer.
type MockChartBuilder struct {
	BuildFunc func(ctx context.Context, in astro.BirthInput) (astro.NatalChart, error)
}

// Build implements the ChartBuilder interface
func (m *MockChartBuilder) Build(ctx context.Context, in astro.BirthInput) (astro.NatalChart, error) {
	if m.BuildFunc != nil {
		return m.BuildFunc(ctx, in)
	}
	return astro.NatalChart{}, errors.New("BuildFunc not implemented")
}

// MockLocationResolver is a mock implementation of the LocationResolver interface.
type MockLocationResolver struct {
	ResolveFunc func(ctx context.Context, city string) geocoding.Location
}

// Resolve implements the LocationResolver interface
func (m *MockLocationResolver) Resolve(ctx context.Context, city string) geocoding.Location {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, city)
	}
	return geocoding.DefaultLocation
}
