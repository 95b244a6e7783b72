package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/astromatch/internal/astro"
)

// MockEphemeris is a mock implementation of astro.Ephemeris.
// It uses function-based mocking for flexibility.
type MockEphemeris struct {
	GeocentricLongitudeFunc func(ctx context.Context, body astro.Body, t time.Time) (float64, error)
	SiderealTimeFunc        func(ctx context.Context, t time.Time) (float64, error)
	JulianCenturiesFunc     func(t time.Time) float64
}

// GeocentricLongitude implements astro.Ephemeris
func (m *MockEphemeris) GeocentricLongitude(ctx context.Context, body astro.Body, t time.Time) (float64, error) {
	if m.GeocentricLongitudeFunc != nil {
		return m.GeocentricLongitudeFunc(ctx, body, t)
	}
	return 0, errors.New("GeocentricLongitudeFunc not implemented")
}

// SiderealTime implements astro.Ephemeris
func (m *MockEphemeris) SiderealTime(ctx context.Context, t time.Time) (float64, error) {
	if m.SiderealTimeFunc != nil {
		return m.SiderealTimeFunc(ctx, t)
	}
	return 0, errors.New("SiderealTimeFunc not implemented")
}

// JulianCenturies implements astro.Ephemeris
func (m *MockEphemeris) JulianCenturies(t time.Time) float64 {
	if m.JulianCenturiesFunc != nil {
		return m.JulianCenturiesFunc(t)
	}
	return 0
}

// FixedEphemeris returns a mock that places each body at a fixed longitude and
// reports a constant sidereal time.
func FixedEphemeris(longitudes map[astro.Body]float64, siderealHours float64) *MockEphemeris {
	return &MockEphemeris{
		GeocentricLongitudeFunc: func(ctx context.Context, body astro.Body, t time.Time) (float64, error) {
			lon, ok := longitudes[body]
			if !ok {
				return 0, errors.New("unknown body " + string(body))
			}
			return lon, nil
		},
		SiderealTimeFunc: func(ctx context.Context, t time.Time) (float64, error) {
			return siderealHours, nil
		},
	}
}
