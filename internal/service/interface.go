package service

import (
	"context"

	"github.com/godilite/astromatch/internal/astro"
	"github.com/godilite/astromatch/internal/geocoding"
)

// ChartBuilder builds a natal chart from validated birth input.
type ChartBuilder interface {
	Build(ctx context.Context, in astro.BirthInput) (astro.NatalChart, error)
}

// LocationResolver turns a city name into coordinates. It never fails.
type LocationResolver interface {
	Resolve(ctx context.Context, city string) geocoding.Location
}
