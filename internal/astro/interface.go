package astro

import (
	"context"
	"time"
)

// Body is a celestial body the ephemeris can place.
type Body string

const (
	Sun     Body = "Sun"
	Moon    Body = "Moon"
	Mercury Body = "Mercury"
	Venus   Body = "Venus"
	Mars    Body = "Mars"
	Jupiter Body = "Jupiter"
	Saturn  Body = "Saturn"
)

// Bodies lists every body a chart needs, luminaries first.
var Bodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn}

// Ephemeris supplies astronomical positions for an instant.
type Ephemeris interface {
	// GeocentricLongitude returns the geocentric ecliptic longitude of body in degrees [0, 360).
	GeocentricLongitude(ctx context.Context, body Body, t time.Time) (float64, error)
	// SiderealTime returns Greenwich sidereal time in hours.
	SiderealTime(ctx context.Context, t time.Time) (float64, error)
	// JulianCenturies returns Julian centuries since J2000.0.
	JulianCenturies(t time.Time) float64
}
