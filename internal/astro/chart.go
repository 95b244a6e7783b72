package astro

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// Placement names a chart point used in pair tables.
type Placement string

const (
	PlacementSun     Placement = "sun"
	PlacementMoon    Placement = "moon"
	PlacementRising  Placement = "rising"
	PlacementMercury Placement = "mercury"
	PlacementVenus   Placement = "venus"
	PlacementMars    Placement = "mars"
	PlacementJupiter Placement = "jupiter"
	PlacementSaturn  Placement = "saturn"
)

var placementOrder = []Placement{
	PlacementSun, PlacementMoon, PlacementRising,
	PlacementMercury, PlacementVenus, PlacementMars, PlacementJupiter, PlacementSaturn,
}

var ErrEphemerisUnavailable = errors.New("ephemeris unavailable")

// BirthInput is everything the builder needs for one person.
type BirthInput struct {
	Date          time.Time
	Time          string
	Latitude      float64
	Longitude     float64
	IncludeHouses bool
}

// NatalChart is one person's chart. It is a value: a different birth input
// produces a different chart.
type NatalChart struct {
	Sun     ZodiacPosition `json:"sun"`
	Moon    ZodiacPosition `json:"moon"`
	Rising  ZodiacPosition `json:"rising"`
	Mercury ZodiacPosition `json:"mercury"`
	Venus   ZodiacPosition `json:"venus"`
	Mars    ZodiacPosition `json:"mars"`
	Jupiter ZodiacPosition `json:"jupiter"`
	Saturn  ZodiacPosition `json:"saturn"`

	Houses []float64 `json:"houses,omitempty"`

	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Instant   time.Time `json:"instant"`
}

// Placements lists the chart points in display order.
func (c NatalChart) Placements() []Placement {
	out := make([]Placement, len(placementOrder))
	copy(out, placementOrder)
	return out
}

// Position returns the position of a placement.
func (c NatalChart) Position(p Placement) (ZodiacPosition, bool) {
	switch p {
	case PlacementSun:
		return c.Sun, true
	case PlacementMoon:
		return c.Moon, true
	case PlacementRising:
		return c.Rising, true
	case PlacementMercury:
		return c.Mercury, true
	case PlacementVenus:
		return c.Venus, true
	case PlacementMars:
		return c.Mars, true
	case PlacementJupiter:
		return c.Jupiter, true
	case PlacementSaturn:
		return c.Saturn, true
	}
	return ZodiacPosition{}, false
}

// HouseOf returns the house of a placement. It reports false when the chart
// was built without houses.
func (c NatalChart) HouseOf(p Placement) (int, bool) {
	if len(c.Houses) != HouseCount {
		return 0, false
	}
	pos, ok := c.Position(p)
	if !ok {
		return 0, false
	}
	var cusps [HouseCount]float64
	copy(cusps[:], c.Houses)
	return HouseOf(pos.Longitude, cusps), true
}

// BigThree is the Sun, Moon and Rising sign summary.
type BigThree struct {
	Sun    Sign `json:"sun"`
	Moon   Sign `json:"moon"`
	Rising Sign `json:"rising"`
}

func (c NatalChart) BigThree() BigThree {
	return BigThree{Sun: c.Sun.Sign, Moon: c.Moon.Sign, Rising: c.Rising.Sign}
}

// ChartBuilder turns birth inputs into natal charts.
type ChartBuilder struct {
	ephemeris Ephemeris
	logger    *zap.Logger
}

// NewChartBuilder creates a ChartBuilder backed by the given ephemeris.
func NewChartBuilder(eph Ephemeris, logger *zap.Logger) *ChartBuilder {
	if eph == nil {
		panic("ephemeris must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChartBuilder{
		ephemeris: eph,
		logger:    logger.Named("chart-builder"),
	}
}

// Build computes the natal chart for in. The date must already be validated by
// the caller. Ephemeris failures are returned wrapped in ErrEphemerisUnavailable.
func (b *ChartBuilder) Build(ctx context.Context, in BirthInput) (NatalChart, error) {
	instant := BirthInstant(in.Date, in.Time)

	longitudes := make(map[Body]float64, len(Bodies))
	for _, body := range Bodies {
		lon, err := b.ephemeris.GeocentricLongitude(ctx, body, instant)
		if err != nil {
			return NatalChart{}, fmt.Errorf("%w: %s longitude: %v", ErrEphemerisUnavailable, body, err)
		}
		if !finite(lon) {
			return NatalChart{}, fmt.Errorf("%w: %s longitude is %v", ErrEphemerisUnavailable, body, lon)
		}
		longitudes[body] = lon
	}

	sidereal, err := b.ephemeris.SiderealTime(ctx, instant)
	if err != nil {
		return NatalChart{}, fmt.Errorf("%w: sidereal time: %v", ErrEphemerisUnavailable, err)
	}
	asc := Ascendant(sidereal, b.ephemeris.JulianCenturies(instant), in.Latitude, in.Longitude)
	if !finite(asc) {
		return NatalChart{}, fmt.Errorf("%w: ascendant is %v (sidereal %v)", ErrEphemerisUnavailable, asc, sidereal)
	}

	chart := NatalChart{
		Sun:       ToZodiacPosition(longitudes[Sun]),
		Moon:      ToZodiacPosition(longitudes[Moon]),
		Rising:    ToZodiacPosition(asc),
		Mercury:   ToZodiacPosition(longitudes[Mercury]),
		Venus:     ToZodiacPosition(longitudes[Venus]),
		Mars:      ToZodiacPosition(longitudes[Mars]),
		Jupiter:   ToZodiacPosition(longitudes[Jupiter]),
		Saturn:    ToZodiacPosition(longitudes[Saturn]),
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Instant:   instant,
	}

	if in.IncludeHouses {
		cusps := EqualHouses(asc)
		chart.Houses = make([]float64, HouseCount)
		for i, c := range cusps {
			chart.Houses[i] = Normalize(round2(c))
		}
	}

	b.logger.Debug("chart built",
		zap.Time("instant", instant),
		zap.String("sun", string(chart.Sun.Sign)),
		zap.String("moon", string(chart.Moon.Sign)),
		zap.String("rising", string(chart.Rising.Sign)))

	return chart, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
