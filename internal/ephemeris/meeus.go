package ephemeris

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/godilite/astromatch/internal/astro"
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	pp "github.com/soniakeys/meeus/v3/planetposition"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
	"go.uber.org/zap"
)

var (
	ErrUnknownBody = errors.New("unknown body")
	ErrVSOP87Load  = errors.New("failed to load VSOP87 data")
)

// PlanetSource returns geocentric ecliptic longitudes, in degrees of the mean
// equinox of date, for the five classical planets.
type PlanetSource interface {
	Longitude(body astro.Body, jde float64) (float64, error)
}

type Options struct {
	VSOP87Path string
	Logger     *zap.Logger
	Planets    PlanetSource
}

type Option func(*Options)

// WithVSOP87Path points the planet source at a directory of VSOP87B files.
func WithVSOP87Path(path string) Option {
	return func(o *Options) {
		o.VSOP87Path = path
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithPlanetSource overrides planet positions. It takes precedence over WithVSOP87Path.
func WithPlanetSource(src PlanetSource) Option {
	return func(o *Options) {
		o.Planets = src
	}
}

// Meeus implements astro.Ephemeris with the algorithms from Astronomical Algorithms.
type Meeus struct {
	planets PlanetSource
	logger  *zap.Logger
}

// New builds a Meeus ephemeris. Without a VSOP87 directory planets come from
// MeanElements.
func New(opts ...Option) (*Meeus, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	logger := options.Logger.Named("ephemeris")

	planets := options.Planets
	if planets == nil {
		if options.VSOP87Path != "" {
			v, err := LoadVSOP87(options.VSOP87Path)
			if err != nil {
				return nil, err
			}
			logger.Info("using VSOP87 planet theory", zap.String("path", options.VSOP87Path))
			planets = v
		} else {
			logger.Info("VSOP87 path not set, using mean orbital elements")
			planets = MeanElements{}
		}
	}

	return &Meeus{planets: planets, logger: logger}, nil
}

// GeocentricLongitude returns the apparent geocentric longitude of body at t.
func (m *Meeus) GeocentricLongitude(ctx context.Context, body astro.Body, t time.Time) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	jde := julian.TimeToJD(t)
	switch body {
	case astro.Sun:
		return astro.Normalize(solar.ApparentLongitude(base.J2000Century(jde)).Deg()), nil
	case astro.Moon:
		λ, _, _ := moonposition.Position(jde)
		Δψ, _ := nutation.Nutation(jde)
		return astro.Normalize(λ.Deg() + Δψ.Deg()), nil
	case astro.Mercury, astro.Venus, astro.Mars, astro.Jupiter, astro.Saturn:
		lon, err := m.planets.Longitude(body, jde)
		if err != nil {
			return 0, err
		}
		Δψ, _ := nutation.Nutation(jde)
		return astro.Normalize(lon + Δψ.Deg()), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownBody, body)
}

// SiderealTime returns apparent Greenwich sidereal time in hours.
func (m *Meeus) SiderealTime(ctx context.Context, t time.Time) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return sidereal.Apparent(julian.TimeToJD(t)).Hour(), nil
}

func (m *Meeus) JulianCenturies(t time.Time) float64 {
	return base.J2000Century(julian.TimeToJD(t))
}

// VSOP87 reads heliocentric positions from the full VSOP87B series.
type VSOP87 struct {
	earth   *pp.V87Planet
	planets map[astro.Body]*pp.V87Planet
}

var vsop87Index = map[astro.Body]int{
	astro.Mercury: pp.Mercury,
	astro.Venus:   pp.Venus,
	astro.Mars:    pp.Mars,
	astro.Jupiter: pp.Jupiter,
	astro.Saturn:  pp.Saturn,
}

// LoadVSOP87 loads Earth and the five planets from dir.
func LoadVSOP87(dir string) (*VSOP87, error) {
	earth, err := pp.LoadPlanetPath(pp.Earth, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: earth: %v", ErrVSOP87Load, err)
	}
	v := &VSOP87{earth: earth, planets: make(map[astro.Body]*pp.V87Planet, len(vsop87Index))}
	for body, idx := range vsop87Index {
		p, err := pp.LoadPlanetPath(idx, dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrVSOP87Load, body, err)
		}
		v.planets[body] = p
	}
	return v, nil
}

func (v *VSOP87) Longitude(body astro.Body, jde float64) (float64, error) {
	p, ok := v.planets[body]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownBody, body)
	}

	earth := func(jde float64) vec3 {
		L, B, R := v.earth.Position(jde)
		return spherical(L, B, R)
	}
	planet := func(jde float64) vec3 {
		L, B, R := p.Position(jde)
		return spherical(L, B, R)
	}
	return geocentricLongitude(earth, planet, jde), nil
}

type vec3 struct{ x, y, z float64 }

func spherical(L, B unit.Angle, R float64) vec3 {
	return vec3{
		x: R * B.Cos() * L.Cos(),
		y: R * B.Cos() * L.Sin(),
		z: R * B.Sin(),
	}
}

// lightTimeIterations bounds the planet-retardation loop; two passes already
// converge below a second of arc.
const lightTimeIterations = 3

// geocentricLongitude subtracts Earth's heliocentric position from the planet's,
// evaluating the planet at the retarded time.
func geocentricLongitude(earth, planet func(float64) vec3, jde float64) float64 {
	e := earth(jde)
	var d vec3
	τ := 0.0
	for i := 0; i < lightTimeIterations; i++ {
		p := planet(jde - τ)
		d = vec3{p.x - e.x, p.y - e.y, p.z - e.z}
		τ = base.LightTime(math.Sqrt(d.x*d.x + d.y*d.y + d.z*d.z))
	}
	return astro.Normalize(math.Atan2(d.y, d.x) * 180 / math.Pi)
}
