package ephemeris

import (
	"fmt"

	"github.com/godilite/astromatch/internal/astro"
	"github.com/soniakeys/meeus/v3/kepler"
	pe "github.com/soniakeys/meeus/v3/planetelements"
)

var elementIndex = map[astro.Body]int{
	astro.Mercury: pe.Mercury,
	astro.Venus:   pe.Venus,
	astro.Mars:    pe.Mars,
	astro.Jupiter: pe.Jupiter,
	astro.Saturn:  pe.Saturn,
}

// MeanElements computes planet longitudes from Keplerian mean elements of date.
// It needs no data files and is good to a few arcminutes for the inner planets.
type MeanElements struct{}

func (MeanElements) Longitude(body astro.Body, jde float64) (float64, error) {
	p, ok := elementIndex[body]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownBody, body)
	}
	earth := func(jde float64) vec3 { return heliocentric(pe.Earth, jde) }
	planet := func(jde float64) vec3 { return heliocentric(p, jde) }
	return geocentricLongitude(earth, planet, jde), nil
}

// heliocentric returns the ecliptic position of planet p on the mean ecliptic
// and equinox of date.
func heliocentric(p int, jde float64) vec3 {
	var el pe.Elements
	pe.Mean(p, jde, &el)

	E := kepler.Kepler3(el.Ecc, el.Lon-el.Peri)
	r := kepler.Radius(E, el.Ecc, el.Axis)
	// argument of latitude: ω + ν
	u := el.Peri - el.Node + kepler.True(E, el.Ecc)

	su, cu := u.Sincos()
	sΩ, cΩ := el.Node.Sincos()
	si, ci := el.Inc.Sincos()
	return vec3{
		x: r * (cΩ*cu - sΩ*su*ci),
		y: r * (sΩ*cu + cΩ*su*ci),
		z: r * su * si,
	}
}
