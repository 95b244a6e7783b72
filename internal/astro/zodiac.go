package astro

import (
	"math"
	"strings"
)

// Sign is one of the twelve zodiac signs.
type Sign string

const (
	Aries       Sign = "Aries"
	Taurus      Sign = "Taurus"
	Gemini      Sign = "Gemini"
	Cancer      Sign = "Cancer"
	Leo         Sign = "Leo"
	Virgo       Sign = "Virgo"
	Libra       Sign = "Libra"
	Scorpio     Sign = "Scorpio"
	Sagittarius Sign = "Sagittarius"
	Capricorn   Sign = "Capricorn"
	Aquarius    Sign = "Aquarius"
	Pisces      Sign = "Pisces"
)

// Signs lists the zodiac in ecliptic order starting at 0°.
var Signs = [12]Sign{
	Aries, Taurus, Gemini, Cancer, Leo, Virgo,
	Libra, Scorpio, Sagittarius, Capricorn, Aquarius, Pisces,
}

const degreesPerSign = 30.0

// ZodiacPosition is a point on the ecliptic expressed both as sign+degree and as longitude.
type ZodiacPosition struct {
	Sign      Sign    `json:"sign"`
	Degree    float64 `json:"degree"`
	Longitude float64 `json:"longitude"`
}

// Normalize wraps x into [0, 360).
func Normalize(x float64) float64 {
	r := math.Mod(x, 360)
	if r < 0 {
		r += 360
	}
	// -1e-20 + 360 rounds up to 360.
	if r >= 360 {
		r = 0
	}
	return r
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// ToZodiacPosition maps an ecliptic longitude to its sign and degree within the sign.
// The stored longitude is rounded to 2 decimals and sign/degree are derived from it,
// so the three fields always agree.
func ToZodiacPosition(longitude float64) ZodiacPosition {
	lon := round2(Normalize(longitude))
	if lon >= 360 {
		lon = 359.99
	}

	idx := int(math.Floor(lon / degreesPerSign))
	switch {
	case idx < 0:
		// NaN input; callers reject non-finite longitudes before mapping.
		idx = 0
	case idx > 11:
		idx = 11
	}

	return ZodiacPosition{
		Sign:      Signs[idx],
		Degree:    round2(lon - float64(idx)*degreesPerSign),
		Longitude: lon,
	}
}

// ToLongitude converts sign and degree back to an ecliptic longitude.
// An unrecognized sign yields 0.
func ToLongitude(sign Sign, degree float64) float64 {
	idx := signIndex(string(sign))
	if idx < 0 {
		return 0
	}
	return Normalize(float64(idx)*degreesPerSign + degree)
}

// ParseSign resolves a sign name case-insensitively.
func ParseSign(name string) (Sign, bool) {
	idx := signIndex(name)
	if idx < 0 {
		return "", false
	}
	return Signs[idx], true
}

func signIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, s := range Signs {
		if strings.EqualFold(string(s), name) {
			return i
		}
	}
	return -1
}
