package astro

import "math"

const (
	obliquityJ2000       = 23.439291
	obliquityPerCentury  = 0.0130042
	siderealDegreesPerHr = 15.0
)

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }

// MeanObliquity returns the obliquity of the ecliptic in degrees for T Julian centuries since J2000.
func MeanObliquity(julianCenturies float64) float64 {
	return obliquityJ2000 - obliquityPerCentury*julianCenturies
}

// Ascendant returns the ecliptic longitude rising on the eastern horizon.
//
// siderealHours is Greenwich sidereal time in hours, latitude and longitude are
// geographic degrees (east positive). Latitude must be strictly inside (-90, 90);
// at the poles tan(latitude) is undefined and the result is NaN.
func Ascendant(siderealHours, julianCenturies, latitude, longitude float64) float64 {
	gmstDeg := siderealHours * siderealDegreesPerHr
	lst := degToRad(Normalize(gmstDeg + longitude))
	eps := degToRad(MeanObliquity(julianCenturies))
	lat := degToRad(latitude)

	y := -math.Cos(lst)
	x := math.Sin(eps)*math.Tan(lat) + math.Cos(eps)*math.Sin(lst)

	return Normalize(radToDeg(math.Atan2(y, x)))
}
