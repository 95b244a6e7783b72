package astro

import "math"

// AspectCategory classifies how an aspect is read in synastry.
type AspectCategory string

const (
	Harmonious  AspectCategory = "harmonious"
	Challenging AspectCategory = "challenging"
	Intense     AspectCategory = "intense"
)

// Aspect is a catalog entry: an exact angle and the orb still counted as that aspect.
type Aspect struct {
	Name     string
	Angle    float64
	Orb      float64
	Category AspectCategory
}

// AspectCatalog is evaluated in order; the first entry within orb wins.
var AspectCatalog = []Aspect{
	{Name: "conjunction", Angle: 0, Orb: 8, Category: Intense},
	{Name: "sextile", Angle: 60, Orb: 6, Category: Harmonious},
	{Name: "square", Angle: 90, Orb: 7, Category: Challenging},
	{Name: "trine", Angle: 120, Orb: 8, Category: Harmonious},
	{Name: "opposition", Angle: 180, Orb: 8, Category: Challenging},
}

// DetectedAspect is the result of matching two longitudes against a catalog.
type DetectedAspect struct {
	Name      string         `json:"name"`
	ActualOrb float64        `json:"actual_orb"`
	Category  AspectCategory `json:"category"`
}

// orbScale is the deviation at which tightness reaches zero.
const orbScale = 10.0

// Tightness is 1 for an exact aspect and falls linearly with the orb.
func (d DetectedAspect) Tightness() float64 {
	return 1 - d.ActualOrb/orbScale
}

// Separation returns the shortest angular distance between two longitudes, in [0, 180].
func Separation(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// DetectAspect matches two longitudes against AspectCatalog.
// The boolean is false when no aspect is within orb.
func DetectAspect(a, b float64) (DetectedAspect, bool) {
	return DetectAspectIn(AspectCatalog, a, b)
}

// DetectAspectIn matches two longitudes against the given catalog.
func DetectAspectIn(catalog []Aspect, a, b float64) (DetectedAspect, bool) {
	diff := Separation(a, b)
	for _, asp := range catalog {
		deviation := math.Abs(diff - asp.Angle)
		if deviation <= asp.Orb {
			return DetectedAspect{
				Name:      asp.Name,
				ActualOrb: round2(deviation),
				Category:  asp.Category,
			}, true
		}
	}
	return DetectedAspect{}, false
}
