package astro

// HouseCount is the number of houses in a chart.
const HouseCount = 12

// EqualHouses returns 12 cusps spaced 30° apart starting at the ascendant.
func EqualHouses(ascendant float64) [HouseCount]float64 {
	var cusps [HouseCount]float64
	for i := range cusps {
		cusps[i] = Normalize(ascendant + float64(i)*degreesPerSign)
	}
	return cusps
}

// HouseOf returns the 1-based house containing longitude. Intervals are
// [cusp[i], cusp[i+1]) with wrap past 360°. House 1 is returned if no interval
// matches because of floating point edges.
func HouseOf(longitude float64, cusps [HouseCount]float64) int {
	lon := Normalize(longitude)
	for i := 0; i < HouseCount; i++ {
		start := cusps[i]
		end := cusps[(i+1)%HouseCount]

		if start < end {
			if lon >= start && lon < end {
				return i + 1
			}
			continue
		}
		if lon >= start || lon < end {
			return i + 1
		}
	}
	return 1
}
