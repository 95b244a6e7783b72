package astro

// Element groups signs for the quick compatibility lookup.
type Element string

const (
	Fire  Element = "fire"
	Earth Element = "earth"
	Air   Element = "air"
	Water Element = "water"
)

var signElements = map[Sign]Element{
	Aries: Fire, Leo: Fire, Sagittarius: Fire,
	Taurus: Earth, Virgo: Earth, Capricorn: Earth,
	Gemini: Air, Libra: Air, Aquarius: Air,
	Cancer: Water, Scorpio: Water, Pisces: Water,
}

type elementPair struct{ a, b Element }

// elementCompatibility holds one triangle of the symmetric matrix; lookups try both orders.
var elementCompatibility = map[elementPair]int{
	{Fire, Fire}:   80,
	{Fire, Earth}:  50,
	{Fire, Air}:    90,
	{Fire, Water}:  40,
	{Earth, Earth}: 85,
	{Earth, Air}:   45,
	{Earth, Water}: 90,
	{Air, Air}:     80,
	{Air, Water}:   55,
	{Water, Water}: 85,
}

const quickFallbackScore = 50

// ElementOf returns the element of a sign name.
func ElementOf(name string) (Element, bool) {
	sign, ok := ParseSign(name)
	if !ok {
		return "", false
	}
	return signElements[sign], true
}

// QuickCompatibility scores two sun signs by element when no birth time or place
// is known. Unrecognized signs score 50.
func QuickCompatibility(sign1, sign2 string) int {
	e1, ok1 := ElementOf(sign1)
	e2, ok2 := ElementOf(sign2)
	if !ok1 || !ok2 {
		return quickFallbackScore
	}
	if v, ok := elementCompatibility[elementPair{e1, e2}]; ok {
		return v
	}
	if v, ok := elementCompatibility[elementPair{e2, e1}]; ok {
		return v
	}
	return quickFallbackScore
}
