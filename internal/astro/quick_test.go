package astro

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuickCompatibility(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"Aries", "Gemini", 90},
		{"Gemini", "Aries", 90},
		{"Leo", "Sagittarius", 80},
		{"Taurus", "Scorpio", 90},
		{"Cancer", "Cancer", 85},
		{"Capricorn", "Libra", 45},
		{"Pisces", "Aquarius", 55},
		{"Aries", "Cancer", 40},
		{"virgo", "ARIES", 50},
		{"Aries", "Ophiuchus", 50},
		{"", "", 50},
	}

	for _, tc := range cases {
		t.Run(tc.a+"/"+tc.b, func(t *testing.T) {
			assert.Equal(t, tc.want, QuickCompatibility(tc.a, tc.b))
		})
	}
}

func TestQuickCompatibility_Symmetric(t *testing.T) {
	for _, a := range Signs {
		for _, b := range Signs {
			ab := QuickCompatibility(string(a), string(b))
			assert.Equal(t, ab, QuickCompatibility(string(b), string(a)), "%s/%s", a, b)
			assert.Contains(t, []int{40, 45, 50, 55, 80, 85, 90}, ab)
		}
	}
}

func TestElementOf(t *testing.T) {
	e, ok := ElementOf("scorpio")
	assert.True(t, ok)
	assert.Equal(t, Water, e)

	_, ok = ElementOf("nope")
	assert.False(t, ok)

	counts := map[Element]int{}
	for _, s := range Signs {
		counts[signElements[s]]++
	}
	assert.Equal(t, map[Element]int{Fire: 3, Earth: 3, Air: 3, Water: 3}, counts)
}
