package service

import (
	"github.com/godilite/astromatch/internal/astro"
	"github.com/godilite/astromatch/internal/geocoding"
)

// BirthDetails is one person's raw birth data. Explicit coordinates take
// precedence over City.
type BirthDetails struct {
	Date          string   `json:"date"`
	Time          string   `json:"time,omitempty"`
	City          string   `json:"city,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	IncludeHouses bool     `json:"include_houses,omitempty"`
}

type ChartResult struct {
	Chart    astro.NatalChart   `json:"chart"`
	BigThree astro.BigThree     `json:"big_three"`
	Location geocoding.Location `json:"location"`
}

type MatchResult struct {
	PersonA       ChartResult               `json:"person_a"`
	PersonB       ChartResult               `json:"person_b"`
	Compatibility astro.CompatibilityResult `json:"compatibility"`
}

type QuickResult struct {
	Sign1    string        `json:"sign1"`
	Sign2    string        `json:"sign2"`
	Element1 astro.Element `json:"element1,omitempty"`
	Element2 astro.Element `json:"element2,omitempty"`
	Score    int           `json:"score"`
}
