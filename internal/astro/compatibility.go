package astro

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// PairWeight compares placement A of the first chart with placement B of the second.
type PairWeight struct {
	A      Placement
	B      Placement
	Weight float64
}

// Category is a compatibility sub-score.
type Category string

const (
	CategoryEmotional     Category = "emotional"
	CategoryCommunication Category = "communication"
	CategoryPassion       Category = "passion"
	CategoryLongTerm      Category = "long_term"
	CategoryValues        Category = "values"
	CategoryGrowth        Category = "growth"
)

// CategoryTable is the set of pairs averaged into one category score.
type CategoryTable struct {
	Category Category
	Pairs    []PairWeight
}

// ScoringTable holds both pair tables used by the scorer.
type ScoringTable struct {
	Overall    []PairWeight
	Categories []CategoryTable
}

// DefaultScoringTable returns the production weighting tables.
func DefaultScoringTable() ScoringTable {
	return ScoringTable{
		Overall: []PairWeight{
			{PlacementSun, PlacementSun, 1.0},
			{PlacementMoon, PlacementMoon, 1.0},
			{PlacementSun, PlacementMoon, 0.9},
			{PlacementMoon, PlacementSun, 0.9},
			{PlacementVenus, PlacementMars, 0.85},
			{PlacementMars, PlacementVenus, 0.85},
			{PlacementMercury, PlacementMercury, 0.7},
			{PlacementRising, PlacementSun, 0.7},
			{PlacementSun, PlacementRising, 0.7},
			{PlacementJupiter, PlacementJupiter, 0.5},
			{PlacementSaturn, PlacementSaturn, 0.5},
			{PlacementVenus, PlacementVenus, 0.6},
		},
		Categories: []CategoryTable{
			{CategoryEmotional, []PairWeight{
				{PlacementMoon, PlacementMoon, 1},
				{PlacementMoon, PlacementVenus, 1},
				{PlacementVenus, PlacementMoon, 1},
			}},
			{CategoryCommunication, []PairWeight{
				{PlacementMercury, PlacementMercury, 1},
				{PlacementMercury, PlacementSun, 1},
				{PlacementSun, PlacementMercury, 1},
			}},
			{CategoryPassion, []PairWeight{
				{PlacementVenus, PlacementMars, 1},
				{PlacementMars, PlacementVenus, 1},
			}},
			{CategoryLongTerm, []PairWeight{
				{PlacementSaturn, PlacementSun, 1},
				{PlacementSun, PlacementSaturn, 1},
				{PlacementSaturn, PlacementSaturn, 1},
			}},
			{CategoryValues, []PairWeight{
				{PlacementVenus, PlacementVenus, 1},
			}},
			{CategoryGrowth, []PairWeight{
				{PlacementJupiter, PlacementJupiter, 1},
			}},
		},
	}
}

const (
	neutralScore = 50
	scoreSpread  = 40

	harmoniousFactor  = 1.0
	intenseFactor     = 0.6
	challengingFactor = 0.5

	noAspectCategoryScore = 55
)

// AspectDescription is a detected cross-chart aspect prepared for display.
type AspectDescription struct {
	PlacementA  Placement      `json:"placement_a"`
	PlacementB  Placement      `json:"placement_b"`
	Aspect      string         `json:"aspect"`
	Category    AspectCategory `json:"category"`
	Orb         float64        `json:"orb"`
	Weight      float64        `json:"weight"`
	Description string         `json:"description"`
}

// CompatibilityResult is derived from two charts and carries no identity of its own.
type CompatibilityResult struct {
	Overall       int                 `json:"overall"`
	Emotional     int                 `json:"emotional"`
	Communication int                 `json:"communication"`
	Passion       int                 `json:"passion"`
	LongTerm      int                 `json:"long_term"`
	Values        int                 `json:"values"`
	Growth        int                 `json:"growth"`
	Aspects       []AspectDescription `json:"aspects"`
}

// CategoryScore returns the sub-score for c.
func (r CompatibilityResult) CategoryScore(c Category) (int, bool) {
	switch c {
	case CategoryEmotional:
		return r.Emotional, true
	case CategoryCommunication:
		return r.Communication, true
	case CategoryPassion:
		return r.Passion, true
	case CategoryLongTerm:
		return r.LongTerm, true
	case CategoryValues:
		return r.Values, true
	case CategoryGrowth:
		return r.Growth, true
	}
	return 0, false
}

func (r *CompatibilityResult) setCategory(c Category, score int) {
	switch c {
	case CategoryEmotional:
		r.Emotional = score
	case CategoryCommunication:
		r.Communication = score
	case CategoryPassion:
		r.Passion = score
	case CategoryLongTerm:
		r.LongTerm = score
	case CategoryValues:
		r.Values = score
	case CategoryGrowth:
		r.Growth = score
	}
}

type ScorerOption func(*Scorer)

// WithScoringTable replaces the default pair tables.
func WithScoringTable(t ScoringTable) ScorerOption {
	return func(s *Scorer) { s.table = t }
}

// WithCatalog replaces the aspect catalog used for detection.
func WithCatalog(catalog []Aspect) ScorerOption {
	return func(s *Scorer) { s.catalog = catalog }
}

// Scorer reduces two charts to compatibility scores. It holds no mutable state
// and is safe for concurrent use.
type Scorer struct {
	table   ScoringTable
	catalog []Aspect
}

func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{
		table:   DefaultScoringTable(),
		catalog: AspectCatalog,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scorer) detect(a, b NatalChart, pair PairWeight) (DetectedAspect, bool) {
	pa, okA := a.Position(pair.A)
	pb, okB := b.Position(pair.B)
	if !okA || !okB {
		return DetectedAspect{}, false
	}
	return DetectAspectIn(s.catalog, pa.Longitude, pb.Longitude)
}

// Score computes the overall score, the six category scores and the aspect list.
func (s *Scorer) Score(a, b NatalChart) CompatibilityResult {
	overall, aspects := s.overall(a, b)
	result := CompatibilityResult{
		Overall: overall,
		Aspects: aspects,
	}
	for _, cat := range s.table.Categories {
		result.setCategory(cat.Category, s.categoryScore(a, b, cat.Pairs))
	}
	return result
}

// OverallScore centers on 50 and moves up to ±40 with the weighted aspect mix.
func (s *Scorer) OverallScore(a, b NatalChart) int {
	score, _ := s.overall(a, b)
	return score
}

func (s *Scorer) overall(a, b NatalChart) (int, []AspectDescription) {
	var totalWeight, weighted float64
	aspects := make([]AspectDescription, 0, len(s.table.Overall))

	for _, pair := range s.table.Overall {
		totalWeight += pair.Weight

		asp, ok := s.detect(a, b, pair)
		if !ok {
			continue
		}

		t := asp.Tightness()
		switch asp.Category {
		case Harmonious:
			weighted += pair.Weight * t * harmoniousFactor
		case Intense:
			weighted += pair.Weight * t * intenseFactor
		case Challenging:
			weighted -= pair.Weight * t * challengingFactor
		}

		aspects = append(aspects, describe(pair, asp))
	}

	var ratio float64
	if totalWeight != 0 {
		ratio = weighted / totalWeight
	}

	sort.SliceStable(aspects, func(i, j int) bool {
		return aspects[i].Orb < aspects[j].Orb
	})

	return clampScore(math.Round(neutralScore + ratio*scoreSpread)), aspects
}

// CategoryScore averages per-pair scores for an arbitrary pair set.
func (s *Scorer) CategoryScore(a, b NatalChart, pairs []PairWeight) int {
	return s.categoryScore(a, b, pairs)
}

func (s *Scorer) categoryScore(a, b NatalChart, pairs []PairWeight) int {
	var sum, weights float64
	for _, pair := range pairs {
		w := pair.Weight
		if w <= 0 {
			w = 1
		}
		sum += w * pairScore(s.detect(a, b, pair))
		weights += w
	}
	if weights == 0 {
		return noAspectCategoryScore
	}
	return clampScore(math.Round(sum / weights))
}

func pairScore(asp DetectedAspect, ok bool) float64 {
	if !ok {
		return noAspectCategoryScore
	}
	t := asp.Tightness()
	switch asp.Category {
	case Harmonious:
		return 70 + t*25
	case Intense:
		return 60 + t*20
	case Challenging:
		return 35 + t*15
	}
	return noAspectCategoryScore
}

func clampScore(v float64) int {
	return int(math.Max(0, math.Min(100, v)))
}

func describe(pair PairWeight, asp DetectedAspect) AspectDescription {
	return AspectDescription{
		PlacementA: pair.A,
		PlacementB: pair.B,
		Aspect:     asp.Name,
		Category:   asp.Category,
		Orb:        asp.ActualOrb,
		Weight:     pair.Weight,
		Description: fmt.Sprintf("Your %s %s their %s (%s, orb %.2f°)",
			title(string(pair.A)), asp.Name, title(string(pair.B)), asp.Category, asp.ActualOrb),
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
