package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/godilite/astromatch/internal/astro"
	"github.com/godilite/astromatch/internal/geocoding"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	dateLayout   = "2006-01-02"
	chartTimeout = 5 * time.Second
	minBirthYear = 1800
	maxBirthYear = 2100
	maxLatitude  = 90.0
	maxLongitude = 180.0
)

var (
	ErrInvalidBirthDate     = errors.New("invalid birth date")
	ErrInvalidCoordinates   = errors.New("invalid coordinates")
	ErrEphemerisUnavailable = astro.ErrEphemerisUnavailable
)

// Scorer reduces two charts to compatibility scores.
type Scorer interface {
	Score(a, b astro.NatalChart) astro.CompatibilityResult
}

// SynastryService validates birth data, resolves places and builds and compares charts.
type SynastryService struct {
	builder  ChartBuilder
	resolver LocationResolver
	scorer   Scorer
	logger   *zap.Logger
}

// NewSynastryService creates a new SynastryService. A nil scorer uses the default tables.
func NewSynastryService(builder ChartBuilder, resolver LocationResolver, scorer Scorer, logger *zap.Logger) *SynastryService {
	if builder == nil {
		panic("chart builder must not be nil")
	}
	if resolver == nil {
		panic("location resolver must not be nil")
	}
	if scorer == nil {
		scorer = astro.NewScorer()
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &SynastryService{
		builder:  builder,
		resolver: resolver,
		scorer:   scorer,
		logger:   logger,
	}
}

type validated struct {
	details BirthDetails
	date    time.Time
	coords  *geocoding.Location
}

// ParseBirthDate accepts YYYY-MM-DD for a real calendar day within the supported range.
func ParseBirthDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBirthDate, s)
	}
	if d.Year() < minBirthYear || d.Year() > maxBirthYear {
		return time.Time{}, fmt.Errorf("%w: year %d outside %d-%d", ErrInvalidBirthDate, d.Year(), minBirthYear, maxBirthYear)
	}
	return d, nil
}

// ValidateCoordinates rejects the poles, where the ascendant is undefined.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return fmt.Errorf("%w: not a number", ErrInvalidCoordinates)
	}
	if lat <= -maxLatitude || lat >= maxLatitude {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinates, lat)
	}
	if lon < -maxLongitude || lon > maxLongitude {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinates, lon)
	}
	return nil
}

func validate(d BirthDetails) (validated, error) {
	date, err := ParseBirthDate(d.Date)
	if err != nil {
		return validated{}, err
	}

	v := validated{details: d, date: date}
	switch {
	case d.Latitude == nil && d.Longitude == nil:
	case d.Latitude == nil || d.Longitude == nil:
		return validated{}, fmt.Errorf("%w: latitude and longitude must be given together", ErrInvalidCoordinates)
	default:
		if err := ValidateCoordinates(*d.Latitude, *d.Longitude); err != nil {
			return validated{}, err
		}
		v.coords = &geocoding.Location{
			Latitude:            *d.Latitude,
			Longitude:           *d.Longitude,
			TimezoneOffsetHours: geocoding.EstimateTimezoneOffset(*d.Longitude),
			DisplayName:         strings.TrimSpace(d.City),
		}
	}
	return v, nil
}

// BuildChart validates d, resolves the birth place and builds the chart.
func (s *SynastryService) BuildChart(ctx context.Context, d BirthDetails) (ChartResult, error) {
	v, err := validate(d)
	if err != nil {
		return ChartResult{}, err
	}
	return s.build(ctx, v)
}

func (s *SynastryService) build(ctx context.Context, v validated) (ChartResult, error) {
	loc := s.locate(ctx, v)

	chartCtx, cancel := context.WithTimeout(ctx, chartTimeout)
	defer cancel()

	chart, err := s.builder.Build(chartCtx, astro.BirthInput{
		Date:          v.date,
		Time:          v.details.Time,
		Latitude:      loc.Latitude,
		Longitude:     loc.Longitude,
		IncludeHouses: v.details.IncludeHouses,
	})
	if err != nil {
		s.logger.Error("chart build failed", zap.String("date", v.details.Date), zap.Error(err))
		return ChartResult{}, fmt.Errorf("build chart: %w", err)
	}

	return ChartResult{Chart: chart, BigThree: chart.BigThree(), Location: loc}, nil
}

func (s *SynastryService) locate(ctx context.Context, v validated) geocoding.Location {
	if v.coords != nil {
		return *v.coords
	}
	loc := s.resolver.Resolve(ctx, v.details.City)
	if err := ValidateCoordinates(loc.Latitude, loc.Longitude); err != nil {
		s.logger.Warn("geocoded location unusable, using default",
			zap.String("city", v.details.City),
			zap.String("resolved", loc.DisplayName),
			zap.Error(err))
		return geocoding.DefaultLocation
	}
	return loc
}

// Match validates both people before any astronomy, builds both charts in
// parallel and scores them with a as "your" side.
func (s *SynastryService) Match(ctx context.Context, a, b BirthDetails) (MatchResult, error) {
	va, err := validate(a)
	if err != nil {
		return MatchResult{}, fmt.Errorf("person a: %w", err)
	}
	vb, err := validate(b)
	if err != nil {
		return MatchResult{}, fmt.Errorf("person b: %w", err)
	}

	var ra, rb ChartResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ra, err = s.build(gctx, va)
		if err != nil {
			return fmt.Errorf("person a: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rb, err = s.build(gctx, vb)
		if err != nil {
			return fmt.Errorf("person b: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return MatchResult{}, err
	}

	result := s.scorer.Score(ra.Chart, rb.Chart)

	s.logger.Info("compatibility computed",
		zap.Int("overall", result.Overall),
		zap.Int("aspects", len(result.Aspects)),
		zap.String("sun_a", string(ra.BigThree.Sun)),
		zap.String("sun_b", string(rb.BigThree.Sun)))

	return MatchResult{PersonA: ra, PersonB: rb, Compatibility: result}, nil
}

// QuickMatch scores two sun signs by element. Unknown signs score 50.
func (s *SynastryService) QuickMatch(sign1, sign2 string) QuickResult {
	r := QuickResult{
		Sign1: strings.TrimSpace(sign1),
		Sign2: strings.TrimSpace(sign2),
		Score: astro.QuickCompatibility(sign1, sign2),
	}
	if e, ok := astro.ElementOf(sign1); ok {
		r.Element1 = e
	}
	if e, ok := astro.ElementOf(sign2); ok {
		r.Element2 = e
	}
	return r
}
