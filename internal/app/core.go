package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/godilite/astromatch/internal/astro"
	"github.com/godilite/astromatch/internal/config"
	"github.com/godilite/astromatch/internal/ephemeris"
	"github.com/godilite/astromatch/internal/geocoding"
	"github.com/godilite/astromatch/internal/metrics"
	"github.com/godilite/astromatch/internal/repository"
	"github.com/godilite/astromatch/internal/service"
	dbbuilder "github.com/godilite/astromatch/pkg/database"
	"go.uber.org/zap"
)

// Core is everything below the transports: storage, geocoding, ephemeris and
// the synastry service. The server and the CLI share it.
type Core struct {
	DB       *sql.DB
	Synastry *service.SynastryService
	Metrics  *metrics.Metrics
}

func ensureDataDir(cfg *config.Config) error {
	if cfg.DBDriver != "sqlite3" || strings.HasPrefix(cfg.DBPath, ":memory:") || strings.HasPrefix(cfg.DBPath, "file:") {
		return nil
	}
	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return nil
}

// NewCore opens the geocode cache, seeds the builtin cities and assembles the
// chart pipeline. m may be nil.
func NewCore(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*Core, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}

	if err := ensureDataDir(cfg); err != nil {
		return nil, err
	}
	dbOpts := []dbbuilder.Option{
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
		dbbuilder.WithSchema(repository.Schema),
	}
	if cfg.DBDriver == "sqlite3" {
		dbOpts = append(dbOpts, dbbuilder.WithPragmas("busy_timeout = 5000"))
	}
	db, err := dbbuilder.New(dbOpts...)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	locations := repository.NewLocationRepository(db)
	seeded, err := locations.Seed(ctx, geocoding.BuiltinCities())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("seed builtin cities: %w", err)
	}
	logger.Info("Geocode cache ready", zap.Int("seeded", seeded))

	geoOpts := []geocoding.Option{
		geocoding.WithLogger(logger),
		geocoding.WithHook(m.GeocodeHook()),
	}
	if cfg.Geocoder.Enabled {
		geoOpts = append(geoOpts, geocoding.WithLookup(geocoding.NewNominatimClient(
			geocoding.WithBaseURL(cfg.Geocoder.URL),
			geocoding.WithUserAgent(cfg.Geocoder.UserAgent),
			geocoding.WithMinInterval(cfg.Geocoder.MinInterval),
			geocoding.WithTimeout(cfg.Geocoder.Timeout),
			geocoding.WithNominatimLogger(logger),
		)))
		logger.Info("Network geocoding enabled", zap.String("url", cfg.Geocoder.URL))
	}
	geocoder := geocoding.NewGeocoder(locations, geoOpts...)

	eph, err := ephemeris.New(
		ephemeris.WithVSOP87Path(cfg.VSOP87Path),
		ephemeris.WithLogger(logger),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ephemeris init failed: %w", err)
	}

	builder := m.InstrumentBuilder(astro.NewChartBuilder(eph, logger))
	synastry := service.NewSynastryService(builder, geocoder, astro.NewScorer(), logger)

	return &Core{DB: db, Synastry: synastry, Metrics: m}, nil
}

func (c *Core) Close() error {
	return c.DB.Close()
}
