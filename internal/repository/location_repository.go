package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/godilite/astromatch/internal/geocoding"
	"github.com/godilite/astromatch/internal/repository/models"
)

// Schema creates the geocode cache table.
const Schema = `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		name            TEXT PRIMARY KEY,
		display_name    TEXT NOT NULL DEFAULT '',
		latitude        REAL NOT NULL,
		longitude       REAL NOT NULL,
		tz_offset_hours REAL NOT NULL DEFAULT 0,
		created_at      TIMESTAMP NOT NULL
	);
`

const selectColumns = `name, display_name, latitude, longitude, tz_offset_hours, created_at`

// LocationRepository is the sqlite-backed geocoding.Store.
type LocationRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{db: db, now: time.Now}
}

// Migrate applies Schema.
func (r *LocationRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate geocode_cache: %w", err)
	}
	return nil
}

func (r *LocationRepository) FindExact(ctx context.Context, name string) (geocoding.Location, error) {
	query := `SELECT ` + selectColumns + ` FROM geocode_cache WHERE name = ?`
	entry, err := r.scanOne(r.db.QueryRowContext(ctx, query, geocoding.NormalizeName(name)))
	if err != nil {
		return geocoding.Location{}, fmt.Errorf("query FindExact: %w", err)
	}
	return toLocation(entry), nil
}

// FindContaining returns the longest cached name that contains, or is contained
// in, the query.
func (r *LocationRepository) FindContaining(ctx context.Context, name string) (geocoding.Location, error) {
	key := geocoding.NormalizeName(name)
	if key == "" {
		return geocoding.Location{}, geocoding.ErrNotFound
	}

	query := `SELECT ` + selectColumns + ` FROM geocode_cache
		WHERE name <> '' AND (instr(name, ?) > 0 OR instr(?, name) > 0)
		ORDER BY length(name) DESC, name ASC
		LIMIT 1`
	entry, err := r.scanOne(r.db.QueryRowContext(ctx, query, key, key))
	if err != nil {
		return geocoding.Location{}, fmt.Errorf("query FindContaining: %w", err)
	}
	return toLocation(entry), nil
}

// Save upserts a location under its normalized name.
func (r *LocationRepository) Save(ctx context.Context, name string, loc geocoding.Location) error {
	const query = `
		INSERT INTO geocode_cache (` + selectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			display_name = excluded.display_name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			tz_offset_hours = excluded.tz_offset_hours
	`
	_, err := r.db.ExecContext(ctx, query,
		geocoding.NormalizeName(name), loc.DisplayName, loc.Latitude, loc.Longitude, loc.TimezoneOffsetHours, r.now().UTC())
	if err != nil {
		return fmt.Errorf("exec Save: %w", err)
	}
	return nil
}

// Seed inserts the given cities, leaving existing rows untouched. It returns the
// number of rows added.
func (r *LocationRepository) Seed(ctx context.Context, cities map[string]geocoding.Location) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin Seed: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO geocode_cache (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare Seed: %w", err)
	}
	defer stmt.Close()

	created := r.now().UTC()
	added := 0
	for name, loc := range cities {
		res, err := stmt.ExecContext(ctx,
			geocoding.NormalizeName(name), loc.DisplayName, loc.Latitude, loc.Longitude, loc.TimezoneOffsetHours, created)
		if err != nil {
			return 0, fmt.Errorf("exec Seed %q: %w", name, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit Seed: %w", err)
	}
	return added, nil
}

// Count returns the number of cached locations.
func (r *LocationRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM geocode_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("query Count: %w", err)
	}
	return n, nil
}

func (r *LocationRepository) scanOne(row *sql.Row) (models.GeocodeEntry, error) {
	var e models.GeocodeEntry
	err := row.Scan(&e.Name, &e.DisplayName, &e.Latitude, &e.Longitude, &e.TZOffsetHours, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, geocoding.ErrNotFound
	}
	return e, err
}

func toLocation(e models.GeocodeEntry) geocoding.Location {
	return geocoding.Location{
		Latitude:            e.Latitude,
		Longitude:           e.Longitude,
		TimezoneOffsetHours: e.TZOffsetHours,
		DisplayName:         e.DisplayName,
	}
}
