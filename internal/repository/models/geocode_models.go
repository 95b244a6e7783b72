package models

import "time"

// GeocodeEntry is one row of geocode_cache.
type GeocodeEntry struct {
	Name          string
	DisplayName   string
	Latitude      float64
	Longitude     float64
	TZOffsetHours float64
	CreatedAt     time.Time
}
