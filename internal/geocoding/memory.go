package geocoding

import (
	"context"
	"strings"
	"sync"
)

// BuiltinCities is the seed set for a fresh geocode cache, keyed by normalized name.
func BuiltinCities() map[string]Location {
	return map[string]Location{
		"new york":       DefaultLocation,
		"los angeles":    {34.0522, -118.2437, -8, "Los Angeles, CA, USA"},
		"chicago":        {41.8781, -87.6298, -6, "Chicago, IL, USA"},
		"houston":        {29.7604, -95.3698, -6, "Houston, TX, USA"},
		"toronto":        {43.6532, -79.3832, -5, "Toronto, ON, Canada"},
		"mexico city":    {19.4326, -99.1332, -6, "Mexico City, Mexico"},
		"sao paulo":      {-23.5505, -46.6333, -3, "São Paulo, Brazil"},
		"london":         {51.5074, -0.1278, 0, "London, UK"},
		"paris":          {48.8566, 2.3522, 1, "Paris, France"},
		"berlin":         {52.5200, 13.4050, 1, "Berlin, Germany"},
		"lagos":          {6.5244, 3.3792, 1, "Lagos, Nigeria"},
		"cairo":          {30.0444, 31.2357, 2, "Cairo, Egypt"},
		"mumbai":         {19.0760, 72.8777, 5.5, "Mumbai, India"},
		"tokyo":          {35.6762, 139.6503, 9, "Tokyo, Japan"},
		"sydney":         {-33.8688, 151.2093, 10, "Sydney, Australia"},
		"rio de janeiro": {-22.9068, -43.1729, -3, "Rio de Janeiro, Brazil"},
	}
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	cities map[string]Location
}

// NewMemoryStore returns a store holding a copy of seed.
func NewMemoryStore(seed map[string]Location) *MemoryStore {
	s := &MemoryStore{cities: make(map[string]Location, len(seed))}
	for name, loc := range seed {
		s.cities[NormalizeName(name)] = loc
	}
	return s
}

func (s *MemoryStore) FindExact(_ context.Context, name string) (Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if loc, ok := s.cities[NormalizeName(name)]; ok {
		return loc, nil
	}
	return Location{}, ErrNotFound
}

// FindContaining matches a stored name inside the query or the query inside a
// stored name. The longest stored name wins, ties broken alphabetically.
func (s *MemoryStore) FindContaining(_ context.Context, name string) (Location, error) {
	q := NormalizeName(name)
	if q == "" {
		return Location{}, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var best string
	found := false
	for stored := range s.cities {
		if stored == "" || (!strings.Contains(stored, q) && !strings.Contains(q, stored)) {
			continue
		}
		if !found || len(stored) > len(best) || (len(stored) == len(best) && stored < best) {
			best, found = stored, true
		}
	}
	if !found {
		return Location{}, ErrNotFound
	}
	return s.cities[best], nil
}

func (s *MemoryStore) Save(_ context.Context, name string, loc Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cities[NormalizeName(name)] = loc
	return nil
}
