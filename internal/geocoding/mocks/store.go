package mocks

import (
	"context"
	"errors"

	"github.com/godilite/astromatch/internal/geocoding"
)

// MockStore is a mock implementation of geocoding.Store.
type MockStore struct {
	FindExactFunc      func(ctx context.Context, name string) (geocoding.Location, error)
	FindContainingFunc func(ctx context.Context, name string) (geocoding.Location, error)
	SaveFunc           func(ctx context.Context, name string, loc geocoding.Location) error
}

// FindExact implements geocoding.Store
func (m *MockStore) FindExact(ctx context.Context, name string) (geocoding.Location, error) {
	if m.FindExactFunc != nil {
		return m.FindExactFunc(ctx, name)
	}
	return geocoding.Location{}, geocoding.ErrNotFound
}

// FindContaining implements geocoding.Store
func (m *MockStore) FindContaining(ctx context.Context, name string) (geocoding.Location, error) {
	if m.FindContainingFunc != nil {
		return m.FindContainingFunc(ctx, name)
	}
	return geocoding.Location{}, geocoding.ErrNotFound
}

// Save implements geocoding.Store
func (m *MockStore) Save(ctx context.Context, name string, loc geocoding.Location) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, name, loc)
	}
	return nil
}

// MockLookup is a mock implementation of geocoding.Lookup.
type MockLookup struct {
	SearchFunc func(ctx context.Context, query string) (geocoding.Location, error)
}

// Search implements geocoding.Lookup
func (m *MockLookup) Search(ctx context.Context, query string) (geocoding.Location, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return geocoding.Location{}, errors.New("SearchFunc not implemented")
}
