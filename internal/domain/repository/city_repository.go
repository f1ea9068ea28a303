// Package repository defines the persistence interfaces the domain depends
// on. Concrete implementations live under internal/infra/persistence.
package repository

import (
	"context"

	"wander/internal/domain/entity"
	"wander/internal/errors"
)

// ErrCityNotFound is returned when a city cannot be found
var ErrCityNotFound = errors.New("city not found")

// CityRepository provides read access to the static city catalog. The
// catalog is loaded once at startup and treated as immutable afterwards.
type CityRepository interface {
	// ListCities returns the whole catalog.
	ListCities(ctx context.Context) ([]*entity.City, error)

	// FindCityByID retrieves a single city.
	FindCityByID(ctx context.Context, id int64) (*entity.City, error)
}
