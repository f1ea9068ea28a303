package postgres

import (
	"context"
	"encoding/json"
	"log/slog"

	"wander/internal/domain/entity"
	"wander/internal/domain/repository"
	"wander/internal/errors"
	"wander/internal/infra/persistence/model"

	"gorm.io/gorm"
)

// cityRepository implements the repository.CityRepository interface.
type cityRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewCityRepository is the constructor for cityRepository.
func NewCityRepository(db *gorm.DB, logger *slog.Logger) repository.CityRepository {
	return &cityRepository{
		db:     db,
		logger: logger,
	}
}

// ListCities returns the whole catalog ordered by descending population, so
// the most significant markers render first.
func (repo *cityRepository) ListCities(ctx context.Context) ([]*entity.City, error) {
	var cityModels []*model.CityModel
	if err := repo.db.WithContext(ctx).
		Order("population DESC").
		Find(&cityModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list cities")
	}

	cities := make([]*entity.City, 0, len(cityModels))
	for _, cityM := range cityModels {
		cities = append(cities, repo.toCityDomain(cityM))
	}

	return cities, nil
}

// FindCityByID retrieves a single city by catalog id.
func (repo *cityRepository) FindCityByID(ctx context.Context, id int64) (*entity.City, error) {
	var cityM model.CityModel
	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&cityM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCityNotFound
		}

		return nil, errors.Wrap(err, "failed to find city by ID")
	}

	return repo.toCityDomain(&cityM), nil
}

func (repo *cityRepository) toCityDomain(cityM *model.CityModel) *entity.City {
	city := &entity.City{
		ID:      cityM.ID,
		Name:    cityM.Name,
		Country: cityM.Country,
		Location: entity.GeoPoint{
			Latitude:  cityM.Latitude,
			Longitude: cityM.Longitude,
		},
		Population:  cityM.Population,
		FoundedYear: cityM.FoundedYear,
	}

	if cityM.Landmarks != "" {
		if err := json.Unmarshal([]byte(cityM.Landmarks), &city.Landmarks); err != nil {
			// A broken landmark list degrades one city's popup, nothing more.
			repo.logger.Warn("Failed to decode landmark list",
				slog.Int64("cityID", cityM.ID),
				slog.Any("error", err),
			)
		}
	}

	return city
}

// FromCityDomain maps a domain city onto its persistence model. Used by the
// catalog import command.
func FromCityDomain(city *entity.City) (*model.CityModel, error) {
	cityM := &model.CityModel{
		ID:          city.ID,
		Name:        city.Name,
		Country:     city.Country,
		Latitude:    city.Location.Latitude,
		Longitude:   city.Location.Longitude,
		Population:  city.Population,
		FoundedYear: city.FoundedYear,
	}

	if len(city.Landmarks) > 0 {
		raw, err := json.Marshal(city.Landmarks)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode landmark list")
		}
		cityM.Landmarks = string(raw)
	}

	return cityM, nil
}
