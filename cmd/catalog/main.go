// Command catalog imports a city catalog JSON file into Postgres and
// prepares the schema the service reads from.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"wander/config"
	"wander/internal/domain/entity"
	"wander/internal/infra/persistence/model"
	"wander/internal/infra/persistence/postgres"

	"github.com/pkg/errors"
	pgLib "github.com/slighter12/go-lib/database/postgres"
	"gorm.io/gorm"
)

const importBatchSize = 500

// catalogCity is the JSON shape of one catalog entry.
type catalogCity struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Country     string   `json:"country"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Population  int64    `json:"population"`
	FoundedYear *int     `json:"founded_year,omitempty"`
	Landmarks   []string `json:"landmarks,omitempty"`
}

func main() {
	input := flag.String("input", "./data/cities.json", "Path to the city catalog JSON file")
	migrate := flag.Bool("migrate", true, "Run schema migration before importing")
	flag.Parse()

	if err := run(*input, *migrate); err != nil {
		fmt.Fprintf(os.Stderr, "catalog import failed: %+v\n", err)
		os.Exit(1)
	}
}

func run(input string, migrate bool) error {
	cfg, err := config.New()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	db, err := pgLib.New(cfg.Postgres)
	if err != nil {
		return errors.Wrap(err, "failed to connect to PostgreSQL")
	}

	if migrate {
		if err := db.AutoMigrate(&model.CityModel{}, &model.ProfileModel{}); err != nil {
			return errors.Wrap(err, "failed to migrate schema")
		}
	}

	cities, err := loadCatalog(input)
	if err != nil {
		return err
	}

	models := make([]*model.CityModel, 0, len(cities))
	skipped := 0
	for _, raw := range cities {
		city := &entity.City{
			ID:      raw.ID,
			Name:    raw.Name,
			Country: raw.Country,
			Location: entity.GeoPoint{
				Latitude:  raw.Latitude,
				Longitude: raw.Longitude,
			},
			Population:  raw.Population,
			FoundedYear: raw.FoundedYear,
			Landmarks:   raw.Landmarks,
		}
		if !city.Location.Valid() {
			fmt.Fprintf(os.Stderr, "skipping city %d (%s): invalid coordinates\n", raw.ID, raw.Name)
			skipped++

			continue
		}

		m, err := postgres.FromCityDomain(city)
		if err != nil {
			return errors.Wrapf(err, "failed to convert city %d", raw.ID)
		}
		models = append(models, m)
	}

	if len(models) > 0 {
		if err := db.Session(&gorm.Session{CreateBatchSize: importBatchSize}).Save(models).Error; err != nil {
			return errors.Wrap(err, "failed to import cities")
		}
	}

	fmt.Printf("imported %d cities (%d skipped)\n", len(models), skipped)

	return nil
}

func loadCatalog(path string) ([]catalogCity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	var cities []catalogCity
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	return cities, nil
}
