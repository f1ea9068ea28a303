package main

import (
	"wander/internal/infra/persistence/model"

	"gorm.io/gen"
)

func main() {
	models := []any{
		model.CityModel{},
		model.ProfileModel{},
	}

	gen := gen.NewGenerator(gen.Config{
		OutPath: "./internal/infra/persistence/postgres/query",
	})

	gen.ApplyBasic(models...)

	gen.Execute()
}
