// Package model contains the GORM-specific structs mapping domain entities
// onto tables.
package model

// CityModel is the GORM-specific struct for the 'cities' table.
type CityModel struct {
	ID          int64   `gorm:"primary_key"`
	Name        string  `gorm:"type:varchar(255);not null;index"`
	Country     string  `gorm:"type:varchar(255);not null;index"`
	Latitude    float64 `gorm:"type:decimal(10,8);not null"`
	Longitude   float64 `gorm:"type:decimal(11,8);not null"`
	Population  int64   `gorm:"not null;default:0"`
	FoundedYear *int
	Landmarks   string `gorm:"type:text"` // JSON-encoded list of landmark names.
}

// TableName explicitly sets the table name for GORM.
func (CityModel) TableName() string {
	return "cities"
}
