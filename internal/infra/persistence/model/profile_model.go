package model

import "time"

// ProfileModel is the GORM-specific struct for the 'profiles' table. All
// attribute columns are nullable: a sparse profile is a valid profile.
type ProfileModel struct {
	UserID        string   `gorm:"type:varchar(64);primary_key"`
	Gender        *string  `gorm:"type:varchar(32)"`
	Languages     string   `gorm:"type:text"` // JSON-encoded set of language names.
	Cuisines      string   `gorm:"type:text"` // JSON-encoded set of cuisine names.
	HomeLatitude  *float64 `gorm:"type:decimal(10,8)"`
	HomeLongitude *float64 `gorm:"type:decimal(11,8)"`
	Age           *int
	AvatarURL     *string  `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName explicitly sets the table name for GORM.
func (ProfileModel) TableName() string {
	return "profiles"
}
