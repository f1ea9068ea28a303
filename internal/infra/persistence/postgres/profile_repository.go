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

// profileRepository implements the repository.ProfileRepository interface.
type profileRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewProfileRepository is the constructor for profileRepository.
func NewProfileRepository(db *gorm.DB, logger *slog.Logger) repository.ProfileRepository {
	return &profileRepository{
		db:     db,
		logger: logger,
	}
}

// FindProfilesByUserIDs batch-loads profile attributes. Ids without a
// profile row are simply absent from the result.
func (repo *profileRepository) FindProfilesByUserIDs(ctx context.Context, userIDs []string) (map[string]*entity.ProfileAttributes, error) {
	if len(userIDs) == 0 {
		return map[string]*entity.ProfileAttributes{}, nil
	}

	var profileModels []*model.ProfileModel
	if err := repo.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&profileModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find profiles by user IDs")
	}

	profiles := make(map[string]*entity.ProfileAttributes, len(profileModels))
	for _, profileM := range profileModels {
		profiles[profileM.UserID] = repo.toProfileDomain(profileM)
	}

	return profiles, nil
}

func (repo *profileRepository) toProfileDomain(profileM *model.ProfileModel) *entity.ProfileAttributes {
	profile := &entity.ProfileAttributes{
		UserID:    profileM.UserID,
		Gender:    profileM.Gender,
		Age:       profileM.Age,
		AvatarURL: profileM.AvatarURL,
	}

	profile.Languages = repo.decodeTags(profileM.UserID, "languages", profileM.Languages)
	profile.Cuisines = repo.decodeTags(profileM.UserID, "cuisines", profileM.Cuisines)

	if profileM.HomeLatitude != nil && profileM.HomeLongitude != nil {
		profile.Home = &entity.GeoPoint{
			Latitude:  *profileM.HomeLatitude,
			Longitude: *profileM.HomeLongitude,
		}
	}

	return profile
}

func (repo *profileRepository) decodeTags(userID, column, raw string) []string {
	if raw == "" {
		return nil
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		repo.logger.Warn("Failed to decode profile tag list",
			slog.String("userID", userID),
			slog.String("column", column),
			slog.Any("error", err),
		)

		return nil
	}

	return tags
}
