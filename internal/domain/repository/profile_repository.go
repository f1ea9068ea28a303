package repository

import (
	"context"

	"wander/internal/domain/entity"
)

// ProfileRepository provides batch access to user profile attributes. The
// result map may be partial: an id with no profile record is simply absent,
// which the enricher treats as "no attributes known", not an error.
type ProfileRepository interface {
	FindProfilesByUserIDs(ctx context.Context, userIDs []string) (map[string]*entity.ProfileAttributes, error)
}
