package repository

import (
	"context"

	"movietrack/internal/model"
)

// UserRepository is the credential store. Implementations return
// model.ErrUserNotFound on a miss and model.ErrEmailExists when the unique
// email index rejects an insert.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// UpdateLists overwrites the three list fields of user.ID with the
	// values in user. There is no version check: concurrent writers race
	// and the last write wins.
	UpdateLists(ctx context.Context, user *model.User) error
	UpdateAvatar(ctx context.Context, id string, avatarURL string) error
}
