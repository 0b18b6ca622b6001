// Package users is the credential store: persisted accounts and their
// current session marker.
package users

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, userName string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsernameOrEmail(ctx context.Context, login string) (*models.User, error)

	// SetSession overwrites the stored session marker. An empty marker clears it.
	SetSession(ctx context.Context, id int64, marker string) error
	// FindBySession returns the user only if marker is its current session marker.
	FindBySession(ctx context.Context, id int64, marker string) (*models.User, error)
}
