// Package users stores accounts keyed by normalized email. Uniqueness is
// enforced by each backend at write time; a duplicate registration fails
// with common.ErrAlreadyExists.
package users

import (
	"context"

	"github.com/dmitrijs2005/photogallery/internal/server/models"
)

type Repository interface {
	// Register stores u. u.Email is normalized before it is written.
	Register(ctx context.Context, u *models.User) error
	// FindByEmail returns nil, nil when no account exists.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}
