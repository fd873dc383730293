package port

import (
	"context"
	"errors"

	"github.com/rl1809/storefront/internal/core/domain"
)

var ErrDuplicateEmail = errors.New("email already registered")

type UserRepository interface {
	// CreateUser inserts the user and returns its new ID; ErrDuplicateEmail if the email is taken
	CreateUser(ctx context.Context, user domain.User) (int64, error)

	// FindUserByEmail returns the user, or nil if no account uses that email
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindRoleByName returns the role, or nil if it is not defined
	FindRoleByName(ctx context.Context, name string) (*domain.Role, error)
}
