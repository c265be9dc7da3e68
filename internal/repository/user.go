package repository

import (
	"context"

	"github.com/ErlanBelekov/recipe-pantry/internal/domain"
)

// UserRepository is the user-lookup collaborator of the login flow.
// Lookups that find nothing return domain.ErrUserNotFound.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Create returns domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, email, firstName, lastName string) (*domain.User, error)
	DeleteByEmail(ctx context.Context, email string) error
}
