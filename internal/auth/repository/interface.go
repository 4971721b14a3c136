package repository

import (
	"context"

	"github.com/google/uuid"
)

// UserStore defines the user data operations the auth service depends on.
type UserStore interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// UserReader is the read-only subset other domains' adapters need.
type UserReader interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (User, error)
}

// Ensure Repository implements UserStore
var _ UserStore = (*Repository)(nil)
