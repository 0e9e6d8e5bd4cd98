package ports

import (
	"context"
	"errors"

	"github.com/aromaline/storefront/internal/domains/users/domain"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Repository persists users.
type Repository interface {
	// Create inserts a new user. A duplicate email returns ErrEmailTaken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// AddressRepository stores address books.
type AddressRepository interface {
	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)
	// UpdateAddresses runs fn against the user's book and persists the result
	// atomically. Nothing is written when fn fails.
	UpdateAddresses(ctx context.Context, userID string, fn func(book *domain.AddressBook) error) error
}
