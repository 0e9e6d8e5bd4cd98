package ports

import (
	"context"

	"github.com/aromaline/storefront/internal/domains/users/domain"
)

// RegisterCommand creates an account. GuestToken names the cart to merge.
type RegisterCommand struct {
	Email      string
	Password   string
	Profile    domain.Profile
	GuestToken string
}

// PromoteCommand turns a guest checkout into an account.
type PromoteCommand struct {
	OrderNumber string
	Email       string
	Password    string
	Profile     domain.Profile
	GuestToken  string
}

// AuthResult is a signed-in user with their new session.
type AuthResult struct {
	User    *domain.User
	Session domain.Session
	// ClaimedOrders counts guest orders attached during sign-up.
	ClaimedOrders int
}

// Service exposes account use cases to adapters.
type Service interface {
	Register(ctx context.Context, cmd RegisterCommand) (*AuthResult, error)
	Login(ctx context.Context, email, password, guestToken string) (*AuthResult, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	PromoteGuest(ctx context.Context, cmd PromoteCommand) (*AuthResult, error)

	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error)

	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)
	AddAddress(ctx context.Context, userID string, input domain.AddressInput) (*domain.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID string, input domain.AddressInput) (*domain.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error
	SetDefaultAddress(ctx context.Context, userID, addressID string) (*domain.Address, error)

	StartPhoneVerification(ctx context.Context, userID, phone string) error
	ConfirmPhone(ctx context.Context, userID, phone, code string) (*domain.User, error)
}
