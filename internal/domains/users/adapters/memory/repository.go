package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/aromaline/storefront/internal/domains/users/domain"
	"github.com/aromaline/storefront/internal/domains/users/ports"
)

var (
	_ ports.Repository        = (*Repository)(nil)
	_ ports.AddressRepository = (*Repository)(nil)
)

// Repository keeps users and their address books in memory.
type Repository struct {
	mu        sync.RWMutex
	users     map[string]*domain.User
	byEmail   map[string]string
	addresses map[string][]domain.Address
}

func NewRepository() *Repository {
	return &Repository{
		users:     map[string]*domain.User{},
		byEmail:   map[string]string{},
		addresses: map[string][]domain.Address{},
	}
}

func (r *Repository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	email := domain.NormalizeEmail(user.Email)
	if _, ok := r.byEmail[email]; ok {
		return nil, ports.ErrEmailTaken
	}
	clone := user.Clone()
	r.users[clone.ID] = clone
	r.byEmail[email] = clone.ID
	return clone.Clone(), nil
}

func (r *Repository) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.users[user.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := user.Clone()
	clone.Email = prev.Email
	clone.CreatedAt = prev.CreatedAt
	r.users[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[id]; ok {
		return u.Clone(), nil
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byEmail[domain.NormalizeEmail(email)]; ok {
		return r.users[id].Clone(), nil
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) ListAddresses(_ context.Context, userID string) ([]domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Address(nil), r.addresses[userID]...), nil
}

func (r *Repository) UpdateAddresses(_ context.Context, userID string, fn func(*domain.AddressBook) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return ports.ErrNotFound
	}
	book := domain.NewAddressBook(userID, r.addresses[userID])
	if err := fn(book); err != nil {
		return err
	}
	r.addresses[userID] = book.Addresses()
	return nil
}
