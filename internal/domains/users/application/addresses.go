package application

import (
	"context"
	"errors"

	"github.com/aromaline/storefront/internal/domains/users/domain"
)

var errNoAddressBook = errors.New("address book not configured")

func (s *Service) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	if s.addresses == nil {
		return nil, errNoAddressBook
	}
	list, err := s.addresses.ListAddresses(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.NewAddressBook(userID, list).Addresses(), nil
}

func (s *Service) AddAddress(ctx context.Context, userID string, input domain.AddressInput) (*domain.Address, error) {
	return s.editBook(ctx, userID, func(book *domain.AddressBook) (domain.Address, error) {
		return book.Add(input, s.now().UTC())
	})
}

func (s *Service) UpdateAddress(ctx context.Context, userID, addressID string, input domain.AddressInput) (*domain.Address, error) {
	return s.editBook(ctx, userID, func(book *domain.AddressBook) (domain.Address, error) {
		return book.Update(addressID, input, s.now().UTC())
	})
}

// DeleteAddress removes an address; a deleted default hands over to the newest remaining one.
func (s *Service) DeleteAddress(ctx context.Context, userID, addressID string) error {
	_, err := s.editBook(ctx, userID, func(book *domain.AddressBook) (domain.Address, error) {
		return domain.Address{}, book.Remove(addressID, s.now().UTC())
	})
	return err
}

func (s *Service) SetDefaultAddress(ctx context.Context, userID, addressID string) (*domain.Address, error) {
	return s.editBook(ctx, userID, func(book *domain.AddressBook) (domain.Address, error) {
		return book.SetDefault(addressID, s.now().UTC())
	})
}

func (s *Service) editBook(ctx context.Context, userID string, edit func(*domain.AddressBook) (domain.Address, error)) (*domain.Address, error) {
	if s.addresses == nil {
		return nil, errNoAddressBook
	}
	var result domain.Address
	err := s.addresses.UpdateAddresses(ctx, userID, func(book *domain.AddressBook) error {
		var err error
		result, err = edit(book)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &result, nil
}
