package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidUser    = errors.New("favorites require a signed-in user")
	ErrInvalidProduct = errors.New("product id must be greater than zero")
)

// Favorite marks a product saved by a user.
type Favorite struct {
	UserID    string
	ProductID int64
	CreatedAt time.Time
}

// New validates and builds a favorite.
func New(userID string, productID int64, now time.Time) (Favorite, error) {
	f := Favorite{UserID: strings.TrimSpace(userID), ProductID: productID, CreatedAt: now}
	if err := f.Validate(); err != nil {
		return Favorite{}, err
	}
	return f, nil
}

func (f Favorite) Validate() error {
	if strings.TrimSpace(f.UserID) == "" {
		return ErrInvalidUser
	}
	if f.ProductID <= 0 {
		return ErrInvalidProduct
	}
	return nil
}
