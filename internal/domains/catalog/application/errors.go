package application

import (
	"errors"
	"fmt"

	"github.com/aromaline/storefront/internal/domains/catalog/domain"
	"github.com/aromaline/storefront/internal/domains/catalog/ports"
)

var (
	// ErrInvalidInput signals the request violated a catalog invariant.
	ErrInvalidInput = errors.New("invalid catalog input")
	// ErrConflict signals the request clashes with existing state.
	ErrConflict = errors.New("catalog conflict")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrInvalidSort),
		errors.Is(err, domain.ErrInvalidPriceRange),
		errors.Is(err, domain.ErrInvalidSlug),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidBrand),
		errors.Is(err, domain.ErrInvalidGender),
		errors.Is(err, domain.ErrInvalidConcentration),
		errors.Is(err, domain.ErrInvalidFamily),
		errors.Is(err, domain.ErrNoVariants),
		errors.Is(err, domain.ErrInvalidVariant),
		errors.Is(err, domain.ErrDuplicateSKU),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrCommentTooLong),
		errors.Is(err, domain.ErrInvalidReviewer):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, ports.ErrReviewExists), errors.Is(err, ports.ErrSlugTaken):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
