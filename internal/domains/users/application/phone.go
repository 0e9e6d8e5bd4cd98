package application

import (
	"context"
	"errors"

	"github.com/aromaline/storefront/internal/domains/users/domain"
)

var errNoOTPProvider = errors.New("phone verification not configured")

// StartPhoneVerification sends a code to phone in the user's locale.
func (s *Service) StartPhoneVerification(ctx context.Context, userID, phone string) error {
	if s.otp == nil {
		return errNoOTPProvider
	}
	phone = domain.NormalizePhone(phone)
	if !domain.ValidPhone(phone) {
		return mapError(domain.ErrInvalidPhone)
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.otp.Send(ctx, user.ID, phone, user.Locale); err != nil {
		return mapError(MapProviderError(err))
	}
	return nil
}

// ConfirmPhone checks code and marks phone as the user's verified number.
func (s *Service) ConfirmPhone(ctx context.Context, userID, phone, code string) (*domain.User, error) {
	if s.otp == nil {
		return nil, errNoOTPProvider
	}
	phone = domain.NormalizePhone(phone)
	if !domain.ValidPhone(phone) {
		return nil, mapError(domain.ErrInvalidPhone)
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.otp.Verify(ctx, user.ID, phone, code); err != nil {
		return nil, mapError(MapProviderError(err))
	}
	user.MarkPhoneVerified(phone, s.now().UTC())
	return s.repo.Update(ctx, user)
}
