package otp

import (
	"context"
	"errors"
	"strings"

	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"

	"github.com/aromaline/storefront/internal/domains/users/domain"
	"github.com/aromaline/storefront/internal/domains/users/ports"
)

// authClient is the part of the hosted auth client used for phone OTP.
type authClient interface {
	OTP(req types.OTPRequest) error
	VerifyForUser(req types.VerifyForUserRequest) (*types.VerifyForUserResponse, error)
}

// SupabaseProvider delegates phone codes to Supabase Auth. The hosted service
// owns expiry, cooldown and attempt limits.
type SupabaseProvider struct {
	auth authClient
}

// NewSupabaseProvider dials the hosted project at url with an API key.
func NewSupabaseProvider(url, key string) (*SupabaseProvider, error) {
	if url == "" || key == "" {
		return nil, errors.New("supabase url and key are required")
	}
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, err
	}
	return &SupabaseProvider{auth: client.Auth}, nil
}

func newSupabaseProvider(auth authClient) *SupabaseProvider {
	return &SupabaseProvider{auth: auth}
}

func (p *SupabaseProvider) Send(ctx context.Context, _, phone, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.auth.OTP(types.OTPRequest{Phone: domain.NormalizePhone(phone), CreateUser: true})
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "signups not allowed") {
		return errors.Join(domain.ErrPhoneRejected, err)
	}
	return err
}

func (p *SupabaseProvider) Verify(ctx context.Context, _, phone, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.auth.VerifyForUser(types.VerifyForUserRequest{
		Type:  types.VerificationTypeSMS,
		Token: code,
		Phone: domain.NormalizePhone(phone),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// classify turns hosted verification failures into domain errors.
// Supabase answers a wrong code with "Token has expired or is invalid".
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "expired or is invalid"):
		return errors.Join(domain.ErrCodeMismatch, err)
	case strings.Contains(msg, "expired"):
		return errors.Join(domain.ErrCodeExpired, err)
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many"):
		return err
	case strings.Contains(msg, "invalid"), strings.Contains(msg, "otp"):
		return errors.Join(domain.ErrCodeMismatch, err)
	}
	return err
}

var _ ports.OTPProvider = (*SupabaseProvider)(nil)
