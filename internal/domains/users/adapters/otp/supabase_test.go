package otp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/aromaline/storefront/internal/domains/users/domain"
)

type fakeAuth struct {
	otp       []types.OTPRequest
	otpErr    error
	verify    []types.VerifyForUserRequest
	verifyErr error
}

func (f *fakeAuth) OTP(req types.OTPRequest) error {
	f.otp = append(f.otp, req)
	return f.otpErr
}

func (f *fakeAuth) VerifyForUser(req types.VerifyForUserRequest) (*types.VerifyForUserResponse, error) {
	f.verify = append(f.verify, req)
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &types.VerifyForUserResponse{}, nil
}

func TestSupabaseProvider_SendsNormalizedPhone(t *testing.T) {
	auth := &fakeAuth{}
	p := newSupabaseProvider(auth)

	require.NoError(t, p.Send(context.Background(), "u1", "+33 6 12 34 56 78", "en"))
	require.Len(t, auth.otp, 1)
	assert.Equal(t, "+33612345678", auth.otp[0].Phone)
	assert.True(t, auth.otp[0].CreateUser)

	require.NoError(t, p.Verify(context.Background(), "u1", "+33612345678", "123456"))
	require.Len(t, auth.verify, 1)
	assert.Equal(t, types.VerificationType(types.VerificationTypeSMS), auth.verify[0].Type)
	assert.Equal(t, "123456", auth.verify[0].Token)
}

func TestSupabaseProvider_ClassifiesFailures(t *testing.T) {
	auth := &fakeAuth{verifyErr: errors.New("response status code 403: Token has expired or is invalid")}
	p := newSupabaseProvider(auth)

	err := p.Verify(context.Background(), "u1", "+33612345678", "123456")
	require.ErrorIs(t, err, domain.ErrCodeMismatch)
	assert.NotErrorIs(t, err, domain.ErrCodeExpired)

	auth.verifyErr = errors.New("response status code 403: Invalid OTP")
	require.ErrorIs(t, p.Verify(context.Background(), "u1", "+33612345678", "000000"), domain.ErrCodeMismatch)

	auth.verifyErr = errors.New("response status code 403: OTP has expired")
	require.ErrorIs(t, p.Verify(context.Background(), "u1", "+33612345678", "000000"), domain.ErrCodeExpired)
}

func TestSupabaseProvider_SignupsDisabledRejectsPhone(t *testing.T) {
	auth := &fakeAuth{otpErr: errors.New("response status code 422: Signups not allowed for otp")}
	p := newSupabaseProvider(auth)

	err := p.Send(context.Background(), "u1", "+33612345678", "fr")
	require.ErrorIs(t, err, domain.ErrPhoneRejected)

	auth.otpErr = errors.New("response status code 500: upstream sms gateway")
	err = p.Send(context.Background(), "u1", "+33612345678", "fr")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrPhoneRejected)
}
