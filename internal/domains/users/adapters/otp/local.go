// Package otp provides phone verification code providers.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aromaline/storefront/internal/domains/users/domain"
	"github.com/aromaline/storefront/internal/domains/users/ports"
)

// Translator renders the SMS body in the user's language.
type Translator interface {
	T(locale, key string, args ...any) string
}

// LocalProvider issues codes itself and keeps only their bcrypt hash.
type LocalProvider struct {
	store      ports.VerificationStore
	sender     ports.SMSSender
	translator Translator
	hashCost   int
	now        func() time.Time
	generate   func() (string, error)
}

type LocalOption func(*LocalProvider)

func WithHashCost(cost int) LocalOption {
	return func(p *LocalProvider) { p.hashCost = cost }
}

func WithClock(now func() time.Time) LocalOption {
	return func(p *LocalProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(generate func() (string, error)) LocalOption {
	return func(p *LocalProvider) {
		if generate != nil {
			p.generate = generate
		}
	}
}

func NewLocalProvider(store ports.VerificationStore, sender ports.SMSSender, translator Translator, opts ...LocalOption) *LocalProvider {
	p := &LocalProvider{
		store:      store,
		sender:     sender,
		translator: translator,
		hashCost:   bcrypt.DefaultCost,
		now:        time.Now,
		generate:   randomCode,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Send issues a fresh code unless the previous one is inside the resend cooldown.
func (p *LocalProvider) Send(ctx context.Context, userID, phone, locale string) error {
	now := p.now().UTC()
	prev, err := p.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := prev.CheckResend(now); err != nil {
		return err
	}
	code, err := p.generate()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), p.hashCost)
	if err != nil {
		return err
	}
	if err := p.store.Save(ctx, domain.NewVerification(userID, phone, string(hash), now)); err != nil {
		return err
	}
	message := "Your verification code is " + code
	if p.translator != nil {
		message = p.translator.T(locale, "sms.otp", "code", code, "minutes", int(domain.CodeTTL.Minutes()))
	}
	return p.sender.Send(ctx, phone, message)
}

// Verify spends one attempt before comparing, so concurrent guesses share the
// attempt budget, and clears the code on success.
func (p *LocalProvider) Verify(ctx context.Context, userID, phone, code string) error {
	v, err := p.store.SpendAttempt(ctx, userID, phone, p.now().UTC())
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(strings.TrimSpace(code))) != nil {
		return domain.ErrCodeMismatch
	}
	return p.store.Delete(ctx, userID)
}

func randomCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", domain.CodeLength, n.Int64()), nil
}

var _ ports.OTPProvider = (*LocalProvider)(nil)
