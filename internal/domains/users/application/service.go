package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aromaline/storefront/internal/domains/users/domain"
	"github.com/aromaline/storefront/internal/domains/users/ports"
)

const (
	// registerAttempts is how many times persistence is tried at registration.
	registerAttempts = 2
	// defaultRetryDelay is the base of the linear registration backoff.
	defaultRetryDelay = 500 * time.Millisecond
)

// Service exposes user bounded context use cases.
type Service struct {
	repo        ports.Repository
	sessions    ports.SessionStore
	addresses   ports.AddressRepository
	otp         ports.OTPProvider
	carts       ports.Carts
	guestOrders ports.GuestOrders
	sessionTTL  time.Duration
	retryDelay  time.Duration
	bcryptCost  int
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
	logger      *slog.Logger
}

type Option func(*Service)

func WithAddressRepository(repo ports.AddressRepository) Option {
	return func(s *Service) { s.addresses = repo }
}

func WithOTPProvider(provider ports.OTPProvider) Option {
	return func(s *Service) { s.otp = provider }
}

func WithCarts(carts ports.Carts) Option {
	return func(s *Service) { s.carts = carts }
}

func WithGuestOrders(orders ports.GuestOrders) Option {
	return func(s *Service) { s.guestOrders = orders }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithRetryDelay sets the base delay; attempt n waits n times this.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Service) { s.retryDelay = d }
}

// WithBcryptCost lowers the hashing cost, mainly for tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithSleeper replaces the backoff wait.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger reports sign-up follow-up failures that do not fail the request.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(repo ports.Repository, sessions ports.SessionStore, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		sessions:   sessions,
		sessionTTL: domain.DefaultSessionTTL,
		retryDelay: defaultRetryDelay,
		sleep:      sleepContext,
		now:        time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Register creates the account, signs it in, and adopts the guest's cart and orders.
func (s *Service) Register(ctx context.Context, cmd ports.RegisterCommand) (*ports.AuthResult, error) {
	user, err := s.createUser(ctx, cmd.Email, cmd.Password, cmd.Profile)
	if err != nil {
		return nil, err
	}
	return s.signIn(ctx, user, cmd.GuestToken, true)
}

func (s *Service) createUser(ctx context.Context, email, password string, profile domain.Profile) (*domain.User, error) {
	if err := domain.ValidatePassword(password); err != nil {
		return nil, mapError(err)
	}
	hash, err := domain.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user, err := domain.NewUser(email, hash, profile, s.now().UTC())
	if err != nil {
		return nil, mapError(err)
	}

	var lastErr error
	for attempt := 1; attempt <= registerAttempts; attempt++ {
		created, err := s.repo.Create(ctx, user)
		if err == nil {
			return created, nil
		}
		lastErr = mapError(MapProviderError(err))
		if permanent(lastErr) || attempt == registerAttempts {
			break
		}
		s.logger.LogAttrs(ctx, slog.LevelWarn, "registration attempt failed, retrying",
			slog.Int("attempt", attempt), slog.String("error", err.Error()))
		if err := s.sleep(ctx, time.Duration(attempt)*s.retryDelay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// Login checks credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password, guestToken string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrAuthentication
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrAuthentication
	}
	if err != nil {
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrAuthentication
	}
	return s.signIn(ctx, user, guestToken, false)
}

func (s *Service) signIn(ctx context.Context, user *domain.User, guestToken string, claim bool) (*ports.AuthResult, error) {
	session := domain.NewSession(user.ID, s.sessionTTL, s.now().UTC())
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	result := &ports.AuthResult{User: user, Session: session}
	if guestToken = strings.TrimSpace(guestToken); guestToken != "" && s.carts != nil {
		if err := s.carts.MergeGuestCart(ctx, guestToken, user.ID); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to merge guest cart",
				slog.String("user.id", user.ID), slog.String("error", err.Error()))
		}
	}
	if claim && s.guestOrders != nil {
		n, err := s.guestOrders.Claim(ctx, user.ID, user.Email)
		if err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to claim guest orders",
				slog.String("user.id", user.ID), slog.String("error", err.Error()))
		}
		result.ClaimedOrders = n
	}
	return result, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	err := s.sessions.Delete(ctx, token)
	if errors.Is(err, ports.ErrSessionNotFound) {
		return nil
	}
	return err
}

// Authenticate resolves a bearer token. Expired sessions are removed.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrAuthentication
	}
	session, err := s.sessions.Get(ctx, token)
	if errors.Is(err, ports.ErrSessionNotFound) {
		return nil, ErrAuthentication
	}
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now().UTC()) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrAuthentication
	}
	user, err := s.repo.GetByID(ctx, session.UserID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrAuthentication
	}
	return user, err
}

// PromoteGuest registers the email used on a guest order and claims its orders.
func (s *Service) PromoteGuest(ctx context.Context, cmd ports.PromoteCommand) (*ports.AuthResult, error) {
	if s.guestOrders == nil {
		return nil, ports.ErrNotFound
	}
	ok, err := s.guestOrders.Exists(ctx, cmd.OrderNumber, cmd.Email)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ports.ErrNotFound
	}
	return s.Register(ctx, ports.RegisterCommand{
		Email:      cmd.Email,
		Password:   cmd.Password,
		Profile:    cmd.Profile,
		GuestToken: cmd.GuestToken,
	})
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.ApplyProfile(update, s.now().UTC()); err != nil {
		return nil, mapError(err)
	}
	return s.repo.Update(ctx, user)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ ports.Service = (*Service)(nil)
