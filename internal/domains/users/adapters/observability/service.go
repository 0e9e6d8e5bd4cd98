package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	userdomain "github.com/aromaline/storefront/internal/domains/users/domain"
	userports "github.com/aromaline/storefront/internal/domains/users/ports"
)

const tracerName = "github.com/aromaline/storefront/internal/domains/users/adapters/observability/service"

// Service decorates the user service with tracing, logging, and metrics.
// Emails, passwords, tokens and codes are never recorded.
type Service struct {
	inner   userports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) { s.metrics = newServiceMetrics(m) }
}

// New wraps the core user service.
func New(inner userports.Service, opts ...Option) userports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

func (s *Service) Register(ctx context.Context, cmd userports.RegisterCommand) (*userports.AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Register", trace.WithAttributes(attribute.Bool("user.guest_cart", cmd.GuestToken != "")))
	defer span.End()
	result, err := s.inner.Register(ctx, cmd)
	if err != nil {
		s.metrics.recordAuth(ctx, "register", "failed")
		return nil, s.handleError(ctx, span, err, "registration failed")
	}
	s.metrics.recordAuth(ctx, "register", "ok")
	span.SetAttributes(attribute.String("user.id", result.User.ID))
	s.logInfo(ctx, "user registered", slog.String("user.id", result.User.ID), slog.Int("orders.claimed", result.ClaimedOrders))
	return result, nil
}

func (s *Service) Login(ctx context.Context, email, password, guestToken string) (*userports.AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Login")
	defer span.End()
	result, err := s.inner.Login(ctx, email, password, guestToken)
	if err != nil {
		s.metrics.recordAuth(ctx, "login", "failed")
		return nil, s.handleError(ctx, span, err, "login failed")
	}
	s.metrics.recordAuth(ctx, "login", "ok")
	span.SetAttributes(attribute.String("user.id", result.User.ID))
	return result, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "UserService.Logout")
	defer span.End()
	if err := s.inner.Logout(ctx, token); err != nil {
		return s.handleError(ctx, span, err, "logout failed")
	}
	return nil
}

func (s *Service) Authenticate(ctx context.Context, token string) (*userdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Authenticate")
	defer span.End()
	user, err := s.inner.Authenticate(ctx, token)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID))
	return user, nil
}

func (s *Service) PromoteGuest(ctx context.Context, cmd userports.PromoteCommand) (*userports.AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.PromoteGuest", trace.WithAttributes(attribute.String("order.number", cmd.OrderNumber)))
	defer span.End()
	result, err := s.inner.PromoteGuest(ctx, cmd)
	if err != nil {
		s.metrics.recordAuth(ctx, "promote", "failed")
		return nil, s.handleError(ctx, span, err, "guest promotion failed", slog.String("order.number", cmd.OrderNumber))
	}
	s.metrics.recordAuth(ctx, "promote", "ok")
	s.logInfo(ctx, "guest promoted", slog.String("user.id", result.User.ID), slog.Int("orders.claimed", result.ClaimedOrders))
	return result, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*userdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.GetProfile", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()
	user, err := s.inner.GetProfile(ctx, userID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load profile", slog.String("user.id", userID))
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, update userdomain.ProfileUpdate) (*userdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.UpdateProfile", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()
	user, err := s.inner.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update profile", slog.String("user.id", userID))
	}
	return user, nil
}

func (s *Service) ListAddresses(ctx context.Context, userID string) ([]userdomain.Address, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.ListAddresses", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()
	list, err := s.inner.ListAddresses(ctx, userID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list addresses", slog.String("user.id", userID))
	}
	span.SetAttributes(attribute.Int("addresses.count", len(list)))
	return list, nil
}

func (s *Service) AddAddress(ctx context.Context, userID string, input userdomain.AddressInput) (*userdomain.Address, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.AddAddress", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()
	address, err := s.inner.AddAddress(ctx, userID, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to add address", slog.String("user.id", userID))
	}
	return address, nil
}

func (s *Service) UpdateAddress(ctx context.Context, userID, addressID string, input userdomain.AddressInput) (*userdomain.Address, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.UpdateAddress", trace.WithAttributes(attribute.String("address.id", addressID)))
	defer span.End()
	address, err := s.inner.UpdateAddress(ctx, userID, addressID, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update address", slog.String("address.id", addressID))
	}
	return address, nil
}

func (s *Service) DeleteAddress(ctx context.Context, userID, addressID string) error {
	ctx, span := s.tracer.Start(ctx, "UserService.DeleteAddress", trace.WithAttributes(attribute.String("address.id", addressID)))
	defer span.End()
	if err := s.inner.DeleteAddress(ctx, userID, addressID); err != nil {
		return s.handleError(ctx, span, err, "failed to delete address", slog.String("address.id", addressID))
	}
	return nil
}

func (s *Service) SetDefaultAddress(ctx context.Context, userID, addressID string) (*userdomain.Address, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.SetDefaultAddress", trace.WithAttributes(attribute.String("address.id", addressID)))
	defer span.End()
	address, err := s.inner.SetDefaultAddress(ctx, userID, addressID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to set default address", slog.String("address.id", addressID))
	}
	return address, nil
}

func (s *Service) StartPhoneVerification(ctx context.Context, userID, phone string) error {
	ctx, span := s.tracer.Start(ctx, "UserService.StartPhoneVerification", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()
	if err := s.inner.StartPhoneVerification(ctx, userID, phone); err != nil {
		s.metrics.recordOTP(ctx, "send", "failed")
		return s.handleError(ctx, span, err, "failed to send verification code", slog.String("user.id", userID))
	}
	s.metrics.recordOTP(ctx, "send", "ok")
	return nil
}

func (s *Service) ConfirmPhone(ctx context.Context, userID, phone, code string) (*userdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.ConfirmPhone", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()
	user, err := s.inner.ConfirmPhone(ctx, userID, phone, code)
	if err != nil {
		s.metrics.recordOTP(ctx, "confirm", "failed")
		return nil, s.handleError(ctx, span, err, "phone confirmation failed", slog.String("user.id", userID))
	}
	s.metrics.recordOTP(ctx, "confirm", "ok")
	s.logInfo(ctx, "phone verified", slog.String("user.id", userID))
	return user, nil
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

type serviceMetrics struct {
	auth metric.Int64Counter
	otp  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	auth, _ := m.Int64Counter("users.service.auth", metric.WithDescription("Registrations, logins and promotions by outcome"))
	otp, _ := m.Int64Counter("users.service.otp", metric.WithDescription("Phone verification sends and confirmations by outcome"))
	return serviceMetrics{auth: auth, otp: otp}
}

func (m serviceMetrics) recordAuth(ctx context.Context, op, outcome string) {
	if m.auth != nil {
		m.auth.Add(ctx, 1, metric.WithAttributes(attribute.String("auth.op", op), attribute.String("auth.outcome", outcome)))
	}
}

func (m serviceMetrics) recordOTP(ctx context.Context, op, outcome string) {
	if m.otp != nil {
		m.otp.Add(ctx, 1, metric.WithAttributes(attribute.String("otp.op", op), attribute.String("otp.outcome", outcome)))
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ userports.Service = (*Service)(nil)
