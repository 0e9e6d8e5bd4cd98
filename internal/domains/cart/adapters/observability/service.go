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

	cartdomain "github.com/aromaline/storefront/internal/domains/cart/domain"
	cartports "github.com/aromaline/storefront/internal/domains/cart/ports"
)

const tracerName = "github.com/aromaline/storefront/internal/domains/cart/adapters/observability/service"

// Service decorates the cart service with tracing, logging, and metrics.
type Service struct {
	inner   cartports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

func New(inner cartports.Service, opts ...Option) cartports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
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
	return s
}

func (s *Service) GetCart(ctx context.Context, owner cartdomain.Owner, locale string) (*cartdomain.View, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.GetCart", trace.WithAttributes(ownerAttrs(owner)...))
	defer span.End()

	view, err := s.inner.GetCart(ctx, owner, locale)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load cart", slog.Bool("cart.guest", owner.IsGuest()))
	}
	span.SetAttributes(attribute.Int("cart.lines", len(view.Lines)))
	return view, nil
}

func (s *Service) AddItem(ctx context.Context, owner cartdomain.Owner, variantID int64, quantity int, locale string) (*cartdomain.View, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.AddItem", trace.WithAttributes(append(ownerAttrs(owner),
		attribute.Int64("variant.id", variantID),
		attribute.Int("quantity", quantity),
	)...))
	defer span.End()

	view, err := s.inner.AddItem(ctx, owner, variantID, quantity, locale)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to add cart item", slog.Int64("variant.id", variantID), slog.Int("quantity", quantity))
	}
	s.metrics.recordMutation(ctx, "add", owner.IsGuest())
	s.logDebug(ctx, "cart item added", slog.Int64("variant.id", variantID), slog.Int("cart.items", view.ItemCount))
	return view, nil
}

func (s *Service) UpdateItem(ctx context.Context, owner cartdomain.Owner, variantID int64, quantity int, locale string) (*cartdomain.View, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.UpdateItem", trace.WithAttributes(append(ownerAttrs(owner),
		attribute.Int64("variant.id", variantID),
		attribute.Int("quantity", quantity),
	)...))
	defer span.End()

	view, err := s.inner.UpdateItem(ctx, owner, variantID, quantity, locale)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update cart item", slog.Int64("variant.id", variantID), slog.Int("quantity", quantity))
	}
	s.metrics.recordMutation(ctx, "update", owner.IsGuest())
	return view, nil
}

func (s *Service) RemoveItem(ctx context.Context, owner cartdomain.Owner, variantID int64, locale string) (*cartdomain.View, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.RemoveItem", trace.WithAttributes(append(ownerAttrs(owner),
		attribute.Int64("variant.id", variantID),
	)...))
	defer span.End()

	view, err := s.inner.RemoveItem(ctx, owner, variantID, locale)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to remove cart item", slog.Int64("variant.id", variantID))
	}
	s.metrics.recordMutation(ctx, "remove", owner.IsGuest())
	return view, nil
}

func (s *Service) Clear(ctx context.Context, owner cartdomain.Owner) error {
	ctx, span := s.tracer.Start(ctx, "CartService.Clear", trace.WithAttributes(ownerAttrs(owner)...))
	defer span.End()

	if err := s.inner.Clear(ctx, owner); err != nil {
		return s.handleError(ctx, span, err, "failed to clear cart")
	}
	s.metrics.recordMutation(ctx, "clear", owner.IsGuest())
	return nil
}

func (s *Service) MergeGuestCart(ctx context.Context, guestToken, userID string) error {
	ctx, span := s.tracer.Start(ctx, "CartService.MergeGuestCart")
	defer span.End()

	if err := s.inner.MergeGuestCart(ctx, guestToken, userID); err != nil {
		return s.handleError(ctx, span, err, "failed to merge guest cart", slog.String("user.id", userID))
	}
	s.logInfo(ctx, "guest cart merged", slog.String("user.id", userID))
	s.metrics.recordMutation(ctx, "merge", false)
	return nil
}

// Guest tokens are bearer credentials and never leave the process.
func ownerAttrs(owner cartdomain.Owner) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.Bool("cart.guest", owner.IsGuest())}
	if !owner.IsGuest() && owner.UserID != "" {
		attrs = append(attrs, attribute.String("user.id", owner.UserID))
	}
	return attrs
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logDebug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
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

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	mutations metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	mutations, _ := m.Int64Counter("cart.service.mutations", metric.WithDescription("Number of successful cart changes"))
	return serviceMetrics{mutations: mutations}
}

func (m serviceMetrics) recordMutation(ctx context.Context, op string, guest bool) {
	if m.mutations != nil {
		m.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("cart.op", op), attribute.Bool("cart.guest", guest)))
	}
}

var _ cartports.Service = (*Service)(nil)
