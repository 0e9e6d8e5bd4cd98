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

	ordersdomain "github.com/aromaline/storefront/internal/domains/orders/domain"
	ordersports "github.com/aromaline/storefront/internal/domains/orders/ports"
	"github.com/aromaline/storefront/internal/shared/projection"
)

const tracerName = "github.com/aromaline/storefront/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ordersports.Service
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

// New wraps the core orders service.
func New(inner ordersports.Service, opts ...Option) ordersports.Service {
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

func (s *Service) Checkout(ctx context.Context, cmd ordersports.CheckoutCommand) (*ordersports.CheckoutResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.Checkout", trace.WithAttributes(checkoutAttrs(cmd)...))
	defer span.End()

	result, err := s.inner.Checkout(ctx, cmd)
	if err != nil {
		s.metrics.recordCheckout(ctx, "failed")
		return nil, s.handleError(ctx, span, err, "checkout failed", slog.Int("items", len(cmd.Request.Items)))
	}
	s.recordResult(ctx, span, result)
	return result, nil
}

func (s *Service) PlaceOrder(ctx context.Context, cmd ordersports.CheckoutCommand) (*ordersports.CheckoutResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.PlaceOrder", trace.WithAttributes(checkoutAttrs(cmd)...))
	defer span.End()

	result, err := s.inner.PlaceOrder(ctx, cmd)
	if err != nil {
		s.metrics.recordCheckout(ctx, "failed")
		return nil, s.handleError(ctx, span, err, "failed to place order", slog.Int("items", len(cmd.Request.Items)))
	}
	s.recordResult(ctx, span, result)
	return result, nil
}

func (s *Service) recordResult(ctx context.Context, span trace.Span, result *ordersports.CheckoutResult) {
	outcome := "placed"
	if result.Replayed {
		outcome = "replayed"
	}
	s.metrics.recordCheckout(ctx, outcome)
	span.SetAttributes(attribute.String("order.number", result.Order.Number), attribute.Bool("order.replayed", result.Replayed))
	s.logInfo(ctx, "order "+outcome,
		slog.String("order.number", result.Order.Number),
		slog.String("order.total", result.Order.Total.StringFixed(2)),
		slog.Bool("order.guest", result.Order.IsGuest()))
}

func (s *Service) ClearCart(ctx context.Context, userID, guestToken string) error {
	ctx, span := s.tracer.Start(ctx, "OrdersService.ClearCart")
	defer span.End()

	if err := s.inner.ClearCart(ctx, userID, guestToken); err != nil {
		return s.handleError(ctx, span, err, "failed to clear cart")
	}
	return nil
}

func (s *Service) PublishPlaced(ctx context.Context, orderID string) error {
	ctx, span := s.tracer.Start(ctx, "OrdersService.PublishPlaced", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	if err := s.inner.PublishPlaced(ctx, orderID); err != nil {
		return s.handleError(ctx, span, err, "failed to publish order placed", slog.String("order.id", orderID))
	}
	return nil
}

func (s *Service) ListOrders(ctx context.Context, userID string, page, pageSize int) (projection.Page[*ordersdomain.Order], error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.ListOrders", trace.WithAttributes(attribute.String("user.id", userID), attribute.Int("page", page)))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, userID, page, pageSize)
	if err != nil {
		return result, s.handleError(ctx, span, err, "failed to list orders", slog.String("user.id", userID))
	}
	span.SetAttributes(attribute.Int("orders.total", result.Total))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, userID, number string) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.GetOrder", trace.WithAttributes(attribute.String("order.number", number)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, userID, number)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.number", number))
	}
	return result, nil
}

func (s *Service) LookupGuestOrder(ctx context.Context, number, email string) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.LookupGuestOrder", trace.WithAttributes(attribute.String("order.number", number)))
	defer span.End()

	result, err := s.inner.LookupGuestOrder(ctx, number, email)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "guest order lookup failed", slog.String("order.number", number))
	}
	return result, nil
}

func (s *Service) CancelOrder(ctx context.Context, userID, number string) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.CancelOrder", trace.WithAttributes(attribute.String("order.number", number)))
	defer span.End()

	s.logInfo(ctx, "cancelling order", slog.String("order.number", number))
	result, err := s.inner.CancelOrder(ctx, userID, number)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to cancel order", slog.String("order.number", number))
	}
	s.metrics.recordCancelled(ctx)
	s.logInfo(ctx, "order cancelled", slog.String("order.number", result.Number))
	return result, nil
}

func (s *Service) ClaimGuestOrders(ctx context.Context, userID, email string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.ClaimGuestOrders", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	n, err := s.inner.ClaimGuestOrders(ctx, userID, email)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to claim guest orders", slog.String("user.id", userID))
	}
	if n > 0 {
		s.logInfo(ctx, "guest orders claimed", slog.String("user.id", userID), slog.Int("orders", n))
	}
	return n, nil
}

func checkoutAttrs(cmd ordersports.CheckoutCommand) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("checkout.items", len(cmd.Request.Items)),
		attribute.Bool("checkout.guest", cmd.UserID == ""),
		attribute.Bool("checkout.idempotent", cmd.IdempotencyKey != ""),
		attribute.String("checkout.payment_method", string(cmd.Request.PaymentMethod)),
	}
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

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	checkouts metric.Int64Counter
	cancelled metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	checkouts, _ := m.Int64Counter("orders.service.checkouts", metric.WithDescription("Checkout attempts by outcome"))
	cancelled, _ := m.Int64Counter("orders.service.orders_cancelled", metric.WithDescription("Number of orders cancelled"))
	return serviceMetrics{checkouts: checkouts, cancelled: cancelled}
}

func (m serviceMetrics) recordCheckout(ctx context.Context, outcome string) {
	if m.checkouts != nil {
		m.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("checkout.outcome", outcome)))
	}
}

func (m serviceMetrics) recordCancelled(ctx context.Context) {
	if m.cancelled != nil {
		m.cancelled.Add(ctx, 1)
	}
}

var _ ordersports.Service = (*Service)(nil)
