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

	catalogdomain "github.com/aromaline/storefront/internal/domains/catalog/domain"
	catalogports "github.com/aromaline/storefront/internal/domains/catalog/ports"
	"github.com/aromaline/storefront/internal/shared/projection"
)

const tracerName = "github.com/aromaline/storefront/internal/domains/catalog/adapters/observability/service"

// Service decorates the catalog service with tracing, logging, and metrics.
type Service struct {
	inner   catalogports.Service
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

// New wraps the core catalog service.
func New(inner catalogports.Service, opts ...Option) catalogports.Service {
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

func (s *Service) FilterProducts(ctx context.Context, filter catalogdomain.Filter) (projection.Page[*catalogdomain.Product], error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.FilterProducts", trace.WithAttributes(
		attribute.String("filter.sort", string(filter.Sort)),
		attribute.Int("filter.page", filter.Page),
		attribute.Bool("filter.query", filter.Query != ""),
	))
	defer span.End()

	result, err := s.inner.FilterProducts(ctx, filter)
	if err != nil {
		return result, s.handleError(ctx, span, err, "failed to filter products", slog.String("sort", string(filter.Sort)))
	}
	span.SetAttributes(attribute.Int("filter.total", result.Total))
	s.metrics.recordSearch(ctx, string(filter.Sort), result.Total == 0)
	s.logDebug(ctx, "products filtered", slog.Int("total", result.Total), slog.Int("page", result.Page))
	return result, nil
}

func (s *Service) GetProduct(ctx context.Context, slug string) (*catalogdomain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.GetProduct", trace.WithAttributes(attribute.String("product.slug", slug)))
	defer span.End()

	result, err := s.inner.GetProduct(ctx, slug)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load product", slog.String("product.slug", slug))
	}
	span.SetAttributes(attribute.Int64("product.id", result.ID))
	return result, nil
}

func (s *Service) GetProductByID(ctx context.Context, id int64) (*catalogdomain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.GetProductByID", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	result, err := s.inner.GetProductByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load product", slog.Int64("product.id", id))
	}
	return result, nil
}

func (s *Service) LookupVariants(ctx context.Context, variantIDs []int64) (map[int64]*catalogdomain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.LookupVariants", trace.WithAttributes(attribute.Int("variant.count", len(variantIDs))))
	defer span.End()

	result, err := s.inner.LookupVariants(ctx, variantIDs)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to look up variants", slog.Int("variant.count", len(variantIDs)))
	}
	return result, nil
}

func (s *Service) RelatedProducts(ctx context.Context, slug string, limit int) ([]*catalogdomain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.RelatedProducts", trace.WithAttributes(attribute.String("product.slug", slug)))
	defer span.End()

	result, err := s.inner.RelatedProducts(ctx, slug, limit)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load related products", slog.String("product.slug", slug))
	}
	span.SetAttributes(attribute.Int("related.count", len(result)))
	return result, nil
}

func (s *Service) Facets(ctx context.Context) (catalogdomain.Facets, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Facets")
	defer span.End()

	result, err := s.inner.Facets(ctx)
	if err != nil {
		return result, s.handleError(ctx, span, err, "failed to build facets")
	}
	return result, nil
}

func (s *Service) UpsertProduct(ctx context.Context, product *catalogdomain.Product) (*catalogdomain.Product, error) {
	slug := ""
	if product != nil {
		slug = product.Slug
	}
	ctx, span := s.tracer.Start(ctx, "CatalogService.UpsertProduct", trace.WithAttributes(attribute.String("product.slug", slug)))
	defer span.End()

	s.logInfo(ctx, "upserting product", slog.String("product.slug", slug))
	result, err := s.inner.UpsertProduct(ctx, product)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to upsert product", slog.String("product.slug", slug))
	}
	s.logInfo(ctx, "product upserted", slog.Int64("product.id", result.ID), slog.Int("variants", len(result.Variants)))
	return result, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "CatalogService.DeleteProduct", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	s.logInfo(ctx, "deleting product", slog.Int64("product.id", id))
	if err := s.inner.DeleteProduct(ctx, id); err != nil {
		return s.handleError(ctx, span, err, "failed to delete product", slog.Int64("product.id", id))
	}
	return nil
}

func (s *Service) ListReviews(ctx context.Context, productID int64, page, pageSize int) (projection.Page[*catalogdomain.Review], error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.ListReviews", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	result, err := s.inner.ListReviews(ctx, productID, page, pageSize)
	if err != nil {
		return result, s.handleError(ctx, span, err, "failed to list reviews", slog.Int64("product.id", productID))
	}
	return result, nil
}

func (s *Service) AddReview(ctx context.Context, cmd catalogports.AddReviewCommand) (*catalogdomain.Review, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.AddReview", trace.WithAttributes(
		attribute.Int64("product.id", cmd.ProductID), attribute.Int("review.rating", cmd.Rating)))
	defer span.End()

	result, err := s.inner.AddReview(ctx, cmd)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to add review", slog.Int64("product.id", cmd.ProductID))
	}
	s.metrics.recordReview(ctx, result.Rating)
	s.logInfo(ctx, "review added", slog.Int64("review.id", result.ID), slog.Int64("product.id", result.ProductID))
	return result, nil
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
	searches metric.Int64Counter
	reviews  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	searches, _ := m.Int64Counter("catalog.service.searches", metric.WithDescription("Number of product filter queries"))
	reviews, _ := m.Int64Counter("catalog.service.reviews_added", metric.WithDescription("Number of reviews submitted"))
	return serviceMetrics{searches: searches, reviews: reviews}
}

func (m serviceMetrics) recordSearch(ctx context.Context, sort string, empty bool) {
	if m.searches != nil {
		m.searches.Add(ctx, 1, metric.WithAttributes(attribute.String("filter.sort", sort), attribute.Bool("filter.empty", empty)))
	}
}

func (m serviceMetrics) recordReview(ctx context.Context, rating int) {
	if m.reviews != nil {
		m.reviews.Add(ctx, 1, metric.WithAttributes(attribute.Int("review.rating", rating)))
	}
}

var _ catalogports.Service = (*Service)(nil)
