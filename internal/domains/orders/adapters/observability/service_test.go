package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/aromaline/storefront/internal/domains/orders/adapters/memory"
	"github.com/aromaline/storefront/internal/domains/orders/application"
	"github.com/aromaline/storefront/internal/domains/orders/domain"
	"github.com/aromaline/storefront/internal/domains/orders/ports"
)

type noCatalog struct{}

func (noCatalog) Prices(context.Context, []int64, string) (map[int64]ports.VariantPrice, error) {
	return map[int64]ports.VariantPrice{}, nil
}

func TestService_RecordsCheckoutFailure(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	var logs bytes.Buffer

	svc := New(application.NewService(memory.NewRepository(nil), noCatalog{}),
		WithTracer(provider.Tracer(tracerName)),
		WithMeter(meterProvider.Meter(tracerName)),
		WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))),
	)
	ctx := context.Background()

	_, err := svc.Checkout(ctx, ports.CheckoutCommand{
		Request: domain.CheckoutRequest{
			Items:         []domain.CheckoutItem{{VariantID: 7, Quantity: 1}},
			Contact:       domain.Contact{Email: "jane@example.com", Phone: "+33612345678", FirstName: "Jane", LastName: "Doe"},
			Shipping:      domain.Shipping{Country: "FR", City: "Paris", Street: "1 rue"},
			PaymentMethod: domain.PaymentOnline,
		},
		GuestToken: "secret-token",
	})
	require.ErrorIs(t, err, application.ErrInvalidInput)

	_, err = svc.LookupGuestOrder(ctx, "PF-00000000", "jane@example.com")
	require.ErrorIs(t, err, ports.ErrNotFound)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "OrdersService.Checkout", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "OrdersService.LookupGuestOrder", spans[1].Name())
	for _, span := range spans {
		for _, kv := range span.Attributes() {
			assert.NotContains(t, kv.Value.Emit(), "secret-token")
			assert.NotContains(t, kv.Value.Emit(), "jane@example.com")
		}
	}
	assert.Contains(t, logs.String(), "checkout failed")
	assert.NotContains(t, logs.String(), "jane@example.com")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.NotEmpty(t, rm.ScopeMetrics)
	var found bool
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if m.Name == "orders.service.checkouts" {
			found = true
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			require.Len(t, sum.DataPoints, 1)
			assert.Equal(t, int64(1), sum.DataPoints[0].Value)
		}
	}
	assert.True(t, found)
}
