package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/aromaline/storefront/internal/domains/cart/adapters/memory"
	"github.com/aromaline/storefront/internal/domains/cart/application"
	"github.com/aromaline/storefront/internal/domains/cart/domain"
	"github.com/aromaline/storefront/internal/domains/cart/ports"
)

type emptyCatalog struct{}

func (emptyCatalog) Variants(context.Context, []int64, string) (map[int64]ports.VariantInfo, error) {
	return map[int64]ports.VariantInfo{}, nil
}

func TestService_RecordsSpansWithoutGuestToken(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	var logs bytes.Buffer

	svc := New(application.NewService(memory.NewRepository(), emptyCatalog{}),
		WithTracer(provider.Tracer(tracerName)),
		WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))),
	)
	ctx := context.Background()

	_, err := svc.GetCart(ctx, domain.GuestOwner("secret-token"), "en")
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, domain.UserOwner("u1"), 42, 1, "en")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "CartService.GetCart", spans[0].Name())
	assert.Equal(t, "CartService.AddItem", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	for _, kv := range spans[0].Attributes() {
		assert.NotContains(t, kv.Value.Emit(), "secret-token")
	}
	assert.Contains(t, logs.String(), "failed to add cart item")
}
