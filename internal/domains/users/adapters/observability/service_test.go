package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/crypto/bcrypt"

	"github.com/aromaline/storefront/internal/domains/users/adapters/memory"
	"github.com/aromaline/storefront/internal/domains/users/application"
	"github.com/aromaline/storefront/internal/domains/users/ports"
)

func TestService_TracesAuthWithoutSecrets(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	var logs bytes.Buffer

	core := application.NewService(memory.NewRepository(), memory.NewSessionStore(), application.WithBcryptCost(bcrypt.MinCost))
	svc := New(core,
		WithTracer(provider.Tracer(tracerName)),
		WithMeter(meterProvider.Meter(tracerName)),
		WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))),
	)
	ctx := context.Background()

	res, err := svc.Register(ctx, ports.RegisterCommand{Email: "jane@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, "jane@example.com", "wrong-password", "")
	require.ErrorIs(t, err, application.ErrAuthentication)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "UserService.Register", spans[0].Name())
	assert.Equal(t, "UserService.Login", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	for _, span := range spans {
		for _, kv := range span.Attributes() {
			assert.NotContains(t, kv.Value.Emit(), "jane@example.com")
			assert.NotContains(t, kv.Value.Emit(), res.Session.Token)
		}
	}
	assert.Contains(t, logs.String(), res.User.ID)
	assert.NotContains(t, logs.String(), "jane@example.com")
	assert.NotContains(t, logs.String(), "correct-horse")
	assert.NotContains(t, logs.String(), res.Session.Token)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.NotEmpty(t, rm.ScopeMetrics)
	outcomes := map[string]int64{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if m.Name != "users.service.auth" {
			continue
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		for _, dp := range sum.DataPoints {
			op, _ := dp.Attributes.Value(attribute.Key("auth.op"))
			outcome, _ := dp.Attributes.Value(attribute.Key("auth.outcome"))
			outcomes[op.AsString()+"/"+outcome.AsString()] += dp.Value
		}
	}
	assert.Equal(t, map[string]int64{"register/ok": 1, "login/failed": 1}, outcomes)
}
