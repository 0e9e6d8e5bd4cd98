package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Instruments bundles the runtime-wide observability dependencies.
type Instruments struct {
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Settings is the environment-derived observability configuration.
type Settings struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	LogLevel       slog.Level
	// OTLPEndpoint is host:port of an OTLP/HTTP collector. Empty discards spans.
	OTLPEndpoint string
	OTLPInsecure bool
	// SampleRatio applies to root spans; children follow their parent.
	SampleRatio float64
	LogOutput   io.Writer
}

// SettingsFromEnv reads LOG_LEVEL, ENVIRONMENT and the standard OTEL_* variables.
func SettingsFromEnv(serviceName string) Settings {
	s := Settings{
		ServiceName:    serviceName,
		ServiceVersion: envOrDefault("SERVICE_VERSION", "dev"),
		Environment:    envOrDefault("ENVIRONMENT", "local"),
		LogLevel:       ParseLevel(os.Getenv("LOG_LEVEL")),
		OTLPEndpoint:   strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTLPInsecure:   os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") != "0",
		SampleRatio:    1,
		LogOutput:      os.Stdout,
	}
	if raw := strings.TrimSpace(os.Getenv("OTEL_TRACES_SAMPLER_ARG")); raw != "" {
		if ratio, err := strconv.ParseFloat(raw, 64); err == nil && ratio >= 0 && ratio <= 1 {
			s.SampleRatio = ratio
		}
	}
	return s
}

// Init configures slog, tracing and meters from the environment. The returned
// shutdown flushes pending spans and metrics.
func Init(ctx context.Context, serviceName string) (*Instruments, func(context.Context) error, error) {
	return InitWithSettings(ctx, SettingsFromEnv(serviceName))
}

// InitWithSettings is Init with explicit settings.
func InitWithSettings(ctx context.Context, s Settings) (*Instruments, func(context.Context) error, error) {
	logger := newLogger(s)

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			attribute.String("service.name", s.ServiceName),
			attribute.String("service.version", s.ServiceVersion),
			attribute.String("deployment.environment", s.Environment),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	spanExporter, err := newSpanExporter(ctx, s, logger)
	if err != nil {
		return nil, nil, err
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.SampleRatio))),
		sdktrace.WithBatcher(spanExporter),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewManualReader()),
	)
	otel.SetMeterProvider(meterProvider)

	shutdown := func(ctx context.Context) error {
		return errors.Join(meterProvider.Shutdown(ctx), tracerProvider.Shutdown(ctx))
	}
	return &Instruments{
		Logger:         logger,
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
	}, shutdown, nil
}

// Tracer returns a named tracer from the configured provider.
func (i *Instruments) Tracer(name string) trace.Tracer {
	if i == nil || i.TracerProvider == nil {
		return otel.Tracer(name)
	}
	return i.TracerProvider.Tracer(name)
}

// Meter returns a named meter from the configured provider.
func (i *Instruments) Meter(name string) metric.Meter {
	if i == nil || i.MeterProvider == nil {
		return metricnoop.NewMeterProvider().Meter(name)
	}
	return i.MeterProvider.Meter(name)
}

// WithHandler re-roots the process logger on a handler built around the current one.
// The application log sink uses it to tee warn and error records.
func (i *Instruments) WithHandler(wrap func(slog.Handler) slog.Handler) {
	if i == nil || i.Logger == nil || wrap == nil {
		return
	}
	i.Logger = slog.New(wrap(i.Logger.Handler()))
	slog.SetDefault(i.Logger)
}

// newLogger writes text locally and JSON everywhere else.
func newLogger(s Settings) *slog.Logger {
	out := s.LogOutput
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: s.LogLevel, AddSource: s.Environment != "local"}
	var handler slog.Handler
	if s.Environment == "local" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	logger := slog.New(handler).With(slog.String("service", s.ServiceName))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps LOG_LEVEL values onto slog levels, defaulting to info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newSpanExporter(ctx context.Context, s Settings, logger *slog.Logger) (sdktrace.SpanExporter, error) {
	if s.OTLPEndpoint == "" {
		return stdouttrace.New(stdouttrace.WithWriter(io.Discard))
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(s.OTLPEndpoint)}
	if s.OTLPInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err == nil {
		return exporter, nil
	}
	logger.Warn("failed to initialize OTLP trace exporter, falling back to stdout", slog.String("error", err.Error()))
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
