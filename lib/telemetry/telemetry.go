// Package telemetry handles opentelemetry setup for binaries and tests.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"bentobot/lib/configutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type OtlpConnConfig struct {
	Endpoint string            `json:"endpoint"`
	Headers  map[string]string `json:"headers"`
}

type OtlpConfig struct {
	Grpc OtlpConnConfig `json:"grpc"`
	Http OtlpConnConfig `json:"http"`
}

type Config struct {
	Otlp OtlpConfig `json:"otlp"`
}

// Telemetry holds the providers constructed by Setup so callers can
// flush them on shutdown.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
}

func (t Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.TracerProvider != nil {
		errs = append(errs, t.TracerProvider.Shutdown(ctx))
	}
	if t.MeterProvider != nil {
		errs = append(errs, t.MeterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

func newTraceExporter(ctx context.Context, config OtlpConfig) (sdktrace.SpanExporter, error) {
	if config.Grpc.Endpoint != "" {
		slog.Info("exporting traces over grpc", "endpoint", config.Grpc.Endpoint)
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(config.Grpc.Endpoint),
			otlptracegrpc.WithHeaders(config.Grpc.Headers),
		)
	}
	slog.Info("exporting traces over http", "endpoint", config.Http.Endpoint)
	return otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(config.Http.Endpoint),
		otlptracehttp.WithHeaders(config.Http.Headers),
	)
}

func newMetricExporter(ctx context.Context, config OtlpConfig) (sdkmetric.Exporter, error) {
	if config.Grpc.Endpoint != "" {
		slog.Info("exporting metrics over grpc", "endpoint", config.Grpc.Endpoint)
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(config.Grpc.Endpoint),
			otlpmetricgrpc.WithHeaders(config.Grpc.Headers),
		)
	}
	slog.Info("exporting metrics over http", "endpoint", config.Http.Endpoint)
	return otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(config.Http.Endpoint),
		otlpmetrichttp.WithHeaders(config.Http.Headers),
	)
}

func newTraceProvider(ctx context.Context, res *resource.Resource, config OtlpConfig) (*sdktrace.TracerProvider, error) {
	exporter, err := newTraceExporter(ctx, config)
	if err != nil {
		return nil, err
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(3*time.Second)),
		sdktrace.WithResource(res),
	)
	return provider, nil
}

func newMetricProvider(ctx context.Context, res *resource.Resource, config OtlpConfig) (*sdkmetric.MeterProvider, error) {
	exporter, err := newMetricExporter(ctx, config)
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(
			exporter,
			sdkmetric.WithInterval(5*time.Second),
		)),
		sdkmetric.WithResource(res),
	)
	return provider, nil
}

// Setup initializes global opentelemetry state: propagators, the trace
// provider and the meter provider, all exporting over otlp to the
// configured endpoint. Grpc wins over http when both are set.
func Setup(ctx context.Context, serviceName string, config Config) (Telemetry, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	res, err := newResource(serviceName)
	if err != nil {
		return Telemetry{}, fmt.Errorf("failed to create resource: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	traceProvider, err := newTraceProvider(ctx, res, config.Otlp)
	if err != nil {
		return Telemetry{}, fmt.Errorf("failed to create trace provider: %w", err)
	}
	otel.SetTracerProvider(traceProvider)

	meterProvider, err := newMetricProvider(ctx, res, config.Otlp)
	if err != nil {
		return Telemetry{}, fmt.Errorf("failed to create metric provider: %w", err)
	}
	otel.SetMeterProvider(meterProvider)

	return Telemetry{
		TracerProvider: traceProvider,
		MeterProvider:  meterProvider,
	}, nil
}

const configFilename = "telemetry.json5"

// SetupFromEnv reads `telemetry.json5` (searching up the filesystem)
// then calls Setup with it. A missing config file is not an error,
// telemetry just stays on the noop providers.
func SetupFromEnv(ctx context.Context, serviceName string) (Telemetry, error) {
	config, err := configutil.ReadRecursively[Config](configFilename)
	if os.IsNotExist(err) {
		slog.Info("no telemetry config found, telemetry disabled")
		return Telemetry{}, nil
	}
	if err != nil {
		return Telemetry{}, err
	}
	return Setup(ctx, serviceName, config)
}

var setupTestEnvironments = map[string]bool{}

// SetupForTesting initializes telemetry for a test binary at most once
// per name, returning a flush function for the caller to defer. Tests
// on machines without a telemetry.json5 run fine, spans just go
// nowhere.
func SetupForTesting(t testing.TB, name string) func() {
	if setupTestEnvironments[name] {
		return func() {}
	}
	setupTestEnvironments[name] = true

	config, err := configutil.ReadRecursively[Config](configFilename)
	if os.IsNotExist(err) {
		return func() {}
	}
	if err != nil {
		t.Fatal(err)
	}

	telemetry, err := Setup(context.Background(), name, config)
	if err != nil {
		t.Fatal(err)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		err := telemetry.Shutdown(ctx)
		if err != nil {
			t.Log(err)
		}
	}
}
