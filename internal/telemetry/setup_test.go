package telemetry

import (
	"context"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

func TestFlushAndShutdown(t *testing.T) {
	client := &Client{
		log:            slog.New(slog.DiscardHandler),
		metricProvider: metric.NewMeterProvider(metric.WithReader(metric.NewManualReader())),
		tracerProvider: trace.NewTracerProvider(),
		loggerProvider: log.NewLoggerProvider(),
	}

	ctx := context.Background()
	if err := client.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	client.Shutdown(ctx)

	// providers refuse a second shutdown, which proves the first one ran
	if err := client.metricProvider.Shutdown(ctx); err == nil {
		t.Fatal("metric provider was not shut down")
	}
}

func TestFlushWithoutProviders(t *testing.T) {
	client := &Client{log: slog.New(slog.DiscardHandler)}
	if err := client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	client.Shutdown(context.Background())
}
