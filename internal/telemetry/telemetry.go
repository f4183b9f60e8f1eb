// Package telemetry wires structured logging (a JSON log/slog logger on
// stdout) and OpenTelemetry tracing/metrics for the core. When
// OTEL_EXPORTER_OTLP_ENDPOINT is set it uses the globally registered
// otel tracer and meter providers, otherwise no-op providers, so the
// core never depends on a collector being present. The package itself
// installs no exporter and no slog-to-otel bridge.
package telemetry

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

var (
	initOnce sync.Once
	tracer   trace.Tracer
	meter    metric.Meter
	logger   *slog.Logger

	opDuration      metric.Float64Histogram
	dispatchCounter metric.Int64Counter
)

// Init installs the process-wide tracer/meter/logger. Safe to call more
// than once; only the first call has an effect.
func Init(serviceName string) {
	initOnce.Do(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

		// When no collector endpoint is configured, fall back to the
		// SDK's no-op implementations so instrumentation calls remain
		// cheap no-ops rather than nil-pointer hazards.
		tracer = nooptrace.NewTracerProvider().Tracer(serviceName)
		meter = noopmetric.NewMeterProvider().Meter(serviceName)

		if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
			tracer = otel.Tracer(serviceName)
			meter = otel.Meter(serviceName)
		}

		var err error
		opDuration, err = meter.Float64Histogram("flowllm.op.duration_ms",
			metric.WithDescription("Op execution duration in milliseconds"))
		if err != nil {
			logger.Warn("failed to create op duration histogram", "error", err)
		}
		dispatchCounter, err = meter.Int64Counter("flowllm.flow.dispatched_total",
			metric.WithDescription("Number of flow invocations dispatched"))
		if err != nil {
			logger.Warn("failed to create dispatch counter", "error", err)
		}
	})
}

// Logger returns the process-wide structured logger, initializing a
// default one if Init was never called (keeps tests simple).
func Logger() *slog.Logger {
	if logger == nil {
		Init("flowllm")
	}
	return logger
}

// StartSpan begins a span for the given operation name.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if tracer == nil {
		Init("flowllm")
	}
	return tracer.Start(ctx, name)
}

// RecordOpDuration emits the op.duration_ms histogram with op/success attrs.
func RecordOpDuration(ctx context.Context, opName string, d time.Duration, success bool) {
	if opDuration == nil {
		Init("flowllm")
	}
	opDuration.Record(ctx, float64(d.Milliseconds()),
		metric.WithAttributes(attribute.String("op", opName), attribute.Bool("success", success)))
}

// RecordDispatch increments the flow-dispatched counter.
func RecordDispatch(ctx context.Context, flowName string) {
	if dispatchCounter == nil {
		Init("flowllm")
	}
	dispatchCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("flow", flowName)))
}
