package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/accord-backend/internal/platform/logger"
)

const instrumentationName = "github.com/yungbote/accord-backend"

const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
	// ExporterNone keeps trace ids for log correlation without shipping spans.
	ExporterNone = "none"
)

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Environment string
	Version     string
	// Exporter is otlp, stdout or none. Empty picks otlp when Endpoint is
	// set and stdout otherwise.
	Exporter string
	Endpoint string
	// Headers is "k1=v1,k2=v2".
	Headers     string
	Insecure    bool
	SampleRatio float64
}

func noopShutdown(context.Context) error { return nil }

// SetupTracing installs the global tracer provider and W3C propagators. The
// shutdown func is never nil, even on error.
func SetupTracing(ctx context.Context, log *logger.Logger, cfg TracingConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return noopShutdown, nil
	}
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "accord"
	}

	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
			attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
		),
	)
	if err != nil && log != nil {
		// Partial detection still yields a usable resource.
		log.Warn("otel resource detection", "error", err)
	}

	exporterName := exporterFor(cfg)
	exporter, err := newSpanExporter(ctx, exporterName, cfg)
	if err != nil {
		return noopShutdown, fmt.Errorf("otel %s exporter: %w", exporterName, err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRatio(cfg.SampleRatio)))),
		sdktrace.WithResource(res),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if log != nil {
		log.Info("tracing enabled", "service", serviceName, "exporter", exporterName, "endpoint", cfg.Endpoint)
	}
	return tp.Shutdown, nil
}

// Tracer is a no-op tracer until SetupTracing has installed a provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

func exporterFor(cfg TracingConfig) string {
	switch name := strings.ToLower(strings.TrimSpace(cfg.Exporter)); name {
	case ExporterOTLP, ExporterStdout, ExporterNone:
		return name
	case "":
		if strings.TrimSpace(cfg.Endpoint) != "" {
			return ExporterOTLP
		}
		return ExporterStdout
	default:
		return name
	}
}

func newSpanExporter(ctx context.Context, name string, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch name {
	case ExporterNone:
		return nil, nil
	case ExporterStdout:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ExporterOTLP:
		endpoint := strings.TrimSpace(cfg.Endpoint)
		if endpoint == "" {
			return nil, fmt.Errorf("endpoint is required")
		}
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if headers := parseHeaders(cfg.Headers); headers != nil {
			opts = append(opts, otlptracehttp.WithHeaders(headers))
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown exporter %q", name)
	}
}

func clampRatio(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func parseHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		key, val, ok := strings.Cut(part, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" || val == "" {
			continue
		}
		headers[key] = val
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}
