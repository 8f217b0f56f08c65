package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/rfvision/internal/config"
	"github.com/signalsfoundry/rfvision/internal/logging"
)

const tracerName = "github.com/signalsfoundry/rfvision"

type tracingOptions struct {
	stdout io.Writer
}

// TracingOption adjusts InitTracing.
type TracingOption func(*tracingOptions)

// WithTraceWriter sends the stdout exporter's output to w.
func WithTraceWriter(w io.Writer) TracingOption {
	return func(o *tracingOptions) { o.stdout = w }
}

// exporters builds a span exporter for each tracing.exporter value.
var exporters = map[string]func(context.Context, config.TracingConfig, tracingOptions) (sdktrace.SpanExporter, error){
	"stdout": func(_ context.Context, _ config.TracingConfig, o tracingOptions) (sdktrace.SpanExporter, error) {
		return stdouttrace.New(stdouttrace.WithWriter(o.stdout), stdouttrace.WithoutTimestamps())
	},
	"otlp": func(ctx context.Context, cfg config.TracingConfig, _ tracingOptions) (sdktrace.SpanExporter, error) {
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = DefaultOTLPEndpoint
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		))
	},
}

// DefaultOTLPEndpoint is dialled when tracing.endpoint is empty.
const DefaultOTLPEndpoint = "localhost:4317"

// sampler honours the parent's decision and otherwise samples ratio of
// root spans.
func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// InitTracing installs the global tracer provider and propagators for the
// tracing section of the config. The returned function flushes and stops
// the provider.
func InitTracing(ctx context.Context, cfg config.TracingConfig, log logging.Logger, opts ...TracingOption) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}
	o := tracingOptions{stdout: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		log.Debug(ctx, "tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	name := strings.ToLower(cfg.Exporter)
	build, ok := exporters[name]
	if !ok {
		return nil, fmt.Errorf("unsupported tracing exporter %q", cfg.Exporter)
	}
	exp, err := build(ctx, cfg, o)
	if err != nil {
		return nil, fmt.Errorf("%s exporter: %w", name, err)
	}

	service := cfg.ServiceName
	if service == "" {
		service = "rfvision"
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", service),
		attribute.String("service.namespace", "rfvision"),
	))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", name),
		logging.String("service_name", service),
		logging.Float("sample_ratio", cfg.SampleRatio),
	)
	return tp.Shutdown, nil
}

// ShutdownTracing flushes spans within timeout. Failures are only logged.
func ShutdownTracing(shutdown func(context.Context) error, timeout time.Duration, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}

// StartSpan starts an internal span under whatever span ctx carries.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// HTTPTracing wraps next in a server span named after the matched route.
// Incoming trace context is extracted with the global propagator.
func HTTPTracing(next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, "HTTP "+r.Method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		attrs := []attribute.KeyValue{
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
		}
		if reqID := logging.RequestIDFromContext(ctx); reqID != "" {
			attrs = append(attrs, attribute.String("request_id", reqID))
		}
		span.SetAttributes(attrs...)

		r = r.WithContext(ctx)
		next.ServeHTTP(w, r)
		if r.Pattern != "" {
			span.SetName(r.Pattern)
			span.SetAttributes(attribute.String("http.route", r.Pattern))
		}
	})
}
