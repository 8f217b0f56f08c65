package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

// Collector bundles the Prometheus metrics for the HTTP API, the gRPC
// calculator, the renderer and the demo animation.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec

	Renders          *prometheus.CounterVec
	SamplesGenerated *prometheus.CounterVec

	AnimationStep       prometheus.Gauge
	AnimationPlaying    prometheus.Gauge
	CatalogTransceivers prometheus.Gauge
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil. Registering twice against the same registry
// reuses the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	c := &Collector{gatherer: gatherer}

	var err error
	if c.HTTPRequests, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rfvision_http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by route, method, and status code.",
	}, []string{"route", "method", "code"}), "rfvision_http_requests_total"); err != nil {
		return nil, err
	}
	if c.HTTPDurations, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rfvision_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: latencyBuckets,
	}, []string{"route", "method"}), "rfvision_http_request_duration_seconds"); err != nil {
		return nil, err
	}
	if c.RPCRequests, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rfvision_rpc_requests_total",
		Help: "Total number of handled calculator RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "rfvision_rpc_requests_total"); err != nil {
		return nil, err
	}
	if c.RPCDurations, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rfvision_rpc_request_duration_seconds",
		Help:    "Calculator RPC latency in seconds.",
		Buckets: latencyBuckets,
	}, []string{"service", "method"}), "rfvision_rpc_request_duration_seconds"); err != nil {
		return nil, err
	}
	if c.Renders, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rfvision_renders_total",
		Help: "Canvases rendered, labeled by canvas name.",
	}, []string{"canvas"}), "rfvision_renders_total"); err != nil {
		return nil, err
	}
	if c.SamplesGenerated, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rfvision_samples_generated_total",
		Help: "Signal samples produced by the processor, labeled by signal kind.",
	}, []string{"kind"}), "rfvision_samples_generated_total"); err != nil {
		return nil, err
	}
	if c.AnimationStep, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rfvision_animation_step",
		Help: "Current stage of the demo animation.",
	}), "rfvision_animation_step"); err != nil {
		return nil, err
	}
	if c.AnimationPlaying, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rfvision_animation_playing",
		Help: "1 while the demo animation is playing.",
	}), "rfvision_animation_playing"); err != nil {
		return nil, err
	}
	if c.CatalogTransceivers, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rfvision_catalog_transceivers",
		Help: "Transceiver models currently in the catalog.",
	}), "rfvision_catalog_transceivers"); err != nil {
		return nil, err
	}
	return c, nil
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *Collector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		code := status.Code(err).String()

		c.RPCRequests.WithLabelValues(service, method, code).Inc()
		c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		return resp, err
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware records request counts and durations. Requests are
// labelled with the ServeMux pattern that matched, not the raw path.
func (c *Collector) HTTPMiddleware(next http.Handler) http.Handler {
	if c == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		} else if _, path, ok := strings.Cut(route, " "); ok {
			route = path
		}
		c.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.code)).Inc()
		c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// ObserveRender counts one rendered canvas.
func (c *Collector) ObserveRender(canvas string) {
	if c == nil {
		return
	}
	c.Renders.WithLabelValues(canvas).Inc()
}

// AddSamples counts generated samples of a signal kind.
func (c *Collector) AddSamples(kind string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.SamplesGenerated.WithLabelValues(kind).Add(float64(n))
}

// SetAnimation mirrors the demo animation state.
func (c *Collector) SetAnimation(step int, playing bool) {
	if c == nil {
		return
	}
	c.AnimationStep.Set(float64(step))
	if playing {
		c.AnimationPlaying.Set(1)
	} else {
		c.AnimationPlaying.Set(0)
	}
}

// SetCatalogSize mirrors the transceiver catalog size.
func (c *Collector) SetCatalogSize(n int) {
	if c == nil {
		return
	}
	c.CatalogTransceivers.Set(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
