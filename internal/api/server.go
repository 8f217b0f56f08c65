// Package api serves the JSON endpoints behind the modulation demos, the RF
// calculator, the transceiver catalog and the rendered canvases.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/signalsfoundry/rfvision/internal/animation"
	"github.com/signalsfoundry/rfvision/internal/demo"
	"github.com/signalsfoundry/rfvision/internal/logging"
	"github.com/signalsfoundry/rfvision/internal/modulation"
	"github.com/signalsfoundry/rfvision/internal/observability"
	"github.com/signalsfoundry/rfvision/kb"
)

// Deps are the services the HTTP handlers call into. Processor is
// required; everything else gets a fresh default when nil.
type Deps struct {
	Processor *modulation.Processor
	Catalog   *kb.Catalog
	Demo      *demo.Controller
	Waves     *animation.Registry
	Metrics   *observability.Collector
	Logger    logging.Logger

	// ServeMetrics mounts GET /metrics on the API mux. Leave it off when
	// metrics have their own listener.
	ServeMetrics bool
	// Tracing wraps every request in an OpenTelemetry server span.
	Tracing bool
}

// Server is the HTTP front-end. It implements http.Handler.
type Server struct {
	proc    *modulation.Processor
	catalog *kb.Catalog
	demo    *demo.Controller
	waves   *animation.Registry
	metrics *observability.Collector
	log     logging.Logger

	handler http.Handler
}

// NewServer builds the route table and middleware chain.
func NewServer(d Deps) (*Server, error) {
	if d.Processor == nil {
		return nil, errors.New("api: processor is required")
	}
	s := &Server{
		proc:    d.Processor,
		catalog: d.Catalog,
		demo:    d.Demo,
		waves:   d.Waves,
		metrics: d.Metrics,
		log:     d.Logger,
	}
	if s.log == nil {
		s.log = logging.Noop()
	}
	if s.catalog == nil {
		s.catalog = kb.NewCatalog()
	}
	if s.demo == nil {
		s.demo = demo.NewController(nil, demo.WithLogger(s.log))
	}
	if s.waves == nil {
		s.waves = animation.NewRegistry()
	}

	mux := http.NewServeMux()
	s.routes(mux)
	if d.ServeMetrics && s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// The metrics middleware has to sit directly on the mux: the matched
	// pattern is written onto the request the mux receives.
	var h http.Handler = mux
	h = s.metrics.HTTPMiddleware(h)
	if d.Tracing {
		h = observability.HTTPTracing(h)
	}
	h = s.requestLogging(h)
	s.handler = h
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Analog modulation.
	mux.HandleFunc("GET /api/generate_carrier", s.handleGenerateCarrier)
	mux.HandleFunc("GET /api/generate_am", s.handleGenerateAM)
	mux.HandleFunc("GET /api/generate_fm", s.handleGenerateFM)
	mux.HandleFunc("GET /api/generate_pm", s.handleGeneratePM)

	// Digital modulation and the transmission chain.
	mux.HandleFunc("POST /api/simulate_transmission", s.handleSimulateTransmission)
	mux.HandleFunc("POST /api/complete-transmission", s.handleCompleteTransmission)
	mux.HandleFunc("POST /api/digital-baseband", s.handleDigitalBaseband)
	mux.HandleFunc("POST /api/digital-modulation", s.handleDigitalModulation)
	mux.HandleFunc("POST /api/generate-baseband", s.handleGenerateBaseband)
	mux.HandleFunc("POST /api/text-to-binary", s.handleTextToBinary)
	mux.HandleFunc("POST /api/bit-sequence", s.handleBitSequence)
	mux.HandleFunc("POST /api/modulation-demo", s.handleModulationDemo)
	mux.HandleFunc("POST /api/spectrum-analysis", s.handleSpectrumAnalysis)
	mux.HandleFunc("POST /api/channel-simulation", s.handleChannelSimulation)
	mux.HandleFunc("POST /api/demodulation", s.handleDemodulation)

	// RF calculator and transceiver catalog.
	mux.HandleFunc("GET /api/rf/path-loss", s.handlePathLoss)
	mux.HandleFunc("GET /api/rf/friis", s.handleFriis)
	mux.HandleFunc("GET /api/rf/noise", s.handleNoise)
	mux.HandleFunc("GET /api/rf/convert", s.handleConvert)
	mux.HandleFunc("GET /api/rf/link-budget", s.handleLinkBudget)
	mux.HandleFunc("GET /api/transceivers", s.handleListTransceivers)
	mux.HandleFunc("POST /api/transceivers", s.handleAddTransceiver)
	mux.HandleFunc("GET /api/transceivers/{id}", s.handleGetTransceiver)
	mux.HandleFunc("PUT /api/transceivers/{id}", s.handlePutTransceiver)
	mux.HandleFunc("DELETE /api/transceivers/{id}", s.handleDeleteTransceiver)

	// Canvases.
	mux.HandleFunc("GET /api/canvases", s.handleCanvases)
	mux.HandleFunc("GET /api/fractions", s.handleFractions)
	mux.HandleFunc("GET /render/{file}", s.handleRender)

	// Single-bit demo.
	mux.HandleFunc("GET /api/demo/params", s.handleDemoParams)
	mux.HandleFunc("POST /api/demo/params", s.handleDemoUpdate)
	mux.HandleFunc("GET /api/demo/display", s.handleDemoDisplay)
	mux.HandleFunc("GET /api/demo/state", s.handleDemoState)
	mux.HandleFunc("POST /api/demo/{action}", s.handleDemoAction)
	mux.HandleFunc("GET /api/demo/canvas/{file}", s.handleDemoCanvas)
	mux.HandleFunc("POST /api/demo/transmit", s.handleDemoTransmit)

	// Progressive wave reveal.
	mux.HandleFunc("POST /api/waves", s.handleStartWave)
	mux.HandleFunc("GET /api/waves/{id}/next", s.handleNextWave)
	mux.HandleFunc("DELETE /api/waves/{id}", s.handleStopWave)
	mux.HandleFunc("DELETE /api/waves", s.handleStopAllWaves)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"transceivers": s.catalog.Len(),
		"waves":        s.waves.Len(),
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// requestLogging attaches a request ID (reusing an inbound X-Request-ID)
// and a request-scoped logger, echoes the ID on the response and logs one
// line per request.
func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		if incoming := r.Header.Get(logging.RequestIDHeader); incoming != "" {
			ctx = logging.ContextWithRequestID(ctx, incoming)
		}
		ctx, reqLog := logging.WithRequestLogger(ctx, s.log.With(
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
		))
		ctx = logging.ContextWithLogger(ctx, reqLog)
		w.Header().Set(logging.RequestIDHeader, logging.RequestIDFromContext(ctx))

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(ctx))

		reqLog.Debug(ctx, "request served",
			logging.Int("status", sw.code),
			logging.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) logger(r *http.Request) logging.Logger {
	return logging.FromContext(r.Context(), s.log)
}
