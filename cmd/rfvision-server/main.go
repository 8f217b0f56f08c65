package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/rfvision/internal/animation"
	"github.com/signalsfoundry/rfvision/internal/api"
	"github.com/signalsfoundry/rfvision/internal/config"
	"github.com/signalsfoundry/rfvision/internal/demo"
	"github.com/signalsfoundry/rfvision/internal/dsp"
	"github.com/signalsfoundry/rfvision/internal/logging"
	"github.com/signalsfoundry/rfvision/internal/modulation"
	"github.com/signalsfoundry/rfvision/internal/observability"
	"github.com/signalsfoundry/rfvision/internal/rpc"
	"github.com/signalsfoundry/rfvision/kb"
)

func main() {
	configPath := flag.String("config", "configs/rfvision.yaml", "Path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rfvision-server: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, listeners{}); err != nil {
		log.Error(ctx, "server exited", logging.Err(err))
		os.Exit(1)
	}
}

// listeners lets tests hand in pre-bound sockets; nil fields are bound from
// the configured addresses.
type listeners struct {
	http    net.Listener
	grpc    net.Listener
	metrics net.Listener
}

func (l *listeners) bind(cfg *config.Config) error {
	var err error
	if l.http == nil {
		if l.http, err = net.Listen("tcp", cfg.Server.HTTPAddr); err != nil {
			return fmt.Errorf("listen http %s: %w", cfg.Server.HTTPAddr, err)
		}
	}
	if l.grpc == nil && cfg.Server.GRPCAddr != "" {
		if l.grpc, err = net.Listen("tcp", cfg.Server.GRPCAddr); err != nil {
			return fmt.Errorf("listen grpc %s: %w", cfg.Server.GRPCAddr, err)
		}
	}
	if l.metrics == nil && cfg.Server.MetricsAddr != "" {
		if l.metrics, err = net.Listen("tcp", cfg.Server.MetricsAddr); err != nil {
			return fmt.Errorf("listen metrics %s: %w", cfg.Server.MetricsAddr, err)
		}
	}
	return nil
}

// run serves the HTTP API, the gRPC calculator and optionally a separate
// metrics listener until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logging.Logger, lis listeners) error {
	timeout, err := cfg.ShutdownTimeout()
	if err != nil {
		return err
	}
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownTracing(shutdownTracing, timeout, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := observability.NewCollector(reg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	catalog := kb.NewCatalog()
	unsubscribe := catalog.Subscribe(func(ev kb.Event) {
		collector.SetCatalogSize(catalog.Len())
	})
	defer unsubscribe()
	loadCatalog(ctx, catalog, cfg.Catalog.Path, log)

	seed := cfg.Processor.NoiseSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	proc, err := modulation.NewProcessor(
		modulation.WithSampleRate(cfg.Processor.SampleRate),
		modulation.WithDuration(cfg.Processor.Duration),
		modulation.WithBitRate(cfg.Processor.BitRate),
		modulation.WithChannel(dsp.NewChannel(seed)),
		modulation.WithRecorder(collector),
	)
	if err != nil {
		return fmt.Errorf("init processor: %w", err)
	}

	interval, err := cfg.FrameInterval()
	if err != nil {
		return err
	}
	mode := animation.RealTime
	if strings.EqualFold(cfg.Animation.Mode, "accelerated") {
		mode = animation.Accelerated
	}
	driver := animation.NewDriver(interval, mode, len(demo.Stages))
	removeListener := driver.AddListener(func(f animation.Frame) {
		collector.SetAnimation(f.Step, f.Playing)
	})
	defer removeListener()
	ctrl := demo.NewController(driver,
		demo.WithLogger(log),
		demo.WithRecorder(collector),
		demo.WithCanvasSize(cfg.Render.Width, cfg.Render.Height),
	)
	defer ctrl.Close()

	handler, err := api.NewServer(api.Deps{
		Processor:    proc,
		Catalog:      catalog,
		Demo:         ctrl,
		Metrics:      collector,
		Logger:       log,
		ServeMetrics: cfg.Server.MetricsAddr == "",
		Tracing:      cfg.Tracing.Enabled,
	})
	if err != nil {
		return err
	}

	if err := lis.bind(cfg); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	httpSrv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	log.Info(ctx, "serving HTTP API", logging.String("addr", lis.http.Addr().String()))
	g.Go(func() error {
		if err := httpSrv.Serve(lis.http); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	grpcSrv := rpc.NewServer(rpc.NewCalculator(catalog, log), log, collector)
	if lis.grpc != nil {
		log.Info(ctx, "serving gRPC calculator", logging.String("addr", lis.grpc.Addr().String()))
		g.Go(func() error {
			if err := grpcSrv.Serve(lis.grpc); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	var metricsSrv *http.Server
	if lis.metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		metricsSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		log.Info(ctx, "serving Prometheus metrics", logging.String("addr", lis.metrics.Addr().String()))
		g.Go(func() error {
			if err := metricsSrv.Serve(lis.metrics); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	if cfg.Catalog.HotReload && cfg.Catalog.Path != "" {
		g.Go(func() error {
			return catalog.Watch(gctx, cfg.Catalog.Path, kb.DefaultReloadDebounce, log)
		})
	}

	if cfg.Animation.Autoplay {
		ctrl.Play()
	}
	g.Go(func() error {
		<-driver.Run(gctx, 0)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		grpcSrv.GracefulStop()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn(shutdownCtx, "http shutdown", logging.Err(err))
		}
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	return g.Wait()
}

// loadCatalog seeds the catalog from path. A missing or invalid file is
// logged and leaves the catalog empty.
func loadCatalog(ctx context.Context, catalog *kb.Catalog, path string, log logging.Logger) {
	if path == "" {
		return
	}
	n, err := catalog.LoadFile(path)
	if err != nil {
		log.Warn(ctx, "skipping transceiver load", logging.String("path", path), logging.Err(err))
		return
	}
	log.Info(ctx, "loaded transceiver models",
		logging.String("path", path),
		logging.Int("count", n),
	)
}
