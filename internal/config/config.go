// Package config loads the server configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of rfvision.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Processor ProcessorConfig `yaml:"processor"`
	Render    RenderConfig    `yaml:"render"`
	Animation AnimationConfig `yaml:"animation"`
	Catalog   CatalogConfig   `yaml:"catalog"`
}

type ServerConfig struct {
	HTTPAddr        string `yaml:"http_addr"`
	GRPCAddr        string `yaml:"grpc_addr"`
	MetricsAddr     string `yaml:"metrics_addr"` // empty serves /metrics on the HTTP listener
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// TracingConfig selects the span exporter. Endpoint is only read by the
// otlp exporter.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"` // stdout | otlp
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// ProcessorConfig sets the signal processor defaults.
type ProcessorConfig struct {
	SampleRate float64 `yaml:"sample_rate"`
	Duration   float64 `yaml:"duration"`
	BitRate    float64 `yaml:"bit_rate"`
	// NoiseSeed seeds the channel noise source; 0 picks a random seed.
	NoiseSeed uint64 `yaml:"noise_seed"`
}

type RenderConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type AnimationConfig struct {
	FrameInterval string `yaml:"frame_interval"`
	Mode          string `yaml:"mode"` // realtime | accelerated
	Autoplay      bool   `yaml:"autoplay"`
}

type CatalogConfig struct {
	Path      string `yaml:"path"`
	HotReload bool   `yaml:"hot_reload"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        ":5000",
			GRPCAddr:        ":50051",
			ShutdownTimeout: "5s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			Exporter:    "stdout",
			ServiceName: "rfvision",
			SampleRatio: 1,
		},
		Processor: ProcessorConfig{
			SampleRate: 1000,
			Duration:   2,
			BitRate:    10,
		},
		Render: RenderConfig{
			Width:  600,
			Height: 300,
		},
		Animation: AnimationConfig{
			FrameInterval: "16ms",
			Mode:          "realtime",
		},
		Catalog: CatalogConfig{
			Path: "configs/transceivers.yaml",
		},
	}
}

// Load reads path over the defaults and applies RFVISION_* environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"RFVISION_HTTP_ADDR":      &c.Server.HTTPAddr,
		"RFVISION_GRPC_ADDR":      &c.Server.GRPCAddr,
		"RFVISION_METRICS_ADDR":   &c.Server.MetricsAddr,
		"RFVISION_LOG_LEVEL":      &c.Logging.Level,
		"RFVISION_LOG_FORMAT":     &c.Logging.Format,
		"RFVISION_CATALOG_PATH":   &c.Catalog.Path,
		"RFVISION_FRAME_INTERVAL": &c.Animation.FrameInterval,
		"RFVISION_OTLP_ENDPOINT":  &c.Tracing.Endpoint,

		"RFVISION_TRACING_EXPORTER":     &c.Tracing.Exporter,
		"RFVISION_TRACING_SERVICE_NAME": &c.Tracing.ServiceName,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"RFVISION_SAMPLE_RATE": &c.Processor.SampleRate,
		"RFVISION_BIT_RATE":    &c.Processor.BitRate,

		"RFVISION_TRACING_SAMPLE_RATIO": &c.Tracing.SampleRatio,
	}
	for key, dst := range floats {
		if v, ok := os.LookupEnv(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = f
		}
	}

	bools := map[string]*bool{
		"RFVISION_TRACING_ENABLED": &c.Tracing.Enabled,
		"RFVISION_CATALOG_RELOAD":  &c.Catalog.HotReload,
	}
	for key, dst := range bools {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return errors.New("server.http_addr must be set")
	}
	if _, err := c.ShutdownTimeout(); err != nil {
		return err
	}
	if _, err := c.FrameInterval(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q: want text or json", c.Logging.Format)
	}
	switch strings.ToLower(c.Animation.Mode) {
	case "", "realtime", "accelerated":
	default:
		return fmt.Errorf("animation.mode %q: want realtime or accelerated", c.Animation.Mode)
	}
	if c.Tracing.Enabled {
		switch strings.ToLower(c.Tracing.Exporter) {
		case "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter %q: want stdout or otlp", c.Tracing.Exporter)
		}
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio %v outside [0,1]", c.Tracing.SampleRatio)
	}
	if c.Processor.SampleRate <= 0 || c.Processor.Duration <= 0 || c.Processor.BitRate <= 0 {
		return errors.New("processor sample_rate, duration and bit_rate must be positive")
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return errors.New("render width and height must be positive")
	}
	return nil
}

// ShutdownTimeout parses server.shutdown_timeout.
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	return parseDuration("server.shutdown_timeout", c.Server.ShutdownTimeout, 5*time.Second)
}

// FrameInterval parses animation.frame_interval.
func (c *Config) FrameInterval() (time.Duration, error) {
	return parseDuration("animation.frame_interval", c.Animation.FrameInterval, 16*time.Millisecond)
}

func parseDuration(field, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", field, raw)
	}
	return d, nil
}
