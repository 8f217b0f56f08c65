// Package modulation generates and recovers the sampled signals used by the
// analog and digital modulation demos.
package modulation

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/rfvision/internal/dsp"
	"github.com/signalsfoundry/rfvision/model"
)

const (
	DefaultSampleRate = 1000.0 // Hz
	DefaultDuration   = 2.0    // seconds
	DefaultBitRate    = 10.0   // bits per second

	// MaxSamples bounds any single generated signal.
	MaxSamples = 2_000_000
)

// SampleRecorder receives the number of samples each generator produced.
// The observability collector implements it.
type SampleRecorder interface {
	AddSamples(kind string, n int)
}

// Processor generates signals on a fixed sampling grid. It is safe for
// concurrent use once constructed.
type Processor struct {
	sampleRate float64
	duration   float64
	bitRate    float64

	channel  *dsp.Channel
	recorder SampleRecorder
}

// Option customises a Processor.
type Option func(*Processor)

func WithSampleRate(hz float64) Option    { return func(p *Processor) { p.sampleRate = hz } }
func WithDuration(seconds float64) Option { return func(p *Processor) { p.duration = seconds } }
func WithBitRate(bps float64) Option      { return func(p *Processor) { p.bitRate = bps } }

// WithChannel sets the channel used to add noise during transmission runs.
func WithChannel(ch *dsp.Channel) Option { return func(p *Processor) { p.channel = ch } }

// WithRecorder reports generated sample counts to r.
func WithRecorder(r SampleRecorder) Option { return func(p *Processor) { p.recorder = r } }

// NewProcessor returns a Processor with the default 1 kHz / 2 s / 10 bps
// grid unless overridden.
func NewProcessor(opts ...Option) (*Processor, error) {
	p := &Processor{
		sampleRate: DefaultSampleRate,
		duration:   DefaultDuration,
		bitRate:    DefaultBitRate,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := positive("sample rate", p.sampleRate); err != nil {
		return nil, err
	}
	if err := positive("duration", p.duration); err != nil {
		return nil, err
	}
	if err := positive("bit rate", p.bitRate); err != nil {
		return nil, err
	}
	if n := p.sampleRate * p.duration; n > MaxSamples {
		return nil, fmt.Errorf("%w: %g samples per signal exceeds %d", model.ErrInvalidParameter, n, MaxSamples)
	}
	if p.channel == nil {
		p.channel = dsp.NewChannel(1)
	}
	return p, nil
}

func (p *Processor) SampleRate() float64 { return p.sampleRate }
func (p *Processor) Duration() float64   { return p.duration }
func (p *Processor) BitRate() float64    { return p.bitRate }

// Channel exposes the impairment channel so callers can reuse its source.
func (p *Processor) Channel() *dsp.Channel { return p.channel }

// timeGrid is the shared analog sampling grid: ⌊fs·T⌋ points over [0, T].
func (p *Processor) timeGrid() []float64 {
	return dsp.Linspace(0, p.duration, int(p.sampleRate*p.duration))
}

func (p *Processor) record(kind string, n int) {
	if p.recorder != nil {
		p.recorder.AddSamples(kind, n)
	}
}

// Spectrum is the one-sided FFT spectrum of signal at the processor's rate.
func (p *Processor) Spectrum(signal []float64) model.Spectrum {
	return dsp.Spectrum(signal, p.sampleRate)
}

func finite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number", model.ErrInvalidParameter, name)
	}
	return nil
}

func nonNegative(name string, v float64) error {
	if err := finite(name, v); err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("%w: %s must not be negative, got %g", model.ErrInvalidParameter, name, v)
	}
	return nil
}

func positive(name string, v float64) error {
	if err := finite(name, v); err != nil {
		return err
	}
	if v <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %g", model.ErrInvalidParameter, name, v)
	}
	return nil
}
