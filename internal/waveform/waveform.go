// Package waveform holds the pure samplers behind every drawn or generated
// signal: a sampler maps time in seconds to an instantaneous amplitude.
package waveform

import (
	"math"

	"github.com/signalsfoundry/rfvision/model"
)

// Sampler evaluates a signal at time t (seconds).
type Sampler func(t float64) float64

// Shape is the base oscillation a keying profile modulates.
type Shape int

const (
	Sine Shape = iota
	Cosine
)

func (s Shape) eval(x float64) float64 {
	if s == Cosine {
		return math.Cos(x)
	}
	return math.Sin(x)
}

// FrequencyShift maps the carrier to a keyed frequency: f = fc·Scale + Offset.
type FrequencyShift struct {
	Scale  float64
	Offset float64
}

func (f FrequencyShift) apply(fc float64) float64 { return fc*f.Scale + f.Offset }

// Keying describes how a bit value changes the carrier. Two profiles exist
// because the per-bit canvases and the reference generator key differently.
type Keying struct {
	Name string
	// ASKLow is the relative amplitude of a '0' under ASK.
	ASKLow  float64
	FSKOne  FrequencyShift
	FSKZero FrequencyShift
	Shape   Shape
}

var (
	// CanvasKeying matches the demo canvases: sine carrier, a '0' at 10%
	// amplitude, FSK at 1.5× and 0.7× the carrier.
	CanvasKeying = Keying{
		Name:    "canvas",
		ASKLow:  0.1,
		FSKOne:  FrequencyShift{Scale: 1.5},
		FSKZero: FrequencyShift{Scale: 0.7},
		Shape:   Sine,
	}
	// ReferenceKeying matches the single-bit generator: cosine carrier, a
	// '0' at 30% amplitude, FSK at the carrier ±20 Hz.
	ReferenceKeying = Keying{
		Name:    "reference",
		ASKLow:  0.3,
		FSKOne:  FrequencyShift{Scale: 1, Offset: 20},
		FSKZero: FrequencyShift{Scale: 1, Offset: -20},
		Shape:   Cosine,
	}
	// PreviewKeying is used by the small per-bit thumbnails.
	PreviewKeying = Keying{
		Name:    "preview",
		ASKLow:  0.3,
		FSKOne:  FrequencyShift{Scale: 1.5},
		FSKZero: FrequencyShift{Scale: 1},
		Shape:   Sine,
	}
)

// Params are the carrier parameters shared by every keyed sampler.
type Params struct {
	Modulation model.ModulationType
	CarrierHz  float64
	Amplitude  float64
	Phase      float64 // radians
}

// FSKFrequency returns the frequency a bit is sent at under k.
func (k Keying) FSKFrequency(carrierHz float64, one bool) float64 {
	if one {
		return k.FSKOne.apply(carrierHz)
	}
	return k.FSKZero.apply(carrierHz)
}

// Sample evaluates the keyed carrier for a single bit at time t. Unknown
// modulation types yield 0.
func (k Keying) Sample(p Params, one bool, t float64) float64 {
	switch p.Modulation {
	case model.ModulationASK:
		a := p.Amplitude
		if !one {
			a *= k.ASKLow
		}
		return a * k.Shape.eval(2*math.Pi*p.CarrierHz*t+p.Phase)
	case model.ModulationFSK:
		f := k.FSKFrequency(p.CarrierHz, one)
		return p.Amplitude * k.Shape.eval(2*math.Pi*f*t+p.Phase)
	case model.ModulationPSK:
		shift := 0.0
		if one {
			shift = math.Pi
		}
		return p.Amplitude * k.Shape.eval(2*math.Pi*p.CarrierHz*t+p.Phase+shift)
	default:
		return 0
	}
}

// Bit returns a sampler for one bit held for all t.
func (k Keying) Bit(p Params, one bool) Sampler {
	return func(t float64) float64 { return k.Sample(p, one, t) }
}

// Bitstream returns a sampler that keys bits[floor(t/bitDuration)]. Indices
// before the start or past the end read as '0'.
func (k Keying) Bitstream(p Params, bits string, bitDuration float64) Sampler {
	return func(t float64) float64 {
		return k.Sample(p, BitAt(bits, bitDuration, t), t)
	}
}

// BitAt reports whether the bit active at time t is a '1'.
func BitAt(bits string, bitDuration, t float64) bool {
	if bitDuration <= 0 || t < 0 {
		return false
	}
	idx := int(math.Floor(t / bitDuration))
	if idx >= len(bits) {
		return false
	}
	return bits[idx] == '1'
}

// Carrier returns the unmodulated carrier A·shape(2πft + φ).
func Carrier(shape Shape, p Params) Sampler {
	return func(t float64) float64 {
		return p.Amplitude * shape.eval(2*math.Pi*p.CarrierHz*t+p.Phase)
	}
}

// Level returns a constant digital level: high for a '1', low otherwise.
func Level(one bool, high, low float64) Sampler {
	v := low
	if one {
		v = high
	}
	return func(float64) float64 { return v }
}

// SampleRange evaluates s at n+1 evenly spaced points covering [t0, t1]
// inclusive, i.e. one sample per pixel column of an n-pixel-wide plot.
// n == 0 yields the single sample s(t0); negative n yields nil.
func SampleRange(s Sampler, n int, t0, t1 float64) []float64 {
	if n < 0 {
		return nil
	}
	out := make([]float64, n+1)
	if n == 0 {
		out[0] = s(t0)
		return out
	}
	span := t1 - t0
	for i := 0; i <= n; i++ {
		out[i] = s(t0 + float64(i)/float64(n)*span)
	}
	return out
}
