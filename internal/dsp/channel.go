package dsp

import (
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"
)

// RayleighSigma is the scale of the fading amplitude distribution.
const RayleighSigma = 0.5

// Channel applies random impairments to a signal. The source is injectable
// so tests and the CLI can reproduce runs; a Channel is safe for concurrent
// use.
type Channel struct {
	mu  sync.Mutex
	src rand.Source
}

// NewChannel returns a Channel seeded deterministically from seed.
func NewChannel(seed uint64) *Channel {
	return &Channel{src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// NewChannelFromSource wraps an existing source.
func NewChannelFromSource(src rand.Source) *Channel {
	return &Channel{src: src}
}

// AddNoise adds white Gaussian noise so that the result has the requested
// SNR relative to the mean power of signal.
func (c *Channel) AddNoise(signal []float64, snrDB float64) []float64 {
	out := make([]float64, len(signal))
	if len(signal) == 0 {
		return out
	}
	noisePower := MeanPower(signal) / math.Pow(10, snrDB/10)

	c.mu.Lock()
	defer c.mu.Unlock()
	n := distuv.Normal{Mu: 0, Sigma: math.Sqrt(noisePower), Src: c.src}
	for i, v := range signal {
		out[i] = v + n.Rand()
	}
	return out
}

// RayleighFade multiplies every sample by an independent Rayleigh-distributed
// amplitude with scale RayleighSigma.
func (c *Channel) RayleighFade(signal []float64) []float64 {
	out := make([]float64, len(signal))

	c.mu.Lock()
	defer c.mu.Unlock()
	// Rayleigh(σ) is Weibull with shape 2 and scale σ√2.
	r := distuv.Weibull{K: 2, Lambda: RayleighSigma * math.Sqrt2, Src: c.src}
	for i, v := range signal {
		out[i] = v * r.Rand()
	}
	return out
}
