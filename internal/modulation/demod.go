package modulation

import (
	"fmt"
	"math"
	"strings"

	"github.com/signalsfoundry/rfvision/internal/dsp"
	"github.com/signalsfoundry/rfvision/model"
)

// ASKThreshold is the decision level applied to the smoothed envelope.
const ASKThreshold = 0.5

// Demodulated is the output of a detector.
type Demodulated struct {
	// Envelope and Filtered are only populated by the ASK envelope detector.
	Envelope []float64 `json:"envelope,omitempty"`
	Filtered []float64 `json:"filtered,omitempty"`
	// Decision holds the per-bit detector statistic that was compared
	// against the threshold.
	Decision        []float64 `json:"decision"`
	RecoveredBinary string    `json:"recovered_binary"`
	Type            string    `json:"type"`
}

// bitWindows yields [start, end) sample ranges, one per bit, for every bit
// whose midpoint falls inside the signal.
func bitWindows(n, spb int) [][2]int {
	var out [][2]int
	for i := 0; i < n; i += spb {
		if i+spb/2 < n {
			out = append(out, [2]int{i, min(i+spb, n)})
		}
	}
	return out
}

func (p *Processor) demodGrid(n int, bitRate float64) (int, error) {
	if n == 0 {
		return 0, fmt.Errorf("%w: signal is empty", model.ErrInvalidParameter)
	}
	if err := positive("bit rate", bitRate); err != nil {
		return 0, err
	}
	spb := p.SamplesPerBit(bitRate)
	if spb < 1 {
		return 0, fmt.Errorf("%w: bit rate %g exceeds the %g Hz sample rate",
			model.ErrInvalidParameter, bitRate, p.sampleRate)
	}
	return spb, nil
}

// DemodulateASK recovers bits with an envelope detector: rectify, smooth
// with a moving average of fs/(5·bitRate) samples, then sample the middle of
// every bit against ASKThreshold.
func (p *Processor) DemodulateASK(signal []float64, bitRate float64) (Demodulated, error) {
	spb, err := p.demodGrid(len(signal), bitRate)
	if err != nil {
		return Demodulated{}, err
	}
	envelope := dsp.Envelope(signal)
	window := max(1, int(p.sampleRate/(5*bitRate)))
	filtered := dsp.MovingAverage(envelope, window)

	var bits strings.Builder
	var decision []float64
	for _, w := range bitWindows(len(signal), spb) {
		v := filtered[w[0]+spb/2]
		decision = append(decision, v)
		bits.WriteByte(bitChar(v > ASKThreshold))
	}
	return Demodulated{
		Envelope:        envelope,
		Filtered:        filtered,
		Decision:        decision,
		RecoveredBinary: bits.String(),
		Type:            "ASK_demodulation",
	}, nil
}

// DemodulatePSK is a coherent detector: each bit window is correlated with
// the reference carrier and a positive correlation decodes as '1'.
func (p *Processor) DemodulatePSK(signal, t []float64, carrierFreq, bitRate float64) (Demodulated, error) {
	if len(signal) != len(t) {
		return Demodulated{}, fmt.Errorf("%w: signal has %d samples but time has %d",
			model.ErrInvalidParameter, len(signal), len(t))
	}
	spb, err := p.demodGrid(len(signal), bitRate)
	if err != nil {
		return Demodulated{}, err
	}
	var bits strings.Builder
	var decision []float64
	for _, w := range bitWindows(len(signal), spb) {
		corr := 0.0
		for i := w[0]; i < w[1]; i++ {
			corr += signal[i] * math.Cos(2*math.Pi*carrierFreq*t[i])
		}
		decision = append(decision, corr)
		bits.WriteByte(bitChar(corr > 0))
	}
	return Demodulated{Decision: decision, RecoveredBinary: bits.String(), Type: "PSK_demodulation"}, nil
}

// DemodulateFSK is a non-coherent energy detector: each bit window's energy
// at freq1 is compared with its energy at freq0 and the louder tone wins.
// Decision holds E(f1) - E(f0).
func (p *Processor) DemodulateFSK(signal, t []float64, freq0, freq1, bitRate float64) (Demodulated, error) {
	if len(signal) != len(t) {
		return Demodulated{}, fmt.Errorf("%w: signal has %d samples but time has %d",
			model.ErrInvalidParameter, len(signal), len(t))
	}
	spb, err := p.demodGrid(len(signal), bitRate)
	if err != nil {
		return Demodulated{}, err
	}
	var bits strings.Builder
	var decision []float64
	for _, w := range bitWindows(len(signal), spb) {
		seg, ts := signal[w[0]:w[1]], t[w[0]:w[1]]
		d := toneEnergy(seg, ts, freq1) - toneEnergy(seg, ts, freq0)
		decision = append(decision, d)
		bits.WriteByte(bitChar(d > 0))
	}
	return Demodulated{Decision: decision, RecoveredBinary: bits.String(), Type: "FSK_demodulation"}, nil
}

// Demodulate dispatches to the detector for m. FSK uses the reference
// fc±20 Hz tone pair.
func (p *Processor) Demodulate(m model.ModulationType, signal, t []float64, carrierFreq, bitRate float64) (Demodulated, error) {
	switch m {
	case model.ModulationASK:
		return p.DemodulateASK(signal, bitRate)
	case model.ModulationPSK:
		return p.DemodulatePSK(signal, t, carrierFreq, bitRate)
	case model.ModulationFSK:
		f0, f1 := FSKFrequencies(carrierFreq)
		return p.DemodulateFSK(signal, t, f0, f1, bitRate)
	default:
		return Demodulated{}, fmt.Errorf("%w: %q", model.ErrUnknownModulation, m)
	}
}

func toneEnergy(x, t []float64, f float64) float64 {
	var i, q float64
	for k := range x {
		arg := 2 * math.Pi * f * t[k]
		i += x[k] * math.Cos(arg)
		q += x[k] * math.Sin(arg)
	}
	return i*i + q*q
}

// BER is the fraction of differing bits over the shorter of the two strings.
// With nothing to compare it is 1.
func BER(original, recovered string) float64 {
	n := min(len(original), len(recovered))
	if n == 0 {
		return 1.0
	}
	errs := 0
	for i := 0; i < n; i++ {
		if original[i] != recovered[i] {
			errs++
		}
	}
	return float64(errs) / float64(n)
}

func bitChar(one bool) byte {
	if one {
		return '1'
	}
	return '0'
}
