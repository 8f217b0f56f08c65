// Package dsp provides the numeric building blocks shared by the signal
// processor and the channel simulator: sample grids, spectra, channel
// impairments and smoothing.
package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"

	"github.com/signalsfoundry/rfvision/model"
)

// Linspace returns num evenly spaced values over [start, stop], both ends
// included. num <= 0 yields an empty slice and num == 1 yields [start].
func Linspace(start, stop float64, num int) []float64 {
	if num <= 0 {
		return []float64{}
	}
	out := make([]float64, num)
	if num == 1 {
		out[0] = start
		return out
	}
	return floats.Span(out, start, stop)
}

// Spectrum computes the one-sided spectrum of a real signal sampled at
// sampleRate. Only non-negative frequency bins are kept: for n samples that
// is bins 0 … ⌈n/2⌉-1, at k·fs/n Hz.
func Spectrum(signal []float64, sampleRate float64) model.Spectrum {
	n := len(signal)
	if n == 0 {
		return model.Spectrum{Frequencies: []float64{}, Magnitude: []float64{}, Phase: []float64{}}
	}
	coeffs := fourier.NewFFT(n).Coefficients(nil, signal)

	keep := (n + 1) / 2
	sp := model.Spectrum{
		Frequencies: make([]float64, keep),
		Magnitude:   make([]float64, keep),
		Phase:       make([]float64, keep),
	}
	for k := 0; k < keep; k++ {
		sp.Frequencies[k] = float64(k) * sampleRate / float64(n)
		sp.Magnitude[k] = cmplx.Abs(coeffs[k])
		sp.Phase[k] = cmplx.Phase(coeffs[k])
	}
	return sp
}

// PeakFrequency returns the frequency of the strongest non-DC bin, or 0 when
// the spectrum has fewer than two bins.
func PeakFrequency(sp model.Spectrum) float64 {
	if len(sp.Magnitude) < 2 {
		return 0
	}
	idx := floats.MaxIdx(sp.Magnitude[1:]) + 1
	return sp.Frequencies[idx]
}

// MeanPower is the mean of the squared samples.
func MeanPower(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	return floats.Dot(signal, signal) / float64(len(signal))
}

// MovingAverage smooths x with a boxcar of width w and returns a slice of
// the same length, centred like a "same"-mode convolution: output i averages
// the window ending at i+(w-1)/2, with samples outside x counted as zero.
func MovingAverage(x []float64, w int) []float64 {
	out := make([]float64, len(x))
	if w <= 1 {
		copy(out, x)
		return out
	}
	prefix := make([]float64, len(x)+1)
	for i, v := range x {
		prefix[i+1] = prefix[i] + v
	}
	shift := (w - 1) / 2
	for i := range x {
		hi := min(i+shift, len(x)-1)
		lo := max(i+shift-w+1, 0)
		if hi < lo {
			continue
		}
		out[i] = (prefix[hi+1] - prefix[lo]) / float64(w)
	}
	return out
}

// Envelope returns |x| sample-wise.
func Envelope(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Abs(v)
	}
	return out
}

// TheoreticalBER is the illustrative bit error rate curve plotted on the
// performance chart for a modulation type at snrDB. The curves are coarse
// teaching approximations, not closed-form detector results.
func TheoreticalBER(m model.ModulationType, snrDB float64) float64 {
	switch m {
	case model.ModulationASK:
		return math.Pow(10, -snrDB/5-1)
	case model.ModulationFSK:
		return math.Pow(10, -snrDB/4-1.5)
	case model.ModulationPSK:
		return math.Pow(10, -snrDB/3-2)
	default:
		return math.NaN()
	}
}

// BERCurve evaluates TheoreticalBER at every integer SNR from 0 to maxSNR dB.
func BERCurve(m model.ModulationType, maxSNR int) []float64 {
	out := make([]float64, 0, maxSNR+1)
	for snr := 0; snr <= maxSNR; snr++ {
		out = append(out, TheoreticalBER(m, float64(snr)))
	}
	return out
}
