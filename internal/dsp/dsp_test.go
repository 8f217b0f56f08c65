package dsp

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/stat"

	"github.com/signalsfoundry/rfvision/model"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestLinspace(t *testing.T) {
	if diff := cmp.Diff([]float64{0, 0.25, 0.5, 0.75, 1}, Linspace(0, 1, 5), approx); diff != "" {
		t.Fatalf("Linspace mismatch (-want +got):\n%s", diff)
	}
	if got := Linspace(2, 2000, 1); len(got) != 1 || got[0] != 2 {
		t.Fatalf("Linspace num=1 = %v", got)
	}
	if got := Linspace(0, 1, 0); len(got) != 0 {
		t.Fatalf("Linspace num=0 = %v", got)
	}
	// Endpoint is included exactly, as the 2 s / 2000-sample grid relies on.
	grid := Linspace(0, 2, 2000)
	if grid[len(grid)-1] != 2 {
		t.Fatalf("last sample = %v, want 2", grid[len(grid)-1])
	}
}

func TestSpectrumFindsTone(t *testing.T) {
	const fs = 1000.0
	n := 1000
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Cos(2 * math.Pi * 50 * float64(i) / fs)
	}
	sp := Spectrum(x, fs)
	if len(sp.Frequencies) != 500 {
		t.Fatalf("bins = %d, want 500", len(sp.Frequencies))
	}
	if got := PeakFrequency(sp); got != 50 {
		t.Fatalf("peak = %v Hz, want 50", got)
	}
	// A unit cosine over n samples puts n/2 in its bin.
	if got := sp.Magnitude[50]; math.Abs(got-500) > 1e-6 {
		t.Fatalf("|X[50]| = %v, want 500", got)
	}
	if sp.Frequencies[1] != 1 {
		t.Fatalf("bin spacing = %v, want 1 Hz", sp.Frequencies[1])
	}
}

func TestSpectrumOddLengthAndEmpty(t *testing.T) {
	sp := Spectrum([]float64{1, 2, 3, 4, 5}, 10)
	if len(sp.Frequencies) != 3 {
		t.Fatalf("odd-length bins = %d, want 3", len(sp.Frequencies))
	}
	if sp.Magnitude[0] != 15 {
		t.Fatalf("DC = %v, want 15", sp.Magnitude[0])
	}
	if empty := Spectrum(nil, 10); len(empty.Magnitude) != 0 {
		t.Fatalf("empty spectrum has %d bins", len(empty.Magnitude))
	}
}

func TestMovingAverageSameMode(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	// Width 3: windows centred on each sample, zero padded at the edges.
	want := []float64{1, 2, 3, 4, 3}
	if diff := cmp.Diff(want, MovingAverage(x, 3), approx); diff != "" {
		t.Fatalf("MovingAverage w=3 (-want +got):\n%s", diff)
	}
	// Even width leans on the later samples, like numpy's "same" mode.
	wantEven := []float64{0.5, 1.5, 2.5, 3.5, 4.5}
	if diff := cmp.Diff(wantEven, MovingAverage(x, 2), approx); diff != "" {
		t.Fatalf("MovingAverage w=2 (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(x, MovingAverage(x, 1)); diff != "" {
		t.Fatalf("w=1 should copy input:\n%s", diff)
	}
}

func TestEnvelopeAndPower(t *testing.T) {
	if diff := cmp.Diff([]float64{1, 0, 2}, Envelope([]float64{-1, 0, 2})); diff != "" {
		t.Fatalf("Envelope:\n%s", diff)
	}
	if got := MeanPower([]float64{1, -1, 1, -1}); got != 1 {
		t.Fatalf("MeanPower = %v, want 1", got)
	}
	if MeanPower(nil) != 0 {
		t.Fatalf("MeanPower(nil) should be 0")
	}
}

func TestTheoreticalBER(t *testing.T) {
	if got := TheoreticalBER(model.ModulationASK, 0); math.Abs(got-0.1) > 1e-12 {
		t.Fatalf("ASK@0dB = %v, want 0.1", got)
	}
	if got := TheoreticalBER(model.ModulationPSK, 3); math.Abs(got-1e-3) > 1e-15 {
		t.Fatalf("PSK@3dB = %v, want 1e-3", got)
	}
	curve := BERCurve(model.ModulationFSK, 20)
	if len(curve) != 21 {
		t.Fatalf("curve len = %d, want 21", len(curve))
	}
	for i := 1; i < len(curve); i++ {
		if curve[i] >= curve[i-1] {
			t.Fatalf("FSK curve not decreasing at %d", i)
		}
	}
	// PSK outperforms ASK at every SNR on the chart.
	for snr := 0.0; snr <= 20; snr++ {
		if TheoreticalBER(model.ModulationPSK, snr) >= TheoreticalBER(model.ModulationASK, snr) {
			t.Fatalf("PSK should beat ASK at %v dB", snr)
		}
	}
	if !math.IsNaN(TheoreticalBER("QAM", 10)) {
		t.Fatalf("unknown modulation should give NaN")
	}
}

func TestAddNoiseHitsTargetSNR(t *testing.T) {
	ch := NewChannel(42)
	n := 20000
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Cos(2 * math.Pi * float64(i) / 50)
	}
	y := ch.AddNoise(x, 10)

	noise := make([]float64, n)
	for i := range x {
		noise[i] = y[i] - x[i]
	}
	snr := 10 * math.Log10(MeanPower(x)/MeanPower(noise))
	if math.Abs(snr-10) > 0.3 {
		t.Fatalf("measured SNR = %.2f dB, want ≈10", snr)
	}
	if m := stat.Mean(noise, nil); math.Abs(m) > 0.02 {
		t.Fatalf("noise mean = %v, want ≈0", m)
	}
}

func TestChannelIsReproducible(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	a := NewChannel(7).AddNoise(x, 5)
	b := NewChannel(7).AddNoise(x, 5)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different noise:\n%s", diff)
	}
	if len(NewChannel(1).AddNoise(nil, 5)) != 0 {
		t.Fatalf("empty input should stay empty")
	}
}

func TestRayleighFadeMean(t *testing.T) {
	ch := NewChannel(3)
	ones := make([]float64, 20000)
	for i := range ones {
		ones[i] = 1
	}
	faded := ch.RayleighFade(ones)
	// E[R] = σ·√(π/2).
	want := RayleighSigma * math.Sqrt(math.Pi/2)
	if got := stat.Mean(faded, nil); math.Abs(got-want) > 0.02 {
		t.Fatalf("mean fading amplitude = %v, want ≈%v", got, want)
	}
	// Var[R] = (4-π)/2·σ².
	wantSD := RayleighSigma * math.Sqrt((4-math.Pi)/2)
	if got := stat.StdDev(faded, nil); math.Abs(got-wantSD) > 0.02 {
		t.Fatalf("fading amplitude stddev = %v, want ≈%v", got, wantSD)
	}
	for _, v := range faded {
		if v < 0 {
			t.Fatalf("Rayleigh amplitude must be non-negative, got %v", v)
		}
	}
}
