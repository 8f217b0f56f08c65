package modulation

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/signalsfoundry/rfvision/internal/codec"
	"github.com/signalsfoundry/rfvision/internal/dsp"
	"github.com/signalsfoundry/rfvision/model"
)

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) AddSamples(kind string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[kind] += n
}

func newTestProcessor(t *testing.T, opts ...Option) *Processor {
	t.Helper()
	opts = append([]Option{WithChannel(dsp.NewChannel(99))}, opts...)
	p, err := NewProcessor(opts...)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	return p
}

func TestNewProcessorDefaults(t *testing.T) {
	p := newTestProcessor(t)
	if p.SampleRate() != 1000 || p.Duration() != 2 || p.BitRate() != 10 {
		t.Fatalf("defaults = %v/%v/%v", p.SampleRate(), p.Duration(), p.BitRate())
	}
	if _, err := NewProcessor(WithSampleRate(0)); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("zero sample rate err = %v", err)
	}
	if _, err := NewProcessor(WithDuration(math.NaN())); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("NaN duration err = %v", err)
	}
}

func TestCarrierAndModulatingSignal(t *testing.T) {
	rec := &countingRecorder{}
	p := newTestProcessor(t, WithRecorder(rec))

	c, err := p.Carrier(10, 2)
	if err != nil {
		t.Fatalf("Carrier: %v", err)
	}
	if len(c.Time) != 2000 || len(c.Amplitude) != 2000 {
		t.Fatalf("carrier has %d/%d samples, want 2000", len(c.Time), len(c.Amplitude))
	}
	if c.Amplitude[0] != 2 {
		t.Fatalf("cosine carrier should start at its amplitude, got %v", c.Amplitude[0])
	}
	if c.Type != "carrier" || c.Frequency != 10 {
		t.Fatalf("carrier metadata = %q/%v", c.Type, c.Frequency)
	}

	m, err := p.ModulatingSignal(5, 1)
	if err != nil {
		t.Fatalf("ModulatingSignal: %v", err)
	}
	if m.Amplitude[0] != 0 || m.Type != "modulation" {
		t.Fatalf("sine modulating signal should start at 0, got %v (%s)", m.Amplitude[0], m.Type)
	}

	if rec.counts["carrier"] != 2000 || rec.counts["modulation"] != 2000 {
		t.Fatalf("recorded samples = %v", rec.counts)
	}

	if _, err := p.Carrier(-1, 1); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("negative frequency err = %v", err)
	}
}

func TestCarrierSpectrumPeak(t *testing.T) {
	p := newTestProcessor(t)
	c, err := p.Carrier(50, 1)
	if err != nil {
		t.Fatal(err)
	}
	sp := p.Spectrum(c.Amplitude)
	if got := dsp.PeakFrequency(sp); math.Abs(got-50) > 0.5 {
		t.Fatalf("spectral peak = %v Hz, want ≈50", got)
	}
}

func TestAM(t *testing.T) {
	p := newTestProcessor(t)
	am, err := p.AM(50, 5, 0.5)
	if err != nil {
		t.Fatalf("AM: %v", err)
	}
	// At t=0 both cosines are 1, so y = 1 + m.
	if am.Signal[0] != 1.5 || am.EnvelopeUpper[0] != 1.5 || am.EnvelopeLower[0] != -1.5 {
		t.Fatalf("AM at t=0 = %v / %v / %v", am.Signal[0], am.EnvelopeUpper[0], am.EnvelopeLower[0])
	}
	for i := range am.Signal {
		if math.Abs(am.Signal[i]) > am.EnvelopeUpper[i]+1e-12 {
			t.Fatalf("sample %d escapes the envelope", i)
		}
	}
	if _, err := p.AM(600, 5, 0.5); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("carrier above Nyquist err = %v", err)
	}
}

func TestFMAndPM(t *testing.T) {
	p := newTestProcessor(t)
	fm, err := p.FM(50, 5, 10)
	if err != nil {
		t.Fatalf("FM: %v", err)
	}
	if fm.ModulationIndex != 2 {
		t.Fatalf("modulation index = %v, want 2", fm.ModulationIndex)
	}
	if fm.InstantaneousFreq[0] != 60 {
		t.Fatalf("instantaneous frequency at t=0 = %v, want 60", fm.InstantaneousFreq[0])
	}
	if _, err := p.FM(50, 0, 10); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("zero modulating frequency err = %v", err)
	}

	pm, err := p.PM(50, 5, DefaultPhaseDeviation)
	if err != nil {
		t.Fatalf("PM: %v", err)
	}
	if math.Abs(pm.Signal[0]-math.Cos(math.Pi/4)) > 1e-12 {
		t.Fatalf("PM at t=0 = %v, want cos(π/4)", pm.Signal[0])
	}
	if pm.InstantaneousPhase[0] != DefaultPhaseDeviation {
		t.Fatalf("instantaneous phase at t=0 = %v", pm.InstantaneousPhase[0])
	}
}

func TestBasebandCodings(t *testing.T) {
	p := newTestProcessor(t)
	tests := []struct {
		coding model.LineCoding
		// values at samples 0, 60 (first bit) and 100, 160 (second bit)
		want [4]float64
	}{
		{model.CodingNRZ, [4]float64{1, 1, -1, -1}},
		{model.CodingRZ, [4]float64{1, 0, 0, 0}},
		{model.CodingManchester, [4]float64{-1, 1, 1, -1}},
	}
	for _, tc := range tests {
		bb, err := p.Baseband("10", 10, tc.coding)
		if err != nil {
			t.Fatalf("%s: %v", tc.coding, err)
		}
		if len(bb.Amplitude) != 200 {
			t.Fatalf("%s: %d samples, want 200", tc.coding, len(bb.Amplitude))
		}
		got := [4]float64{bb.Amplitude[0], bb.Amplitude[60], bb.Amplitude[100], bb.Amplitude[160]}
		if got != tc.want {
			t.Fatalf("%s: samples = %v, want %v", tc.coding, got, tc.want)
		}
	}
	if bb, _ := p.Baseband("10", 10, model.CodingNRZ); bb.Time[len(bb.Time)-1] != 0.2 {
		t.Fatalf("time grid should end at len(bits)/bitRate")
	}

	if _, err := p.Baseband("10", 10, "4B5B"); !errors.Is(err, model.ErrUnknownCoding) {
		t.Fatalf("unknown coding err = %v", err)
	}
	if _, err := p.Baseband("1x", 10, model.CodingNRZ); !errors.Is(err, codec.ErrInvalidBits) {
		t.Fatalf("bad bits err = %v", err)
	}
	if _, err := p.Baseband("10", 5000, model.CodingNRZ); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("bit rate above sample rate err = %v", err)
	}
}

func TestASKAndPSKFromBaseband(t *testing.T) {
	p := newTestProcessor(t)
	bb, err := p.Baseband("10", 10, model.CodingNRZ)
	if err != nil {
		t.Fatal(err)
	}
	ask, err := p.ASK(bb.Amplitude, bb.Time, 100)
	if err != nil {
		t.Fatal(err)
	}
	if ask.Signal[0] != 1 || ask.Type != model.ModulationASK {
		t.Fatalf("ASK '1' at t=0 = %v (%s)", ask.Signal[0], ask.Type)
	}
	for i := 100; i < 200; i++ {
		if ask.Signal[i] != 0 {
			t.Fatalf("ASK '0' should be silent, sample %d = %v", i, ask.Signal[i])
		}
	}

	psk, err := p.PSK(bb.Amplitude, bb.Time, 100)
	if err != nil {
		t.Fatal(err)
	}
	for i := 100; i < 200; i++ {
		if psk.Signal[i] != -psk.Carrier[i] {
			t.Fatalf("PSK '0' should invert the carrier at sample %d", i)
		}
	}

	if _, err := p.ASK(bb.Amplitude[:10], bb.Time, 100); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("length mismatch err = %v", err)
	}
}

func TestFSK(t *testing.T) {
	p := newTestProcessor(t)
	f0, f1 := FSKFrequencies(100)
	if f0 != 80 || f1 != 120 {
		t.Fatalf("FSK tones = %v/%v, want 80/120", f0, f1)
	}
	fsk, err := p.FSK("01", f0, f1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if fsk.FrequencyTrace[0] != 80 || fsk.FrequencyTrace[150] != 120 {
		t.Fatalf("frequency trace = %v, %v", fsk.FrequencyTrace[0], fsk.FrequencyTrace[150])
	}
}

func TestBitDemo(t *testing.T) {
	p := newTestProcessor(t)
	tests := []struct {
		bit   string
		mod   model.ModulationType
		first float64
		desc  string
	}{
		{"0", model.ModulationASK, 0.3, "bit '0' → amplitude = 0.3"},
		{"1", model.ModulationASK, 1, "bit '1' → amplitude = 1.0"},
		{"1", model.ModulationFSK, 1, "bit '1' → frequency = 120 Hz"},
		{"0", model.ModulationFSK, 1, "bit '0' → frequency = 80 Hz"},
		{"1", model.ModulationPSK, -1, "bit '1' → phase = 1π"},
		{"0", model.ModulationPSK, 1, "bit '0' → phase = 0π"},
	}
	for _, tc := range tests {
		res, err := p.BitDemo(tc.bit, 100, tc.mod, 0.1)
		if err != nil {
			t.Fatalf("%s/%s: %v", tc.mod, tc.bit, err)
		}
		if len(res.Time) != 100 {
			t.Fatalf("%s/%s: %d samples, want 100", tc.mod, tc.bit, len(res.Time))
		}
		if math.Abs(res.Modulated[0]-tc.first) > 1e-12 {
			t.Errorf("%s/%s: first sample = %v, want %v", tc.mod, tc.bit, res.Modulated[0], tc.first)
		}
		if res.Description != tc.desc {
			t.Errorf("%s/%s: description = %q, want %q", tc.mod, tc.bit, res.Description, tc.desc)
		}
	}

	if _, err := p.BitDemo("2", 100, model.ModulationASK, 0.1); !errors.Is(err, codec.ErrInvalidBits) {
		t.Fatalf("bad bit err = %v", err)
	}
	if _, err := p.BitDemo("1", 100, "QAM", 0.1); !errors.Is(err, model.ErrUnknownModulation) {
		t.Fatalf("bad modulation err = %v", err)
	}
}

func TestDemodulateCleanSignals(t *testing.T) {
	p := newTestProcessor(t)
	const bits = "1011001110001101"
	bb, err := p.Baseband(bits, 10, model.CodingNRZ)
	if err != nil {
		t.Fatal(err)
	}

	ask, _ := p.ASK(bb.Amplitude, bb.Time, 100)
	got, err := p.DemodulateASK(ask.Signal, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got.RecoveredBinary != bits {
		t.Fatalf("ASK recovered %q, want %q", got.RecoveredBinary, bits)
	}
	if len(got.Envelope) != len(ask.Signal) || len(got.Filtered) != len(ask.Signal) {
		t.Fatalf("envelope/filtered lengths wrong")
	}

	psk, _ := p.PSK(bb.Amplitude, bb.Time, 100)
	got, err = p.Demodulate(model.ModulationPSK, psk.Signal, psk.Time, 100, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got.RecoveredBinary != bits {
		t.Fatalf("PSK recovered %q, want %q", got.RecoveredBinary, bits)
	}

	f0, f1 := FSKFrequencies(100)
	fsk, _ := p.FSK(bits, f0, f1, 10)
	got, err = p.Demodulate(model.ModulationFSK, fsk.Signal, fsk.Time, 100, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got.RecoveredBinary != bits {
		t.Fatalf("FSK recovered %q, want %q", got.RecoveredBinary, bits)
	}

	if _, err := p.DemodulateASK(nil, 10); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("empty signal err = %v", err)
	}
	if _, err := p.Demodulate("QAM", ask.Signal, ask.Time, 100, 10); !errors.Is(err, model.ErrUnknownModulation) {
		t.Fatalf("unknown modulation err = %v", err)
	}
}

func TestBER(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"1010", "1010", 0},
		{"1010", "0101", 1},
		{"1010", "1000", 0.25},
		{"1010", "10", 0},
		{"", "1", 1},
		{"", "", 1},
	}
	for _, tc := range tests {
		if got := BER(tc.a, tc.b); got != tc.want {
			t.Errorf("BER(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSimulateTransmissionHighSNR(t *testing.T) {
	for _, m := range model.Modulations {
		t.Run(string(m), func(t *testing.T) {
			p := newTestProcessor(t)
			res, err := p.SimulateTransmission("Hi", 100, 10, 30, m)
			if err != nil {
				t.Fatalf("SimulateTransmission: %v", err)
			}
			if res.BinaryData != "0100100001101001" {
				t.Fatalf("binary = %q", res.BinaryData)
			}
			if res.BER != 0 || res.RecoveredText != "Hi" {
				t.Fatalf("BER = %v, recovered %q", res.BER, res.RecoveredText)
			}
			if len(res.ReceivedSignal) != len(res.ModulatedSignal) {
				t.Fatalf("received/modulated length mismatch")
			}
			want := TransmissionParams{CarrierFreq: 100, BitRate: 10, SNRdB: 30, ModulationType: m}
			if diff := cmp.Diff(want, res.Parameters); diff != "" {
				t.Fatalf("parameters (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSimulateTransmissionErrors(t *testing.T) {
	p := newTestProcessor(t)
	if _, err := p.SimulateTransmission("", 100, 10, 20, model.ModulationASK); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("empty text err = %v", err)
	}
	if _, err := p.SimulateTransmission("☃", 100, 10, 20, model.ModulationASK); !errors.Is(err, codec.ErrUnsupportedCharacter) {
		t.Fatalf("wide rune err = %v", err)
	}
	if _, err := p.SimulateTransmission("a", 100, 10, 20, "OOK"); !errors.Is(err, model.ErrUnknownModulation) {
		t.Fatalf("unknown modulation err = %v", err)
	}
	if _, err := p.SimulateTransmission("a", 10, 10, 20, model.ModulationFSK); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("negative FSK tone err = %v", err)
	}
}
