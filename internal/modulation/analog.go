package modulation

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/rfvision/model"
)

// Waveform is a single generated tone.
type Waveform struct {
	Time      []float64 `json:"time"`
	Amplitude []float64 `json:"amplitude"`
	Frequency float64   `json:"frequency"`
	Type      string    `json:"type"`
}

// Carrier returns A·cos(2πft) over the processor's time grid.
func (p *Processor) Carrier(frequency, amplitude float64) (Waveform, error) {
	return p.tone("carrier", math.Cos, frequency, amplitude)
}

// ModulatingSignal returns the baseband tone A·sin(2πft).
func (p *Processor) ModulatingSignal(frequency, amplitude float64) (Waveform, error) {
	return p.tone("modulation", math.Sin, frequency, amplitude)
}

func (p *Processor) tone(kind string, fn func(float64) float64, frequency, amplitude float64) (Waveform, error) {
	if err := nonNegative("frequency", frequency); err != nil {
		return Waveform{}, err
	}
	if err := finite("amplitude", amplitude); err != nil {
		return Waveform{}, err
	}
	t := p.timeGrid()
	out := make([]float64, len(t))
	for i, ti := range t {
		out[i] = amplitude * fn(2*math.Pi*frequency*ti)
	}
	p.record(kind, len(out))
	return Waveform{Time: t, Amplitude: out, Frequency: frequency, Type: kind}, nil
}

// AMResult is an amplitude-modulated carrier with its envelope.
type AMResult struct {
	Time          []float64 `json:"time"`
	Carrier       []float64 `json:"carrier"`
	Modulation    []float64 `json:"modulation"`
	Signal        []float64 `json:"am_signal"`
	EnvelopeUpper []float64 `json:"envelope_upper"`
	EnvelopeLower []float64 `json:"envelope_lower"`
	CarrierFreq   float64   `json:"carrier_freq"`
	ModFreq       float64   `json:"mod_freq"`
	ModDepth      float64   `json:"mod_depth"`
	Type          string    `json:"type"`
}

// AM computes y(t) = [1 + m·cos(2πfm·t)]·cos(2πfc·t).
func (p *Processor) AM(carrierFreq, modFreq, depth float64) (AMResult, error) {
	if err := p.analogInputs(carrierFreq, modFreq); err != nil {
		return AMResult{}, err
	}
	if err := nonNegative("modulation depth", depth); err != nil {
		return AMResult{}, err
	}
	t := p.timeGrid()
	n := len(t)
	res := AMResult{
		Time:          t,
		Carrier:       make([]float64, n),
		Modulation:    make([]float64, n),
		Signal:        make([]float64, n),
		EnvelopeUpper: make([]float64, n),
		EnvelopeLower: make([]float64, n),
		CarrierFreq:   carrierFreq,
		ModFreq:       modFreq,
		ModDepth:      depth,
		Type:          string(model.AnalogAM),
	}
	for i, ti := range t {
		c := math.Cos(2 * math.Pi * carrierFreq * ti)
		m := math.Cos(2 * math.Pi * modFreq * ti)
		env := 1 + depth*m
		res.Carrier[i] = c
		res.Modulation[i] = m
		res.Signal[i] = env * c
		res.EnvelopeUpper[i] = env
		res.EnvelopeLower[i] = -env
	}
	p.record("am", n)
	return res, nil
}

// FMResult is a frequency-modulated carrier with its instantaneous
// frequency.
type FMResult struct {
	Time               []float64 `json:"time"`
	Modulation         []float64 `json:"modulation"`
	Signal             []float64 `json:"fm_signal"`
	InstantaneousFreq  []float64 `json:"instantaneous_freq"`
	CarrierFreq        float64   `json:"carrier_freq"`
	ModFreq            float64   `json:"mod_freq"`
	FrequencyDeviation float64   `json:"frequency_deviation"`
	ModulationIndex    float64   `json:"modulation_index"`
	Type               string    `json:"type"`
}

// FM computes y(t) = cos(2πfc·t + β·sin(2πfm·t)) with β = Δf/fm.
func (p *Processor) FM(carrierFreq, modFreq, deviation float64) (FMResult, error) {
	if err := p.analogInputs(carrierFreq, modFreq); err != nil {
		return FMResult{}, err
	}
	if err := positive("modulating frequency", modFreq); err != nil {
		return FMResult{}, err
	}
	if err := nonNegative("frequency deviation", deviation); err != nil {
		return FMResult{}, err
	}
	t := p.timeGrid()
	n := len(t)
	beta := deviation / modFreq
	res := FMResult{
		Time:               t,
		Modulation:         make([]float64, n),
		Signal:             make([]float64, n),
		InstantaneousFreq:  make([]float64, n),
		CarrierFreq:        carrierFreq,
		ModFreq:            modFreq,
		FrequencyDeviation: deviation,
		ModulationIndex:    beta,
		Type:               string(model.AnalogFM),
	}
	for i, ti := range t {
		m := math.Cos(2 * math.Pi * modFreq * ti)
		res.Modulation[i] = m
		res.Signal[i] = math.Cos(2*math.Pi*carrierFreq*ti + beta*math.Sin(2*math.Pi*modFreq*ti))
		res.InstantaneousFreq[i] = carrierFreq + deviation*m
	}
	p.record("fm", n)
	return res, nil
}

// PMResult is a phase-modulated carrier with its instantaneous phase.
type PMResult struct {
	Time               []float64 `json:"time"`
	Modulation         []float64 `json:"modulation"`
	Signal             []float64 `json:"pm_signal"`
	InstantaneousPhase []float64 `json:"instantaneous_phase"`
	CarrierFreq        float64   `json:"carrier_freq"`
	ModFreq            float64   `json:"mod_freq"`
	PhaseDeviation     float64   `json:"phase_deviation"`
	Type               string    `json:"type"`
}

// DefaultPhaseDeviation is π/4 radians.
const DefaultPhaseDeviation = math.Pi / 4

// PM computes y(t) = cos(2πfc·t + Δφ·cos(2πfm·t)).
func (p *Processor) PM(carrierFreq, modFreq, phaseDeviation float64) (PMResult, error) {
	if err := p.analogInputs(carrierFreq, modFreq); err != nil {
		return PMResult{}, err
	}
	if err := finite("phase deviation", phaseDeviation); err != nil {
		return PMResult{}, err
	}
	t := p.timeGrid()
	n := len(t)
	res := PMResult{
		Time:               t,
		Modulation:         make([]float64, n),
		Signal:             make([]float64, n),
		InstantaneousPhase: make([]float64, n),
		CarrierFreq:        carrierFreq,
		ModFreq:            modFreq,
		PhaseDeviation:     phaseDeviation,
		Type:               string(model.AnalogPM),
	}
	for i, ti := range t {
		m := math.Cos(2 * math.Pi * modFreq * ti)
		res.Modulation[i] = m
		res.Signal[i] = math.Cos(2*math.Pi*carrierFreq*ti + phaseDeviation*m)
		res.InstantaneousPhase[i] = phaseDeviation * m
	}
	p.record("pm", n)
	return res, nil
}

func (p *Processor) analogInputs(carrierFreq, modFreq float64) error {
	if err := nonNegative("carrier frequency", carrierFreq); err != nil {
		return err
	}
	if err := nonNegative("modulating frequency", modFreq); err != nil {
		return err
	}
	if nyquist := p.sampleRate / 2; carrierFreq > nyquist {
		return fmt.Errorf("%w: carrier frequency %g Hz is above the %g Hz Nyquist limit",
			model.ErrInvalidParameter, carrierFreq, nyquist)
	}
	return nil
}
