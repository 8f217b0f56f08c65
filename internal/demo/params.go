// Package demo is the headless controller behind the single-bit modulation
// demo: it owns the parameters, produces the display text, and redraws the
// canvas for each animation stage.
package demo

import (
	"fmt"
	"math"
	"strconv"

	"github.com/signalsfoundry/rfvision/model"
)

// Params are the user-adjustable demo inputs.
type Params struct {
	Bit         string               `json:"bit"`
	Modulation  model.ModulationType `json:"modulation_type"`
	CarrierHz   float64              `json:"carrier_freq"`
	BitDuration float64              `json:"bit_duration"`
	Amplitude   float64              `json:"amplitude"`
	Phase       float64              `json:"phase"`
}

// DefaultParams is the state a fresh demo opens with.
func DefaultParams() Params {
	return Params{
		Bit:         "0",
		Modulation:  model.ModulationASK,
		CarrierHz:   5,
		BitDuration: 1.0,
		Amplitude:   1.0,
		Phase:       0,
	}
}

func (p Params) One() bool { return p.Bit == "1" }

// Validate checks every field and wraps model.ErrInvalidParameter or
// model.ErrUnknownModulation.
func (p Params) Validate() error {
	if p.Bit != "0" && p.Bit != "1" {
		return fmt.Errorf("%w: bit must be \"0\" or \"1\", got %q", model.ErrInvalidParameter, p.Bit)
	}
	if !p.Modulation.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownModulation, p.Modulation)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"carrier_freq", p.CarrierHz},
		{"bit_duration", p.BitDuration},
		{"amplitude", p.Amplitude},
	} {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", model.ErrInvalidParameter, f.name, f.v)
		}
	}
	if math.IsNaN(p.Phase) || math.IsInf(p.Phase, 0) {
		return fmt.Errorf("%w: phase must be finite", model.ErrInvalidParameter)
	}
	return nil
}

// Display is the text shown next to the canvases.
type Display struct {
	// Values is keyed by the label it fills, e.g. "param-carrier-freq".
	Values             map[string]string `json:"values"`
	BitDescription     string            `json:"bit_description"`
	DigitalExplanation string            `json:"digital_explanation"`
	ModulatorType      string            `json:"modulator_type"`
	Explanation        string            `json:"modulation_explanation"`
	Formula            string            `json:"modulation_formula"`
}

var explanations = map[model.ModulationType]string{
	model.ModulationASK: "ASK modulation: the digital signal controls the carrier amplitude",
	model.ModulationFSK: "FSK modulation: the digital signal controls the carrier frequency",
	model.ModulationPSK: "PSK modulation: the digital signal controls the carrier phase",
}

var formulas = map[model.ModulationType]string{
	model.ModulationASK: "s(t) = A(t) cos(2π f_c t)",
	model.ModulationFSK: "s(t) = A cos(2π f(t) t)",
	model.ModulationPSK: "s(t) = A cos(2π f_c t + φ(t))",
}

// DisplayFor computes the display text for p.
func DisplayFor(p Params) Display {
	freq := strconv.FormatFloat(p.CarrierHz, 'f', -1, 64)
	period := strconv.FormatFloat(p.BitDuration, 'f', 1, 64)
	d := Display{
		Values: map[string]string{
			"carrier-freq-value": freq,
			"bit-duration-value": period,
			"carrier-freq-text":  freq,
			"current-bit":        p.Bit,
			"param-bit-value":    p.Bit,
			"param-carrier-freq": freq + " Hz",
			"param-modulation":   string(p.Modulation),
			"param-bit-period":   period + " s",
			"param-amplitude":    strconv.FormatFloat(p.Amplitude, 'f', 1, 64) + " V",
			"param-mod-index":    "100%",
		},
		ModulatorType: string(p.Modulation) + " modulator",
		Explanation:   explanations[p.Modulation],
		Formula:       formulas[p.Modulation],
	}
	if p.One() {
		d.BitDescription = "Logic high level"
		d.DigitalExplanation = "Bit 1 is sent as a high level signal (usually 3.3 V or 5 V)"
	} else {
		d.BitDescription = "Logic low level"
		d.DigitalExplanation = "Bit 0 is sent as a low level signal (usually 0 V)"
	}
	return d
}
