package modulation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/signalsfoundry/rfvision/internal/codec"
	"github.com/signalsfoundry/rfvision/internal/dsp"
	"github.com/signalsfoundry/rfvision/internal/waveform"
	"github.com/signalsfoundry/rfvision/model"
)

// Baseband is a line-coded digital signal.
type Baseband struct {
	Time       []float64        `json:"time"`
	Amplitude  []float64        `json:"amplitude"`
	BinaryData string           `json:"binary_data"`
	BitRate    float64          `json:"bit_rate"`
	Encoding   model.LineCoding `json:"encoding"`
	Type       string           `json:"type"`
}

// SamplesPerBit returns ⌊fs/bitRate⌋.
func (p *Processor) SamplesPerBit(bitRate float64) int {
	return int(p.sampleRate / bitRate)
}

func (p *Processor) bitGrid(bits string, bitRate float64) ([]float64, int, error) {
	if err := codec.Validate(bits); err != nil {
		return nil, 0, err
	}
	if err := positive("bit rate", bitRate); err != nil {
		return nil, 0, err
	}
	spb := p.SamplesPerBit(bitRate)
	if spb < 1 {
		return nil, 0, fmt.Errorf("%w: bit rate %g exceeds the %g Hz sample rate",
			model.ErrInvalidParameter, bitRate, p.sampleRate)
	}
	total := spb * len(bits)
	if total > MaxSamples {
		return nil, 0, fmt.Errorf("%w: %d bits at %g bps needs %d samples, limit is %d",
			model.ErrInvalidParameter, len(bits), bitRate, total, MaxSamples)
	}
	duration := float64(len(bits)) / bitRate
	return dsp.Linspace(0, duration, total), spb, nil
}

// Baseband line-codes bits at bitRate:
//
//	NRZ         '1' → +1, '0' → -1
//	RZ          '1' → +1 for the first half of the bit then 0, '0' → 0
//	Manchester  '1' → -1 then +1, '0' → +1 then -1
func (p *Processor) Baseband(bits string, bitRate float64, coding model.LineCoding) (Baseband, error) {
	t, spb, err := p.bitGrid(bits, bitRate)
	if err != nil {
		return Baseband{}, err
	}
	signal := make([]float64, len(t))
	half := spb / 2
	for i := 0; i < len(bits); i++ {
		one := bits[i] == '1'
		seg := signal[i*spb : (i+1)*spb]
		switch coding {
		case model.CodingNRZ:
			fill(seg, level(one, 1, -1))
		case model.CodingRZ:
			if one {
				fill(seg[:half], 1)
			}
		case model.CodingManchester:
			fill(seg[:half], level(one, -1, 1))
			fill(seg[half:], level(one, 1, -1))
		default:
			return Baseband{}, fmt.Errorf("%w: %q", model.ErrUnknownCoding, coding)
		}
	}
	p.record("baseband", len(signal))
	return Baseband{
		Time:       t,
		Amplitude:  signal,
		BinaryData: bits,
		BitRate:    bitRate,
		Encoding:   coding,
		Type:       "digital_baseband",
	}, nil
}

// Keyed is a keyed carrier produced by ASK or PSK from a baseband signal.
type Keyed struct {
	Time        []float64            `json:"time"`
	Signal      []float64            `json:"signal"`
	Carrier     []float64            `json:"carrier"`
	Baseband    []float64            `json:"baseband"`
	CarrierFreq float64              `json:"carrier_freq"`
	Type        model.ModulationType `json:"type"`
}

// ASK maps a ±1 baseband onto the carrier amplitude: ((b+1)/2)·cos(2πfc·t).
func (p *Processor) ASK(baseband, t []float64, carrierFreq float64) (Keyed, error) {
	return p.keyed(model.ModulationASK, baseband, t, carrierFreq, func(b float64) float64 { return (b + 1) / 2 })
}

// PSK multiplies the carrier by the ±1 baseband, i.e. a π phase flip for
// '0' bits.
func (p *Processor) PSK(baseband, t []float64, carrierFreq float64) (Keyed, error) {
	return p.keyed(model.ModulationPSK, baseband, t, carrierFreq, func(b float64) float64 { return b })
}

func (p *Processor) keyed(m model.ModulationType, baseband, t []float64, fc float64, gain func(float64) float64) (Keyed, error) {
	if len(baseband) != len(t) {
		return Keyed{}, fmt.Errorf("%w: baseband has %d samples but time has %d",
			model.ErrInvalidParameter, len(baseband), len(t))
	}
	if err := nonNegative("carrier frequency", fc); err != nil {
		return Keyed{}, err
	}
	res := Keyed{
		Time:        t,
		Signal:      make([]float64, len(t)),
		Carrier:     make([]float64, len(t)),
		Baseband:    baseband,
		CarrierFreq: fc,
		Type:        m,
	}
	for i, ti := range t {
		c := math.Cos(2 * math.Pi * fc * ti)
		res.Carrier[i] = c
		res.Signal[i] = gain(baseband[i]) * c
	}
	p.record(m.Lower(), len(t))
	return res, nil
}

// FSKResult is a frequency-keyed signal and the frequency used per sample.
type FSKResult struct {
	Time           []float64 `json:"time"`
	Signal         []float64 `json:"signal"`
	FrequencyTrace []float64 `json:"frequency_trace"`
	BinaryData     string    `json:"binary_data"`
	Freq0          float64   `json:"freq_0"`
	Freq1          float64   `json:"freq_1"`
	BitRate        float64   `json:"bit_rate"`
	Type           string    `json:"type"`
}

// FSK sends '0' bits at freq0 and '1' bits at freq1.
func (p *Processor) FSK(bits string, freq0, freq1, bitRate float64) (FSKResult, error) {
	if err := nonNegative("freq_0", freq0); err != nil {
		return FSKResult{}, err
	}
	if err := nonNegative("freq_1", freq1); err != nil {
		return FSKResult{}, err
	}
	t, spb, err := p.bitGrid(bits, bitRate)
	if err != nil {
		return FSKResult{}, err
	}
	res := FSKResult{
		Time:           t,
		Signal:         make([]float64, len(t)),
		FrequencyTrace: make([]float64, len(t)),
		BinaryData:     bits,
		Freq0:          freq0,
		Freq1:          freq1,
		BitRate:        bitRate,
		Type:           string(model.ModulationFSK),
	}
	for i := range t {
		f := freq0
		if bits[i/spb] == '1' {
			f = freq1
		}
		res.Signal[i] = math.Cos(2 * math.Pi * f * t[i])
		res.FrequencyTrace[i] = f
	}
	p.record("fsk", len(t))
	return res, nil
}

// FSKFrequencies returns (f0, f1) for a carrier under the reference keying.
func FSKFrequencies(carrierFreq float64) (float64, float64) {
	k := waveform.ReferenceKeying
	return k.FSKFrequency(carrierFreq, false), k.FSKFrequency(carrierFreq, true)
}

// BitDemoResult shows how one bit keys the carrier over a single bit period.
type BitDemoResult struct {
	Time           []float64            `json:"time"`
	Carrier        []float64            `json:"carrier"`
	Modulated      []float64            `json:"modulated"`
	BitValue       string               `json:"bit_value"`
	ModulationType model.ModulationType `json:"modulation_type"`
	Description    string               `json:"description"`
}

// BitDemo keys a single bit onto a cosine carrier for bitDuration seconds
// using the reference profile (ASK '0' at 30%, FSK at fc±20 Hz, PSK π).
func (p *Processor) BitDemo(bit string, carrierFreq float64, m model.ModulationType, bitDuration float64) (BitDemoResult, error) {
	if bit != "0" && bit != "1" {
		return BitDemoResult{}, fmt.Errorf("%w: bit must be \"0\" or \"1\", got %q", codec.ErrInvalidBits, bit)
	}
	if !m.Valid() {
		return BitDemoResult{}, fmt.Errorf("%w: %q", model.ErrUnknownModulation, m)
	}
	if err := nonNegative("carrier frequency", carrierFreq); err != nil {
		return BitDemoResult{}, err
	}
	if err := positive("bit duration", bitDuration); err != nil {
		return BitDemoResult{}, err
	}
	n := int(p.sampleRate * bitDuration)
	if n > MaxSamples {
		return BitDemoResult{}, fmt.Errorf("%w: bit duration %g s is too long", model.ErrInvalidParameter, bitDuration)
	}
	t := dsp.Linspace(0, bitDuration, n)
	one := bit == "1"
	k := waveform.ReferenceKeying
	params := waveform.Params{Modulation: m, CarrierHz: carrierFreq, Amplitude: 1}
	carrier := waveform.Carrier(k.Shape, params)
	keyed := k.Bit(params, one)

	res := BitDemoResult{
		Time:           t,
		Carrier:        make([]float64, n),
		Modulated:      make([]float64, n),
		BitValue:       bit,
		ModulationType: m,
		Description:    describeBit(k, m, carrierFreq, one),
	}
	for i, ti := range t {
		res.Carrier[i] = carrier(ti)
		res.Modulated[i] = keyed(ti)
	}
	p.record("bit_demo", n)
	return res, nil
}

func describeBit(k waveform.Keying, m model.ModulationType, fc float64, one bool) string {
	bit := "0"
	if one {
		bit = "1"
	}
	switch m {
	case model.ModulationASK:
		amp := level(one, 1, k.ASKLow)
		return fmt.Sprintf("bit '%s' → amplitude = %s", bit, strconv.FormatFloat(amp, 'f', 1, 64))
	case model.ModulationFSK:
		return fmt.Sprintf("bit '%s' → frequency = %s Hz", bit, strconv.FormatFloat(k.FSKFrequency(fc, one), 'f', -1, 64))
	default:
		return fmt.Sprintf("bit '%s' → phase = %sπ", bit, bit)
	}
}

func fill(dst []float64, v float64) {
	for i := range dst {
		dst[i] = v
	}
}

func level(one bool, high, low float64) float64 {
	if one {
		return high
	}
	return low
}
