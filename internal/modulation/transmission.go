package modulation

import (
	"fmt"

	"github.com/signalsfoundry/rfvision/internal/codec"
	"github.com/signalsfoundry/rfvision/model"
)

// TransmissionParams echoes the inputs of a transmission run.
type TransmissionParams struct {
	CarrierFreq    float64              `json:"carrier_freq"`
	BitRate        float64              `json:"bit_rate"`
	SNRdB          float64              `json:"snr_db"`
	ModulationType model.ModulationType `json:"modulation_type"`
}

// Transmission is the full text → bits → carrier → noisy channel → bits →
// text pipeline.
type Transmission struct {
	OriginalText    string             `json:"original_text"`
	BinaryData      string             `json:"binary_data"`
	Baseband        Baseband           `json:"baseband"`
	ModulatedSignal []float64          `json:"modulated_signal"`
	ReceivedSignal  []float64          `json:"received_signal"`
	Demodulated     Demodulated        `json:"demodulation"`
	RecoveredBinary string             `json:"recovered_binary"`
	RecoveredText   string             `json:"recovered_text"`
	BER             float64            `json:"ber"`
	Parameters      TransmissionParams `json:"parameters"`
}

// SimulateTransmission encodes text, keys it onto the carrier with NRZ
// baseband, adds white noise at snrDB, demodulates with the matching
// detector and reports the bit error rate.
func (p *Processor) SimulateTransmission(text string, carrierFreq, bitRate, snrDB float64, m model.ModulationType) (Transmission, error) {
	if !m.Valid() {
		return Transmission{}, fmt.Errorf("%w: %q", model.ErrUnknownModulation, m)
	}
	if err := finite("snr_db", snrDB); err != nil {
		return Transmission{}, err
	}
	bits, err := codec.TextToBinary(text)
	if err != nil {
		return Transmission{}, err
	}
	if bits == "" {
		return Transmission{}, fmt.Errorf("%w: text is empty", model.ErrInvalidParameter)
	}
	baseband, err := p.Baseband(bits, bitRate, model.CodingNRZ)
	if err != nil {
		return Transmission{}, err
	}

	var modulated []float64
	switch m {
	case model.ModulationASK:
		k, err := p.ASK(baseband.Amplitude, baseband.Time, carrierFreq)
		if err != nil {
			return Transmission{}, err
		}
		modulated = k.Signal
	case model.ModulationPSK:
		k, err := p.PSK(baseband.Amplitude, baseband.Time, carrierFreq)
		if err != nil {
			return Transmission{}, err
		}
		modulated = k.Signal
	case model.ModulationFSK:
		f0, f1 := FSKFrequencies(carrierFreq)
		if f0 < 0 {
			return Transmission{}, fmt.Errorf("%w: carrier frequency %g Hz leaves a negative FSK tone",
				model.ErrInvalidParameter, carrierFreq)
		}
		fsk, err := p.FSK(bits, f0, f1, bitRate)
		if err != nil {
			return Transmission{}, err
		}
		modulated = fsk.Signal
	}

	received := p.channel.AddNoise(modulated, snrDB)
	demod, err := p.Demodulate(m, received, baseband.Time, carrierFreq, bitRate)
	if err != nil {
		return Transmission{}, err
	}
	recoveredText, err := codec.BinaryToText(demod.RecoveredBinary)
	if err != nil {
		return Transmission{}, err
	}

	return Transmission{
		OriginalText:    text,
		BinaryData:      bits,
		Baseband:        baseband,
		ModulatedSignal: modulated,
		ReceivedSignal:  received,
		Demodulated:     demod,
		RecoveredBinary: demod.RecoveredBinary,
		RecoveredText:   recoveredText,
		BER:             BER(bits, demod.RecoveredBinary),
		Parameters: TransmissionParams{
			CarrierFreq:    carrierFreq,
			BitRate:        bitRate,
			SNRdB:          snrDB,
			ModulationType: m,
		},
	}, nil
}
