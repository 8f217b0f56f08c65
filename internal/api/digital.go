package api

import (
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/rfvision/internal/codec"
	"github.com/signalsfoundry/rfvision/internal/dsp"
	"github.com/signalsfoundry/rfvision/internal/logging"
	"github.com/signalsfoundry/rfvision/internal/modulation"
	"github.com/signalsfoundry/rfvision/internal/observability"
	"github.com/signalsfoundry/rfvision/model"
)

// Fading models accepted by the channel simulation.
const (
	FadingNone     = "none"
	FadingRayleigh = "rayleigh"
)

func parseModulation(s *string) (model.ModulationType, error) {
	return model.ParseModulation(stringOr(s, string(model.ModulationASK)))
}

type simulateRequest struct {
	Message     *string `json:"message"`
	Modulation  *string `json:"modulation_type"`
	CarrierFreq *number `json:"carrier_freq"`
	SNR         *number `json:"snr_db"`
}

// handleSimulateTransmission is the short form of the transmission run used
// by the analog page: message text, 50 Hz carrier, processor bit rate.
func (s *Server) handleSimulateTransmission(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := parseModulation(req.Modulation)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.transmit(w, r, stringOr(req.Message, ""), req.CarrierFreq.or(50), s.proc.BitRate(), req.SNR.or(20), m)
}

type transmissionRequest struct {
	Text        *string `json:"text"`
	CarrierFreq *number `json:"carrier_freq"`
	BitRate     *number `json:"bit_rate"`
	SNR         *number `json:"snr_db"`
	Modulation  *string `json:"modulation_type"`
}

func (s *Server) handleCompleteTransmission(w http.ResponseWriter, r *http.Request) {
	var req transmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := parseModulation(req.Modulation)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.transmit(w, r, stringOr(req.Text, "Hello"), req.CarrierFreq.or(100), req.BitRate.or(10), req.SNR.or(20), m)
}

func (s *Server) transmit(w http.ResponseWriter, r *http.Request, text string, fc, bitRate, snr float64, m model.ModulationType) {
	_, span := observability.StartSpan(r.Context(), "modulation.SimulateTransmission",
		attribute.String("modulation", string(m)),
		attribute.Int("text_length", len(text)),
	)
	res, err := s.proc.SimulateTransmission(text, fc, bitRate, snr, m)
	span.End()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger(r).Debug(r.Context(), "transmission simulated",
		logging.String("modulation", string(m)),
		logging.Float("ber", res.BER),
	)
	writeJSON(w, http.StatusOK, res)
}

type digitalBasebandRequest struct {
	Text     *string `json:"text"`
	BitRate  *number `json:"bit_rate"`
	Encoding *string `json:"encoding"`
}

func (s *Server) handleDigitalBaseband(w http.ResponseWriter, r *http.Request) {
	var req digitalBasebandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	text := stringOr(req.Text, "Hi")
	bits, err := codec.TextToBinary(text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bb, err := s.baseband(bits, req.BitRate.or(10), req.Encoding)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		modulation.Baseband
		OriginalText string `json:"original_text"`
	}{bb, text})
}

type basebandRequest struct {
	BinaryData *string `json:"binary_data"`
	BitRate    *number `json:"bit_rate"`
	Encoding   *string `json:"encoding"`
}

func (s *Server) handleGenerateBaseband(w http.ResponseWriter, r *http.Request) {
	var req basebandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	bb, err := s.baseband(stringOr(req.BinaryData, "10101010"), req.BitRate.or(10), req.Encoding)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bb)
}

func (s *Server) baseband(bits string, bitRate float64, encoding *string) (modulation.Baseband, error) {
	coding, err := model.ParseLineCoding(stringOr(encoding, string(model.CodingNRZ)))
	if err != nil {
		return modulation.Baseband{}, err
	}
	return s.proc.Baseband(bits, bitRate, coding)
}

type digitalModulationRequest struct {
	BinaryData  *string `json:"binary_data"`
	CarrierFreq *number `json:"carrier_freq"`
	BitRate     *number `json:"bit_rate"`
	Modulation  *string `json:"modulation_type"`
}

// handleDigitalModulation keys an NRZ baseband onto the carrier and returns
// the keyed signal with the baseband it was built from.
func (s *Server) handleDigitalModulation(w http.ResponseWriter, r *http.Request) {
	var req digitalModulationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := parseModulation(req.Modulation)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bits := stringOr(req.BinaryData, "10101010")
	fc, bitRate := req.CarrierFreq.or(100), req.BitRate.or(10)
	bb, err := s.proc.Baseband(bits, bitRate, model.CodingNRZ)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch m {
	case model.ModulationFSK:
		f0, f1 := modulation.FSKFrequencies(fc)
		res, err := s.proc.FSK(bits, f0, f1, bitRate)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			modulation.FSKResult
			Baseband modulation.Baseband `json:"baseband"`
		}{res, bb})
	default:
		keyer := s.proc.ASK
		if m == model.ModulationPSK {
			keyer = s.proc.PSK
		}
		res, err := keyer(bb.Amplitude, bb.Time, fc)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			modulation.Keyed
			Baseband modulation.Baseband `json:"baseband"`
		}{res, bb})
	}
}

type textRequest struct {
	Text *string `json:"text"`
}

type textToBinaryResponse struct {
	OriginalText string              `json:"original_text"`
	BinaryData   string              `json:"binary_data"`
	CharMappings []codec.CharMapping `json:"char_mappings"`
	TotalBits    int                 `json:"total_bits"`
}

func (s *Server) handleTextToBinary(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	text := stringOr(req.Text, "Hello")
	bits, err := codec.TextToBinary(text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	mappings, err := codec.CharMappings(text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, textToBinaryResponse{
		OriginalText: text,
		BinaryData:   bits,
		CharMappings: mappings,
		TotalBits:    len(bits),
	})
}

type sequenceRequest struct {
	BinaryData *string `json:"binary_data"`
	Text       *string `json:"text"`
	Modulation *string `json:"modulation_type"`
}

// handleBitSequence returns the bit-by-bit walkthrough for binary_data, or
// for the encoding of text when no bits are given.
func (s *Server) handleBitSequence(w http.ResponseWriter, r *http.Request) {
	var req sequenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := parseModulation(req.Modulation)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bits := stringOr(req.BinaryData, "")
	if bits == "" {
		if bits, err = codec.TextToBinary(stringOr(req.Text, "")); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if bits == "" {
		s.writeError(w, r, fmt.Errorf("%w: binary_data or text is required", ErrBadRequest))
		return
	}
	seq, err := codec.NewSequence(bits, m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, seq)
}

type modulationDemoRequest struct {
	Bit         *string `json:"bit_value"`
	CarrierFreq *number `json:"carrier_freq"`
	Modulation  *string `json:"modulation_type"`
	BitDuration *number `json:"bit_duration"`
}

func (s *Server) handleModulationDemo(w http.ResponseWriter, r *http.Request) {
	var req modulationDemoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := parseModulation(req.Modulation)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.proc.BitDemo(stringOr(req.Bit, "1"), req.CarrierFreq.or(100), m, req.BitDuration.or(0.1))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type spectrumRequest struct {
	Signal       []float64 `json:"signal"`
	SamplingRate *number   `json:"sampling_rate"`
}

func (s *Server) handleSpectrumAnalysis(w http.ResponseWriter, r *http.Request) {
	var req spectrumRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Signal) == 0 {
		writeMessage(w, http.StatusBadRequest, "No signal data provided")
		return
	}
	fs := req.SamplingRate.or(s.proc.SampleRate())
	if !(fs > 0) {
		s.writeError(w, r, fmt.Errorf("%w: sampling_rate must be positive, got %v", model.ErrInvalidParameter, fs))
		return
	}
	writeJSON(w, http.StatusOK, dsp.Spectrum(req.Signal, fs))
}

type channelRequest struct {
	Signal []float64 `json:"signal"`
	SNR    *number   `json:"snr_db"`
	Fading *string   `json:"fading_type"`
}

type channelResponse struct {
	OriginalSignal []float64 `json:"original_signal"`
	NoisySignal    []float64 `json:"noisy_signal"`
	SNR            float64   `json:"snr_db"`
	Fading         string    `json:"fading_type"`
}

func (s *Server) handleChannelSimulation(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Signal) == 0 {
		writeMessage(w, http.StatusBadRequest, "No signal data provided")
		return
	}
	fading := strings.ToLower(strings.TrimSpace(stringOr(req.Fading, FadingNone)))
	if fading != FadingNone && fading != FadingRayleigh {
		s.writeError(w, r, fmt.Errorf("%w: fading_type must be %q or %q, got %q",
			model.ErrInvalidParameter, FadingNone, FadingRayleigh, fading))
		return
	}
	snr := req.SNR.or(20)
	ch := s.proc.Channel()
	noisy := ch.AddNoise(req.Signal, snr)
	if fading == FadingRayleigh {
		noisy = ch.RayleighFade(noisy)
	}
	writeJSON(w, http.StatusOK, channelResponse{
		OriginalSignal: req.Signal,
		NoisySignal:    noisy,
		SNR:            snr,
		Fading:         fading,
	})
}

type demodulationRequest struct {
	Signal      []float64 `json:"signal"`
	Time        []float64 `json:"time"`
	Modulation  *string   `json:"modulation_type"`
	CarrierFreq *number   `json:"carrier_freq"`
	BitRate     *number   `json:"bit_rate"`
}

func (s *Server) handleDemodulation(w http.ResponseWriter, r *http.Request) {
	var req demodulationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Signal) == 0 || len(req.Time) == 0 {
		writeMessage(w, http.StatusBadRequest, "Signal or time data missing")
		return
	}
	m, err := parseModulation(req.Modulation)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.proc.Demodulate(m, req.Signal, req.Time, req.CarrierFreq.or(100), req.BitRate.or(10))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
