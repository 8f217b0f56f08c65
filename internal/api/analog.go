package api

import (
	"net/http"

	"github.com/signalsfoundry/rfvision/internal/modulation"
	"github.com/signalsfoundry/rfvision/model"
)

type carrierResponse struct {
	Carrier  modulation.Waveform `json:"carrier"`
	Spectrum model.Spectrum      `json:"spectrum"`
}

func (s *Server) handleGenerateCarrier(w http.ResponseWriter, r *http.Request) {
	q := floatQuery{q: r.URL.Query()}
	freq := q.get("frequency", 10)
	amp := q.get("amplitude", 1)
	if q.err != nil {
		s.writeError(w, r, q.err)
		return
	}
	wave, err := s.proc.Carrier(freq, amp)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, carrierResponse{Carrier: wave, Spectrum: s.proc.Spectrum(wave.Amplitude)})
}

// analogQuery reads carrier_freq and mod_freq plus the scheme-specific
// third parameter.
func analogQuery(r *http.Request, key string, fallback float64) (fc, fm, third float64, err error) {
	q := floatQuery{q: r.URL.Query()}
	fc = q.get("carrier_freq", 50)
	fm = q.get("mod_freq", 5)
	third = q.get(key, fallback)
	return fc, fm, third, q.err
}

func (s *Server) handleGenerateAM(w http.ResponseWriter, r *http.Request) {
	fc, fm, depth, err := analogQuery(r, "mod_depth", 0.5)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.proc.AM(fc, fm, depth)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		AM       modulation.AMResult `json:"am"`
		Spectrum model.Spectrum      `json:"spectrum"`
	}{res, s.proc.Spectrum(res.Signal)})
}

func (s *Server) handleGenerateFM(w http.ResponseWriter, r *http.Request) {
	fc, fm, dev, err := analogQuery(r, "freq_dev", 10)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.proc.FM(fc, fm, dev)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		FM       modulation.FMResult `json:"fm"`
		Spectrum model.Spectrum      `json:"spectrum"`
	}{res, s.proc.Spectrum(res.Signal)})
}

func (s *Server) handleGeneratePM(w http.ResponseWriter, r *http.Request) {
	fc, fm, dev, err := analogQuery(r, "phase_dev", modulation.DefaultPhaseDeviation)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.proc.PM(fc, fm, dev)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		PM       modulation.PMResult `json:"pm"`
		Spectrum model.Spectrum      `json:"spectrum"`
	}{res, s.proc.Spectrum(res.Signal)})
}
