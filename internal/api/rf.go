package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/signalsfoundry/rfvision/core"
	"github.com/signalsfoundry/rfvision/model"
)

func positiveParam(name string, v float64) error {
	if !(v > 0) {
		return fmt.Errorf("%w: %s must be positive, got %v", model.ErrInvalidParameter, name, v)
	}
	return nil
}

type pathLossResponse struct {
	DistanceKm   float64 `json:"distance_km"`
	FrequencyMHz float64 `json:"frequency_mhz"`
	PathLossDB   float64 `json:"path_loss_db"`
	WavelengthM  float64 `json:"wavelength_m"`
}

func (s *Server) handlePathLoss(w http.ResponseWriter, r *http.Request) {
	q := floatQuery{q: r.URL.Query()}
	d := q.require("distance_km")
	f := q.require("frequency_mhz")
	if q.err != nil {
		s.writeError(w, r, q.err)
		return
	}
	for name, v := range map[string]float64{"distance_km": d, "frequency_mhz": f} {
		if err := positiveParam(name, v); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, pathLossResponse{
		DistanceKm:   d,
		FrequencyMHz: f,
		PathLossDB:   core.FreeSpacePathLoss(d, f),
		WavelengthM:  core.Wavelength(f * 1e6),
	})
}

type friisResponse struct {
	PathLossDB       float64 `json:"path_loss_db"`
	ReceivedPowerDBm float64 `json:"received_power_dbm"`
	ReceivedPowerW   float64 `json:"received_power_w"`
	// EffectiveApertureM2 is the receive antenna aperture at this frequency.
	EffectiveApertureM2 float64 `json:"effective_aperture_m2"`
}

func (s *Server) handleFriis(w http.ResponseWriter, r *http.Request) {
	q := floatQuery{q: r.URL.Query()}
	pt := q.get("tx_power_dbm", 30)
	gt := q.get("tx_gain_dbi", 0)
	gr := q.get("rx_gain_dbi", 0)
	d := q.require("distance_km")
	f := q.require("frequency_mhz")
	if q.err != nil {
		s.writeError(w, r, q.err)
		return
	}
	if err := positiveParam("distance_km", d); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := positiveParam("frequency_mhz", f); err != nil {
		s.writeError(w, r, err)
		return
	}
	pr := core.FriisReceivedPower(pt, gt, gr, d, f)
	writeJSON(w, http.StatusOK, friisResponse{
		PathLossDB:          core.FreeSpacePathLoss(d, f),
		ReceivedPowerDBm:    pr,
		ReceivedPowerW:      core.DBmToWatts(pr),
		EffectiveApertureM2: core.EffectiveAperture(core.DBToLinear(gr), f*1e6),
	})
}

type noiseResponse struct {
	TemperatureK  float64  `json:"temperature_k"`
	BandwidthHz   float64  `json:"bandwidth_hz"`
	NoisePowerW   float64  `json:"noise_power_w"`
	NoisePowerDBm float64  `json:"noise_power_dbm"`
	SNRdB         *float64 `json:"snr_db,omitempty"`
}

// handleNoise computes kTB and, when signal_power_dbm is given, the SNR
// against it.
func (s *Server) handleNoise(w http.ResponseWriter, r *http.Request) {
	q := floatQuery{q: r.URL.Query()}
	temp := q.get("temperature_k", core.ReferenceNoiseTempK)
	bw := q.require("bandwidth_hz")
	if q.err != nil {
		s.writeError(w, r, q.err)
		return
	}
	if err := positiveParam("temperature_k", temp); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := positiveParam("bandwidth_hz", bw); err != nil {
		s.writeError(w, r, err)
		return
	}
	n := core.NoisePower(temp, bw)
	resp := noiseResponse{
		TemperatureK:  temp,
		BandwidthHz:   bw,
		NoisePowerW:   n,
		NoisePowerDBm: core.WattsToDBm(n),
	}
	if raw := r.URL.Query().Get("signal_power_dbm"); raw != "" {
		sig, err := queryFloat(r.URL.Query(), "signal_power_dbm", 0)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		snr := core.SNR(core.DBmToWatts(sig), n)
		resp.SNRdB = &snr
	}
	writeJSON(w, http.StatusOK, resp)
}

type convertResponse struct {
	Value  float64 `json:"value"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Result float64 `json:"result"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := floatQuery{q: query}
	v := q.require("value")
	if q.err != nil {
		s.writeError(w, r, q.err)
		return
	}
	from := strings.ToLower(strings.TrimSpace(query.Get("from")))
	to := strings.ToLower(strings.TrimSpace(query.Get("to")))
	out, err := core.Convert(v, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convertResponse{Value: v, From: from, To: to, Result: out})
}

func (s *Server) handleLinkBudget(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	tx, rx := query.Get("tx"), query.Get("rx")
	if tx == "" || rx == "" {
		s.writeError(w, r, fmt.Errorf("%w: tx and rx transceiver IDs are required", ErrBadRequest))
		return
	}
	q := floatQuery{q: query}
	d := q.require("distance_km")
	if q.err != nil {
		s.writeError(w, r, q.err)
		return
	}
	lb, err := s.catalog.LinkBudget(tx, rx, d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (s *Server) handleListTransceivers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"transceivers": s.catalog.List()})
}

func (s *Server) handleGetTransceiver(w http.ResponseWriter, r *http.Request) {
	tm, err := s.catalog.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tm)
}

func (s *Server) handleAddTransceiver(w http.ResponseWriter, r *http.Request) {
	var tm core.TransceiverModel
	if err := decodeJSON(w, r, &tm); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.catalog.Add(&tm); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, &tm)
}

// handlePutTransceiver creates or replaces the transceiver at {id}. A body
// ID that disagrees with the path is rejected.
func (s *Server) handlePutTransceiver(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var tm core.TransceiverModel
	if err := decodeJSON(w, r, &tm); err != nil {
		s.writeError(w, r, err)
		return
	}
	if tm.ID == "" {
		tm.ID = id
	}
	if tm.ID != id {
		s.writeError(w, r, fmt.Errorf("%w: body id %q does not match path id %q", ErrBadRequest, tm.ID, id))
		return
	}
	if err := s.catalog.Put(&tm); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &tm)
}

func (s *Server) handleDeleteTransceiver(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Remove(r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
