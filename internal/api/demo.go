package api

import (
	"fmt"
	"net/http"

	"github.com/signalsfoundry/rfvision/internal/animation"
	"github.com/signalsfoundry/rfvision/internal/demo"
	"github.com/signalsfoundry/rfvision/internal/logging"
	"github.com/signalsfoundry/rfvision/model"
)

type demoState struct {
	Params  demo.Params     `json:"params"`
	Display demo.Display    `json:"display"`
	Frame   animation.Frame `json:"animation"`
}

func (s *Server) state() demoState {
	return demoState{Params: s.demo.Params(), Display: s.demo.Display(), Frame: s.demo.State()}
}

func (s *Server) handleDemoParams(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.demo.Params())
}

// demoUpdate is a partial update: absent fields keep their current value.
type demoUpdate struct {
	Bit           *string `json:"bit"`
	Modulation    *string `json:"modulation_type"`
	CarrierFreq   *number `json:"carrier_freq"`
	BitDuration   *number `json:"bit_duration"`
	Amplitude     *number `json:"amplitude"`
	Phase         *number `json:"phase"`
	ComparisonBit *string `json:"comparison_bit"`
}

func (s *Server) handleDemoUpdate(w http.ResponseWriter, r *http.Request) {
	var req demoUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p := s.demo.Params()
	p.Bit = stringOr(req.Bit, p.Bit)
	if req.Modulation != nil {
		m, err := model.ParseModulation(*req.Modulation)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		p.Modulation = m
	}
	p.CarrierHz = req.CarrierFreq.or(p.CarrierHz)
	p.BitDuration = req.BitDuration.or(p.BitDuration)
	p.Amplitude = req.Amplitude.or(p.Amplitude)
	p.Phase = req.Phase.or(p.Phase)
	if err := p.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.ComparisonBit != nil {
		if err := s.demo.SetComparisonBit(*req.ComparisonBit); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if err := s.demo.SetParams(p); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger(r).Info(r.Context(), "demo parameters updated",
		logging.String("bit", p.Bit),
		logging.String("modulation", string(p.Modulation)),
		logging.Float("carrier_freq", p.CarrierHz),
	)
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleDemoDisplay(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.demo.Display())
}

func (s *Server) handleDemoState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

// handleDemoAction drives the animation: play, pause, reset or step.
func (s *Server) handleDemoAction(w http.ResponseWriter, r *http.Request) {
	var f animation.Frame
	switch action := r.PathValue("action"); action {
	case "play":
		f = s.demo.Play()
	case "pause":
		f = s.demo.Pause()
	case "reset":
		f = s.demo.Reset()
	case "step":
		f = s.demo.StepForward()
	default:
		s.writeError(w, r, fmt.Errorf("%w: demo action %q", ErrNotFound, action))
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleDemoCanvas(w http.ResponseWriter, r *http.Request) {
	data, err := s.demo.Render(canvasName(r.PathValue("file")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writePNG(w, data)
}

type transmitRequest struct {
	Text       *string `json:"text"`
	Modulation *string `json:"modulation_type"`
	BaudRate   *number `json:"baud_rate"`
}

func (s *Server) handleDemoTransmit(w http.ResponseWriter, r *http.Request) {
	var req transmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := parseModulation(req.Modulation)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tx, err := s.demo.Transmit(stringOr(req.Text, ""), m, req.BaudRate.or(1))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}
