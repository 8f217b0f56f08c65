package api

import (
	"fmt"
	"net/http"

	"github.com/signalsfoundry/rfvision/model"
)

type startWaveRequest struct {
	Time   []float64 `json:"time"`
	Signal []float64 `json:"signal"`
	Speed  int       `json:"speed"`
}

type waveFrame struct {
	ID      string    `json:"id"`
	Time    []float64 `json:"time"`
	Signal  []float64 `json:"signal"`
	Visible int       `json:"visible"`
	Total   int       `json:"total"`
}

// handleStartWave registers a progressive reveal of a sampled signal. Each
// GET on /next returns a longer prefix until the cursor wraps.
func (s *Server) handleStartWave(w http.ResponseWriter, r *http.Request) {
	var req startWaveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Signal) == 0 {
		writeMessage(w, http.StatusBadRequest, "No signal data provided")
		return
	}
	if len(req.Time) != len(req.Signal) {
		s.writeError(w, r, fmt.Errorf("%w: time has %d samples but signal has %d",
			model.ErrInvalidParameter, len(req.Time), len(req.Signal)))
		return
	}
	id, _ := s.waves.Start(model.Signal{Time: req.Time, Values: req.Signal}, req.Speed)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "total": len(req.Signal)})
}

func (s *Server) handleNextWave(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, ok := s.waves.Get(id)
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: wave %q", ErrNotFound, id))
		return
	}
	sig, ok := c.Next()
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: wave %q has stopped", ErrNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, waveFrame{
		ID:      id,
		Time:    sig.Time,
		Signal:  sig.Values,
		Visible: sig.Len(),
		Total:   c.Len(),
	})
}

func (s *Server) handleStopWave(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.waves.Get(id); !ok {
		s.writeError(w, r, fmt.Errorf("%w: wave %q", ErrNotFound, id))
		return
	}
	s.waves.Stop(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStopAllWaves(w http.ResponseWriter, _ *http.Request) {
	s.waves.StopAll()
	w.WriteHeader(http.StatusNoContent)
}
