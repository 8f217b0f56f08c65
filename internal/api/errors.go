package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/signalsfoundry/rfvision/core"
	"github.com/signalsfoundry/rfvision/internal/codec"
	"github.com/signalsfoundry/rfvision/internal/demo"
	"github.com/signalsfoundry/rfvision/internal/logging"
	"github.com/signalsfoundry/rfvision/internal/render"
	"github.com/signalsfoundry/rfvision/kb"
	"github.com/signalsfoundry/rfvision/model"
)

var (
	// ErrBadRequest marks a request body or query that could not be parsed.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound is returned for unknown path resources.
	ErrNotFound = errors.New("not found")
)

// StatusFromError maps the package sentinels onto HTTP status codes.
func StatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, ErrNotFound),
		errors.Is(err, kb.ErrTransceiverNotFound),
		errors.Is(err, render.ErrUnknownCanvas):
		return http.StatusNotFound

	case errors.Is(err, kb.ErrTransceiverExists),
		errors.Is(err, demo.ErrNoTransmission):
		return http.StatusConflict

	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidParameter),
		errors.Is(err, model.ErrUnknownModulation),
		errors.Is(err, model.ErrUnknownCoding),
		errors.Is(err, codec.ErrUnsupportedCharacter),
		errors.Is(err, codec.ErrInvalidBits),
		errors.Is(err, kb.ErrInvalidTransceiver),
		errors.Is(err, core.ErrIncompatibleBands),
		errors.Is(err, core.ErrBadDistance),
		errors.Is(err, core.ErrBadConversion):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// writeError logs server-side failures and renders err as {"error": msg}.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFromError(err)
	if code >= http.StatusInternalServerError {
		s.logger(r).Error(r.Context(), "request failed", logging.Err(err))
		writeMessage(w, code, "internal error")
		return
	}
	writeMessage(w, code, err.Error())
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
