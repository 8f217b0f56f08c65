package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/rfvision/internal/codec"
	"github.com/signalsfoundry/rfvision/internal/demo"
	"github.com/signalsfoundry/rfvision/internal/observability"
	"github.com/signalsfoundry/rfvision/internal/render"
	"github.com/signalsfoundry/rfvision/model"
)

// canvasName strips an optional ".png" suffix from a path segment.
func canvasName(file string) string {
	name, _ := strings.CutSuffix(file, ".png")
	return name
}

func (s *Server) handleCanvases(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"render": render.Names(),
		"demo":   demo.Names(),
	})
}

func (s *Server) handleFractions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"fractions": render.Fractions()})
}

// renderOptions reads canvas options from the query string. Unset bit
// parameters take the demo defaults.
func renderOptions(q url.Values) (render.Options, error) {
	defaults := demo.DefaultParams()
	fq := floatQuery{q: q}
	carrier := fq.get("carrier_freq", defaults.CarrierHz)
	duration := fq.get("bit_duration", defaults.BitDuration)
	baud := fq.get("baud_rate", 1)
	if fq.err != nil {
		return render.Options{}, fq.err
	}
	opts := render.Options{
		Bit: render.BitParams{
			Modulation:  defaults.Modulation,
			CarrierHz:   carrier,
			BitDuration: duration,
		},
		BaudRate: baud,
	}
	var err error
	if opts.Width, err = queryInt(q, "width", 0); err != nil {
		return opts, err
	}
	if opts.Height, err = queryInt(q, "height", 0); err != nil {
		return opts, err
	}
	if opts.Numerator, err = queryInt(q, "numerator", 1); err != nil {
		return opts, err
	}
	if opts.Denominator, err = queryInt(q, "denominator", 2); err != nil {
		return opts, err
	}
	if opts.Highlight, err = queryBool(q, "highlight"); err != nil {
		return opts, err
	}

	if raw := q.Get("modulation"); raw != "" {
		if opts.Bit.Modulation, err = model.ParseModulation(raw); err != nil {
			return opts, err
		}
	}
	switch bit := q.Get("bit"); bit {
	case "", "0":
	case "1":
		opts.Bit.One = true
	default:
		return opts, fmt.Errorf("%w: bit must be \"0\" or \"1\", got %q", model.ErrInvalidParameter, bit)
	}

	opts.Bits = q.Get("bits")
	if opts.Bits == "" && q.Get("text") != "" {
		if opts.Bits, err = codec.TextToBinary(q.Get("text")); err != nil {
			return opts, err
		}
	}
	if opts.Bits != "" {
		if err := codec.Validate(opts.Bits); err != nil {
			return opts, err
		}
	}
	if opts.Width < 0 || opts.Height < 0 {
		return opts, fmt.Errorf("%w: canvas size %dx%d", model.ErrInvalidParameter, opts.Width, opts.Height)
	}
	return opts, nil
}

// handleRender draws any registered canvas from query parameters without
// touching the demo state.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	name := canvasName(r.PathValue("file"))
	opts, err := renderOptions(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_, span := observability.StartSpan(r.Context(), "render.Draw", attribute.String("canvas", name))
	data, err := render.DrawPNG(name, opts)
	span.End()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.ObserveRender(name)
	writePNG(w, data)
}
