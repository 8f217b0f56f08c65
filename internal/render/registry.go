package render

import (
	"errors"
	"fmt"
	"slices"

	"github.com/signalsfoundry/rfvision/model"
)

// ErrUnknownCanvas is returned by Draw for a name not in the registry.
var ErrUnknownCanvas = errors.New("unknown canvas")

// Canvas names understood by Draw.
const (
	CanvasDigital     = "digital"
	CanvasCarrier     = "carrier"
	CanvasProcess     = "process"
	CanvasOutput      = "output"
	CanvasText        = "text"
	CanvasComparison  = "comparison"
	CanvasPreview     = "preview"
	CanvasCarrierWave = "carrier-wave"
	CanvasPerformance = "performance"
	CanvasFraction    = "fraction"
)

// Options carries every knob any canvas understands. Zero sizes fall back
// to the canvas default.
type Options struct {
	Width  int
	Height int

	Bit BitParams

	// Text canvas.
	Bits     string
	BaudRate float64

	// Fraction canvas.
	Numerator   int
	Denominator int
	Highlight   bool
}

type entry struct {
	w, h int
	draw func(*Canvas, Options) error
}

var registry = map[string]entry{
	CanvasDigital: {600, 300, func(c *Canvas, o Options) error { DigitalSignal(c, o.Bit); return nil }},
	CanvasCarrier: {600, 300, func(c *Canvas, o Options) error { CarrierSignal(c, o.Bit); return nil }},
	CanvasProcess: {600, 300, func(c *Canvas, o Options) error { ModulationProcess(c, o.Bit); return nil }},
	CanvasOutput:  {600, 300, func(c *Canvas, o Options) error { OutputSignal(c, o.Bit); return nil }},
	CanvasText: {800, 300, func(c *Canvas, o Options) error {
		return TextModulation(c, o.Bits, o.Bit.Modulation, o.BaudRate)
	}},
	CanvasComparison: {300, 150, func(c *Canvas, o Options) error {
		Comparison(c, o.Bit.Modulation, o.Bit.One)
		return nil
	}},
	CanvasPreview: {200, 60, func(c *Canvas, o Options) error {
		BitPreview(c, o.Bit.Modulation, o.Bit.One)
		return nil
	}},
	CanvasCarrierWave: {600, 200, func(c *Canvas, o Options) error { CarrierWave(c, o.Bit.CarrierHz); return nil }},
	CanvasPerformance: {600, 400, func(c *Canvas, _ Options) error { PerformanceChart(c); return nil }},
	CanvasFraction: {200, 200, func(c *Canvas, o Options) error {
		return FractionCircle(c, o.Numerator, o.Denominator, o.Highlight)
	}},
}

// Names lists the registered canvases in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// DefaultSize returns the size a canvas is drawn at when Options leaves it
// unset.
func DefaultSize(name string) (w, h int, ok bool) {
	e, ok := registry[name]
	return e.w, e.h, ok
}

// Draw renders the named canvas onto a fresh raster.
func Draw(name string, o Options) (*Canvas, error) {
	e, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCanvas, name)
	}
	if o.Bit.Modulation != "" && !o.Bit.Modulation.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownModulation, o.Bit.Modulation)
	}
	w, h := o.Width, o.Height
	if w == 0 {
		w = e.w
	}
	if h == 0 {
		h = e.h
	}
	c, err := NewCanvas(w, h)
	if err != nil {
		return nil, err
	}
	if err := e.draw(c, o); err != nil {
		return nil, err
	}
	return c, nil
}

// DrawPNG is Draw followed by PNG encoding.
func DrawPNG(name string, o Options) ([]byte, error) {
	c, err := Draw(name, o)
	if err != nil {
		return nil, err
	}
	return c.PNG()
}
