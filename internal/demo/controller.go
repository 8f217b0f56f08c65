package demo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/signalsfoundry/rfvision/internal/animation"
	"github.com/signalsfoundry/rfvision/internal/codec"
	"github.com/signalsfoundry/rfvision/internal/logging"
	"github.com/signalsfoundry/rfvision/internal/render"
	"github.com/signalsfoundry/rfvision/model"
)

// ErrNoTransmission is returned when the text canvas is requested before
// any text has been transmitted.
var ErrNoTransmission = errors.New("no text has been transmitted yet")

// Stages lists the canvas redrawn for each animation step.
var Stages = []string{render.CanvasDigital, render.CanvasCarrier, render.CanvasProcess, render.CanvasOutput}

// Canvas names served by the controller in addition to Stages.
const (
	CanvasText          = render.CanvasText
	CanvasASKComparison = "ask-comparison"
	CanvasFSKComparison = "fsk-comparison"
	CanvasPSKComparison = "psk-comparison"
	CanvasPerformance   = render.CanvasPerformance
)

// RenderRecorder observes every canvas the controller draws.
type RenderRecorder interface {
	ObserveRender(canvas string)
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(l logging.Logger) Option { return func(c *Controller) { c.log = l } }

func WithRecorder(r RenderRecorder) Option { return func(c *Controller) { c.recorder = r } }

// WithCanvasSize sets the pixel size of the stage canvases.
func WithCanvasSize(w, h int) Option {
	return func(c *Controller) { c.width, c.height = w, h }
}

// Transmission is the outcome of sending a line of text through the demo.
type Transmission struct {
	Text       string               `json:"text"`
	Mappings   []codec.CharMapping  `json:"char_mappings"`
	Binary     string               `json:"binary_data"`
	Modulation model.ModulationType `json:"modulation_type"`
	BaudRate   float64              `json:"baud_rate"`
	TotalBits  int                  `json:"total_bits"`
}

// Controller holds the demo state. Frames rendered by the animation driver
// are cached so viewers can poll them.
type Controller struct {
	mu            sync.RWMutex
	params        Params
	comparisonBit bool
	transmission  *Transmission
	frames        map[string][]byte

	width, height int
	driver        *animation.Driver
	log           logging.Logger
	recorder      RenderRecorder
	unsubscribe   func()
}

// NewController wires a controller to driver. Every frame the driver
// produces redraws the canvas of the current stage.
func NewController(driver *animation.Driver, opts ...Option) *Controller {
	c := &Controller{
		params: DefaultParams(),
		frames: make(map[string][]byte),
		driver: driver,
		log:    logging.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.driver == nil {
		c.driver = animation.NewDriver(0, animation.RealTime, len(Stages))
	}
	c.unsubscribe = c.driver.AddListener(c.onFrame)
	return c
}

// Close detaches the controller from its driver.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

func (c *Controller) Driver() *animation.Driver { return c.driver }

func (c *Controller) Params() Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params
}

// SetParams validates p, stores it and redraws every stage canvas.
func (c *Controller) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.params = p
	c.mu.Unlock()
	c.refresh()
	return nil
}

func (c *Controller) update(fn func(*Params)) error {
	p := c.Params()
	fn(&p)
	return c.SetParams(p)
}

func (c *Controller) SetBit(bit string) error {
	return c.update(func(p *Params) { p.Bit = bit })
}

func (c *Controller) SetModulation(m string) error {
	return c.update(func(p *Params) { p.Modulation = model.ModulationType(strings.ToUpper(m)) })
}

func (c *Controller) SetCarrierFreq(hz float64) error {
	return c.update(func(p *Params) { p.CarrierHz = hz })
}

func (c *Controller) SetBitDuration(seconds float64) error {
	return c.update(func(p *Params) { p.BitDuration = seconds })
}

// SetComparisonBit selects the bit shown on the three comparison canvases.
func (c *Controller) SetComparisonBit(bit string) error {
	if bit != "0" && bit != "1" {
		return fmt.Errorf("%w: bit must be \"0\" or \"1\", got %q", model.ErrInvalidParameter, bit)
	}
	c.mu.Lock()
	c.comparisonBit = bit == "1"
	for _, name := range []string{CanvasASKComparison, CanvasFSKComparison, CanvasPSKComparison} {
		delete(c.frames, name)
	}
	c.mu.Unlock()
	return nil
}

// Display returns the text for the current parameters.
func (c *Controller) Display() Display {
	return DisplayFor(c.Params())
}

func (c *Controller) Play() animation.Frame        { return c.driver.Play() }
func (c *Controller) Pause() animation.Frame       { return c.driver.Pause() }
func (c *Controller) Reset() animation.Frame       { return c.driver.Reset() }
func (c *Controller) StepForward() animation.Frame { return c.driver.StepForward() }
func (c *Controller) State() animation.Frame       { return c.driver.State() }

// Names lists every canvas Render accepts.
func Names() []string {
	return append(append([]string{}, Stages...),
		CanvasText, CanvasASKComparison, CanvasFSKComparison, CanvasPSKComparison, CanvasPerformance)
}

// StageCanvas returns the canvas shown for an animation step.
func StageCanvas(step int) string {
	if step < 0 || step >= len(Stages) {
		return Stages[0]
	}
	return Stages[step]
}

// Render draws the named canvas with the current parameters and returns
// it as PNG.
func (c *Controller) Render(name string) ([]byte, error) {
	opts, canvas, err := c.options(name)
	if err != nil {
		return nil, err
	}
	data, err := render.DrawPNG(canvas, opts)
	if err != nil {
		return nil, err
	}
	if c.recorder != nil {
		c.recorder.ObserveRender(name)
	}
	c.mu.Lock()
	c.frames[name] = data
	c.mu.Unlock()
	return data, nil
}

// Frame returns the most recent PNG for name, rendering it if needed.
func (c *Controller) Frame(name string) ([]byte, error) {
	c.mu.RLock()
	data, ok := c.frames[name]
	c.mu.RUnlock()
	if ok {
		return data, nil
	}
	return c.Render(name)
}

// Transmit converts text to bits and redraws the text canvas at baudRate.
func (c *Controller) Transmit(text string, m model.ModulationType, baudRate float64) (Transmission, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Transmission{}, fmt.Errorf("%w: text is empty", model.ErrInvalidParameter)
	}
	if !m.Valid() {
		return Transmission{}, fmt.Errorf("%w: %q", model.ErrUnknownModulation, m)
	}
	if !(baudRate > 0) {
		return Transmission{}, fmt.Errorf("%w: baud rate must be positive, got %v", model.ErrInvalidParameter, baudRate)
	}
	mappings, err := codec.CharMappings(text)
	if err != nil {
		return Transmission{}, err
	}
	bits, err := codec.TextToBinary(text)
	if err != nil {
		return Transmission{}, err
	}
	tx := Transmission{
		Text:       text,
		Mappings:   mappings,
		Binary:     bits,
		Modulation: m,
		BaudRate:   baudRate,
		TotalBits:  len(bits),
	}
	c.mu.Lock()
	c.transmission = &tx
	c.mu.Unlock()

	if _, err := c.Render(CanvasText); err != nil {
		return Transmission{}, err
	}
	c.log.Info(context.Background(), "demo text transmitted",
		logging.Int("bits", len(bits)),
		logging.String("modulation", string(m)),
	)
	return tx, nil
}

func (c *Controller) options(name string) (render.Options, string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p := c.params
	opts := render.Options{
		Width:  c.width,
		Height: c.height,
		Bit: render.BitParams{
			One:         p.One(),
			Modulation:  p.Modulation,
			CarrierHz:   p.CarrierHz,
			BitDuration: p.BitDuration,
		},
	}
	switch name {
	case render.CanvasDigital, render.CanvasCarrier, render.CanvasProcess, render.CanvasOutput:
		return opts, name, nil
	case CanvasText:
		if c.transmission == nil {
			return opts, "", ErrNoTransmission
		}
		opts.Bits = c.transmission.Binary
		opts.BaudRate = c.transmission.BaudRate
		opts.Bit.Modulation = c.transmission.Modulation
		return opts, render.CanvasText, nil
	case CanvasASKComparison, CanvasFSKComparison, CanvasPSKComparison:
		m := model.ModulationType(strings.ToUpper(strings.TrimSuffix(name, "-comparison")))
		return render.Options{Bit: render.BitParams{One: c.comparisonBit, Modulation: m}}, render.CanvasComparison, nil
	case CanvasPerformance:
		return render.Options{}, render.CanvasPerformance, nil
	default:
		return opts, "", fmt.Errorf("%w: %q", render.ErrUnknownCanvas, name)
	}
}

func (c *Controller) refresh() {
	for _, name := range Stages {
		if _, err := c.Render(name); err != nil {
			c.log.Warn(context.Background(), "demo canvas render failed",
				logging.String("canvas", name), logging.Err(err))
		}
	}
}

func (c *Controller) onFrame(f animation.Frame) {
	name := StageCanvas(f.Step)
	if _, err := c.Render(name); err != nil {
		c.log.Warn(context.Background(), "demo frame render failed",
			logging.String("canvas", name), logging.Int("step", f.Step), logging.Err(err))
	}
}
