package demo

import (
	"bytes"
	"errors"
	"image/png"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/signalsfoundry/rfvision/internal/animation"
	"github.com/signalsfoundry/rfvision/internal/render"
	"github.com/signalsfoundry/rfvision/model"
)

type renderLog struct {
	mu    sync.Mutex
	names []string
}

func (r *renderLog) ObserveRender(canvas string) {
	r.mu.Lock()
	r.names = append(r.names, canvas)
	r.mu.Unlock()
}

func (r *renderLog) reset() {
	r.mu.Lock()
	r.names = nil
	r.mu.Unlock()
}

func (r *renderLog) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func newTestController(t *testing.T) (*Controller, *renderLog) {
	t.Helper()
	rec := &renderLog{}
	c := NewController(animation.NewDriver(0, animation.Accelerated, 0),
		WithRecorder(rec), WithCanvasSize(200, 120))
	t.Cleanup(c.Close)
	return c, rec
}

func TestDefaultDisplay(t *testing.T) {
	d := DisplayFor(DefaultParams())
	want := map[string]string{
		"carrier-freq-value": "5",
		"bit-duration-value": "1.0",
		"carrier-freq-text":  "5",
		"current-bit":        "0",
		"param-bit-value":    "0",
		"param-carrier-freq": "5 Hz",
		"param-modulation":   "ASK",
		"param-bit-period":   "1.0 s",
		"param-amplitude":    "1.0 V",
		"param-mod-index":    "100%",
	}
	if diff := cmp.Diff(want, d.Values); diff != "" {
		t.Fatalf("display values mismatch (-want +got):\n%s", diff)
	}
	if d.ModulatorType != "ASK modulator" || d.BitDescription != "Logic low level" {
		t.Fatalf("display = %+v", d)
	}
	if d.Formula != "s(t) = A(t) cos(2π f_c t)" {
		t.Fatalf("formula = %q", d.Formula)
	}
}

func TestSettersValidate(t *testing.T) {
	c, _ := newTestController(t)

	if err := c.SetBit("2"); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("SetBit(2) err = %v", err)
	}
	if err := c.SetModulation("qam"); !errors.Is(err, model.ErrUnknownModulation) {
		t.Fatalf("SetModulation(qam) err = %v", err)
	}
	if err := c.SetCarrierFreq(0); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("SetCarrierFreq(0) err = %v", err)
	}
	if err := c.SetBitDuration(-1); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("SetBitDuration(-1) err = %v", err)
	}
	if got := c.Params(); got != DefaultParams() {
		t.Fatalf("failed setters changed params: %+v", got)
	}

	if err := c.SetModulation("psk"); err != nil {
		t.Fatalf("SetModulation(psk): %v", err)
	}
	if err := c.SetBit("1"); err != nil {
		t.Fatalf("SetBit(1): %v", err)
	}
	d := c.Display()
	if d.ModulatorType != "PSK modulator" || d.BitDescription != "Logic high level" {
		t.Fatalf("display after update = %+v", d)
	}
}

func TestSetParamsRedrawsStages(t *testing.T) {
	c, rec := newTestController(t)
	p := DefaultParams()
	p.CarrierHz = 7.5
	if err := c.SetParams(p); err != nil {
		t.Fatalf("SetParams: %v", err)
	}
	if diff := cmp.Diff(Stages, rec.snapshot()); diff != "" {
		t.Fatalf("redrawn canvases (-want +got):\n%s", diff)
	}
	if got := c.Display().Values["param-carrier-freq"]; got != "7.5 Hz" {
		t.Fatalf("carrier label = %q", got)
	}
}

func TestStepForwardRendersStageCanvas(t *testing.T) {
	c, rec := newTestController(t)
	c.StepForward()
	c.StepForward()
	want := []string{render.CanvasCarrier, render.CanvasProcess}
	if diff := cmp.Diff(want, rec.snapshot()); diff != "" {
		t.Fatalf("stage renders (-want +got):\n%s", diff)
	}
	if f := c.State(); f.Step != 2 {
		t.Fatalf("step = %d", f.Step)
	}
}

func TestPlayAdvanceRendersOnEveryFrame(t *testing.T) {
	c, rec := newTestController(t)
	c.Play()
	rec.reset()
	for i := 0; i < 3; i++ {
		c.Driver().Advance()
	}
	want := []string{render.CanvasDigital, render.CanvasDigital, render.CanvasDigital}
	if diff := cmp.Diff(want, rec.snapshot()); diff != "" {
		t.Fatalf("frame renders (-want +got):\n%s", diff)
	}
	c.Reset()
	if c.State().Playing {
		t.Fatal("Reset left the driver playing")
	}
}

func TestRenderProducesPNG(t *testing.T) {
	c, _ := newTestController(t)
	data, err := c.Render(render.CanvasOutput)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 120 {
		t.Fatalf("bounds = %v", b)
	}

	cached, err := c.Frame(render.CanvasOutput)
	if err != nil || !bytes.Equal(cached, data) {
		t.Fatalf("Frame did not return the cached render (err=%v)", err)
	}

	if _, err := c.Render("spectrogram"); !errors.Is(err, render.ErrUnknownCanvas) {
		t.Fatalf("unknown canvas err = %v", err)
	}
}

func TestComparisonCanvases(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.SetComparisonBit("x"); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("SetComparisonBit(x) err = %v", err)
	}
	if err := c.SetComparisonBit("1"); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{CanvasASKComparison, CanvasFSKComparison, CanvasPSKComparison, CanvasPerformance} {
		if _, err := c.Render(name); err != nil {
			t.Fatalf("Render(%s): %v", name, err)
		}
	}
}

func TestComparisonBitInvalidatesFrames(t *testing.T) {
	c, _ := newTestController(t)
	zero, err := c.Frame(CanvasASKComparison)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if err := c.SetComparisonBit("1"); err != nil {
		t.Fatal(err)
	}
	one, err := c.Frame(CanvasASKComparison)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if bytes.Equal(zero, one) {
		t.Fatal("Frame returned the bit-0 comparison after switching to bit 1")
	}
	fresh, err := c.Render(CanvasASKComparison)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Equal(one, fresh) {
		t.Fatal("cached comparison differs from a fresh render")
	}
}

func TestTransmit(t *testing.T) {
	c, rec := newTestController(t)
	if _, err := c.Frame(CanvasText); !errors.Is(err, ErrNoTransmission) {
		t.Fatalf("text canvas before transmit err = %v", err)
	}

	tx, err := c.Transmit("  Hi ", model.ModulationFSK, 2)
	if err != nil {
		t.Fatalf("Transmit: %v", err)
	}
	if tx.Text != "Hi" || tx.Binary != "0100100001101001" || tx.TotalBits != 16 {
		t.Fatalf("transmission = %+v", tx)
	}
	if len(tx.Mappings) != 2 || tx.Mappings[1].ASCII != 'i' {
		t.Fatalf("mappings = %+v", tx.Mappings)
	}
	if got := rec.snapshot(); len(got) == 0 || got[len(got)-1] != CanvasText {
		t.Fatalf("text canvas not rendered: %v", got)
	}
	if _, err := c.Frame(CanvasText); err != nil {
		t.Fatalf("Frame(text): %v", err)
	}

	if _, err := c.Transmit("   ", model.ModulationASK, 1); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("empty text err = %v", err)
	}
	if _, err := c.Transmit("ok", model.ModulationASK, 0); !errors.Is(err, model.ErrInvalidParameter) {
		t.Fatalf("zero baud err = %v", err)
	}
}

func TestStageCanvas(t *testing.T) {
	for step, want := range Stages {
		if got := StageCanvas(step); got != want {
			t.Errorf("StageCanvas(%d) = %q, want %q", step, got, want)
		}
	}
	if StageCanvas(9) != Stages[0] {
		t.Error("out-of-range step should fall back to the first stage")
	}
	if n := len(Names()); n != len(Stages)+5 {
		t.Errorf("Names() has %d entries", n)
	}
}
