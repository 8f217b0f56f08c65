package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/signalsfoundry/rfvision/internal/dsp"
	"github.com/signalsfoundry/rfvision/internal/waveform"
	"github.com/signalsfoundry/rfvision/model"
)

// Margin is the plot inset used by every axis-based canvas.
const Margin = 40

// BitParams selects the single bit drawn by the demo canvases.
type BitParams struct {
	One         bool
	Modulation  model.ModulationType
	CarrierHz   float64
	BitDuration float64 // seconds
}

// plot is the inner drawing area of a canvas after removing a margin.
type plot struct {
	w, h   float64
	m      float64
	pw, ph float64
}

func newPlot(c *Canvas, margin float64) (plot, bool) {
	p := plot{w: float64(c.Width()), h: float64(c.Height()), m: margin}
	p.pw = p.w - 2*margin
	p.ph = p.h - 2*margin
	return p, p.pw > 0 && p.ph > 0
}

func (p plot) centerY() float64 { return p.m + p.ph/2 }

// trace samples s over [t0, t1] at one point per pixel column starting at x0
// and strokes it around the horizontal line cy, scaled by amp pixels.
func trace(c *Canvas, s waveform.Sampler, x0, cy, amp float64, columns int, t0, t1 float64, width int, col color.RGBA) {
	vals := waveform.SampleRange(s, columns, t0, t1)
	pts := make([]Point, len(vals))
	for i, v := range vals {
		pts[i] = Point{X: x0 + float64(i), Y: cy + amp*v}
	}
	c.Path(pts, width, col)
}

func unit(p BitParams) waveform.Params {
	return waveform.Params{Modulation: p.Modulation, CarrierHz: p.CarrierHz, Amplitude: 1}
}

// Axes draws the light grey x axis along the bottom margin and the y axis
// along the left margin.
func Axes(c *Canvas) {
	w, h := float64(c.Width()), float64(c.Height())
	c.Line(Margin, h-Margin, w-Margin, h-Margin, 1, AxisGrey)
	c.Line(Margin, Margin, Margin, h-Margin, 1, AxisGrey)
}

// DigitalSignal draws the logic level of a single bit.
func DigitalSignal(c *Canvas, p BitParams) {
	c.Clear(White)
	Axes(c)
	pl, ok := newPlot(c, Margin)
	if !ok {
		return
	}
	high, low := pl.m+pl.ph*0.2, pl.m+pl.ph*0.8
	level := low
	if p.One {
		level = high
	}
	c.Line(pl.m, level, pl.w-pl.m, level, 3, DigitalBlue)

	c.Text(15, int(high), "V", Text)
	c.Text(15, int(low), "0", Text)
	c.Text(int(pl.m+pl.pw/2-20), int(pl.h-5), "Time (s)", Text)
	label := "Low level (0)"
	if p.One {
		label = "High level (1)"
	}
	c.Text(int(pl.m+10), int(level-10), label, DigitalBlue)
}

// CarrierSignal draws the unmodulated carrier over one bit duration.
func CarrierSignal(c *Canvas, p BitParams) {
	c.Clear(White)
	Axes(c)
	pl, ok := newPlot(c, Margin)
	if !ok {
		return
	}
	amp := pl.ph * 0.3
	cy := pl.centerY()
	trace(c, waveform.Carrier(waveform.Sine, unit(p)), pl.m, cy, amp, int(pl.pw), 0, p.BitDuration, 2, CarrierOrange)

	c.Text(15, int(cy-amp-10), "Ac", Text)
	c.Text(15, int(cy+amp+15), "-Ac", Text)
	c.Text(int(pl.m+10), int(pl.m+20), fmt.Sprintf("Carrier: %g Hz", p.CarrierHz), CarrierOrange)
}

// ModulationProcess stacks the bit, the carrier and the keyed result in
// three equal horizontal bands.
func ModulationProcess(c *Canvas, p BitParams) {
	c.Clear(White)
	pl, ok := newPlot(c, Margin)
	if !ok {
		Axes(c)
		return
	}
	sh := pl.h / 3
	x0, n := pl.m, int(pl.pw)

	level := sh * 0.7
	if p.One {
		level = sh * 0.3
	}
	c.Line(x0, level, x0+pl.pw, level, 2, DigitalBlue)

	amp := sh * 0.25
	trace(c, waveform.Carrier(waveform.Sine, unit(p)), x0, sh+sh/2, amp, n, 0, p.BitDuration, 2, CarrierOrange)
	trace(c, waveform.CanvasKeying.Bit(unit(p), p.One), x0, 2*sh+sh/2, amp, n, 0, p.BitDuration, 2, ModulatedGreen)

	for i, label := range []string{"Digital signal", "Carrier signal", "Modulated signal"} {
		c.Text(int(pl.m+10), int(float64(i)*sh+15), label, Text)
	}
}

// OutputSignal draws the keyed carrier for the selected bit.
func OutputSignal(c *Canvas, p BitParams) {
	c.Clear(White)
	Axes(c)
	pl, ok := newPlot(c, Margin)
	if !ok {
		return
	}
	cy := pl.centerY()
	trace(c, waveform.CanvasKeying.Bit(unit(p), p.One), pl.m, cy, pl.ph*0.3, int(pl.pw), 0, p.BitDuration, 3, ModulatedGreen)

	c.Text(15, int(cy), "Amplitude", Text)
	c.Text(int(pl.m+10), int(pl.m+20), fmt.Sprintf("%s output", p.Modulation), ModulatedGreen)
}

// TextCarrierHz is the fixed carrier used when a whole message is drawn.
const TextCarrierHz = 10

// TextModulation draws an entire bitstream keyed at baudRate symbols per
// second and labels the first MaxSequenceBits bits above the plot.
func TextModulation(c *Canvas, bits string, m model.ModulationType, baudRate float64) error {
	if !(baudRate > 0) || math.IsInf(baudRate, 0) {
		return fmt.Errorf("%w: baud rate must be positive, got %v", model.ErrInvalidParameter, baudRate)
	}
	c.Clear(White)
	Axes(c)
	pl, ok := newPlot(c, Margin)
	if !ok || len(bits) == 0 {
		return nil
	}
	bitDuration := 1 / baudRate
	total := float64(len(bits)) * bitDuration
	params := waveform.Params{Modulation: m, CarrierHz: TextCarrierHz, Amplitude: 1}
	trace(c, waveform.CanvasKeying.Bitstream(params, bits, bitDuration), pl.m, pl.centerY(), pl.ph*0.3, int(pl.pw), 0, total, 2, ModulatedGreen)

	shown := min(len(bits), 16)
	slot := pl.pw / float64(shown)
	for i := 0; i < shown; i++ {
		x := pl.m + (float64(i)+0.5)*slot
		c.Text(int(x), int(pl.m-5), bits[i:i+1], Text)
	}
	return nil
}

// ComparisonMargin is the inset of the side-by-side comparison canvases.
const ComparisonMargin = 20

// ComparisonCarrierHz is the carrier used by the comparison canvases, drawn
// over one second.
const ComparisonCarrierHz = 5

// Comparison draws one modulation type for a bit, coloured by bit value.
func Comparison(c *Canvas, m model.ModulationType, one bool) {
	c.Clear(White)
	pl, ok := newPlot(c, ComparisonMargin)
	if !ok {
		return
	}
	col := BitColour(one)
	params := waveform.Params{Modulation: m, CarrierHz: ComparisonCarrierHz, Amplitude: 1}
	trace(c, waveform.CanvasKeying.Bit(params, one), pl.m, pl.centerY(), pl.ph*0.3, int(pl.pw), 0, 1, 2, col)

	bit := "0"
	if one {
		bit = "1"
	}
	c.Text(int(pl.m+5), int(pl.m+15), "Bit "+bit, col)
}

// BitPreview draws a small marginless thumbnail spanning two carrier cycles.
func BitPreview(c *Canvas, m model.ModulationType, one bool) {
	c.Clear(White)
	w, h := c.Width(), float64(c.Height())
	// sin(4π·x/w) is a 2 Hz carrier sampled over [0, (w-1)/w].
	params := waveform.Params{Modulation: m, CarrierHz: 2, Amplitude: 1}
	end := float64(w-1) / float64(w)
	trace(c, waveform.PreviewKeying.Bit(params, one), 0, h/2, h*0.3, w-1, 0, end, 2, BitColour(one))
}

// CarrierWave draws five carrier cycles to the right of a y axis at x=50.
func CarrierWave(c *Canvas, frequencyHz float64) {
	c.Clear(White)
	w, h := float64(c.Width()), float64(c.Height())
	c.Line(0, h/2, w, h/2, 1, AxisLight)
	c.Line(50, 0, 50, h, 1, AxisLight)

	amp := h * 0.3
	if w > 51 {
		cols := int(w) - 51
		end := float64(cols) / (w - 50)
		params := waveform.Params{CarrierHz: 5, Amplitude: 1}
		trace(c, waveform.Carrier(waveform.Sine, params), 50, h/2, amp, cols, 0, end, 2, CarrierBlue)
	}

	c.Text(60, 20, "Carrier signal", Text)
	c.Text(60, 40, fmt.Sprintf("Frequency: %g Hz", frequencyHz), Text)
	c.Text(10, int(h/2-amp-10), "Amplitude: Ac", Text)
	c.Text(int(w-60), int(h-10), "Time ->", Text)
}

// ChartMargin is the inset of the BER performance chart.
const ChartMargin = 60

// MaxChartSNR is the right edge of the performance chart in dB.
const MaxChartSNR = 20

var curveColours = map[model.ModulationType]color.RGBA{
	model.ModulationASK: BitZeroRed,
	model.ModulationFSK: FSKAmber,
	model.ModulationPSK: BitOneGreen,
}

// PerformanceChart plots the theoretical BER of each modulation from 0 to
// MaxChartSNR dB on a log axis spanning 1e-6..1.
func PerformanceChart(c *Canvas) {
	c.Clear(White)
	pl, ok := newPlot(c, ChartMargin)
	w, h := pl.w, pl.h
	c.Line(ChartMargin, h-ChartMargin, w-ChartMargin, h-ChartMargin, 1, AxisGrey)
	c.Line(ChartMargin, ChartMargin, ChartMargin, h-ChartMargin, 1, AxisGrey)
	if !ok {
		return
	}

	for i, m := range model.Modulations {
		col := curveColours[m]
		curve := dsp.BERCurve(m, MaxChartSNR)
		pts := make([]Point, len(curve))
		for snr, ber := range curve {
			pts[snr] = Point{
				X: pl.m + float64(snr)/MaxChartSNR*pl.pw,
				Y: h - pl.m - (math.Log10(ber)+6)/6*pl.ph,
			}
		}
		c.Path(pts, 2, col)

		ly := int(pl.m) + i*25
		c.FillRect(int(w-pl.m+10), ly, 15, 10, col)
		c.Text(int(w-pl.m+30), ly+8, string(m), Text)
	}

	c.Text(int(w/2-30), int(h-20), "SNR (dB)", Text)
	c.Text(8, int(h/2), "BER", Text)
}

// MaxDenominator bounds the number of segments FractionCircle will draw.
const MaxDenominator = 360

// FractionCircle draws a pie split into den equal segments, the first num
// of them highlighted when highlight is set.
func FractionCircle(c *Canvas, num, den int, highlight bool) error {
	if den <= 0 || den > MaxDenominator || num < 0 || num > den {
		return fmt.Errorf("%w: fraction %d/%d (denominator 1..%d)", model.ErrInvalidParameter, num, den, MaxDenominator)
	}
	c.Clear(White)
	size := float64(min(c.Width(), c.Height()))
	r := size/2 - 5
	if r <= 0 {
		return nil
	}
	cx, cy := float64(c.Width())/2, float64(c.Height())/2
	seg := 2 * math.Pi / float64(den)
	base := WithAlpha(FractionBase, 0.7)
	c.FillWheel(cx, cy, r, den, func(i int) color.RGBA {
		if highlight && i < num {
			return FractionHighlight
		}
		return base
	})
	for i := 0; i < den; i++ {
		a := float64(i) * seg
		if den > 1 {
			c.Line(cx, cy, cx+r*math.Cos(a), cy+r*math.Sin(a), 2, White)
		}
	}
	c.Arc(cx, cy, r, 0, 2*math.Pi, 2, White)
	return nil
}
