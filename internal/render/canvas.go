// Package render draws the demo plots onto an in-memory RGBA raster. The
// Canvas satisfies the tinygo drivers.Displayer interface so tinyfont can
// write labels straight onto it.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"github.com/signalsfoundry/rfvision/model"
)

// MaxDimension bounds canvas width and height; coordinates are int16 on the
// Displayer interface.
const MaxDimension = 4096

var _ drivers.Displayer = (*Canvas)(nil)

// Canvas is a white-backed RGBA raster with a handful of immediate-mode
// drawing primitives.
type Canvas struct {
	img  *image.RGBA
	font tinyfont.Fonter
}

// NewCanvas allocates a w×h canvas cleared to white.
func NewCanvas(w, h int) (*Canvas, error) {
	if w <= 0 || h <= 0 || w > MaxDimension || h > MaxDimension {
		return nil, fmt.Errorf("%w: canvas size %dx%d outside 1..%d", model.ErrInvalidParameter, w, h, MaxDimension)
	}
	c := &Canvas{
		img:  image.NewRGBA(image.Rect(0, 0, w, h)),
		font: &proggy.TinySZ8pt7b,
	}
	c.Clear(White)
	return c, nil
}

func (c *Canvas) Width() int  { return c.img.Rect.Dx() }
func (c *Canvas) Height() int { return c.img.Rect.Dy() }

// Image returns the backing image. It aliases the canvas.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Size implements drivers.Displayer.
func (c *Canvas) Size() (x, y int16) {
	return int16(c.Width()), int16(c.Height())
}

// SetPixel implements drivers.Displayer. Out-of-range pixels are ignored and
// translucent colours (premultiplied, A < 255) are composited source-over.
func (c *Canvas) SetPixel(x, y int16, col color.RGBA) {
	c.set(int(x), int(y), col)
}

// Display implements drivers.Displayer; a raster has nothing to flush.
func (c *Canvas) Display() error { return nil }

func (c *Canvas) set(x, y int, col color.RGBA) {
	if x < 0 || y < 0 || x >= c.Width() || y >= c.Height() {
		return
	}
	if col.A == 0xFF {
		c.img.SetRGBA(x, y, col)
		return
	}
	dst := c.img.RGBAAt(x, y)
	inv := 255 - uint32(col.A)
	c.img.SetRGBA(x, y, color.RGBA{
		R: uint8(uint32(col.R) + uint32(dst.R)*inv/255),
		G: uint8(uint32(col.G) + uint32(dst.G)*inv/255),
		B: uint8(uint32(col.B) + uint32(dst.B)*inv/255),
		A: uint8(uint32(col.A) + uint32(dst.A)*inv/255),
	})
}

// Clear fills the whole canvas with col.
func (c *Canvas) Clear(col color.RGBA) {
	pix := c.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = col.R, col.G, col.B, col.A
	}
}

// At returns the colour at (x, y).
func (c *Canvas) At(x, y int) color.RGBA { return c.img.RGBAAt(x, y) }

// Line strokes a segment of the given width between two points.
func (c *Canvas) Line(x0, y0, x1, y1 float64, width int, col color.RGBA) {
	c.line(round(x0), round(y0), round(x1), round(y1), width, col)
}

func (c *Canvas) line(x0, y0, x1, y1, width int, col color.RGBA) {
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	e := dx + dy
	for {
		c.dot(x0, y0, width, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// dot stamps a width×width square centred on (x, y).
func (c *Canvas) dot(x, y, width int, col color.RGBA) {
	if width <= 1 {
		c.set(x, y, col)
		return
	}
	lo := -(width - 1) / 2
	for oy := lo; oy < lo+width; oy++ {
		for ox := lo; ox < lo+width; ox++ {
			c.set(x+ox, y+oy, col)
		}
	}
}

// Point is a canvas coordinate in pixels.
type Point struct{ X, Y float64 }

// Path strokes the polyline through pts, like a canvas moveTo followed by
// lineTo calls.
func (c *Canvas) Path(pts []Point, width int, col color.RGBA) {
	if len(pts) == 1 {
		c.dot(round(pts[0].X), round(pts[0].Y), width, col)
		return
	}
	for i := 1; i < len(pts); i++ {
		c.Line(pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y, width, col)
	}
}

// FillRect fills the w×h rectangle with its top-left corner at (x, y).
func (c *Canvas) FillRect(x, y, w, h int, col color.RGBA) {
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, c.Width()), min(y+h, c.Height())
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			c.set(px, py, col)
		}
	}
}

// FillSector fills the pie slice of radius r centred on (cx, cy) between
// angles start and end (radians, clockwise from +x as on screen).
func (c *Canvas) FillSector(cx, cy, r, start, end float64, col color.RGBA) {
	if r <= 0 || end <= start {
		return
	}
	full := end-start >= 2*math.Pi
	start = normAngle(start)
	span := end - start
	if !full {
		span = normAngle(end - start)
		if span == 0 {
			span = 2 * math.Pi
		}
	}
	x0, x1 := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	y0, y1 := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	for py := y0; py <= y1; py++ {
		for px := x0; px <= x1; px++ {
			dx, dy := float64(px)+0.5-cx, float64(py)+0.5-cy
			if dx*dx+dy*dy > r*r {
				continue
			}
			if !full && normAngle(math.Atan2(dy, dx)-start) >= span {
				continue
			}
			c.set(px, py, col)
		}
	}
}

// FillWheel fills a disc split into n equal sectors running clockwise from
// the +x axis, colouring sector i with colour(i). Each pixel is visited once.
func (c *Canvas) FillWheel(cx, cy, r float64, n int, colour func(i int) color.RGBA) {
	if r <= 0 || n <= 0 {
		return
	}
	seg := 2 * math.Pi / float64(n)
	x0, x1 := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	y0, y1 := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	for py := y0; py <= y1; py++ {
		for px := x0; px <= x1; px++ {
			dx, dy := float64(px)+0.5-cx, float64(py)+0.5-cy
			if dx*dx+dy*dy > r*r {
				continue
			}
			i := min(int(normAngle(math.Atan2(dy, dx))/seg), n-1)
			c.set(px, py, colour(i))
		}
	}
}

// Arc strokes the circular arc between start and end as a polyline.
func (c *Canvas) Arc(cx, cy, r, start, end float64, width int, col color.RGBA) {
	steps := max(8, int(math.Ceil(r*(end-start)/2)))
	pts := make([]Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		a := start + (end-start)*float64(i)/float64(steps)
		pts = append(pts, Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
	}
	c.Path(pts, width, col)
}

// Text writes s with its baseline at y, like fillText.
func (c *Canvas) Text(x, y int, s string, col color.RGBA) {
	tinyfont.WriteLine(c, c.font, int16(x), int16(y), s, col)
}

// TextWidth returns the rendered width of s in pixels.
func (c *Canvas) TextWidth(s string) int {
	_, w := tinyfont.LineWidth(c.font, s)
	return int(w)
}

// EncodePNG writes the canvas as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return png.Encode(w, c.img)
}

// PNG returns the canvas encoded as PNG.
func (c *Canvas) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func normAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func round(v float64) int { return int(math.Round(v)) }

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
