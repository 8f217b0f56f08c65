//go:build cgo

package viewer

import (
	"bytes"
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/signalsfoundry/rfvision/internal/demo"
)

// RunWindow opens a desktop window showing the current stage canvas. Space
// toggles play/pause, the right arrow steps and R resets. It blocks until
// the window closes.
func RunWindow(ctrl *demo.Controller, scale int) error {
	if scale <= 0 {
		scale = 1
	}
	g := &game{ctrl: ctrl}
	img, err := stageImage(ctrl, ctrl.State())
	if err != nil {
		return err
	}
	b := img.Bounds()
	g.width, g.height = b.Dx(), b.Dy()

	ebiten.SetWindowTitle("RFVision")
	ebiten.SetWindowSize(g.width*scale, g.height*scale)
	ebiten.SetTPS(ebiten.DefaultTPS)
	ctrl.Play()
	return ebiten.RunGame(g)
}

type game struct {
	ctrl          *demo.Controller
	width, height int

	last  []byte
	rgba  *image.RGBA
	frame *ebiten.Image
}

func (g *game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if g.ctrl.State().Playing {
			g.ctrl.Pause()
		} else {
			g.ctrl.Play()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		g.ctrl.StepForward()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.ctrl.Reset()
	}
	g.ctrl.Driver().Advance()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	f := g.ctrl.State()
	data, err := g.ctrl.Frame(demo.StageCanvas(f.Step))
	if err == nil && !bytes.Equal(data, g.last) {
		if img, err := stageImage(g.ctrl, f); err == nil {
			g.upload(img)
			g.last = data
		}
	}
	if g.frame != nil {
		screen.DrawImage(g.frame, nil)
	}
	state := "paused"
	if f.Playing {
		state = "playing"
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf("%s  stage %d/%d  t=%.2fs",
		demo.StageCanvas(f.Step), f.Step+1, f.MaxSteps, f.Time))
	ebitenutil.DebugPrintAt(screen, state, 0, 16)
}

func (g *game) upload(img image.Image) {
	b := img.Bounds()
	if g.rgba == nil || g.rgba.Bounds() != b {
		g.rgba = image.NewRGBA(b)
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(b.Dx(), b.Dy())
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g.rgba.Set(x, y, img.At(x, y))
		}
	}
	g.frame.WritePixels(g.rgba.Pix)
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}
