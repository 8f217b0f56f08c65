// Package viewer shows the demo animation in a desktop window, or drives it
// without a window and writes each stage to disk as PNG.
package viewer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/signalsfoundry/rfvision/internal/animation"
	"github.com/signalsfoundry/rfvision/internal/demo"
	"github.com/signalsfoundry/rfvision/internal/logging"
)

// HeadlessConfig controls the no-window runner.
type HeadlessConfig struct {
	// Frames is the number of animation frames to run; 0 runs one cycle.
	Frames int
	// OutDir receives one PNG per stage change.
	OutDir string
}

// CycleFrames is the number of frames in one pass through every stage.
func CycleFrames() int {
	return int(animation.CycleSeconds / animation.FrameSeconds)
}

// stageImage decodes the canvas for the current step of ctrl.
func stageImage(ctrl *demo.Controller, f animation.Frame) (image.Image, error) {
	data, err := ctrl.Frame(demo.StageCanvas(f.Step))
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(data))
}

// RunHeadless plays the demo for cfg.Frames frames, paced by the driver's
// mode, and writes the stage canvas whenever the stage changes. It returns
// the paths written.
func RunHeadless(ctx context.Context, ctrl *demo.Controller, cfg HeadlessConfig, log logging.Logger) ([]string, error) {
	if log == nil {
		log = logging.Noop()
	}
	if cfg.Frames <= 0 {
		cfg.Frames = CycleFrames()
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "."
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("viewer: create output dir: %w", err)
	}

	driver := ctrl.Driver()
	var tick <-chan time.Time
	if driver.Mode() == animation.RealTime {
		t := time.NewTicker(driver.Interval())
		defer t.Stop()
		tick = t.C
	}

	ctrl.Play()
	defer ctrl.Pause()

	var written []string
	last := -1
	for n := range cfg.Frames {
		if tick != nil {
			select {
			case <-ctx.Done():
				return written, ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return written, err
		}

		f, _ := driver.Advance()
		if f.Step == last {
			continue
		}
		last = f.Step
		name := demo.StageCanvas(f.Step)
		data, err := ctrl.Frame(name)
		if err != nil {
			return written, err
		}
		path := filepath.Join(cfg.OutDir, fmt.Sprintf("frame-%04d-%s.png", n, name))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("viewer: write snapshot: %w", err)
		}
		log.Debug(ctx, "snapshot written",
			logging.String("path", path),
			logging.Int("step", f.Step),
		)
		written = append(written, path)
	}
	log.Info(ctx, "headless run finished",
		logging.Int("frames", cfg.Frames),
		logging.Int("snapshots", len(written)),
	)
	return written, nil
}
