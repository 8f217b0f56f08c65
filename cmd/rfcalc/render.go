package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/rfvision/internal/animation"
	"github.com/signalsfoundry/rfvision/internal/codec"
	"github.com/signalsfoundry/rfvision/internal/demo"
	"github.com/signalsfoundry/rfvision/internal/logging"
	"github.com/signalsfoundry/rfvision/internal/render"
	"github.com/signalsfoundry/rfvision/internal/viewer"
	"github.com/signalsfoundry/rfvision/model"
)

// bitFlags are the single-bit demo parameters shared by render and animate.
type bitFlags struct {
	bit         string
	modulation  string
	carrierHz   float64
	bitDuration float64
}

func (b *bitFlags) register(cmd *cobra.Command) {
	d := demo.DefaultParams()
	cmd.Flags().StringVar(&b.bit, "bit", d.Bit, "bit value, 0 or 1")
	cmd.Flags().StringVar(&b.modulation, "modulation", string(d.Modulation), "ASK, FSK or PSK")
	cmd.Flags().Float64Var(&b.carrierHz, "carrier", d.CarrierHz, "carrier frequency in Hz")
	cmd.Flags().Float64Var(&b.bitDuration, "bit-duration", d.BitDuration, "bit duration in seconds")
}

func (b *bitFlags) params() (demo.Params, error) {
	p := demo.DefaultParams()
	m, err := model.ParseModulation(b.modulation)
	if err != nil {
		return p, err
	}
	p.Bit = b.bit
	p.Modulation = m
	p.CarrierHz = b.carrierHz
	p.BitDuration = b.bitDuration
	return p, p.Validate()
}

func newRenderCmd(o *rootOptions) *cobra.Command {
	var (
		bits        bitFlags
		out         string
		bitString   string
		text        string
		baudRate    float64
		width       int
		height      int
		numerator   int
		denominator int
		highlight   bool
	)
	cmd := &cobra.Command{
		Use:       "render CANVAS",
		Short:     "Render a canvas to PNG",
		Long:      "Render one of the registered canvases to a PNG file. Run `rfcalc render --list` for names.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: render.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list, _ := cmd.Flags().GetBool("list"); list {
				return o.print(cmd, render.Names(), fmt.Sprint(render.Names()))
			}
			if len(args) != 1 {
				return fmt.Errorf("%w: canvas name required", model.ErrInvalidParameter)
			}
			name := args[0]
			p, err := bits.params()
			if err != nil {
				return err
			}
			if bitString == "" && text != "" {
				if bitString, err = codec.TextToBinary(text); err != nil {
					return err
				}
			}
			if bitString != "" {
				if err := codec.Validate(bitString); err != nil {
					return err
				}
			}
			data, err := render.DrawPNG(name, render.Options{
				Width:  width,
				Height: height,
				Bit: render.BitParams{
					One:         p.One(),
					Modulation:  p.Modulation,
					CarrierHz:   p.CarrierHz,
					BitDuration: p.BitDuration,
				},
				Bits:        bitString,
				BaudRate:    baudRate,
				Numerator:   numerator,
				Denominator: denominator,
				Highlight:   highlight,
			})
			if err != nil {
				return err
			}
			if out == "" {
				out = name + ".png"
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			o.logger(cmd).Info(cmd.Context(), "canvas rendered",
				logging.String("canvas", name), logging.String("path", out))
			return o.print(cmd, map[string]any{"canvas": name, "path": out, "bytes": len(data)}, out)
		},
	}
	bits.register(cmd)
	cmd.Flags().Bool("list", false, "list canvas names and exit")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default CANVAS.png)")
	cmd.Flags().StringVar(&bitString, "bits", "", "bit string for the text canvas")
	cmd.Flags().StringVar(&text, "text", "", "text to encode for the text canvas")
	cmd.Flags().Float64Var(&baudRate, "baud", 1, "baud rate for the text canvas")
	cmd.Flags().IntVar(&width, "width", 0, "width in pixels (0 = canvas default)")
	cmd.Flags().IntVar(&height, "height", 0, "height in pixels (0 = canvas default)")
	cmd.Flags().IntVar(&numerator, "numerator", 1, "fraction numerator for the fraction canvas")
	cmd.Flags().IntVar(&denominator, "denominator", 2, "fraction denominator for the fraction canvas")
	cmd.Flags().BoolVar(&highlight, "highlight", false, "highlight the shaded fraction")
	return cmd
}

func newAnimateCmd(o *rootOptions) *cobra.Command {
	var (
		bits     bitFlags
		frames   int
		outDir   string
		window   bool
		realtime bool
		scale    int
		width    int
		height   int
	)
	cmd := &cobra.Command{
		Use:   "animate",
		Short: "Play the demo animation in a window or write its stages as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := bits.params()
			if err != nil {
				return err
			}
			mode := animation.Accelerated
			if realtime || window {
				mode = animation.RealTime
			}
			log := o.logger(cmd)
			driver := animation.NewDriver(0, mode, len(demo.Stages))
			ctrl := demo.NewController(driver, demo.WithLogger(log), demo.WithCanvasSize(width, height))
			defer ctrl.Close()
			if err := ctrl.SetParams(p); err != nil {
				return err
			}

			if window {
				return viewer.RunWindow(ctrl, scale)
			}
			paths, err := viewer.RunHeadless(cmd.Context(), ctrl, viewer.HeadlessConfig{Frames: frames, OutDir: outDir}, log)
			if err != nil {
				return err
			}
			return o.print(cmd, map[string]any{"frames": frames, "snapshots": paths},
				fmt.Sprintf("wrote %d snapshots to %s", len(paths), filepath.Clean(outDir)))
		},
	}
	bits.register(cmd)
	cmd.Flags().IntVar(&frames, "frames", 0, "frames to run (0 = one full cycle)")
	cmd.Flags().StringVar(&outDir, "out", "frames", "snapshot directory")
	cmd.Flags().BoolVar(&window, "window", false, "open a desktop window instead of writing PNGs")
	cmd.Flags().BoolVar(&realtime, "realtime", false, "pace headless frames at the display rate")
	cmd.Flags().IntVar(&scale, "scale", 1, "window scale factor")
	cmd.Flags().IntVar(&width, "width", 0, "canvas width in pixels (0 = default)")
	cmd.Flags().IntVar(&height, "height", 0, "canvas height in pixels (0 = default)")
	return cmd
}
