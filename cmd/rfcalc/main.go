// Command rfcalc evaluates the RF formulas, encodes text and renders the
// demo canvases from the command line.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/rfvision/internal/logging"
)

type rootOptions struct {
	json     bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "rfcalc",
		Short: "RF calculator and modulation canvas renderer",
		Long: `rfcalc evaluates free-space path loss, Friis received power, thermal
noise and link budgets, converts between RF units, encodes text as 8-bit
binary and renders the modulation demo canvases to PNG.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print results as JSON")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newPathLossCmd(opts),
		newFriisCmd(opts),
		newNoiseCmd(opts),
		newSNRCmd(opts),
		newConvertCmd(opts),
		newLinkBudgetCmd(opts),
		newText2BinCmd(opts),
		newRenderCmd(opts),
		newAnimateCmd(opts),
	)
	return root
}

func (o *rootOptions) logger(cmd *cobra.Command) logging.Logger {
	return logging.New(logging.Config{Level: o.logLevel, Output: cmd.ErrOrStderr()})
}

// print writes v as indented JSON with --json, or the text form otherwise.
func (o *rootOptions) print(cmd *cobra.Command, v any, text string) error {
	out := cmd.OutOrStdout()
	if o.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(out, text)
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
