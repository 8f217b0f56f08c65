package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/rfvision/core"
	"github.com/signalsfoundry/rfvision/kb"
	"github.com/signalsfoundry/rfvision/model"
)

func requirePositive(values map[string]float64) error {
	for name, v := range values {
		if !(v > 0) {
			return fmt.Errorf("%w: --%s must be positive, got %v", model.ErrInvalidParameter, name, v)
		}
	}
	return nil
}

func newPathLossCmd(o *rootOptions) *cobra.Command {
	var distanceKm, frequencyMHz float64
	cmd := &cobra.Command{
		Use:   "pathloss",
		Short: "Free-space path loss in dB",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requirePositive(map[string]float64{"distance-km": distanceKm, "frequency-mhz": frequencyMHz}); err != nil {
				return err
			}
			loss := core.FreeSpacePathLoss(distanceKm, frequencyMHz)
			wl := core.Wavelength(frequencyMHz * 1e6)
			return o.print(cmd, map[string]float64{
				"distance_km":   distanceKm,
				"frequency_mhz": frequencyMHz,
				"path_loss_db":  loss,
				"wavelength_m":  wl,
			}, fmt.Sprintf("FSPL %.2f dB (λ = %.4f m)", loss, wl))
		},
	}
	cmd.Flags().Float64Var(&distanceKm, "distance-km", 0, "link distance in km")
	cmd.Flags().Float64Var(&frequencyMHz, "frequency-mhz", 0, "carrier frequency in MHz")
	_ = cmd.MarkFlagRequired("distance-km")
	_ = cmd.MarkFlagRequired("frequency-mhz")
	return cmd
}

func newFriisCmd(o *rootOptions) *cobra.Command {
	var ptDBm, gtDBi, grDBi, distanceKm, frequencyMHz float64
	cmd := &cobra.Command{
		Use:   "friis",
		Short: "Received power of a free-space link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requirePositive(map[string]float64{"distance-km": distanceKm, "frequency-mhz": frequencyMHz}); err != nil {
				return err
			}
			pr := core.FriisReceivedPower(ptDBm, gtDBi, grDBi, distanceKm, frequencyMHz)
			return o.print(cmd, map[string]float64{
				"path_loss_db":       core.FreeSpacePathLoss(distanceKm, frequencyMHz),
				"received_power_dbm": pr,
				"received_power_w":   core.DBmToWatts(pr),
			}, fmt.Sprintf("Pr %.2f dBm (%.3e W)", pr, core.DBmToWatts(pr)))
		},
	}
	cmd.Flags().Float64Var(&ptDBm, "tx-power-dbm", 30, "transmit power in dBm")
	cmd.Flags().Float64Var(&gtDBi, "tx-gain-dbi", 0, "transmit antenna gain in dBi")
	cmd.Flags().Float64Var(&grDBi, "rx-gain-dbi", 0, "receive antenna gain in dBi")
	cmd.Flags().Float64Var(&distanceKm, "distance-km", 0, "link distance in km")
	cmd.Flags().Float64Var(&frequencyMHz, "frequency-mhz", 0, "carrier frequency in MHz")
	_ = cmd.MarkFlagRequired("distance-km")
	_ = cmd.MarkFlagRequired("frequency-mhz")
	return cmd
}

func newNoiseCmd(o *rootOptions) *cobra.Command {
	var bandwidthHz, temperatureK, signalDBm float64
	cmd := &cobra.Command{
		Use:   "noise",
		Short: "Thermal noise power kTB",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requirePositive(map[string]float64{"bandwidth-hz": bandwidthHz, "temperature-k": temperatureK}); err != nil {
				return err
			}
			n := core.NoisePower(temperatureK, bandwidthHz)
			res := map[string]float64{
				"noise_power_w":   n,
				"noise_power_dbm": core.WattsToDBm(n),
			}
			text := fmt.Sprintf("N %.2f dBm (%.3e W)", core.WattsToDBm(n), n)
			if cmd.Flags().Changed("signal-power-dbm") {
				snr := core.SNR(core.DBmToWatts(signalDBm), n)
				res["snr_db"] = snr
				text += fmt.Sprintf(", SNR %.2f dB", snr)
			}
			return o.print(cmd, res, text)
		},
	}
	cmd.Flags().Float64Var(&bandwidthHz, "bandwidth-hz", 0, "noise bandwidth in Hz")
	cmd.Flags().Float64Var(&temperatureK, "temperature-k", core.ReferenceNoiseTempK, "noise temperature in kelvin")
	cmd.Flags().Float64Var(&signalDBm, "signal-power-dbm", 0, "optional signal power for an SNR estimate")
	_ = cmd.MarkFlagRequired("bandwidth-hz")
	return cmd
}

func newSNRCmd(o *rootOptions) *cobra.Command {
	var signalW, noiseW float64
	cmd := &cobra.Command{
		Use:   "snr",
		Short: "Signal-to-noise ratio in dB from powers in watts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requirePositive(map[string]float64{"signal-w": signalW, "noise-w": noiseW}); err != nil {
				return err
			}
			snr := core.SNR(signalW, noiseW)
			return o.print(cmd, map[string]float64{"snr_db": snr}, fmt.Sprintf("SNR %.2f dB", snr))
		},
	}
	cmd.Flags().Float64Var(&signalW, "signal-w", 0, "signal power in watts")
	cmd.Flags().Float64Var(&noiseW, "noise-w", 0, "noise power in watts")
	_ = cmd.MarkFlagRequired("signal-w")
	_ = cmd.MarkFlagRequired("noise-w")
	return cmd
}

func newConvertCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "convert VALUE FROM TO",
		Short:   "Convert between dbm, watts, db, linear, deg and rad",
		Example: "  rfcalc convert 30 dbm watts",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("%w: %q is not a number", model.ErrInvalidParameter, args[0])
			}
			out, err := core.Convert(v, args[1], args[2])
			if err != nil {
				return err
			}
			return o.print(cmd, map[string]any{
				"value":  v,
				"from":   strings.ToLower(args[1]),
				"to":     strings.ToLower(args[2]),
				"result": out,
			}, strconv.FormatFloat(out, 'g', -1, 64))
		},
	}
}

func newLinkBudgetCmd(o *rootOptions) *cobra.Command {
	var catalogPath, tx, rx string
	var distanceKm float64
	cmd := &cobra.Command{
		Use:   "linkbudget",
		Short: "Evaluate the link between two transceivers from a catalog file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := kb.NewCatalog()
			if _, err := catalog.LoadFile(catalogPath); err != nil {
				return err
			}
			lb, err := catalog.LinkBudget(tx, rx, distanceKm)
			if err != nil {
				return err
			}
			return o.print(cmd, lb, fmt.Sprintf(
				"%s → %s @ %g km, %.1f MHz: FSPL %.2f dB, Pr %.2f dBm, noise %.2f dBm, SNR %.2f dB (%s)",
				lb.TxID, lb.RxID, lb.DistanceKm, lb.FrequencyMHz,
				lb.PathLossDB, lb.RxPowerDBm, lb.NoiseFloorDBm, lb.SNRdB, lb.Quality))
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "configs/transceivers.yaml", "transceiver catalog (JSON or YAML)")
	cmd.Flags().StringVar(&tx, "tx", "", "transmitter ID")
	cmd.Flags().StringVar(&rx, "rx", "", "receiver ID")
	cmd.Flags().Float64Var(&distanceKm, "distance-km", 0, "link distance in km")
	_ = cmd.MarkFlagRequired("tx")
	_ = cmd.MarkFlagRequired("rx")
	_ = cmd.MarkFlagRequired("distance-km")
	return cmd
}
