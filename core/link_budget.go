package core

import (
	"errors"
	"fmt"
	"math"
)

// DefaultBandwidthHz is the noise bandwidth assumed when a transceiver does
// not declare one.
const DefaultBandwidthHz = 1e6

var (
	ErrIncompatibleBands = errors.New("transceiver bands do not overlap")
	ErrBadDistance       = errors.New("distance must be positive")
)

// LinkQuality is a coarse, human-readable classification of a link derived
// from its SNR.
type LinkQuality string

const (
	LinkQualityDown      LinkQuality = "down"
	LinkQualityPoor      LinkQuality = "poor"
	LinkQualityFair      LinkQuality = "fair"
	LinkQualityGood      LinkQuality = "good"
	LinkQualityExcellent LinkQuality = "excellent"
)

// LinkBudget is the result of evaluating a point-to-point radio link.
type LinkBudget struct {
	TxID          string      `json:"tx_id"`
	RxID          string      `json:"rx_id"`
	DistanceKm    float64     `json:"distance_km"`
	FrequencyMHz  float64     `json:"frequency_mhz"`
	WavelengthM   float64     `json:"wavelength_m"`
	PathLossDB    float64     `json:"path_loss_db"`
	RxPowerDBm    float64     `json:"rx_power_dbm"`
	NoiseFloorDBm float64     `json:"noise_floor_dbm"`
	NoiseFigureDB float64     `json:"noise_figure_db"`
	SNRdB         float64     `json:"snr_db"`
	Quality       LinkQuality `json:"quality"`
}

// EstimateLinkBudget evaluates the link from tx to rx at distanceKm using
// the mid-band frequency of the transmitter. The noise floor is kTB at the
// receiver plus the average declared noise figure of both ends.
func EstimateLinkBudget(tx, rx *TransceiverModel, distanceKm float64) (LinkBudget, error) {
	if tx == nil || rx == nil {
		return LinkBudget{}, fmt.Errorf("%w: nil transceiver", ErrIncompatibleBands)
	}
	if !(distanceKm > 0) || math.IsInf(distanceKm, 0) {
		return LinkBudget{}, fmt.Errorf("%w: %v", ErrBadDistance, distanceKm)
	}
	if !tx.IsCompatible(rx) {
		return LinkBudget{}, fmt.Errorf("%w: %s [%g-%g MHz] vs %s [%g-%g MHz]", ErrIncompatibleBands,
			tx.ID, tx.Band.MinMHz, tx.Band.MaxMHz, rx.ID, rx.Band.MinMHz, rx.Band.MaxMHz)
	}

	fMHz := tx.Band.CenterMHz()
	fspl := FreeSpacePathLoss(distanceKm, fMHz)
	pr := FriisReceivedPower(tx.TxPowerDBm, tx.GainTxDBi, rx.GainRxDBi, distanceKm, fMHz)

	bw := rx.BandwidthHz
	if bw <= 0 {
		bw = DefaultBandwidthHz
	}
	temp := rx.NoiseTemperatureK
	if temp <= 0 {
		temp = ReferenceNoiseTempK
	}
	nf := averageNoiseFigure(tx, rx)
	noiseFloor := WattsToDBm(NoisePower(temp, bw)) + nf

	snr := pr - noiseFloor
	return LinkBudget{
		TxID:          tx.ID,
		RxID:          rx.ID,
		DistanceKm:    distanceKm,
		FrequencyMHz:  fMHz,
		WavelengthM:   Wavelength(fMHz * 1e6),
		PathLossDB:    fspl,
		RxPowerDBm:    pr,
		NoiseFloorDBm: noiseFloor,
		NoiseFigureDB: nf,
		SNRdB:         snr,
		Quality:       ClassifySNR(snr),
	}, nil
}

// ClassifySNR buckets an SNR value. Thresholds are soft and meant for
// display only.
func ClassifySNR(snr float64) LinkQuality {
	switch {
	case math.IsNaN(snr) || snr < 0:
		return LinkQualityDown
	case snr < 5:
		return LinkQualityPoor
	case snr < 10:
		return LinkQualityFair
	case snr < 20:
		return LinkQualityGood
	default:
		return LinkQualityExcellent
	}
}

// averageNoiseFigure averages the declared noise figures; unset (nil)
// figures are skipped, an explicit 0 dB counts.
func averageNoiseFigure(tx, rx *TransceiverModel) float64 {
	sum := 0.0
	count := 0
	for _, model := range []*TransceiverModel{tx, rx} {
		if model == nil || model.NoiseFigureDB == nil {
			continue
		}
		sum += *model.NoiseFigureDB
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
