package core

// FrequencyBand is an inclusive [min,max] band in MHz.
type FrequencyBand struct {
	MinMHz float64 `json:"min_mhz" yaml:"min_mhz"`
	MaxMHz float64 `json:"max_mhz" yaml:"max_mhz"`
}

// CenterMHz returns the mid-band frequency.
func (b FrequencyBand) CenterMHz() float64 {
	return (b.MinMHz + b.MaxMHz) / 2
}

// Contains reports whether f lies inside the band.
func (b FrequencyBand) Contains(fMHz float64) bool {
	return fMHz >= b.MinMHz && fMHz <= b.MaxMHz
}

// TransceiverModel describes the RF characteristics of a radio used by the
// link budget calculator.
type TransceiverModel struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	Band FrequencyBand `json:"band" yaml:"band"`

	TxPowerDBm float64 `json:"tx_power_dbm" yaml:"tx_power_dbm"`
	GainTxDBi  float64 `json:"gain_tx_dbi" yaml:"gain_tx_dbi"`
	GainRxDBi  float64 `json:"gain_rx_dbi" yaml:"gain_rx_dbi"`

	// BandwidthHz is the receiver noise bandwidth. Zero falls back to
	// DefaultBandwidthHz.
	BandwidthHz float64 `json:"bandwidth_hz,omitempty" yaml:"bandwidth_hz,omitempty"`

	// NoiseTemperatureK is the receiver physical temperature. Zero falls
	// back to ReferenceNoiseTempK.
	NoiseTemperatureK float64 `json:"noise_temperature_k,omitempty" yaml:"noise_temperature_k,omitempty"`

	// NoiseFigureDB is a pointer so that an explicit 0 dB (ideal receiver)
	// can be told apart from unset.
	NoiseFigureDB *float64 `json:"noise_figure_db,omitempty" yaml:"noise_figure_db,omitempty"`
}

// IsCompatible returns true if the frequency bands overlap at all.
func (tm *TransceiverModel) IsCompatible(other *TransceiverModel) bool {
	if tm == nil || other == nil {
		return false
	}
	return !(tm.Band.MaxMHz < other.Band.MinMHz || tm.Band.MinMHz > other.Band.MaxMHz)
}

// Clone returns a deep copy.
func (tm *TransceiverModel) Clone() *TransceiverModel {
	if tm == nil {
		return nil
	}
	out := *tm
	if tm.NoiseFigureDB != nil {
		nf := *tm.NoiseFigureDB
		out.NoiseFigureDB = &nf
	}
	return &out
}
