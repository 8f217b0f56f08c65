package model

// Signal is a sampled waveform. Time and Values always have equal length.
type Signal struct {
	Time   []float64 `json:"time"`
	Values []float64 `json:"signal"`
}

// Len returns the number of samples.
func (s Signal) Len() int { return len(s.Values) }

// Spectrum is the one-sided magnitude/phase spectrum of a Signal.
type Spectrum struct {
	Frequencies []float64 `json:"frequencies"`
	Magnitude   []float64 `json:"magnitude"`
	Phase       []float64 `json:"phase"`
}
