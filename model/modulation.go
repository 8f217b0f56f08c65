// Package model holds the small set of domain enums and sentinel errors
// shared by the signal, rendering and transport packages.
package model

import (
	"fmt"
	"strings"
)

// ModulationType selects how a bit is keyed onto the carrier.
type ModulationType string

const (
	ModulationASK ModulationType = "ASK"
	ModulationFSK ModulationType = "FSK"
	ModulationPSK ModulationType = "PSK"
)

// Modulations lists the supported keying schemes in display order.
var Modulations = []ModulationType{ModulationASK, ModulationFSK, ModulationPSK}

// ParseModulation accepts "ask", "ASK", " fsk " and so on.
func ParseModulation(s string) (ModulationType, error) {
	switch m := ModulationType(strings.ToUpper(strings.TrimSpace(s))); m {
	case ModulationASK, ModulationFSK, ModulationPSK:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownModulation, s)
	}
}

// Valid reports whether m is one of the supported schemes.
func (m ModulationType) Valid() bool {
	switch m {
	case ModulationASK, ModulationFSK, ModulationPSK:
		return true
	}
	return false
}

// Lower returns the lowercase name used in JSON payloads and labels.
func (m ModulationType) Lower() string { return strings.ToLower(string(m)) }

// LineCoding is a baseband coding scheme.
type LineCoding string

const (
	CodingNRZ        LineCoding = "NRZ"
	CodingRZ         LineCoding = "RZ"
	CodingManchester LineCoding = "Manchester"
)

// ParseLineCoding matches case-insensitively; an empty string means NRZ.
func ParseLineCoding(s string) (LineCoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nrz":
		return CodingNRZ, nil
	case "rz":
		return CodingRZ, nil
	case "manchester":
		return CodingManchester, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCoding, s)
	}
}

// AnalogModulation is one of the continuous schemes on the analog page.
type AnalogModulation string

const (
	AnalogAM AnalogModulation = "AM"
	AnalogFM AnalogModulation = "FM"
	AnalogPM AnalogModulation = "PM"
)
