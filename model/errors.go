package model

import "errors"

var (
	// ErrInvalidParameter marks a caller-supplied value outside its domain
	// (negative frequency, zero bit rate, malformed number).
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrUnknownModulation is returned for modulation names other than
	// ASK, FSK and PSK.
	ErrUnknownModulation = errors.New("unknown modulation type")
	// ErrUnknownCoding is returned for unsupported baseband line codings.
	ErrUnknownCoding = errors.New("unknown line coding")
)
