// Package codec converts between text and the 8-bit binary strings the
// modulation demos transmit.
package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/signalsfoundry/rfvision/model"
)

// BitsPerChar is the width of every character code on the wire.
const BitsPerChar = 8

// MaxSequenceBits caps the per-bit walkthrough.
const MaxSequenceBits = 16

var (
	// ErrUnsupportedCharacter is returned for runes whose code does not fit
	// in eight bits.
	ErrUnsupportedCharacter = errors.New("character does not fit in 8 bits")
	// ErrInvalidBits is returned when a bit string contains anything other
	// than '0' and '1'.
	ErrInvalidBits = errors.New("bit string must contain only '0' and '1'")
)

// CharMapping describes how one character is encoded.
type CharMapping struct {
	Character string `json:"character"`
	ASCII     int    `json:"ascii"`
	Binary    string `json:"binary"`
}

// TextToBinary encodes every rune of text as its zero-padded 8-bit code.
func TextToBinary(text string) (string, error) {
	var b strings.Builder
	b.Grow(len(text) * BitsPerChar)
	for i, r := range text {
		if r > 0xFF {
			return "", fmt.Errorf("%w: %q at byte offset %d (U+%04X)", ErrUnsupportedCharacter, r, i, r)
		}
		b.WriteString(byteBits(byte(r)))
	}
	return b.String(), nil
}

// CharMappings returns the per-character breakdown of TextToBinary.
func CharMappings(text string) ([]CharMapping, error) {
	out := make([]CharMapping, 0, len(text))
	for _, r := range text {
		if r > 0xFF {
			return nil, fmt.Errorf("%w: %q (U+%04X)", ErrUnsupportedCharacter, r, r)
		}
		out = append(out, CharMapping{
			Character: string(r),
			ASCII:     int(r),
			Binary:    byteBits(byte(r)),
		})
	}
	return out, nil
}

// BinaryToText decodes consecutive 8-bit groups. A trailing partial group is
// dropped.
func BinaryToText(bits string) (string, error) {
	if err := Validate(bits); err != nil {
		return "", err
	}
	n := len(bits) - len(bits)%BitsPerChar
	var b strings.Builder
	for i := 0; i < n; i += BitsPerChar {
		v, err := strconv.ParseUint(bits[i:i+BitsPerChar], 2, 8)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidBits, err)
		}
		b.WriteRune(rune(v))
	}
	return b.String(), nil
}

// Validate checks that bits only contains '0' and '1'. The empty string is
// valid.
func Validate(bits string) error {
	for i := 0; i < len(bits); i++ {
		if c := bits[i]; c != '0' && c != '1' {
			return fmt.Errorf("%w: %q at position %d", ErrInvalidBits, c, i)
		}
	}
	return nil
}

// Bits parses a bit string into a slice of 0/1 values.
func Bits(s string) ([]int, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	out := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = int(s[i] - '0')
	}
	return out, nil
}

// FormatBits is the inverse of Bits. Any non-zero value is written as '1'.
func FormatBits(bits []int) string {
	b := make([]byte, len(bits))
	for i, v := range bits {
		if v != 0 {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

// SequenceStep is one entry of the bit-by-bit walkthrough.
type SequenceStep struct {
	Index       int    `json:"index"`
	Bit         string `json:"bit"`
	Description string `json:"description"`
}

// Sequence is the bit-by-bit walkthrough of a bit string: at most
// MaxSequenceBits steps plus the count of bits not shown.
type Sequence struct {
	Modulation model.ModulationType `json:"modulation"`
	Steps      []SequenceStep       `json:"steps"`
	Remaining  int                  `json:"remaining"`
}

// NewSequence builds the walkthrough for bits under modulation m.
func NewSequence(bits string, m model.ModulationType) (Sequence, error) {
	if err := Validate(bits); err != nil {
		return Sequence{}, err
	}
	if !m.Valid() {
		return Sequence{}, fmt.Errorf("%w: %q", model.ErrUnknownModulation, m)
	}
	shown := min(len(bits), MaxSequenceBits)
	seq := Sequence{
		Modulation: m,
		Steps:      make([]SequenceStep, 0, shown),
		Remaining:  len(bits) - shown,
	}
	for i := 0; i < shown; i++ {
		bit := bits[i : i+1]
		seq.Steps = append(seq.Steps, SequenceStep{
			Index:       i,
			Bit:         bit,
			Description: WaveDescription(m, bit == "1"),
		})
	}
	return seq, nil
}

// WaveDescription describes the carrier a single bit produces.
func WaveDescription(m model.ModulationType, one bool) string {
	switch m {
	case model.ModulationASK:
		if one {
			return "high-amplitude sine wave"
		}
		return "low-amplitude sine wave"
	case model.ModulationFSK:
		if one {
			return "high-frequency sine wave"
		}
		return "low-frequency sine wave"
	case model.ModulationPSK:
		if one {
			return "inverted sine wave (180°)"
		}
		return "in-phase sine wave (0°)"
	}
	return ""
}

func byteBits(c byte) string {
	s := strconv.FormatUint(uint64(c), 2)
	return strings.Repeat("0", BitsPerChar-len(s)) + s
}
