package core

import "math"

// Complex is a complex number with JSON-friendly field names. It exists
// alongside complex128 because API payloads carry real/imag pairs.
type Complex struct {
	Real float64 `json:"real"`
	Imag float64 `json:"imag"`
}

// Add returns c + other.
func (c Complex) Add(other Complex) Complex {
	return Complex{Real: c.Real + other.Real, Imag: c.Imag + other.Imag}
}

// Multiply returns c * other.
func (c Complex) Multiply(other Complex) Complex {
	return Complex{
		Real: c.Real*other.Real - c.Imag*other.Imag,
		Imag: c.Real*other.Imag + c.Imag*other.Real,
	}
}

// Magnitude returns |c|.
func (c Complex) Magnitude() float64 {
	return math.Sqrt(c.Real*c.Real + c.Imag*c.Imag)
}

// Phase returns the argument of c in radians, in (-π, π].
func (c Complex) Phase() float64 {
	return math.Atan2(c.Imag, c.Real)
}

// Complex128 converts to the builtin representation.
func (c Complex) Complex128() complex128 {
	return complex(c.Real, c.Imag)
}

// FromComplex128 converts a builtin complex value.
func FromComplex128(v complex128) Complex {
	return Complex{Real: real(v), Imag: imag(v)}
}
