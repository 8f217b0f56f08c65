package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Physical constants used across the RF calculations. The values match the
// rounded textbook figures the visualisations were designed around rather
// than CODATA precision.
const (
	LightSpeed          = 3e8                // m/s
	VacuumPermeability  = 4 * math.Pi * 1e-7 // H/m
	VacuumPermittivity  = 8.854e-12          // F/m
	BoltzmannConstant   = 1.38e-23           // J/K
	ReferenceNoiseTempK = 290.0
)

// DBmToWatts converts a power level in dBm to watts.
func DBmToWatts(dbm float64) float64 {
	return math.Pow(10, (dbm-30)/10)
}

// WattsToDBm converts a power in watts to dBm. Non-positive inputs follow
// math.Log10 and yield -Inf or NaN.
func WattsToDBm(watts float64) float64 {
	return 10*math.Log10(watts) + 30
}

// DBToLinear converts a power ratio in dB to a linear ratio.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/10)
}

// LinearToDB converts a linear power ratio to dB.
func LinearToDB(linear float64) float64 {
	return 10 * math.Log10(linear)
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// ErrBadConversion is returned by Convert for unknown unit pairs and for
// non-positive inputs to a logarithmic unit.
var ErrBadConversion = errors.New("unsupported conversion")

type conversion struct {
	fn  func(float64) float64
	log bool // input must be positive
}

// Conversions offered by Convert, keyed by "from:to".
var conversions = map[string]conversion{
	"dbm:watts": {fn: DBmToWatts},
	"watts:dbm": {fn: WattsToDBm, log: true},
	"db:linear": {fn: DBToLinear},
	"linear:db": {fn: LinearToDB, log: true},
	"deg:rad":   {fn: DegToRad},
	"rad:deg":   {fn: RadToDeg},
}

// Convert converts value between the units dbm, watts, db, linear, deg and
// rad. Unit names are case-insensitive.
func Convert(value float64, from, to string) (float64, error) {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	c, ok := conversions[from+":"+to]
	if !ok {
		return 0, fmt.Errorf("%w: no conversion from %q to %q", ErrBadConversion, from, to)
	}
	if c.log && !(value > 0) {
		return 0, fmt.Errorf("%w: %s needs a positive value, got %v", ErrBadConversion, from, value)
	}
	return c.fn(value), nil
}
