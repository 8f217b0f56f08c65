package render

// Segment is one slice of a fraction circle in degrees.
type Segment struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Active bool    `json:"active"`
}

// Fraction is a teaching fraction together with its pie segments.
type Fraction struct {
	Numerator   int       `json:"numerator"`
	Denominator int       `json:"denominator"`
	Percent     float64   `json:"percent"`
	Angles      []Segment `json:"angles"`
}

// Segments splits a circle into den slices and marks the first num active.
func Segments(num, den int) []Segment {
	if den <= 0 {
		return nil
	}
	step := 360 / float64(den)
	out := make([]Segment, den)
	for i := range out {
		out[i] = Segment{Start: float64(i) * step, End: float64(i+1) * step, Active: i < num}
	}
	return out
}

// Fractions returns the fixed list of fractions with denominators below 10.
func Fractions() []Fraction {
	pairs := [][2]int{
		{1, 2},
		{1, 3}, {2, 3},
		{1, 4}, {3, 4},
		{1, 5}, {2, 5}, {3, 5}, {4, 5},
		{1, 6}, {5, 6},
		{1, 8}, {3, 8}, {5, 8}, {7, 8},
	}
	out := make([]Fraction, len(pairs))
	for i, p := range pairs {
		out[i] = Fraction{
			Numerator:   p[0],
			Denominator: p[1],
			Percent:     100 * float64(p[0]) / float64(p[1]),
			Angles:      Segments(p[0], p[1]),
		}
	}
	return out
}
