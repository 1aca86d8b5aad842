package formula

import (
	"math"
	"strconv"
)

// plain notation is used between these magnitudes, exponent notation
// outside them
const (
	minPlainMagnitude = 1e-5
	maxPlainMagnitude = 1e15
)

// FormatNumber returns the shortest string that parses back to v. "005",
// "5.0" and "5e0" all format as "5"; very large or small magnitudes use
// exponent notation such as "3.4E+20" or "1E-10".
func FormatNumber(v float64) string {
	abs := math.Abs(v)
	if abs != 0 && (abs < minPlainMagnitude || abs >= maxPlainMagnitude) {
		return strconv.FormatFloat(v, 'E', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
