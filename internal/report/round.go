package report

import "strconv"

// Round1 rounds x to one decimal place.
//
// Formatting with strconv rounds on the exact binary value of x and breaks
// exact ties to even, so 0.15 (stored as 0.1499...) becomes 0.1 and 0.25
// becomes 0.2.
func Round1(x float64) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 1, 64), 64)
	if err != nil {
		return x
	}
	return v
}
