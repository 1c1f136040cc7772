package util

import "math"

// CornerFrequency returns the first frequency at which db has fallen 3 dB
// below its value at the first point, interpolated on a log frequency axis.
// It reports false when the response never drops that far.
func CornerFrequency(freq, db []float64) (float64, bool) {
	if len(freq) < 2 || len(freq) != len(db) {
		return 0, false
	}
	target := db[0] - 3
	for i := 1; i < len(db); i++ {
		if db[i] > target {
			continue
		}
		f0, f1 := freq[i-1], freq[i]
		d0, d1 := db[i-1], db[i]
		if d0 == d1 || f0 <= 0 || f1 <= 0 {
			return f1, true
		}
		frac := (d0 - target) / (d0 - d1)
		return math.Pow(10, math.Log10(f0)+frac*(math.Log10(f1)-math.Log10(f0))), true
	}
	return 0, false
}
