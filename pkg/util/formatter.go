package util

import (
	"fmt"
	"math"
)

func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue >= 1 || value == 0:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	case absValue >= 1e-9:
		return fmt.Sprintf("%.3f n%s", value*1e9, unit)
	case absValue >= 1e-12:
		return fmt.Sprintf("%.3f p%s", value*1e12, unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

func FormatFrequency(freq float64) string {
	switch {
	case freq >= 1e9:
		return fmt.Sprintf("%7.3f GHz", freq/1e9)
	case freq >= 1e6:
		return fmt.Sprintf("%7.3f MHz", freq/1e6)
	case freq >= 1e3:
		return fmt.Sprintf("%7.3f kHz", freq/1e3)
	default:
		return fmt.Sprintf("%7.3f Hz ", freq)
	}
}

// FormatMagnitudePhase renders "name=mag<phase deg" with mag in dB.
func FormatMagnitudePhase(name string, magDB, phase float64) string {
	return fmt.Sprintf("%s=%7.2f dB<%sdeg", name, magDB, FormatPhase(phase))
}

func FormatPhase(value float64) string {
	return fmt.Sprintf("%6.1f", value) // "  90.0"
}

// FormatOperatingPoint prints small nonzero values in exponent form.
func FormatOperatingPoint(value float64) string {
	if math.Abs(value) < 1e-3 && value != 0 {
		return fmt.Sprintf("%.6e", value)
	}
	return fmt.Sprintf("%.6f", value)
}

// TimeScale picks a display unit for a time axis ending at tMax and returns
// the factor that converts seconds into it.
func TimeScale(tMax float64) (float64, string) {
	switch {
	case tMax < 1e-6:
		return 1e9, "ns"
	case tMax < 1e-3:
		return 1e6, "µs"
	case tMax < 1:
		return 1e3, "ms"
	default:
		return 1, "s"
	}
}
