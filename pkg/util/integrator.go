package util

import (
	"errors"
	"math"
)

var ErrShortWaveform = errors.New("waveform needs at least two samples")

type IntegrationMethod int

const (
	TrapezoidalMethod IntegrationMethod = iota
	RectangularMethod
)

// Integrate returns the integral of ys over the sample points xs. Samples
// may be unevenly spaced, as ngspice transient output usually is.
func Integrate(method IntegrationMethod, xs, ys []float64) (float64, error) {
	if len(xs) != len(ys) {
		return 0, errors.New("integrate: axis and values differ in length")
	}
	if len(xs) < 2 {
		return 0, ErrShortWaveform
	}

	var sum float64
	for i := 1; i < len(xs); i++ {
		dt := xs[i] - xs[i-1]
		switch method {
		case RectangularMethod:
			sum += ys[i-1] * dt
		default:
			sum += 0.5 * (ys[i] + ys[i-1]) * dt
		}
	}
	return sum, nil
}

// Stats summarizes one waveform. Mean and RMS are time-weighted.
type Stats struct {
	Min, Max  float64
	Mean, RMS float64
}

func WaveformStats(xs, ys []float64) (Stats, error) {
	if len(xs) != len(ys) {
		return Stats{}, errors.New("stats: axis and values differ in length")
	}
	if len(xs) < 2 {
		return Stats{}, ErrShortWaveform
	}
	span := xs[len(xs)-1] - xs[0]
	if span <= 0 {
		return Stats{}, errors.New("stats: axis span must be positive")
	}

	st := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	sq := make([]float64, len(ys))
	for i, y := range ys {
		st.Min = math.Min(st.Min, y)
		st.Max = math.Max(st.Max, y)
		sq[i] = y * y
	}

	area, err := Integrate(TrapezoidalMethod, xs, ys)
	if err != nil {
		return Stats{}, err
	}
	energy, err := Integrate(TrapezoidalMethod, xs, sq)
	if err != nil {
		return Stats{}, err
	}
	st.Mean = area / span
	st.RMS = math.Sqrt(energy / span)
	return st, nil
}
