package netlist

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrZeroIncrement  = errors.New("sweep increment is zero")
	ErrSweepDirection = errors.New("sweep increment points away from stop value")
	ErrSweepTooLarge  = errors.New("sweep has too many points")
)

// sweepTolerance absorbs accumulated rounding at the stop value.
const sweepTolerance = 1e-9

// maxSweepPoints bounds runaway sweeps from tiny increments.
const maxSweepPoints = 1_000_000

// SweepSpec is one swept parameter and the values it takes, in run order.
type SweepSpec struct {
	Param  string
	Values []float64
}

// Len returns the number of runs the sweep produces.
func (s *SweepSpec) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// ExpandSweep generates start, start+incr, ... up to stop inclusive.
// The stop value is included when it is reached within a small relative
// tolerance. Values are strictly monotonic in the direction of incr.
func ExpandSweep(start, stop, incr float64) ([]float64, error) {
	if incr == 0 {
		return nil, ErrZeroIncrement
	}
	if math.IsNaN(start) || math.IsNaN(stop) || math.IsNaN(incr) ||
		math.IsInf(start, 0) || math.IsInf(stop, 0) || math.IsInf(incr, 0) {
		return nil, ErrInvalidLiteral
	}
	if (stop-start)*incr < 0 {
		return nil, ErrSweepDirection
	}

	if n := math.Floor(math.Abs(stop-start)/math.Abs(incr)) + 1; n > maxSweepPoints {
		return nil, fmt.Errorf("%w: %.0f points, limit %d", ErrSweepTooLarge, n, maxSweepPoints)
	}

	tol := sweepTolerance * math.Max(math.Abs(stop), math.Abs(incr))
	dir := math.Copysign(1, incr)

	var vals []float64
	for i := 0; i <= maxSweepPoints; i++ {
		v := start + float64(i)*incr
		if dir*(v-stop) > tol {
			break
		}
		if dir*(v-stop) > -tol {
			v = stop
		}
		if n := len(vals); n > 0 && dir*(v-vals[n-1]) <= 0 {
			continue
		}
		vals = append(vals, v)
		if v == stop {
			break
		}
	}
	if len(vals) > maxSweepPoints {
		return nil, fmt.Errorf("%w: limit %d", ErrSweepTooLarge, maxSweepPoints)
	}
	return vals, nil
}
