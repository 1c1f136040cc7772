package rawfile

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/edp1096/spicerun/internal/matrix"
)

var ErrAxisNotMonotonic = errors.New("rawfile: axis is not strictly increasing")

type Interpolation int

const (
	Linear Interpolation = iota
	CubicSpline
)

func (m Interpolation) String() string {
	if m == CubicSpline {
		return "spline"
	}
	return "linear"
}

// Resample evaluates every vector of run at the points of axis. Values
// outside the run's axis range are clamped to the end samples. Complex
// vectors are interpolated per part. A spline over fewer than three points
// degrades to linear interpolation.
func Resample(run Run, axis []float64, method Interpolation) (Run, error) {
	src := run.Axis()
	if src == nil {
		return Run{}, ErrNoRuns
	}
	xs := src.Real
	if len(xs) == 0 {
		return Run{}, fmt.Errorf("rawfile: cannot resample an empty run")
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return Run{}, fmt.Errorf("%w: point %d (%g after %g)", ErrAxisNotMonotonic, i, xs[i], xs[i-1])
		}
	}

	var interp func(ys, at []float64) ([]float64, error)
	if method == CubicSpline && len(xs) >= 3 {
		sp, err := newSpline(xs)
		if err != nil {
			return Run{}, err
		}
		defer sp.close()
		interp = sp.eval
	} else {
		interp = func(ys, at []float64) ([]float64, error) { return linear(xs, ys, at), nil }
	}

	vectors := make([]Vector, len(run.Vectors))
	vectors[0] = Vector{Name: src.Name, Unit: src.Unit, Kind: src.Kind, Real: append([]float64(nil), axis...)}
	if src.Kind == Complex {
		vectors[0].Imag = make([]float64, len(axis))
	}
	for i := 1; i < len(run.Vectors); i++ {
		v := run.Vectors[i]
		re, err := interp(v.Real, axis)
		if err != nil {
			return Run{}, fmt.Errorf("rawfile: resampling %q: %w", v.Name, err)
		}
		out := Vector{Name: v.Name, Unit: v.Unit, Kind: v.Kind, Real: re}
		if v.Imag != nil {
			if out.Imag, err = interp(v.Imag, axis); err != nil {
				return Run{}, fmt.Errorf("rawfile: resampling %q: %w", v.Name, err)
			}
		}
		vectors[i] = out
	}
	return NewRun(vectors)
}

// UniformAxis returns n evenly spaced points spanning the range every run
// covers. With log set the points are spaced by decade, which suits AC
// frequency axes.
func UniformAxis(runs []Run, n int, log bool) ([]float64, error) {
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	if n < 2 {
		return nil, fmt.Errorf("rawfile: uniform axis needs at least 2 points, got %d", n)
	}

	lo, hi := math.Inf(-1), math.Inf(1)
	for i := range runs {
		a := runs[i].Axis()
		if a == nil || a.Len() == 0 {
			return nil, fmt.Errorf("rawfile: run %d has no axis samples", i+1)
		}
		lo = math.Max(lo, a.Real[0])
		hi = math.Min(hi, a.Real[a.Len()-1])
	}
	if !(hi > lo) {
		return nil, fmt.Errorf("rawfile: run axes do not overlap (%g..%g)", lo, hi)
	}
	if log && lo <= 0 {
		return nil, fmt.Errorf("rawfile: log axis needs positive bounds, got %g", lo)
	}

	axis := make([]float64, n)
	for i := range axis {
		f := float64(i) / float64(n-1)
		if log {
			axis[i] = math.Exp(math.Log(lo) + f*(math.Log(hi)-math.Log(lo)))
		} else {
			axis[i] = lo + f*(hi-lo)
		}
	}
	axis[0], axis[n-1] = lo, hi
	return axis, nil
}

// SplitRun cuts a run whose points are k concatenated runs into k runs of
// equal length.
func SplitRun(run Run, k int) ([]Run, error) {
	if k <= 0 {
		return nil, fmt.Errorf("rawfile: cannot split into %d runs", k)
	}
	n := run.Len()
	if n%k != 0 {
		return nil, &CorruptError{Expected: int64(k), Actual: int64(n), Reason: "point count is not a whole number of runs"}
	}
	size := n / k
	runs := make([]Run, 0, k)
	for r := 0; r < k; r++ {
		vectors := make([]Vector, len(run.Vectors))
		for i, v := range run.Vectors {
			part := Vector{Name: v.Name, Unit: v.Unit, Kind: v.Kind, Real: v.Real[r*size : (r+1)*size : (r+1)*size]}
			if v.Imag != nil {
				part.Imag = v.Imag[r*size : (r+1)*size : (r+1)*size]
			}
			vectors[i] = part
		}
		split, err := NewRun(vectors)
		if err != nil {
			return nil, err
		}
		runs = append(runs, split)
	}
	return runs, nil
}

func linear(xs, ys, at []float64) []float64 {
	out := make([]float64, len(at))
	last := len(xs) - 1
	for i, x := range at {
		switch {
		case last == 0 || x <= xs[0]:
			out[i] = ys[0]
		case x >= xs[last]:
			out[i] = ys[last]
		default:
			j := sort.SearchFloat64s(xs, x)
			if xs[j] == x {
				out[i] = ys[j]
				continue
			}
			t := (x - xs[j-1]) / (xs[j] - xs[j-1])
			out[i] = ys[j-1] + t*(ys[j]-ys[j-1])
		}
	}
	return out
}

// spline is a natural cubic spline over a fixed axis. The second-derivative
// system depends only on the axis, so it is factored once and solved for
// each vector.
type spline struct {
	xs  []float64
	h   []float64
	sys *matrix.Matrix // interior knots 1..n-2
}

func newSpline(xs []float64) (*spline, error) {
	n := len(xs)
	h := make([]float64, n-1)
	for i := range h {
		h[i] = xs[i+1] - xs[i]
	}

	m := n - 2
	lower, diag, upper := make([]float64, m), make([]float64, m), make([]float64, m)
	for i := 0; i < m; i++ {
		lower[i] = h[i]
		diag[i] = 2 * (h[i] + h[i+1])
		upper[i] = h[i+1]
	}
	sys, err := matrix.NewTridiagonal(lower, diag, upper)
	if err != nil {
		return nil, err
	}
	return &spline{xs: xs, h: h, sys: sys}, nil
}

func (s *spline) close() { s.sys.Destroy() }

func (s *spline) eval(ys, at []float64) ([]float64, error) {
	n := len(s.xs)
	s.sys.ClearRHS()
	for i := 1; i <= n-2; i++ {
		rhs := 6 * ((ys[i+1]-ys[i])/s.h[i] - (ys[i]-ys[i-1])/s.h[i-1])
		if err := s.sys.SetRHS(i, rhs); err != nil {
			return nil, err
		}
	}
	sol, err := s.sys.Solve()
	if err != nil {
		return nil, err
	}

	// Natural end conditions: zero curvature at both ends.
	m := make([]float64, n)
	copy(m[1:n-1], sol[1:n-1])

	out := make([]float64, len(at))
	last := n - 1
	for i, x := range at {
		switch {
		case x <= s.xs[0]:
			out[i] = ys[0]
			continue
		case x >= s.xs[last]:
			out[i] = ys[last]
			continue
		}
		j := sort.SearchFloat64s(s.xs, x)
		if s.xs[j] == x {
			out[i] = ys[j]
			continue
		}
		k := j - 1
		hk := s.h[k]
		a := (s.xs[j] - x) / hk
		b := (x - s.xs[k]) / hk
		out[i] = a*ys[k] + b*ys[j] + ((a*a*a-a)*m[k]+(b*b*b-b)*m[j])*hk*hk/6
	}
	return out, nil
}
