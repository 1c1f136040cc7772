package rawfile

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResample_Linear(t *testing.T) {
	run := realRun(t, []string{"time", "v(a)"}, []float64{0, 1, 2, 4}, []float64{0, 2, 4, 8})

	out, err := Resample(run, []float64{-1, 0.5, 1, 3, 9}, Linear)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 0.5, 1, 3, 9}, out.Axis().Real)
	v, ok := out.Lookup("v(a)")
	require.True(t, ok)
	// Outside the range values clamp to the end samples.
	assert.InDeltaSlice(t, []float64{0, 1, 2, 6, 8}, v.Real, 1e-12)
}

func TestResample_SplineReproducesLines(t *testing.T) {
	xs := []float64{0, 0.3, 1, 1.7, 2.5, 4}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 3*x + 1
	}
	run := realRun(t, []string{"time", "v(a)"}, xs, ys)

	at := []float64{0.1, 0.65, 2, 3.9}
	out, err := Resample(run, at, CubicSpline)
	require.NoError(t, err)
	for i, x := range at {
		assert.InDelta(t, 3*x+1, out.Vectors[1].Real[i], 1e-9)
	}
}

func TestResample_SplineSine(t *testing.T) {
	const n = 50
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = 2 * math.Pi * float64(i) / (n - 1)
		ys[i] = math.Sin(xs[i])
	}
	run := realRun(t, []string{"time", "v(a)"}, xs, ys)

	at := make([]float64, n-1)
	for i := range at {
		at[i] = (xs[i] + xs[i+1]) / 2
	}
	spline, err := Resample(run, at, CubicSpline)
	require.NoError(t, err)
	lin, err := Resample(run, at, Linear)
	require.NoError(t, err)

	var splineErr, linErr float64
	for i, x := range at {
		splineErr = math.Max(splineErr, math.Abs(spline.Vectors[1].Real[i]-math.Sin(x)))
		linErr = math.Max(linErr, math.Abs(lin.Vectors[1].Real[i]-math.Sin(x)))
	}
	assert.Less(t, splineErr, 1e-4)
	assert.Less(t, splineErr, linErr)

	// Knots are reproduced exactly.
	knots, err := Resample(run, xs, CubicSpline)
	require.NoError(t, err)
	assert.InDeltaSlice(t, ys, knots.Vectors[1].Real, 1e-12)
}

func TestResample_Complex(t *testing.T) {
	out, err := Resample(acRun(t), []float64{10, 55, 1000}, Linear)
	require.NoError(t, err)
	v := out.Vectors[1]
	assert.Equal(t, Complex, v.Kind)
	assert.InDelta(t, 0.75, v.Real[1], 1e-12)
	assert.InDelta(t, -0.255, v.Imag[1], 1e-12)
	assert.Equal(t, []float64{0, 0, 0}, out.Vectors[0].Imag)
}

func TestResample_SplineFewPoints(t *testing.T) {
	run := realRun(t, []string{"time", "v(a)"}, []float64{0, 2}, []float64{0, 4})
	out, err := Resample(run, []float64{1}, CubicSpline)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out.Vectors[1].Real[0], 1e-12)
}

func TestResample_NonMonotonic(t *testing.T) {
	run := realRun(t, []string{"time", "v(a)"}, []float64{0, 2, 1}, []float64{0, 1, 2})
	_, err := Resample(run, []float64{0.5}, Linear)
	assert.ErrorIs(t, err, ErrAxisNotMonotonic)
}

func TestUniformAxis(t *testing.T) {
	a := realRun(t, []string{"time", "v"}, []float64{0, 5, 10}, []float64{0, 0, 0})
	b := realRun(t, []string{"time", "v"}, []float64{2, 6, 8}, []float64{0, 0, 0})

	axis, err := UniformAxis([]Run{a, b}, 4, false)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 4, 6, 8}, axis, 1e-12)

	f := realRun(t, []string{"frequency", "v"}, []float64{1, 1e3}, []float64{0, 0})
	axis, err = UniformAxis([]Run{f}, 4, true)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 10, 100, 1000}, axis, 1e-9)

	c := realRun(t, []string{"time", "v"}, []float64{20, 30}, []float64{0, 0})
	_, err = UniformAxis([]Run{a, c}, 4, false)
	assert.Error(t, err)

	_, err = UniformAxis(nil, 4, false)
	assert.ErrorIs(t, err, ErrNoRuns)
}

func TestSplitRun(t *testing.T) {
	whole := realRun(t, []string{"time", "v"},
		[]float64{0, 1, 2, 0, 1, 2},
		[]float64{10, 11, 12, 20, 21, 22})

	runs, err := SplitRun(whole, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, []float64{0, 1, 2}, runs[1].Vectors[0].Real)
	assert.Equal(t, []float64{20, 21, 22}, runs[1].Vectors[1].Real)

	_, err = SplitRun(whole, 4)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDumpCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DumpCSV(&buf, acRun(t)))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "frequency,v(out)_re,v(out)_im", lines[0])
	assert.Equal(t, "10,1,-0.01", lines[1])
	assert.Equal(t, "1000,0.01,-0.1", lines[3])
}

func TestDumpRunsCSV(t *testing.T) {
	runs := []Run{tranRun(t, 0, 2), tranRun(t, 1, 2)}

	var buf bytes.Buffer
	require.NoError(t, DumpRunsCSV(&buf, runs, &SweepColumn{Param: "rval", Values: []float64{1000, 2000}}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "run,rval,time,v(in),v(out)", lines[0])
	assert.Equal(t, "1,1000,0,1,0", lines[1])
	assert.Equal(t, "2,2000,1e-06,1,1.1", lines[4])

	err := DumpRunsCSV(&bytes.Buffer{}, runs, &SweepColumn{Param: "rval", Values: []float64{1}})
	assert.Error(t, err)

	other := realRun(t, []string{"time", "i(v1)"}, []float64{0}, []float64{0})
	err = DumpRunsCSV(&bytes.Buffer{}, []Run{runs[0], other}, nil)
	assert.Error(t, err)

	assert.ErrorIs(t, DumpRunsCSV(&bytes.Buffer{}, nil, nil), ErrNoRuns)
}

func TestRun_Select(t *testing.T) {
	run := tranRun(t, 0, 3)
	sel, err := run.Select("V(OUT)")
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "v(out)"}, sel.Names())

	_, err = run.Select("v(missing)")
	assert.ErrorContains(t, err, "v(missing)")
}
