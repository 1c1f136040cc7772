package netlist

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandSweep(t *testing.T) {
	tests := []struct {
		name              string
		start, stop, incr float64
		want              []float64
	}{
		{"increasing", 1e3, 3e3, 1e3, []float64{1e3, 2e3, 3e3}},
		{"decreasing", 3, 1, -1, []float64{3, 2, 1}},
		{"single point", 5, 5, 1, []float64{5}},
		{"stop not on grid", 0, 1, 0.3, []float64{0, 0.3, 0.6, 0.9}},
		{"fractional steps reach stop", 0, 1, 0.1, []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandSweep(tt.start, tt.stop, tt.incr)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-12)
			}
		})
	}
}

func TestExpandSweep_Properties(t *testing.T) {
	cases := [][3]float64{
		{0, 10, 1}, {1e-9, 1e-8, 1e-9}, {100, 1000, 150}, {5, -5, -2.5}, {0.1, 0.7, 0.2},
	}
	for _, c := range cases {
		start, stop, incr := c[0], c[1], c[2]
		vals, err := ExpandSweep(start, stop, incr)
		require.NoError(t, err)
		require.NotEmpty(t, vals)

		assert.Equal(t, start, vals[0], "sweep must include start")
		for i := 1; i < len(vals); i++ {
			assert.Greater(t, (vals[i]-vals[i-1])*math.Copysign(1, incr), 0.0, "values must be strictly monotonic")
		}

		steps := (stop - start) / incr
		if math.Abs(steps-math.Round(steps)) < 1e-9 {
			assert.InDelta(t, stop, vals[len(vals)-1], math.Abs(stop)*1e-9+1e-15, "exact multiple must include stop")
		}
	}
}

func TestExpandSweep_Errors(t *testing.T) {
	_, err := ExpandSweep(1, 2, 0)
	assert.ErrorIs(t, err, ErrZeroIncrement)

	_, err = ExpandSweep(1, 2, -1)
	assert.ErrorIs(t, err, ErrSweepDirection)

	_, err = ExpandSweep(math.NaN(), 2, 1)
	assert.Error(t, err)

	_, err = ExpandSweep(0, 2e6, 1)
	assert.ErrorIs(t, err, ErrSweepTooLarge)
}

func TestExpandSweep_AtPointLimit(t *testing.T) {
	vals, err := ExpandSweep(0, maxSweepPoints-1, 1)
	require.NoError(t, err)
	require.Len(t, vals, maxSweepPoints)
	assert.Equal(t, float64(maxSweepPoints-1), vals[len(vals)-1])

	_, err = ExpandSweep(0, maxSweepPoints, 1)
	assert.ErrorIs(t, err, ErrSweepTooLarge)
}

func TestSweepSpec_Len(t *testing.T) {
	var nilSpec *SweepSpec
	assert.Equal(t, 0, nilSpec.Len())
	assert.Equal(t, 3, (&SweepSpec{Values: []float64{1, 2, 3}}).Len())
}
