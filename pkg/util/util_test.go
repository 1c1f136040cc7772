package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValueFactor(t *testing.T) {
	assert.Equal(t, "1.500 V", FormatValueFactor(1.5, "V"))
	assert.Equal(t, "2.200 mA", FormatValueFactor(2.2e-3, "A"))
	assert.Equal(t, "693.147 us", FormatValueFactor(693.147e-6, "s"))
	assert.Equal(t, "0.000 V", FormatValueFactor(0, "V"))
}

func TestFormatFrequency(t *testing.T) {
	assert.Equal(t, "159.155 Hz ", FormatFrequency(159.155))
	assert.Equal(t, " 15.916 kHz", FormatFrequency(15916))
	assert.Equal(t, "  1.000 MHz", FormatFrequency(1e6))
}

func TestFormatMagnitudePhase(t *testing.T) {
	assert.Equal(t, "v(out)=  -3.01 dB< -45.0deg", FormatMagnitudePhase("v(out)", -3.0103, -45))
}

func TestFormatOperatingPoint(t *testing.T) {
	assert.Equal(t, "2.500000", FormatOperatingPoint(2.5))
	assert.Equal(t, "2.500000e-04", FormatOperatingPoint(2.5e-4))
	assert.Equal(t, "0.000000", FormatOperatingPoint(0))
}

func TestTimeScale(t *testing.T) {
	tests := []struct {
		tMax  float64
		scale float64
		unit  string
	}{
		{500e-9, 1e9, "ns"},
		{5e-6, 1e6, "µs"},
		{5e-3, 1e3, "ms"},
		{2, 1, "s"},
	}
	for _, tt := range tests {
		scale, unit := TimeScale(tt.tMax)
		assert.Equal(t, tt.scale, scale)
		assert.Equal(t, tt.unit, unit)
	}
}

func TestIntegrate(t *testing.T) {
	xs := []float64{0, 0.5, 2}
	ys := []float64{0, 1, 4} // y = 2x

	got, err := Integrate(TrapezoidalMethod, xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, got, 1e-12)

	got, err = Integrate(RectangularMethod, xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, got, 1e-12)

	_, err = Integrate(TrapezoidalMethod, []float64{0}, []float64{1})
	assert.ErrorIs(t, err, ErrShortWaveform)
}

func TestWaveformStats(t *testing.T) {
	const n = 2001
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i) / (n - 1) // one period
		ys[i] = math.Sin(2 * math.Pi * xs[i])
	}

	st, err := WaveformStats(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, -1, st.Min, 1e-6)
	assert.InDelta(t, 1, st.Max, 1e-6)
	assert.InDelta(t, 0, st.Mean, 1e-9)
	assert.InDelta(t, 1/math.Sqrt2, st.RMS, 1e-4)

	_, err = WaveformStats([]float64{1, 1}, []float64{0, 0})
	assert.Error(t, err)
}

func TestCornerFrequency(t *testing.T) {
	const fc = 1e3
	var freq, db []float64
	for i := 0; i <= 60; i++ {
		f := math.Pow(10, float64(i)/10)
		freq = append(freq, f)
		db = append(db, -10*math.Log10(1+(f/fc)*(f/fc)))
	}
	got, ok := CornerFrequency(freq, db)
	require.True(t, ok)
	// -3 dB sits marginally below the exact -3.0103 dB pole.
	assert.InEpsilon(t, fc, got, 0.01)

	_, ok = CornerFrequency([]float64{1, 10}, []float64{0, -1})
	assert.False(t, ok)
	_, ok = CornerFrequency([]float64{1}, []float64{0})
	assert.False(t, ok)
}
