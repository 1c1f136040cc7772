package measure

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

const ngspiceOutput = `
Note: No compatibility mode selected!

Circuit: rc lowpass

Doing analysis at TEMP = 27.000000 and TNOM = 27.000000

No. of Data Rows : 1012

  Measurements for Transient Analysis

t_half              =  6.931472e-04 at=  6.931472e-04
vmax                =  9.999546e-01 at=  4.998800e-03
rise_time           =  2.197225e-03 targ=  2.302585e-03 trig=  1.053605e-04
failed_meas         =  failed
* comment = 12

Total analysis time (seconds) = 0.004
Total elapsed time (seconds) = 0.021
Total DRAM available = 15934.578125 MB.
DRAM currently available = 9838.066406 MB.
Maximum ngspice program size =   34.871 MB
Current ngspice program size =   10.332 MB
Shared ngspice pages =    8.484 MB
Text (code) pages =    6.578 MB
Stack = 0 bytes
Library pages =    2.746 MB
`

func TestExtract(t *testing.T) {
	got := Extract(ngspiceOutput)
	want := map[string]float64{
		"t_half":    6.931472e-04,
		"vmax":      9.999546e-01,
		"rise_time": 2.197225e-03,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("measurements mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractReport_Skipped(t *testing.T) {
	r := New(nil).ExtractReport(ngspiceOutput)
	assert.Len(t, r.Values, 3)
	// "failed_meas = failed" is the only non-numeric candidate.
	assert.Equal(t, 1, r.Skipped)
}

func TestExtract_DenylistOnly(t *testing.T) {
	text := "Total analysis time (seconds) = 0.004\nStack = 0 bytes\nLibrary pages = 2.7 MB\n"
	assert.Empty(t, Extract(text))
}

func TestExtract_LastOccurrenceWins(t *testing.T) {
	got := Extract("gain = 1.0\nGAIN = 2.5\n")
	assert.Equal(t, map[string]float64{"gain": 2.5}, got)
}

func TestExtract_EdgeCases(t *testing.T) {
	cases := []struct {
		name string
		text string
		want map[string]float64
	}{
		{"empty key", "= 5\n", map[string]float64{}},
		{"empty value", "x =\n", map[string]float64{}},
		{"no separator", "hello world\n", map[string]float64{}},
		{"crlf", "fc = 1.59155e+04\r\n", map[string]float64{"fc": 1.59155e4}},
		{"extra fields", "bw = 100 from= 1 to= 101\n", map[string]float64{"bw": 100}},
		{"comment", "* x = 1\n", map[string]float64{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Extract(tc.text))
		})
	}
}

func TestNew_CustomDenylist(t *testing.T) {
	e := New([]string{"  Tmp "})
	got := e.Extract("tmp_a = 1\nkeep = 2\nstack = 3\n")
	assert.Equal(t, map[string]float64{"keep": 2, "stack": 3}, got)
}
