package netlist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rcMeasure = `* RC low-pass
V1 in 0 PULSE(0 1 0 1n 1n 10m 20m)
R1 in out 1k
C1 out 0 1u
.tran 10u 5m
.meas tran t_half WHEN v(out)=0.5 RISE=1
.end
`

const rcSweep = `* RC sweep
.param rval=1k
V1 in 0 DC 1
R1 in out {rval}
C1 out 0 1u
.step param rval 1k 3k 1k
.tran 10u 5m
.end
`

func TestDirectiveDetection(t *testing.T) {
	tests := []struct {
		name                    string
		text                    string
		measure, sweep, control bool
	}{
		{"measure", rcMeasure, true, false, false},
		{"measure short form", "t\n.MEAS tran x max v(out)\n.end\n", true, false, false},
		{"sweep", rcSweep, false, true, false},
		{"control", "t\n.control\nrun\n.endc\n.end\n", false, false, true},
		{"indented", "t\n   .measure ac bw when vdb(out)=-3\n  .step param r 1 2 1\n\t.Control\n", true, true, true},
		{"comment is not a directive", "t\n* .meas tran x max v(out)\n", false, false, false},
		{"keyword must end", "t\n.measurement foo\n.stepper\n.controls\n", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.measure, HasMeasure(tt.text), "measure")
			assert.Equal(t, tt.sweep, HasSweep(tt.text), "sweep")
			assert.Equal(t, tt.control, HasControlBlock(tt.text), "control")
		})
	}
}

func TestUICWarning(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"ic without uic", "t\nC1 out 0 1u ic=1\n.tran 1u 1m\n.end\n", true},
		{"ic with uic", "t\nC1 out 0 1u ic=1\n.tran 1u 1m uic\n.end\n", false},
		{"ic with upper UIC", "t\nC1 out 0 1u IC=1\n.TRAN 1u 1m 0 1u UIC\n.end\n", false},
		{"no ic", "t\nC1 out 0 1u\n.tran 1u 1m\n.end\n", false},
		{"ic but no tran", "t\nC1 out 0 1u ic=1\n.ac dec 10 1 1meg\n.end\n", false},
		{"ic directive is not a component", "t\n.ic v(out)=1\n.tran 1u 1m\n.end\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := UICWarning(tt.text)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.want, HasUnusedInitialConditions(tt.text))
			if tt.want {
				assert.Contains(t, msg, "UIC")
			} else {
				assert.Empty(t, msg)
			}
		})
	}
}

func TestParseStepDirective(t *testing.T) {
	spec, err := ParseStepDirective(rcSweep)
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, "rval", spec.Param)
	assert.Equal(t, []float64{1e3, 2e3, 3e3}, spec.Values)
}

func TestParseStepDirective_Absent(t *testing.T) {
	spec, err := ParseStepDirective(rcMeasure)
	assert.NoError(t, err)
	assert.Nil(t, spec)
}

func TestParseStepDirective_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
	}{
		{"not a param sweep", "title\nR1 a b 1k\n\n.step dec r1 1 10 5\n", 4},
		{"missing increment", "title\n.step param r 1k 3k\n", 2},
		{"bad literal", "title\n.step param r 1k 3q 1k\n", 2},
		{"zero increment", "title\n.step param r 1k 3k 0\n", 2},
		{"too many points", "title\n.step param r 1 2meg 1\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseStepDirective(tt.text)
			require.Error(t, err)
			assert.Nil(t, spec)
			assert.True(t, errors.Is(err, ErrMalformedDirective))

			var de *DirectiveError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.line, de.Line)
			assert.Contains(t, de.Text, ".step")
		})
	}
}

func TestParseStepDirective_ZeroIncrementUnwraps(t *testing.T) {
	_, err := ParseStepDirective("title\n.step param r 1k 3k 0\n")
	assert.ErrorIs(t, err, ErrZeroIncrement)

	_, err = ParseStepDirective("title\n.step param r 1 2meg 1\n")
	assert.ErrorIs(t, err, ErrSweepTooLarge)
}
