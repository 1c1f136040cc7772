package job

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/spicerun/pkg/rawfile"
)

const sample = `
defaults {
  timeout = "30s"
  ngspice = "/opt/ngspice/bin/ngspice"
}

simulation "rc" {
  netlist = "circuits/rc.cir"
  csv     = "out/${env.RUN_ID}/rc.csv"
  plot    = "/tmp/rc.png"
  nodes   = ["v(out)"]
}

simulation "inline" {
  text = <<EOT
* divider
V1 in 0 1
R1 in out 1k
R2 out 0 1k
.op
.end
EOT
  timeout       = "5s"
  grid          = 200
  interpolation = "spline"
}
`

func TestParse(t *testing.T) {
	j, err := Parse([]byte(sample), "/jobs/batch.hcl", []string{"RUN_ID=42", "BAD-NAME=x", "1BAD=y"})
	require.NoError(t, err)

	assert.Equal(t, "/opt/ngspice/bin/ngspice", j.Executable)
	assert.Equal(t, 30*time.Second, j.Timeout)

	want := []Simulation{
		{
			Name:        "rc",
			NetlistPath: filepath.Join("/jobs", "circuits", "rc.cir"),
			CSV:         filepath.Join("/jobs", "out", "42", "rc.csv"),
			Plot:        "/tmp/rc.png",
			Nodes:       []string{"v(out)"},
		},
		{
			Name:          "inline",
			Text:          "* divider\nV1 in 0 1\nR1 in out 1k\nR2 out 0 1k\n.op\n.end\n",
			Timeout:       5 * time.Second,
			Grid:          200,
			Interpolation: rawfile.CubicSpline,
		},
	}
	if diff := cmp.Diff(want, j.Simulations); diff != "" {
		t.Errorf("simulations mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_MissingEnv(t *testing.T) {
	_, err := Parse([]byte(sample), "batch.hcl", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RUN_ID")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"no simulations", `defaults { timeout = "1s" }`, "no simulation blocks"},
		{"both sources", `simulation "a" {
  netlist = "a.cir"
  text    = "x"
}`, "mutually exclusive"},
		{"no source", `simulation "a" {}`, "one of netlist or text"},
		{"bad timeout", `simulation "a" {
  netlist = "a.cir"
  timeout = "soon"
}`, "timeout"},
		{"negative timeout", `defaults { timeout = "-1s" }
simulation "a" { netlist = "a.cir" }`, "positive"},
		{"duplicate", `simulation "a" { netlist = "a.cir" }
simulation "a" { netlist = "b.cir" }`, "duplicate"},
		{"bad grid", `simulation "a" {
  netlist = "a.cir"
  grid    = 1
}`, "grid"},
		{"bad interpolation", `simulation "a" {
  netlist       = "a.cir"
  interpolation = "cubic"
}`, "interpolation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "job.hcl", nil)
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParse_SyntaxAndSchemaErrors(t *testing.T) {
	_, err := Parse([]byte(`simulation "a" {`), "job.hcl", nil)
	assert.ErrorContains(t, err, "failed to parse")

	_, err = Parse([]byte(`simulation "a" { bogus = 1 }`), "job.hcl", nil)
	assert.ErrorContains(t, err, "failed to decode")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`simulation "a" { netlist = "a.cir" }`), 0o644))

	j, err := Load(path)
	require.NoError(t, err)
	require.Len(t, j.Simulations, 1)
	assert.Equal(t, filepath.Join(dir, "a.cir"), j.Simulations[0].NetlistPath)
	assert.Zero(t, j.Timeout)
	assert.Empty(t, j.Executable)

	_, err = Load(filepath.Join(dir, "missing.hcl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
