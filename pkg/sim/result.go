package sim

import (
	"math"
	"math/cmplx"
	"strings"

	"github.com/edp1096/spicerun/pkg/netlist"
	"github.com/edp1096/spicerun/pkg/rawfile"
)

// Result is everything one invocation produced. It owns no files.
type Result struct {
	Title        string               // netlist title line
	Analysis     netlist.AnalysisType // analysis the netlist asks for
	Header       rawfile.Header
	Runs         []rawfile.Run // one per sweep value, otherwise one
	Layout       rawfile.Layout
	Sweep        *netlist.SweepSpec
	Measurements map[string]float64
	Stdout       string
	Stderr       string
	ExitCode     int
	Warnings     []string
	RawCopy      string // path of the kept rawfile copy, if requested
}

func (r *Result) IsAC() bool        { return r.Header.Kind() == rawfile.AnalysisAC }
func (r *Result) IsTransient() bool { return r.Header.Kind() == rawfile.AnalysisTransient }
func (r *Result) IsOP() bool        { return r.Header.Kind() == rawfile.AnalysisOP }

// Run returns run i, or nil when out of range.
func (r *Result) Run(i int) *rawfile.Run {
	if i < 0 || i >= len(r.Runs) {
		return nil
	}
	return &r.Runs[i]
}

// Axis returns the real part of run i's first vector.
func (r *Result) Axis(i int) []float64 {
	run := r.Run(i)
	if run == nil || run.Axis() == nil {
		return nil
	}
	return run.Axis().Real
}

// Real returns the real part of node in run i.
func (r *Result) Real(i int, node string) ([]float64, bool) {
	run := r.Run(i)
	if run == nil {
		return nil, false
	}
	v, ok := run.Lookup(node)
	if !ok {
		return nil, false
	}
	return v.Real, true
}

// MagDB returns 20·log10|node| for run i. A tiny floor keeps zero
// magnitudes finite.
func (r *Result) MagDB(i int, node string) ([]float64, bool) {
	return r.mapComplex(i, node, func(c complex128) float64 {
		return 20 * math.Log10(cmplx.Abs(c)+1e-30)
	})
}

// PhaseDeg returns the phase of node in degrees for run i.
func (r *Result) PhaseDeg(i int, node string) ([]float64, bool) {
	return r.mapComplex(i, node, func(c complex128) float64 {
		return cmplx.Phase(c) * 180 / math.Pi
	})
}

func (r *Result) mapComplex(i int, node string, f func(complex128) float64) ([]float64, bool) {
	run := r.Run(i)
	if run == nil {
		return nil, false
	}
	values, ok := run.Complex(node)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(values))
	for k, c := range values {
		out[k] = f(c)
	}
	return out, true
}

// OutputNodes lists the voltage vectors worth showing: every node voltage
// except the axis and v(in), or every node voltage when that leaves none.
func (r *Result) OutputNodes() []string {
	run := r.Run(0)
	if run == nil {
		return nil
	}
	var all, outputs []string
	for _, v := range run.Outputs() {
		name := strings.ToLower(v.Name)
		if !strings.HasPrefix(name, "v(") {
			continue
		}
		all = append(all, v.Name)
		if name != "v(in)" {
			outputs = append(outputs, v.Name)
		}
	}
	if len(outputs) == 0 {
		return all
	}
	return outputs
}
