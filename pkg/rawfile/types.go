// Package rawfile reads and writes ngspice rawfiles: an ASCII preamble of
// "Key: value" lines followed by a Binary: or Values: data section.
package rawfile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingField = errors.New("rawfile: missing header field")
	ErrNoVariables  = errors.New("rawfile: no variables declared")
	ErrCorrupt      = errors.New("rawfile: corrupt data section")
	ErrNoRuns       = errors.New("rawfile: no runs")
)

// FieldError names a required preamble field that was absent or unreadable.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rawfile: header field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("rawfile: missing header field %q", e.Field)
}

func (e *FieldError) Unwrap() error { return ErrMissingField }

// CorruptError reports a data section that disagrees with its preamble.
type CorruptError struct {
	Section  int   // zero-based section index
	Expected int64 // bytes (binary) or points (ASCII) the preamble declares
	Actual   int64
	Reason   string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("rawfile: section %d: %s (expected %d, got %d)", e.Section, e.Reason, e.Expected, e.Actual)
}

func (e *CorruptError) Unwrap() error { return ErrCorrupt }

type ValueKind int

const (
	Real ValueKind = iota
	Complex
)

func (k ValueKind) String() string {
	if k == Complex {
		return "complex"
	}
	return "real"
}

type AnalysisKind int

const (
	AnalysisOther AnalysisKind = iota
	AnalysisOP
	AnalysisTransient
	AnalysisAC
	AnalysisDC
)

func (k AnalysisKind) String() string {
	switch k {
	case AnalysisOP:
		return "op"
	case AnalysisTransient:
		return "tran"
	case AnalysisAC:
		return "ac"
	case AnalysisDC:
		return "dc"
	default:
		return "other"
	}
}

// Variable is one entry of the Variables: list.
type Variable struct {
	Index int
	Name  string
	Unit  string
}

// Header is the preamble of one rawfile section.
type Header struct {
	Title        string
	Date         string
	Plotname     string
	Flags        string
	Command      string
	NumVariables int
	NumPoints    int
	Variables    []Variable
	Binary       bool // Binary: marker; false for Values: (ASCII)
}

// IsComplex reports whether every value is stored as a real/imaginary pair.
func (h *Header) IsComplex() bool {
	for _, f := range strings.Fields(strings.ToLower(h.Flags)) {
		if f == "complex" {
			return true
		}
	}
	return false
}

// ValueWidth is the number of float64 units per stored value.
func (h *Header) ValueWidth() int {
	if h.IsComplex() {
		return 2
	}
	return 1
}

// RunBytes is the binary size of one run as declared by the preamble.
func (h *Header) RunBytes() int64 {
	return int64(h.NumPoints) * int64(h.NumVariables) * int64(h.ValueWidth()) * 8
}

// Kind classifies the free-form Plotname.
func (h *Header) Kind() AnalysisKind {
	return ClassifyPlotname(h.Plotname)
}

// ClassifyPlotname maps ngspice plot names such as "Transient Analysis" or
// "AC Analysis" to an analysis kind.
func ClassifyPlotname(name string) AnalysisKind {
	pn := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.Contains(pn, "operating point"):
		return AnalysisOP
	case strings.Contains(pn, "transient") || strings.HasPrefix(pn, "tran"):
		return AnalysisTransient
	case strings.HasPrefix(pn, "ac ") || pn == "ac" || strings.Contains(pn, "ac analysis"):
		return AnalysisAC
	case strings.Contains(pn, "dc transfer") || strings.HasPrefix(pn, "dc "):
		return AnalysisDC
	default:
		return AnalysisOther
	}
}

// Vector is one named sequence of a run. Imag is nil for real vectors.
type Vector struct {
	Name string
	Unit string
	Kind ValueKind
	Real []float64
	Imag []float64
}

// Len returns the number of samples.
func (v *Vector) Len() int { return len(v.Real) }

// Complex returns the samples as complex numbers.
func (v *Vector) Complex() []complex128 {
	out := make([]complex128, len(v.Real))
	for i, re := range v.Real {
		var im float64
		if v.Imag != nil {
			im = v.Imag[i]
		}
		out[i] = complex(re, im)
	}
	return out
}

// Run is one complete set of vectors in declared order. The first vector is
// the sweep axis (time, frequency or swept source).
type Run struct {
	Vectors []Vector
	index   map[string]int
}

// NewRun builds the name index once. Vector lengths must agree.
func NewRun(vectors []Vector) (Run, error) {
	r := Run{Vectors: vectors, index: make(map[string]int, len(vectors))}
	for i, v := range vectors {
		if v.Len() != vectors[0].Len() {
			return Run{}, fmt.Errorf("rawfile: vector %q has %d points, want %d", v.Name, v.Len(), vectors[0].Len())
		}
		if v.Imag != nil && len(v.Imag) != len(v.Real) {
			return Run{}, fmt.Errorf("rawfile: vector %q has mismatched imaginary part", v.Name)
		}
		key := strings.ToLower(v.Name)
		if _, dup := r.index[key]; !dup {
			r.index[key] = i
		}
	}
	return r, nil
}

// Len returns the point count.
func (r Run) Len() int {
	if len(r.Vectors) == 0 {
		return 0
	}
	return r.Vectors[0].Len()
}

// Axis returns the first declared vector.
func (r Run) Axis() *Vector {
	if len(r.Vectors) == 0 {
		return nil
	}
	return &r.Vectors[0]
}

// Outputs returns every vector except the axis.
func (r Run) Outputs() []Vector {
	if len(r.Vectors) < 2 {
		return nil
	}
	return r.Vectors[1:]
}

// Names returns vector names in declared order.
func (r Run) Names() []string {
	names := make([]string, len(r.Vectors))
	for i, v := range r.Vectors {
		names[i] = v.Name
	}
	return names
}

// Lookup finds a vector by case-insensitive name.
func (r Run) Lookup(name string) (*Vector, bool) {
	if r.index == nil {
		// Runs assembled by hand without NewRun.
		for i := range r.Vectors {
			if strings.EqualFold(r.Vectors[i].Name, name) {
				return &r.Vectors[i], true
			}
		}
		return nil, false
	}
	i, ok := r.index[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return &r.Vectors[i], true
}

// Complex returns the named vector as complex samples.
func (r Run) Complex(name string) ([]complex128, bool) {
	v, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	return v.Complex(), true
}

// Header synthesizes a preamble describing this run.
func (r Run) Header(title, plotname string) Header {
	h := Header{
		Title:        title,
		Plotname:     plotname,
		Flags:        "real",
		NumVariables: len(r.Vectors),
		NumPoints:    r.Len(),
		Binary:       true,
	}
	for i, v := range r.Vectors {
		if v.Kind == Complex {
			h.Flags = "complex"
		}
		h.Variables = append(h.Variables, Variable{Index: i, Name: v.Name, Unit: v.Unit})
	}
	return h
}

// Select returns a run holding the axis and the named vectors, in the order
// given. Names are matched case-insensitively.
func (r Run) Select(names ...string) (Run, error) {
	axis := r.Axis()
	if axis == nil {
		return Run{}, ErrNoRuns
	}
	vectors := []Vector{*axis}
	for _, name := range names {
		v, ok := r.Lookup(name)
		if !ok {
			return Run{}, fmt.Errorf("rawfile: no vector %q", name)
		}
		vectors = append(vectors, *v)
	}
	return NewRun(vectors)
}
