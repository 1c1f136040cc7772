// Package job loads HCL job files that describe a batch of simulations.
//
//	defaults {
//	  timeout = "30s"
//	  ngspice = "ngspice"
//	}
//
//	simulation "rc" {
//	  netlist = "rc.cir"
//	  csv     = "out/${env.RUN_ID}/rc.csv"
//	  nodes   = ["v(out)"]
//	}
//
// Relative paths are resolved against the job file's directory. Environment
// variables are available as env.NAME.
package job

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/edp1096/spicerun/pkg/rawfile"
)

var ErrInvalid = errors.New("invalid job file")

// Job is a validated job file.
type Job struct {
	Path        string
	Executable  string        // empty means the caller's default
	Timeout     time.Duration // zero means the caller's default
	Simulations []Simulation
}

// Simulation is one simulation block with paths made absolute or
// relative to the working directory.
type Simulation struct {
	Name          string
	NetlistPath   string // set when the netlist is a file
	Text          string // set when the netlist is inline
	Timeout       time.Duration
	CSV           string
	Plot          string
	Nodes         []string
	Grid          int // points of the common resampling axis, 0 disables
	Interpolation rawfile.Interpolation
}

// hclJobFile mirrors the file for gohcl decoding.
type hclJobFile struct {
	Defaults    *hclDefaults     `hcl:"defaults,block"`
	Simulations []*hclSimulation `hcl:"simulation,block"`
}

type hclDefaults struct {
	Timeout *string `hcl:"timeout,optional"`
	Ngspice *string `hcl:"ngspice,optional"`
}

type hclSimulation struct {
	Name          string   `hcl:"name,label"`
	Netlist       *string  `hcl:"netlist,optional"`
	Text          *string  `hcl:"text,optional"`
	Timeout       *string  `hcl:"timeout,optional"`
	CSV           *string  `hcl:"csv,optional"`
	Plot          *string  `hcl:"plot,optional"`
	Nodes         []string `hcl:"nodes,optional"`
	Grid          *int     `hcl:"grid,optional"`
	Interpolation *string  `hcl:"interpolation,optional"`
}

// Load reads path with the process environment exposed as env.
func Load(path string) (*Job, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(src, path, os.Environ())
}

// Parse decodes src. filename is used for diagnostics and to resolve
// relative paths; environ holds "KEY=value" pairs.
func Parse(src []byte, filename string, environ []string) (*Job, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var parsed hclJobFile
	diags = gohcl.DecodeBody(file.Body, evalContext(environ), &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	base := filepath.Dir(filename)
	j := &Job{Path: filename}
	if d := parsed.Defaults; d != nil {
		if d.Ngspice != nil {
			j.Executable = *d.Ngspice
		}
		if d.Timeout != nil {
			t, err := parseTimeout(*d.Timeout)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: defaults: %v", ErrInvalid, filename, err)
			}
			j.Timeout = t
		}
	}

	if len(parsed.Simulations) == 0 {
		return nil, fmt.Errorf("%w: %s: no simulation blocks", ErrInvalid, filename)
	}
	seen := make(map[string]bool)
	for _, hs := range parsed.Simulations {
		if seen[hs.Name] {
			return nil, fmt.Errorf("%w: %s: duplicate simulation %q", ErrInvalid, filename, hs.Name)
		}
		seen[hs.Name] = true

		s, err := hs.toSimulation(base)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: simulation %q: %v", ErrInvalid, filename, hs.Name, err)
		}
		j.Simulations = append(j.Simulations, s)
	}
	return j, nil
}

func (hs *hclSimulation) toSimulation(base string) (Simulation, error) {
	s := Simulation{Name: hs.Name, Nodes: hs.Nodes}

	switch {
	case hs.Netlist != nil && hs.Text != nil:
		return s, errors.New("netlist and text are mutually exclusive")
	case hs.Netlist != nil:
		s.NetlistPath = resolve(base, *hs.Netlist)
	case hs.Text != nil:
		s.Text = *hs.Text
	default:
		return s, errors.New("one of netlist or text is required")
	}

	if hs.Timeout != nil {
		t, err := parseTimeout(*hs.Timeout)
		if err != nil {
			return s, err
		}
		s.Timeout = t
	}
	if hs.CSV != nil {
		s.CSV = resolve(base, *hs.CSV)
	}
	if hs.Plot != nil {
		s.Plot = resolve(base, *hs.Plot)
	}
	if hs.Grid != nil {
		if *hs.Grid != 0 && *hs.Grid < 2 {
			return s, fmt.Errorf("grid must be 0 or at least 2, got %d", *hs.Grid)
		}
		s.Grid = *hs.Grid
	}
	if hs.Interpolation != nil {
		switch strings.ToLower(*hs.Interpolation) {
		case "linear":
			s.Interpolation = rawfile.Linear
		case "spline":
			s.Interpolation = rawfile.CubicSpline
		default:
			return s, fmt.Errorf("interpolation must be \"linear\" or \"spline\", got %q", *hs.Interpolation)
		}
	}
	return s, nil
}

func parseTimeout(s string) (time.Duration, error) {
	t, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("timeout: %v", err)
	}
	if t <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", s)
	}
	return t, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// evalContext exposes environ as the env object.
func evalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !hclsyntax.ValidIdentifier(k) || !utf8.ValidString(v) {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}
