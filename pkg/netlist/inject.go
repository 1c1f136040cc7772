package netlist

import (
	"strconv"
	"strings"
)

// SweepVariable is the loop variable used in the generated foreach block.
const SweepVariable = "__val"

// InjectMeasure inserts a run/write control block before the last .end so
// that ngspice prints .meas results and still writes the rawfile. It returns
// text unchanged when there is no measure directive or a control block
// already exists.
func InjectMeasure(text, rawPath string) string {
	if !HasMeasure(text) || HasControlBlock(text) {
		return text
	}

	var b strings.Builder
	b.WriteString(".control\n")
	b.WriteString("run\n")
	b.WriteString("write " + escapePath(rawPath) + "\n")
	b.WriteString("quit\n")
	b.WriteString(".endc\n")

	return insertBeforeEnd(text, b.String())
}

// InjectSweep replaces the .step directive with a foreach control block that
// runs the analysis once per value and appends every run to rawPath. It
// returns text unchanged when spec is nil or a control block already exists.
func InjectSweep(text, rawPath string, spec *SweepSpec) string {
	if spec == nil || len(spec.Values) == 0 || HasControlBlock(text) {
		return text
	}

	vals := make([]string, len(spec.Values))
	for i, v := range spec.Values {
		vals[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	var b strings.Builder
	b.WriteString(".control\n")
	b.WriteString("set appendwrite\n")
	b.WriteString("foreach " + SweepVariable + " " + strings.Join(vals, " ") + "\n")
	b.WriteString("  alterparam " + spec.Param + " = $" + SweepVariable + "\n")
	b.WriteString("  reset\n")
	b.WriteString("  run\n")
	b.WriteString("  write " + escapePath(rawPath) + "\n")
	b.WriteString("end\n")
	b.WriteString("quit\n")
	b.WriteString(".endc\n")

	// Only the first .step is consumed; a second one would be ignored by
	// ngspice anyway.
	removed := false
	text = stepLine.ReplaceAllStringFunc(text, func(line string) string {
		if removed {
			return line
		}
		removed = true
		return ""
	})

	return insertBeforeEnd(text, b.String())
}

// Inject picks the sweep block when spec is non-nil and the measure block
// otherwise.
func Inject(text, rawPath string, spec *SweepSpec) string {
	if spec != nil {
		return InjectSweep(text, rawPath, spec)
	}
	return InjectMeasure(text, rawPath)
}

// insertBeforeEnd places block before the last .end line, or appends the
// block plus a .end when the netlist has none.
func insertBeforeEnd(text, block string) string {
	ends := endRe.FindAllStringIndex(text, -1)
	if len(ends) == 0 {
		sep := "\n"
		if strings.HasSuffix(text, "\n") {
			sep = ""
		}
		return text + sep + block + ".end\n"
	}
	at := ends[len(ends)-1][0]
	return text[:at] + block + text[at:]
}

func escapePath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
