package netlist

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

type AnalysisType int

const (
	AnalysisUnknown AnalysisType = iota
	AnalysisOP
	AnalysisTRAN
	AnalysisAC
	AnalysisDC
)

func (a AnalysisType) String() string {
	switch a {
	case AnalysisOP:
		return "op"
	case AnalysisTRAN:
		return "tran"
	case AnalysisAC:
		return "ac"
	case AnalysisDC:
		return "dc"
	default:
		return "unknown"
	}
}

// Netlist is immutable circuit text. Every flag is derived from the text on
// demand; a rewritten netlist is a new value.
type Netlist struct {
	text string
	lit  LiteralParser
}

// Line is one logical netlist line after continuation joining.
type Line struct {
	Number int    // Physical line number where the logical line starts
	Text   string // Joined text with single spaces
}

// Directive is a dot-command line such as ".tran 1u 1m uic".
type Directive struct {
	Line    int
	Keyword string   // Lower-cased, with the leading dot
	Args    []string // Remaining fields
}

func New(text string) Netlist {
	return Netlist{text: text, lit: defaultLiteralParser}
}

// WithLiteralParser returns a copy that parses values with p.
func (n Netlist) WithLiteralParser(p LiteralParser) Netlist {
	n.lit = p
	return n
}

// Load reads a netlist file.
func Load(path string) (Netlist, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Netlist{}, fmt.Errorf("reading netlist file: %w", err)
	}
	return New(string(content)), nil
}

func (n Netlist) Text() string { return n.text }

func (n Netlist) HasMeasure() bool      { return HasMeasure(n.text) }
func (n Netlist) HasSweep() bool        { return HasSweep(n.text) }
func (n Netlist) HasControlBlock() bool { return HasControlBlock(n.text) }

func (n Netlist) HasUnusedInitialConditions() bool {
	return HasUnusedInitialConditions(n.text)
}

func (n Netlist) UICWarning() (string, bool) { return UICWarning(n.text) }

// Sweep parses the .step directive, if any.
func (n Netlist) Sweep() (*SweepSpec, error) { return n.lit.ParseStep(n.text) }

// NeedsControlBlock reports whether batch raw-write mode would lose output:
// .meas results are suppressed by -r and .step is not understood by ngspice.
// sweep is the parsed .step, nil when there is none or it was dropped.
func (n Netlist) NeedsControlBlock(sweep *SweepSpec) bool {
	return !n.HasControlBlock() && (n.HasMeasure() || sweep != nil)
}

// Title is the first line of the netlist, which SPICE always treats as a
// title even when it does not start with '*'.
func (n Netlist) Title() string {
	title := strings.TrimPrefix(firstLine(n.text), "*")
	return strings.TrimSpace(title)
}

var spaceRe = regexp.MustCompile(`\s+`)

// Lines returns the logical lines after the title: comments and blank lines
// dropped, '+' continuation lines joined to their predecessor, in-line '$'
// and ';' comments stripped.
func (n Netlist) Lines() []Line {
	scanner := bufio.NewScanner(strings.NewReader(n.text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []Line
	var current Line
	lineNo := 0

	flush := func() {
		if current.Text != "" {
			current.Text = spaceRe.ReplaceAllString(current.Text, " ")
			lines = append(lines, current)
		}
		current = Line{}
	}

	// Title or comment
	if scanner.Scan() {
		lineNo++
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if len(line) == 0 || strings.HasPrefix(line, "*") {
			continue
		}

		// In-line comments
		for _, marker := range []string{" $ ", ";"} {
			if idx := strings.Index(line, marker); idx >= 0 {
				line = strings.TrimSpace(line[:idx])
			}
		}
		if len(line) == 0 {
			continue
		}

		// Line continue
		if strings.HasPrefix(line, "+") {
			if current.Text != "" {
				current.Text += " " + strings.TrimSpace(line[1:])
			}
			continue
		}

		flush()
		current = Line{Number: lineNo, Text: line}
	}
	flush()

	return lines
}

// Directives returns every dot-command in order.
func (n Netlist) Directives() []Directive {
	var out []Directive
	for _, l := range n.Lines() {
		if !strings.HasPrefix(l.Text, ".") {
			continue
		}
		fields := strings.Fields(l.Text)
		out = append(out, Directive{
			Line:    l.Number,
			Keyword: strings.ToLower(fields[0]),
			Args:    fields[1:],
		})
	}
	return out
}

// Analysis returns the first analysis directive found outside a control
// block. Netlists without one report AnalysisUnknown.
func (n Netlist) Analysis() AnalysisType {
	inControl := false
	for _, d := range n.Directives() {
		switch d.Keyword {
		case ".control":
			inControl = true
		case ".endc":
			inControl = false
		case ".op":
			if !inControl {
				return AnalysisOP
			}
		case ".tran":
			if !inControl {
				return AnalysisTRAN
			}
		case ".ac":
			if !inControl {
				return AnalysisAC
			}
		case ".dc":
			if !inControl {
				return AnalysisDC
			}
		}
	}
	return AnalysisUnknown
}

// TranParam holds the arguments of a .tran directive.
type TranParam struct {
	TStep  float64 // timestep
	TStop  float64 // stop time
	TStart float64 // start time
	TMax   float64 // max timestep
	UIC    bool    // Use Initial Conditions
}

// Tran parses the first .tran directive. ok is false when there is none.
func (n Netlist) Tran() (param TranParam, ok bool, err error) {
	for _, d := range n.Directives() {
		if d.Keyword != ".tran" {
			continue
		}
		param, err = n.parseTran(d)
		return param, true, err
	}
	return TranParam{}, false, nil
}

func (n Netlist) parseTran(d Directive) (TranParam, error) {
	var param TranParam
	var err error

	if len(d.Args) < 2 {
		return param, &DirectiveError{Line: d.Line, Text: ".tran " + strings.Join(d.Args, " "),
			Err: fmt.Errorf("insufficient tran parameters, need at least tstep and tstop")}
	}
	param.TStep, err = n.lit.Parse(d.Args[0])
	if err != nil {
		return param, fmt.Errorf("invalid tstep: %w", err)
	}
	param.TStop, err = n.lit.Parse(d.Args[1])
	if err != nil {
		return param, fmt.Errorf("invalid tstop: %w", err)
	}

	positional := 0
	for _, arg := range d.Args[2:] {
		if strings.EqualFold(arg, "uic") {
			param.UIC = true
			continue
		}
		v, err := n.lit.Parse(arg)
		if err != nil {
			return param, fmt.Errorf("invalid tran argument %q: %w", arg, err)
		}
		switch positional {
		case 0:
			param.TStart = v
		case 1:
			param.TMax = v
		}
		positional++
	}
	if param.TMax == 0 {
		param.TMax = param.TStep
	}
	return param, nil
}
