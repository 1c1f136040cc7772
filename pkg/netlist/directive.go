package netlist

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	measureRe = regexp.MustCompile(`(?im)^\s*\.meas(ure)?\s`)
	stepRe    = regexp.MustCompile(`(?im)^\s*\.step\s`)
	controlRe = regexp.MustCompile(`(?im)^\s*\.control\b`)
	endRe     = regexp.MustCompile(`(?im)^[ \t]*\.end[ \t]*\r?$`)
	icRe      = regexp.MustCompile(`(?im)^[a-z]\S*[ \t]+.*\bic=`)
	tranRe    = regexp.MustCompile(`(?im)^\s*\.tran\b(.*)$`)
	uicRe     = regexp.MustCompile(`(?i)\buic\b`)
	stepArgRe = regexp.MustCompile(`(?i)^\.step[ \t]+param[ \t]+(\S+)[ \t]+(\S+)[ \t]+(\S+)[ \t]+(\S+)`)
	stepLine  = regexp.MustCompile(`(?im)^[ \t]*\.step[ \t].*$`)
)

var ErrMalformedDirective = errors.New("malformed directive")

// DirectiveError is returned when a directive is clearly present but its
// arguments cannot be understood.
type DirectiveError struct {
	Line int
	Text string
	Err  error
}

func (e *DirectiveError) Error() string {
	msg := fmt.Sprintf("line %d: malformed directive %q", e.Line, e.Text)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DirectiveError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedDirective}
	}
	return []error{ErrMalformedDirective, e.Err}
}

// HasMeasure reports a .meas or .measure directive.
func HasMeasure(text string) bool { return measureRe.MatchString(text) }

// HasSweep reports a .step directive.
func HasSweep(text string) bool { return stepRe.MatchString(text) }

// HasControlBlock reports an explicit .control block.
func HasControlBlock(text string) bool { return controlRe.MatchString(text) }

const uicWarning = "Netlist has ic= values on components but .tran is missing UIC flag.\n" +
	"Without UIC, ngspice computes a DC operating point first, silently ignoring all ic= values.\n" +
	"Add 'UIC' to the .tran line if initial conditions should be used."

// UICWarning returns an advisory message when a component sets ic= but the
// .tran line lacks UIC. Netlists without a .tran line never warn.
func UICWarning(text string) (string, bool) {
	if !icRe.MatchString(text) {
		return "", false
	}
	m := tranRe.FindStringSubmatch(text)
	if m == nil || uicRe.MatchString(m[1]) {
		return "", false
	}
	return uicWarning, true
}

// HasUnusedInitialConditions is the boolean form of UICWarning.
func HasUnusedInitialConditions(text string) bool {
	_, ok := UICWarning(text)
	return ok
}

// ParseStepDirective reads ".step param <name> <start> <stop> <incr>".
// It returns nil, nil when the netlist has no .step line at all.
func ParseStepDirective(text string) (*SweepSpec, error) {
	return defaultLiteralParser.ParseStep(text)
}

// ParseStep is ParseStepDirective with this parser's suffix table.
func (p LiteralParser) ParseStep(text string) (*SweepSpec, error) {
	loc := stepRe.FindStringIndex(text)
	if loc == nil {
		return nil, nil
	}
	// \s* in the pattern may have consumed blank lines before the keyword.
	start := loc[0] + strings.Index(strings.ToLower(text[loc[0]:loc[1]]), ".step")
	lineNo := strings.Count(text[:start], "\n") + 1
	raw := strings.TrimSpace(firstLine(text[start:]))

	m := stepArgRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, &DirectiveError{Line: lineNo, Text: raw}
	}

	var vals [3]float64
	for i, tok := range m[2:5] {
		v, err := p.Parse(tok)
		if err != nil {
			return nil, &DirectiveError{Line: lineNo, Text: raw, Err: err}
		}
		vals[i] = v
	}

	values, err := ExpandSweep(vals[0], vals[1], vals[2])
	if err != nil {
		return nil, &DirectiveError{Line: lineNo, Text: raw, Err: err}
	}
	return &SweepSpec{Param: m[1], Values: values}, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
