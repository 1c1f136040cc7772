// Package measure extracts .measure results from ngspice standard output.
//
// ngspice prints each result as "name = value" with optional trailing
// fields, for example
//
//	t_half              =  6.931472e-04 at=  6.931472e-04
//
// Status lines use the same shape and are filtered by a denylist.
package measure

import (
	"bufio"
	"strconv"
	"strings"
)

// DefaultDenylist holds prefixes of ngspice status lines that look like
// measurements.
var DefaultDenylist = []string{
	"doing analysis at temp",
	"total analysis time",
	"total elapsed time",
	"total dram available",
	"dram currently available",
	"maximum ngspice program size",
	"current ngspice program size",
	"shared ngspice pages",
	"text (code) pages",
	"stack",
	"library pages",
}

// Extractor is safe for concurrent use; it holds no mutable state.
type Extractor struct {
	deny []string
}

// New returns an Extractor rejecting keys that start with any of denylist.
// A nil denylist selects DefaultDenylist.
func New(denylist []string) *Extractor {
	if denylist == nil {
		denylist = DefaultDenylist
	}
	deny := make([]string, len(denylist))
	for i, d := range denylist {
		deny[i] = strings.ToLower(strings.TrimSpace(d))
	}
	return &Extractor{deny: deny}
}

// Report is the outcome of one extraction.
type Report struct {
	Values map[string]float64
	// Skipped counts candidate lines whose value was not numeric.
	Skipped int
}

// Extract returns the measurements found in text. When a name repeats the
// last occurrence wins.
func (e *Extractor) Extract(text string) map[string]float64 {
	return e.ExtractReport(text).Values
}

func (e *Extractor) ExtractReport(text string) Report {
	r := Report{Values: make(map[string]float64)}

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}
		// Split at the first '='; trailing "at=", "targ=" and "trig=" fields
		// belong to the value side.
		key, rest, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" || e.denied(key) {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			r.Skipped++
			continue
		}
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			r.Skipped++
			continue
		}
		r.Values[key] = v
	}
	return r
}

func (e *Extractor) denied(key string) bool {
	for _, d := range e.deny {
		if strings.HasPrefix(key, d) {
			return true
		}
	}
	return false
}

var defaultExtractor = New(nil)

// Extract runs the default extractor over text.
func Extract(text string) map[string]float64 {
	return defaultExtractor.Extract(text)
}
