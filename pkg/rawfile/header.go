package rawfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	markerBinary = "binary:"
	markerValues = "values:"
)

// ParseHeader reads only the preamble of the first section. It does not
// touch the data section, so it works on files that are still being written
// as long as the variable list is complete.
func ParseHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadHeader(f)
}

// ReadHeader reads a preamble from r, stopping at the data marker.
func ReadHeader(r io.Reader) (*Header, error) {
	br := bufio.NewReader(r)
	next := func() (string, error) {
		line, err := br.ReadString('\n')
		if err == io.EOF && line != "" {
			return line, nil
		}
		return line, err
	}
	h, err := readPreamble(next)
	if err != nil && !errors.Is(err, errNoMarker) {
		return nil, err
	}
	return h, nil
}

// errNoMarker is returned by readPreamble when input ends before the data
// marker. Callers that need data treat it as corruption.
var errNoMarker = errors.New("rawfile: preamble ends without data marker")

// readPreamble consumes lines until Binary: or Values:. next must return
// io.EOF once input is exhausted.
func readPreamble(next func() (string, error)) (*Header, error) {
	h := &Header{}
	seen := make(map[string]bool)
	inVariables := false

	for {
		raw, err := next()
		if errors.Is(err, io.EOF) {
			if err := h.validate(seen); err != nil {
				return nil, err
			}
			if len(h.Variables) < h.NumVariables {
				return nil, &FieldError{Field: "Variables", Err: fmt.Errorf("listed %d of %d variables", len(h.Variables), h.NumVariables)}
			}
			return h, errNoMarker
		}
		if err != nil {
			return nil, err
		}
		line := strings.TrimRight(raw, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		lower := strings.ToLower(strings.TrimSpace(line))
		if lower == markerBinary || lower == markerValues {
			h.Binary = lower == markerBinary
			if err := h.validate(seen); err != nil {
				return nil, err
			}
			if len(h.Variables) != h.NumVariables {
				return nil, &FieldError{Field: "Variables", Err: fmt.Errorf("listed %d variables, declared %d", len(h.Variables), h.NumVariables)}
			}
			return h, nil
		}

		// Variable entries are indented "<index> <name> <unit> [extra...]".
		if inVariables && (line[0] == ' ' || line[0] == '\t') {
			v, err := parseVariable(line)
			if err != nil {
				return nil, err
			}
			h.Variables = append(h.Variables, v)
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		inVariables = false
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "title":
			h.Title = value
		case "date":
			h.Date = value
		case "plotname":
			h.Plotname = value
		case "flags":
			h.Flags = value
		case "command":
			h.Command = value
		case "no. variables":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, &FieldError{Field: "No. Variables", Err: err}
			}
			if n <= 0 {
				return nil, ErrNoVariables
			}
			h.NumVariables = n
		case "no. points":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, &FieldError{Field: "No. Points", Err: fmt.Errorf("invalid count %q", value)}
			}
			h.NumPoints = n
		case "variables":
			inVariables = true
		}
		seen[key] = true
	}
}

var requiredFields = []struct{ key, name string }{
	{"title", "Title"},
	{"plotname", "Plotname"},
	{"flags", "Flags"},
	{"no. variables", "No. Variables"},
	{"no. points", "No. Points"},
	{"variables", "Variables"},
}

func (h *Header) validate(seen map[string]bool) error {
	for _, f := range requiredFields {
		if !seen[f.key] {
			return &FieldError{Field: f.name}
		}
	}
	if h.NumVariables == 0 {
		return ErrNoVariables
	}
	return nil
}

func parseVariable(line string) (Variable, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Variable{}, &FieldError{Field: "Variables", Err: fmt.Errorf("malformed entry %q", strings.TrimSpace(line))}
	}
	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return Variable{}, &FieldError{Field: "Variables", Err: fmt.Errorf("bad index in %q", strings.TrimSpace(line))}
	}
	v := Variable{Index: idx, Name: fields[1]}
	if len(fields) > 2 {
		v.Unit = fields[2]
	}
	return v, nil
}
