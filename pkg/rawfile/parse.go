package rawfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Layout describes how runs are arranged in a file.
type Layout int

const (
	LayoutSingle   Layout = iota // one preamble, one run
	LayoutShared                 // one preamble, K concatenated data blocks
	LayoutRepeated               // K complete preamble+data sections
)

func (l Layout) String() string {
	switch l {
	case LayoutShared:
		return "shared"
	case LayoutRepeated:
		return "repeated"
	default:
		return "single"
	}
}

// File is a decoded rawfile. Header is the first section's preamble;
// Sections holds one preamble per repeated section.
type File struct {
	Header   Header
	Sections []Header
	Runs     []Run
	Layout   Layout
}

// Parse decodes a file holding exactly one run. A data section whose length
// differs from the declared size is an error, never a silent truncation.
func Parse(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// ParseAll decodes files with one or more runs, detecting the layout.
func ParseAll(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeAll(data)
}

// Decode is Parse over bytes.
func Decode(data []byte) (*File, error) {
	sr := &sectionReader{data: data}
	h, err := sr.preamble()
	if err != nil {
		return nil, err
	}

	var run Run
	if err := checkPoints(h, len(data)-sr.off, 0); err != nil {
		return nil, err
	}
	if h.Binary {
		rest := data[sr.off:]
		if int64(len(rest)) != h.RunBytes() {
			return nil, &CorruptError{Expected: h.RunBytes(), Actual: int64(len(rest)), Reason: "binary length mismatch"}
		}
		run, err = decodeBinary(h, rest)
	} else {
		var end int
		run, end, err = decodeASCII(h, data, sr.off, 0)
		if err == nil && len(bytes.TrimSpace(data[end:])) != 0 {
			err = &CorruptError{Expected: int64(h.NumPoints), Actual: int64(h.NumPoints) + 1, Reason: "trailing values after declared points"}
		}
	}
	if err != nil {
		return nil, err
	}

	return &File{Header: *h, Sections: []Header{*h}, Runs: []Run{run}, Layout: LayoutSingle}, nil
}

// DecodeAll is ParseAll over bytes. Two multi-run layouts are accepted:
// repeated sections, recognized by a Title: line right after a section's
// declared data, and a single preamble whose data length is a whole multiple
// of one run, which is split evenly.
func DecodeAll(data []byte) (*File, error) {
	sr := &sectionReader{data: data}
	f := &File{Layout: LayoutSingle}

	for section := 0; ; section++ {
		h, err := sr.preamble()
		if err != nil {
			if section > 0 {
				var ce *CorruptError
				if !errors.As(err, &ce) {
					err = &CorruptError{Section: section, Reason: "unreadable section preamble: " + err.Error()}
				}
			}
			return nil, err
		}
		if section == 0 {
			f.Header = *h
		} else {
			f.Layout = LayoutRepeated
		}
		f.Sections = append(f.Sections, *h)

		runs, end, err := decodeSection(h, data, sr.off, section)
		if err != nil {
			return nil, err
		}
		if len(runs) > 1 {
			f.Layout = LayoutShared
		}
		f.Runs = append(f.Runs, runs...)

		sr.off = end
		if !sr.atTitle() {
			if len(bytes.TrimSpace(data[end:])) != 0 {
				return nil, &CorruptError{Section: section, Expected: int64(end), Actual: int64(len(data)), Reason: "unrecognized bytes after data section"}
			}
			break
		}
	}

	return f, nil
}

// decodeSection decodes the data following one preamble and returns the
// offset just past it.
func decodeSection(h *Header, data []byte, start, section int) ([]Run, int, error) {
	if err := checkPoints(h, len(data)-start, section); err != nil {
		return nil, 0, err
	}
	if !h.Binary {
		return decodeASCIISection(h, data, start, section)
	}

	size := h.RunBytes()
	rest := data[start:]

	// Exactly one run, or one run followed by another section.
	if int64(len(rest)) == size || (int64(len(rest)) > size && hasTitle(rest[size:])) {
		run, err := decodeBinary(h, rest[:size])
		if err != nil {
			return nil, 0, err
		}
		return []Run{run}, start + int(size), nil
	}

	// One shared preamble with concatenated blocks.
	if size > 0 && int64(len(rest))%size == 0 {
		k := int(int64(len(rest)) / size)
		runs := make([]Run, 0, k)
		for i := 0; i < k; i++ {
			chunk := rest[int64(i)*size : int64(i+1)*size]
			run, err := decodeBinary(h, chunk)
			if err != nil {
				return nil, 0, err
			}
			runs = append(runs, run)
		}
		return runs, len(data), nil
	}

	return nil, 0, &CorruptError{Section: section, Expected: size, Actual: int64(len(rest)), Reason: "binary length is not a whole number of runs"}
}

// checkPoints rejects a declared point count that cannot fit in the avail
// bytes left, before any vector is allocated. A binary point takes
// NumVariables*ValueWidth*8 bytes; an ASCII point takes NumVariables+1
// tokens of at least two bytes each, counting the separator.
func checkPoints(h *Header, avail, section int) error {
	var limit int64
	if h.Binary {
		limit = int64(avail) / (int64(h.NumVariables) * int64(h.ValueWidth()) * 8)
	} else {
		limit = (int64(avail) + 1) / 2 / (int64(h.NumVariables) + 1)
	}
	if int64(h.NumPoints) > limit {
		return &CorruptError{Section: section, Expected: int64(h.NumPoints), Actual: limit, Reason: "data section shorter than one run"}
	}
	return nil
}

func decodeASCIISection(h *Header, data []byte, start, section int) ([]Run, int, error) {
	var runs []Run
	off := start
	for {
		run, end, err := decodeASCII(h, data, off, section)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, run)
		off = end
		rest := data[off:]
		if len(bytes.TrimSpace(rest)) == 0 || hasTitle(rest) {
			return runs, off, nil
		}
		if h.NumPoints == 0 {
			return nil, 0, &CorruptError{Section: section, Reason: "values after an empty run"}
		}
	}
}

func decodeBinary(h *Header, data []byte) (Run, error) {
	if int64(len(data)) != h.RunBytes() {
		return Run{}, &CorruptError{Expected: h.RunBytes(), Actual: int64(len(data)), Reason: "binary length mismatch"}
	}

	vectors := newVectors(h)
	width := h.ValueWidth()
	pos := 0
	for p := 0; p < h.NumPoints; p++ {
		for v := range vectors {
			vectors[v].Real[p] = math.Float64frombits(binary.LittleEndian.Uint64(data[pos:]))
			pos += 8
			if width == 2 {
				vectors[v].Imag[p] = math.Float64frombits(binary.LittleEndian.Uint64(data[pos:]))
				pos += 8
			}
		}
	}
	return NewRun(vectors)
}

// decodeASCII reads NumPoints points of a Values: section. Each point is an
// integer index followed by one token per variable; complex tokens are
// "re,im".
func decodeASCII(h *Header, data []byte, off, section int) (Run, int, error) {
	vectors := newVectors(h)
	complexValues := h.IsComplex()
	tok := &tokenizer{data: data, off: off}

	for p := 0; p < h.NumPoints; p++ {
		idx, ok := tok.next()
		if !ok {
			return Run{}, 0, &CorruptError{Section: section, Expected: int64(h.NumPoints), Actual: int64(p), Reason: "ASCII values end early"}
		}
		if _, err := strconv.Atoi(idx); err != nil {
			return Run{}, 0, &CorruptError{Section: section, Expected: int64(p), Actual: -1, Reason: "bad point index " + strconv.Quote(idx)}
		}
		for v := range vectors {
			text, ok := tok.next()
			if !ok {
				return Run{}, 0, &CorruptError{Section: section, Expected: int64(h.NumPoints), Actual: int64(p), Reason: "ASCII values end mid-point"}
			}
			re, im, err := parseASCIIValue(text, complexValues)
			if err != nil {
				return Run{}, 0, &CorruptError{Section: section, Expected: int64(p), Actual: -1, Reason: "bad value " + strconv.Quote(text)}
			}
			vectors[v].Real[p] = re
			if complexValues {
				vectors[v].Imag[p] = im
			}
		}
	}

	run, err := NewRun(vectors)
	return run, tok.off, err
}

func parseASCIIValue(text string, complexValues bool) (float64, float64, error) {
	if !complexValues {
		re, err := strconv.ParseFloat(text, 64)
		return re, 0, err
	}
	reText, imText, _ := strings.Cut(text, ",")
	re, err := strconv.ParseFloat(reText, 64)
	if err != nil {
		return 0, 0, err
	}
	var im float64
	if imText != "" {
		im, err = strconv.ParseFloat(imText, 64)
	}
	return re, im, err
}

func newVectors(h *Header) []Vector {
	kind := Real
	if h.IsComplex() {
		kind = Complex
	}
	vectors := make([]Vector, h.NumVariables)
	for i := range vectors {
		v := Vector{Kind: kind, Real: make([]float64, h.NumPoints)}
		if i < len(h.Variables) {
			v.Name = h.Variables[i].Name
			v.Unit = h.Variables[i].Unit
		}
		if kind == Complex {
			v.Imag = make([]float64, h.NumPoints)
		}
		vectors[i] = v
	}
	return vectors
}

// hasTitle reports whether b starts, after blank space, with a Title: line.
func hasTitle(b []byte) bool {
	b = bytes.TrimLeft(b, " \t\r\n")
	return len(b) >= 6 && strings.EqualFold(string(b[:6]), "title:")
}

type sectionReader struct {
	data []byte
	off  int
}

func (s *sectionReader) nextLine() (string, error) {
	if s.off >= len(s.data) {
		return "", io.EOF
	}
	i := bytes.IndexByte(s.data[s.off:], '\n')
	if i < 0 {
		line := string(s.data[s.off:])
		s.off = len(s.data)
		return line, nil
	}
	line := string(s.data[s.off : s.off+i+1])
	s.off += i + 1
	return line, nil
}

// preamble reads one preamble; a missing data marker is an error here
// because the data section is required.
func (s *sectionReader) preamble() (*Header, error) {
	h, err := readPreamble(s.nextLine)
	if errors.Is(err, errNoMarker) {
		return nil, &FieldError{Field: "Binary", Err: err}
	}
	return h, err
}

func (s *sectionReader) atTitle() bool {
	return s.off < len(s.data) && hasTitle(s.data[s.off:])
}

type tokenizer struct {
	data []byte
	off  int
}

func (t *tokenizer) next() (string, bool) {
	for t.off < len(t.data) && isSpace(t.data[t.off]) {
		t.off++
	}
	if t.off >= len(t.data) {
		return "", false
	}
	start := t.off
	for t.off < len(t.data) && !isSpace(t.data[t.off]) {
		t.off++
	}
	return string(t.data[start:t.off]), true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
