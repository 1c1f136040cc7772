package netlist

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var ErrInvalidLiteral = errors.New("invalid numeric literal")

// LiteralError reports the token that failed to parse.
type LiteralError struct {
	Token string
	Err   error
}

func (e *LiteralError) Error() string {
	return fmt.Sprintf("invalid value format: %q", e.Token)
}

func (e *LiteralError) Unwrap() error { return ErrInvalidLiteral }

// Suffix is one engineering scale factor, matched case-insensitively.
type Suffix struct {
	Name       string
	Multiplier float64
}

// SuffixTable is an immutable set of scale suffixes ordered longest first.
type SuffixTable struct {
	entries []Suffix
}

// NewSuffixTable orders the suffixes so that longer ones are tested first
// ("meg" before "m", "mil" before "m").
func NewSuffixTable(suffixes ...Suffix) SuffixTable {
	entries := make([]Suffix, len(suffixes))
	for i, s := range suffixes {
		entries[i] = Suffix{Name: strings.ToLower(s.Name), Multiplier: s.Multiplier}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if len(entries[i].Name) != len(entries[j].Name) {
			return len(entries[i].Name) > len(entries[j].Name)
		}
		return entries[i].Name < entries[j].Name
	})
	return SuffixTable{entries: entries}
}

// Entries returns a copy of the ordered table.
func (t SuffixTable) Entries() []Suffix {
	out := make([]Suffix, len(t.entries))
	copy(out, t.entries)
	return out
}

var DefaultSuffixes = NewSuffixTable(
	Suffix{"t", 1e12},  // tera
	Suffix{"g", 1e9},   // giga
	Suffix{"meg", 1e6}, // mega
	Suffix{"k", 1e3},   // kilo
	Suffix{"mil", 25.4e-6},
	Suffix{"m", 1e-3},  // milli
	Suffix{"u", 1e-6},  // micro
	Suffix{"n", 1e-9},  // nano
	Suffix{"p", 1e-12}, // pico
	Suffix{"f", 1e-15}, // femto
)

// LiteralParser converts SPICE magnitude tokens using its suffix table.
type LiteralParser struct {
	Suffixes SuffixTable
}

func NewLiteralParser(table SuffixTable) LiteralParser {
	return LiteralParser{Suffixes: table}
}

// Parse converts tokens such as "1k", "2.5MEG" or "10n".
func (p LiteralParser) Parse(token string) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(token))
	if s == "" {
		return 0, &LiteralError{Token: token}
	}

	for _, suf := range p.Suffixes.entries {
		if !strings.HasSuffix(s, suf.Name) {
			continue
		}
		mant := s[:len(s)-len(suf.Name)]
		num, err := strconv.ParseFloat(mant, 64)
		if err != nil {
			return 0, &LiteralError{Token: token, Err: err}
		}
		// Shifting the exponent rounds once, so "4.7n" equals 4.7e-9.
		if exp, ok := powerOfTen(suf.Multiplier); ok && !strings.ContainsAny(mant, "einx") {
			if v, err := strconv.ParseFloat(mant+"e"+strconv.Itoa(exp), 64); err == nil {
				return v, nil
			}
		}
		return num * suf.Multiplier, nil
	}

	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &LiteralError{Token: token, Err: err}
	}
	return num, nil
}

// Format renders x with the largest power-of-1000 suffix that keeps the
// mantissa at or above one. Parse(Format(x)) returns x.
func (p LiteralParser) Format(x float64) string {
	if x == 0 || math.IsInf(x, 0) || math.IsNaN(x) {
		return strconv.FormatFloat(x, 'g', -1, 64)
	}

	abs := math.Abs(x)
	best := Suffix{}
	if abs >= 1 {
		best.Multiplier = 1
	}
	for _, suf := range p.Suffixes.entries {
		if !isDecade(suf.Multiplier) {
			continue
		}
		if abs >= suf.Multiplier && suf.Multiplier > best.Multiplier {
			best = suf
		}
	}
	if best.Multiplier == 0 || best.Multiplier == 1 {
		return strconv.FormatFloat(x, 'g', -1, 64)
	}

	mantissa := x / best.Multiplier
	// Division can lose the last ulp, so 15 digits usually reads better than
	// the shortest form. Either is kept only if Parse gives x back.
	for _, prec := range []int{15, -1} {
		text := strconv.FormatFloat(mantissa, 'g', prec, 64) + best.Name
		if back, err := p.Parse(text); err == nil && back == x {
			return text
		}
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func isDecade(m float64) bool {
	e, ok := powerOfTen(m)
	return ok && e%3 == 0
}

func powerOfTen(m float64) (int, bool) {
	if m <= 0 {
		return 0, false
	}
	e := int(math.Round(math.Log10(m)))
	return e, math.Pow10(e) == m
}

var defaultLiteralParser = NewLiteralParser(DefaultSuffixes)

// ParseLiteral parses with the default suffix table.
func ParseLiteral(token string) (float64, error) {
	return defaultLiteralParser.Parse(token)
}

// FormatLiteral renders with the default suffix table.
func FormatLiteral(x float64) string {
	return defaultLiteralParser.Format(x)
}
