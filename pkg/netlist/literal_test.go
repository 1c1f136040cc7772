package netlist

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1k", 1e3},
		{"2.5MEG", 2.5e6},
		{"2.5meg", 2.5e6},
		{"10n", 10e-9},
		{"1meg", 1e6},
		{"1m", 1e-3},
		{"1M", 1e-3},
		{"4.7u", 4.7e-6},
		{"100p", 100e-12},
		{"3f", 3e-15},
		{"2g", 2e9},
		{"1t", 1e12},
		{"10mil", 254e-6},
		{" 47K ", 47e3},
		{"1e-9", 1e-9},
		{"-5", -5},
		{"0.5", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLiteral(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, math.Abs(tt.want)*1e-12)
		})
	}
}

func TestParseLiteral_LongestSuffixWins(t *testing.T) {
	v, err := ParseLiteral("1meg")
	require.NoError(t, err)
	assert.Equal(t, 1e6, v, "meg must not be read as milli")
}

func TestParseLiteral_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "k", "1.2.3", "10uF", "meg"} {
		_, err := ParseLiteral(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrInvalidLiteral), in)

		var le *LiteralError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, in, le.Token)
	}
}

func TestFormatLiteral_RoundTrip(t *testing.T) {
	for _, x := range []float64{1, 1e3, 2.2e3, 4.7e-6, 1e6, 3.3e6, 15e-12, 1.59155e4, -2.5e-3, 0, 123.456, 7e9, 1e-15} {
		text := FormatLiteral(x)
		back, err := ParseLiteral(text)
		require.NoError(t, err, text)
		assert.InDelta(t, x, back, math.Abs(x)*1e-12, "%g -> %s", x, text)
	}
}

func TestFormatLiteral_UsesSuffix(t *testing.T) {
	assert.Equal(t, "1k", FormatLiteral(1e3))
	assert.Equal(t, "1meg", FormatLiteral(1e6))
	assert.Equal(t, "1n", FormatLiteral(1e-9))
	assert.Equal(t, "123.5", FormatLiteral(123.5))
	assert.Equal(t, "0", FormatLiteral(0))
}

func TestFormatLiteral_ShortMantissa(t *testing.T) {
	tests := []struct {
		x    float64
		want string
	}{
		{-4.7e-9, "-4.7n"},
		{4.7e-9, "4.7n"},
		{3.3e-6, "3.3u"},
		{0.1e-6, "100n"},
		{2.2e3, "2.2k"},
		{1.59155e4, "15.9155k"},
	}
	for _, tt := range tests {
		got := FormatLiteral(tt.x)
		assert.Equal(t, tt.want, got)
		back, err := ParseLiteral(got)
		require.NoError(t, err)
		assert.Equal(t, tt.x, back, got)
	}
}

func TestParseLiteral_MatchesExponentForm(t *testing.T) {
	for _, tok := range []string{"4.7n", "3.3u", "-4.7n", "2.2k", "1.5meg"} {
		v, err := ParseLiteral(tok)
		require.NoError(t, err)
		assert.Equal(t, tok, FormatLiteral(v))
	}
	v, err := ParseLiteral("4.7n")
	require.NoError(t, err)
	assert.Equal(t, 4.7e-9, v)
}

func TestSuffixTable_Order(t *testing.T) {
	entries := DefaultSuffixes.Entries()
	require.NotEmpty(t, entries)
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, len(entries[i-1].Name), len(entries[i].Name))
	}
	assert.Equal(t, "meg", entries[0].Name)
}

func TestLiteralParser_CustomTable(t *testing.T) {
	p := NewLiteralParser(NewSuffixTable(Suffix{Name: "X", Multiplier: 10}))
	v, err := p.Parse("3x")
	require.NoError(t, err)
	assert.Equal(t, 30.0, v)

	_, err = p.Parse("3k")
	assert.Error(t, err)
}
