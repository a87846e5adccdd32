// Package unit implements the physical-quantity model used for doses:
// dimensions, SI-style prefixes, count units, parsing and compact formatting.
package unit

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrUnknownUnit is returned when a unit string matches no known unit.
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrMalformedAmount is returned when a magnitude cannot be parsed.
	ErrMalformedAmount = errors.New("malformed amount")
)

// Dimension groups units that can be converted into each other.
type Dimension int

const (
	Count Dimension = iota
	Mass
	Volume
)

func (d Dimension) String() string {
	switch d {
	case Mass:
		return "mass"
	case Volume:
		return "volume"
	default:
		return "count"
	}
}

// prefixAliases maps every accepted spelling to its canonical symbol.
// The micro prefix has three spellings: u, mc and μ.
var prefixAliases = map[string]string{
	"n":  "n",
	"u":  "mc",
	"mc": "mc",
	"μ":  "mc",
	"m":  "m",
	"c":  "c",
	"d":  "d",
	"k":  "k",
	"M":  "M",
}

var prefixExp = map[string]int{
	"":   0,
	"n":  -9,
	"mc": -6,
	"m":  -3,
	"c":  -2,
	"d":  -1,
	"k":  3,
	"M":  6,
}

// prefixSpellings is ordered longest first so "mc" wins over "m".
var prefixSpellings = func() []string {
	out := make([]string, 0, len(prefixAliases))
	for p := range prefixAliases {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}()

type baseUnit struct {
	dim        Dimension
	scale      float64  // factor to the dimension's base unit
	prefixes []string // canonical prefixes accepted when parsing
	display  []string // prefixes considered for compact display, ascending
}

// Upper-case M is left out of mass and volume so "Mg" stays a word.
var (
	massPrefixes   = []string{"n", "mc", "m", "c", "d", "k"}
	volumePrefixes = []string{"n", "mc", "m", "c", "d"}
	massDisplay    = []string{"n", "mc", "m", "", "k"}
)

func (b baseUnit) accepts(prefix string) bool {
	for _, p := range b.prefixes {
		if p == prefix {
			return true
		}
	}
	return false
}

var units = map[string]baseUnit{
	"g":       {dim: Mass, scale: 1, prefixes: massPrefixes, display: massDisplay},
	"l":       {dim: Volume, scale: 1, prefixes: volumePrefixes, display: []string{"mc", "m", ""}},
	"cup":     {dim: Volume, scale: 0.2},
	"":        {dim: Count, scale: 1},
	"x":       {dim: Count, scale: 1},
	"IU":      {dim: Count, scale: 1, prefixes: []string{"k", "M"}, display: []string{"", "k", "M"}},
	"CFU":     {dim: Count, scale: 1},
	"GDU":     {dim: Count, scale: 1},
	"serving": {dim: Count, scale: 1},
	"puff":    {dim: Count, scale: 1},
	"puffs":   {dim: Count, scale: 1},
	"B":       {dim: Count, scale: 1e9},
}

// symbolAliases canonicalizes alternative spellings of base units.
var symbolAliases = map[string]string{
	"L": "l",
}

// Unit is a base or bare unit with an optional canonical prefix.
type Unit struct {
	Prefix string
	Symbol string
}

// Dimensionless is the unit of a bare number.
var Dimensionless = Unit{}

func (u Unit) String() string { return u.Prefix + u.Symbol }

// Dimension reports the dimension the unit belongs to.
func (u Unit) Dimension() Dimension { return units[u.Symbol].dim }

// factor converts one of u into the dimension's base unit.
func (u Unit) factor() float64 {
	return math.Pow10(prefixExp[u.Prefix]) * units[u.Symbol].scale
}

// IsUnit reports whether s names a known unit.
func IsUnit(s string) bool {
	_, err := ParseUnit(s)
	return err == nil
}

// ParseUnit parses a unit such as "mg", "mcg", "μg", "dl", "IU" or "cup".
// The empty string is the dimensionless count unit.
func ParseUnit(s string) (Unit, error) {
	if sym, ok := canonicalSymbol(s); ok {
		return Unit{Symbol: sym}, nil
	}
	for _, p := range prefixSpellings {
		if !strings.HasPrefix(s, p) {
			continue
		}
		sym, ok := canonicalSymbol(s[len(p):])
		if ok && sym != "" && units[sym].accepts(prefixAliases[p]) {
			return Unit{Prefix: prefixAliases[p], Symbol: sym}, nil
		}
	}
	return Unit{}, fmt.Errorf("%w: %q", ErrUnknownUnit, s)
}

func canonicalSymbol(s string) (string, bool) {
	if alias, ok := symbolAliases[s]; ok {
		s = alias
	}
	_, ok := units[s]
	return s, ok
}

// ParseMagnitude parses a non-negative decimal number or a fraction "a/b".
func ParseMagnitude(s string) (float64, error) {
	num, den, isFraction := strings.Cut(s, "/")
	n, err := parseDecimal(num)
	if err != nil || !isFraction {
		return n, err
	}
	d, err := parseDecimal(den)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("%w: zero denominator in %q", ErrMalformedAmount, s)
	}
	return n / d, nil
}

func parseDecimal(s string) (float64, error) {
	if s == "" || s[0] == '.' || strings.Count(s, ".") > 1 || strings.Trim(s, "0123456789.") != "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	return v, nil
}
