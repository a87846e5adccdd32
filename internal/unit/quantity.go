package unit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// formatDecimals is the number of decimals kept when formatting.
const formatDecimals = 3

// Quantity is a magnitude expressed in a unit.
type Quantity struct {
	Magnitude float64
	Unit      Unit
}

// Q builds a quantity, panicking on an unknown unit. Meant for literals in tests
// and tables.
func Q(magnitude float64, unit string) Quantity {
	u, err := ParseUnit(unit)
	if err != nil {
		panic(err)
	}
	return Quantity{Magnitude: magnitude, Unit: u}
}

// ParseQuantity parses text such as "100mg", "100 mcg", "1/2 cup" or "5000 IU".
// A leading "~" (approximate) is accepted and ignored.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "~")
	end := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != '/'
	})
	if end < 0 {
		end = len(s)
	}
	mag, err := ParseMagnitude(s[:end])
	if err != nil {
		return Quantity{}, err
	}
	u, err := ParseUnit(strings.TrimSpace(s[end:]))
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Magnitude: mag, Unit: u}, nil
}

// Dimension reports the dimension of the quantity's unit.
func (q Quantity) Dimension() Dimension { return q.Unit.Dimension() }

// Base returns the magnitude normalized to the dimension's base unit
// (g, l or x).
func (q Quantity) Base() float64 { return q.Magnitude * q.Unit.factor() }

// IsZero reports whether the magnitude is exactly zero.
func (q Quantity) IsZero() bool { return q.Magnitude == 0 }

// Scale multiplies the magnitude, keeping the unit.
func (q Quantity) Scale(f float64) Quantity {
	return Quantity{Magnitude: q.Magnitude * f, Unit: q.Unit}
}

// In converts q into u. Both must share a dimension.
func (q Quantity) In(u Unit) (Quantity, error) {
	if q.Dimension() != u.Dimension() {
		return Quantity{}, fmt.Errorf("cannot convert %s (%s) to %s (%s)", q.Unit, q.Dimension(), u, u.Dimension())
	}
	return Quantity{Magnitude: q.Base() / u.factor(), Unit: u}, nil
}

// Compact re-expresses q so its magnitude falls in [1, 1000) when the unit
// allows a prefix. Count units without prefixes are kept as written, except
// that x and B switch between each other around 1e9.
func (q Quantity) Compact() Quantity {
	if q.Magnitude == 0 || math.IsNaN(q.Magnitude) || math.IsInf(q.Magnitude, 0) {
		return q
	}
	b := units[q.Unit.Symbol]
	switch {
	case len(b.prefixes) > 0:
		return q.compactPrefix(b.display)
	case q.Unit.Symbol == "x" && math.Abs(q.Base()) >= 1e9:
		c, _ := q.In(Unit{Symbol: "B"})
		return c
	case q.Unit.Symbol == "B" && math.Abs(q.Magnitude) < 1:
		c, _ := q.In(Unit{Symbol: "x"})
		return c
	}
	return q
}

func (q Quantity) compactPrefix(display []string) Quantity {
	plain := q.Magnitude * math.Pow10(prefixExp[q.Unit.Prefix])
	abs := math.Abs(plain)

	i := 0
	for j, p := range display {
		if abs/math.Pow10(prefixExp[p]) >= 1 {
			i = j
		}
	}
	v := plain / math.Pow10(prefixExp[display[i]])
	// rounding can push 999.9996 to 1000
	if math.Abs(round(v)) >= 1000 && i+1 < len(display) {
		i++
		v = plain / math.Pow10(prefixExp[display[i]])
	}
	return Quantity{Magnitude: v, Unit: Unit{Prefix: display[i], Symbol: q.Unit.Symbol}}
}

// String formats the compact form, e.g. "1.5mg", "5kIU", "7B".
func (q Quantity) String() string {
	c := q.Compact()
	return FormatMagnitude(c.Magnitude) + c.Unit.String()
}

// FormatMagnitude rounds to a fixed number of decimals and drops trailing zeros.
func FormatMagnitude(v float64) string {
	v = round(v)
	if v == 0 {
		v = 0 // normalizes -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round(v float64) float64 {
	p := math.Pow10(formatDecimals)
	return math.Round(v*p) / p
}
