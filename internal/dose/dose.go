// Package dose implements unit-aware arithmetic on substance doses.
package dose

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rcliao/doselog/internal/model"
	"github.com/rcliao/doselog/internal/unit"
)

// epsilon is the relative tolerance used by Equal.
const epsilon = 1e-12

var (
	// ErrDimensionMismatch is returned when doses with incompatible units are
	// added or compared and neither is zero.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrSubstanceMismatch is returned when adding doses of different substances.
	ErrSubstanceMismatch = errors.New("substance mismatch")
	// ErrDivideByZero is returned by Div for a zero divisor.
	ErrDivideByZero = errors.New("division by zero")
)

// DimensionMismatchError carries the two operands of a failed operation.
type DimensionMismatchError struct {
	Op   string
	A, B Dose
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("cannot %s doses with different units: %s (%s) and %s (%s)",
		e.Op, e.A.Quantity.Unit, e.A.Quantity.Dimension(), e.B.Quantity.Unit, e.B.Quantity.Dimension())
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// Dose is an amount of a substance.
type Dose struct {
	Substance string
	Quantity  unit.Quantity
}

// New parses amount text such as "100mg" or "1/2 cup".
func New(substance, amount string) (Dose, error) {
	q, err := unit.ParseQuantity(amount)
	if err != nil {
		return Dose{}, fmt.Errorf("dose of %s: %w", substance, err)
	}
	return Dose{Substance: substance, Quantity: q}, nil
}

// MustNew is New for literals; it panics on error.
func MustNew(substance, amount string) Dose {
	d, err := New(substance, amount)
	if err != nil {
		panic(err)
	}
	return d
}

// FromQuantity wraps an already parsed quantity.
func FromQuantity(substance string, q unit.Quantity) Dose {
	return Dose{Substance: substance, Quantity: q}
}

// FromEntry builds a Dose from a parsed dose payload. An unknown amount ("?")
// becomes zero in the written unit.
func FromEntry(e model.DoseEntry) (Dose, error) {
	u, err := unit.ParseUnit(e.Amount.Unit)
	if err != nil {
		return Dose{}, fmt.Errorf("dose of %s: %w", e.Substance, err)
	}
	mag := e.Amount.Magnitude
	if e.Amount.Unknown {
		mag = 0
	}
	return Dose{Substance: e.Substance, Quantity: unit.Quantity{Magnitude: mag, Unit: u}}, nil
}

// FromEvent builds a Dose from a dose event.
func FromEvent(e model.Event) (Dose, error) {
	if e.Kind != model.KindDose || e.Dose == nil {
		return Dose{}, fmt.Errorf("event at %s is not a dose", e.Timestamp.Format(model.TimestampLayout))
	}
	return FromEntry(*e.Dose)
}

// Amount returns the magnitude in the dimension's base unit (g, l or x).
func (d Dose) Amount() float64 { return d.Quantity.Base() }

// IsZero reports whether the magnitude is exactly zero.
func (d Dose) IsZero() bool { return d.Quantity.IsZero() }

// AmountWithUnit formats the amount compactly, e.g. "1.5mg".
func (d Dose) AmountWithUnit() string { return d.Quantity.String() }

func (d Dose) String() string {
	return strings.TrimSpace(d.AmountWithUnit() + " " + d.Substance)
}

func sameSubstance(a, b string) bool { return strings.EqualFold(a, b) }

// Add sums two doses of the same substance. When dimensions differ the sum is
// only defined if one side is zero, in which case the other side is returned.
func (d Dose) Add(o Dose) (Dose, error) {
	if !sameSubstance(d.Substance, o.Substance) {
		return Dose{}, fmt.Errorf("%w: %q and %q", ErrSubstanceMismatch, d.Substance, o.Substance)
	}
	if d.Quantity.Dimension() != o.Quantity.Dimension() {
		switch {
		case d.IsZero():
			return o, nil
		case o.IsZero():
			return d, nil
		}
		return Dose{}, &DimensionMismatchError{Op: "add", A: d, B: o}
	}
	sum, err := unit.Quantity{Magnitude: d.Amount() + o.Amount(), Unit: unit.Unit{Symbol: baseSymbol(d)}}.In(d.Quantity.Unit)
	if err != nil {
		return Dose{}, err
	}
	return Dose{Substance: d.Substance, Quantity: sum}, nil
}

func baseSymbol(d Dose) string {
	switch d.Quantity.Dimension() {
	case unit.Mass:
		return "g"
	case unit.Volume:
		return "l"
	default:
		return "x"
	}
}

// Div scales the dose down by n, keeping the unit.
func (d Dose) Div(n float64) (Dose, error) {
	if n == 0 {
		return Dose{}, fmt.Errorf("divide %s: %w", d, ErrDivideByZero)
	}
	return Dose{Substance: d.Substance, Quantity: d.Quantity.Scale(1 / n)}, nil
}

// Compare returns -1, 0 or +1. Doses of different dimensions compare only
// when one of them is zero.
func (d Dose) Compare(o Dose) (int, error) {
	if d.Quantity.Dimension() != o.Quantity.Dimension() && !d.IsZero() && !o.IsZero() {
		return 0, &DimensionMismatchError{Op: "compare", A: d, B: o}
	}
	a, b := d.Amount(), o.Amount()
	switch {
	case closeEnough(a, b):
		return 0, nil
	case a < b:
		return -1, nil
	default:
		return 1, nil
	}
}

// Less reports whether d is strictly smaller than o.
func (d Dose) Less(o Dose) (bool, error) {
	c, err := d.Compare(o)
	return c < 0, err
}

// Equal reports whether both doses are of the same substance and amount,
// within a relative tolerance. Incompatible doses are never equal.
func (d Dose) Equal(o Dose) bool {
	if !sameSubstance(d.Substance, o.Substance) {
		return false
	}
	c, err := d.Compare(o)
	return err == nil && c == 0
}

func closeEnough(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= epsilon*math.Max(math.Abs(a), math.Abs(b))
}

// Sum adds up doses left to right. An empty slice yields a zero dose.
func Sum(substance string, doses []Dose) (Dose, error) {
	acc := Dose{Substance: substance, Quantity: unit.Quantity{}}
	for _, d := range doses {
		next, err := acc.Add(d)
		if err != nil {
			return acc, err
		}
		acc = next
	}
	return acc, nil
}
