package dose

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/doselog/internal/model"
)

func TestString(t *testing.T) {
	cases := []struct {
		substance, amount, want string
	}{
		{"Caffeine", "0.1g", "100mg Caffeine"},
		{"Caffeine", "100mg", "100mg Caffeine"},
		{"Vitamin D", "5000 IU", "5kIU Vitamin D"},
		{"L. reuteri", "7B", "7B L. reuteri"},
		{"Creatine", "10x", "10x Creatine"},
		{"B12", "100mcg", "100mcg B12"},
		{"B12", "100ug", "100mcg B12"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MustNew(c.substance, c.amount).String())
	}
}

func TestAdd(t *testing.T) {
	cases := []struct {
		a, b, want string
	}{
		{"33cl", "1l", "1.33l"},
		{"100mg", "0.1g", "200mg"},
		{"1/2 cup", "1dl", "2dl"},
		{"500mcg", "500ug", "1mg"},
		{"2B", "500000000x", "2.5B"},
	}
	for _, c := range cases {
		sum, err := MustNew("Water", c.a).Add(MustNew("Water", c.b))
		require.NoError(t, err)
		assert.True(t, sum.Equal(MustNew("Water", c.want)), "%s + %s = %s", c.a, c.b, sum)
	}
}

func TestAddKeepsLeftUnit(t *testing.T) {
	sum, err := MustNew("Caffeine", "100mg").Add(MustNew("Caffeine", "1g"))
	require.NoError(t, err)
	assert.Equal(t, "mg", sum.Quantity.Unit.String())
	assert.InDelta(t, 1100, sum.Quantity.Magnitude, 1e-9)
	assert.Equal(t, "1.1g Caffeine", sum.String())
}

func TestAddCommutativeAndAssociative(t *testing.T) {
	a := MustNew("Caffeine", "50mg")
	b := MustNew("Caffeine", "0.2g")
	c := MustNew("Caffeine", "1500mcg")

	ab, err := a.Add(b)
	require.NoError(t, err)
	ba, err := b.Add(a)
	require.NoError(t, err)
	assert.True(t, ab.Equal(ba))

	abc1, err := ab.Add(c)
	require.NoError(t, err)
	bc, err := b.Add(c)
	require.NoError(t, err)
	abc2, err := a.Add(bc)
	require.NoError(t, err)
	assert.True(t, abc1.Equal(abc2))
}

func TestAddZeroShortcut(t *testing.T) {
	zero := MustNew("Caffeine", "0x")
	five := MustNew("Caffeine", "5mg")

	sum, err := zero.Add(five)
	require.NoError(t, err)
	assert.True(t, sum.Equal(five))

	sum, err = five.Add(zero)
	require.NoError(t, err)
	assert.True(t, sum.Equal(five))
}

func TestAddDimensionMismatch(t *testing.T) {
	_, err := MustNew("Coffee", "5mg").Add(MustNew("Coffee", "5ml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	var dm *DimensionMismatchError
	require.True(t, errors.As(err, &dm))
	assert.Equal(t, "add", dm.Op)
}

func TestAddSubstanceMismatch(t *testing.T) {
	_, err := MustNew("Caffeine", "5mg").Add(MustNew("L-Theanine", "5mg"))
	assert.True(t, errors.Is(err, ErrSubstanceMismatch))

	sum, err := MustNew("caffeine", "5mg").Add(MustNew("Caffeine", "5mg"))
	require.NoError(t, err)
	assert.Equal(t, "caffeine", sum.Substance)
}

func TestCompare(t *testing.T) {
	less, err := MustNew("Caffeine", "50mg").Less(MustNew("Caffeine", "0.1g"))
	require.NoError(t, err)
	assert.True(t, less)

	c, err := MustNew("Caffeine", "100mg").Compare(MustNew("Caffeine", "0.1g"))
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	_, err = MustNew("Caffeine", "1mg").Compare(MustNew("Caffeine", "1ml"))
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	c, err = MustNew("Caffeine", "0x").Compare(MustNew("Caffeine", "1ml"))
	require.NoError(t, err)
	assert.Equal(t, -1, c)
}

func TestEqual(t *testing.T) {
	assert.True(t, MustNew("Caffeine", "100mg").Equal(MustNew("caffeine", "0.1g")))
	assert.False(t, MustNew("Caffeine", "100mg").Equal(MustNew("Theanine", "100mg")))
	assert.False(t, MustNew("Caffeine", "100mg").Equal(MustNew("Caffeine", "100ml")))
}

func TestDiv(t *testing.T) {
	d, err := MustNew("Caffeine", "300mg").Div(3)
	require.NoError(t, err)
	assert.Equal(t, "100mg Caffeine", d.String())

	_, err = MustNew("Caffeine", "300mg").Div(0)
	assert.ErrorIs(t, err, ErrDivideByZero)
}

func TestSum(t *testing.T) {
	total, err := Sum("Caffeine", []Dose{
		MustNew("Caffeine", "100mg"),
		MustNew("Caffeine", "50mg"),
		MustNew("Caffeine", "0.05g"),
	})
	require.NoError(t, err)
	assert.Equal(t, "200mg Caffeine", total.String())

	empty, err := Sum("Caffeine", nil)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestFromEntry(t *testing.T) {
	d, err := FromEntry(model.DoseEntry{
		Substance: "Caffeine",
		Amount:    model.Amount{Magnitude: 100, Unit: "mg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "100mg Caffeine", d.String())

	d, err = FromEntry(model.DoseEntry{
		Substance: "Coffee",
		Amount:    model.Amount{Unit: "ml", Unknown: true},
	})
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = FromEntry(model.DoseEntry{Substance: "Tea", Amount: model.Amount{Magnitude: 1, Unit: "tbsp"}})
	assert.Error(t, err)
}

func TestNewMalformed(t *testing.T) {
	_, err := New("Caffeine", "lots")
	assert.Error(t, err)
}
