package unit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnit(t *testing.T) {
	cases := map[string]Unit{
		"g":       {Symbol: "g"},
		"mg":      {Prefix: "m", Symbol: "g"},
		"mcg":     {Prefix: "mc", Symbol: "g"},
		"ug":      {Prefix: "mc", Symbol: "g"},
		"μg":      {Prefix: "mc", Symbol: "g"},
		"dl":      {Prefix: "d", Symbol: "l"},
		"cl":      {Prefix: "c", Symbol: "l"},
		"L":       {Symbol: "l"},
		"ml":      {Prefix: "m", Symbol: "l"},
		"IU":      {Symbol: "IU"},
		"kIU":     {Prefix: "k", Symbol: "IU"},
		"MIU":     {Prefix: "M", Symbol: "IU"},
		"kg":      {Prefix: "k", Symbol: "g"},
		"cup":     {Symbol: "cup"},
		"x":       {Symbol: "x"},
		"B":       {Symbol: "B"},
		"serving": {Symbol: "serving"},
		"":        Dimensionless,
	}
	for in, want := range cases {
		got, err := ParseUnit(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseUnit_Unknown(t *testing.T) {
	for _, in := range []string{"m", "tbsp", "mx", "kcup", "Bananas", "Mg", "Ml", "kl", "mIU"} {
		_, err := ParseUnit(in)
		assert.True(t, errors.Is(err, ErrUnknownUnit), in)
	}
}

func TestMicroSpellingsNormalizeIdentically(t *testing.T) {
	var bases []float64
	for _, p := range []string{"u", "mc", "μ"} {
		q, err := ParseQuantity("100" + p + "g")
		require.NoError(t, err)
		bases = append(bases, q.Base())
	}
	assert.Equal(t, bases[0], bases[1])
	assert.Equal(t, bases[0], bases[2])
	assert.InDelta(t, 0.0001, bases[0], 1e-15)
}

func TestParseQuantity(t *testing.T) {
	q, err := ParseQuantity("1dl")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, q.Base(), 1e-12)
	assert.Equal(t, Volume, q.Dimension())

	q, err = ParseQuantity("1/2 cup")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, q.Base(), 1e-12)

	q, err = ParseQuantity("~5000 IU")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, q.Magnitude)
	assert.Equal(t, Count, q.Dimension())

	q, err = ParseQuantity("7B")
	require.NoError(t, err)
	assert.Equal(t, 7e9, q.Base())

	q, err = ParseQuantity("30")
	require.NoError(t, err)
	assert.Equal(t, Dimensionless, q.Unit)
}

func TestParseQuantity_Malformed(t *testing.T) {
	for _, in := range []string{"", "mg", "1.2.3mg", "1/0 x", ".5g"} {
		_, err := ParseQuantity(in)
		assert.Error(t, err, in)
	}
	_, err := ParseQuantity("1/0x")
	assert.True(t, errors.Is(err, ErrMalformedAmount))
}

func TestIn(t *testing.T) {
	q, err := Q(1, "dl").In(Unit{Prefix: "m", Symbol: "l"})
	require.NoError(t, err)
	assert.InDelta(t, 100, q.Magnitude, 1e-9)

	_, err = Q(1, "mg").In(Unit{Symbol: "l"})
	assert.Error(t, err)
}

func TestCompactFormatting(t *testing.T) {
	cases := []struct {
		q    Quantity
		want string
	}{
		{Q(0.0015, "g"), "1.5mg"},
		{Q(0.1, "g"), "100mg"},
		{Q(100, "mcg"), "100mcg"},
		{Q(500, "mcg"), "500mcg"},
		{Q(1500, "mcg"), "1.5mg"},
		{Q(5000, "IU"), "5kIU"},
		{Q(400, "IU"), "400IU"},
		{Q(10, "x"), "10x"},
		{Q(7, "B"), "7B"},
		{Q(7e9, "x"), "7B"},
		{Q(0.5, "B"), "500000000x"},
		{Q(133, "cl"), "1.33l"},
		{Q(5, "dl"), "500ml"},
		{Q(2, "cup"), "2cup"},
		{Q(0, "mg"), "0mg"},
		{Q(1.0, "g"), "1g"},
		{Q(2500, "g"), "2.5kg"},
		{Q(30, ""), "30"},
		{Q(0.9999996, "g"), "1g"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.q.String(), "%v %s", c.q.Magnitude, c.q.Unit)
	}
}

func TestFormatMagnitude(t *testing.T) {
	assert.Equal(t, "1.5", FormatMagnitude(1.5))
	assert.Equal(t, "100", FormatMagnitude(100.0))
	assert.Equal(t, "0.333", FormatMagnitude(1.0/3))
	assert.Equal(t, "0", FormatMagnitude(-0.0))
}
