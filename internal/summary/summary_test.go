package summary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/doselog/internal/model"
)

func hms(h, m, s int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

func doseEvent(ts time.Time, substance string, mag float64, u, roa string) model.Event {
	return model.NewDoseEvent(ts, model.DoseEntry{
		Substance: substance,
		Amount:    model.Amount{Magnitude: mag, Unit: u},
		RoA:       roa,
	})
}

func TestMeanTimeOfDay(t *testing.T) {
	tests := []struct {
		name  string
		times []time.Duration
		want  time.Duration
	}{
		{"simple", []time.Duration{hms(0, 10, 0), hms(0, 20, 0)}, hms(0, 15, 0)},
		{"around midnight", []time.Duration{hms(23, 50, 0), hms(0, 10, 0)}, 0},
		{"late evenings", []time.Duration{hms(23, 0, 17), hms(23, 40, 20), hms(0, 12, 45), hms(0, 17, 19)}, hms(23, 47, 43)},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MeanTimeOfDay(tt.times))
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "23:47:43", FormatClock(hms(23, 47, 43)))
	assert.Equal(t, "00:00:00", FormatClock(0))
}

func TestSummarize(t *testing.T) {
	day := func(d, h, m int) time.Time { return time.Date(2020, 1, d, h, m, 0, 0, time.UTC) }
	events := []model.Event{
		doseEvent(day(1, 8, 0), "Caffeine", 100, "mg", "oral"),
		doseEvent(day(1, 14, 0), "caffeine", 50, "mg", "oral"),
		doseEvent(day(2, 2, 0), "Caffeine", 0.05, "g", ""), // before start of day: counts to Jan 1
		doseEvent(day(3, 9, 0), "Caffeine", 200, "mg", "oral"),
		doseEvent(day(3, 10, 0), "Water", 1, "l", ""),
		model.NewJournalEvent(day(3, 11, 0), "Caffeine"),
	}

	s, err := Summarize(events, "Caffeine", 4*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, s.Warnings)
	assert.Equal(t, 4, s.Doses)
	assert.Equal(t, 2, s.Days)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), s.FirstDay)
	assert.Equal(t, time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC), s.LastDay)

	assert.InDelta(t, 0.4, s.Total.Amount(), 1e-9)
	assert.Equal(t, "400mg", s.Total.AmountWithUnit())
	assert.InDelta(t, 0.2, s.AvgPerDay.Amount(), 1e-9)

	// first doses: 08:00 and 09:00; last doses: 02:00 and 09:00
	assert.Equal(t, hms(8, 30, 0), s.MeanFirstTime)
	assert.Equal(t, hms(5, 30, 0), s.MeanLastTime)

	require.NotNil(t, s.Min)
	assert.InDelta(t, 0.05, s.Min.Amount(), 1e-9)
	assert.InDelta(t, 0.075, s.Median.Amount(), 1e-9)
	assert.InDelta(t, 0.2, s.Max.Amount(), 1e-9)

	assert.Equal(t, []RoACount{{"oral", 3}, {"unknown", 1}}, s.RoAs)
}

func TestSummarizeOddMedian(t *testing.T) {
	ts := time.Date(2020, 1, 1, 8, 0, 0, 0, time.UTC)
	events := []model.Event{
		doseEvent(ts, "Melatonin", 3, "mg", ""),
		doseEvent(ts.Add(time.Hour), "Melatonin", 1, "mg", ""),
		doseEvent(ts.Add(2*time.Hour), "Melatonin", 0.5, "mg", ""),
	}
	s, err := Summarize(events, "melatonin", 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.001, s.Median.Amount(), 1e-12)
	assert.Equal(t, "4.5mg", s.Total.AmountWithUnit())
}

func TestSummarizeInconsistentUnits(t *testing.T) {
	ts := time.Date(2020, 1, 1, 8, 0, 0, 0, time.UTC)
	events := []model.Event{
		doseEvent(ts, "Coffee", 100, "mg", ""),
		doseEvent(ts.Add(time.Hour), "Coffee", 1, "cup", ""),
	}
	s, err := Summarize(events, "Coffee", 0)
	require.NoError(t, err)
	assert.Nil(t, s.Min)
	assert.Nil(t, s.Median)
	assert.Nil(t, s.Max)
	assert.Len(t, s.Warnings, 2)
	assert.Equal(t, "100mg", s.Total.AmountWithUnit())
}

func TestSummarizeUnknownAmount(t *testing.T) {
	ts := time.Date(2020, 1, 1, 8, 0, 0, 0, time.UTC)
	e := model.NewDoseEvent(ts, model.DoseEntry{Substance: "Tea", Amount: model.Amount{Unknown: true}})
	s, err := Summarize([]model.Event{e, doseEvent(ts.Add(time.Hour), "Tea", 2, "dl", "")}, "Tea", 0)
	require.NoError(t, err)
	assert.Empty(t, s.Warnings)
	assert.Equal(t, 2, s.Doses)
	assert.InDelta(t, 0.2, s.Total.Amount(), 1e-9)
}

func TestSummarizeNoDoses(t *testing.T) {
	_, err := Summarize([]model.Event{model.NewJournalEvent(time.Now(), "hi")}, "Caffeine", 0)
	assert.ErrorIs(t, err, ErrNoDoses)
}

func TestSubstances(t *testing.T) {
	ts := time.Date(2020, 1, 1, 8, 0, 0, 0, time.UTC)
	events := []model.Event{
		doseEvent(ts, "Caffeine", 1, "mg", ""),
		doseEvent(ts, "L-Theanine", 1, "mg", ""),
		doseEvent(ts, "caffeine", 1, "mg", ""),
	}
	assert.Equal(t, []string{"Caffeine", "L-Theanine"}, Substances(events))
}
