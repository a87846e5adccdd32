package tagging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/doselog/internal/model"
)

func doseAt(day, hour int, substance string) model.Event {
	ts := time.Date(2020, 1, day, hour, 0, 0, 0, time.UTC)
	return model.NewDoseEvent(ts, model.DoseEntry{
		Substance: substance,
		Amount:    model.Amount{Magnitude: 1, Unit: "x"},
	})
}

func TestApplyAliases(t *testing.T) {
	in := []model.Event{doseAt(1, 8, "caf"), doseAt(1, 9, "Tea")}
	out := ApplyAliases(in, map[string]string{"CAF": "Caffeine"})
	require.Len(t, out, 2)
	assert.Equal(t, "Caffeine", out[0].Substance())
	assert.Equal(t, "Tea", out[1].Substance())
	assert.Equal(t, "caf", in[0].Substance(), "input must not change")
}

func TestApplyAliasesSkipsJournal(t *testing.T) {
	note := model.NewJournalEvent(time.Now(), "caf")
	out := ApplyAliases([]model.Event{note}, map[string]string{"caf": "Caffeine"})
	assert.Equal(t, "caf", out[0].Journal.Text)
}

func TestApplyCategories(t *testing.T) {
	in := []model.Event{doseAt(1, 8, "Caffeine"), doseAt(1, 9, "Water")}
	out := ApplyCategories(in, map[string][]string{
		"stimulant": {"caffeine", "Modafinil"},
		"common":    {"Caffeine"},
	})
	assert.Equal(t, []string{"common", "stimulant"}, out[0].Tags())
	assert.Empty(t, out[1].Tags())
	assert.Empty(t, in[0].Tags())
}

func TestFilter(t *testing.T) {
	events := ApplyCategories([]model.Event{
		doseAt(1, 8, "Caffeine"),
		doseAt(2, 8, "Modafinil"),
		doseAt(3, 8, "Water"),
		model.NewJournalEvent(time.Date(2020, 1, 2, 9, 0, 0, 0, time.UTC), "Caffeine"),
	}, map[string][]string{"stimulant": {"Caffeine", "Modafinil"}})

	f := Filter{Start: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)}
	assert.Len(t, f.Apply(events), 3)

	f = Filter{End: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)}
	assert.Len(t, f.Apply(events), 1)

	f = Filter{Substances: []string{"caffeine"}}
	got := f.Apply(events)
	require.Len(t, got, 1)
	assert.Equal(t, model.KindDose, got[0].Kind)

	f = Filter{Substances: []string{"#Stimulant", "water"}}
	assert.Len(t, f.Apply(events), 3)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Caffeine", "#stimulant"}, SplitList(" Caffeine, ,#stimulant"))
	assert.Nil(t, SplitList(""))
}

func TestCountSubstances(t *testing.T) {
	events := []model.Event{
		doseAt(1, 8, "Caffeine"),
		doseAt(1, 12, "Caffeine"),
		doseAt(2, 8, "Caffeine"),
		doseAt(1, 8, "Water"),
		doseAt(2, 8, "Water"),
		model.NewJournalEvent(time.Now(), "note"),
	}
	assert.Equal(t, []SubstanceCount{{"Caffeine", 3}, {"Water", 2}}, CountSubstances(events, false))
	assert.Equal(t, []SubstanceCount{{"Caffeine", 2}, {"Water", 2}}, CountSubstances(events, true))
}
