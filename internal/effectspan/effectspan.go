// Package effectspan merges dose timestamps into the time windows during which
// a substance is modeled as active, using a fixed duration per substance.
package effectspan

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rcliao/doselog/internal/dose"
)

// Durations maps a substance to how long one dose of it stays active.
type Durations map[string]time.Duration

// Lookup finds the duration for substance, trying the exact key first and
// then a case-insensitive match.
func (d Durations) Lookup(substance string) (time.Duration, bool) {
	if v, ok := d[substance]; ok {
		return v, true
	}
	for k, v := range d {
		if strings.EqualFold(k, substance) {
			return v, true
		}
	}
	return 0, false
}

// Pair is a dose taken at a point in time.
type Pair struct {
	Time time.Time
	Dose dose.Dose
}

// Span is a continuous active window [Start, Start+Duration).
type Span struct {
	Substance string
	Start     time.Time
	Duration  time.Duration
	Doses     []dose.Dose
}

// End is the exclusive end of the span.
func (s Span) End() time.Time { return s.Start.Add(s.Duration) }

// Warning reports a substance group that was skipped.
type Warning struct {
	Substance string
	Message   string
}

func (w Warning) String() string { return fmt.Sprintf("%s: %s", w.Substance, w.Message) }

// Aggregate groups pairs by substance and merges each group into spans. A new
// dose that falls strictly before the end of the current span extends it to
// the new dose's own end. Groups without a positive duration are skipped with
// a warning. Groups are emitted in order of first appearance.
func Aggregate(pairs []Pair, durations Durations) ([]Span, []Warning) {
	var order []string
	groups := make(map[string][]Pair)
	for _, p := range pairs {
		s := p.Dose.Substance
		if _, ok := groups[s]; !ok {
			order = append(order, s)
		}
		groups[s] = append(groups[s], p)
	}

	var (
		spans    []Span
		warnings []Warning
	)
	for _, substance := range order {
		d, ok := durations.Lookup(substance)
		switch {
		case !ok:
			warnings = append(warnings, Warning{Substance: substance, Message: "no effect duration configured"})
			continue
		case d <= 0:
			warnings = append(warnings, Warning{Substance: substance, Message: fmt.Sprintf("non-positive effect duration %s", d)})
			continue
		}
		spans = append(spans, merge(substance, groups[substance], d)...)
	}
	return spans, warnings
}

func merge(substance string, group []Pair, d time.Duration) []Span {
	sort.SliceStable(group, func(i, j int) bool { return group[i].Time.Before(group[j].Time) })

	var spans []Span
	cur := Span{Substance: substance, Start: group[0].Time, Duration: d, Doses: []dose.Dose{group[0].Dose}}
	for _, p := range group[1:] {
		if p.Time.Before(cur.End()) {
			cur.Duration = p.Time.Add(d).Sub(cur.Start)
			cur.Doses = append(cur.Doses, p.Dose)
			continue
		}
		spans = append(spans, cur)
		cur = Span{Substance: substance, Start: p.Time, Duration: d, Doses: []dose.Dose{p.Dose}}
	}
	return append(spans, cur)
}

// HoursByDay sums active hours per substance per day. Days start at
// dayOffset after midnight, and spans crossing a day boundary are split.
func HoursByDay(spans []Span, dayOffset time.Duration) map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	for _, s := range spans {
		days, ok := out[s.Substance]
		if !ok {
			days = make(map[string]float64)
			out[s.Substance] = days
		}
		start, end := s.Start, s.End()
		for start.Before(end) {
			shifted := start.Add(-dayOffset)
			dayStart := time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, shifted.Location())
			next := dayStart.AddDate(0, 0, 1).Add(dayOffset)
			if next.After(end) {
				next = end
			}
			days[dayStart.Format("2006-01-02")] += next.Sub(start).Hours()
			start = next
		}
	}
	return out
}
