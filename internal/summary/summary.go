// Package summary computes per-substance statistics over dose events.
package summary

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rcliao/doselog/internal/dose"
	"github.com/rcliao/doselog/internal/model"
)

// ErrNoDoses is returned when no dose of the substance exists.
var ErrNoDoses = errors.New("no doses found")

const day = 24 * time.Hour

// RoACount is how many doses were taken by one route.
type RoACount struct {
	RoA   string `json:"roa"`
	Count int    `json:"count"`
}

// Summary describes the doses of one substance.
type Summary struct {
	Substance string
	FirstDay  time.Time
	LastDay   time.Time
	Days      int
	Doses     int
	Total     dose.Dose
	AvgPerDay dose.Dose

	// Mean time of day of the first and last dose of each day.
	MeanFirstTime time.Duration
	MeanLastTime  time.Duration

	// Nil when the doses cannot be ordered because of inconsistent units.
	Min, Median, Max *dose.Dose

	RoAs     []RoACount
	Warnings []string
}

// Substances lists the distinct dose substances, case-insensitively, in
// order of first appearance.
func Substances(events []model.Event) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range events {
		s := e.Substance()
		if e.Kind != model.KindDose || s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	return out
}

// Summarize builds the summary of substance (case-insensitive). Days begin
// startOfDay after midnight, so a dose at 01:00 with a 4h start of day
// counts toward the previous day.
func Summarize(events []model.Event, substance string, startOfDay time.Duration) (*Summary, error) {
	type dated struct {
		at   time.Time
		dose dose.Dose
		roa  string
	}
	var doses []dated
	s := &Summary{Substance: substance}
	for _, e := range events {
		if e.Kind != model.KindDose || !strings.EqualFold(e.Substance(), substance) {
			continue
		}
		d, err := dose.FromEvent(e)
		if err != nil {
			s.warn("skipping dose at %s: %v", e.Timestamp.Format(model.TimestampLayout), err)
			continue
		}
		doses = append(doses, dated{at: e.Timestamp, dose: d, roa: e.RoA()})
	}
	if len(doses) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoDoses, substance)
	}
	sort.SliceStable(doses, func(i, j int) bool { return doses[i].at.Before(doses[j].at) })
	s.Doses = len(doses)

	type bounds struct{ first, last time.Time }
	var days []string
	byDay := make(map[string]*bounds)
	all := make([]dose.Dose, 0, len(doses))
	roas := make(map[string]int)
	total := dose.Dose{Substance: substance}
	for _, d := range doses {
		key := dayOf(d.at, startOfDay).Format("2006-01-02")
		if b, ok := byDay[key]; ok {
			b.last = d.at
		} else {
			byDay[key] = &bounds{first: d.at, last: d.at}
			days = append(days, key)
		}
		all = append(all, d.dose)
		roas[d.roa]++

		if d.dose.IsZero() {
			continue
		}
		sum, err := total.Add(d.dose)
		if err != nil {
			s.warn("total excludes %s at %s: %v", d.dose.AmountWithUnit(), d.at.Format(model.TimestampLayout), err)
			continue
		}
		total = sum
	}

	s.FirstDay = dayOf(doses[0].at, startOfDay)
	s.LastDay = dayOf(doses[len(doses)-1].at, startOfDay)
	s.Days = len(days)
	s.Total = total
	avg, err := total.Div(float64(s.Days))
	if err != nil {
		return nil, err
	}
	s.AvgPerDay = avg

	var firsts, lasts []time.Duration
	for _, k := range days {
		firsts = append(firsts, clock(byDay[k].first))
		lasts = append(lasts, clock(byDay[k].last))
	}
	s.MeanFirstTime = MeanTimeOfDay(firsts)
	s.MeanLastTime = MeanTimeOfDay(lasts)

	if err := s.order(all); err != nil {
		s.warn("cannot compute min/median/max dose due to inconsistent units: %v", err)
	}

	for roa, n := range roas {
		s.RoAs = append(s.RoAs, RoACount{RoA: roa, Count: n})
	}
	sort.Slice(s.RoAs, func(i, j int) bool {
		if s.RoAs[i].Count != s.RoAs[j].Count {
			return s.RoAs[i].Count > s.RoAs[j].Count
		}
		return s.RoAs[i].RoA < s.RoAs[j].RoA
	})
	return s, nil
}

func (s *Summary) warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// order sets Min, Median and Max.
func (s *Summary) order(all []dose.Dose) error {
	sorted := append([]dose.Dose(nil), all...)
	var cmpErr error
	sort.SliceStable(sorted, func(i, j int) bool {
		less, err := sorted[i].Less(sorted[j])
		if err != nil && cmpErr == nil {
			cmpErr = err
		}
		return less
	})
	if cmpErr != nil {
		return cmpErr
	}
	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		sum, err := sorted[n/2-1].Add(sorted[n/2])
		if err != nil {
			return err
		}
		if median, err = sum.Div(2); err != nil {
			return err
		}
	}
	s.Min, s.Median, s.Max = &sorted[0], &median, &sorted[n-1]
	return nil
}

// dayOf returns the calendar day t belongs to when days start at offset.
func dayOf(t time.Time, offset time.Duration) time.Time {
	t = t.Add(-offset)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func clock(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
}

// MeanTimeOfDay averages times of day on a 24h circle, so 23:50 and 00:10
// average to 00:00. The result is rounded to the second.
func MeanTimeOfDay(times []time.Duration) time.Duration {
	if len(times) == 0 {
		return 0
	}
	var x, y float64
	for _, t := range times {
		angle := float64(t) / float64(day) * 2 * math.Pi
		x += math.Sin(angle)
		y += math.Cos(angle)
	}
	mean := math.Atan2(x, y) / (2 * math.Pi) * float64(day)
	d := time.Duration(mean).Round(time.Second)
	d %= day
	if d < 0 {
		d += day
	}
	return d
}

// FormatClock formats a time of day as HH:MM:SS.
func FormatClock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours())%24, int(d.Minutes())%60, int(d.Seconds())%60)
}
