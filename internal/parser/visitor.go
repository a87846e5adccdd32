package parser

import (
	"time"

	"github.com/rcliao/doselog/internal/model"
)

// NoDate is the day assigned to entries that appear before any day header.
var NoDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// visitor folds a Document into events. The current day is its only state.
type visitor struct {
	day    time.Time
	hasDay bool
	res    *Result
}

func newVisitor(res *Result) *visitor {
	return &visitor{day: NoDate, res: res}
}

func (v *visitor) visit(n Node) {
	switch n := n.(type) {
	case *DayHeader:
		v.day, v.hasDay = n.Date, true
	case *Entry:
		v.res.Events = append(v.res.Events, v.entry(n)...)
	}
}

func (v *visitor) warn(e *Entry, msg string) {
	v.res.Warnings = append(v.res.Warnings, Warning{LineNo: e.LineNo, Line: e.Raw, Message: msg})
}

func (v *visitor) entry(e *Entry) []model.Event {
	if !v.hasDay {
		v.warn(e, "entry without day header, assuming "+NoDate.Format("2006-01-02"))
	}
	if e.Time.Unknown {
		v.warn(e, "entry with unknown time, assuming 00:00")
	}
	ts := time.Date(v.day.Year(), v.day.Month(), v.day.Day(), e.Time.Hour, e.Time.Minute, 0, 0, time.UTC)
	if e.NextDay {
		ts = ts.AddDate(0, 0, 1)
	}

	var events []model.Event
	add := func(ev model.Event) {
		ev.ApproxTime = e.Approx
		events = append(events, ev)
	}
	if e.Doses == nil {
		add(model.NewJournalEvent(ts, e.Note))
		return events
	}
	for _, d := range e.Doses {
		for _, entry := range flatten(doseEntry(d), nil) {
			add(model.NewDoseEvent(ts, entry))
		}
	}
	return events
}

// doseEntry converts a dose node, hoisting notes and nested doses out of its
// extras.
func doseEntry(d *DoseNode) model.DoseEntry {
	entry := model.DoseEntry{
		Substance: d.Substance,
		Amount: model.Amount{
			Magnitude: d.Amount.Magnitude,
			Unit:      d.Amount.Unit.String(),
			Approx:    d.Amount.Approx,
			Unknown:   d.Amount.Unknown,
		},
		RoA:     d.RoA,
		Patient: d.Patient,
	}
	for _, item := range d.Extra {
		switch it := item.(type) {
		case *PercentNode:
			entry.Notes = append(entry.Notes, it.Text)
		case *ShortNoteNode:
			if it.Text != "" {
				entry.Notes = append(entry.Notes, it.Text)
			}
		case *DoseListNode:
			for _, sub := range it.Doses {
				entry.Subdoses = append(entry.Subdoses, doseEntry(sub))
			}
		}
	}
	return entry
}

// flatten lists a dose and all of its nested subdoses in pre-order.
func flatten(d model.DoseEntry, out []model.DoseEntry) []model.DoseEntry {
	out = append(out, d)
	for _, sub := range d.Subdoses {
		out = flatten(sub, out)
	}
	return out
}
