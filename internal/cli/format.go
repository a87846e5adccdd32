package cli

import (
	"fmt"
	"strings"

	"github.com/rcliao/doselog/internal/dose"
	"github.com/rcliao/doselog/internal/model"
)

// describe renders the payload of an event on one line.
func describe(e model.Event) string {
	if e.Kind == model.KindJournal && e.Journal != nil {
		return e.Journal.Text
	}
	if e.Dose == nil {
		return ""
	}
	var b strings.Builder
	if d, err := dose.FromEvent(e); err == nil && !e.Dose.Amount.Unknown {
		b.WriteString(d.String())
	} else {
		b.WriteString("? " + e.Dose.Substance)
	}
	if e.Dose.Amount.Approx {
		b.WriteString(" (approx)")
	}
	if e.Dose.RoA != "" {
		b.WriteString(" " + e.Dose.RoA)
	}
	if e.Dose.Patient != "" {
		b.WriteString(" for " + e.Dose.Patient)
	}
	if len(e.Dose.Notes) > 0 {
		b.WriteString(" [" + strings.Join(e.Dose.Notes, "; ") + "]")
	}
	return b.String()
}

// printEvents prints one event per line with a marker between days.
func printEvents(events []model.Event) {
	var last string
	for _, e := range events {
		day := e.Timestamp.Format(dateLayout)
		if last != "" && last != day {
			fmt.Printf("%s =========|=========|====== New day =====\n", last)
		}
		ts := e.Timestamp.Format(model.TimestampLayout)
		if e.ApproxTime {
			ts = "~" + ts
		}
		fmt.Printf("%-20s | %-7s | %s\n", ts, e.Kind, describe(e))
		last = day
	}
}
