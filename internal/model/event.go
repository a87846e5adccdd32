// Package model defines the core event data types.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// TimestampLayout is the ISO-8601 layout used in the JSON shape of events.
const TimestampLayout = "2006-01-02T15:04:05"

// Kind discriminates the event payload.
type Kind string

const (
	KindDose    Kind = "dose"
	KindJournal Kind = "journal"
)

// ValidKinds are the allowed event kinds.
var ValidKinds = map[Kind]bool{
	KindDose:    true,
	KindJournal: true,
}

// Amount is the amount of a dose as written in the log.
type Amount struct {
	Magnitude float64 `json:"magnitude"`
	Unit      string  `json:"unit,omitempty"`
	Approx    bool    `json:"approx,omitempty"`
	Unknown   bool    `json:"unknown,omitempty"` // written as "?"
}

// DoseEntry is the payload of a dose event.
type DoseEntry struct {
	Substance string      `json:"substance"`
	Amount    Amount      `json:"amount"`
	RoA       string      `json:"roa,omitempty"`
	Patient   string      `json:"patient,omitempty"`
	Subdoses  []DoseEntry `json:"subdoses,omitempty"`
	Notes     []string    `json:"notes,omitempty"`
	Tags      []string    `json:"tags,omitempty"`
}

// Note is the payload of a journal event.
type Note struct {
	Text string `json:"note"`
}

// Event is one timestamped log entry. Exactly one of Dose and Journal is set,
// matching Kind.
type Event struct {
	Timestamp  time.Time
	Kind       Kind
	ApproxTime bool
	Dose       *DoseEntry
	Journal    *Note
}

// NewDoseEvent creates a dose event.
func NewDoseEvent(ts time.Time, d DoseEntry) Event {
	return Event{Timestamp: ts, Kind: KindDose, Dose: &d}
}

// NewJournalEvent creates a journal event.
func NewJournalEvent(ts time.Time, text string) Event {
	return Event{Timestamp: ts, Kind: KindJournal, Journal: &Note{Text: text}}
}

// Substance returns the substance of a dose event, or "".
func (e Event) Substance() string {
	if e.Dose == nil {
		return ""
	}
	return e.Dose.Substance
}

// Tags returns the tags attached to a dose event.
func (e Event) Tags() []string {
	if e.Dose == nil {
		return nil
	}
	return e.Dose.Tags
}

// RoA returns the route of administration, "unknown" when not given.
func (e Event) RoA() string {
	if e.Dose == nil || e.Dose.RoA == "" {
		return "unknown"
	}
	return e.Dose.RoA
}

// WithSubstance returns a copy of a dose event with the substance replaced.
func (e Event) WithSubstance(s string) Event {
	if e.Dose == nil {
		return e
	}
	d := *e.Dose
	d.Substance = s
	e.Dose = &d
	return e
}

// WithTags returns a copy of a dose event with the given tags.
func (e Event) WithTags(tags []string) Event {
	if e.Dose == nil {
		return e
	}
	d := *e.Dose
	d.Tags = append([]string(nil), tags...)
	e.Dose = &d
	return e
}

type eventJSON struct {
	Timestamp  string          `json:"timestamp"`
	Type       Kind            `json:"type"`
	ApproxTime bool            `json:"approx_time,omitempty"`
	Data       json.RawMessage `json:"data"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	var payload any
	switch e.Kind {
	case KindDose:
		payload = e.Dose
	case KindJournal:
		payload = e.Journal
	default:
		return nil, fmt.Errorf("invalid event kind %q", e.Kind)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventJSON{
		Timestamp:  e.Timestamp.Format(TimestampLayout),
		Type:       e.Kind,
		ApproxTime: e.ApproxTime,
		Data:       data,
	})
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	ts, err := time.Parse(TimestampLayout, raw.Timestamp)
	if err != nil {
		return fmt.Errorf("event timestamp: %w", err)
	}
	out := Event{Timestamp: ts, Kind: raw.Type, ApproxTime: raw.ApproxTime}
	switch raw.Type {
	case KindDose:
		out.Dose = &DoseEntry{}
		err = json.Unmarshal(raw.Data, out.Dose)
	case KindJournal:
		out.Journal = &Note{}
		err = json.Unmarshal(raw.Data, out.Journal)
	default:
		return fmt.Errorf("invalid event kind %q", raw.Type)
	}
	if err != nil {
		return fmt.Errorf("event data: %w", err)
	}
	*e = out
	return nil
}

// Key is the canonical identity of the event: a digest of its JSON encoding,
// which is deterministic because the payload is made of structs and
// order-preserving slices only.
func (e Event) Key() string {
	b, err := json.Marshal(e)
	if err != nil {
		// Only an invalid kind fails to encode; key it by what is known.
		b = []byte(fmt.Sprintf("%s|%q", e.Timestamp.Format(TimestampLayout), e.Kind))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Dedup drops events whose canonical key was already seen, keeping the first.
func Dedup(events []Event) []Event {
	seen := make(map[string]bool, len(events))
	out := make([]Event, 0, len(events))
	for _, e := range events {
		k := e.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

// Sort orders events by timestamp, keeping insertion order for ties.
func Sort(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
