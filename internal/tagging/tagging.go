// Package tagging folds substance aliases, attaches category tags and filters
// events. Every function returns new events and leaves its input untouched.
package tagging

import (
	"sort"
	"strings"
	"time"

	"github.com/rcliao/doselog/internal/model"
)

// ApplyAliases renames substances found in aliases. Keys match
// case-insensitively.
func ApplyAliases(events []model.Event, aliases map[string]string) []model.Event {
	if len(aliases) == 0 {
		return events
	}
	folded := make(map[string]string, len(aliases))
	for k, v := range aliases {
		folded[strings.ToLower(k)] = v
	}
	out := make([]model.Event, len(events))
	for i, e := range events {
		if target, ok := folded[strings.ToLower(e.Substance())]; ok && e.Dose != nil {
			e = e.WithSubstance(target)
		}
		out[i] = e
	}
	return out
}

// ApplyCategories tags each dose with the categories listing its substance.
// Tags are sorted; events already carrying tags keep them.
func ApplyCategories(events []model.Event, categories map[string][]string) []model.Event {
	if len(categories) == 0 {
		return events
	}
	bySubstance := make(map[string][]string)
	for cat, subs := range categories {
		for _, s := range subs {
			key := strings.ToLower(s)
			bySubstance[key] = append(bySubstance[key], cat)
		}
	}
	out := make([]model.Event, len(events))
	for i, e := range events {
		cats := bySubstance[strings.ToLower(e.Substance())]
		if e.Dose != nil && len(cats) > 0 {
			e = e.WithTags(mergeTags(e.Tags(), cats))
		}
		out[i] = e
	}
	return out
}

func mergeTags(existing, add []string) []string {
	seen := make(map[string]bool, len(existing)+len(add))
	var tags []string
	for _, t := range append(append([]string(nil), existing...), add...) {
		if !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags
}

// Filter selects events by time range and substance. Start is inclusive and
// End exclusive; zero values leave that side open. A substance entry "#tag"
// matches events tagged with tag. Matching is case-insensitive.
type Filter struct {
	Start      time.Time
	End        time.Time
	Substances []string
}

// Match reports whether e passes the filter.
func (f Filter) Match(e model.Event) bool {
	if !f.Start.IsZero() && e.Timestamp.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && !e.Timestamp.Before(f.End) {
		return false
	}
	if len(f.Substances) == 0 {
		return true
	}
	for _, s := range f.Substances {
		if tag, ok := strings.CutPrefix(s, "#"); ok {
			for _, t := range e.Tags() {
				if strings.EqualFold(t, tag) {
					return true
				}
			}
			continue
		}
		if e.Dose != nil && strings.EqualFold(e.Substance(), s) {
			return true
		}
	}
	return false
}

// Apply returns the events that match.
func (f Filter) Apply(events []model.Event) []model.Event {
	var out []model.Event
	for _, e := range events {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// SplitList splits a comma separated flag value, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// SubstanceCount is the number of doses, or of days with a dose, of one
// substance.
type SubstanceCount struct {
	Substance string `json:"substance"`
	Count     int    `json:"count"`
}

// CountSubstances counts doses per substance, most common first. With
// groupDay, each calendar day with at least one dose counts once.
func CountSubstances(events []model.Event, groupDay bool) []SubstanceCount {
	counts := make(map[string]int)
	days := make(map[string]map[string]bool)
	for _, e := range events {
		s := e.Substance()
		if e.Kind != model.KindDose || s == "" {
			continue
		}
		if !groupDay {
			counts[s]++
			continue
		}
		if days[s] == nil {
			days[s] = make(map[string]bool)
		}
		days[s][e.Timestamp.Format("2006-01-02")] = true
	}
	for s, d := range days {
		counts[s] = len(d)
	}

	out := make([]SubstanceCount, 0, len(counts))
	for s, n := range counts {
		out = append(out, SubstanceCount{Substance: s, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Substance < out[j].Substance
	})
	return out
}
