package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/doselog/internal/dose"
	"github.com/rcliao/doselog/internal/summary"
)

func init() {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a summary of doses for each substance",
		Run:   runSummary,
	}
	addFilterFlags(cmd)

	RootCmd.AddCommand(cmd)
}

type summaryJSON struct {
	Substance     string             `json:"substance"`
	FirstDay      string             `json:"first_day"`
	LastDay       string             `json:"last_day"`
	Days          int                `json:"days"`
	Doses         int                `json:"doses"`
	Total         string             `json:"total"`
	AvgPerDay     string             `json:"avg_per_day"`
	MeanFirstTime string             `json:"mean_first_time"`
	MeanLastTime  string             `json:"mean_last_time"`
	Min           string             `json:"min,omitempty"`
	Median        string             `json:"median,omitempty"`
	Max           string             `json:"max,omitempty"`
	RoAs          []summary.RoACount `json:"roas"`
	Warnings      []string           `json:"warnings,omitempty"`
}

func runSummary(cmd *cobra.Command, args []string) {
	events := loadEvents(cmd)

	var out []summaryJSON
	for _, substance := range summary.Substances(events) {
		s, err := summary.Summarize(events, substance, cfg.StartOfDay)
		if err != nil {
			logger.Warn("no summary", zap.String("substance", substance), zap.Error(err))
			continue
		}
		for _, w := range s.Warnings {
			logger.Warn(w, zap.String("substance", substance))
		}
		if formatFlag == "json" {
			out = append(out, toSummaryJSON(s))
			continue
		}
		printSummary(s)
	}

	if formatFlag == "json" {
		printJSON(nonNil(out))
		return
	}
	if len(events) == 0 {
		fmt.Println("No matching events found")
	}
}

func amountOrEmpty(d *dose.Dose) string {
	if d == nil {
		return ""
	}
	return d.AmountWithUnit()
}

func toSummaryJSON(s *summary.Summary) summaryJSON {
	return summaryJSON{
		Substance:     s.Substance,
		FirstDay:      s.FirstDay.Format(dateLayout),
		LastDay:       s.LastDay.Format(dateLayout),
		Days:          s.Days,
		Doses:         s.Doses,
		Total:         s.Total.AmountWithUnit(),
		AvgPerDay:     s.AvgPerDay.AmountWithUnit(),
		MeanFirstTime: summary.FormatClock(s.MeanFirstTime),
		MeanLastTime:  summary.FormatClock(s.MeanLastTime),
		Min:           amountOrEmpty(s.Min),
		Median:        amountOrEmpty(s.Median),
		Max:           amountOrEmpty(s.Max),
		RoAs:          s.RoAs,
		Warnings:      s.Warnings,
	}
}

func daysAgo(day time.Time) int {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(today.Sub(day).Hours() / 24)
}

func printSummary(s *summary.Summary) {
	fmt.Printf("%s:\n", s.Substance)
	fmt.Printf(" - latest: %s (%d days ago)\n", s.LastDay.Format(dateLayout), daysAgo(s.LastDay))
	fmt.Printf(" - oldest: %s (%d days ago)\n", s.FirstDay.Format(dateLayout), daysAgo(s.FirstDay))
	fmt.Printf(" - %d days totalling %s\n", s.Days, s.Total.AmountWithUnit())
	fmt.Printf(" - avg dose/day: %s\n", s.AvgPerDay.AmountWithUnit())
	fmt.Printf(" - avg time of first/last daily dose: %s/%s\n",
		summary.FormatClock(s.MeanFirstTime), summary.FormatClock(s.MeanLastTime))
	if s.Min != nil {
		fmt.Printf(" - min/median/max dose: %s/%s/%s\n",
			s.Min.AmountWithUnit(), s.Median.AmountWithUnit(), s.Max.AmountWithUnit())
	}
	fmt.Println(" - ROAs:")
	for _, r := range s.RoAs {
		fmt.Printf("   - %-10s  n: %d\n", r.RoA, r.Count)
	}
}
