package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/doselog/internal/dose"
	"github.com/rcliao/doselog/internal/effectspan"
	"github.com/rcliao/doselog/internal/model"
)

func init() {
	spanCmd := &cobra.Command{
		Use:   "effectspan",
		Short: "Print the spans during which substances are active",
		Run:   runEffectspan,
	}
	addFilterFlags(spanCmd)
	spanCmd.Flags().String("normalize", "", "Treat every substance as this one")

	influenceCmd := &cobra.Command{
		Use:   "influence",
		Short: "Print hours under the influence of each substance per day",
		Run:   runInfluence,
	}
	addFilterFlags(influenceCmd)
	influenceCmd.Flags().String("normalize", "", "Treat every substance as this one")

	RootCmd.AddCommand(spanCmd, influenceCmd)
}

// spans turns the dose events into effect spans using the configured
// durations. Substances without a duration are logged and left out.
func spans(cmd *cobra.Command, events []model.Event) []effectspan.Span {
	normalize, _ := cmd.Flags().GetString("normalize")

	var pairs []effectspan.Pair
	for _, e := range events {
		if e.Kind != model.KindDose || e.Substance() == "" {
			continue
		}
		if normalize != "" {
			e = e.WithSubstance(normalize)
		}
		d, err := dose.FromEvent(e)
		if err != nil {
			logger.Warn("skipping dose", zap.Time("at", e.Timestamp), zap.Error(err))
			continue
		}
		pairs = append(pairs, effectspan.Pair{Time: e.Timestamp, Dose: d})
	}

	result, warnings := effectspan.Aggregate(pairs, effectspan.Durations(cfg.Durations))
	for _, w := range warnings {
		logger.Warn(w.Message, zap.String("substance", w.Substance))
	}
	return result
}

type spanJSON struct {
	Substance string   `json:"substance"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Seconds   float64  `json:"duration_seconds"`
	Doses     []string `json:"doses"`
}

func runEffectspan(cmd *cobra.Command, args []string) {
	events := loadEvents(cmd)
	result := spans(cmd, events)

	out := make([]spanJSON, 0, len(result))
	for _, s := range result {
		amounts := make([]string, len(s.Doses))
		for i, d := range s.Doses {
			amounts[i] = d.AmountWithUnit()
		}
		out = append(out, spanJSON{
			Substance: s.Substance,
			Start:     s.Start.Format(model.TimestampLayout),
			End:       s.End().Format(model.TimestampLayout),
			Seconds:   s.Duration.Seconds(),
			Doses:     amounts,
		})
	}

	if formatFlag == "json" {
		printJSON(out)
		return
	}
	if len(out) == 0 {
		fmt.Println("No matching events found")
		return
	}
	for _, s := range out {
		data, _ := json.Marshal(map[string]any{"substance": s.Substance, "doses": s.Doses})
		fmt.Printf("%s; %g; %s\n", s.Start, s.Seconds, data)
	}
}

type influenceRow struct {
	Day       string  `json:"day"`
	Substance string  `json:"substance"`
	Hours     float64 `json:"hours"`
}

func runInfluence(cmd *cobra.Command, args []string) {
	events := loadEvents(cmd)
	hours := effectspan.HoursByDay(spans(cmd, events), cfg.StartOfDay)

	var rows []influenceRow
	for substance, days := range hours {
		for day, h := range days {
			rows = append(rows, influenceRow{Day: day, Substance: substance, Hours: h})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Day != rows[j].Day {
			return rows[i].Day < rows[j].Day
		}
		return strings.ToLower(rows[i].Substance) < strings.ToLower(rows[j].Substance)
	})

	if formatFlag == "json" {
		printJSON(nonNil(rows))
		return
	}
	for _, r := range rows {
		fmt.Printf("%s  %-20s %5.2fh\n", r.Day, r.Substance, r.Hours)
	}
}
