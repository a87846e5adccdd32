package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/doselog/internal/config"
	"github.com/rcliao/doselog/internal/loader"
	"github.com/rcliao/doselog/internal/model"
	"github.com/rcliao/doselog/internal/store"
	"github.com/rcliao/doselog/internal/tagging"
)

const dateLayout = "2006-01-02"

func init() {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print events",
		Run:   runEvents,
	}
	addFilterFlags(cmd)

	RootCmd.AddCommand(cmd)
}

func runEvents(cmd *cobra.Command, args []string) {
	events := loadEvents(cmd)
	if formatFlag == "json" {
		printJSON(nonNil(events))
		return
	}
	printEvents(events)
}

// addFilterFlags registers the flags shared by commands reading events.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "", "Only events on or after this day (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Only events on or before this day (YYYY-MM-DD)")
	cmd.Flags().StringP("substances", "s", "", "Substances or #categories to filter by (comma-separated)")
	cmd.Flags().StringSlice("notes", nil, "Parse these note globs instead of reading the database")
}

func eventFilter(cmd *cobra.Command) (tagging.Filter, error) {
	startStr, _ := cmd.Flags().GetString("start")
	endStr, _ := cmd.Flags().GetString("end")
	substances, _ := cmd.Flags().GetString("substances")

	f := tagging.Filter{Substances: tagging.SplitList(substances)}
	if startStr != "" {
		t, err := time.Parse(dateLayout, startStr)
		if err != nil {
			return f, fmt.Errorf("--start: %w", err)
		}
		f.Start = t
	}
	if endStr != "" {
		t, err := time.Parse(dateLayout, endStr)
		if err != nil {
			return f, fmt.Errorf("--end: %w", err)
		}
		f.End = t.AddDate(0, 0, 1)
	}
	return f, nil
}

// loadEvents reads events from the notes given with --notes, or from the
// database, then applies aliases, categories and the filter flags.
func loadEvents(cmd *cobra.Command) []model.Event {
	f, err := eventFilter(cmd)
	if err != nil {
		exitErr("invalid filter", err)
	}
	notes, _ := cmd.Flags().GetStringSlice("notes")

	var events []model.Event
	if len(notes) > 0 {
		for i, n := range notes {
			notes[i] = config.ExpandHome(n)
		}
		res, err := loader.New(logger).Load(cmd.Context(), notes)
		if err != nil {
			exitErr("load notes", err)
		}
		logLoadProblems(res)
		events = res.Events()
	} else {
		s, err := openStore()
		if err != nil {
			exitErr("open store", err)
		}
		defer s.Close()

		stored, err := s.List(cmd.Context(), store.ListParams{Start: f.Start, End: f.End})
		if err != nil {
			exitErr("list events", err)
		}
		events = store.Events(stored)
	}

	events = tagging.ApplyAliases(events, cfg.Aliases)
	events = tagging.ApplyCategories(events, cfg.Categories)
	events = f.Apply(events)
	logger.Debug("loaded events", zap.Int("events", len(events)))
	return events
}

// logLoadProblems logs every parse error and warning at debug level and a
// count at warn level.
func logLoadProblems(res *loader.Result) {
	errs := res.Errors()
	for _, e := range errs {
		logger.Debug("skipped line", zap.String("source", e.Source), zap.Int("line", e.LineNo),
			zap.String("day", e.DayContext), zap.String("text", e.Line), zap.Error(e.Err))
	}
	for _, w := range res.Warnings() {
		logger.Debug(w.Message, zap.String("source", w.Source), zap.Int("line", w.LineNo))
	}
	if len(errs) > 0 {
		logger.Warn("some lines could not be parsed (use -v to list them)", zap.Int("lines", len(errs)))
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
