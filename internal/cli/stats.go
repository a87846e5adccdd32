package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), getDBPath())
	if err != nil {
		exitErr("stats", err)
	}

	if formatFlag == "json" {
		printJSON(stats)
		return
	}
	fmt.Printf("db:         %s (%d bytes)\n", stats.DBPath, stats.DBSizeBytes)
	fmt.Printf("events:     %d (%d doses, %d journal)\n", stats.TotalEvents, stats.DoseEvents, stats.JournalEvents)
	fmt.Printf("substances: %d\n", stats.Substances)
	if stats.First != "" {
		fmt.Printf("range:      %s .. %s\n", stats.First, stats.Last)
	}
	for _, src := range stats.Sources {
		fmt.Printf("  %6d  %s\n", src.Count, src.Source)
	}
}
