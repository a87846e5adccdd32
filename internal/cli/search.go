package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/doselog/internal/model"
	"github.com/rcliao/doselog/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search stored events by keyword",
		Long:  "Search substances, routes, notes, tags and journal text for matching text.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().String("kind", "", "Filter by kind (dose or journal)")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	kind, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.Search(cmd.Context(), store.SearchParams{
		Query: query,
		Kind:  model.Kind(kind),
		Limit: limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	if formatFlag == "json" {
		printJSON(nonNil(results))
		return
	}
	for _, r := range results {
		fmt.Printf("%s | %s | %s\n", r.ID, r.Event.Timestamp.Format(model.TimestampLayout), describe(r.Event))
	}
}
