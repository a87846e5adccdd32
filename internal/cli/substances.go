package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/doselog/internal/tagging"
)

func init() {
	cmd := &cobra.Command{
		Use:   "substances",
		Short: "List substances by how often they were taken",
		Run:   runSubstances,
	}
	addFilterFlags(cmd)
	cmd.Flags().Bool("group-day", true, "Count days with a dose instead of doses")

	RootCmd.AddCommand(cmd)
}

func runSubstances(cmd *cobra.Command, args []string) {
	groupDay, _ := cmd.Flags().GetBool("group-day")
	counts := tagging.CountSubstances(loadEvents(cmd), groupDay)

	if formatFlag == "json" {
		printJSON(counts)
		return
	}
	for _, c := range counts {
		fmt.Printf("%dx\t%s\n", c.Count, c.Substance)
	}
	fmt.Printf("%d substances found\n", len(counts))
}
