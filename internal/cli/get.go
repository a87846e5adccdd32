package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/doselog/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Retrieve a stored event by id",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ev, err := s.Get(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}

	if formatFlag == "json" {
		printJSON(ev)
		return
	}
	fmt.Printf("%s | %s | %s\n", ev.ID, ev.Source, ev.Event.Timestamp.Format(model.TimestampLayout))
	fmt.Println(describe(ev.Event))
}
