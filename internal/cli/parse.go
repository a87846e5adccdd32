package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/doselog/internal/parser"
)

func init() {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a log note and print its events",
		Long: "Parse a log note (stdin when no file is given) and print its events.\n" +
			"Lines that fail to parse are reported and skipped unless --strict is set.",
		Args: cobra.MaximumNArgs(1),
		Run:  runParse,
	}

	cmd.Flags().Bool("strict", false, "Fail on the first line that does not parse")
	cmd.Flags().Bool("doses", false, "Only print dose events")

	RootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) {
	strict, _ := cmd.Flags().GetBool("strict")
	dosesOnly, _ := cmd.Flags().GetBool("doses")

	var data []byte
	var err error
	name := "stdin"
	if len(args) == 1 {
		name = args[0]
		data, err = os.ReadFile(name)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read "+name, err)
	}

	var res *parser.Result
	if strict {
		res, err = parser.Parse(string(data))
		if err != nil {
			exitErr("parse "+name, err)
		}
	} else {
		res = parser.ParseDeferErrors(string(data))
	}

	for _, w := range res.Warnings {
		logger.Warn(w.Message, zap.String("source", name), zap.Int("line", w.LineNo))
	}
	for _, e := range res.Errors {
		logger.Warn("skipped line", zap.String("source", name), zap.Int("line", e.LineNo), zap.Error(e.Err))
	}
	logger.Info("parsed", zap.String("source", name), zap.Int("lines", res.Lines), zap.Int("parsed", res.Parsed))

	events := res.Events
	if dosesOnly {
		events = res.Doses()
	}
	if formatFlag == "json" {
		printJSON(nonNil(events))
		return
	}
	printEvents(events)
	if len(res.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d lines failed to parse\n", len(res.Errors), res.Lines)
	}
}
