package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/doselog/internal/config"
	"github.com/rcliao/doselog/internal/loader"
	"github.com/rcliao/doselog/internal/model"
	"github.com/rcliao/doselog/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [globs...]",
		Short: "Parse notes into the database",
		Long: "Parse notes matching the given globs (default: notes from config) and store\n" +
			"their events. Each file replaces the events previously imported from it,\n" +
			"unless --append is set. With --export, read a JSON export instead.",
		Run: runImport,
	}

	cmd.Flags().Bool("append", false, "Only add new events, keep events of edited files")
	cmd.Flags().String("export", "", "Import a JSON file produced by export ('-' for stdin)")
	cmd.Flags().Int("workers", 0, "Sections parsed in parallel (default: number of CPUs)")

	RootCmd.AddCommand(cmd)
}

type importSummary struct {
	Files    int `json:"files"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	store.ImportResult
}

func runImport(cmd *cobra.Command, args []string) {
	appendOnly, _ := cmd.Flags().GetBool("append")
	exportFile, _ := cmd.Flags().GetString("export")
	workers, _ := cmd.Flags().GetInt("workers")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var sum importSummary
	if exportFile != "" {
		sum.ImportResult = importExport(cmd, s, exportFile)
		printImportSummary(sum)
		return
	}

	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Notes
	}
	if len(patterns) == 0 {
		exitErr("import", fmt.Errorf("no notes given and none configured"))
	}
	for i, p := range patterns {
		patterns[i] = config.ExpandHome(p)
	}

	res, err := loader.New(logger, loader.WithWorkers(workers)).Load(cmd.Context(), patterns)
	if err != nil {
		exitErr("load notes", err)
	}
	logLoadProblems(res)

	for _, f := range res.Files {
		var r store.ImportResult
		if appendOnly {
			r, err = s.Import(cmd.Context(), f.Events, f.Path)
		} else {
			r, err = s.ReplaceSource(cmd.Context(), f.Path, f.Events)
		}
		if err != nil {
			exitErr("import "+f.Path, err)
		}
		logger.Debug("imported file", zap.String("path", f.Path),
			zap.Int("inserted", r.Inserted), zap.Int("skipped", r.Skipped), zap.Int("removed", r.Removed))
		sum.Inserted += r.Inserted
		sum.Skipped += r.Skipped
		sum.Removed += r.Removed
		sum.Errors += len(f.Errors)
		sum.Warnings += len(f.Warnings)
	}
	sum.Files = len(res.Files)
	printImportSummary(sum)
}

func importExport(cmd *cobra.Command, s *store.SQLiteStore, path string) store.ImportResult {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		exitErr("read "+path, err)
	}

	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		exitErr("parse json", err)
	}
	r, err := s.Import(cmd.Context(), events, "export:"+path)
	if err != nil {
		exitErr("import", err)
	}
	return r
}

func printImportSummary(sum importSummary) {
	if formatFlag == "json" {
		printJSON(sum)
		return
	}
	fmt.Printf("%d files, %d events inserted, %d already stored, %d replaced, %d lines skipped\n",
		sum.Files, sum.Inserted, sum.Skipped, sum.Removed, sum.Errors)
}
