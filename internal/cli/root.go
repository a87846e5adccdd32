// Package cli implements the doselog CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/doselog/internal/config"
	"github.com/rcliao/doselog/internal/logging"
	"github.com/rcliao/doselog/internal/store"
)

var (
	dbPath     string
	configPath string
	formatFlag string
	verbose    bool

	cfg    *config.Config
	logger = zap.NewNop()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "doselog",
	Short: "Parse and analyze dose logs",
	Long: "doselog parses plain-text dose logs into events, stores them in SQLite and\n" +
		"prints summaries, effect spans and substance counts.",
	PersistentPreRun: setup,
	SilenceUsage:     true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $DOSELOG_DB or db from config)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $DOSELOG_CONFIG or ~/.config/doselog/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func setup(cmd *cobra.Command, args []string) {
	if formatFlag != "json" && formatFlag != "text" {
		exitErr("invalid format", fmt.Errorf("%q (valid: json, text)", formatFlag))
	}

	c, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	cfg = c

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	l, err := logging.New(level, verbose)
	if err != nil {
		exitErr("create logger", err)
	}
	logger = l

	switch {
	case cfg.Source == "" && configPath != "":
		logger.Warn("config file not found, using defaults", zap.String("path", configPath))
	case cfg.Source == "":
		logger.Debug("no config file, using defaults", zap.String("path", config.DefaultPath()))
	default:
		logger.Debug("loaded config", zap.String("path", cfg.Source))
	}
}

func getDBPath() string {
	if dbPath != "" {
		return config.ExpandHome(dbPath)
	}
	return cfg.DB
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("encode json", err)
	}
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
