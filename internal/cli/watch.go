package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/doselog/internal/config"
	"github.com/rcliao/doselog/internal/loader"
	"github.com/rcliao/doselog/internal/store"
	"github.com/rcliao/doselog/internal/watcher"
)

func init() {
	cmd := &cobra.Command{
		Use:   "watch [globs...]",
		Short: "Keep the database in sync with changing notes",
		Long: "Watch the directories of the given note globs (default: notes from config)\n" +
			"and re-import a file whenever it changes. Removed files drop their events.",
		Run: runWatch,
	}

	cmd.Flags().Bool("initial", true, "Import all matching notes before watching")
	cmd.Flags().Duration("debounce", watcher.DefaultDebounce, "Quiet period before a changed file is re-imported")

	RootCmd.AddCommand(cmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	initial, _ := cmd.Flags().GetBool("initial")
	debounce, _ := cmd.Flags().GetDuration("debounce")

	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Notes
	}
	if len(patterns) == 0 {
		exitErr("watch", fmt.Errorf("no notes given and none configured"))
	}
	for i, p := range patterns {
		patterns[i] = config.ExpandHome(p)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	l := loader.New(logger)
	if initial {
		files, err := loader.Discover(patterns)
		if err != nil {
			exitErr("discover notes", err)
		}
		for _, f := range files {
			syncFile(ctx, l, s, f)
		}
	}

	dirs, err := watcher.Dirs(patterns)
	if err != nil {
		exitErr("watch", err)
	}
	w, err := watcher.New(logger, loader.Extensions, debounce)
	if err != nil {
		exitErr("watch", err)
	}
	defer w.Stop()

	events, err := w.Watch(ctx, dirs)
	if err != nil {
		exitErr("watch", err)
	}
	logger.Info("watching notes", zap.Int("dirs", len(dirs)))

	for ev := range events {
		if !watcher.Match(patterns, ev.Path) {
			continue
		}
		switch ev.Op {
		case watcher.Modified:
			syncFile(ctx, l, s, ev.Path)
		case watcher.Removed:
			n, err := s.RemoveSource(ctx, ev.Path)
			if err != nil {
				logger.Error("remove source", zap.String("path", ev.Path), zap.Error(err))
				continue
			}
			logger.Info("removed", zap.String("path", ev.Path), zap.Int("events", n))
		}
	}
}

// syncFile re-parses one note file and replaces its stored events. Failures
// are logged so watching continues.
func syncFile(ctx context.Context, l *loader.Loader, s store.Store, path string) {
	res, err := l.LoadFiles(ctx, []string{path})
	if err != nil {
		logger.Error("load note", zap.String("path", path), zap.Error(err))
		return
	}
	logLoadProblems(res)

	f := res.Files[0]
	r, err := s.ReplaceSource(ctx, path, f.Events)
	if err != nil {
		logger.Error("store note", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("synced", zap.String("path", path),
		zap.Int("inserted", r.Inserted), zap.Int("removed", r.Removed), zap.Int("skipped_lines", len(f.Errors)))
}
