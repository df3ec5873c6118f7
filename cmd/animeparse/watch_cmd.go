package main

import (
	"fmt"
	"time"

	"github.com/Nomadcxx/animeparse/internal/database"
	"github.com/Nomadcxx/animeparse/internal/logging"
	"github.com/Nomadcxx/animeparse/internal/parser"
	"github.com/Nomadcxx/animeparse/internal/scanner"
	"github.com/Nomadcxx/animeparse/internal/ui"
	"github.com/Nomadcxx/animeparse/internal/watcher"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newWatchCmd(g *globalFlags) *cobra.Command {
	var (
		pf        parseFlags
		rescan    string
		recursive bool
		noRecord  bool
	)

	cmd := &cobra.Command{
		Use:   "watch [directory...]",
		Short: "Parse new media files as they appear",
		Long: `Monitor directories and parse every media file that is created or moved in.

Parses are recorded in the history database under one run per session.
A cron schedule can trigger full rescans to catch anything the watcher
missed, e.g. files added while animeparse was not running.

Without arguments the [watch] paths from the config are used.

Examples:
  animeparse watch ~/Downloads/anime
  animeparse watch --rescan "0 */6 * * *" /mnt/media/Incoming
  animeparse watch --recursive=false ~/Downloads`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			dirs := args
			if len(dirs) == 0 {
				dirs = cfg.Watch.Paths
			}
			if len(dirs) == 0 {
				return fmt.Errorf("no directories to watch (pass them as arguments or set [watch] paths in config)")
			}
			if !cmd.Flags().Changed("rescan") {
				rescan = cfg.Watch.RescanSchedule
			}
			if !cmd.Flags().Changed("recursive") {
				recursive = cfg.Watch.Recursive
			}

			opts, err := pf.options(cmd, cfg)
			if err != nil {
				return err
			}
			p, err := newParser(cfg)
			if err != nil {
				return err
			}
			logger, err := g.newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Close()

			scanCfg := scannerConfig(cfg, p, opts, logger)
			var db *database.HistoryDB
			runID := ""
			if !noRecord {
				db, err = g.openHistory(cfg)
				if err != nil {
					return err
				}
				defer db.Close()
				scanCfg.Recorder = db

				runID, err = db.StartRun(database.SourceWatch)
				if err != nil {
					return fmt.Errorf("failed to start run: %w", err)
				}
				defer func() {
					if run, err := db.FinishRun(runID); err != nil {
						logger.Error("watch", "Failed to finish run", err, logging.F("run", runID))
					} else {
						ui.InfoMsg(cmd.OutOrStdout(), "Recorded %s files (%s failed) in run %s",
							ui.FormatCount(run.Files), ui.FormatCount(run.Failures), runID)
					}
				}()
			}

			sc := scanner.New(afero.NewOsFs(), scanCfg)
			handler, err := watcher.NewParseHandler(sc, scanCfg.Recorder, runID, watcher.DefaultSeenSize, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			handler.OnResult = func(res scanner.Result) {
				if res.Success {
					title, _ := res.Elements.Get(parser.AnimeTitle)
					episode, _ := res.Elements.Get(parser.EpisodeNumber)
					ui.SuccessMsg(out, "%s  %s %s", res.Path, ui.Category(parser.AnimeTitle, title), ui.Category(parser.EpisodeNumber, episode))
				} else {
					ui.WarningMsg(out, "%s  could not be parsed", res.Path)
				}
			}

			w, err := watcher.NewWatcher(handler, watcher.WithRecursive(recursive), watcher.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("creating watcher: %w", err)
			}
			defer w.Close()

			if err := w.Watch(dirs); err != nil {
				return fmt.Errorf("setting up watch: %w", err)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			group, gctx := errgroup.WithContext(ctx)
			group.Go(func() error { return w.Start(gctx) })

			if rescan != "" {
				// rescans record under their own runs
				periodic, err := scanner.NewPeriodicScanner(scanner.New(afero.NewOsFs(), scanCfg), rescan, dirs)
				if err != nil {
					cancel()
					_ = group.Wait()
					return err
				}
				group.Go(func() error { return periodic.Start(gctx) })
				fmt.Fprintf(out, "Rescan: %s (next %s)\n", rescan, ui.FormatTime(periodic.Next(time.Now())))
			}

			for _, dir := range dirs {
				fmt.Fprintf(out, "Watching: %s\n", dir)
			}
			fmt.Fprintln(out, "\nPress Ctrl+C to stop")

			return group.Wait()
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVar(&rescan, "rescan", "", "cron schedule for full rescans (default: from config)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", true, "watch subdirectories (default: from config)")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "do not store results in the history database")

	return cmd
}
