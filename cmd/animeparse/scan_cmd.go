package main

import (
	"fmt"
	"sync"

	"github.com/Nomadcxx/animeparse/internal/config"
	"github.com/Nomadcxx/animeparse/internal/database"
	"github.com/Nomadcxx/animeparse/internal/logging"
	"github.com/Nomadcxx/animeparse/internal/output"
	"github.com/Nomadcxx/animeparse/internal/parser"
	"github.com/Nomadcxx/animeparse/internal/scanner"
	"github.com/Nomadcxx/animeparse/internal/ui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newScanCmd(g *globalFlags) *cobra.Command {
	var (
		pf       parseFlags
		format   string
		workers  int
		noRecord bool
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "scan [directory...]",
		Short: "Parse every media file under directories",
		Long: `Walk directories for media files and parse each filename in parallel.

Results are stored in the history database as one run unless --no-record
is given. Without arguments the [watch] paths from the config are scanned.

Examples:
  animeparse scan ~/Downloads/anime
  animeparse scan --workers 8 /mnt/media/Anime /mnt/media/Incoming
  animeparse scan --no-record --format csv ~/Downloads > names.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			roots := args
			if len(roots) == 0 {
				roots = cfg.Watch.Paths
			}
			if len(roots) == 0 {
				return fmt.Errorf("no directories given (pass them as arguments or set [watch] paths in config)")
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
			if cmd.Flags().Changed("workers") {
				scanCfg.Workers = workers
			}

			if !noRecord {
				db, err := g.openHistory(cfg)
				if err != nil {
					return err
				}
				defer db.Close()
				scanCfg.Recorder = db
			}

			if progress && f == output.FormatTable {
				scanCfg.OnProgress = progressReporter(cmd)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			summary, err := scanner.New(afero.NewOsFs(), scanCfg).Scan(ctx, roots, database.SourceScan)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
			return output.WriteSummary(cmd.OutOrStdout(), f, summary)
		},
	}

	pf.register(cmd)
	formatFlag(cmd, &format)
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "parallel parse workers (default: from config)")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "do not store results in the history database")
	cmd.Flags().BoolVar(&progress, "progress", true, "show a progress bar")

	return cmd
}

// scannerConfig maps the [scan] section onto a scanner.Config.
func scannerConfig(cfg *config.Config, p *parser.Parser, opts parser.Options, logger *logging.Logger) scanner.Config {
	return scanner.Config{
		Extensions: cfg.Scan.Extensions,
		Workers:    cfg.Scan.Workers,
		SkipHidden: cfg.Scan.SkipHidden,
		Options:    opts,
		Parser:     p,
		Logger:     logger,
	}
}

// progressReporter draws a bar on stderr once the file count is known.
func progressReporter(cmd *cobra.Command) func(done, total int) {
	var (
		once sync.Once
		bar  *ui.ProgressBar
	)
	return func(done, total int) {
		once.Do(func() {
			bar = ui.NewProgressBar(cmd.ErrOrStderr(), total, "Parsing")
		})
		bar.Increment()
	}
}
