package main

import (
	"fmt"
	"time"

	"github.com/Nomadcxx/animeparse/internal/output"
	"github.com/Nomadcxx/animeparse/internal/ui"
	"github.com/spf13/cobra"
)

func newHistoryCmd(g *globalFlags) *cobra.Command {
	var (
		format    string
		limit     int
		failed    bool
		search    string
		stats     bool
		runID     string
		olderThan time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded parses",
		Long: `Show parses recorded by scan, watch, parse --record and the API.

Examples:
  animeparse history                          # 50 most recent parses
  animeparse history --failed                 # only names that did not parse
  animeparse history --search "shingeki"      # fuzzy search recorded titles
  animeparse history --run <id> --format csv  # every parse of one run
  animeparse history --stats                  # totals and per-category counts
  animeparse history --prune 720h             # delete parses older than 30 days`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			if limit < 1 {
				return fmt.Errorf("--limit must be positive")
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			db, err := g.openHistory(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			switch {
			case olderThan > 0:
				n, err := db.DeleteParsesBefore(time.Now().Add(-olderThan))
				if err != nil {
					return fmt.Errorf("failed to prune history: %w", err)
				}
				ui.SuccessMsg(out, "Deleted %s parses older than %s", ui.FormatCount(int(n)), olderThan)
				return nil

			case stats:
				totals, err := db.CountParses()
				if err != nil {
					return fmt.Errorf("failed to query database: %w", err)
				}
				categories, err := db.CategoryStats()
				if err != nil {
					return fmt.Errorf("failed to query database: %w", err)
				}
				return output.WriteStats(out, f, totals, categories)

			case search != "":
				matches, err := db.SearchTitles(search, limit)
				if err != nil {
					return fmt.Errorf("search failed: %w", err)
				}
				return output.WriteMatches(out, f, matches)

			case runID != "":
				recs, err := db.ParsesForRun(runID)
				if err != nil {
					return fmt.Errorf("failed to query database: %w", err)
				}
				return output.WriteHistory(out, f, recs)
			}

			recs, err := db.RecentParses(limit, failed)
			if err != nil {
				return fmt.Errorf("failed to query database: %w", err)
			}
			return output.WriteHistory(out, f, recs)
		},
	}

	formatFlag(cmd, &format)
	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "maximum number of rows")
	cmd.Flags().BoolVar(&failed, "failed", false, "only show failed parses")
	cmd.Flags().StringVarP(&search, "search", "s", "", "fuzzy search recorded anime titles")
	cmd.Flags().BoolVar(&stats, "stats", false, "show totals instead of parses")
	cmd.Flags().StringVar(&runID, "run", "", "show every parse of one run")
	cmd.Flags().DurationVar(&olderThan, "prune", 0, "delete parses older than this duration")

	cmd.MarkFlagsMutuallyExclusive("search", "stats", "run", "prune")

	return cmd
}
