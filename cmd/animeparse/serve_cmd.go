package main

import (
	"fmt"

	"github.com/Nomadcxx/animeparse/internal/api"
	"github.com/Nomadcxx/animeparse/internal/database"
	"github.com/spf13/cobra"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		addr      string
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server.

Parse requests use the [parser] and [keywords] config sections as defaults;
each request may override the parser options. History endpoints read the
same database the scan and watch commands write to.

Examples:
  animeparse serve                        # listen on [server] addr (127.0.0.1:8787)
  animeparse serve --addr :9000           # listen on all interfaces, port 9000
  animeparse serve --no-history           # parse only, no database`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
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

			var db *database.HistoryDB
			if !noHistory {
				db, err = g.openHistory(cfg)
				if err != nil {
					return err
				}
				defer db.Close()
			}

			server := api.NewServer(p, cfg.ParserOptions(), db, cfg.Server, logger)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Starting animeparse API server on %s\n", cfg.Server.Addr)
			fmt.Fprintln(out, "Endpoints:")
			fmt.Fprintln(out, "  GET  /api/v1/parse?filename=   - Parse one filename")
			fmt.Fprintln(out, "  POST /api/v1/parse             - Parse a batch of filenames")
			fmt.Fprintln(out, "  GET  /api/v1/tokens?filename=  - Show tokens")
			fmt.Fprintln(out, "  GET  /api/v1/history           - Recent recorded parses")
			fmt.Fprintln(out, "  GET  /api/v1/history/stats     - History totals")
			fmt.Fprintln(out, "  GET  /api/v1/search?title=     - Fuzzy title search")
			fmt.Fprintln(out, "  GET  /api/v1/health            - Health check")
			fmt.Fprintln(out, "  GET  /metrics                  - Prometheus metrics")

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return server.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default: from config)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "serve without the history database")

	return cmd
}
