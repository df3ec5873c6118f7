package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Nomadcxx/animeparse/internal/config"
	"github.com/Nomadcxx/animeparse/internal/database"
	"github.com/Nomadcxx/animeparse/internal/logging"
	"github.com/Nomadcxx/animeparse/internal/output"
	"github.com/Nomadcxx/animeparse/internal/parser"
	"github.com/Nomadcxx/animeparse/internal/paths"
	"github.com/Nomadcxx/animeparse/internal/ui"
	"github.com/spf13/cobra"
)

var version = "dev" // Set by build flags: -ldflags="-X main.version=1.0.0"

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	cfgFile string
	dbPath  string
	verbose bool
	noColor bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "animeparse",
		Short: "Anime filename parser",
		Long: `animeparse extracts structured metadata from anime video filenames:
title, episode and season numbers, release group, resolution, codecs and more.

Features:
  - Keyword dictionary extensible from the config file
  - Directory scans and live watching with parse history in SQLite
  - HTTP API with Prometheus metrics
  - Output as tables, JSON, YAML or CSV`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				ui.DisableColors()
			}
		},
	}

	// Add custom help function to show ASCII header
	originalHelpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd.Name() == "animeparse" {
			printHeader(cmd.OutOrStdout(), version)
		}
		originalHelpFunc(cmd, args)
	})

	rootCmd.PersistentFlags().StringVar(&g.cfgFile, "config", "", "config file (default: ~/.config/animeparse/config.toml)")
	rootCmd.PersistentFlags().StringVar(&g.dbPath, "db", "", "history database (default: from config)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newParseCmd(g))
	rootCmd.AddCommand(newTokensCmd(g))
	rootCmd.AddCommand(newScanCmd(g))
	rootCmd.AddCommand(newWatchCmd(g))
	rootCmd.AddCommand(newServeCmd(g))
	rootCmd.AddCommand(newHistoryCmd(g))
	rootCmd.AddCommand(newConfigCmd(g))
	rootCmd.AddCommand(newInteractiveCmd(g))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "animeparse %s\n", version)
		},
	}
}

// configPath returns --config or the default location.
func (g *globalFlags) configPath() (string, error) {
	if g.cfgFile != "" {
		return paths.Expand(g.cfgFile)
	}
	return paths.ConfigPath()
}

func (g *globalFlags) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.cfgFile == "" {
		cfg, err = config.Load()
	} else {
		var path string
		if path, err = paths.Expand(g.cfgFile); err == nil {
			cfg, err = config.LoadFile(path)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newParser builds a parser from the configured dictionary.
func newParser(cfg *config.Config) (*parser.Parser, error) {
	dict, err := cfg.Dictionary()
	if err != nil {
		return nil, fmt.Errorf("invalid keywords: %w", err)
	}
	return parser.New(dict), nil
}

func (g *globalFlags) openHistory(cfg *config.Config) (*database.HistoryDB, error) {
	path := g.dbPath
	if path == "" {
		var err error
		if path, err = cfg.DatabasePath(); err != nil {
			return nil, err
		}
	}
	db, err := database.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// newLogger opens the rotating log file. --verbose lowers the level to debug.
func (g *globalFlags) newLogger(cfg *config.Config) (*logging.Logger, error) {
	logCfg := cfg.Logging
	if g.verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func formatFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "format", "f", string(output.FormatTable),
		fmt.Sprintf("output format (%s)", strings.Join(output.Formats(), ", ")))
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func printHeader(w io.Writer, version string) {
	fmt.Fprintln(w, asciiHeader)
	fmt.Fprintf(w, "Version: %s\n\n", version)
}
