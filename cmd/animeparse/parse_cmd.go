package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Nomadcxx/animeparse/internal/config"
	"github.com/Nomadcxx/animeparse/internal/database"
	"github.com/Nomadcxx/animeparse/internal/output"
	"github.com/Nomadcxx/animeparse/internal/parser"
	"github.com/spf13/cobra"
)

// parseFlags override the [parser] config section when set.
type parseFlags struct {
	delimiters      string
	ignore          []string
	noEpisodeNumber bool
	noEpisodeTitle  bool
	noFileExtension bool
	noReleaseGroup  bool
}

func (f *parseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.delimiters, "delimiters", "", "allowed delimiter characters (default: from config)")
	cmd.Flags().StringArrayVar(&f.ignore, "ignore", nil, "substring to strip before parsing (repeatable)")
	cmd.Flags().BoolVar(&f.noEpisodeNumber, "no-episode-number", false, "do not search for episode numbers")
	cmd.Flags().BoolVar(&f.noEpisodeTitle, "no-episode-title", false, "do not search for an episode title")
	cmd.Flags().BoolVar(&f.noFileExtension, "no-file-extension", false, "treat the whole name as the base name")
	cmd.Flags().BoolVar(&f.noReleaseGroup, "no-release-group", false, "do not search for a release group")
}

// options layers the flags over the configured defaults.
func (f *parseFlags) options(cmd *cobra.Command, cfg *config.Config) (parser.Options, error) {
	opts := cfg.ParserOptions()
	if cmd.Flags().Changed("delimiters") {
		opts = opts.WithAllowedDelimiters(f.delimiters)
	}
	if len(f.ignore) > 0 {
		ignored := make([]string, 0, len(opts.IgnoredStrings)+len(f.ignore))
		ignored = append(append(ignored, opts.IgnoredStrings...), f.ignore...)
		opts = opts.WithIgnoredStrings(ignored...)
	}
	if f.noEpisodeNumber {
		opts = opts.WithParseEpisodeNumber(false)
	}
	if f.noEpisodeTitle {
		opts = opts.WithParseEpisodeTitle(false)
	}
	if f.noFileExtension {
		opts = opts.WithParseFileExtension(false)
	}
	if f.noReleaseGroup {
		opts = opts.WithParseReleaseGroup(false)
	}
	return opts, opts.Validate()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// filenameArg returns the base name of an argument naming an existing file.
// Anything else is parsed as given, so titles such as "Fate/Zero" keep
// their slash.
func filenameArg(arg string) string {
	if isFile(arg) {
		return filepath.Base(arg)
	}
	return arg
}

func newParseCmd(g *globalFlags) *cobra.Command {
	var (
		pf     parseFlags
		format string
		record bool
	)

	cmd := &cobra.Command{
		Use:   "parse <filename>...",
		Short: "Parse anime filenames",
		Long: `Parse one or more anime filenames and print the extracted elements.

Arguments naming existing files are reduced to their base name, so full
paths are accepted. Anything else is parsed as given. A filename that
cannot be parsed is reported but does not change the exit code.

Examples:
  animeparse parse "[TaigaSubs]_Toradora!_(2008)_-_01v2_-_Tiger_and_Dragon_[1280x720_H.264_FLAC][1234ABCD].mkv"
  animeparse parse --format json ~/Downloads/*.mkv
  animeparse parse --no-release-group --ignore "[Batch]" "[Batch] Show - 01.mkv"
  animeparse parse --record --format csv *.mkv > parses.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			opts, err := pf.options(cmd, cfg)
			if err != nil {
				return err
			}
			p, err := newParser(cfg)
			if err != nil {
				return err
			}

			results := make([]output.ParseResult, len(args))
			parsed := make([]*parser.Elements, len(args))
			for i, arg := range args {
				name := filenameArg(arg)
				ok, elems := p.Parse(name, opts)
				results[i] = output.NewParseResult(name, ok, elems)
				parsed[i] = elems
			}

			if record {
				if err := recordParses(g, cfg, args, results, parsed); err != nil {
					return err
				}
			}

			return output.WriteParses(cmd.OutOrStdout(), f, results)
		},
	}

	pf.register(cmd)
	formatFlag(cmd, &format)
	cmd.Flags().BoolVar(&record, "record", false, "store the results in the history database")

	return cmd
}

// recordParses stores a CLI batch as one run.
func recordParses(g *globalFlags, cfg *config.Config, args []string, results []output.ParseResult, parsed []*parser.Elements) error {
	db, err := g.openHistory(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.StartRun(database.SourceCLI)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	for i, res := range results {
		path := args[i]
		if isFile(path) {
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
		}
		if _, err := db.RecordParse(runID, path, res.Success, parsed[i]); err != nil {
			return fmt.Errorf("failed to record %s: %w", res.Filename, err)
		}
	}
	if _, err := db.FinishRun(runID); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

func newTokensCmd(g *globalFlags) *cobra.Command {
	var (
		pf     parseFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "tokens <filename>",
		Short: "Show how a filename is tokenized",
		Long: `Print the tokens a filename is split into after a full parse: the text,
its kind (free, delimiter, open or close bracket), whether it lies inside
brackets and the category that claimed it.

Useful for working out why a name parses the way it does.

Examples:
  animeparse tokens "[Erai-raws] Shingeki no Kyojin Season 3 - 12 [720p].mkv"
  animeparse tokens --format json "Toradora - 01.mkv"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			opts, err := pf.options(cmd, cfg)
			if err != nil {
				return err
			}
			p, err := newParser(cfg)
			if err != nil {
				return err
			}

			name := filenameArg(args[0])
			return output.WriteTokens(cmd.OutOrStdout(), f, name, p.Tokenize(name, opts))
		},
	}

	pf.register(cmd)
	formatFlag(cmd, &format)

	return cmd
}
