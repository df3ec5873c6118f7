package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Nomadcxx/animeparse/internal/logging"
	"github.com/Nomadcxx/animeparse/internal/parser"
	"github.com/Nomadcxx/animeparse/internal/paths"
	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Parser   ParserConfig        `mapstructure:"parser" toml:"parser"`
	Keywords map[string][]string `mapstructure:"keywords" toml:"keywords" validate:"dive,keys,category,endkeys"`
	Scan     ScanConfig          `mapstructure:"scan" toml:"scan"`
	Watch    WatchConfig         `mapstructure:"watch" toml:"watch"`
	Server   ServerConfig        `mapstructure:"server" toml:"server"`
	Database DatabaseConfig      `mapstructure:"database" toml:"database"`
	Logging  logging.Config      `mapstructure:"logging" toml:"logging"`
}

// ParserConfig mirrors parser.Options.
type ParserConfig struct {
	AllowedDelimiters  string   `mapstructure:"allowed_delimiters" toml:"allowed_delimiters"`
	IgnoredStrings     []string `mapstructure:"ignored_strings" toml:"ignored_strings"`
	ParseEpisodeNumber bool     `mapstructure:"parse_episode_number" toml:"parse_episode_number"`
	ParseEpisodeTitle  bool     `mapstructure:"parse_episode_title" toml:"parse_episode_title"`
	ParseFileExtension bool     `mapstructure:"parse_file_extension" toml:"parse_file_extension"`
	ParseReleaseGroup  bool     `mapstructure:"parse_release_group" toml:"parse_release_group"`
}

// ScanConfig controls directory scans
type ScanConfig struct {
	// Extensions are matched case-insensitively, without the dot.
	Extensions []string `mapstructure:"extensions" toml:"extensions" validate:"min=1,dive,required"`
	Workers    int      `mapstructure:"workers" toml:"workers" validate:"gte=1,lte=64"`
	SkipHidden bool     `mapstructure:"skip_hidden" toml:"skip_hidden"`
}

type WatchConfig struct {
	Paths     []string `mapstructure:"paths" toml:"paths"`
	Recursive bool     `mapstructure:"recursive" toml:"recursive"`
	// RescanSchedule is a standard cron spec. Empty disables rescans.
	RescanSchedule string `mapstructure:"rescan_schedule" toml:"rescan_schedule" validate:"omitempty,cronspec"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr" toml:"addr" validate:"required"`
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins"`
	RateLimit      float64  `mapstructure:"rate_limit" toml:"rate_limit" validate:"gte=0"` // requests per second, 0 = unlimited
	Burst          int      `mapstructure:"burst" toml:"burst" validate:"gte=0"`
	MaxBatch       int      `mapstructure:"max_batch" toml:"max_batch" validate:"gte=1,lte=10000"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path"` // empty = ~/.config/animeparse/history.db
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	opts := parser.DefaultOptions()
	return &Config{
		Parser: ParserConfig{
			AllowedDelimiters:  opts.AllowedDelimiters,
			IgnoredStrings:     []string{},
			ParseEpisodeNumber: opts.ParseEpisodeNumber,
			ParseEpisodeTitle:  opts.ParseEpisodeTitle,
			ParseFileExtension: opts.ParseFileExtension,
			ParseReleaseGroup:  opts.ParseReleaseGroup,
		},
		Keywords: map[string][]string{},
		Scan: ScanConfig{
			Extensions: []string{"mkv", "mp4", "avi", "webm", "m4v", "ogm", "wmv", "flv", "rmvb"},
			Workers:    4,
			SkipHidden: true,
		},
		Watch: WatchConfig{
			Paths:     []string{},
			Recursive: true,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8787",
			AllowedOrigins: []string{"*"},
			RateLimit:      20,
			Burst:          40,
			MaxBatch:       1000,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from the default path or returns defaults
func Load() (*Config, error) {
	configPath, err := paths.ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to get config path: %w", err)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path. A missing file yields defaults.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// customValidations are the struct tags config fields use beyond the
// validator built-ins.
var customValidations = map[string]validator.Func{
	"category": validateCategory,
	"cronspec": validateCronSpec,
}

func newValidator(rules map[string]validator.Func) (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("failed to register %q validation: %w", tag, err)
		}
	}
	return v, nil
}

func validateCategory(fl validator.FieldLevel) bool {
	_, err := parser.ParseCategory(fl.Field().String())
	return err == nil
}

func validateCronSpec(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// Validate checks struct constraints and the parser options.
func (c *Config) Validate() error {
	v, err := newValidator(customValidations)
	if err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.ParserOptions().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ParserOptions builds the per-parse options from the [parser] section.
func (c *Config) ParserOptions() parser.Options {
	return parser.DefaultOptions().
		WithAllowedDelimiters(c.Parser.AllowedDelimiters).
		WithIgnoredStrings(c.Parser.IgnoredStrings...).
		WithParseEpisodeNumber(c.Parser.ParseEpisodeNumber).
		WithParseEpisodeTitle(c.Parser.ParseEpisodeTitle).
		WithParseFileExtension(c.Parser.ParseFileExtension).
		WithParseReleaseGroup(c.Parser.ParseReleaseGroup)
}

// Dictionary returns the built-in vocabulary extended with [keywords].
// Built-in entries win over configured ones.
func (c *Config) Dictionary() (*parser.Dictionary, error) {
	dict := parser.DefaultDictionary()
	for _, name := range sortedKeys(c.Keywords) {
		cat, err := parser.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("%w: keywords: %w", ErrInvalidConfig, err)
		}
		dict.Add(cat, parser.DefaultKeywordOptions(), c.Keywords[name]...)
	}
	return dict, nil
}

// DatabasePath resolves the configured database path.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path == "" {
		return paths.DatabasePath()
	}
	return paths.Expand(c.Database.Path)
}

func (c *Config) SaveTo(configFile string) error {
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("unable to create config dir: %w", err)
	}
	return os.WriteFile(configFile, []byte(c.ToTOML()), 0644)
}

// Show renders the effective configuration without comments.
func (c *Config) Show() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("unable to encode config: %w", err)
	}
	return string(data), nil
}

func (c *Config) ToTOML() string {
	return fmt.Sprintf(`# animeparse configuration
# Generated by: animeparse config init

# ============================================================================
# PARSER
# Defaults for every parse (CLI flags and API parameters override these)
# ============================================================================
[parser]
# Characters that split free text into words
allowed_delimiters = %q

# Substrings removed from the filename before parsing (first occurrence)
ignored_strings = %s

parse_episode_number = %v
parse_episode_title = %v
parse_file_extension = %v
parse_release_group = %v

# ============================================================================
# EXTRA KEYWORDS
# category = ["word", ...]; built-in keywords take precedence
# Example: release_group = ["TaigaSubs"]
# ============================================================================
[keywords]
%s
# ============================================================================
# SCAN
# ============================================================================
[scan]
# Media file extensions picked up by scan and watch
extensions = %s
workers = %d
skip_hidden = %v

# ============================================================================
# WATCH
# Directories watched for new media files
# ============================================================================
[watch]
paths = %s
recursive = %v

# Cron schedule for full rescans of watched paths (empty disables)
# Example: "0 */6 * * *"
rescan_schedule = %q

# ============================================================================
# HTTP API
# ============================================================================
[server]
addr = %q
allowed_origins = %s

# Requests per second per server (0 disables limiting)
rate_limit = %g
burst = %d

# Maximum filenames per batch request
max_batch = %d

# ============================================================================
# DATABASE
# ============================================================================
[database]
# Empty uses ~/.config/animeparse/history.db
path = %q

# ============================================================================
# LOGGING
# ============================================================================
[logging]
level = %q
file = %q
max_size_mb = %d
max_backups = %d
compress = %v
console = %v
`,
		c.Parser.AllowedDelimiters,
		formatStringSlice(c.Parser.IgnoredStrings),
		c.Parser.ParseEpisodeNumber,
		c.Parser.ParseEpisodeTitle,
		c.Parser.ParseFileExtension,
		c.Parser.ParseReleaseGroup,
		formatKeywords(c.Keywords),
		formatStringSlice(c.Scan.Extensions),
		c.Scan.Workers,
		c.Scan.SkipHidden,
		formatStringSlice(c.Watch.Paths),
		c.Watch.Recursive,
		c.Watch.RescanSchedule,
		c.Server.Addr,
		formatStringSlice(c.Server.AllowedOrigins),
		c.Server.RateLimit,
		c.Server.Burst,
		c.Server.MaxBatch,
		c.Database.Path,
		c.Logging.Level,
		c.Logging.File,
		c.Logging.MaxSizeMB,
		c.Logging.MaxBackups,
		c.Logging.Compress,
		c.Logging.Console,
	)
}

func formatKeywords(m map[string][]string) string {
	var sb strings.Builder
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(&sb, "%s = %s\n", k, formatStringSlice(m[k]))
	}
	return sb.String()
}

func formatStringSlice(s []string) string {
	if len(s) == 0 {
		return "[]"
	}
	quoted := make([]string, len(s))
	for i, v := range s {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
