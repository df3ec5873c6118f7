package scanner

import (
	"time"

	"github.com/Nomadcxx/animeparse/internal/database"
	"github.com/Nomadcxx/animeparse/internal/logging"
	"github.com/Nomadcxx/animeparse/internal/parser"
)

// Recorder persists parse results. *database.HistoryDB implements it.
type Recorder interface {
	StartRun(source database.RunSource) (string, error)
	RecordParse(runID, path string, success bool, elems *parser.Elements) (*database.ParseRecord, error)
	FinishRun(id string) (*database.Run, error)
}

// Config holds configuration for a Scanner
type Config struct {
	// Extensions without the leading dot, matched case-insensitively.
	Extensions []string
	Workers    int
	SkipHidden bool
	Options    parser.Options
	// Parser defaults to the built-in dictionary.
	Parser   *parser.Parser
	Recorder Recorder
	Logger   *logging.Logger
	// OnProgress is called from worker goroutines after each file with
	// the number of files done so far and the total.
	OnProgress func(done, total int)
}

// Result is the outcome of parsing one file
type Result struct {
	Path     string           `json:"path"`
	Success  bool             `json:"success"`
	Elements *parser.Elements `json:"elements"`
}

// Summary describes a finished scan
type Summary struct {
	RunID     string        `json:"run_id,omitempty"`
	Files     int           `json:"files"`
	Successes int           `json:"successes"`
	Failures  int           `json:"failures"`
	Duration  time.Duration `json:"duration"`
	Results   []Result      `json:"results"`
}

// ScannerStatus holds the current state for health reporting
type ScannerStatus struct {
	Healthy      bool      `json:"healthy"`
	LastScan     time.Time `json:"last_scan,omitempty"`
	LastSuccess  time.Time `json:"last_success,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	LastFiles    int       `json:"last_files"`
	SkippedTicks int64     `json:"skipped_ticks"`
	Scanning     bool      `json:"scanning"`
}
