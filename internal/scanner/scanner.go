// Package scanner walks directories for media files and parses their
// names in parallel.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Nomadcxx/animeparse/internal/database"
	"github.com/Nomadcxx/animeparse/internal/logging"
	"github.com/Nomadcxx/animeparse/internal/parser"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

type Scanner struct {
	fs         afero.Fs
	extensions map[string]bool
	workers    int
	skipHidden bool
	opts       parser.Options
	parser     *parser.Parser
	recorder   Recorder
	logger     *logging.Logger
	onProgress func(done, total int)
}

// New creates a Scanner reading from fs.
func New(fs afero.Fs, cfg Config) *Scanner {
	exts := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		exts[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	p := cfg.Parser
	if p == nil {
		p = parser.New(nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Scanner{
		fs:         fs,
		extensions: exts,
		workers:    workers,
		skipHidden: cfg.SkipHidden,
		opts:       cfg.Options,
		parser:     p,
		recorder:   cfg.Recorder,
		logger:     logger,
		onProgress: cfg.OnProgress,
	}
}

// IsMediaFile reports whether path has one of the configured extensions.
func (s *Scanner) IsMediaFile(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return ext != "" && s.extensions[strings.ToLower(ext)]
}

func (s *Scanner) hidden(path string) bool {
	return s.skipHidden && strings.HasPrefix(filepath.Base(path), ".")
}

// Collect returns the media files under roots, sorted. Unreadable
// directories are logged and skipped.
func (s *Scanner) Collect(ctx context.Context, roots []string) ([]string, error) {
	var files []string
	for _, root := range roots {
		if _, err := s.fs.Stat(root); err != nil {
			return nil, fmt.Errorf("unable to scan %s: %w", root, err)
		}

		err := afero.Walk(s.fs, root, func(path string, info os.FileInfo, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				s.logger.Warn("scanner", "Directory inaccessible during scan",
					logging.F("path", path),
					logging.F("error", walkErr.Error()))
				return nil
			}
			if info.IsDir() {
				if path != root && s.hidden(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if s.hidden(path) || !s.IsMediaFile(path) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// ParseFile parses the base name of path.
func (s *Scanner) ParseFile(path string) Result {
	ok, elems := s.parser.Parse(filepath.Base(path), s.opts)
	return Result{Path: path, Success: ok, Elements: elems}
}

// Scan parses every media file under roots using the configured number
// of workers. With a Recorder the results are stored under a new run.
func (s *Scanner) Scan(ctx context.Context, roots []string, source database.RunSource) (*Summary, error) {
	start := time.Now()

	files, err := s.Collect(ctx, roots)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Files: len(files), Results: make([]Result, len(files))}
	if s.recorder != nil {
		summary.RunID, err = s.recorder.StartRun(source)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("scanner", "Scan starting",
		logging.F("files", len(files)),
		logging.F("workers", s.workers),
		logging.F("run", summary.RunID))

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := s.ParseFile(path)
			summary.Results[i] = res
			if s.recorder != nil {
				if _, err := s.recorder.RecordParse(summary.RunID, path, res.Success, res.Elements); err != nil {
					return fmt.Errorf("unable to record %s: %w", path, err)
				}
			}
			if s.onProgress != nil {
				s.onProgress(int(done.Add(1)), len(files))
			}
			return nil
		})
	}
	waitErr := g.Wait()

	if s.recorder != nil {
		if _, err := s.recorder.FinishRun(summary.RunID); err != nil && waitErr == nil {
			waitErr = err
		}
	}
	if waitErr != nil {
		s.logger.Error("scanner", "Scan failed", waitErr, logging.F("run", summary.RunID))
		return nil, waitErr
	}

	for _, res := range summary.Results {
		if res.Success {
			summary.Successes++
		} else {
			summary.Failures++
		}
	}
	summary.Duration = time.Since(start)

	s.logger.Info("scanner", "Scan complete",
		logging.F("files", summary.Files),
		logging.F("failures", summary.Failures),
		logging.F("duration_ms", summary.Duration.Milliseconds()))

	return summary, nil
}
