package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Nomadcxx/animeparse/internal/database"
	"github.com/Nomadcxx/animeparse/internal/logging"
	"github.com/robfig/cron/v3"
)

// PeriodicScanner rescans a set of paths on a cron schedule to catch
// files the watcher missed.
type PeriodicScanner struct {
	scanner  *Scanner
	schedule cron.Schedule
	spec     string
	paths    []string
	logger   *logging.Logger

	mu           sync.Mutex
	scanning     bool
	lastScan     time.Time
	lastSuccess  time.Time
	lastError    error
	lastFiles    int
	skippedTicks int64
	healthy      bool
}

// NewPeriodicScanner parses spec as a standard cron expression.
func NewPeriodicScanner(s *Scanner, spec string, paths []string) (*PeriodicScanner, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid rescan schedule %q: %w", spec, err)
	}
	return &PeriodicScanner{
		scanner:  s,
		schedule: schedule,
		spec:     spec,
		paths:    paths,
		logger:   s.logger,
		healthy:  true,
	}, nil
}

// IsHealthy returns whether the last scan succeeded
func (p *PeriodicScanner) IsHealthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.healthy
}

// Status returns the current scanner status for health reporting
func (p *PeriodicScanner) Status() ScannerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := ScannerStatus{
		Healthy:      p.healthy,
		LastScan:     p.lastScan,
		LastSuccess:  p.lastSuccess,
		LastFiles:    p.lastFiles,
		SkippedTicks: p.skippedTicks,
		Scanning:     p.scanning,
	}
	if p.lastError != nil {
		status.LastError = p.lastError.Error()
	}
	return status
}

// Start runs the schedule until ctx is cancelled, then waits for a
// running scan to finish.
func (p *PeriodicScanner) Start(ctx context.Context) error {
	p.logger.Info("scanner", "Periodic scanner starting",
		logging.F("schedule", p.spec),
		logging.F("paths", len(p.paths)))

	c := cron.New()
	c.Schedule(p.schedule, cron.FuncJob(func() { p.tick(ctx) }))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()

	p.logger.Info("scanner", "Periodic scanner stopped")
	return nil
}

// Next returns the next scheduled run after t.
func (p *PeriodicScanner) Next(t time.Time) time.Time {
	return p.schedule.Next(t)
}

func (p *PeriodicScanner) tick(ctx context.Context) {
	p.mu.Lock()
	if p.scanning {
		p.skippedTicks++
		skipped := p.skippedTicks
		p.mu.Unlock()
		p.logger.Warn("scanner", "Periodic scan skipped - previous scan still running",
			logging.F("skipped_ticks", skipped))
		return
	}
	p.scanning = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.scanning = false
		p.lastScan = time.Now()
		p.mu.Unlock()
	}()

	summary, err := p.runScan(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.lastError = err
		p.healthy = false
		p.logger.Error("scanner", "Periodic scan failed", err)
		return
	}
	p.lastSuccess = time.Now()
	p.lastError = nil
	p.lastFiles = summary.Files
	p.healthy = true
}

func (p *PeriodicScanner) runScan(ctx context.Context) (summary *Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan panic: %v", r)
		}
	}()
	return p.scanner.Scan(ctx, p.paths, database.SourceWatch)
}
