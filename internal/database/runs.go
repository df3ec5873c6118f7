package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunSource identifies what started a parse run
type RunSource string

const (
	SourceCLI   RunSource = "cli"
	SourceScan  RunSource = "scan"
	SourceWatch RunSource = "watch"
	SourceAPI   RunSource = "api"
)

// Run is one batch of recorded parses.
type Run struct {
	ID         string
	Source     RunSource
	StartedAt  time.Time
	FinishedAt *time.Time
	Files      int
	Failures   int
}

// StartRun creates a run and returns its id.
func (h *HistoryDB) StartRun(source RunSource) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.NewString()
	_, err := h.db.Exec(`
		INSERT INTO parse_runs (id, source, started_at) VALUES (?, ?, ?)
	`, id, string(source), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run and stores its totals, counted from the
// parses recorded under it.
func (h *HistoryDB) FinishRun(id string) (*Run, error) {
	h.mu.Lock()
	res, err := h.db.Exec(`
		UPDATE parse_runs SET
			finished_at = ?,
			files = (SELECT COUNT(*) FROM parses WHERE run_id = ?),
			failures = (SELECT COUNT(*) FROM parses WHERE run_id = ? AND success = 0)
		WHERE id = ?
	`, time.Now().UTC(), id, id, id)
	h.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return h.GetRun(id)
}

func (h *HistoryDB) GetRun(id string) (*Run, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var run Run
	var source string
	var finished sql.NullTime
	err := h.db.QueryRow(`
		SELECT id, source, started_at, finished_at, files, failures
		FROM parse_runs WHERE id = ?
	`, id).Scan(&run.ID, &source, &run.StartedAt, &finished, &run.Files, &run.Failures)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	run.Source = RunSource(source)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

// Duration is zero for unfinished runs.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
