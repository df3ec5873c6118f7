package database

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nomadcxx/animeparse/internal/parser"
)

// ParseRecord is one stored parse result
type ParseRecord struct {
	ID       int64            `json:"id" yaml:"id"`
	RunID    string           `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Path     string           `json:"path" yaml:"path"`
	Filename string           `json:"filename" yaml:"filename"`
	Success  bool             `json:"success" yaml:"success"`
	ParsedAt time.Time        `json:"parsed_at" yaml:"parsed_at"`
	Elements []parser.Element `json:"elements" yaml:"elements"`
}

// Title returns the first anime title element, if any.
func (r *ParseRecord) Title() string {
	for _, el := range r.Elements {
		if el.Category == parser.AnimeTitle {
			return el.Value
		}
	}
	return ""
}

// RecordParse stores a parse result and its elements in discovery order.
// An empty runID records the parse outside any run.
func (h *HistoryDB) RecordParse(runID, path string, success bool, elems *parser.Elements) (*ParseRecord, error) {
	rec := &ParseRecord{
		RunID:    runID,
		Path:     path,
		Filename: filepath.Base(path),
		Success:  success,
		ParsedAt: time.Now().UTC(),
		Elements: elems.All(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	tx, err := h.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO parses (run_id, path, filename, success, parsed_at, title_normalized)
		VALUES (?, ?, ?, ?, ?, ?)
	`, nullString(runID), rec.Path, rec.Filename, rec.Success, rec.ParsedAt, NormalizeTitle(rec.Title()))
	if err != nil {
		return nil, fmt.Errorf("failed to insert parse: %w", err)
	}
	rec.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}

	stmt, err := tx.Prepare(`INSERT INTO elements (parse_id, position, category, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for i, el := range rec.Elements {
		if _, err := stmt.Exec(rec.ID, i, el.Category.String(), el.Value); err != nil {
			return nil, fmt.Errorf("failed to insert element: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetParseByPath returns the most recent parse of path.
func (h *HistoryDB) GetParseByPath(path string) (*ParseRecord, error) {
	recs, err := h.queryParses(`
		SELECT id, COALESCE(run_id, ''), path, filename, success, parsed_at
		FROM parses WHERE path = ?
		ORDER BY id DESC LIMIT 1
	`, path)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("parse of %s: %w", path, ErrNotFound)
	}
	return &recs[0], nil
}

// RecentParses returns up to limit parses, newest first.
func (h *HistoryDB) RecentParses(limit int, failedOnly bool) ([]ParseRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, COALESCE(run_id, ''), path, filename, success, parsed_at
		FROM parses`
	if failedOnly {
		query += ` WHERE success = 0`
	}
	query += ` ORDER BY id DESC LIMIT ?`
	return h.queryParses(query, limit)
}

// ParsesForRun returns the parses recorded under a run in insertion order.
func (h *HistoryDB) ParsesForRun(runID string) ([]ParseRecord, error) {
	return h.queryParses(`
		SELECT id, COALESCE(run_id, ''), path, filename, success, parsed_at
		FROM parses WHERE run_id = ?
		ORDER BY id
	`, runID)
}

func (h *HistoryDB) queryParses(query string, args ...any) ([]ParseRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, err
	}

	var recs []ParseRecord
	for rows.Next() {
		var rec ParseRecord
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Path, &rec.Filename, &rec.Success, &rec.ParsedAt); err != nil {
			rows.Close()
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// rows must be closed first, in-memory databases have a single connection
	for i := range recs {
		recs[i].Elements, err = h.loadElements(recs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (h *HistoryDB) loadElements(parseID int64) ([]parser.Element, error) {
	rows, err := h.db.Query(`
		SELECT category, value FROM elements WHERE parse_id = ? ORDER BY position
	`, parseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	elems := []parser.Element{}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		c, err := parser.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("parse %d: %w", parseID, err)
		}
		elems = append(elems, parser.Element{Category: c, Value: value})
	}
	return elems, rows.Err()
}

// DeleteParsesBefore removes parses older than t and returns how many
// were removed.
func (h *HistoryDB) DeleteParsesBefore(t time.Time) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	res, err := h.db.Exec(`DELETE FROM parses WHERE parsed_at < ?`, t.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
