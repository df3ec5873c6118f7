package database

import (
	"github.com/Nomadcxx/animeparse/internal/parser"
)

// Stats represents database statistics
type Stats struct {
	Parses   int `json:"parses" yaml:"parses"`
	Failures int `json:"failures" yaml:"failures"`
	Runs     int `json:"runs" yaml:"runs"`
	Titles   int `json:"titles" yaml:"titles"`
}

// CountParses returns totals across all recorded parses
func (h *HistoryDB) CountParses() (*Stats, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var stats Stats

	err := h.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0) FROM parses
	`).Scan(&stats.Parses, &stats.Failures)
	if err != nil {
		return nil, err
	}

	err = h.db.QueryRow(`SELECT COUNT(*) FROM parse_runs`).Scan(&stats.Runs)
	if err != nil {
		return nil, err
	}

	err = h.db.QueryRow(`
		SELECT COUNT(DISTINCT title_normalized) FROM parses WHERE title_normalized != ''
	`).Scan(&stats.Titles)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// CategoryCount is the number of elements recorded for a category.
type CategoryCount struct {
	Category parser.Category `json:"category" yaml:"category"`
	Count    int             `json:"count" yaml:"count"`
}

// CategoryStats returns element counts per category, most frequent first.
func (h *HistoryDB) CategoryStats() ([]CategoryCount, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rows, err := h.db.Query(`
		SELECT category, COUNT(*) AS n FROM elements
		GROUP BY category
		ORDER BY n DESC, category
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []CategoryCount
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		c, err := parser.ParseCategory(name)
		if err != nil {
			continue
		}
		counts = append(counts, CategoryCount{Category: c, Count: n})
	}
	return counts, rows.Err()
}
