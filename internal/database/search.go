package database

import (
	"sort"

	"github.com/hbollon/go-edlib"
)

// MinTitleSimilarity is the Jaro-Winkler score a title needs to be
// returned by SearchTitles.
const MinTitleSimilarity float32 = 0.5

// TitleMatch is a recorded anime title similar to a search query
type TitleMatch struct {
	Title      string  `json:"title" yaml:"title"`
	Similarity float32 `json:"similarity" yaml:"similarity"`
	Parses     int     `json:"parses" yaml:"parses"`
}

// SearchTitles fuzzy-matches query against recorded anime titles, best
// first. Titles are compared in normalized form so punctuation and
// spacing differences do not matter.
func (h *HistoryDB) SearchTitles(query string, limit int) ([]TitleMatch, error) {
	q := NormalizeTitle(query)
	if q == "" {
		return []TitleMatch{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	h.mu.RLock()
	rows, err := h.db.Query(`
		SELECT p.title_normalized, MIN(e.value), COUNT(DISTINCT p.id)
		FROM parses p
		JOIN elements e ON e.parse_id = p.id AND e.category = 'anime_title'
		WHERE p.title_normalized != ''
		GROUP BY p.title_normalized
	`)
	if err != nil {
		h.mu.RUnlock()
		return nil, err
	}

	matches := []TitleMatch{}
	for rows.Next() {
		var normalized, title string
		var n int
		if err := rows.Scan(&normalized, &title, &n); err != nil {
			rows.Close()
			h.mu.RUnlock()
			return nil, err
		}
		similarity := edlib.JaroWinklerSimilarity(q, normalized)
		if similarity >= MinTitleSimilarity {
			matches = append(matches, TitleMatch{Title: title, Similarity: similarity, Parses: n})
		}
	}
	err = rows.Err()
	rows.Close()
	h.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Title < matches[j].Title
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
