// Package output renders parse results, tokens and history in the formats
// accepted by the --format flag.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Nomadcxx/animeparse/internal/database"
	"github.com/Nomadcxx/animeparse/internal/parser"
	"github.com/Nomadcxx/animeparse/internal/scanner"
	"github.com/Nomadcxx/animeparse/internal/ui"
	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
)

var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists every supported format, for flag help.
func Formats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatYAML), string(FormatCSV)}
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, s, strings.Join(Formats(), ", "))
}

// ParseResult is one parsed filename.
type ParseResult struct {
	Filename string           `json:"filename" yaml:"filename"`
	Success  bool             `json:"success" yaml:"success"`
	Elements []parser.Element `json:"elements" yaml:"elements"`
}

// NewParseResult flattens a parse for rendering.
func NewParseResult(filename string, success bool, elems *parser.Elements) ParseResult {
	return ParseResult{Filename: filename, Success: success, Elements: elems.All()}
}

// elementRow is the CSV shape of a parse: one row per element.
type elementRow struct {
	Filename string `csv:"filename"`
	Success  bool   `csv:"success"`
	Position int    `csv:"position"`
	Category string `csv:"category"`
	Value    string `csv:"value"`
}

type tokenRow struct {
	Index      int    `csv:"index" json:"index" yaml:"index"`
	Text       string `csv:"text" json:"text" yaml:"text"`
	Kind       string `csv:"kind" json:"kind" yaml:"kind"`
	Enclosed   bool   `csv:"enclosed" json:"enclosed" yaml:"enclosed"`
	Identified bool   `csv:"identified" json:"identified" yaml:"identified"`
	Category   string `csv:"category" json:"category,omitempty" yaml:"category,omitempty"`
}

type historyRow struct {
	ID       int64  `csv:"id"`
	RunID    string `csv:"run_id"`
	Path     string `csv:"path"`
	Filename string `csv:"filename"`
	Success  bool   `csv:"success"`
	ParsedAt string `csv:"parsed_at"`
	Title    string `csv:"title"`
	Episode  string `csv:"episode"`
}

type categoryRow struct {
	Category string `csv:"category"`
	Count    int    `csv:"count"`
}

type matchRow struct {
	Title      string  `csv:"title"`
	Similarity float32 `csv:"similarity"`
	Parses     int     `csv:"parses"`
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// writeStructured handles the formats that need no custom layout.
func writeStructured(w io.Writer, f Format, v interface{}) (bool, error) {
	switch f {
	case FormatJSON:
		return true, writeJSON(w, v)
	case FormatYAML:
		return true, writeYAML(w, v)
	}
	return false, nil
}

func categoryName(c parser.Category) string {
	if c == parser.Unknown {
		return ""
	}
	return c.String()
}

func elementRows(results []ParseResult) []elementRow {
	var rows []elementRow
	for _, r := range results {
		if len(r.Elements) == 0 {
			rows = append(rows, elementRow{Filename: r.Filename, Success: r.Success, Position: -1})
			continue
		}
		for i, el := range r.Elements {
			rows = append(rows, elementRow{
				Filename: r.Filename,
				Success:  r.Success,
				Position: i,
				Category: el.Category.String(),
				Value:    el.Value,
			})
		}
	}
	return rows
}

// WriteParses renders parse results. JSON and YAML emit a single object
// for one result and a list otherwise.
func WriteParses(w io.Writer, f Format, results []ParseResult) error {
	var v interface{} = results
	if len(results) == 1 {
		v = results[0]
	}
	if ok, err := writeStructured(w, f, v); ok {
		return err
	}
	if f == FormatCSV {
		return gocsv.Marshal(elementRows(results), w)
	}

	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		status := ui.Success("✓")
		if !r.Success {
			status = ui.Error("✗")
		}
		fmt.Fprintf(w, "%s %s\n", status, ui.Path(r.Filename))
		if len(r.Elements) == 0 {
			fmt.Fprintln(w, ui.Dim("  no elements"))
			continue
		}
		rows := make([][]string, len(r.Elements))
		for j, el := range r.Elements {
			rows[j] = []string{"  " + el.Category.String(), ui.Category(el.Category, el.Value)}
		}
		ui.CompactTable(w, []string{"  Category", "Value"}, rows)
	}
	return nil
}

// WriteTokens renders the token arena of one filename.
func WriteTokens(w io.Writer, f Format, filename string, tokens []parser.Token) error {
	rows := make([]tokenRow, len(tokens))
	for i, t := range tokens {
		rows[i] = tokenRow{
			Index:      i,
			Text:       t.Text,
			Kind:       t.Kind.String(),
			Enclosed:   t.Enclosed,
			Identified: t.Identified,
			Category:   categoryName(t.Category),
		}
	}

	doc := struct {
		Filename string     `json:"filename" yaml:"filename"`
		Tokens   []tokenRow `json:"tokens" yaml:"tokens"`
	}{filename, rows}
	if ok, err := writeStructured(w, f, doc); ok {
		return err
	}
	if f == FormatCSV {
		return gocsv.Marshal(rows, w)
	}

	tbl := ui.NewTable("#", "Text", "Kind", "Enclosed", "Category")
	for _, r := range rows {
		enclosed := ""
		if r.Enclosed {
			enclosed = "yes"
		}
		tbl.AddRow(strconv.Itoa(r.Index), strconv.Quote(r.Text), r.Kind, enclosed, r.Category)
	}
	tbl.Render(w)
	return nil
}

// WriteHistory renders recorded parses, newest first.
func WriteHistory(w io.Writer, f Format, recs []database.ParseRecord) error {
	if recs == nil {
		recs = []database.ParseRecord{}
	}
	if ok, err := writeStructured(w, f, recs); ok {
		return err
	}

	rows := make([]historyRow, len(recs))
	for i, r := range recs {
		ep := ""
		for _, el := range r.Elements {
			if el.Category == parser.EpisodeNumber {
				ep = el.Value
				break
			}
		}
		rows[i] = historyRow{
			ID:       r.ID,
			RunID:    r.RunID,
			Path:     r.Path,
			Filename: r.Filename,
			Success:  r.Success,
			ParsedAt: r.ParsedAt.UTC().Format(time.RFC3339),
			Title:    r.Title(),
			Episode:  ep,
		}
	}
	if f == FormatCSV {
		return gocsv.Marshal(rows, w)
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "No parses recorded")
		return nil
	}
	tbl := ui.NewTable("Parsed", "OK", "Title", "Ep", "Filename")
	for i, r := range rows {
		ok := "yes"
		if !r.Success {
			ok = "no"
		}
		tbl.AddRow(ui.FormatTime(recs[i].ParsedAt), ok, r.Title, r.Episode, r.Filename)
	}
	tbl.Render(w)
	return nil
}

// WriteMatches renders fuzzy title search results.
func WriteMatches(w io.Writer, f Format, matches []database.TitleMatch) error {
	if matches == nil {
		matches = []database.TitleMatch{}
	}
	if ok, err := writeStructured(w, f, matches); ok {
		return err
	}

	rows := make([]matchRow, len(matches))
	for i, m := range matches {
		rows[i] = matchRow{Title: m.Title, Similarity: m.Similarity, Parses: m.Parses}
	}
	if f == FormatCSV {
		return gocsv.Marshal(rows, w)
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "No matching titles")
		return nil
	}
	tbl := ui.NewTable("Title", "Similarity", "Parses")
	for _, r := range rows {
		tbl.AddRow(r.Title, fmt.Sprintf("%.2f", r.Similarity), ui.FormatCount(r.Parses))
	}
	tbl.Render(w)
	return nil
}

// WriteStats renders history totals and per-category counts.
func WriteStats(w io.Writer, f Format, stats *database.Stats, categories []database.CategoryCount) error {
	if categories == nil {
		categories = []database.CategoryCount{}
	}
	doc := struct {
		Totals     *database.Stats          `json:"totals" yaml:"totals"`
		Categories []database.CategoryCount `json:"categories" yaml:"categories"`
	}{stats, categories}
	if ok, err := writeStructured(w, f, doc); ok {
		return err
	}
	if f == FormatCSV {
		rows := make([]categoryRow, len(categories))
		for i, c := range categories {
			rows[i] = categoryRow{Category: c.Category.String(), Count: c.Count}
		}
		return gocsv.Marshal(rows, w)
	}

	fmt.Fprintf(w, "Parses:   %s\n", ui.FormatCount(stats.Parses))
	fmt.Fprintf(w, "Failures: %s\n", ui.FormatCount(stats.Failures))
	fmt.Fprintf(w, "Runs:     %s\n", ui.FormatCount(stats.Runs))
	fmt.Fprintf(w, "Titles:   %s\n", ui.FormatCount(stats.Titles))
	if len(categories) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	rows := make([][]string, len(categories))
	for i, c := range categories {
		rows[i] = []string{c.Category.String(), ui.FormatCount(c.Count)}
	}
	ui.CompactTable(w, []string{"Category", "Elements"}, rows)
	return nil
}

// WriteSummary renders the outcome of a scan. CSV emits the per-file
// element rows.
func WriteSummary(w io.Writer, f Format, s *scanner.Summary) error {
	results := make([]ParseResult, len(s.Results))
	for i, r := range s.Results {
		results[i] = NewParseResult(r.Path, r.Success, r.Elements)
	}

	doc := struct {
		RunID      string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
		Files      int           `json:"files" yaml:"files"`
		Successes  int           `json:"successes" yaml:"successes"`
		Failures   int           `json:"failures" yaml:"failures"`
		DurationMS int64         `json:"duration_ms" yaml:"duration_ms"`
		Results    []ParseResult `json:"results" yaml:"results"`
	}{s.RunID, s.Files, s.Successes, s.Failures, s.Duration.Milliseconds(), results}
	if ok, err := writeStructured(w, f, doc); ok {
		return err
	}
	if f == FormatCSV {
		return gocsv.Marshal(elementRows(results), w)
	}

	failed := 0
	for _, r := range results {
		if r.Success {
			continue
		}
		if failed == 0 {
			ui.Section(w, "Unparsed files")
		}
		failed++
		fmt.Fprintln(w, "  "+ui.Error("✗")+" "+r.Filename)
	}

	ui.Section(w, "Scan summary")
	fmt.Fprintf(w, "Files:     %s\n", ui.FormatCount(s.Files))
	fmt.Fprintf(w, "Parsed:    %s\n", ui.FormatCount(s.Successes))
	fmt.Fprintf(w, "Failed:    %s\n", ui.FormatCount(s.Failures))
	fmt.Fprintf(w, "Duration:  %s\n", ui.FormatDuration(s.Duration))
	if s.RunID != "" {
		fmt.Fprintf(w, "Run:       %s\n", s.RunID)
	}
	return nil
}
