package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Nomadcxx/animeparse/internal/database"
	"github.com/Nomadcxx/animeparse/internal/parser"
	"github.com/Nomadcxx/animeparse/internal/scanner"
	"github.com/Nomadcxx/animeparse/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMain(m *testing.M) {
	ui.DisableColors()
	m.Run()
}

func parseResult(t *testing.T, filename string) ParseResult {
	t.Helper()
	ok, elems := parser.Parse(filename, parser.DefaultOptions())
	return NewParseResult(filename, ok, elems)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"csv", FormatCSV, false},
		{"", FormatTable, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteParses_JSON(t *testing.T) {
	res := parseResult(t, "[Erai-raws] Shingeki no Kyojin Season 3 - 12 [720p].mkv")

	var buf bytes.Buffer
	require.NoError(t, WriteParses(&buf, FormatJSON, []ParseResult{res}))

	var decoded struct {
		Filename string `json:"filename"`
		Success  bool   `json:"success"`
		Elements []struct {
			Category string `json:"category"`
			Value    string `json:"value"`
		} `json:"elements"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.True(t, decoded.Success)
	assert.Contains(t, decoded.Elements, struct {
		Category string `json:"category"`
		Value    string `json:"value"`
	}{"anime_title", "Shingeki no Kyojin"})
}

func TestWriteParses_YAMLList(t *testing.T) {
	results := []ParseResult{
		parseResult(t, "Toradora - 01.mkv"),
		parseResult(t, "___.mkv"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteParses(&buf, FormatYAML, results))

	var decoded []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Toradora - 01.mkv", decoded[0]["filename"])
	assert.Equal(t, false, decoded[1]["success"])
	assert.Contains(t, buf.String(), "category: anime_title")
}

func TestWriteParses_CSV(t *testing.T) {
	results := []ParseResult{
		{Filename: "a.mkv", Success: true, Elements: []parser.Element{
			{Category: parser.AnimeTitle, Value: "Toradora!"},
			{Category: parser.EpisodeNumber, Value: "01"},
		}},
		{Filename: "b.mkv", Success: false},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteParses(&buf, FormatCSV, results))
	assert.Equal(t, strings.Join([]string{
		"filename,success,position,category,value",
		"a.mkv,true,0,anime_title,Toradora!",
		"a.mkv,true,1,episode_number,01",
		"b.mkv,false,-1,,",
	}, "\n")+"\n", buf.String())
}

func TestWriteParses_Table(t *testing.T) {
	results := []ParseResult{
		{Filename: "a.mkv", Success: true, Elements: []parser.Element{
			{Category: parser.AnimeTitle, Value: "Toradora!"},
		}},
		{Filename: "b.mkv", Success: false},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteParses(&buf, FormatTable, results))
	out := buf.String()
	assert.Contains(t, out, "✓ a.mkv")
	assert.Contains(t, out, "anime_title  Toradora!")
	assert.Contains(t, out, "✗ b.mkv\n  no elements")
}

func TestWriteTokens(t *testing.T) {
	tokens := parser.Tokenize("[Group] Title", parser.DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, WriteTokens(&buf, FormatCSV, "[Group] Title", tokens))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Greater(t, len(lines), 1)
	assert.Equal(t, "index,text,kind,enclosed,identified,category", lines[0])
	assert.Equal(t, "0,[,open,true,false,", lines[1])

	buf.Reset()
	require.NoError(t, WriteTokens(&buf, FormatTable, "[Group] Title", tokens))
	assert.Contains(t, buf.String(), `"Group"`)
	assert.Contains(t, buf.String(), "release_group")
}

func TestWriteHistory(t *testing.T) {
	recs := []database.ParseRecord{{
		ID:       7,
		RunID:    "run-1",
		Path:     "/dl/Toradora - 01.mkv",
		Filename: "Toradora - 01.mkv",
		Success:  true,
		ParsedAt: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
		Elements: []parser.Element{
			{Category: parser.AnimeTitle, Value: "Toradora"},
			{Category: parser.EpisodeNumber, Value: "01"},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, FormatCSV, recs))
	assert.Equal(t,
		"id,run_id,path,filename,success,parsed_at,title,episode\n"+
			"7,run-1,/dl/Toradora - 01.mkv,Toradora - 01.mkv,true,2024-04-01T12:00:00Z,Toradora,01\n",
		buf.String())

	buf.Reset()
	require.NoError(t, WriteHistory(&buf, FormatTable, nil))
	assert.Equal(t, "No parses recorded\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteHistory(&buf, FormatJSON, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteMatches(t *testing.T) {
	matches := []database.TitleMatch{{Title: "Shingeki no Kyojin", Similarity: 0.93, Parses: 1200}}

	var buf bytes.Buffer
	require.NoError(t, WriteMatches(&buf, FormatTable, matches))
	assert.Contains(t, buf.String(), "Shingeki no Kyojin")
	assert.Contains(t, buf.String(), "0.93")
	assert.Contains(t, buf.String(), "1,200")
}

func TestWriteStats(t *testing.T) {
	stats := &database.Stats{Parses: 3, Failures: 1, Runs: 1, Titles: 2}
	cats := []database.CategoryCount{{Category: parser.AnimeTitle, Count: 2}}

	var buf bytes.Buffer
	require.NoError(t, WriteStats(&buf, FormatCSV, stats, cats))
	assert.Equal(t, "category,count\nanime_title,2\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteStats(&buf, FormatTable, stats, cats))
	assert.Contains(t, buf.String(), "Failures: 1")
}

func TestWriteSummary(t *testing.T) {
	ok, elems := parser.Parse("Toradora - 01.mkv", parser.DefaultOptions())
	failOK, failElems := parser.Parse("___.mkv", parser.DefaultOptions())
	summary := &scanner.Summary{
		RunID:     "run-1",
		Files:     2,
		Successes: 1,
		Failures:  1,
		Duration:  1500 * time.Millisecond,
		Results: []scanner.Result{
			{Path: "/dl/Toradora - 01.mkv", Success: ok, Elements: elems},
			{Path: "/dl/___.mkv", Success: failOK, Elements: failElems},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, FormatTable, summary))
	out := buf.String()
	assert.Contains(t, out, "UNPARSED FILES")
	assert.Contains(t, out, "✗ /dl/___.mkv")
	assert.Contains(t, out, "Duration:  1.5s")
	assert.Contains(t, out, "Run:       run-1")

	buf.Reset()
	require.NoError(t, WriteSummary(&buf, FormatJSON, summary))
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, float64(1500), decoded["duration_ms"])
}
