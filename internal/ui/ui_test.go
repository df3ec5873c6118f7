package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Nomadcxx/animeparse/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	DisableColors()
	m.Run()
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1.5m"},
		{3 * time.Hour, "3.0h"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.d))
		})
	}
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "1,234,567", FormatCount(1234567))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"fits", "Toradora!", 20, "Toradora!"},
		{"ellipsis", "Shingeki no Kyojin", 10, "Shingek..."},
		{"tiny", "Shingeki", 2, "Sh"},
		{"zero", "Shingeki", 0, ""},
		{"multibyte", "進撃の巨人 Season 3", 8, "進撃..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.in, tt.max))
		})
	}
}

func TestTable_Render(t *testing.T) {
	tbl := NewTable("Category", "Value")
	tbl.AddRow("anime_title", "Toradora!")
	tbl.AddRow("episode_number")
	require.Equal(t, 2, tbl.Len())

	var buf bytes.Buffer
	tbl.Render(&buf)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "┌"))
	assert.Contains(t, lines[1], "Category")
	assert.Contains(t, lines[3], "Toradora!")
	assert.True(t, strings.HasPrefix(lines[5], "└"))

	// every line has the same display width
	for _, l := range lines[1:] {
		assert.Equal(t, len([]rune(lines[0])), len([]rune(l)), l)
	}
}

func TestTable_MaxWidth(t *testing.T) {
	tbl := NewTable("Path")
	tbl.SetMaxWidth(20)
	tbl.AddRow(strings.Repeat("x", 50))

	var buf bytes.Buffer
	tbl.Render(&buf)
	for _, l := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		assert.LessOrEqual(t, len([]rune(l)), 20)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestCompactTable(t *testing.T) {
	var buf bytes.Buffer
	CompactTable(&buf, []string{"A", "B"}, [][]string{{"one", "two"}, {"three"}})
	assert.Equal(t, "A      B\n─────  ───\none    two\nthree\n", buf.String())
}

func TestProgressBar_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 4, "Parsing")

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bar.Increment()
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, bar.Current())
	assert.Equal(t, "Parsing: 4/4 (100.0%)\n", strings.Split(buf.String(), "\n")[0]+"\n")
}

func TestSpinner_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Watching")
	s.Start()
	s.Stop()
	assert.Equal(t, "Watching...\n", buf.String())
}

func TestStylesArePlainWithoutColor(t *testing.T) {
	assert.Equal(t, "Toradora!", Category(parser.AnimeTitle, "Toradora!"))
	assert.Equal(t, "01", Category(parser.EpisodeNumber, "01"))

	var buf bytes.Buffer
	SuccessMsg(&buf, "parsed %d files", 3)
	assert.Equal(t, "✓ parsed 3 files\n", buf.String())

	buf.Reset()
	Section(&buf, "Runs")
	assert.Equal(t, "\nRUNS\n==========\n", buf.String())
}
