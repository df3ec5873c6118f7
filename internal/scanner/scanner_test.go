package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Nomadcxx/animeparse/internal/database"
	"github.com/Nomadcxx/animeparse/internal/parser"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFs(t *testing.T, files ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, []byte{}, 0o644))
	}
	return fs
}

func testConfig() Config {
	return Config{
		Extensions: []string{"mkv", ".MP4"},
		Workers:    3,
		SkipHidden: true,
		Options:    parser.DefaultOptions(),
	}
}

func TestIsMediaFile(t *testing.T) {
	s := New(afero.NewMemMapFs(), testConfig())

	tests := []struct {
		path string
		want bool
	}{
		{"/a/Show - 01.mkv", true},
		{"/a/Show - 01.MKV", true},
		{"/a/Show - 01.mp4", true},
		{"/a/Show - 01.srt", false},
		{"/a/noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, s.IsMediaFile(tt.path))
		})
	}
}

func TestCollect(t *testing.T) {
	fs := newTestFs(t,
		"/dl/b/[Group] Show - 02.mkv",
		"/dl/a/[Group] Show - 01.mkv",
		"/dl/a/notes.txt",
		"/dl/.hidden/Show - 03.mkv",
		"/dl/.Show - 04.mkv",
	)
	s := New(fs, testConfig())

	files, err := s.Collect(context.Background(), []string{"/dl"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/dl/a/[Group] Show - 01.mkv",
		"/dl/b/[Group] Show - 02.mkv",
	}, files)

	_, err = s.Collect(context.Background(), []string{"/missing"})
	assert.Error(t, err)
}

func TestScan_WithoutRecorder(t *testing.T) {
	fs := newTestFs(t,
		"/dl/[HorribleSubs] Boku no Hero Academia - 01 [1080p].mkv",
		"/dl/[HorribleSubs] Boku no Hero Academia - 02 [1080p].mkv",
		"/dl/___.mkv",
	)
	s := New(fs, testConfig())

	summary, err := s.Scan(context.Background(), []string{"/dl"}, database.SourceScan)
	require.NoError(t, err)
	assert.Empty(t, summary.RunID)
	assert.Equal(t, 3, summary.Files)
	assert.Equal(t, 2, summary.Successes)
	assert.Equal(t, 1, summary.Failures)

	first := summary.Results[0]
	title, _ := first.Elements.Get(parser.AnimeTitle)
	assert.Equal(t, "Boku no Hero Academia", title)
	assert.Equal(t, []string{"01"}, first.Elements.GetAll(parser.EpisodeNumber))
}

func TestScan_ReportsProgress(t *testing.T) {
	fs := newTestFs(t, "/dl/Show - 01.mkv", "/dl/Show - 02.mkv", "/dl/Show - 03.mkv")
	cfg := testConfig()

	var mu sync.Mutex
	var seen []int
	cfg.OnProgress = func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, total)
		seen = append(seen, done)
	}

	_, err := New(fs, cfg).Scan(context.Background(), []string{"/dl"}, database.SourceScan)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, seen)
}

func TestScan_RecordsRun(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	fs := newTestFs(t,
		"/dl/Toradora - 01.mkv",
		"/dl/Toradora - 02.mkv",
	)
	cfg := testConfig()
	cfg.Recorder = db
	s := New(fs, cfg)

	summary, err := s.Scan(context.Background(), []string{"/dl"}, database.SourceScan)
	require.NoError(t, err)
	require.NotEmpty(t, summary.RunID)

	run, err := db.GetRun(summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Files)
	assert.Equal(t, 0, run.Failures)
	require.NotNil(t, run.FinishedAt)

	rec, err := db.GetParseByPath("/dl/Toradora - 02.mkv")
	require.NoError(t, err)
	assert.Equal(t, "Toradora", rec.Title())
}

type failingRecorder struct {
	finished bool
}

func (f *failingRecorder) StartRun(database.RunSource) (string, error) { return "run-1", nil }

func (f *failingRecorder) RecordParse(string, string, bool, *parser.Elements) (*database.ParseRecord, error) {
	return nil, errors.New("disk full")
}

func (f *failingRecorder) FinishRun(string) (*database.Run, error) {
	f.finished = true
	return &database.Run{}, nil
}

func TestScan_RecordErrorStopsScan(t *testing.T) {
	fs := newTestFs(t, "/dl/Toradora - 01.mkv")
	rec := &failingRecorder{}
	cfg := testConfig()
	cfg.Recorder = rec
	s := New(fs, cfg)

	_, err := s.Scan(context.Background(), []string{"/dl"}, database.SourceScan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, rec.finished, "run is closed even when recording fails")
}

func TestScan_Cancelled(t *testing.T) {
	fs := newTestFs(t, "/dl/Toradora - 01.mkv")
	s := New(fs, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Scan(ctx, []string{"/dl"}, database.SourceScan)
	assert.ErrorIs(t, err, context.Canceled)
}
