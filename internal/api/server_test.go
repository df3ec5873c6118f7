package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Nomadcxx/animeparse/internal/config"
	"github.com/Nomadcxx/animeparse/internal/database"
	"github.com/Nomadcxx/animeparse/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toradora = "[TaigaSubs]_Toradora!_(2008)_-_01v2_-_Tiger_and_Dragon_[1280x720_H.264_FLAC][1234ABCD].mkv"

func testServerConfig() config.ServerConfig {
	cfg := config.DefaultConfig().Server
	cfg.RateLimit = 0
	return cfg
}

func newTestServer(t *testing.T, withDB bool, cfg config.ServerConfig) (*httptest.Server, *database.HistoryDB) {
	t.Helper()
	var db *database.HistoryDB
	if withDB {
		var err error
		db, err = database.OpenInMemory()
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
	}
	srv := NewServer(nil, parser.DefaultOptions(), db, cfg, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func getJSON(t *testing.T, rawURL string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestParseEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, false, testServerConfig())

	var res ParseResponse
	status := getJSON(t, ts.URL+"/api/v1/parse?filename="+url.QueryEscape(toradora), &res)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, res.Success)
	assert.Equal(t, toradora, res.Filename)

	values := map[parser.Category][]string{}
	for _, el := range res.Elements {
		values[el.Category] = append(values[el.Category], el.Value)
	}
	assert.Equal(t, []string{"Toradora!"}, values[parser.AnimeTitle])
	assert.Equal(t, []string{"TaigaSubs"}, values[parser.ReleaseGroup])
	assert.Equal(t, []string{"mkv"}, values[parser.FileExtension])
}

func TestParseEndpoint_QueryOptions(t *testing.T) {
	ts, _ := newTestServer(t, false, testServerConfig())

	tests := []struct {
		name   string
		query  string
		status int
		check  func(t *testing.T, res ParseResponse)
	}{
		{
			name:   "release group disabled",
			query:  "&release_group=false",
			status: http.StatusOK,
			check: func(t *testing.T, res ParseResponse) {
				for _, el := range res.Elements {
					assert.NotEqual(t, parser.ReleaseGroup, el.Category)
				}
			},
		},
		{
			name:   "ignored string",
			query:  "&ignore=Dragon",
			status: http.StatusOK,
			check: func(t *testing.T, res ParseResponse) {
				assert.Contains(t, res.Elements, parser.Element{Category: parser.EpisodeTitle, Value: "Tiger and"})
			},
		},
		{
			name:   "bad boolean",
			query:  "&episode_number=maybe",
			status: http.StatusBadRequest,
		},
		{
			name:   "NUL delimiter",
			query:  "&delimiters=%00",
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res ParseResponse
			status := getJSON(t, ts.URL+"/api/v1/parse?filename="+url.QueryEscape(toradora)+tt.query, &res)
			assert.Equal(t, tt.status, status)
			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestParseEndpoint_MissingFilename(t *testing.T) {
	ts, _ := newTestServer(t, false, testServerConfig())

	var body map[string]string
	status := getJSON(t, ts.URL+"/api/v1/parse", &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "missing_filename", body["code"])
}

func postBatch(t *testing.T, ts *httptest.Server, body string) (*http.Response, BatchResponse) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/v1/parse", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out BatchResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return resp, out
}

func TestBatchEndpoint(t *testing.T) {
	ts, db := newTestServer(t, true, testServerConfig())

	resp, out := postBatch(t, ts, `{
		"filenames": ["Toradora - 01.mkv", "___"],
		"options": {"parse_file_extension": false},
		"record": true
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out.Results, 2)
	assert.True(t, out.Results[0].Success)
	assert.False(t, out.Results[1].Success)
	for _, el := range out.Results[0].Elements {
		assert.NotEqual(t, parser.FileExtension, el.Category)
	}

	require.NotEmpty(t, out.RunID)
	run, err := db.GetRun(out.RunID)
	require.NoError(t, err)
	assert.Equal(t, database.SourceAPI, run.Source)
	assert.Equal(t, 2, run.Files)
	assert.Equal(t, 1, run.Failures)
}

func TestBatchEndpoint_Rejects(t *testing.T) {
	cfg := testServerConfig()
	cfg.MaxBatch = 2
	ts, _ := newTestServer(t, false, cfg)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"not json", `{`, http.StatusBadRequest},
		{"no filenames", `{"filenames": []}`, http.StatusBadRequest},
		{"too many", `{"filenames": ["a", "b", "c"]}`, http.StatusRequestEntityTooLarge},
		{"record without database", `{"filenames": ["a"], "record": true}`, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := postBatch(t, ts, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestHistoryAndSearch(t *testing.T) {
	ts, db := newTestServer(t, true, testServerConfig())

	for _, name := range []string{
		"[Erai-raws] Shingeki no Kyojin Season 3 - 12 [720p].mkv",
		"Toradora - 01.mkv",
		"___.mkv",
	} {
		ok, elems := parser.Parse(name, parser.DefaultOptions())
		_, err := db.RecordParse("", "/dl/"+name, ok, elems)
		require.NoError(t, err)
	}

	var history struct {
		Parses []database.ParseRecord `json:"parses"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/history?limit=2", &history))
	require.Len(t, history.Parses, 2)
	assert.Equal(t, "___.mkv", history.Parses[0].Filename)

	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/history?failed=true", &history))
	require.Len(t, history.Parses, 1)

	var search struct {
		Matches []database.TitleMatch `json:"matches"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/search?title=shingeki+no+kyojin", &search))
	require.NotEmpty(t, search.Matches)
	assert.Equal(t, "Shingeki no Kyojin", search.Matches[0].Title)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/v1/search", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/v1/history?limit=-1", nil))

	var stats struct {
		Totals database.Stats `json:"totals"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/history/stats", &stats))
	assert.Equal(t, 3, stats.Totals.Parses)
	assert.Equal(t, 1, stats.Totals.Failures)
}

func TestHistory_WithoutDatabase(t *testing.T) {
	ts, _ := newTestServer(t, false, testServerConfig())
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.URL+"/api/v1/history", nil))
}

func TestTokensAndHealth(t *testing.T) {
	ts, _ := newTestServer(t, false, testServerConfig())

	var tokens struct {
		Tokens []struct {
			Text string `json:"text"`
			Kind string `json:"kind"`
		} `json:"tokens"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/tokens?filename="+url.QueryEscape("[Group] Title"), &tokens))
	require.NotEmpty(t, tokens.Tokens)
	assert.Equal(t, "[", tokens.Tokens[0].Text)
	assert.Equal(t, "open", tokens.Tokens[0].Kind)

	var health map[string]interface{}
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/health", &health))
	assert.Equal(t, "ok", health["status"])
}

func TestRateLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.RateLimit = 0.01
	cfg.Burst = 1
	ts, _ := newTestServer(t, false, cfg)

	u := ts.URL + "/api/v1/parse?filename=Toradora"
	assert.Equal(t, http.StatusOK, getJSON(t, u, nil))

	resp, err := http.Get(u)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// health is never limited
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/health", nil))
}

func TestMetrics(t *testing.T) {
	ts, _ := newTestServer(t, true, testServerConfig())

	getJSON(t, ts.URL+"/api/v1/parse?filename="+url.QueryEscape(toradora), nil)
	getJSON(t, ts.URL+"/api/v1/parse?filename=___", nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `animeparse_parses_total{result="success"} 1`)
	assert.Contains(t, text, `animeparse_parses_total{result="failure"} 1`)
	assert.Contains(t, text, "animeparse_parse_duration_seconds_count 2")
	assert.Contains(t, text, "animeparse_recorded_parses 0")
}
