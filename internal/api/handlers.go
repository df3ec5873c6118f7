package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Nomadcxx/animeparse/internal/database"
	"github.com/Nomadcxx/animeparse/internal/logging"
	"github.com/Nomadcxx/animeparse/internal/parser"
	"github.com/go-playground/validator/v10"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	maxBodyBytes        = 4 << 20
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseResponse is the result of parsing one filename
type ParseResponse struct {
	Filename string           `json:"filename"`
	Success  bool             `json:"success"`
	Elements []parser.Element `json:"elements"`
}

// OptionsRequest overrides the server's default parser options. Nil
// fields keep the default.
type OptionsRequest struct {
	AllowedDelimiters  *string  `json:"allowed_delimiters,omitempty"`
	IgnoredStrings     []string `json:"ignored_strings,omitempty"`
	ParseEpisodeNumber *bool    `json:"parse_episode_number,omitempty"`
	ParseEpisodeTitle  *bool    `json:"parse_episode_title,omitempty"`
	ParseFileExtension *bool    `json:"parse_file_extension,omitempty"`
	ParseReleaseGroup  *bool    `json:"parse_release_group,omitempty"`
}

// BatchRequest is the body of POST /parse
type BatchRequest struct {
	Filenames []string        `json:"filenames" validate:"required,min=1,dive,max=4096"`
	Options   *OptionsRequest `json:"options,omitempty"`
	// Record stores the results under a new run.
	Record bool `json:"record"`
}

type BatchResponse struct {
	RunID   string          `json:"run_id,omitempty"`
	Results []ParseResponse `json:"results"`
}

func (o *OptionsRequest) apply(opts parser.Options) parser.Options {
	if o == nil {
		return opts
	}
	if o.AllowedDelimiters != nil {
		opts = opts.WithAllowedDelimiters(*o.AllowedDelimiters)
	}
	if o.IgnoredStrings != nil {
		opts = opts.WithIgnoredStrings(o.IgnoredStrings...)
	}
	if o.ParseEpisodeNumber != nil {
		opts = opts.WithParseEpisodeNumber(*o.ParseEpisodeNumber)
	}
	if o.ParseEpisodeTitle != nil {
		opts = opts.WithParseEpisodeTitle(*o.ParseEpisodeTitle)
	}
	if o.ParseFileExtension != nil {
		opts = opts.WithParseFileExtension(*o.ParseFileExtension)
	}
	if o.ParseReleaseGroup != nil {
		opts = opts.WithParseReleaseGroup(*o.ParseReleaseGroup)
	}
	return opts
}

// optionsFromQuery reads overrides from query parameters.
func optionsFromQuery(q url.Values) (*OptionsRequest, error) {
	var o OptionsRequest
	if _, ok := q["delimiters"]; ok {
		d := q.Get("delimiters")
		o.AllowedDelimiters = &d
	}
	if ignored, ok := q["ignore"]; ok {
		o.IgnoredStrings = ignored
	}
	flags := []struct {
		name string
		dst  **bool
	}{
		{"episode_number", &o.ParseEpisodeNumber},
		{"episode_title", &o.ParseEpisodeTitle},
		{"file_extension", &o.ParseFileExtension},
		{"release_group", &o.ParseReleaseGroup},
	}
	for _, f := range flags {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a boolean", f.name, raw)
		}
		*f.dst = &v
	}
	return &o, nil
}

func (s *Server) parseOne(filename string, opts parser.Options) (ParseResponse, *parser.Elements) {
	start := time.Now()
	ok, elems := s.parser.Parse(filename, opts)
	s.metrics.observeParse(ok, time.Since(start).Seconds())
	return ParseResponse{Filename: filename, Success: ok, Elements: elems.All()}, elems
}

// GET /parse?filename=
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filename := q.Get("filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "missing_filename", "filename is required")
		return
	}

	overrides, err := optionsFromQuery(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_options", err.Error())
		return
	}
	opts := overrides.apply(s.opts)
	if err := opts.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_options", err.Error())
		return
	}

	res, _ := s.parseOne(filename, opts)
	writeJSON(w, http.StatusOK, res)
}

// POST /parse
func (s *Server) handleParseBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if len(req.Filenames) > s.cfg.MaxBatch {
		writeError(w, http.StatusRequestEntityTooLarge, "batch_too_large",
			fmt.Sprintf("at most %d filenames per request", s.cfg.MaxBatch))
		return
	}

	opts := req.Options.apply(s.opts)
	if err := opts.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_options", err.Error())
		return
	}

	var resp BatchResponse
	if req.Record {
		if s.db == nil {
			writeError(w, http.StatusServiceUnavailable, "no_database", "history is disabled")
			return
		}
		runID, err := s.db.StartRun(database.SourceAPI)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database_error", err.Error())
			return
		}
		resp.RunID = runID
	}

	resp.Results = make([]ParseResponse, 0, len(req.Filenames))
	for _, filename := range req.Filenames {
		res, elems := s.parseOne(filename, opts)
		resp.Results = append(resp.Results, res)
		if resp.RunID == "" {
			continue
		}
		if _, err := s.db.RecordParse(resp.RunID, filename, res.Success, elems); err != nil {
			s.logger.Error("api", "Failed to record parse", err, logging.F("filename", filename))
			writeError(w, http.StatusInternalServerError, "database_error", err.Error())
			return
		}
	}
	if resp.RunID != "" {
		if _, err := s.db.FinishRun(resp.RunID); err != nil {
			writeError(w, http.StatusInternalServerError, "database_error", err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /tokens?filename=
func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "missing_filename", "filename is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"filename": filename,
		"tokens":   s.parser.Tokenize(filename, s.opts),
	})
}

// GET /history?limit=&failed=
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	limit, err := queryInt(r, "limit", defaultHistoryLimit, maxHistoryLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}
	failed, _ := strconv.ParseBool(r.URL.Query().Get("failed"))

	recs, err := s.db.RecentParses(limit, failed)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", err.Error())
		return
	}
	if recs == nil {
		recs = []database.ParseRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"parses": recs})
}

// GET /history/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	stats, err := s.db.CountParses()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", err.Error())
		return
	}
	categories, err := s.db.CategoryStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", err.Error())
		return
	}
	if categories == nil {
		categories = []database.CategoryCount{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totals":     stats,
		"categories": categories,
	})
}

// GET /search?title=&limit=
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	title := r.URL.Query().Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "missing_title", "title is required")
		return
	}
	limit, err := queryInt(r, "limit", 20, 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}

	matches, err := s.db.SearchTitles(title, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"history":  s.db != nil,
		"keywords": s.parser.Dictionary().Len(),
	})
}

func (s *Server) requireDB(w http.ResponseWriter) bool {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "no_database", "history is disabled")
		return false
	}
	return true
}

func queryInt(r *http.Request, name string, def, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	if v > max {
		v = max
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}
