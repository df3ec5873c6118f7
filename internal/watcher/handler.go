package watcher

import (
	"fmt"

	"github.com/Nomadcxx/animeparse/internal/logging"
	"github.com/Nomadcxx/animeparse/internal/scanner"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSeenSize bounds how many recently parsed paths a ParseHandler
// remembers. Older paths are forgotten and parsed again if they change.
const DefaultSeenSize = 4096

// ParseHandler parses new media files and records them under one run.
// Each recently seen path is recorded once, however many write events it
// produces while being copied.
type ParseHandler struct {
	scanner  *scanner.Scanner
	recorder scanner.Recorder
	runID    string
	logger   *logging.Logger
	// OnResult is called after every parse, for display.
	OnResult func(scanner.Result)

	seen *lru.Cache[string, struct{}]
}

// NewParseHandler creates a handler remembering up to seenSize paths.
// recorder may be nil.
func NewParseHandler(s *scanner.Scanner, recorder scanner.Recorder, runID string, seenSize int, logger *logging.Logger) (*ParseHandler, error) {
	seen, err := lru.New[string, struct{}](seenSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create seen set: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &ParseHandler{
		scanner:  s,
		recorder: recorder,
		runID:    runID,
		logger:   logger,
		seen:     seen,
	}, nil
}

func (h *ParseHandler) IsMediaFile(path string) bool {
	return h.scanner.IsMediaFile(path)
}

// Seen reports how many paths the handler currently remembers.
func (h *ParseHandler) Seen() int {
	return h.seen.Len()
}

func (h *ParseHandler) HandleFileEvent(event FileEvent) error {
	switch event.Type {
	case EventDelete, EventMove:
		// a later create for the same path is a new file
		h.seen.Remove(event.Path)
		return nil
	}
	if found, _ := h.seen.ContainsOrAdd(event.Path, struct{}{}); found {
		return nil
	}

	res := h.scanner.ParseFile(event.Path)
	h.logger.Info("watcher", "Parsed file",
		logging.F("path", event.Path),
		logging.F("success", res.Success),
		logging.F("elements", res.Elements.Len()))

	if h.recorder != nil {
		if _, err := h.recorder.RecordParse(h.runID, event.Path, res.Success, res.Elements); err != nil {
			return err
		}
	}
	if h.OnResult != nil {
		h.OnResult(res)
	}
	return nil
}
