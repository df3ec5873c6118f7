package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar shows a simple progress bar. Safe for concurrent Increment
// calls from scan workers.
type ProgressBar struct {
	mu      sync.Mutex
	total   int
	current int
	width   int
	writer  io.Writer
	label   string
}

// NewProgressBar creates a new progress bar
func NewProgressBar(w io.Writer, total int, label string) *ProgressBar {
	return &ProgressBar{
		total:  total,
		width:  40,
		writer: w,
		label:  label,
	}
}

// Update updates the progress bar
func (p *ProgressBar) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = min(current, p.total)
	p.render()
}

// Increment increments the progress by 1
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = min(p.current+1, p.total)
	p.render()
}

// Current returns the number of completed items.
func (p *ProgressBar) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *ProgressBar) render() {
	percent := 100.0
	if p.total > 0 {
		percent = float64(p.current) / float64(p.total) * 100
	}

	if !IsTerminal() {
		// Non-terminal: only the final count, carriage returns would pile up
		if p.current >= p.total {
			fmt.Fprintf(p.writer, "%s: %d/%d (%.1f%%)\n", p.label, p.current, p.total, percent)
		}
		return
	}

	filled := p.width
	if p.total > 0 {
		filled = p.width * p.current / p.total
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.width-filled)
	fmt.Fprintf(p.writer, "\r%s [%s] %d/%d (%.1f%%)", p.label, bar, p.current, p.total, percent)

	if p.current >= p.total {
		fmt.Fprintln(p.writer)
	}
}

// Spinner shows an animated spinner for indeterminate progress
type Spinner struct {
	chars  []string
	index  int
	done   chan struct{}
	wg     sync.WaitGroup
	label  string
	writer io.Writer
}

// NewSpinner creates a new spinner
func NewSpinner(w io.Writer, label string) *Spinner {
	return &Spinner{
		chars:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		done:   make(chan struct{}),
		label:  label,
		writer: w,
	}
}

// Start starts the spinner animation
func (s *Spinner) Start() {
	if !IsTerminal() {
		fmt.Fprintf(s.writer, "%s...\n", s.label)
		return
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				fmt.Fprintf(s.writer, "\r%s %s", s.chars[s.index], s.label)
				s.index = (s.index + 1) % len(s.chars)
			}
		}
	}()
}

// Stop stops the spinner and clears its line
func (s *Spinner) Stop() {
	close(s.done)
	s.wg.Wait()
	if IsTerminal() {
		fmt.Fprint(s.writer, "\r"+strings.Repeat(" ", len(s.label)+10)+"\r")
	}
}
