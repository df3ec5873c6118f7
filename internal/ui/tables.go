package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table creates a formatted table for output
type Table struct {
	headers  []string
	rows     [][]string
	maxWidth int // Maximum total table width
}

// NewTable creates a new table
func NewTable(headers ...string) *Table {
	return &Table{
		headers:  headers,
		rows:     [][]string{},
		maxWidth: 120, // Default max width
	}
}

// SetMaxWidth sets the maximum table width
func (t *Table) SetMaxWidth(width int) {
	t.maxWidth = width
}

// AddRow adds a row to the table. Missing cells are left blank and
// extra values are dropped.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	copy(row, values)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows added so far.
func (t *Table) Len() int {
	return len(t.rows)
}

// columnWidths measures display width so styled and wide-rune cells line up.
func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.headers))
	totalWidth := 0
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
		for _, row := range t.rows {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
		widths[i] += 2              // Padding
		totalWidth += widths[i] + 1 // +1 for separator
	}

	// Reduce largest columns first
	excess := totalWidth + 1 - t.maxWidth
	for excess > 0 {
		maxIdx := 0
		for i := 1; i < len(widths); i++ {
			if widths[i] > widths[maxIdx] {
				maxIdx = i
			}
		}
		if widths[maxIdx] <= 10 {
			break
		}
		widths[maxIdx]--
		excess--
	}
	return widths
}

// Render writes the table with box-drawing borders to w
func (t *Table) Render(w io.Writer) {
	if len(t.headers) == 0 {
		return
	}
	widths := t.columnWidths()

	border := func(left, mid, right string) {
		var b strings.Builder
		b.WriteString(left)
		for i, cw := range widths {
			b.WriteString(strings.Repeat("─", cw))
			if i < len(widths)-1 {
				b.WriteString(mid)
			}
		}
		b.WriteString(right)
		fmt.Fprintln(w, b.String())
	}
	line := func(cells []string) {
		var b strings.Builder
		b.WriteString("│")
		for i, cw := range widths {
			b.WriteString(" ")
			b.WriteString(pad(truncate(cells[i], cw-2), cw-2))
			b.WriteString(" │")
		}
		fmt.Fprintln(w, b.String())
	}

	border("┌", "┬", "┐")
	line(t.headers)
	border("├", "┼", "┤")
	for _, row := range t.rows {
		line(row)
	}
	border("└", "┴", "┘")
}

// CompactTable writes a simpler table without borders
func CompactTable(w io.Writer, headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
		for _, row := range rows {
			if i < len(row) && lipgloss.Width(row[i]) > widths[i] {
				widths[i] = lipgloss.Width(row[i])
			}
		}
	}

	writeRow := func(cells []string) {
		parts := make([]string, len(headers))
		for i := range headers {
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			parts[i] = pad(val, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	writeRow(headers)
	seps := make([]string, len(widths))
	for i, cw := range widths {
		seps[i] = strings.Repeat("─", cw)
	}
	writeRow(seps)
	for _, row := range rows {
		writeRow(row)
	}
}

func pad(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// truncate shortens s to maxLen runes, ending with an ellipsis
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		if len(runes) > maxLen {
			runes = runes[:maxLen]
		}
		return string(runes)
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > maxLen {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
