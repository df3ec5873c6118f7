package ui

import (
	"fmt"
	"io"

	"github.com/Nomadcxx/animeparse/internal/parser"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Base styles - will be initialized based on terminal support
	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
	warningStyle lipgloss.Style
	infoStyle    lipgloss.Style
	dimStyle     lipgloss.Style
	titleStyle   lipgloss.Style
	episodeStyle lipgloss.Style
	groupStyle   lipgloss.Style
	pathStyle    lipgloss.Style
)

func init() {
	initStyles()
}

func initStyles() {
	if !IsTerminal() {
		// Plain styles for non-terminal
		successStyle = lipgloss.NewStyle()
		errorStyle = lipgloss.NewStyle()
		warningStyle = lipgloss.NewStyle()
		infoStyle = lipgloss.NewStyle()
		dimStyle = lipgloss.NewStyle()
		titleStyle = lipgloss.NewStyle()
		episodeStyle = lipgloss.NewStyle()
		groupStyle = lipgloss.NewStyle()
		pathStyle = lipgloss.NewStyle()
		return
	}

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	episodeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	groupStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	pathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
}

func Success(text string) string {
	return successStyle.Render(text)
}

func Error(text string) string {
	return errorStyle.Render(text)
}

func Warning(text string) string {
	return warningStyle.Render(text)
}

func Info(text string) string {
	return infoStyle.Render(text)
}

func Dim(text string) string {
	return dimStyle.Render(text)
}

func Path(text string) string {
	return pathStyle.Render(text)
}

// Category renders an element value in the style of its category.
func Category(c parser.Category, text string) string {
	switch c {
	case parser.AnimeTitle, parser.EpisodeTitle:
		return titleStyle.Render(text)
	case parser.EpisodeNumber, parser.EpisodeNumberAlt, parser.AnimeSeason, parser.VolumeNumber:
		return episodeStyle.Render(text)
	case parser.ReleaseGroup:
		return groupStyle.Render(text)
	case parser.FileName, parser.FileExtension, parser.FileChecksum:
		return dimStyle.Render(text)
	}
	return infoStyle.Render(text)
}

// SuccessMsg prints a success message
func SuccessMsg(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, Success("✓")+" "+fmt.Sprintf(format, args...))
}

// WarningMsg prints a warning message
func WarningMsg(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, Warning("⚠")+" "+fmt.Sprintf(format, args...))
}

// InfoMsg prints an info message
func InfoMsg(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, Info("ℹ")+" "+fmt.Sprintf(format, args...))
}
