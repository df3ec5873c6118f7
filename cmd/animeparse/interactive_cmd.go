package main

import (
	"fmt"
	"strings"

	"github.com/Nomadcxx/animeparse/internal/parser"
	"github.com/Nomadcxx/animeparse/internal/ui"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const maxPinned = 5

var (
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(22)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// interactiveModel reparses the input on every keystroke.
type interactiveModel struct {
	input      textinput.Model
	parser     *parser.Parser
	opts       parser.Options
	ok         bool
	elems      *parser.Elements
	tokens     []parser.Token
	showTokens bool
	// pinned holds names confirmed with enter, newest first.
	pinned []string
	width  int
}

func newInteractiveModel(p *parser.Parser, opts parser.Options) interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "[Group] Anime Title - 01 [1080p].mkv"
	ti.Prompt = "› "
	ti.PromptStyle = promptStyle
	ti.CharLimit = 1024
	ti.Width = 80
	ti.Focus()

	m := interactiveModel{input: ti, parser: p, opts: opts}
	m.reparse()
	return m
}

func (m *interactiveModel) reparse() {
	name := strings.TrimSpace(m.input.Value())
	m.ok, m.elems = m.parser.Parse(name, m.opts)
	m.tokens = m.parser.Tokenize(name, m.opts)
}

func (m interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 4 {
			m.input.Width = msg.Width - 4
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlT:
			m.showTokens = !m.showTokens
			return m, nil
		case tea.KeyCtrlU:
			m.input.SetValue("")
			m.reparse()
			return m, nil
		case tea.KeyEnter:
			if name := strings.TrimSpace(m.input.Value()); name != "" {
				m.pinned = append([]string{name}, m.pinned...)
				if len(m.pinned) > maxPinned {
					m.pinned = m.pinned[:maxPinned]
				}
				m.input.SetValue("")
				m.reparse()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.reparse()
	}
	return m, cmd
}

func (m interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(promptStyle.Render("animeparse") + helpStyle.Render("  type a filename") + "\n\n")
	b.WriteString(m.input.View() + "\n\n")

	switch {
	case strings.TrimSpace(m.input.Value()) == "":
		b.WriteString(helpStyle.Render("  nothing to parse yet") + "\n")
	case m.showTokens:
		for i, t := range m.tokens {
			cat := ""
			if t.Category != parser.Unknown {
				cat = t.Category.String()
			}
			b.WriteString(fmt.Sprintf("  %3d %-10s %-22q %s\n", i, t.Kind, t.Text, cat))
		}
	default:
		if !m.ok {
			b.WriteString(failStyle.Render("  could not be parsed") + "\n")
		}
		for _, el := range m.elems.All() {
			b.WriteString("  " + labelStyle.Render(el.Category.String()) + ui.Category(el.Category, el.Value) + "\n")
		}
	}

	if len(m.pinned) > 0 {
		b.WriteString("\n" + helpStyle.Render("  recent") + "\n")
		for _, name := range m.pinned {
			ok, elems := m.parser.Parse(name, m.opts)
			title, _ := elems.Get(parser.AnimeTitle)
			episode, _ := elems.Get(parser.EpisodeNumber)
			mark := selectedStyle.Render("✓")
			if !ok {
				mark = failStyle.Render("✗")
			}
			b.WriteString(fmt.Sprintf("  %s %s %s\n", mark, title, episode))
		}
	}

	b.WriteString("\n" + helpStyle.Render("  enter: pin • ctrl+t: tokens • ctrl+u: clear • esc: quit") + "\n")
	return b.String()
}

func newInteractiveCmd(g *globalFlags) *cobra.Command {
	var pf parseFlags

	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Parse filenames as you type",
		Long: `Open a terminal UI that reparses the input on every keystroke.

Press ctrl+t to switch between elements and tokens, enter to keep a
result in the recent list and esc to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !ui.IsInteractive() {
				return fmt.Errorf("interactive mode needs a terminal (use 'animeparse parse' instead)")
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			opts, err := pf.options(cmd, cfg)
			if err != nil {
				return err
			}
			p, err := newParser(cfg)
			if err != nil {
				return err
			}

			_, err = tea.NewProgram(newInteractiveModel(p, opts)).Run()
			return err
		},
	}

	pf.register(cmd)

	return cmd
}
