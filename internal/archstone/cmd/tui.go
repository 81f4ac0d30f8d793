package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"

	"archstone/internal/archstone/styles"
)

type shellModel struct {
	session  *session
	viewport viewport.Model
	history  []string
	input    string
	width    int
	height   int
}

func newShellModel(s *session) shellModel {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(22)

	m := shellModel{session: s, viewport: vp, width: 80, height: 24}
	m.history = []string{s.Banner()}
	m.refresh()
	return m
}

func (m *shellModel) refresh() {
	m.viewport.SetContent(strings.Join(m.history, "\n"))
	m.viewport.GotoBottom()
}

func (m shellModel) Init() tea.Cmd {
	return nil
}

func (m shellModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(msg.Height - 2)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			line := m.input
			m.input = ""
			text, quit := m.session.Eval(line)
			if quit {
				return m, tea.Quit
			}
			m.history = append(m.history, styles.Prompt.Render(">")+" "+line)
			if text != "" {
				m.history = append(m.history, text)
			}
			m.refresh()
			return m, nil
		case "backspace":
			if r := []rune(m.input); len(r) > 0 {
				m.input = string(r[:len(r)-1])
			}
			return m, nil
		case "space":
			m.input += " "
			return m, nil
		case "pgup", "pgdown", "up", "down":
		default:
			if len([]rune(key)) == 1 {
				m.input += key
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m shellModel) View() string {
	input := styles.Prompt.Render(">") + " " + m.input + "█"
	menu := styles.Menu.Width(m.width).Render(fmt.Sprintf(" %s • :arm/:thumb switch • PgUp/PgDn scroll • Esc: quit ", m.session.mode))
	return m.viewport.View() + "\n" + input + "\n" + menu
}

func runTUI(ctx context.Context, s *session) error {
	program := tea.NewProgram(
		newShellModel(s),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
