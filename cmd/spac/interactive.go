package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// headerLines and footerLines are the rows the viewport does not get.
const (
	headerLines = 2
	footerLines = 2
)

type inspectModel struct {
	title    string
	content  string
	viewport viewport.Model
	ready    bool
}

func newInspectModel(title, content string) *inspectModel {
	return &inspectModel{title: title, content: content}
}

func (m *inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		height := max(msg.Height-headerLines-footerLines, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *inspectModel) View() string {
	if !m.ready {
		return "Decoding..."
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("spac inspect"))
	b.WriteString(" ")
	b.WriteString(m.title)
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("↑/↓ scroll • %3.f%% • q quit", m.viewport.ScrollPercent()*100)))
	return b.String()
}

// inspectContent renders what the viewer scrolls through. A decode error
// is appended after the spans read before it.
func inspectContent(s *session, data []byte) string {
	var b strings.Builder
	if err := s.inspect(&b, data); err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		b.WriteString("\n")
	}
	return b.String()
}

func runInteractive(s *session, data []byte) error {
	title := fmt.Sprintf("%s (%d bytes)", s.root.String(), len(data))
	p := tea.NewProgram(newInspectModel(title, inspectContent(s, data)), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
