package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/bindcraft/winmd-gen/winmd"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const maxVisibleRows = 20

type modelState int

const (
	stateBrowse modelState = iota
	stateDetail
)

type browseModel struct {
	filename string
	err      error
	assembly string
	types    []winmd.TypeRow
	visible  []int
	filter   textinput.Model
	selected int
	state    modelState
}

type loadedMsg struct {
	err      error
	assembly string
	types    []winmd.TypeRow
}

func newBrowseModel(filename string) *browseModel {
	ti := textinput.New()
	ti.Placeholder = "filter types"
	ti.Prompt = "/ "
	ti.Width = 40
	ti.Focus()
	return &browseModel{filename: filename, filter: ti}
}

func (m *browseModel) Init() tea.Cmd {
	return m.loadFile
}

func (m *browseModel) loadFile() tea.Msg {
	rd, types, err := load(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{assembly: rd.Assembly(), types: types}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "up":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down":
			if m.state == stateBrowse && m.selected < len(m.visible)-1 {
				m.selected++
			}
			return m, nil

		case "enter":
			if m.state == stateBrowse && len(m.visible) > 0 {
				m.state = stateDetail
			}
			return m, nil

		case "esc":
			if m.state == stateDetail {
				m.state = stateBrowse
				return m, nil
			}
			return m, tea.Quit
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.assembly = msg.assembly
		m.types = msg.types
		m.applyFilter()
		return m, nil
	}

	if m.state == stateBrowse {
		var cmd tea.Cmd
		before := m.filter.Value()
		m.filter, cmd = m.filter.Update(msg)
		if m.filter.Value() != before {
			m.applyFilter()
		}
		return m, cmd
	}
	return m, nil
}

func (m *browseModel) applyFilter() {
	needle := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i := range m.types {
		full := strings.ToLower(m.types[i].Namespace + "." + m.types[i].Name)
		if needle == "" || strings.Contains(full, needle) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = 0
	}
}

func (m *browseModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress ctrl+c to quit.", m.err))
	}
	if m.types == nil {
		return "Loading metadata..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Metadata Browser"))
	b.WriteString(" ")
	b.WriteString(m.assembly)
	b.WriteString("\n\n")

	if m.state == stateDetail {
		t := &m.types[m.visible[m.selected]]
		b.WriteString(kindStyle.Render(t.Category()))
		b.WriteString(" ")
		b.WriteString(nameStyle.Render(t.Namespace + "." + t.Name))
		b.WriteString("\n\n")
		if len(t.Fields) > 0 {
			b.WriteString("fields:\n")
			for _, f := range t.Fields {
				b.WriteString("  " + f + "\n")
			}
		}
		if len(t.Methods) > 0 {
			b.WriteString("methods:\n")
			for _, mm := range t.Methods {
				b.WriteString("  " + mm + "\n")
			}
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back • ctrl+c quit"))
		return b.String()
	}

	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	start := 0
	if m.selected >= maxVisibleRows {
		start = m.selected - maxVisibleRows + 1
	}
	end := start + maxVisibleRows
	if end > len(m.visible) {
		end = len(m.visible)
	}
	for i := start; i < end; i++ {
		t := &m.types[m.visible[i]]
		line := kindStyle.Render(fmt.Sprintf("%-8s", t.Category())) + " " + t.Namespace + "." + nameStyle.Render(t.Name)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if len(m.visible) == 0 {
		b.WriteString(helpStyle.Render("no types match"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • enter details • type to filter • esc quit"))
	return b.String()
}

func runInteractive(filename string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode requires a terminal")
	}
	p := tea.NewProgram(newBrowseModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
