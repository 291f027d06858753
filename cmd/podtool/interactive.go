package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/pod-runtime/debug"
	"github.com/wippyai/pod-runtime/pod"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// row is one visible line of the tree.
type row struct {
	node  *debug.Node
	depth int
}

type browserModel struct {
	err       error
	root      *debug.Node
	collapsed map[*debug.Node]bool
	search    textinput.Model
	filename  string
	rows      []row
	selected  int
	top       int
	height    int
	searching bool
}

func newBrowserModel(filename string, root *debug.Node) *browserModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "search labels"
	ti.Width = 40

	m := &browserModel{
		root:      root,
		collapsed: map[*debug.Node]bool{},
		search:    ti,
		filename:  filename,
		height:    20,
	}
	m.refresh()
	return m
}

// refresh rebuilds the visible rows, skipping children of collapsed nodes.
func (m *browserModel) refresh() {
	m.rows = m.rows[:0]
	var visit func(n *debug.Node, depth int)
	visit = func(n *debug.Node, depth int) {
		m.rows = append(m.rows, row{node: n, depth: depth})
		if m.collapsed[n] {
			return
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(m.root, 0)
	m.selected = min(m.selected, len(m.rows)-1)
	m.scroll()
}

func (m *browserModel) scroll() {
	if m.selected < m.top {
		m.top = m.selected
	}
	if m.selected >= m.top+m.height {
		m.top = m.selected - m.height + 1
	}
}

// findNext selects the next row after the current one whose label contains
// the search text, wrapping around.
func (m *browserModel) findNext() {
	q := strings.ToLower(m.search.Value())
	if q == "" {
		return
	}
	for i := 1; i <= len(m.rows); i++ {
		idx := (m.selected + i) % len(m.rows)
		if strings.Contains(strings.ToLower(m.rows[idx].node.Label), q) {
			m.selected = idx
			m.scroll()
			return
		}
	}
	m.err = fmt.Errorf("no match for %q", m.search.Value())
}

func (m *browserModel) Init() tea.Cmd {
	return nil
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-6, 1)
		m.scroll()

	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "enter":
				m.searching = false
				m.search.Blur()
				m.findNext()
				return m, nil
			case "esc":
				m.searching = false
				m.search.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			return m, cmd
		}

		m.err = nil
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.scroll()
			}

		case "down", "j":
			if m.selected < len(m.rows)-1 {
				m.selected++
				m.scroll()
			}

		case "enter", " ":
			n := m.rows[m.selected].node
			if len(n.Children) > 0 {
				m.collapsed[n] = !m.collapsed[n]
				m.refresh()
			}

		case "/":
			m.searching = true
			m.search.SetValue("")
			return m, m.search.Focus()

		case "n":
			m.findNext()
		}
	}
	return m, nil
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("POD Browser"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	q := strings.ToLower(m.search.Value())
	end := min(m.top+m.height, len(m.rows))
	for i := m.top; i < end; i++ {
		r := m.rows[i]
		marker := "  "
		if len(r.node.Children) > 0 {
			marker = "▾ "
			if m.collapsed[r.node] {
				marker = "▸ "
			}
		}
		line := strings.Repeat("  ", r.depth) + marker + r.node.Label
		switch {
		case i == m.selected:
			line = selectedStyle.Render(line)
		case q != "" && strings.Contains(strings.ToLower(r.node.Label), q):
			line = matchStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.searching:
		b.WriteString(m.search.View())
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
	default:
		b.WriteString(helpStyle.Render("↑/↓ move • enter fold • / search • n next • q quit"))
	}
	return b.String()
}

func runInteractive(filename string, p pod.Pod, reg *debug.Registry) error {
	root, err := debug.Tree(p, reg)
	if err != nil {
		return err
	}
	prog := tea.NewProgram(newBrowserModel(filename, root), tea.WithAltScreen())
	_, err = prog.Run()
	return err
}
