package render

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aminech33/newmars/scanner"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	detailStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// browseModel is the bubbletea model for the interactive component list.
type browseModel struct {
	deps   []scanner.CodeDependency
	total  int
	cursor int
	offset int
	height int
	width  int
}

func newBrowseModel(result *scanner.AnalysisResult) browseModel {
	deps := make([]scanner.CodeDependency, len(result.Dependencies))
	copy(deps, result.Dependencies)
	sort.SliceStable(deps, func(i, j int) bool {
		return strings.ToLower(deps[i].ComponentName) < strings.ToLower(deps[j].ComponentName)
	})
	return browseModel{deps: deps, total: result.TotalFiles, height: 20, width: 80}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height - 4
		if m.height < 3 {
			m.height = 3
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.deps)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			if len(m.deps) > 0 {
				m.cursor = len(m.deps) - 1
			}
		}
	}

	// keep the cursor inside the visible window
	if m.cursor < m.offset {
		m.offset = m.cursor
	} else if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
	return m, nil
}

func (m browseModel) View() string {
	if len(m.deps) == 0 {
		return dimStyle.Render("No components found. Press q to quit.") + "\n"
	}

	var list strings.Builder
	list.WriteString(titleStyle.Render(fmt.Sprintf("Components (%d/%d files)", len(m.deps), m.total)))
	list.WriteString("\n")
	end := m.offset + m.height
	if end > len(m.deps) {
		end = len(m.deps)
	}
	for i := m.offset; i < end; i++ {
		name := m.deps[i].ComponentName
		if i == m.cursor {
			list.WriteString(selectedStyle.Render("▸ " + name))
		} else {
			list.WriteString("  " + name)
		}
		list.WriteString("\n")
	}

	d := m.deps[m.cursor]
	var detail strings.Builder
	detail.WriteString(titleStyle.Render(d.ComponentName))
	detail.WriteString("\n")
	detail.WriteString(dimStyle.Render(d.FilePath))
	detail.WriteString("\n\nImports:\n")
	if len(d.Imports) == 0 {
		detail.WriteString(dimStyle.Render("  (none)") + "\n")
	}
	for _, imp := range d.Imports {
		detail.WriteString("  " + imp + "\n")
	}
	detail.WriteString("\nStore:\n")
	if len(d.StoreUsage) == 0 {
		detail.WriteString(dimStyle.Render("  (none)") + "\n")
	}
	for _, f := range d.StoreUsage {
		detail.WriteString("  state." + f + "\n")
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, list.String(), "  ", detailStyle.Render(strings.TrimRight(detail.String(), "\n")))
	return body + "\n" + dimStyle.Render("↑/↓ move · g/G first/last · q quit") + "\n"
}

// Browse opens an interactive list of the report's components.
func Browse(result *scanner.AnalysisResult) error {
	p := tea.NewProgram(newBrowseModel(result), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
