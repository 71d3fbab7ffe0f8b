package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	footerStyle = lipgloss.NewStyle().Faint(true)
)

type model struct {
	src   historySource
	table table.Model
}

func newModel(src historySource) model {
	cols := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Route", Width: 30},
		{Title: "Pushed At", Width: 20},
		{Title: "Patches", Width: 8},
	}
	t := table.New(table.WithColumns(cols), table.WithFocused(true), table.WithHeight(20))
	return model{src: src, table: t}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(loadEntries(m.src), tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		return m, tea.Batch(loadEntries(m.src), tick())
	case entriesMsg:
		rows := make([]table.Row, 0, len(msg))
		for _, e := range msg {
			rows = append(rows, table.Row{
				fmt.Sprintf("%d", e.ID),
				e.Route,
				e.PushedAt.Local().Format("15:04:05"),
				fmt.Sprintf("%d", e.PatchCount),
			})
		}
		m.table.SetRows(rows)
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("hotmeal — diff history"))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("q to quit"))
	return b.String()
}
