package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// summaryTable is a minimal static-data table renderer for CLI summary
// output (node counts), adapted from the TUI's row/column
// width-matching table component down to a standalone terminal renderer.
type summaryTable struct {
	title   string
	headers []string
	rows    [][]string
}

func newSummaryTable(title string, headers ...string) *summaryTable {
	return &summaryTable{title: title, headers: headers}
}

func (t *summaryTable) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableRowStyle    = lipgloss.NewStyle().Padding(0, 1)
	tableMutedStyle  = lipgloss.NewStyle().Faint(true)
	tableTitleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

func (t *summaryTable) render() string {
	if len(t.rows) == 0 {
		return ""
	}

	var sb strings.Builder
	if t.title != "" {
		sb.WriteString(tableTitleStyle.Render(t.title))
		sb.WriteString("\n")
	}

	colWidths := make([]int, len(t.headers))
	for i, h := range t.headers {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(colWidths) {
				if w := lipgloss.Width(cell); w > colWidths[i] {
					colWidths[i] = w
				}
			}
		}
	}
	for i := range colWidths {
		colWidths[i] += 2
	}

	for i, h := range t.headers {
		sb.WriteString(tableHeaderStyle.Width(colWidths[i]).Render(h))
		if i < len(t.headers)-1 {
			sb.WriteString(tableMutedStyle.Render("|"))
		}
	}
	sb.WriteString("\n")

	total := len(t.headers) - 1
	for _, w := range colWidths {
		total += w
	}
	sb.WriteString(tableMutedStyle.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(colWidths) {
				continue
			}
			sb.WriteString(tableRowStyle.Width(colWidths[i]).Render(cell))
			if i < len(row)-1 {
				sb.WriteString(tableMutedStyle.Render("|"))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
