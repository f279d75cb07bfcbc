package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	styleHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("#dbc074")).Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("#71839b"))
	styleBold   = lipgloss.NewStyle().Foreground(lipgloss.Color("#cdcecf")).Bold(true)
	styleWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("#dbc074"))
	styleError  = lipgloss.NewStyle().Foreground(lipgloss.Color("#c94f6d")).Bold(true)
)

func bold(text string) string {
	return styleBold.Render(text)
}

// renderTable aligns rows under headers with a rule between them. Widths
// are measured on visible text, so styled cells line up.
func renderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	const colGap = 2
	cols := len(headers)

	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < cols && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(string) string) {
		for i := range cols {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(style(cell))
			if i < cols-1 {
				b.WriteString(strings.Repeat(" ", max(widths[i]-lipgloss.Width(cell), 0)+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, func(s string) string { return styleHeader.Render(s) })
	rules := make([]string, cols)
	for i, w := range widths {
		rules[i] = strings.Repeat("─", w)
	}
	writeRow(rules, func(s string) string { return styleDim.Render(s) })
	for _, row := range rows {
		writeRow(row, func(s string) string { return s })
	}
	return b.String()
}

func printTable(cmd *cobra.Command, headers []string, rows [][]string, empty string) error {
	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, empty)
		return err
	}
	_, err := fmt.Fprint(out, renderTable(headers, rows))
	return err
}

func levelStyle(level zerolog.Level) lipgloss.Style {
	switch {
	case level == zerolog.NoLevel:
		return lipgloss.NewStyle()
	case level >= zerolog.ErrorLevel:
		return styleError
	case level == zerolog.WarnLevel:
		return styleWarn
	case level <= zerolog.DebugLevel:
		return styleDim
	default:
		return lipgloss.NewStyle()
	}
}
