package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// surface paints text onto one background color. lipgloss resets the
// background after every styled segment, so words are styled one at a time
// and joined with spaces that carry the background themselves.
type surface struct {
	bg    lipgloss.Color
	plain lipgloss.Style
}

func newSurface(color string) surface {
	bg := lipgloss.Color(color)
	return surface{bg: bg, plain: lipgloss.NewStyle().Background(bg)}
}

// text renders t in style on the surface. Runs of spaces are kept.
func (s surface) text(t string, style lipgloss.Style) string {
	if t == "" {
		return ""
	}
	style = style.Background(s.bg)
	words := strings.Split(t, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, s.plain.Render(" "))
}

// gap returns n background-colored spaces.
func (s surface) gap(n int) string {
	if n <= 0 {
		return ""
	}
	return s.plain.Render(strings.Repeat(" ", n))
}

// hint renders a "key:desc" pair for the command bar.
func (s surface) hint(key, desc string, keyStyle, descStyle lipgloss.Style) string {
	return s.text(key, keyStyle) + s.plain.Render(":") + s.text(desc, descStyle)
}

// spaced joins rendered segments two spaces apart.
func (s surface) spaced(segments []string) string {
	return strings.Join(segments, s.gap(2))
}

// rule draws a horizontal border of n dashes between two corners.
func (s surface) rule(left, right string, n int, style lipgloss.Style) string {
	return s.text(left+strings.Repeat("─", max(n, 0))+right, style)
}

// fill pads rendered content to width.
func (s surface) fill(content string, width int) string {
	return s.plain.Width(width).Render(content)
}
