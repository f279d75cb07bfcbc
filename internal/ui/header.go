package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar: logo, user, API and sync health.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newSurface(m.theme.Surface)

	parts := []string{bg.text("aula", styles.Logo)}

	sess := m.snap.Session
	if sess.LoggedIn {
		user := sess.CurrentUser
		label := user.DisplayName()
		if label == "" {
			label = "signed in"
		}
		parts = append(parts, bg.text(label, styles.Text.Bold(true)))
		if user.Role != "" {
			parts = append(parts, bg.text(user.Role, styles.MutedText))
		}
		parts = append(parts, bg.text(fmt.Sprintf("%d pts", user.CurrentPoints), styles.AccentText))
	} else {
		parts = append(parts, bg.text("signed out", styles.WarningText))
	}

	parts = append(parts, m.renderSyncStatus(styles, bg))

	if m.width >= 100 && m.baseURL != "" {
		parts = append(parts, bg.text(truncateMiddle(m.baseURL, 40), styles.FaintText))
	}
	if m.inflight > 0 {
		parts = append(parts, bg.text(m.spinner.View(), styles.AccentText))
	}

	return styles.Header.Width(m.width).Render(bg.spaced(parts))
}

func (m Model) renderSyncStatus(styles Styles, bg surface) string {
	h := m.health
	switch {
	case h.IsOffline():
		return bg.text(fmt.Sprintf("OFFLINE (%d failed refreshes)", h.ConsecutiveFailures), styles.DangerText)
	case h.LastError != nil:
		return bg.text("sync failed", styles.WarningText.Bold(true))
	case h.LastSynced.IsZero():
		return bg.text("not synced", styles.FaintText)
	default:
		label := "synced " + h.LastSynced.Format("15:04:05")
		if m.refreshEvery > 0 {
			label += fmt.Sprintf(" / %s", m.refreshEvery)
		}
		return bg.text(label, styles.MutedText)
	}
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newSurface(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewCourses, ViewModules, ViewLessons:
		commands = []cmd{{"j/k", "Navigate"}, {"enter", "Open"}, {"esc", "Back"}, {"r", "Refresh"}}
	case ViewLesson:
		commands = []cmd{{"j/k", "Scroll"}, {"esc", "Lessons"}}
		if m.snap.Session.LoggedIn {
			commands = append(commands, cmd{"m", "Complete"})
		}
	case ViewLogs:
		commands = []cmd{{"j/k", "Scroll"}, {"G", "Follow"}, {"esc", "Back"}}
	default:
		commands = []cmd{{"c", "Courses"}, {"p", "Progress"}, {"a", "Achievements"}, {"l", "Log"}}
	}
	if m.snap.Session.LoggedIn {
		commands = append(commands, cmd{"X", "Log out"})
	} else {
		commands = append(commands, cmd{"L", "Log in"})
	}
	commands = append(commands, cmd{"?", "More"})

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments, bg.hint(c.key, c.desc, styles.AccentText, styles.MutedText))
	}
	segments = append(segments, bg.hint("T", m.theme.Name, styles.AccentText, styles.FaintText))

	return styles.Header.Width(m.width).Render(bg.spaced(segments))
}

// renderAlert renders the store's alert, or an empty line.
func (m Model) renderAlert() string {
	alert := m.snap.Alert
	line := lipgloss.NewStyle().Width(m.width).Padding(0, 1)
	if !alert.Display || alert.Text == "" {
		return line.Render("")
	}
	color := m.theme.AlertColor(alert.Color)
	return line.
		Foreground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(color)).
		Bold(true).
		Render(truncate(alert.Text, m.width-9) + "  (esc)")
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// truncateMiddle keeps both ends of s, favoring the end.
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 5 {
		return string(r[:max])
	}
	endLen := (max - 3) * 2 / 3
	startLen := max - 3 - endLen
	return string(r[:startLen]) + "..." + string(r[len(r)-endLen:])
}
