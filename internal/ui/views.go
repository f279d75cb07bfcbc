package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/five82/aula/internal/lms"
)

// listRow is one line of a list view: a label and a colored status.
type listRow struct {
	label  string
	status string
	kind   string // StatusColors key
}

// renderMain renders header, command bar, alert line and the active view.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderAlert())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

func (m Model) renderContent() string {
	h := m.contentHeight()
	switch m.currentView {
	case ViewDashboard:
		return m.renderTitledBox("Dashboard", m.dashboardBody(), m.width, h, true)
	case ViewCourses:
		title := "Courses"
		if !m.snap.Session.LoggedIn {
			title = "Public courses"
		}
		return m.renderList(title, m.courseRows(), h)
	case ViewModules:
		return m.renderList("Modules · "+m.snap.Selection.Course.Title, m.moduleRows(), h)
	case ViewLessons:
		return m.renderList("Lessons · "+m.snap.Selection.Module.Title, m.lessonRows(), h)
	case ViewLesson:
		return m.renderTitledBox(m.snap.Selection.Lesson.Title, m.detailViewport.View(), m.width, h, true)
	case ViewProgress:
		if !m.snap.Session.LoggedIn {
			return m.renderEmpty("Log in (L) to see your progress", h)
		}
		return m.renderList("My progress", m.progressRows(), h)
	case ViewAchievements:
		if !m.snap.Session.LoggedIn {
			return m.renderEmpty("Log in (L) to see your achievements", h)
		}
		return m.renderList("Achievements", m.achievementRows(), h)
	case ViewLogs:
		return m.renderTitledBox("Client log", m.logViewport.View(), m.width, h, true)
	default:
		return ""
	}
}

func (m Model) renderEmpty(msg string, height int) string {
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center,
		m.theme.Styles().MutedText.Render(msg))
}

// renderList renders rows in a titled box, scrolled to keep the cursor
// visible.
func (m Model) renderList(title string, rows []listRow, height int) string {
	if len(rows) == 0 {
		msg := "Nothing here yet"
		if m.inflight > 0 {
			msg = "Loading..."
		}
		return m.renderTitledBox(title, m.theme.Styles().MutedText.Render(msg), m.width, height, true)
	}

	width := m.width - 2
	visible := max(height-2, 1)
	cursor := m.cursor[m.currentView]
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := min(len(rows), start+visible)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.formatRow(rows[i], width, i == cursor))
	}
	return m.renderTitledBox(title, strings.Join(lines, "\n"), m.width, height, true)
}

// formatRow renders "label · status". Selected rows use the selection
// colors throughout for contrast.
func (m Model) formatRow(row listRow, width int, selected bool) string {
	bgColor := m.theme.FocusBg
	if selected {
		bgColor = m.theme.SelectionBg
	}
	bg := newSurface(bgColor)

	labelWidth := max(width-len([]rune(row.status))-4, 10)
	var labelStyle, sepStyle, statusStyle lipgloss.Style
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		labelStyle, sepStyle, statusStyle = sel, sel, sel
	} else {
		styles := m.theme.Styles()
		labelStyle = styles.Text
		sepStyle = styles.FaintText
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(row.kind)))
	}

	content := bg.text(truncate(row.label, labelWidth), labelStyle)
	if row.status != "" {
		content += bg.text(" · ", sepStyle) + bg.text(row.status, statusStyle)
	}
	return bg.fill(content, width)
}

// renderTitledBox renders content in a box with the title in the top border:
// ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColor, bgColor := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColor, bgColor = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := newSurface(bgColor)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := len([]rune(title))
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	top := bg.rule("┌", "", leftPad, borderStyle) +
		bg.text(" "+title+" ", titleStyle) +
		bg.rule("", "┐", rightPad, borderStyle)
	bottom := bg.rule("└", "┘", innerWidth, borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).Background(lipgloss.Color(bgColor))
	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)

	lines := make([]string, 0, boxHeight)
	for i := range boxHeight {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines, bg.text("│", borderStyle)+contentStyle.Render(line)+bg.text("│", borderStyle))
	}
	return top + "\n" + strings.Join(lines, "\n") + "\n" + bottom
}

// Rows

func (m Model) courseList() []lms.Course {
	if m.snap.Session.LoggedIn {
		return m.snap.Courses
	}
	return m.snap.PublicCourses
}

func (m Model) listLen(v View) int {
	switch v {
	case ViewCourses:
		return len(m.courseList())
	case ViewModules:
		return len(m.snap.Modules)
	case ViewLessons:
		return len(m.snap.Lessons)
	case ViewProgress:
		return len(m.snap.Progress)
	case ViewAchievements:
		return len(m.snap.Achievements)
	default:
		return 0
	}
}

func (m Model) courseRows() []listRow {
	courses := m.courseList()
	rows := make([]listRow, 0, len(courses))
	for _, c := range courses {
		status, kind := fmt.Sprintf("%d pts", c.Points), "in_progress"
		if !c.IsActive && m.snap.Session.LoggedIn {
			status, kind = "inactive", "locked"
		}
		rows = append(rows, listRow{label: c.Title, status: status, kind: kind})
	}
	return rows
}

func (m Model) moduleRows() []listRow {
	rows := make([]listRow, 0, len(m.snap.Modules))
	for _, mod := range m.snap.Modules {
		rows = append(rows, listRow{
			label:  fmt.Sprintf("%d. %s", mod.Order, mod.Title),
			status: fmt.Sprintf("%d pts", mod.Points),
			kind:   "not_started",
		})
	}
	return rows
}

func (m Model) lessonRows() []listRow {
	done := m.completedLessons()
	rows := make([]listRow, 0, len(m.snap.Lessons))
	for _, l := range m.snap.Lessons {
		row := listRow{label: fmt.Sprintf("%d. %s", l.Order, l.Title), status: "not started", kind: "not_started"}
		if done[l.ID] {
			row.status, row.kind = "completed", "completed"
		} else if !m.snap.Session.LoggedIn && l.TrialVisible {
			row.status, row.kind = "trial", "in_progress"
		}
		rows = append(rows, row)
	}
	return rows
}

func (m Model) progressRows() []listRow {
	rows := make([]listRow, 0, len(m.snap.Progress))
	for _, p := range m.snap.Progress {
		label := strings.Join(nonEmpty(p.CourseTitle, p.ModuleTitle, p.LessonTitle), " › ")
		if label == "" {
			label = fmt.Sprintf("Lesson %d", p.LessonID)
		}
		row := listRow{label: label}
		switch pct := p.Percent(); {
		case p.Completed || pct >= 100:
			row.status, row.kind = "completed", "completed"
		case pct > 0:
			row.status, row.kind = fmt.Sprintf("%.0f%%", pct), "in_progress"
		default:
			row.status, row.kind = "not started", "not_started"
		}
		rows = append(rows, row)
	}
	return rows
}

func (m Model) achievementRows() []listRow {
	points := m.snap.Session.CurrentUser.CurrentPoints
	rows := make([]listRow, 0, len(m.snap.Achievements))
	for _, a := range m.snap.Achievements {
		label := a.Name
		if a.Description != "" {
			label += " – " + a.Description
		}
		row := listRow{label: label, status: fmt.Sprintf("%d pts", a.RequiredPoints), kind: "locked"}
		if a.Unlocked(points) {
			row.status, row.kind = "unlocked", "unlocked"
		}
		rows = append(rows, row)
	}
	return rows
}

func (m Model) completedLessons() map[int64]bool {
	done := make(map[int64]bool, len(m.snap.Progress))
	if !m.snap.Session.LoggedIn {
		return done
	}
	for _, p := range m.snap.Progress {
		if p.Completed && p.LessonID != 0 {
			done[p.LessonID] = true
		}
	}
	return done
}

// Bodies

func (m Model) dashboardBody() string {
	styles := m.theme.Styles()
	var b strings.Builder

	sess := m.snap.Session
	if !sess.LoggedIn {
		b.WriteString(styles.Text.Render("You are not signed in."))
		b.WriteString("\n\n")
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("%d public courses available. Press c to browse, L to log in.", len(m.snap.PublicCourses))))
		return b.String()
	}

	user := sess.CurrentUser
	b.WriteString(styles.Text.Bold(true).Render("Welcome, " + orPlaceholder(user.DisplayName(), "student")))
	b.WriteString("\n\n")
	writeField(&b, styles, "Email", user.Email)
	writeField(&b, styles, "Role", user.Role)
	writeField(&b, styles, "Points", fmt.Sprintf("%d", user.CurrentPoints))
	b.WriteString("\n")

	completed := 0
	for _, p := range m.snap.Progress {
		if p.Completed {
			completed++
		}
	}
	unlocked := 0
	var next *lms.Achievement
	for i, a := range m.snap.Achievements {
		if a.Unlocked(user.CurrentPoints) {
			unlocked++
			continue
		}
		if next == nil || a.RequiredPoints < next.RequiredPoints {
			next = &m.snap.Achievements[i]
		}
	}

	writeField(&b, styles, "Courses", fmt.Sprintf("%d", len(m.snap.Courses)))
	writeField(&b, styles, "Lessons", fmt.Sprintf("%d of %d completed", completed, len(m.snap.Progress)))
	writeField(&b, styles, "Achievements", fmt.Sprintf("%d of %d unlocked", unlocked, len(m.snap.Achievements)))
	if next != nil {
		writeField(&b, styles, "Next badge",
			fmt.Sprintf("%s (%d pts to go)", next.Name, next.RequiredPoints-user.CurrentPoints))
	}
	return b.String()
}

// lessonBody renders the selected lesson and its resources for the detail
// viewport.
func (m Model) lessonBody(width int) string {
	lesson := m.snap.Selection.Lesson
	if lesson.IsZero() {
		return ""
	}
	styles := m.theme.Styles()
	wrap := lipgloss.NewStyle().Width(max(width, 10))

	var b strings.Builder
	status := "not started"
	kind := "not_started"
	if m.completedLessons()[lesson.ID] {
		status, kind = "completed", "completed"
	}
	b.WriteString(styles.Badge(kind).Render(status))
	b.WriteString("\n\n")

	writeField(&b, styles, "Objective", lesson.LearningObjective)
	writeField(&b, styles, "Signs", lesson.SignsTaught)
	if lesson.Content != "" {
		b.WriteString("\n")
		b.WriteString(wrap.Render(styles.Text.Render(lesson.Content)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.AccentText.Bold(true).Render("Resources"))
	b.WriteString("\n")
	if len(m.snap.Resources) == 0 {
		b.WriteString(styles.MutedText.Render("No resources"))
		return b.String()
	}
	for _, r := range m.snap.Resources {
		line := fmt.Sprintf("• [%s] %s", orPlaceholder(r.Type, "file"), r.URL)
		if d := r.Duration(); d > 0 {
			line += fmt.Sprintf(" (%s)", d)
		}
		b.WriteString(styles.Text.Render(line))
		b.WriteString("\n")
		if r.Description != "" {
			b.WriteString(wrap.Render(styles.MutedText.Render("  " + r.Description)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// logBody formats the tailed client log, newest last.
func (m Model) logBody() string {
	if len(m.logLines) == 0 {
		return m.theme.Styles().MutedText.Render("No log entries")
	}
	styles := m.theme.Styles()
	out := make([]string, 0, len(m.logLines))
	for _, line := range m.logLines {
		if !line.Parsed {
			out = append(out, styles.MutedText.Render(line.Raw))
			continue
		}
		out = append(out, m.levelStyle(line.Entry.Level).Render(line.Text()))
	}
	return strings.Join(out, "\n")
}

func (m Model) levelStyle(level zerolog.Level) lipgloss.Style {
	styles := m.theme.Styles()
	switch {
	case level == zerolog.NoLevel:
		return styles.Text
	case level >= zerolog.ErrorLevel:
		return styles.DangerText
	case level == zerolog.WarnLevel:
		return styles.WarningText
	case level <= zerolog.DebugLevel:
		return styles.FaintText
	default:
		return styles.Text
	}
}

func writeField(b *strings.Builder, styles Styles, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	b.WriteString(styles.MutedText.Width(14).Render(label))
	b.WriteString(styles.Text.Render(value))
	b.WriteString("\n")
}

func orPlaceholder(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
