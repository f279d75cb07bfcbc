package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Refresh    key.Binding
	Login      key.Binding
	Logout     key.Binding

	// View switching
	ViewDashboard    key.Binding
	ViewCourses      key.Binding
	ViewProgress     key.Binding
	ViewAchievements key.Binding
	ViewLogs         key.Binding
	Back             key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Open   key.Binding

	// Lesson
	Complete key.Binding

	// Forms
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
	Cancel    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh view"),
		),
		Login: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Log in"),
		),
		Logout: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Log out"),
		),

		ViewDashboard: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Dashboard"),
		),
		ViewCourses: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Courses"),
		),
		ViewProgress: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "My progress"),
		),
		ViewAchievements: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Achievements"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Client log"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "Back"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter", "right"),
			key.WithHelp("enter", "Open"),
		),

		Complete: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Mark lesson complete"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Submit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings grouped for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ViewDashboard, k.ViewCourses, k.ViewProgress, k.ViewAchievements, k.ViewLogs, k.Back},
		{k.Up, k.Down, k.Top, k.Bottom, k.Open},
		{k.Complete, k.Refresh},
		{k.Login, k.Logout, k.CycleTheme, k.Help, k.Quit},
	}
}
