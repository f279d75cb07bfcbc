package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/aula/internal/lms"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// loginResultMsg reports a finished login attempt. Notice carries the alert
// the session manager raised on failure.
type loginResultMsg struct {
	err    error
	notice string
}

// loginModal collects credentials and hands them to submit.
type loginModal struct {
	inputs [2]textinput.Model // email, password
	focus  int
	busy   bool
	notice string
	submit func(lms.Credentials) tea.Cmd
}

func newLoginModal(email string, submit func(lms.Credentials) tea.Cmd) *loginModal {
	emailInput := textinput.New()
	emailInput.Placeholder = "you@example.com"
	emailInput.CharLimit = 254
	emailInput.Width = 32
	emailInput.SetValue(email)

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128
	password.Width = 32

	lm := &loginModal{inputs: [2]textinput.Model{emailInput, password}, submit: submit}
	if email != "" {
		lm.focus = 1
	}
	lm.inputs[lm.focus].Focus()
	return lm
}

func (lm *loginModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case loginResultMsg:
		lm.busy = false
		if msg.err == nil {
			return lm, nil, true
		}
		lm.notice = msg.notice
		lm.inputs[1].SetValue("")
		return lm, lm.setFocus(1), false

	case tea.KeyMsg:
		if lm.busy {
			return lm, nil, false
		}
		switch {
		case key.Matches(msg, keys.Cancel):
			return lm, nil, true
		case msg.Type == tea.KeyTab, msg.Type == tea.KeyDown:
			return lm, lm.setFocus((lm.focus + 1) % len(lm.inputs)), false
		case msg.Type == tea.KeyShiftTab, msg.Type == tea.KeyUp:
			return lm, lm.setFocus((lm.focus + len(lm.inputs) - 1) % len(lm.inputs)), false
		case key.Matches(msg, keys.Submit):
			if lm.focus == 0 {
				return lm, lm.setFocus(1), false
			}
			creds := lms.Credentials{
				Email:    strings.TrimSpace(lm.inputs[0].Value()),
				Password: lm.inputs[1].Value(),
			}
			lm.busy = true
			lm.notice = ""
			return lm, lm.submit(creds), false
		}
	}

	var cmd tea.Cmd
	lm.inputs[lm.focus], cmd = lm.inputs[lm.focus].Update(msg)
	return lm, cmd, false
}

func (lm *loginModal) setFocus(i int) tea.Cmd {
	lm.inputs[lm.focus].Blur()
	lm.focus = i
	return lm.inputs[i].Focus()
}

func (lm *loginModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Log in"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 36)))
	b.WriteString("\n\n")

	labels := [2]string{"Email", "Password"}
	for i, in := range lm.inputs {
		label := styles.MutedText
		if i == lm.focus {
			label = styles.AccentText
		}
		b.WriteString(label.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n\n")
	}

	switch {
	case lm.busy:
		b.WriteString(styles.WarningText.Render("Signing in..."))
	case lm.notice != "":
		b.WriteString(styles.DangerText.Render(lm.notice))
	default:
		b.WriteString(styles.FaintText.Render("enter submit · tab next · esc browse public courses"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(44).
		Render(b.String())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
