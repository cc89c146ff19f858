package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmModal asks the user to confirm a destructive action.
type ConfirmModal struct {
	theme  Theme
	width  int
	height int

	prompt string
	detail string

	confirmed bool
	cancelled bool
}

// NewConfirmModal builds a yes/no prompt.
func NewConfirmModal(prompt, detail string, theme Theme) ConfirmModal {
	return ConfirmModal{theme: theme, prompt: prompt, detail: detail}
}

// IsConfirmed reports whether the user accepted.
func (m ConfirmModal) IsConfirmed() bool { return m.confirmed }

// IsCancelled reports whether the user declined.
func (m ConfirmModal) IsCancelled() bool { return m.cancelled }

// Update handles input for the confirm modal.
func (m ConfirmModal) Update(msg tea.Msg) (ConfirmModal, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "enter":
		m.confirmed = true
	case "n", "esc", "q":
		m.cancelled = true
	}
	return m, nil
}

// SetSize sets the modal dimensions.
func (m *ConfirmModal) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the confirm modal.
func (m ConfirmModal) View() string {
	r := m.theme.Renderer

	var content strings.Builder
	content.WriteString(m.theme.DangerText.Bold(true).Render(m.prompt))
	content.WriteString("\n")
	if m.detail != "" {
		content.WriteString(m.theme.Base.Render(truncate(m.detail, 70)))
		content.WriteString("\n")
	}
	content.WriteString("\n")
	content.WriteString(r.NewStyle().Foreground(m.theme.Subtext).Italic(true).Render("[y] Confirm   [n] Cancel"))

	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Danger).
		Padding(1, 2).
		Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
