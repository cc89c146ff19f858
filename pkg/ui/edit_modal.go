package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// EditModal edits one key-value pair. In create mode the key is editable; in
// edit mode the key is fixed and only the value changes.
type EditModal struct {
	keyInput  textinput.Model
	valueArea textarea.Model

	theme        Theme
	width        int
	height       int
	isCreateMode bool
	focusOnKey   bool
	original     string
	dirty        bool
	errMsg       string

	saveRequested   bool
	cancelRequested bool
}

// NewEditModal opens the modal on an existing key's current value.
func NewEditModal(key, value string, theme Theme) EditModal {
	m := newKVModal(theme)
	m.keyInput.SetValue(key)
	m.valueArea.SetValue(value)
	m.original = value
	m.valueArea.Focus()
	return m
}

// NewCreateModal opens an empty modal for adding a key.
func NewCreateModal(theme Theme) EditModal {
	m := newKVModal(theme)
	m.isCreateMode = true
	m.focusOnKey = true
	m.keyInput.Focus()
	return m
}

func newKVModal(theme Theme) EditModal {
	ki := textinput.New()
	ki.CharLimit = 512
	ki.Width = 60
	ki.Prompt = ""

	va := textarea.New()
	va.SetWidth(60)
	va.SetHeight(8)
	va.CharLimit = 0

	return EditModal{
		keyInput:  ki,
		valueArea: va,
		theme:     theme,
	}
}

// Key returns the key being created or edited.
func (m EditModal) Key() string {
	return strings.TrimSpace(m.keyInput.Value())
}

// Value returns the value text.
func (m EditModal) Value() string {
	return m.valueArea.Value()
}

// IsCreateMode reports whether the modal creates a new key.
func (m EditModal) IsCreateMode() bool {
	return m.isCreateMode
}

// IsSaveRequested returns true if ctrl+s was pressed with valid input.
func (m EditModal) IsSaveRequested() bool {
	return m.saveRequested
}

// IsCancelRequested returns true if esc was pressed.
func (m EditModal) IsCancelRequested() bool {
	return m.cancelRequested
}

// IsDirty reports whether the value differs from what the modal opened with.
func (m EditModal) IsDirty() bool {
	return m.dirty
}

// Update handles input for the edit modal.
func (m EditModal) Update(msg tea.Msg) (EditModal, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s":
			if m.Key() == "" {
				m.errMsg = "key must not be empty"
				return m, nil
			}
			m.saveRequested = true
			return m, nil

		case "esc":
			m.cancelRequested = true
			return m, nil

		case "tab", "shift+tab":
			// Only create mode has two fields to move between.
			if m.isCreateMode {
				m.focusOnKey = !m.focusOnKey
				if m.focusOnKey {
					m.keyInput.Focus()
					m.valueArea.Blur()
				} else {
					m.keyInput.Blur()
					m.valueArea.Focus()
				}
			}
			return m, nil
		}

		m.errMsg = ""
		if m.focusOnKey {
			m.keyInput, cmd = m.keyInput.Update(msg)
		} else {
			m.valueArea, cmd = m.valueArea.Update(msg)
		}
		cmds = append(cmds, cmd)
		m.dirty = m.valueArea.Value() != m.original
	}

	return m, tea.Batch(cmds...)
}

// SetSize sets the modal dimensions.
func (m *EditModal) SetSize(width, height int) {
	m.width = width
	m.height = height
	w := width - 20
	if w < 40 {
		w = 40
	}
	if w > 76 {
		w = 76
	}
	m.keyInput.Width = w
	m.valueArea.SetWidth(w)
}

// View renders the edit modal.
func (m EditModal) View() string {
	r := m.theme.Renderer

	var title string
	if m.isCreateMode {
		title = "Add Key"
	} else {
		title = "Edit Value"
	}

	var content strings.Builder
	content.WriteString(m.theme.PrimaryBold.Render(title))
	if m.dirty {
		content.WriteString(m.theme.WarningText.Render("  ●"))
	}
	content.WriteString("\n\n")

	labelStyle := r.NewStyle().Foreground(m.theme.Secondary)
	content.WriteString(labelStyle.Render("Key"))
	content.WriteString("\n")
	if m.isCreateMode {
		content.WriteString(m.keyInput.View())
	} else {
		content.WriteString(m.theme.Base.Render(m.keyInput.Value()))
	}
	content.WriteString("\n\n")

	content.WriteString(labelStyle.Render("Value"))
	content.WriteString("\n")
	content.WriteString(m.valueArea.View())
	content.WriteString("\n\n")

	if m.errMsg != "" {
		content.WriteString(m.theme.DangerText.Render(m.errMsg))
		content.WriteString("\n")
	}

	instructions := "[Ctrl+S] Save   [Esc] Cancel"
	if m.isCreateMode {
		instructions = "[Tab] Switch field   " + instructions
	}
	content.WriteString(r.NewStyle().Foreground(m.theme.Subtext).Italic(true).Render(instructions))

	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Primary).
		Padding(1, 2).
		Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
