package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeRunes(m EditModal, s string) EditModal {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestCreateModalRequiresKey(t *testing.T) {
	m := NewCreateModal(TestTheme())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.IsSaveRequested() {
		t.Fatal("save must be refused without a key")
	}
	if m.errMsg == "" {
		t.Error("expected a validation message")
	}

	m = typeRunes(m, "/app/new")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.IsSaveRequested() {
		t.Error("save should succeed once a key is entered")
	}
	if m.Key() != "/app/new" {
		t.Errorf("key = %q", m.Key())
	}
}

func TestCreateModalTabSwitchesFields(t *testing.T) {
	m := NewCreateModal(TestTheme())
	m = typeRunes(m, "/k")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeRunes(m, "hello")

	if m.Key() != "/k" {
		t.Errorf("key = %q", m.Key())
	}
	if m.Value() != "hello" {
		t.Errorf("value = %q", m.Value())
	}
}

func TestEditModalDirtyTracking(t *testing.T) {
	m := NewEditModal("/app/config", "old", TestTheme())
	if m.IsDirty() {
		t.Fatal("freshly opened modal must not be dirty")
	}

	m = typeRunes(m, "x")
	if !m.IsDirty() {
		t.Error("edits should mark the modal dirty")
	}
}

func TestEditModalKeyIsFixed(t *testing.T) {
	m := NewEditModal("/app/config", "v", TestTheme())

	// Tab has no effect outside create mode; typing lands in the value.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeRunes(m, "z")
	if m.Key() != "/app/config" {
		t.Errorf("key changed to %q", m.Key())
	}
}

func TestEditModalCancel(t *testing.T) {
	m := NewEditModal("/k", "v", TestTheme())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !m.IsCancelRequested() {
		t.Error("esc should cancel")
	}
}
