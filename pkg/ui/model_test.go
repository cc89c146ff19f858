package ui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Evanescentum/etcd-gui/pkg/config"
	"github.com/Evanescentum/etcd-gui/pkg/etcdkv"
)

func testConfig() config.Config {
	cfg := config.Default()
	_ = cfg.AddProfile(config.Profile{
		Name:      "test",
		Endpoints: []config.Endpoint{{Host: "localhost", Port: 2379}},
	})
	return cfg
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	return NewModel(testConfig(), cfgPath, etcdkv.NewSession(), nil, nil)
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	mm, ok := updated.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", updated)
	}
	return mm, cmd
}

// loadedModel returns a model with a keys listing and values applied.
func loadedModel(t *testing.T, keys []string) Model {
	t.Helper()
	m := newTestModel(t)
	q := m.brows.Reload()
	m, cmd := update(t, m, keysLoadedMsg{query: q, keys: keys})
	if !m.brows.Loaded() {
		t.Fatal("keys listing not applied")
	}
	if cmd == nil && len(keys) > 0 {
		t.Fatal("expected a value fetch after keys arrived")
	}

	if rq, ok := m.brows.RangeQuery(); ok {
		items := make([]etcdkv.Item, len(m.brows.PageKeys()))
		for i, k := range m.brows.PageKeys() {
			items[i] = etcdkv.Item{Key: k, Value: "v:" + k, CreateRevision: 1, ModRevision: 5, Version: 2}
		}
		m, _ = update(t, m, rangeLoadedMsg{query: rq, items: items})
	}
	return m
}

func TestKeysLoadedAppliesAndFetchesValues(t *testing.T) {
	m := loadedModel(t, []string{"/a", "/b"})
	if got := len(m.brows.Items()); got != 2 {
		t.Errorf("items = %d, want 2", got)
	}
	if m.loadingRange {
		t.Error("loadingRange should clear after the range result")
	}
}

func TestStaleKeysListingIgnored(t *testing.T) {
	m := newTestModel(t)
	q1 := m.brows.Reload()
	m.brows.Reload() // supersedes q1

	m, _ = update(t, m, keysLoadedMsg{query: q1, keys: []string{"/old"}})
	if m.brows.Loaded() {
		t.Error("superseded keys listing was applied")
	}
}

func TestKeysErrorKeepsExistingRows(t *testing.T) {
	m := loadedModel(t, []string{"/a", "/b"})

	q := m.brows.Reload()
	m, _ = update(t, m, keysLoadedMsg{query: q, err: errors.New("connection refused")})

	if !m.statusIsErr || m.statusMsg == "" {
		t.Error("expected an error in the status line")
	}
	if got := len(m.brows.Items()); got != 2 {
		t.Errorf("error should not blank the table, items = %d", got)
	}
}

func TestRangeErrorKeepsExistingRows(t *testing.T) {
	m := loadedModel(t, []string{"/a", "/b"})

	rq, _ := m.brows.RangeQuery()
	m, _ = update(t, m, rangeLoadedMsg{query: rq, err: errors.New("deadline exceeded")})

	if !m.statusIsErr {
		t.Error("expected error status")
	}
	if got := len(m.brows.Items()); got != 2 {
		t.Errorf("items = %d, want previous rows preserved", got)
	}
}

func TestNextPageRefetchesValues(t *testing.T) {
	m := loadedModel(t, []string{"/a", "/b", "/c"})
	m.brows.SetPageSize(2)

	m, cmd := update(t, m, keyPress("l"))
	if m.brows.Page() != 2 {
		t.Fatalf("page = %d, want 2", m.brows.Page())
	}
	if cmd == nil {
		t.Error("page change must refetch the visible range")
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0 after page change", m.cursor)
	}
}

func TestSearchDebounceDiscardsStaleGeneration(t *testing.T) {
	m := loadedModel(t, []string{"/aa", "/ab", "/bb"})

	m, _ = update(t, m, keyPress("/"))
	if m.focus != focusSearch {
		t.Fatal("'/' should focus the search input")
	}
	m, _ = update(t, m, keyPress("a"))
	gen1 := m.searchGen
	m, _ = update(t, m, keyPress("a"))
	if m.searchGen == gen1 {
		t.Fatal("each edit should bump the debounce generation")
	}

	// The first debounce timer fires late: it must not commit "a".
	m, _ = update(t, m, searchDebounceMsg{gen: gen1})
	if m.brows.Search() != "" {
		t.Errorf("stale debounce committed search %q", m.brows.Search())
	}

	m, _ = update(t, m, searchDebounceMsg{gen: m.searchGen})
	if m.brows.Search() != "aa" {
		t.Errorf("search = %q, want %q", m.brows.Search(), "aa")
	}
}

func TestSearchEnterCommitsImmediately(t *testing.T) {
	m := loadedModel(t, []string{"/aa", "/bb"})
	m, _ = update(t, m, keyPress("/"))
	m, _ = update(t, m, keyPress("b"))
	m, _ = update(t, m, keyPress("enter"))

	if m.focus != focusTable {
		t.Error("enter should return focus to the table")
	}
	if m.brows.Search() != "b" {
		t.Errorf("search = %q, want %q", m.brows.Search(), "b")
	}
}

func TestPrefixCommitReloadsKeys(t *testing.T) {
	m := loadedModel(t, []string{"/app/a"})

	m, _ = update(t, m, keyPress("p"))
	if m.focus != focusPrefix {
		t.Fatal("'p' should focus the prefix input")
	}
	m.prefixInput.SetValue("/other/")
	m, cmd := update(t, m, keyPress("enter"))

	if m.brows.Prefix() != "/other/" {
		t.Errorf("prefix = %q", m.brows.Prefix())
	}
	if m.brows.Loaded() {
		t.Error("prefix change must invalidate the loaded listing")
	}
	if cmd == nil {
		t.Error("prefix commit must issue a key listing")
	}
}

func TestDeleteOpensConfirmAndCancelCloses(t *testing.T) {
	m := loadedModel(t, []string{"/a", "/b"})

	m, _ = update(t, m, keyPress("d"))
	if m.overlay != overlayConfirm {
		t.Fatal("'d' should open the delete confirmation")
	}
	if m.confirmKey != "/a" {
		t.Errorf("confirm target = %q, want /a", m.confirmKey)
	}

	m, _ = update(t, m, keyPress("n"))
	if m.overlay != overlayNone {
		t.Error("'n' should dismiss the confirmation")
	}
}

func TestConfirmedDeleteIssuesCommand(t *testing.T) {
	m := loadedModel(t, []string{"/a"})
	m, _ = update(t, m, keyPress("d"))
	m, cmd := update(t, m, keyPress("y"))

	if m.overlay != overlayNone {
		t.Error("confirmation should close after accepting")
	}
	if cmd == nil {
		t.Error("accepting the confirmation must issue the delete")
	}
}

func TestViewModalOpensOnLoadedValue(t *testing.T) {
	m := loadedModel(t, []string{"/a"})
	m, _ = update(t, m, keyPress("v"))
	if m.overlay != overlayView {
		t.Fatal("'v' should open the value viewer")
	}
	if got := m.viewModal.Current().Key; got != "/a" {
		t.Errorf("viewer key = %q", got)
	}
}

func TestEditModalSavePuts(t *testing.T) {
	m := loadedModel(t, []string{"/a"})
	m, _ = update(t, m, keyPress("e"))
	if m.overlay != overlayEdit {
		t.Fatal("'e' should open the editor")
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.overlay != overlayNone {
		t.Error("save should close the editor")
	}
	if cmd == nil {
		t.Error("save must issue a put")
	}
}

func TestProfilePickerOpens(t *testing.T) {
	m := loadedModel(t, []string{"/a"})
	m, _ = update(t, m, keyPress("P"))
	if m.overlay != overlayProfiles {
		t.Fatal("'P' should open the profile picker")
	}
	if got := m.profilePicker.Selected(); got == nil || got.Name != "test" {
		t.Errorf("picker should start on the current profile, got %v", got)
	}
}

func TestProfileFormTestsUnsavedProfile(t *testing.T) {
	m := newTestModel(t)
	m.profileForm = NewProfileForm(nil, m.theme)
	m.overlay = overlayProfileForm

	// Nothing filled in yet: the test is refused with a validation message
	// instead of hitting the network.
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if cmd != nil {
		t.Error("an invalid form must not issue a connection test")
	}
	if m.profileForm.status == "" {
		t.Error("expected a validation message in the form status")
	}

	m.profileForm.vals.name = "scratch"
	m.profileForm.vals.endpoints = "localhost:2379"
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if cmd == nil {
		t.Fatal("valid field values should issue a connection test before save")
	}

	m, _ = update(t, m, testConnectionMsg{version: "3.5.21"})
	if !strings.Contains(m.profileForm.status, "3.5.21") {
		t.Errorf("form status = %q, want the server version", m.profileForm.status)
	}

	m, _ = update(t, m, testConnectionMsg{err: errors.New("connection refused")})
	if !strings.Contains(m.profileForm.status, "connection refused") {
		t.Errorf("form status = %q, want the connection error", m.profileForm.status)
	}
}

func TestThemeCyclePersists(t *testing.T) {
	m := newTestModel(t)
	before := m.cfg.ColorTheme

	m, _ = update(t, m, keyPress("t"))
	if m.cfg.ColorTheme == before {
		t.Error("'t' should cycle the color theme")
	}

	saved, err := config.LoadFrom(m.cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.ColorTheme != m.cfg.ColorTheme {
		t.Errorf("persisted theme %q, in-memory %q", saved.ColorTheme, m.cfg.ColorTheme)
	}
}

func TestStaleStatusExpiryIgnored(t *testing.T) {
	m := newTestModel(t)
	m.setStatus("first", false)
	gen1 := m.statusGen
	m.setStatus("second", false)

	m, _ = update(t, m, statusExpireMsg{gen: gen1})
	if m.statusMsg != "second" {
		t.Errorf("old expiry wiped newer status, got %q", m.statusMsg)
	}

	m, _ = update(t, m, statusExpireMsg{gen: m.statusGen})
	if m.statusMsg != "" {
		t.Errorf("status should expire, got %q", m.statusMsg)
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(t)
	_, cmd := update(t, m, keyPress("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("'q' should quit")
	}
}

func TestAdoptConfigReconnectsOnProfileChange(t *testing.T) {
	m := loadedModel(t, []string{"/a"})

	changed := m.cfg
	changed.Profiles = append([]config.Profile(nil), m.cfg.Profiles...)
	changed.Profiles[0].Endpoints = []config.Endpoint{{Host: "elsewhere", Port: 2379}}

	m, cmd := update(t, m, configReloadedMsg{cfg: changed})
	if cmd == nil {
		t.Error("changed current profile should trigger reconnect commands")
	}
	if m.brows.Loaded() {
		t.Error("browser should restart against the new cluster")
	}
}

func TestAdoptConfigNoReconnectWhenProfileUnchanged(t *testing.T) {
	m := loadedModel(t, []string{"/a"})

	same := m.cfg
	same.ColorTheme = config.ThemeDark

	m, _ = update(t, m, configReloadedMsg{cfg: same})
	if !m.brows.Loaded() {
		t.Error("unchanged profile must not reset the browser")
	}
	if m.cfg.ColorTheme != config.ThemeDark {
		t.Error("reloaded theme not adopted")
	}
}
