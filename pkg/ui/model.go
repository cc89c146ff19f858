package ui

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Evanescentum/etcd-gui/pkg/browser"
	"github.com/Evanescentum/etcd-gui/pkg/config"
	"github.com/Evanescentum/etcd-gui/pkg/debug"
	"github.com/Evanescentum/etcd-gui/pkg/etcdkv"
	"github.com/Evanescentum/etcd-gui/pkg/history"
	"github.com/Evanescentum/etcd-gui/pkg/watcher"
)

type focus int

const (
	focusTable focus = iota
	focusPrefix
	focusSearch
)

type overlay int

const (
	overlayNone overlay = iota
	overlayView
	overlayEdit
	overlayConfirm
	overlayProfiles
	overlayProfileForm
	overlayTopology
	overlayHelp
)

// confirmKind says what a confirmation dialog will do when accepted.
type confirmKind int

const (
	confirmDeleteKey confirmKind = iota
	confirmDeleteProfile
)

// Model is the root Bubble Tea model: the key browser plus its overlays.
type Model struct {
	cfg     config.Config
	cfgPath string
	sess    *etcdkv.Session
	hist    *history.Store
	cfgFile *watcher.Watcher
	theme   Theme

	brows  *browser.State
	cursor int

	focus   focus
	overlay overlay

	prefixInput textinput.Model
	searchInput textinput.Model
	searchGen   int

	historyPrefixes []string
	historyOpen     bool
	historyCursor   int

	viewModal     ViewModal
	editModal     EditModal
	confirm       ConfirmModal
	confirmTarget confirmKind
	confirmKey    string
	profilePicker ProfilePicker
	profileForm   ProfileForm
	topology      TopologyView
	helpView      viewport.Model

	loadingKeys  bool
	loadingRange bool

	statusMsg   string
	statusIsErr bool
	statusGen   int

	width  int
	height int
	ready  bool
}

// NewModel builds the root model. hist and cfgFile may be nil; the related
// features are simply absent then.
func NewModel(cfg config.Config, cfgPath string, sess *etcdkv.Session, hist *history.Store, cfgFile *watcher.Watcher) Model {
	renderer := lipgloss.NewRenderer(os.Stdout)
	ConfigureBackground(renderer, cfg.ColorTheme)

	prefixInput := textinput.New()
	prefixInput.Prompt = ""
	prefixInput.Placeholder = "/"
	prefixInput.CharLimit = 512

	searchInput := textinput.New()
	searchInput.Prompt = ""
	searchInput.Placeholder = "filter keys…"
	searchInput.CharLimit = 256

	return Model{
		cfg:         cfg,
		cfgPath:     cfgPath,
		sess:        sess,
		hist:        hist,
		cfgFile:     cfgFile,
		theme:       DefaultTheme(renderer),
		brows:       browser.New(browser.DefaultPageSize),
		prefixInput: prefixInput,
		searchInput: searchInput,
		width:       120,
		height:      40,
		ready:       true,
	}
}

// Init connects to the current profile and issues the first key listing.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.cfg.Current() != nil {
		cmds = append(cmds, connectCmd(m.sess))
		cmds = append(cmds, m.refreshKeys())
		cmds = append(cmds, loadHistoryCmd(m.hist, m.cfg.CurrentProfile))
	}
	if cmd := watchConfigCmd(m.cfgFile); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// refreshKeys invalidates the key listing and issues a fresh one.
func (m *Model) refreshKeys() tea.Cmd {
	if m.cfg.Current() == nil {
		return nil
	}
	m.loadingKeys = true
	q := m.brows.Reload()
	return loadKeysCmd(m.sess, q)
}

// refreshRange issues a value fetch for the visible page, or clears the rows
// when the page is empty.
func (m *Model) refreshRange() tea.Cmd {
	rq, ok := m.brows.RangeQuery()
	if !ok {
		m.brows.ClearItems()
		m.loadingRange = false
		return nil
	}
	m.loadingRange = true
	return loadRangeCmd(m.sess, rq)
}

func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusMsg = msg
	m.statusIsErr = isErr
	m.statusGen++
	return statusExpireCmd(m.statusGen)
}

func (m *Model) setError(prefix string, err error) tea.Cmd {
	debug.Log("%s: %v", prefix, err)
	return m.setStatus(prefix+": "+err.Error(), true)
}

func (m *Model) clampCursor() {
	if n := len(m.brows.PageKeys()); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// selectedItem returns the loaded item under the cursor, or nil when the
// page's values have not arrived yet.
func (m Model) selectedItem() *etcdkv.Item {
	keys := m.brows.PageKeys()
	if m.cursor < 0 || m.cursor >= len(keys) {
		return nil
	}
	key := keys[m.cursor]
	for _, it := range m.brows.Items() {
		if it.Key == key {
			return &it
		}
	}
	return nil
}

func (m *Model) saveConfig() tea.Cmd {
	if err := config.SaveTo(m.cfg, m.cfgPath); err != nil {
		return m.setError("saving config", err)
	}
	return nil
}

// switchProfile makes name current, persists the choice and restarts the
// browser against the new cluster.
func (m *Model) switchProfile(name string) tea.Cmd {
	var cmds []tea.Cmd
	if err := m.cfg.SetCurrent(name); err != nil {
		return m.setError("switching profile", err)
	}
	cmds = append(cmds, m.saveConfig())
	m.sess.SetProfile(m.cfg.Current())
	m.brows = browser.New(m.brows.PageSize())
	m.cursor = 0
	m.historyPrefixes = nil
	m.prefixInput.SetValue("")
	m.searchInput.SetValue("")
	cmds = append(cmds, connectCmd(m.sess), m.refreshKeys(), loadHistoryCmd(m.hist, name))
	cmds = append(cmds, m.setStatus("switched to profile "+name, false))
	return tea.Batch(cmds...)
}

// Update is the root message handler.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The profile form is huh-backed and needs every message type for its
	// internal navigation, so it is handled before the type switch.
	if m.overlay == overlayProfileForm {
		// Ctrl+T tests the cluster described by the current field values,
		// saved or not.
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+t" {
			p, err := m.profileForm.Profile()
			if err != nil {
				m.profileForm.SetStatus(err.Error(), false)
				return m, nil
			}
			m.profileForm.SetStatus("testing connection…", true)
			return m, testConnectionCmd(p)
		}
		switch msg.(type) {
		case tea.WindowSizeMsg, testConnectionMsg:
			// Handled by the main switch below.
		default:
			var cmd tea.Cmd
			m.profileForm, cmd = m.profileForm.Update(msg)
			cmds = append(cmds, cmd)

			if m.profileForm.Aborted() {
				m.openProfilePicker()
				return m, tea.Batch(cmds...)
			}
			if m.profileForm.Completed() {
				cmds = append(cmds, m.applyProfileForm())
				return m, tea.Batch(cmds...)
			}
			return m, tea.Batch(cmds...)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.prefixInput.Width = m.width - 20
		m.searchInput.Width = m.width - 20
		m.viewModal.SetSize(m.width, m.height)
		m.editModal.SetSize(m.width, m.height)
		m.confirm.SetSize(m.width, m.height)
		m.profilePicker.SetSize(m.width, m.height)
		m.profileForm.SetSize(m.width, m.height)
		m.topology.SetSize(m.width, m.height)
		if m.overlay == overlayHelp {
			m.helpView = viewport.New(m.width, m.height-2)
			m.helpView.SetContent(renderHelp(m.width - 4))
		}
		return m, nil

	case keysLoadedMsg:
		m.loadingKeys = false
		if msg.err != nil {
			// The previous rows stay on screen; the failure is told in
			// the status line instead of blanking the table.
			return m, m.setError("listing keys", msg.err)
		}
		if !m.brows.ApplyKeys(msg.query, msg.keys) {
			return m, nil
		}
		m.clampCursor()
		return m, m.refreshRange()

	case rangeLoadedMsg:
		m.loadingRange = false
		if msg.err != nil {
			return m, m.setError("fetching values", msg.err)
		}
		m.brows.ApplyRange(msg.query, msg.items)
		m.clampCursor()
		return m, nil

	case putDoneMsg:
		if msg.err != nil {
			return m, m.setError("saving key", msg.err)
		}
		verb := "updated"
		if msg.created {
			verb = "created"
		}
		cmds = append(cmds, m.setStatus(fmt.Sprintf("%s %s", verb, msg.key), false))
		cmds = append(cmds, m.refreshKeys())
		return m, tea.Batch(cmds...)

	case deleteDoneMsg:
		if msg.err != nil {
			return m, m.setError("deleting key", msg.err)
		}
		cmds = append(cmds, m.setStatus("deleted "+msg.key, false))
		cmds = append(cmds, m.refreshKeys())
		return m, tea.Batch(cmds...)

	case revisionLoadedMsg:
		if m.overlay == overlayView {
			m.viewModal.ApplyRevision(msg.item, msg.err)
		}
		return m, nil

	case topologyLoadedMsg:
		if m.overlay == overlayTopology {
			m.topology.Apply(msg.statuses, msg.err)
		}
		return m, nil

	case historyLoadedMsg:
		m.historyPrefixes = msg.prefixes
		if m.historyCursor >= len(m.historyPrefixes) {
			m.historyCursor = 0
		}
		return m, nil

	case testConnectionMsg:
		result, ok := "connected, server version "+msg.version, true
		if msg.err != nil {
			result, ok = msg.err.Error(), false
		}
		switch m.overlay {
		case overlayProfiles:
			m.profilePicker.SetStatus(result, ok)
		case overlayProfileForm:
			m.profileForm.SetStatus(result, ok)
		}
		return m, nil

	case connectedMsg:
		if msg.err != nil {
			return m, m.setError("connecting", msg.err)
		}
		return m, nil

	case configFileChangedMsg:
		// External edit to config.json: reload and keep watching.
		cmds = append(cmds, reloadConfigCmd(m.cfgPath), watchConfigCmd(m.cfgFile))
		return m, tea.Batch(cmds...)

	case configReloadedMsg:
		if msg.err != nil {
			return m, m.setError("reloading config", msg.err)
		}
		return m, m.adoptConfig(msg.cfg)

	case statusExpireMsg:
		if msg.gen == m.statusGen {
			m.statusMsg = ""
		}
		return m, nil

	case searchDebounceMsg:
		if msg.gen != m.searchGen {
			return m, nil
		}
		m.brows.SetSearch(m.searchInput.Value())
		m.cursor = 0
		return m, m.refreshRange()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	return m, nil
}

// adoptConfig merges an externally modified config into the running state.
// When the active profile's definition changed, the session reconnects and
// the browser reloads.
func (m *Model) adoptConfig(cfg config.Config) tea.Cmd {
	oldCurrent := m.cfg.Current()
	m.cfg = cfg
	ConfigureBackground(m.theme.Renderer, cfg.ColorTheme)
	m.theme = DefaultTheme(m.theme.Renderer)

	newCurrent := m.cfg.Current()
	if reflect.DeepEqual(oldCurrent, newCurrent) {
		return m.setStatus("config reloaded", false)
	}

	var cmds []tea.Cmd
	m.sess.SetProfile(newCurrent)
	m.brows = browser.New(m.brows.PageSize())
	m.cursor = 0
	if newCurrent != nil {
		cmds = append(cmds, connectCmd(m.sess), m.refreshKeys(), loadHistoryCmd(m.hist, newCurrent.Name))
	}
	cmds = append(cmds, m.setStatus("config reloaded, reconnected", false))
	return tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case overlayView:
		return m.handleViewModalKey(msg)
	case overlayEdit:
		return m.handleEditModalKey(msg)
	case overlayConfirm:
		return m.handleConfirmKey(msg)
	case overlayProfiles:
		return m.handleProfilePickerKey(msg)
	case overlayTopology:
		return m.handleTopologyKey(msg)
	case overlayHelp:
		return m.handleHelpKey(msg)
	}

	switch m.focus {
	case focusPrefix:
		return m.handlePrefixKey(msg)
	case focusSearch:
		return m.handleSearchKey(msg)
	default:
		return m.handleTableKey(msg)
	}
}

func (m Model) handleTableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "j", "down":
		if m.cursor < len(m.brows.PageKeys())-1 {
			m.cursor++
		}

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "g":
		m.cursor = 0

	case "G":
		m.cursor = len(m.brows.PageKeys()) - 1
		if m.cursor < 0 {
			m.cursor = 0
		}

	case "h", "left":
		if m.brows.Page() > 1 {
			m.brows.PrevPage()
			m.cursor = 0
			return m, m.refreshRange()
		}

	case "l", "right":
		if m.brows.Page() < m.brows.PageCount() {
			m.brows.NextPage()
			m.cursor = 0
			return m, m.refreshRange()
		}

	case "+", "=":
		m.brows.SetPageSize(m.brows.PageSize() + 10)
		m.cursor = 0
		return m, m.refreshRange()

	case "-":
		if m.brows.PageSize() > 10 {
			m.brows.SetPageSize(m.brows.PageSize() - 10)
			m.cursor = 0
			return m, m.refreshRange()
		}

	case "r":
		return m, m.refreshKeys()

	case "p":
		m.focus = focusPrefix
		m.prefixInput.SetValue(m.brows.Prefix())
		m.prefixInput.CursorEnd()
		m.prefixInput.Focus()
		m.historyOpen = false

	case "/":
		m.focus = focusSearch
		m.searchInput.Focus()

	case "enter", "v":
		if it := m.selectedItem(); it != nil {
			m.viewModal = NewViewModal(*it, m.theme)
			m.viewModal.SetSize(m.width, m.height)
			m.overlay = overlayView
		}

	case "a":
		m.editModal = NewCreateModal(m.theme)
		m.editModal.SetSize(m.width, m.height)
		m.overlay = overlayEdit

	case "e":
		if it := m.selectedItem(); it != nil {
			m.editModal = NewEditModal(it.Key, it.Value, m.theme)
			m.editModal.SetSize(m.width, m.height)
			m.overlay = overlayEdit
		}

	case "d":
		keys := m.brows.PageKeys()
		if m.cursor >= 0 && m.cursor < len(keys) {
			m.confirmTarget = confirmDeleteKey
			m.confirmKey = keys[m.cursor]
			m.confirm = NewConfirmModal("Delete key?", m.confirmKey, m.theme)
			m.confirm.SetSize(m.width, m.height)
			m.overlay = overlayConfirm
		}

	case "y":
		if it := m.selectedItem(); it != nil {
			if err := clipboard.WriteAll(it.Value); err != nil {
				return m, m.setError("clipboard", err)
			}
			return m, m.setStatus("copied value of "+it.Key, false)
		}

	case "P":
		m.openProfilePicker()

	case "T":
		m.topology = NewTopologyView(m.theme)
		m.topology.SetSize(m.width, m.height)
		m.overlay = overlayTopology
		return m, topologyCmd(m.sess)

	case "t":
		m.cfg.ColorTheme = NextColorTheme(m.cfg.ColorTheme)
		ConfigureBackground(m.theme.Renderer, m.cfg.ColorTheme)
		m.theme = DefaultTheme(m.theme.Renderer)
		var cmds []tea.Cmd
		cmds = append(cmds, m.saveConfig())
		cmds = append(cmds, m.setStatus("theme: "+string(m.cfg.ColorTheme), false))
		return m, tea.Batch(cmds...)

	case "?":
		m.helpView = viewport.New(m.width, m.height-2)
		m.helpView.SetContent(renderHelp(m.width - 4))
		m.overlay = overlayHelp
	}

	return m, nil
}

func (m Model) handlePrefixKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.historyOpen {
		switch msg.String() {
		case "down", "j":
			if m.historyCursor < len(m.historyPrefixes)-1 {
				m.historyCursor++
			}
			return m, nil
		case "up", "k":
			if m.historyCursor > 0 {
				m.historyCursor--
			}
			return m, nil
		case "enter":
			if m.historyCursor < len(m.historyPrefixes) {
				m.prefixInput.SetValue(m.historyPrefixes[m.historyCursor])
				m.prefixInput.CursorEnd()
			}
			m.historyOpen = false
			return m, nil
		case "esc":
			m.historyOpen = false
			return m, nil
		}
	}

	switch msg.String() {
	case "enter":
		prefix := m.prefixInput.Value()
		m.focus = focusTable
		m.prefixInput.Blur()
		m.brows.SetPrefix(prefix)
		m.cursor = 0
		var cmds []tea.Cmd
		cmds = append(cmds, m.refreshKeys())
		if prefix != "" {
			cmds = append(cmds, recordHistoryCmd(m.hist, m.cfg.CurrentProfile, prefix))
		}
		return m, tea.Batch(cmds...)

	case "esc":
		m.focus = focusTable
		m.prefixInput.Blur()
		m.prefixInput.SetValue(m.brows.Prefix())
		return m, nil

	case "down":
		if len(m.historyPrefixes) > 0 {
			m.historyOpen = true
			m.historyCursor = 0
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.prefixInput, cmd = m.prefixInput.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.focus = focusTable
		m.searchInput.Blur()
		m.searchGen++
		m.brows.SetSearch(m.searchInput.Value())
		m.cursor = 0
		return m, m.refreshRange()

	case "esc":
		m.focus = focusTable
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	before := m.searchInput.Value()
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() != before {
		m.searchGen++
		return m, tea.Batch(cmd, searchDebounceCmd(m.searchGen))
	}
	return m, cmd
}

func (m Model) handleViewModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewModal, cmd = m.viewModal.Update(msg)
	if m.viewModal.IsCloseRequested() {
		m.overlay = overlayNone
		return m, cmd
	}
	if key, rev, ok := m.viewModal.TakeOlderRequest(); ok {
		return m, tea.Batch(cmd, loadRevisionCmd(m.sess, key, rev))
	}
	return m, cmd
}

func (m Model) handleEditModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.editModal, cmd = m.editModal.Update(msg)
	if m.editModal.IsCancelRequested() {
		m.overlay = overlayNone
		return m, cmd
	}
	if m.editModal.IsSaveRequested() {
		m.overlay = overlayNone
		return m, tea.Batch(cmd,
			putCmd(m.sess, m.editModal.Key(), m.editModal.Value(), m.editModal.IsCreateMode()))
	}
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.confirm, cmd = m.confirm.Update(msg)
	if m.confirm.IsCancelled() {
		if m.confirmTarget == confirmDeleteProfile {
			m.openProfilePicker()
		} else {
			m.overlay = overlayNone
		}
		return m, cmd
	}
	if m.confirm.IsConfirmed() {
		switch m.confirmTarget {
		case confirmDeleteKey:
			m.overlay = overlayNone
			return m, tea.Batch(cmd, deleteCmd(m.sess, m.confirmKey))
		case confirmDeleteProfile:
			return m, tea.Batch(cmd, m.deleteProfile(m.confirmKey))
		}
	}
	return m, cmd
}

func (m *Model) openProfilePicker() {
	m.profilePicker = NewProfilePicker(m.cfg, m.theme)
	m.profilePicker.SetSize(m.width, m.height)
	m.overlay = overlayProfiles
}

func (m *Model) deleteProfile(name string) tea.Cmd {
	var cmds []tea.Cmd
	wasCurrent := m.cfg.CurrentProfile == name
	if err := m.cfg.DeleteProfile(name); err != nil {
		m.openProfilePicker()
		return m.setError("deleting profile", err)
	}
	cmds = append(cmds, m.saveConfig())
	if m.hist != nil {
		_ = m.hist.DeleteProfile(name)
	}
	if wasCurrent {
		m.sess.SetProfile(m.cfg.Current())
		m.brows = browser.New(m.brows.PageSize())
		m.cursor = 0
		if m.cfg.Current() != nil {
			cmds = append(cmds, connectCmd(m.sess), m.refreshKeys(), loadHistoryCmd(m.hist, m.cfg.CurrentProfile))
		}
	}
	m.openProfilePicker()
	cmds = append(cmds, m.setStatus("deleted profile "+name, false))
	return tea.Batch(cmds...)
}

// applyProfileForm commits a completed add/edit form to the config and
// returns to the picker.
func (m *Model) applyProfileForm() tea.Cmd {
	p, err := m.profileForm.Profile()
	if err != nil {
		m.openProfilePicker()
		return m.setError("saving profile", err)
	}

	var cmds []tea.Cmd
	if m.profileForm.IsEdit() {
		oldName := m.profileForm.OldName()
		wasCurrent := m.cfg.CurrentProfile == oldName
		if err := m.cfg.UpdateProfile(oldName, p); err != nil {
			m.openProfilePicker()
			return m.setError("saving profile", err)
		}
		if wasCurrent {
			m.sess.SetProfile(m.cfg.Current())
			cmds = append(cmds, connectCmd(m.sess), m.refreshKeys())
		}
	} else {
		if err := m.cfg.AddProfile(p); err != nil {
			m.openProfilePicker()
			return m.setError("saving profile", err)
		}
		// The first profile ever added becomes current automatically.
		if m.cfg.CurrentProfile == p.Name {
			m.sess.SetProfile(m.cfg.Current())
			cmds = append(cmds, connectCmd(m.sess), m.refreshKeys(), loadHistoryCmd(m.hist, p.Name))
		}
	}

	cmds = append(cmds, m.saveConfig())
	m.openProfilePicker()
	cmds = append(cmds, m.setStatus("saved profile "+p.Name, false))
	return tea.Batch(cmds...)
}

func (m Model) handleProfilePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.profilePicker, cmd = m.profilePicker.Update(msg)

	if m.profilePicker.IsCloseRequested() {
		m.overlay = overlayNone
		return m, cmd
	}

	switch {
	case m.profilePicker.TakeSelect():
		if p := m.profilePicker.Selected(); p != nil {
			m.overlay = overlayNone
			return m, tea.Batch(cmd, m.switchProfile(p.Name))
		}

	case m.profilePicker.TakeAdd():
		m.profileForm = NewProfileForm(nil, m.theme)
		m.profileForm.SetSize(m.width, m.height)
		m.overlay = overlayProfileForm
		return m, tea.Batch(cmd, m.profileForm.Init())

	case m.profilePicker.TakeEdit():
		if p := m.profilePicker.Selected(); p != nil {
			m.profileForm = NewProfileForm(p, m.theme)
			m.profileForm.SetSize(m.width, m.height)
			m.overlay = overlayProfileForm
			return m, tea.Batch(cmd, m.profileForm.Init())
		}

	case m.profilePicker.TakeDelete():
		if p := m.profilePicker.Selected(); p != nil {
			m.confirmTarget = confirmDeleteProfile
			m.confirmKey = p.Name
			m.confirm = NewConfirmModal("Delete profile?", p.Name, m.theme)
			m.confirm.SetSize(m.width, m.height)
			m.overlay = overlayConfirm
		}

	case m.profilePicker.TakeTest():
		if p := m.profilePicker.Selected(); p != nil {
			return m, tea.Batch(cmd, testConnectionCmd(*p))
		}

	case m.profilePicker.TakeLock():
		if p := m.profilePicker.Selected(); p != nil {
			updated := *p
			updated.Locked = !updated.Locked
			if err := m.cfg.UpdateProfile(p.Name, updated); err != nil {
				return m, tea.Batch(cmd, m.setError("updating profile", err))
			}
			if m.cfg.CurrentProfile == updated.Name {
				m.sess.SetProfile(m.cfg.Current())
			}
			saveCmd := m.saveConfig()
			m.openProfilePicker()
			return m, tea.Batch(cmd, saveCmd)
		}
	}

	return m, cmd
}

func (m Model) handleTopologyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.topology, cmd = m.topology.Update(msg)
	if m.topology.IsCloseRequested() {
		m.overlay = overlayNone
		return m, cmd
	}
	if m.topology.TakeRefresh() {
		return m, tea.Batch(cmd, topologyCmd(m.sess))
	}
	return m, cmd
}

func (m Model) handleHelpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "?":
		m.overlay = overlayNone
		return m, nil
	}
	var cmd tea.Cmd
	m.helpView, cmd = m.helpView.Update(msg)
	return m, cmd
}

// View renders the whole application.
func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}

	switch m.overlay {
	case overlayView:
		return m.viewModal.View()
	case overlayEdit:
		return m.editModal.View()
	case overlayConfirm:
		return m.confirm.View()
	case overlayProfiles:
		return m.profilePicker.View()
	case overlayProfileForm:
		return m.profileForm.View()
	case overlayTopology:
		return m.topology.View()
	case overlayHelp:
		return m.helpView.View() + "\n" + m.theme.MutedText.Render(" [Esc] Close")
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderControls())
	b.WriteString("\n")
	b.WriteString(m.renderTable())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.theme.Header.Render("etcd-gui")

	profile := "no profile"
	if p := m.cfg.Current(); p != nil {
		profile = p.Name
		if p.Locked {
			profile += " [locked]"
		}
	}
	conn := m.theme.DangerText.Render("○")
	if m.sess != nil && m.sess.Connected() {
		conn = m.theme.SuccessText.Render("●")
	}

	return title + "  " + conn + " " + m.theme.SecondaryText.Render(profile)
}

func (m Model) renderControls() string {
	var b strings.Builder

	prefixLabel := m.theme.SecondaryText.Render("prefix ")
	if m.focus == focusPrefix {
		b.WriteString(prefixLabel + m.prefixInput.View())
		if m.historyOpen {
			for i, p := range m.historyPrefixes {
				b.WriteString("\n")
				line := "  " + truncate(p, m.width-6)
				if i == m.historyCursor {
					b.WriteString(m.theme.Selected.Render(line))
				} else {
					b.WriteString(m.theme.MutedText.Render(line))
				}
			}
		}
	} else {
		prefix := m.brows.Prefix()
		if prefix == "" {
			prefix = m.theme.MutedText.Render("(all keys)")
		}
		b.WriteString(prefixLabel + prefix)
	}

	b.WriteString("\n")
	searchLabel := m.theme.SecondaryText.Render("filter ")
	if m.focus == focusSearch {
		b.WriteString(searchLabel + m.searchInput.View())
	} else if q := m.brows.Search(); q != "" {
		b.WriteString(searchLabel + q)
	} else {
		b.WriteString(searchLabel + m.theme.MutedText.Render("(none)"))
	}

	return b.String()
}

func (m Model) renderTable() string {
	if m.cfg.Current() == nil {
		return "\n" + m.theme.MutedText.Render("  No connection profile configured. Press 'P' to add one.") + "\n"
	}
	if !m.brows.Loaded() {
		if m.loadingKeys {
			return "\n" + m.theme.InfoText.Render("  loading keys…") + "\n"
		}
		return "\n" + m.theme.MutedText.Render("  Press 'r' to load keys.") + "\n"
	}
	if m.brows.KeyCount() == 0 {
		return "\n" + m.theme.MutedText.Render("  No keys under this prefix.") + "\n"
	}

	pageKeys := m.brows.PageKeys()
	if len(pageKeys) == 0 {
		return "\n" + m.theme.MutedText.Render("  No keys match the filter.") + "\n"
	}

	valueByKey := make(map[string]etcdkv.Item, len(m.brows.Items()))
	for _, it := range m.brows.Items() {
		valueByKey[it.Key] = it
	}

	tableWidth := m.width - 2
	keyWidth := tableWidth * 45 / 100
	revWidth := 12
	verWidth := 5
	valWidth := tableWidth - keyWidth - revWidth - verWidth - 6
	if valWidth < 10 {
		valWidth = 10
	}

	var b strings.Builder
	header := fmt.Sprintf("  %s  %s  %s  %s",
		padRight("KEY", keyWidth), padRight("VALUE", valWidth),
		padRight("MOD REV", revWidth), "VER")
	b.WriteString(m.theme.SecondaryText.Bold(true).Render(header))
	b.WriteString("\n")

	for i, key := range pageKeys {
		var valueCell, revCell, verCell string
		if it, ok := valueByKey[key]; ok {
			valueCell = truncate(oneLine(it.Value), valWidth)
			revCell = fmt.Sprintf("%d", it.ModRevision)
			verCell = fmt.Sprintf("%d", it.Version)
		} else if m.loadingRange {
			valueCell = "…"
		}

		line := fmt.Sprintf("%s  %s  %s  %s",
			padRight(truncate(key, keyWidth), keyWidth),
			padRight(valueCell, valWidth),
			padRight(revCell, revWidth),
			verCell)

		if i == m.cursor && m.focus == focusTable {
			b.WriteString(m.theme.Selected.Render(line))
		} else {
			b.WriteString("  " + m.theme.Base.Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderFooter() string {
	filtered := len(m.brows.FilteredKeys())
	total := m.brows.KeyCount()

	counts := fmt.Sprintf("page %d/%d · %d keys", m.brows.Page(), m.brows.PageCount(), total)
	if filtered != total {
		counts = fmt.Sprintf("page %d/%d · %d/%d keys", m.brows.Page(), m.brows.PageCount(), filtered, total)
	}
	left := m.theme.MutedText.Render(counts + fmt.Sprintf(" · size %d", m.brows.PageSize()))

	status := ""
	if m.statusMsg != "" {
		if m.statusIsErr {
			status = m.theme.DangerText.Render(truncate(m.statusMsg, m.width-40))
		} else {
			status = m.theme.SuccessText.Render(truncate(m.statusMsg, m.width-40))
		}
	}

	hint := m.theme.MutedText.Render("? help")
	return left + "  " + status + "  " + hint
}
