package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Evanescentum/etcd-gui/pkg/etcdkv"
)

// ViewModal shows a single key's value, with time travel through earlier
// revisions. The revision trail grows oldest-ward: stack[0] is the live item
// the modal was opened with, each fetched older revision is appended, and the
// cursor moves along the trail. Stepping "newer" and back "older" replays
// cached revisions without refetching.
type ViewModal struct {
	theme  Theme
	width  int
	height int

	stack   []etcdkv.Item
	cursor  int
	loading bool
	pretty  bool
	status  string

	closeRequested bool
	olderRequested bool
	scroll         int
}

// NewViewModal opens the viewer on the live item.
func NewViewModal(item etcdkv.Item, theme Theme) ViewModal {
	return ViewModal{
		theme: theme,
		stack: []etcdkv.Item{item},
	}
}

// Current returns the revision under the cursor.
func (m ViewModal) Current() etcdkv.Item {
	return m.stack[m.cursor]
}

// AtLive reports whether the viewer is showing the live value.
func (m ViewModal) AtLive() bool {
	return m.cursor == 0
}

// IsCloseRequested reports whether the modal should be dismissed.
func (m ViewModal) IsCloseRequested() bool {
	return m.closeRequested
}

// TakeOlderRequest returns the key and revision to fetch for the "older"
// navigation, consuming the request.
func (m *ViewModal) TakeOlderRequest() (key string, revision int64, ok bool) {
	if !m.olderRequested {
		return "", 0, false
	}
	m.olderRequested = false
	cur := m.Current()
	return cur.Key, cur.ModRevision - 1, true
}

// ApplyRevision installs the result of an older-revision fetch. A nil item
// means the earlier version is gone (compacted away): the trail stays put and
// the user is told instead of shown an error.
func (m *ViewModal) ApplyRevision(item *etcdkv.Item, err error) {
	m.loading = false
	if err != nil {
		m.status = err.Error()
		return
	}
	if item == nil {
		m.status = "older revision no longer available (compacted)"
		return
	}
	m.stack = append(m.stack, *item)
	m.cursor = len(m.stack) - 1
	m.scroll = 0
}

// Update handles input for the view modal.
func (m ViewModal) Update(msg tea.Msg) (ViewModal, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc", "q":
		m.closeRequested = true

	case "o", "left":
		if m.loading {
			break
		}
		if m.cursor+1 < len(m.stack) {
			// Already fetched on a previous walk; no round trip.
			m.cursor++
			m.status = ""
			m.scroll = 0
			break
		}
		if m.Current().AtOldestRevision() {
			// First write of the key: nothing older exists, don't
			// bother the server.
			m.status = "already at the oldest revision"
			break
		}
		m.loading = true
		m.status = ""
		m.olderRequested = true

	case "n", "right":
		if m.cursor > 0 {
			m.cursor--
			m.status = ""
			m.scroll = 0
		}

	case "f":
		m.pretty = !m.pretty
		m.scroll = 0

	case "y":
		if err := clipboard.WriteAll(m.displayValue()); err != nil {
			m.status = "clipboard: " + err.Error()
		} else {
			m.status = "value copied to clipboard"
		}

	case "j", "down":
		m.scroll++

	case "k", "up":
		if m.scroll > 0 {
			m.scroll--
		}

	case "g":
		m.scroll = 0
	}

	return m, nil
}

func (m ViewModal) displayValue() string {
	val := m.Current().Value
	if m.pretty {
		if pretty, ok := prettyJSON(val); ok {
			return pretty
		}
	}
	return val
}

// SetSize sets the modal dimensions.
func (m *ViewModal) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the view modal.
func (m ViewModal) View() string {
	r := m.theme.Renderer
	cur := m.Current()

	boxWidth := m.width - 8
	if boxWidth < 50 {
		boxWidth = 50
	}
	if boxWidth > 110 {
		boxWidth = 110
	}
	innerWidth := boxWidth - 6

	var content strings.Builder

	title := truncate(cur.Key, innerWidth)
	content.WriteString(m.theme.PrimaryBold.Render(title))
	content.WriteString("\n")

	revLabel := fmt.Sprintf("create_rev %d  mod_rev %d  version %d  lease %d",
		cur.CreateRevision, cur.ModRevision, cur.Version, cur.Lease)
	if !m.AtLive() {
		revLabel += fmt.Sprintf("  (history, %d back)", m.cursor)
	}
	content.WriteString(m.theme.MutedText.Render(revLabel))
	content.WriteString("\n\n")

	value := m.displayValue()
	bodyHeight := m.height - 14
	if bodyHeight < 5 {
		bodyHeight = 5
	}
	lines := strings.Split(value, "\n")
	scroll := m.scroll
	if scroll > len(lines)-1 {
		scroll = len(lines) - 1
	}
	if scroll < 0 {
		scroll = 0
	}
	end := scroll + bodyHeight
	if end > len(lines) {
		end = len(lines)
	}
	for _, line := range lines[scroll:end] {
		content.WriteString(truncate(line, innerWidth))
		content.WriteString("\n")
	}
	if end < len(lines) {
		content.WriteString(m.theme.MutedText.Render(fmt.Sprintf("… %d more lines", len(lines)-end)))
		content.WriteString("\n")
	}

	content.WriteString("\n")
	if m.loading {
		content.WriteString(m.theme.InfoText.Render("loading older revision…"))
		content.WriteString("\n")
	} else if m.status != "" {
		content.WriteString(m.theme.WarningText.Render(m.status))
		content.WriteString("\n")
	}

	instructions := "[o] Older  [n] Newer  [f] Format JSON  [y] Copy  [j/k] Scroll  [Esc] Close"
	content.WriteString(r.NewStyle().Foreground(m.theme.Subtext).Italic(true).Render(instructions))

	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Primary).
		Padding(1, 2).
		Width(boxWidth).
		Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
