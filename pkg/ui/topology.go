package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Evanescentum/etcd-gui/pkg/etcdkv"
)

// TopologyView shows per-endpoint cluster health: version, DB size, raft
// index and which member is the leader.
type TopologyView struct {
	theme  Theme
	width  int
	height int

	statuses []etcdkv.EndpointStatus
	loading  bool
	err      error

	refreshRequested bool
	closeRequested   bool
}

// NewTopologyView opens the view in its loading state; the first probe is
// issued by the caller.
func NewTopologyView(theme Theme) TopologyView {
	return TopologyView{theme: theme, loading: true}
}

// Apply installs a probe result.
func (t *TopologyView) Apply(statuses []etcdkv.EndpointStatus, err error) {
	t.loading = false
	t.statuses = statuses
	t.err = err
}

// TakeRefresh consumes a pending refresh request.
func (t *TopologyView) TakeRefresh() bool { return takeFlag(&t.refreshRequested) }

// IsCloseRequested reports whether the view should be dismissed.
func (t TopologyView) IsCloseRequested() bool { return t.closeRequested }

// Update handles input for the topology view.
func (t TopologyView) Update(msg tea.Msg) (TopologyView, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}
	switch keyMsg.String() {
	case "esc", "q":
		t.closeRequested = true
	case "r":
		if !t.loading {
			t.loading = true
			t.refreshRequested = true
		}
	}
	return t, nil
}

// SetSize sets the view dimensions.
func (t *TopologyView) SetSize(width, height int) {
	t.width = width
	t.height = height
}

// View renders the topology view.
func (t TopologyView) View() string {
	r := t.theme.Renderer

	var content strings.Builder
	content.WriteString(t.theme.PrimaryBold.Render("Cluster Topology"))
	content.WriteString("\n\n")

	switch {
	case t.loading:
		content.WriteString(t.theme.InfoText.Render("probing endpoints…"))
		content.WriteString("\n")

	case t.err != nil:
		content.WriteString(t.theme.DangerText.Render(truncate(t.err.Error(), 76)))
		content.WriteString("\n")

	default:
		header := fmt.Sprintf("%s %s %s %s %s",
			padRight("ENDPOINT", 28), padRight("VERSION", 9),
			padRight("DB SIZE", 10), padRight("RAFT", 8), "ROLE")
		content.WriteString(t.theme.SecondaryText.Bold(true).Render(header))
		content.WriteString("\n")

		for _, st := range t.statuses {
			if st.Err != nil {
				line := fmt.Sprintf("%s %s",
					padRight(truncate(st.Endpoint, 28), 28),
					t.theme.DangerText.Render(truncate(st.Err.Error(), 46)))
				content.WriteString(line)
				content.WriteString("\n")
				continue
			}

			role := ""
			if st.IsLeader {
				role = t.theme.SuccessText.Render("leader")
			}
			line := fmt.Sprintf("%s %s %s %s %s",
				padRight(truncate(st.Endpoint, 28), 28),
				padRight(st.Version, 9),
				padRight(formatBytes(st.DBSize), 10),
				padRight(fmt.Sprintf("%d", st.RaftIndex), 8),
				role)
			content.WriteString(line)
			content.WriteString("\n")
		}
	}

	content.WriteString("\n")
	content.WriteString(r.NewStyle().Foreground(t.theme.Subtext).Italic(true).Render("[r] Refresh   [Esc] Close"))

	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.theme.Primary).
		Padding(1, 2).
		Render(content.String())

	return lipgloss.Place(t.width, t.height, lipgloss.Center, lipgloss.Center, box)
}
