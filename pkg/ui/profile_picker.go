package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Evanescentum/etcd-gui/pkg/config"
)

// ProfilePicker lists connection profiles and lets the user switch, manage
// and probe them. It does not touch the config itself: selections surface as
// requests the root model acts on.
type ProfilePicker struct {
	theme  Theme
	width  int
	height int

	profiles []config.Profile
	current  string
	cursor   int
	status   string
	statusOK bool

	selectRequested bool
	addRequested    bool
	editRequested   bool
	deleteRequested bool
	testRequested   bool
	lockRequested   bool
	closeRequested  bool
}

// NewProfilePicker builds a picker over the config's profiles. The cursor
// starts on the current profile.
func NewProfilePicker(cfg config.Config, theme Theme) ProfilePicker {
	p := ProfilePicker{
		theme:    theme,
		profiles: cfg.Profiles,
		current:  cfg.CurrentProfile,
	}
	for i, prof := range cfg.Profiles {
		if prof.Name == cfg.CurrentProfile {
			p.cursor = i
			break
		}
	}
	return p
}

// Selected returns the profile under the cursor, or nil when there are none.
func (p ProfilePicker) Selected() *config.Profile {
	if len(p.profiles) == 0 || p.cursor < 0 || p.cursor >= len(p.profiles) {
		return nil
	}
	return &p.profiles[p.cursor]
}

// SetStatus shows a transient message inside the picker (e.g. a connection
// test result).
func (p *ProfilePicker) SetStatus(msg string, ok bool) {
	p.status = msg
	p.statusOK = ok
}

// Request accessors; each consumes the flag it reports.

func (p *ProfilePicker) TakeSelect() bool { return takeFlag(&p.selectRequested) }
func (p *ProfilePicker) TakeAdd() bool    { return takeFlag(&p.addRequested) }
func (p *ProfilePicker) TakeEdit() bool   { return takeFlag(&p.editRequested) }
func (p *ProfilePicker) TakeDelete() bool { return takeFlag(&p.deleteRequested) }
func (p *ProfilePicker) TakeTest() bool   { return takeFlag(&p.testRequested) }
func (p *ProfilePicker) TakeLock() bool   { return takeFlag(&p.lockRequested) }

// IsCloseRequested reports whether the picker should be dismissed.
func (p ProfilePicker) IsCloseRequested() bool { return p.closeRequested }

func takeFlag(f *bool) bool {
	v := *f
	*f = false
	return v
}

// Update handles input for the profile picker.
func (p ProfilePicker) Update(msg tea.Msg) (ProfilePicker, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch keyMsg.String() {
	case "esc", "q":
		p.closeRequested = true

	case "j", "down":
		if p.cursor < len(p.profiles)-1 {
			p.cursor++
			p.status = ""
		}

	case "k", "up":
		if p.cursor > 0 {
			p.cursor--
			p.status = ""
		}

	case "enter":
		if p.Selected() != nil {
			p.selectRequested = true
		}

	case "a":
		p.addRequested = true

	case "e":
		if p.Selected() != nil {
			p.editRequested = true
		}

	case "d":
		if p.Selected() != nil {
			p.deleteRequested = true
		}

	case "t":
		if p.Selected() != nil {
			p.testRequested = true
			p.status = "testing connection…"
			p.statusOK = true
		}

	case "L":
		if p.Selected() != nil {
			p.lockRequested = true
		}
	}

	return p, nil
}

// SetSize sets the picker dimensions.
func (p *ProfilePicker) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// View renders the profile picker.
func (p ProfilePicker) View() string {
	r := p.theme.Renderer

	var content strings.Builder
	content.WriteString(p.theme.PrimaryBold.Render("Connection Profiles"))
	content.WriteString("\n\n")

	if len(p.profiles) == 0 {
		content.WriteString(p.theme.MutedText.Render("No profiles yet. Press 'a' to add one."))
		content.WriteString("\n")
	}

	for i, prof := range p.profiles {
		marker := "  "
		if prof.Name == p.current {
			marker = p.theme.SuccessText.Render("● ")
		}

		name := prof.Name
		if prof.Locked {
			name += " " + p.theme.WarningText.Render("[locked]")
		}

		endpoints := strings.Join(prof.EndpointAddrs(), ", ")
		line := fmt.Sprintf("%s%s  %s", marker, name, p.theme.MutedText.Render(truncate(endpoints, 48)))

		if i == p.cursor {
			content.WriteString(p.theme.Selected.Render(line))
		} else {
			content.WriteString(" " + line)
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	if p.status != "" {
		style := p.theme.SuccessText
		if !p.statusOK {
			style = p.theme.DangerText
		}
		content.WriteString(style.Render(truncate(p.status, 70)))
		content.WriteString("\n")
	}

	instructions := "[Enter] Connect  [a] Add  [e] Edit  [d] Delete  [t] Test  [L] Lock  [Esc] Close"
	content.WriteString(r.NewStyle().Foreground(p.theme.Subtext).Italic(true).Render(instructions))

	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.theme.Primary).
		Padding(1, 2).
		Render(content.String())

	return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, box)
}
