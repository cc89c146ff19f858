package ui

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Evanescentum/etcd-gui/pkg/config"
)

// defaultEtcdPort is assumed for endpoint entries without an explicit port.
const defaultEtcdPort = 2379

// ProfileForm is the add/edit dialog for a connection profile, built on huh.
// The form owns the field values; Profile() assembles them once the form
// completes.
type ProfileForm struct {
	form   *huh.Form
	theme  Theme
	width  int
	height int

	// oldName is empty in create mode, the original name when editing.
	oldName string

	status   string
	statusOK bool

	// vals lives behind a pointer: huh binds to its fields, and the form
	// model is copied on every Update.
	vals *profileFormValues
}

type profileFormValues struct {
	name           string
	endpoints      string
	username       string
	password       string
	timeout        string
	connectTimeout string
	locked         bool
}

// NewProfileForm builds the form, pre-populated from existing when editing.
func NewProfileForm(existing *config.Profile, theme Theme) ProfileForm {
	vals := &profileFormValues{}
	f := ProfileForm{theme: theme, vals: vals}

	if existing != nil {
		f.oldName = existing.Name
		vals.name = existing.Name
		vals.endpoints = strings.Join(existing.EndpointAddrs(), ", ")
		if existing.User != nil {
			vals.username = existing.User.Username
			vals.password = existing.User.Password
		}
		if existing.TimeoutMs > 0 {
			vals.timeout = strconv.FormatInt(existing.TimeoutMs, 10)
		}
		if existing.ConnectTimeoutMs > 0 {
			vals.connectTimeout = strconv.FormatInt(existing.ConnectTimeoutMs, 10)
		}
		vals.locked = existing.Locked
	}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Profile name").
				Value(&vals.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name must not be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Endpoints").
				Description("Comma-separated host:port list (port defaults to 2379)").
				Value(&vals.endpoints).
				Validate(func(s string) error {
					_, err := parseEndpoints(s)
					return err
				}),
			huh.NewInput().
				Title("Username").
				Description("Leave empty for no authentication").
				Value(&vals.username),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&vals.password),
			huh.NewInput().
				Title("Request timeout (ms)").
				Description("Leave empty for the default").
				Value(&vals.timeout).
				Validate(validateOptionalMs),
			huh.NewInput().
				Title("Connect timeout (ms)").
				Description("Dial timeout; leave empty for the default").
				Value(&vals.connectTimeout).
				Validate(validateOptionalMs),
			huh.NewConfirm().
				Title("Lock profile (read-only)?").
				Description("Locked profiles refuse puts and deletes").
				Value(&vals.locked),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(true)

	return f
}

// Init starts the underlying huh form.
func (f ProfileForm) Init() tea.Cmd {
	return f.form.Init()
}

// IsEdit reports whether the form edits an existing profile.
func (f ProfileForm) IsEdit() bool { return f.oldName != "" }

// OldName returns the name of the profile being edited, or "".
func (f ProfileForm) OldName() string { return f.oldName }

// SetStatus shows a transient message under the form (e.g. a connection test
// result).
func (f *ProfileForm) SetStatus(msg string, ok bool) {
	f.status = msg
	f.statusOK = ok
}

// Completed reports whether the user submitted the form.
func (f ProfileForm) Completed() bool { return f.form.State == huh.StateCompleted }

// Aborted reports whether the user cancelled the form.
func (f ProfileForm) Aborted() bool { return f.form.State == huh.StateAborted }

// Update forwards every message to the huh form; huh needs non-key messages
// for its internal field navigation.
func (f ProfileForm) Update(msg tea.Msg) (ProfileForm, tea.Cmd) {
	model, cmd := f.form.Update(msg)
	if form, ok := model.(*huh.Form); ok {
		f.form = form
	}
	return f, cmd
}

// Profile assembles the edited profile from the form fields.
func (f ProfileForm) Profile() (config.Profile, error) {
	endpoints, err := parseEndpoints(f.vals.endpoints)
	if err != nil {
		return config.Profile{}, err
	}

	p := config.Profile{
		Name:      strings.TrimSpace(f.vals.name),
		Endpoints: endpoints,
		Locked:    f.vals.locked,
	}

	if strings.TrimSpace(f.vals.username) != "" {
		p.User = &config.Credentials{
			Username: strings.TrimSpace(f.vals.username),
			Password: f.vals.password,
		}
	}

	if t := strings.TrimSpace(f.vals.timeout); t != "" {
		ms, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return config.Profile{}, fmt.Errorf("invalid timeout: %w", err)
		}
		p.TimeoutMs = ms
	}
	if t := strings.TrimSpace(f.vals.connectTimeout); t != "" {
		ms, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return config.Profile{}, fmt.Errorf("invalid connect timeout: %w", err)
		}
		p.ConnectTimeoutMs = ms
	}

	return p, p.Validate()
}

// validateOptionalMs accepts an empty string or a positive integer.
func validateOptionalMs(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return errors.New("must be a positive integer")
	}
	return nil
}

// SetSize sets the form dimensions.
func (f *ProfileForm) SetSize(width, height int) {
	f.width = width
	f.height = height
	if f.form == nil {
		return
	}
	w := width - 16
	if w < 50 {
		w = 50
	}
	if w > 80 {
		w = 80
	}
	f.form = f.form.WithWidth(w)
}

// View renders the profile form.
func (f ProfileForm) View() string {
	r := f.theme.Renderer

	title := "Add Profile"
	if f.IsEdit() {
		title = "Edit Profile: " + f.oldName
	}

	content := f.theme.PrimaryBold.Render(title) + "\n\n" + f.form.View()

	if f.status != "" {
		style := f.theme.SuccessText
		if !f.statusOK {
			style = f.theme.DangerText
		}
		content += "\n" + style.Render(truncate(f.status, 70))
	}
	content += "\n" + r.NewStyle().Foreground(f.theme.Subtext).Italic(true).Render("[Ctrl+T] Test connection")

	box := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(f.theme.Primary).
		Padding(1, 2).
		Render(content)

	return lipgloss.Place(f.width, f.height, lipgloss.Center, lipgloss.Center, box)
}

// parseEndpoints parses a comma-separated endpoint list. Entries are
// host:port, with the port defaulting to 2379 when omitted.
func parseEndpoints(s string) ([]config.Endpoint, error) {
	var endpoints []config.Endpoint
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		host, portStr, err := net.SplitHostPort(part)
		if err != nil {
			// No port given; the whole entry is the host.
			host, portStr = part, strconv.Itoa(defaultEtcdPort)
			if strings.Contains(part, ":") && !strings.HasPrefix(part, "[") {
				return nil, fmt.Errorf("invalid endpoint %q", part)
			}
		}
		if host == "" {
			return nil, fmt.Errorf("invalid endpoint %q: empty host", part)
		}

		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil || port == 0 {
			return nil, fmt.Errorf("invalid endpoint %q: bad port", part)
		}

		endpoints = append(endpoints, config.Endpoint{Host: host, Port: uint16(port)})
	}

	if len(endpoints) == 0 {
		return nil, errors.New("at least one endpoint is required")
	}
	return endpoints, nil
}
