// Package config handles loading and saving the persisted application
// configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/etcd-gui/config.json
//   - State:  ~/.local/state/etcd-gui/ (path history database, debug log)
//
// The config document is JSON and holds connection profiles, the name of the
// current profile, the color theme and font preferences. It is treated as an
// external collaborator: other tools (or the user's editor) may rewrite it
// while the application runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// ColorTheme selects the UI palette.
type ColorTheme string

const (
	ThemeLight  ColorTheme = "light"
	ThemeDark   ColorTheme = "dark"
	ThemeSystem ColorTheme = "system"
)

// Endpoint is one etcd cluster member address.
type Endpoint struct {
	Host string `json:"host"`
	Port uint16 `json:"port"`
}

// Addr returns the host:port form used for dialing.
func (e Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// Credentials holds etcd username/password authentication.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Profile defines the connection information for one etcd cluster.
type Profile struct {
	Name             string       `json:"name"`
	Endpoints        []Endpoint   `json:"endpoints"`
	User             *Credentials `json:"user,omitempty"`
	TimeoutMs        int64        `json:"timeout_ms,omitempty"`
	ConnectTimeoutMs int64        `json:"connect_timeout_ms,omitempty"`

	// Locked marks the profile read-only: puts and deletes are refused
	// before any remote call is made.
	Locked bool `json:"locked,omitempty"`
}

// EndpointAddrs returns all endpoints in host:port form.
func (p Profile) EndpointAddrs() []string {
	addrs := make([]string, 0, len(p.Endpoints))
	for _, e := range p.Endpoints {
		addrs = append(addrs, e.Addr())
	}
	return addrs
}

// Timeout returns the per-request timeout, or 0 if unset.
func (p Profile) Timeout() time.Duration {
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

// ConnectTimeout returns the dial timeout, or 0 if unset.
func (p Profile) ConnectTimeout() time.Duration {
	return time.Duration(p.ConnectTimeoutMs) * time.Millisecond
}

// Validate checks the profile for use as a new or updated entry.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("profile name must not be empty")
	}
	if len(p.Endpoints) == 0 {
		return fmt.Errorf("profile %q has no endpoints", p.Name)
	}
	for _, e := range p.Endpoints {
		if strings.TrimSpace(e.Host) == "" {
			return fmt.Errorf("profile %q has an endpoint with an empty host", p.Name)
		}
		if e.Port == 0 {
			return fmt.Errorf("profile %q has an endpoint with port 0", p.Name)
		}
	}
	return nil
}

// FontConfig holds font preferences. The terminal owns actual font rendering;
// these are kept so the config file round-trips for other frontends.
type FontConfig struct {
	Family string `json:"family,omitempty"`
	Size   int    `json:"size,omitempty"`
}

// Config is the top-level persisted configuration.
type Config struct {
	Profiles []Profile `json:"profiles"`

	// CurrentProfile is the name of the active profile, or "" if none.
	// When non-empty it always references an existing Profiles entry.
	CurrentProfile string     `json:"current_profile,omitempty"`
	ColorTheme     ColorTheme `json:"color_theme"`
	Font           FontConfig `json:"font,omitempty"`
}

// Default returns a Config with no profiles and the system theme.
func Default() Config {
	return Config{
		ColorTheme: ThemeSystem,
	}
}

// ConfigDir returns the XDG config directory for etcd-gui.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "etcd-gui")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "etcd-gui")
}

// StateDir returns the XDG state directory for etcd-gui.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "etcd-gui")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "etcd-gui")
}

// Path returns the full path to config.json.
func Path() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.json")
}

// Load reads the config file from the XDG config directory.
// Returns Default if the file doesn't exist.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns Default if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	switch cfg.ColorTheme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		cfg.ColorTheme = ThemeSystem
	}

	// A dangling current_profile reference loads as "no profile" rather
	// than failing; Save will drop it.
	if cfg.CurrentProfile != "" && cfg.FindProfile(cfg.CurrentProfile) == nil {
		cfg.CurrentProfile = ""
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := Path()
	if path == "" {
		return errors.New("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path, pretty-printed.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// FindProfile returns the profile with the given name, or nil.
func (c *Config) FindProfile(name string) *Profile {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i]
		}
	}
	return nil
}

// Current returns the active profile, or nil if none is set.
func (c *Config) Current() *Profile {
	if c.CurrentProfile == "" {
		return nil
	}
	return c.FindProfile(c.CurrentProfile)
}

// SetCurrent makes the named profile current. An empty name clears the
// selection.
func (c *Config) SetCurrent(name string) error {
	if name == "" {
		c.CurrentProfile = ""
		return nil
	}
	if c.FindProfile(name) == nil {
		return fmt.Errorf("no profile named %q", name)
	}
	c.CurrentProfile = name
	return nil
}

// AddProfile appends a new profile, enforcing name uniqueness. If it is the
// only profile it becomes current.
func (c *Config) AddProfile(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if c.FindProfile(p.Name) != nil {
		return fmt.Errorf("profile %q already exists", p.Name)
	}
	c.Profiles = append(c.Profiles, p)
	if len(c.Profiles) == 1 {
		c.CurrentProfile = p.Name
	}
	return nil
}

// UpdateProfile replaces the profile named oldName with p. Renaming onto an
// existing profile is rejected; renaming the current profile follows it.
func (c *Config) UpdateProfile(oldName string, p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	existing := c.FindProfile(oldName)
	if existing == nil {
		return fmt.Errorf("no profile named %q", oldName)
	}
	if p.Name != oldName && c.FindProfile(p.Name) != nil {
		return fmt.Errorf("profile %q already exists", p.Name)
	}
	*existing = p
	if c.CurrentProfile == oldName {
		c.CurrentProfile = p.Name
	}
	return nil
}

// DeleteProfile removes the named profile. If it was current, the first
// remaining profile becomes current, or the selection is cleared when none
// remain.
func (c *Config) DeleteProfile(name string) error {
	idx := -1
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("no profile named %q", name)
	}
	c.Profiles = append(c.Profiles[:idx], c.Profiles[idx+1:]...)
	if c.CurrentProfile == name {
		if len(c.Profiles) > 0 {
			c.CurrentProfile = c.Profiles[0].Name
		} else {
			c.CurrentProfile = ""
		}
	}
	return nil
}

// ErrProfileLocked is returned when a mutation is attempted through a profile
// marked read-only.
var ErrProfileLocked = errors.New("current profile is locked (read-only)")

// EnsureCurrentUnlocked guards commands that change server data.
func (c *Config) EnsureCurrentUnlocked() error {
	p := c.Current()
	if p == nil {
		return errors.New("no current profile set")
	}
	if p.Locked {
		return ErrProfileLocked
	}
	return nil
}
