package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testProfile(name string) Profile {
	return Profile{
		Name:      name,
		Endpoints: []Endpoint{{Host: "localhost", Port: 2379}},
	}
}

func TestLoadFrom_MissingFileReturnsDefault(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope", "config.json"))
	if err != nil {
		t.Fatalf("LoadFrom missing file: %v", err)
	}
	if cfg.ColorTheme != ThemeSystem {
		t.Errorf("expected system theme default, got %q", cfg.ColorTheme)
	}
	if len(cfg.Profiles) != 0 || cfg.CurrentProfile != "" {
		t.Errorf("expected empty default config, got %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	if err := cfg.AddProfile(Profile{
		Name:             "prod",
		Endpoints:        []Endpoint{{Host: "etcd-1", Port: 2379}, {Host: "etcd-2", Port: 2380}},
		User:             &Credentials{Username: "root", Password: "secret"},
		TimeoutMs:        5000,
		ConnectTimeoutMs: 2000,
		Locked:           true,
	}); err != nil {
		t.Fatal(err)
	}
	cfg.ColorTheme = ThemeDark

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	// Saved file should be pretty-printed JSON.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "\n  ") {
		t.Error("config file is not indented")
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.CurrentProfile != "prod" {
		t.Errorf("current profile = %q, want prod", got.CurrentProfile)
	}
	p := got.Current()
	if p == nil {
		t.Fatal("Current() returned nil")
	}
	if !p.Locked {
		t.Error("locked flag lost in round trip")
	}
	if p.User == nil || p.User.Username != "root" {
		t.Errorf("credentials lost in round trip: %+v", p.User)
	}
	if got := p.EndpointAddrs(); len(got) != 2 || got[0] != "etcd-1:2379" {
		t.Errorf("EndpointAddrs = %v", got)
	}
}

func TestLoadFrom_DanglingCurrentProfileCleared(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"profiles":[{"name":"a","endpoints":[{"host":"h","port":1}]}],"current_profile":"gone","color_theme":"dark"}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentProfile != "" {
		t.Errorf("dangling current_profile not cleared: %q", cfg.CurrentProfile)
	}
}

func TestLoadFrom_UnknownThemeFallsBackToSystem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"profiles":[],"color_theme":"solarized"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ColorTheme != ThemeSystem {
		t.Errorf("theme = %q, want system", cfg.ColorTheme)
	}
}

func TestAddProfile_FirstBecomesCurrent(t *testing.T) {
	cfg := Default()
	if err := cfg.AddProfile(testProfile("a")); err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentProfile != "a" {
		t.Errorf("first profile should become current, got %q", cfg.CurrentProfile)
	}
	if err := cfg.AddProfile(testProfile("b")); err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentProfile != "a" {
		t.Errorf("adding a second profile must not steal current, got %q", cfg.CurrentProfile)
	}
}

func TestAddProfile_RejectsDuplicateAndInvalid(t *testing.T) {
	cfg := Default()
	if err := cfg.AddProfile(testProfile("a")); err != nil {
		t.Fatal(err)
	}
	if err := cfg.AddProfile(testProfile("a")); err == nil {
		t.Error("duplicate name accepted")
	}
	if err := cfg.AddProfile(testProfile("  ")); err == nil {
		t.Error("blank name accepted")
	}
	if err := cfg.AddProfile(Profile{Name: "x"}); err == nil {
		t.Error("profile without endpoints accepted")
	}
	if err := cfg.AddProfile(Profile{Name: "y", Endpoints: []Endpoint{{Host: "h"}}}); err == nil {
		t.Error("endpoint with port 0 accepted")
	}
}

func TestUpdateProfile_RenameFollowsCurrent(t *testing.T) {
	cfg := Default()
	_ = cfg.AddProfile(testProfile("a"))
	_ = cfg.AddProfile(testProfile("b"))

	renamed := testProfile("a2")
	if err := cfg.UpdateProfile("a", renamed); err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentProfile != "a2" {
		t.Errorf("current should follow rename, got %q", cfg.CurrentProfile)
	}

	// Renaming onto an existing name is rejected.
	if err := cfg.UpdateProfile("a2", testProfile("b")); err == nil {
		t.Error("rename onto existing profile accepted")
	}
}

func TestDeleteProfile_ReassignsCurrent(t *testing.T) {
	cfg := Default()
	_ = cfg.AddProfile(testProfile("a"))
	_ = cfg.AddProfile(testProfile("b"))

	if err := cfg.DeleteProfile("a"); err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentProfile != "b" {
		t.Errorf("current should reassign to remaining profile, got %q", cfg.CurrentProfile)
	}

	if err := cfg.DeleteProfile("b"); err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentProfile != "" {
		t.Errorf("current should clear when no profiles remain, got %q", cfg.CurrentProfile)
	}

	if err := cfg.DeleteProfile("b"); err == nil {
		t.Error("deleting a missing profile should error")
	}
}

func TestDeleteProfile_NonCurrentKeepsCurrent(t *testing.T) {
	cfg := Default()
	_ = cfg.AddProfile(testProfile("a"))
	_ = cfg.AddProfile(testProfile("b"))

	if err := cfg.DeleteProfile("b"); err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentProfile != "a" {
		t.Errorf("deleting non-current profile changed current to %q", cfg.CurrentProfile)
	}
}

func TestEnsureCurrentUnlocked(t *testing.T) {
	cfg := Default()
	if err := cfg.EnsureCurrentUnlocked(); err == nil {
		t.Error("no current profile should be an error")
	}

	p := testProfile("a")
	p.Locked = true
	_ = cfg.AddProfile(p)
	if err := cfg.EnsureCurrentUnlocked(); err != ErrProfileLocked {
		t.Errorf("expected ErrProfileLocked, got %v", err)
	}

	cfg.FindProfile("a").Locked = false
	if err := cfg.EnsureCurrentUnlocked(); err != nil {
		t.Errorf("unlocked profile should pass, got %v", err)
	}
}

func TestSetCurrent(t *testing.T) {
	cfg := Default()
	_ = cfg.AddProfile(testProfile("a"))

	if err := cfg.SetCurrent("missing"); err == nil {
		t.Error("SetCurrent on missing profile should error")
	}
	if err := cfg.SetCurrent(""); err != nil {
		t.Errorf("clearing current should succeed: %v", err)
	}
	if cfg.Current() != nil {
		t.Error("Current() should be nil after clearing")
	}
	if err := cfg.SetCurrent("a"); err != nil {
		t.Fatal(err)
	}
	if cfg.Current() == nil {
		t.Error("Current() nil after SetCurrent")
	}
}
