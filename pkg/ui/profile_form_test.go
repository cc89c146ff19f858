package ui

import (
	"reflect"
	"testing"

	"github.com/Evanescentum/etcd-gui/pkg/config"
)

func TestParseEndpoints(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []config.Endpoint
		wantErr bool
	}{
		{
			name: "single",
			in:   "localhost:2379",
			want: []config.Endpoint{{Host: "localhost", Port: 2379}},
		},
		{
			name: "multiple with spaces",
			in:   "a:1, b:2 ,c:3",
			want: []config.Endpoint{{Host: "a", Port: 1}, {Host: "b", Port: 2}, {Host: "c", Port: 3}},
		},
		{
			name: "default port",
			in:   "etcd.internal",
			want: []config.Endpoint{{Host: "etcd.internal", Port: 2379}},
		},
		{
			name: "ipv6",
			in:   "[::1]:2380",
			want: []config.Endpoint{{Host: "::1", Port: 2380}},
		},
		{
			name: "trailing comma ignored",
			in:   "h:1,",
			want: []config.Endpoint{{Host: "h", Port: 1}},
		},
		{name: "empty", in: "", wantErr: true},
		{name: "only commas", in: ", ,", wantErr: true},
		{name: "empty host", in: ":2379", wantErr: true},
		{name: "zero port", in: "h:0", wantErr: true},
		{name: "bad port", in: "h:http", wantErr: true},
		{name: "port overflow", in: "h:70000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEndpoints(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseEndpoints(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseEndpoints(%q): %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseEndpoints(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestProfileFormAssemblesProfile(t *testing.T) {
	f := NewProfileForm(nil, TestTheme())
	f.vals.name = "staging"
	f.vals.endpoints = "etcd1:2379, etcd2:2379"
	f.vals.username = "reader"
	f.vals.password = "secret"
	f.vals.timeout = "2500"
	f.vals.connectTimeout = "900"
	f.vals.locked = true

	p, err := f.Profile()
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "staging" || len(p.Endpoints) != 2 || !p.Locked {
		t.Errorf("profile = %+v", p)
	}
	if p.User == nil || p.User.Username != "reader" || p.User.Password != "secret" {
		t.Errorf("credentials = %+v", p.User)
	}
	if p.TimeoutMs != 2500 {
		t.Errorf("timeout = %d", p.TimeoutMs)
	}
	if p.ConnectTimeoutMs != 900 {
		t.Errorf("connect timeout = %d", p.ConnectTimeoutMs)
	}
}

func TestProfileFormOmitsEmptyCredentials(t *testing.T) {
	f := NewProfileForm(nil, TestTheme())
	f.vals.name = "open"
	f.vals.endpoints = "localhost:2379"

	p, err := f.Profile()
	if err != nil {
		t.Fatal(err)
	}
	if p.User != nil {
		t.Errorf("empty username should omit credentials, got %+v", p.User)
	}
}

func TestProfileFormPrefillsExisting(t *testing.T) {
	existing := config.Profile{
		Name:             "prod",
		Endpoints:        []config.Endpoint{{Host: "db", Port: 2379}},
		User:             &config.Credentials{Username: "admin", Password: "pw"},
		TimeoutMs:        1000,
		ConnectTimeoutMs: 750,
		Locked:           true,
	}

	f := NewProfileForm(&existing, TestTheme())
	if !f.IsEdit() || f.OldName() != "prod" {
		t.Errorf("edit state: IsEdit=%v OldName=%q", f.IsEdit(), f.OldName())
	}

	p, err := f.Profile()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p, existing) {
		t.Errorf("round-tripped profile = %+v, want %+v", p, existing)
	}
}
