package etcdkv

import (
	"context"
	"sync"

	"github.com/Evanescentum/etcd-gui/pkg/config"
	"github.com/Evanescentum/etcd-gui/pkg/debug"
)

// Session owns the lazily-established client for the current profile. The UI
// swaps the profile on connection changes; the next operation reconnects.
//
// If the server rejects a call with an expired auth token, the session drops
// the cached client, reconnects and retries that call exactly once. That is
// the only transparent reconnect: anything else surfaces to the caller.
type Session struct {
	mu      sync.Mutex
	profile *config.Profile
	client  *Client
}

// NewSession returns a session with no profile. All operations fail with
// ErrNoProfile until SetProfile is called.
func NewSession() *Session {
	return &Session{}
}

// SetProfile swaps the active profile and closes any cached client. A nil
// profile disconnects.
func (s *Session) SetProfile(p *config.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		_ = s.client.Close()
		s.client = nil
	}
	s.profile = p
}

// ProfileName returns the active profile's name, or "".
func (s *Session) ProfileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return ""
	}
	return s.profile.Name
}

// Connected reports whether a client is currently established.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

// Connect eagerly establishes the connection for the active profile.
func (s *Session) Connect(ctx context.Context) error {
	_, err := s.acquire(ctx)
	return err
}

// Disconnect closes the cached client, keeping the profile.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		_ = s.client.Close()
		s.client = nil
	}
}

func (s *Session) acquire(ctx context.Context) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil, &ConnectionError{Err: ErrNoProfile}
	}
	if s.client != nil {
		return s.client, nil
	}
	c, err := Connect(ctx, *s.profile)
	if err != nil {
		return nil, err
	}
	s.client = c
	return c, nil
}

func (s *Session) dropIfCurrent(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == c {
		_ = s.client.Close()
		s.client = nil
	}
}

// do runs fn against the session's client, refreshing the connection once on
// an expired auth token.
func (s *Session) do(ctx context.Context, fn func(*Client) error) error {
	c, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	err = fn(c)
	if err != nil && shouldRefresh(err) {
		debug.Log("auth token expired, reconnecting")
		s.dropIfCurrent(c)
		c, err = s.acquire(ctx)
		if err != nil {
			return err
		}
		err = fn(c)
	}
	return err
}

// ListKeys lists keys under prefix through the current profile's connection.
func (s *Session) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.do(ctx, func(c *Client) error {
		var err error
		keys, err = c.ListKeys(ctx, prefix)
		return err
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// FetchRange fetches the inclusive key range through the current connection.
func (s *Session) FetchRange(ctx context.Context, startKey, endKey string) ([]Item, error) {
	var items []Item
	err := s.do(ctx, func(c *Client) error {
		var err error
		items, err = c.FetchRange(ctx, startKey, endKey)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetAtRevision fetches a historical version of key.
func (s *Session) GetAtRevision(ctx context.Context, key string, revision int64) (*Item, error) {
	var item *Item
	err := s.do(ctx, func(c *Client) error {
		var err error
		item, err = c.GetAtRevision(ctx, key, revision)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Put upserts a key. Refused before any remote call when the profile is
// locked.
func (s *Session) Put(ctx context.Context, key, value string) error {
	if err := s.ensureUnlocked(); err != nil {
		return err
	}
	return s.do(ctx, func(c *Client) error {
		return c.Put(ctx, key, value)
	})
}

// Delete removes a key. Refused before any remote call when the profile is
// locked.
func (s *Session) Delete(ctx context.Context, key string) error {
	if err := s.ensureUnlocked(); err != nil {
		return err
	}
	return s.do(ctx, func(c *Client) error {
		return c.Delete(ctx, key)
	})
}

// Topology probes every endpoint of the current profile.
func (s *Session) Topology(ctx context.Context) ([]EndpointStatus, error) {
	var statuses []EndpointStatus
	err := s.do(ctx, func(c *Client) error {
		statuses = c.Topology(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (s *Session) ensureUnlocked() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return &ConnectionError{Err: ErrNoProfile}
	}
	if s.profile.Locked {
		return &ValidationError{Msg: "profile " + s.profile.Name + " is locked (read-only)"}
	}
	return nil
}
