// Package etcdkv is the remote-call layer between the UI and an etcd
// cluster. It exposes the handful of queries the browser and dialogs need
// (keys-only prefix listing, inclusive range fetch, point lookup at a
// revision, put, delete, per-endpoint status) and classifies every failure
// into the ConnectionError / AuthError / ValidationError taxonomy.
//
// Read queries retry a bounded number of times on connection failures.
// Mutations never retry automatically: a retried put or delete on an
// ambiguous failure could double-apply, so the user retries those by hand.
package etcdkv

import (
	"context"
	"sort"
	"time"
	"unicode/utf8"

	clientv3 "go.etcd.io/etcd/client/v3"
	"golang.org/x/sync/errgroup"

	"github.com/Evanescentum/etcd-gui/pkg/config"
	"github.com/Evanescentum/etcd-gui/pkg/debug"
)

const (
	// defaultDialTimeout applies when the profile has no connect_timeout_ms.
	defaultDialTimeout = 5 * time.Second
	// defaultRequestTimeout applies when the profile has no timeout_ms.
	defaultRequestTimeout = 10 * time.Second
	// maxReadRetries bounds automatic retries for read queries.
	maxReadRetries = 2

	keepaliveTime    = 30 * time.Second
	keepaliveTimeout = 10 * time.Second
)

// Item is one key-value pair as stored in the cluster.
type Item struct {
	Key            string
	Value          string
	CreateRevision int64
	ModRevision    int64
	Version        int64
	Lease          int64
}

// AtOldestRevision reports whether the item is the first write of its key,
// i.e. there is no older revision to step back to.
func (it Item) AtOldestRevision() bool {
	return it.ModRevision <= it.CreateRevision
}

// EndpointStatus is the health of a single cluster member, as shown by the
// topology view.
type EndpointStatus struct {
	Endpoint  string
	Version   string
	DBSize    int64
	IsLeader  bool
	MemberID  uint64
	RaftIndex uint64
	Err       error
}

// Client is a connection to one etcd cluster, built from a profile.
type Client struct {
	cli       *clientv3.Client
	endpoints []string
	timeout   time.Duration
}

// Connect dials the cluster described by the profile and verifies it is
// reachable with a status probe against the first endpoint.
func Connect(ctx context.Context, p config.Profile) (*Client, error) {
	if len(p.Endpoints) == 0 {
		return nil, &ValidationError{Msg: "profile has no endpoints"}
	}

	dialTimeout := p.ConnectTimeout()
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	reqTimeout := p.Timeout()
	if reqTimeout <= 0 {
		reqTimeout = defaultRequestTimeout
	}

	cfg := clientv3.Config{
		Endpoints:            p.EndpointAddrs(),
		DialTimeout:          dialTimeout,
		DialKeepAliveTime:    keepaliveTime,
		DialKeepAliveTimeout: keepaliveTimeout,
		Context:              ctx,
	}
	if p.User != nil {
		cfg.Username = p.User.Username
		cfg.Password = p.User.Password
	}

	cli, err := clientv3.New(cfg)
	if err != nil {
		return nil, classify(err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if _, err := cli.Status(probeCtx, cfg.Endpoints[0]); err != nil {
		cli.Close()
		return nil, classify(err)
	}

	debug.Log("connected to %v as profile %q", cfg.Endpoints, p.Name)
	return &Client{cli: cli, endpoints: cfg.Endpoints, timeout: reqTimeout}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.cli.Close()
}

// Endpoints returns the endpoint addresses this client was dialed with.
func (c *Client) Endpoints() []string {
	return c.endpoints
}

func (c *Client) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// withReadRetries runs fn, retrying up to maxReadRetries times on connection
// failures. Auth and validation failures are returned immediately.
func withReadRetries(fn func() error) error {
	var err error
	for attempt := 0; attempt <= maxReadRetries; attempt++ {
		err = fn()
		if err == nil || !IsConnectionError(err) {
			return err
		}
		debug.Log("read query failed (attempt %d/%d): %v", attempt+1, maxReadRetries+1, err)
	}
	return err
}

// ListKeys returns every key starting with prefix, sorted ascending, without
// values. An empty prefix lists the whole keyspace. Keys that are not valid
// UTF-8 are skipped: the UI cannot display or re-enter them faithfully.
func (c *Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := withReadRetries(func() error {
		opCtx, cancel := c.opCtx(ctx)
		defer cancel()

		resp, err := c.cli.Get(opCtx, prefix,
			clientv3.WithPrefix(),
			clientv3.WithKeysOnly(),
			clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend),
		)
		if err != nil {
			return classify(err)
		}

		keys = keys[:0]
		for _, kv := range resp.Kvs {
			if !utf8.Valid(kv.Key) {
				continue
			}
			keys = append(keys, string(kv.Key))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// FetchRange returns items for every key k with startKey <= k <= endKey,
// sorted ascending. startKey == endKey yields zero or one item. Empty bounds
// yield an empty result without a remote call; the browser never asks for an
// unbounded range.
func (c *Client) FetchRange(ctx context.Context, startKey, endKey string) ([]Item, error) {
	if startKey == "" || endKey == "" {
		return nil, nil
	}
	if startKey > endKey {
		return nil, &ValidationError{Msg: "range start is after range end"}
	}

	var items []Item
	err := withReadRetries(func() error {
		opCtx, cancel := c.opCtx(ctx)
		defer cancel()

		// The etcd range end is exclusive; appending a zero byte makes
		// endKey itself the last included key.
		resp, err := c.cli.Get(opCtx, startKey,
			clientv3.WithRange(endKey+"\x00"),
			clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend),
		)
		if err != nil {
			return classify(err)
		}

		items = items[:0]
		for _, kv := range resp.Kvs {
			if !utf8.Valid(kv.Key) || !utf8.Valid(kv.Value) {
				continue
			}
			items = append(items, itemFromKV(kv))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetAtRevision returns the value of key as of the given store revision, or
// nil if the key had no version at or before that revision. A revision that
// has been compacted away also reports not-found rather than an error; the
// history simply ends there.
func (c *Client) GetAtRevision(ctx context.Context, key string, revision int64) (*Item, error) {
	if key == "" {
		return nil, &ValidationError{Msg: "key must not be empty"}
	}
	if revision <= 0 {
		return nil, nil
	}

	var item *Item
	err := withReadRetries(func() error {
		opCtx, cancel := c.opCtx(ctx)
		defer cancel()

		resp, err := c.cli.Get(opCtx, key, clientv3.WithRev(revision))
		if err != nil {
			if isCompacted(err) {
				item = nil
				return nil
			}
			return classify(err)
		}
		if len(resp.Kvs) == 0 {
			item = nil
			return nil
		}
		it := itemFromKV(resp.Kvs[0])
		item = &it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Put upserts a key. Last write wins; there is no optimistic locking.
func (c *Client) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return &ValidationError{Msg: "key must not be empty"}
	}

	opCtx, cancel := c.opCtx(ctx)
	defer cancel()

	_, err := c.cli.Put(opCtx, key, value)
	return classify(err)
}

// Delete removes a key. Deleting a missing key is a no-op, not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	if key == "" {
		return &ValidationError{Msg: "key must not be empty"}
	}

	opCtx, cancel := c.opCtx(ctx)
	defer cancel()

	_, err := c.cli.Delete(opCtx, key)
	return classify(err)
}

// Topology probes every configured endpoint concurrently and reports each
// member's version, DB size and leadership. Per-endpoint failures land in the
// entry's Err field instead of failing the whole view.
func (c *Client) Topology(ctx context.Context) []EndpointStatus {
	statuses := make([]EndpointStatus, len(c.endpoints))

	g, gctx := errgroup.WithContext(ctx)
	for i, ep := range c.endpoints {
		g.Go(func() error {
			opCtx, cancel := context.WithTimeout(gctx, c.timeout)
			defer cancel()

			st := EndpointStatus{Endpoint: ep}
			resp, err := c.cli.Status(opCtx, ep)
			if err != nil {
				st.Err = classify(err)
			} else {
				st.Version = resp.Version
				st.DBSize = resp.DbSize
				st.MemberID = resp.Header.MemberId
				st.IsLeader = resp.Leader == resp.Header.MemberId
				st.RaftIndex = resp.RaftIndex
			}
			statuses[i] = st
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(statuses, func(i, j int) bool {
		return statuses[i].Endpoint < statuses[j].Endpoint
	})
	return statuses
}

// TestConnection dials with an arbitrary profile (typically one being edited
// and not yet saved) and returns the server version on success.
func TestConnection(ctx context.Context, p config.Profile) (string, error) {
	if err := p.Validate(); err != nil {
		return "", &ValidationError{Msg: err.Error()}
	}

	c, err := Connect(ctx, p)
	if err != nil {
		return "", err
	}
	defer c.Close()

	opCtx, cancel := c.opCtx(ctx)
	defer cancel()

	resp, err := c.cli.Status(opCtx, c.endpoints[0])
	if err != nil {
		return "", classify(err)
	}
	return resp.Version, nil
}
