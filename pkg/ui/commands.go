package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Evanescentum/etcd-gui/pkg/browser"
	"github.com/Evanescentum/etcd-gui/pkg/config"
	"github.com/Evanescentum/etcd-gui/pkg/etcdkv"
	"github.com/Evanescentum/etcd-gui/pkg/history"
	"github.com/Evanescentum/etcd-gui/pkg/watcher"
)

// Messages produced by the async commands below. Fetch results carry the
// query identity they were issued for so the update loop can hand them to the
// browser state, which drops anything stale.

type keysLoadedMsg struct {
	query browser.Query
	keys  []string
	err   error
}

type rangeLoadedMsg struct {
	query browser.RangeQuery
	items []etcdkv.Item
	err   error
}

type putDoneMsg struct {
	key     string
	created bool
	err     error
}

type deleteDoneMsg struct {
	key string
	err error
}

type revisionLoadedMsg struct {
	key      string
	revision int64
	item     *etcdkv.Item
	err      error
}

type topologyLoadedMsg struct {
	statuses []etcdkv.EndpointStatus
	err      error
}

type historyLoadedMsg struct {
	prefixes []string
}

type testConnectionMsg struct {
	version string
	err     error
}

type connectedMsg struct {
	err error
}

// configFileChangedMsg fires when the config file changes on disk.
type configFileChangedMsg struct{}

type configReloadedMsg struct {
	cfg config.Config
	err error
}

// statusExpireMsg clears the status line; gen guards against a stale timer
// wiping a newer message.
type statusExpireMsg struct {
	gen int
}

// searchDebounceMsg commits the search input after a quiet period.
type searchDebounceMsg struct {
	gen int
}

const (
	searchDebounce = 300 * time.Millisecond
	statusLifetime = 4 * time.Second
)

func loadKeysCmd(sess *etcdkv.Session, q browser.Query) tea.Cmd {
	return func() tea.Msg {
		keys, err := sess.ListKeys(context.Background(), q.Prefix)
		return keysLoadedMsg{query: q, keys: keys, err: err}
	}
}

func loadRangeCmd(sess *etcdkv.Session, rq browser.RangeQuery) tea.Cmd {
	return func() tea.Msg {
		items, err := sess.FetchRange(context.Background(), rq.StartKey, rq.EndKey)
		return rangeLoadedMsg{query: rq, items: items, err: err}
	}
}

func putCmd(sess *etcdkv.Session, key, value string, created bool) tea.Cmd {
	return func() tea.Msg {
		err := sess.Put(context.Background(), key, value)
		return putDoneMsg{key: key, created: created, err: err}
	}
}

func deleteCmd(sess *etcdkv.Session, key string) tea.Cmd {
	return func() tea.Msg {
		err := sess.Delete(context.Background(), key)
		return deleteDoneMsg{key: key, err: err}
	}
}

func loadRevisionCmd(sess *etcdkv.Session, key string, revision int64) tea.Cmd {
	return func() tea.Msg {
		item, err := sess.GetAtRevision(context.Background(), key, revision)
		return revisionLoadedMsg{key: key, revision: revision, item: item, err: err}
	}
}

func topologyCmd(sess *etcdkv.Session) tea.Cmd {
	return func() tea.Msg {
		statuses, err := sess.Topology(context.Background())
		return topologyLoadedMsg{statuses: statuses, err: err}
	}
}

func connectCmd(sess *etcdkv.Session) tea.Cmd {
	return func() tea.Msg {
		return connectedMsg{err: sess.Connect(context.Background())}
	}
}

func testConnectionCmd(p config.Profile) tea.Cmd {
	return func() tea.Msg {
		v, err := etcdkv.TestConnection(context.Background(), p)
		return testConnectionMsg{version: v, err: err}
	}
}

// recordHistoryCmd records a visited prefix and returns the refreshed list.
// History failures are silent: suggestions are a convenience, not a feature
// worth an error banner.
func recordHistoryCmd(store *history.Store, profile, prefix string) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		prefixes, err := store.Record(profile, prefix)
		if err != nil {
			return nil
		}
		return historyLoadedMsg{prefixes: prefixes}
	}
}

func loadHistoryCmd(store *history.Store, profile string) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		prefixes, err := store.Get(profile)
		if err != nil {
			return nil
		}
		return historyLoadedMsg{prefixes: prefixes}
	}
}

// watchConfigCmd blocks on the watcher's change channel; re-issued by the
// update loop after each delivery.
func watchConfigCmd(w *watcher.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		<-w.Changed()
		return configFileChangedMsg{}
	}
}

func reloadConfigCmd(path string) tea.Cmd {
	return func() tea.Msg {
		cfg, err := config.LoadFrom(path)
		return configReloadedMsg{cfg: cfg, err: err}
	}
}

func statusExpireCmd(gen int) tea.Cmd {
	return tea.Tick(statusLifetime, func(time.Time) tea.Msg {
		return statusExpireMsg{gen: gen}
	})
}

func searchDebounceCmd(gen int) tea.Cmd {
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{gen: gen}
	})
}
