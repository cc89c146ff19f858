// Package browser holds the state machine behind the paginated key table.
//
// The table is driven by two independent asynchronous fetches: a keys-only
// listing of everything under the current prefix, and a value fetch covering
// only the visible page's key range. This package owns the derivation chain
//
//	allKeys -> filteredKeys (substring search) -> pageKeys -> range bounds
//
// and the merge of range results back into the page. It performs no I/O
// itself: the UI asks for a Query/RangeQuery describing the fetch to issue,
// runs it, and hands the result back to ApplyKeys/ApplyRange. Each query
// carries the state inputs that produced it, so a response that arrives
// after those inputs changed is recognized as stale and dropped instead of
// clobbering newer results.
package browser

import (
	"strings"

	"github.com/Evanescentum/etcd-gui/pkg/etcdkv"
)

// DefaultPageSize is used when the caller passes a non-positive page size.
const DefaultPageSize = 50

// Query identifies one keys-only listing: the prefix it was issued for and a
// sequence number bumped on every reload. A response is applied only while
// both still match the state.
type Query struct {
	Prefix string
	Seq    uint64
}

// RangeQuery identifies one value-range fetch together with every input the
// page derivation depended on. If any of them changed by the time the
// response arrives, the response is stale.
type RangeQuery struct {
	KeysSeq  uint64
	Search   string
	Page     int
	PageSize int
	StartKey string
	EndKey   string
}

// State is the browser state for one key table. It is owned by a single UI
// view and mutated only through its methods; no locking.
type State struct {
	prefix   string
	search   string
	page     int
	pageSize int

	seq     uint64
	allKeys []string
	loaded  bool

	items []etcdkv.Item
}

// New returns an empty browser state.
func New(pageSize int) *State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &State{page: 1, pageSize: pageSize}
}

// Prefix returns the current key prefix.
func (s *State) Prefix() string { return s.prefix }

// Search returns the current substring filter.
func (s *State) Search() string { return s.search }

// Page returns the current 1-based page index.
func (s *State) Page() int { return s.page }

// PageSize returns the page size.
func (s *State) PageSize() int { return s.pageSize }

// Loaded reports whether a keys listing has been applied for the current
// prefix.
func (s *State) Loaded() bool { return s.loaded }

// KeyCount returns the size of the unfiltered key list.
func (s *State) KeyCount() int { return len(s.allKeys) }

// SetPrefix records a new prefix and resets the page. The key list is not
// refetched until Reload; prefix edits are committed by an explicit refresh
// action, not on every keystroke.
func (s *State) SetPrefix(prefix string) {
	if prefix == s.prefix {
		return
	}
	s.prefix = prefix
	s.page = 1
	s.loaded = false
}

// Reload invalidates any in-flight keys listing and returns the identity of
// the listing to fetch next.
func (s *State) Reload() Query {
	s.seq++
	return Query{Prefix: s.prefix, Seq: s.seq}
}

// ApplyKeys installs a keys listing if it still matches the current state.
// It reports whether the listing was applied; a false return means the
// response was stale and ignored. The page is clamped afterwards so that a
// refresh shrinking the key list cannot leave the view past the end.
func (s *State) ApplyKeys(q Query, keys []string) bool {
	if q.Seq != s.seq || q.Prefix != s.prefix {
		return false
	}
	s.allKeys = keys
	s.loaded = true
	s.clampPage()
	return true
}

// SetSearch updates the substring filter. Any change resets the page to 1
// before pageKeys is next derived.
func (s *State) SetSearch(query string) {
	if query == s.search {
		return
	}
	s.search = query
	s.page = 1
}

// SetPageSize changes the page size and resets to page 1.
func (s *State) SetPageSize(n int) {
	if n <= 0 || n == s.pageSize {
		return
	}
	s.pageSize = n
	s.page = 1
}

// SetPage moves to the given 1-based page, clamped to the valid range.
func (s *State) SetPage(n int) {
	s.page = n
	s.clampPage()
}

// NextPage advances one page if one exists.
func (s *State) NextPage() { s.SetPage(s.page + 1) }

// PrevPage goes back one page if possible.
func (s *State) PrevPage() { s.SetPage(s.page - 1) }

func (s *State) clampPage() {
	if max := s.PageCount(); s.page > max {
		s.page = max
	}
	if s.page < 1 {
		s.page = 1
	}
}

// FilteredKeys returns allKeys narrowed by substring containment of the
// search query. An empty query filters nothing. Entirely local; no round
// trip.
func (s *State) FilteredKeys() []string {
	if s.search == "" {
		return s.allKeys
	}
	var out []string
	for _, k := range s.allKeys {
		if strings.Contains(k, s.search) {
			out = append(out, k)
		}
	}
	return out
}

// PageCount returns the number of pages in the filtered key list, at least 1.
func (s *State) PageCount() int {
	n := len(s.FilteredKeys())
	if n == 0 {
		return 1
	}
	return (n + s.pageSize - 1) / s.pageSize
}

// PageKeys returns the slice of filtered keys visible on the current page.
func (s *State) PageKeys() []string {
	filtered := s.FilteredKeys()
	start := (s.page - 1) * s.pageSize
	if start >= len(filtered) {
		return nil
	}
	end := start + s.pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

// RangeBounds returns the first and last key of the visible page. ok is
// false when the page is empty, in which case no value fetch is issued.
func (s *State) RangeBounds() (startKey, endKey string, ok bool) {
	keys := s.PageKeys()
	if len(keys) == 0 {
		return "", "", false
	}
	return keys[0], keys[len(keys)-1], true
}

// RangeQuery captures the current derivation inputs as the identity of the
// next value fetch. ok is false when the page is empty and nothing should be
// fetched.
func (s *State) RangeQuery() (RangeQuery, bool) {
	start, end, ok := s.RangeBounds()
	if !ok {
		return RangeQuery{}, false
	}
	return RangeQuery{
		KeysSeq:  s.seq,
		Search:   s.search,
		Page:     s.page,
		PageSize: s.pageSize,
		StartKey: start,
		EndKey:   end,
	}, true
}

// rangeQueryCurrent reports whether rq still describes the state's visible
// page.
func (s *State) rangeQueryCurrent(rq RangeQuery) bool {
	return rq.KeysSeq == s.seq &&
		rq.Search == s.search &&
		rq.Page == s.page &&
		rq.PageSize == s.pageSize
}

// ApplyRange merges a value fetch into the table if it still matches the
// current page. The range [startKey, endKey] may contain keys that are not
// on the page — keys excluded by the search filter, or inserted by another
// client between the two fetches — so the result is restricted to the page's
// key set before display. Reports whether the result was applied.
func (s *State) ApplyRange(rq RangeQuery, items []etcdkv.Item) bool {
	if !s.rangeQueryCurrent(rq) {
		return false
	}

	pageKeys := s.PageKeys()
	member := make(map[string]struct{}, len(pageKeys))
	for _, k := range pageKeys {
		member[k] = struct{}{}
	}

	merged := make([]etcdkv.Item, 0, len(pageKeys))
	for _, it := range items {
		if _, ok := member[it.Key]; ok {
			merged = append(merged, it)
		}
	}
	s.items = merged
	return true
}

// Items returns the rows currently displayed. Always a subset of PageKeys.
func (s *State) Items() []etcdkv.Item {
	return s.items
}

// ClearItems drops displayed rows, used when the table switches to an empty
// state without a fetch (e.g. the filter leaves no keys).
func (s *State) ClearItems() {
	s.items = nil
}
