package etcdkv

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/mvccpb"
	"go.etcd.io/etcd/api/v3/v3rpc/rpctypes"

	"github.com/Evanescentum/etcd-gui/pkg/config"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantConn bool
		wantAuth bool
	}{
		{"nil", nil, false, false},
		{"auth failed", rpctypes.ErrAuthFailed, false, true},
		{"invalid token", rpctypes.ErrInvalidAuthToken, false, true},
		{"permission denied", rpctypes.ErrPermissionDenied, false, true},
		{"deadline", context.DeadlineExceeded, true, false},
		{"plain error", errors.New("dial tcp: connection refused"), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.wantConn, IsConnectionError(got), "IsConnectionError")
			assert.Equal(t, tt.wantAuth, IsAuthError(got), "IsAuthError")
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	err := classify(rpctypes.ErrAuthFailed)
	again := classify(err)
	assert.Same(t, err, again, "classifying twice must not re-wrap")
}

func TestShouldRefresh_SeesThroughClassification(t *testing.T) {
	wrapped := classify(rpctypes.ErrInvalidAuthToken)
	assert.True(t, shouldRefresh(wrapped))
	assert.False(t, shouldRefresh(classify(rpctypes.ErrAuthFailed)))
	assert.False(t, shouldRefresh(nil))
}

func TestItemFromKV(t *testing.T) {
	kv := &mvccpb.KeyValue{
		Key:            []byte("/app/name"),
		Value:          []byte("demo"),
		CreateRevision: 5,
		ModRevision:    9,
		Version:        3,
		Lease:          42,
	}
	it := itemFromKV(kv)
	assert.Equal(t, "/app/name", it.Key)
	assert.Equal(t, "demo", it.Value)
	assert.EqualValues(t, 5, it.CreateRevision)
	assert.EqualValues(t, 9, it.ModRevision)
	assert.EqualValues(t, 3, it.Version)
	assert.EqualValues(t, 42, it.Lease)
	assert.False(t, it.AtOldestRevision())

	first := Item{CreateRevision: 7, ModRevision: 7}
	assert.True(t, first.AtOldestRevision())
}

func TestFetchRange_EmptyBoundsSkipRemoteCall(t *testing.T) {
	// A client with no connection: the guard must return before any RPC.
	c := &Client{}

	items, err := c.FetchRange(context.Background(), "", "/z")
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = c.FetchRange(context.Background(), "/a", "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchRange_InvertedBoundsRejected(t *testing.T) {
	c := &Client{}
	_, err := c.FetchRange(context.Background(), "/z", "/a")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestGetAtRevision_ValidatesBeforeRemoteCall(t *testing.T) {
	c := &Client{}

	_, err := c.GetAtRevision(context.Background(), "", 10)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	item, err := c.GetAtRevision(context.Background(), "/k", 0)
	require.NoError(t, err)
	assert.Nil(t, item, "revision 0 means nothing existed yet")
}

func TestPutDelete_ValidateKey(t *testing.T) {
	c := &Client{}
	var ve *ValidationError
	require.ErrorAs(t, c.Put(context.Background(), "", "v"), &ve)
	require.ErrorAs(t, c.Delete(context.Background(), ""), &ve)
}

func TestWithReadRetries_StopsOnNonConnectionError(t *testing.T) {
	calls := 0
	err := withReadRetries(func() error {
		calls++
		return &AuthError{Err: rpctypes.ErrAuthFailed}
	})
	assert.True(t, IsAuthError(err))
	assert.Equal(t, 1, calls, "auth errors must not be retried")
}

func TestWithReadRetries_BoundedConnectionRetries(t *testing.T) {
	calls := 0
	err := withReadRetries(func() error {
		calls++
		return &ConnectionError{Err: errors.New("unreachable")}
	})
	assert.True(t, IsConnectionError(err))
	assert.Equal(t, maxReadRetries+1, calls)
}

func TestWithReadRetries_RecoversMidway(t *testing.T) {
	calls := 0
	err := withReadRetries(func() error {
		calls++
		if calls == 1 {
			return &ConnectionError{Err: errors.New("blip")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSession_NoProfile(t *testing.T) {
	s := NewSession()

	_, err := s.ListKeys(context.Background(), "/")
	assert.True(t, IsConnectionError(err))
	assert.ErrorIs(t, err, ErrNoProfile)

	err = s.Put(context.Background(), "/k", "v")
	assert.ErrorIs(t, err, ErrNoProfile)
}

func TestSession_LockedProfileRefusesMutations(t *testing.T) {
	s := NewSession()
	s.SetProfile(&config.Profile{
		Name:      "ro",
		Endpoints: []config.Endpoint{{Host: "localhost", Port: 2379}},
		Locked:    true,
	})

	var ve *ValidationError
	require.ErrorAs(t, s.Put(context.Background(), "/k", "v"), &ve)
	require.ErrorAs(t, s.Delete(context.Background(), "/k"), &ve)
}

func TestSession_SetProfileResetsConnection(t *testing.T) {
	s := NewSession()
	s.SetProfile(&config.Profile{Name: "a", Endpoints: []config.Endpoint{{Host: "h", Port: 1}}})
	assert.Equal(t, "a", s.ProfileName())
	assert.False(t, s.Connected())

	s.SetProfile(nil)
	assert.Equal(t, "", s.ProfileName())
}

func TestConnect_RejectsEmptyEndpoints(t *testing.T) {
	_, err := Connect(context.Background(), config.Profile{Name: "x"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestTestConnection_ValidatesProfile(t *testing.T) {
	_, err := TestConnection(context.Background(), config.Profile{Name: ""})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}
