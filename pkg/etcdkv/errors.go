package etcdkv

import (
	"context"
	"errors"
	"fmt"

	"go.etcd.io/etcd/api/v3/v3rpc/rpctypes"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ConnectionError wraps failures to reach the cluster: dial errors, request
// timeouts, and unavailable endpoints. A profile-configured timeout surfaces
// the same way as any other unreachable server.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("etcd unreachable: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError wraps credential rejections.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError reports malformed input caught before any remote call.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ErrNoProfile is returned when an operation is attempted with no current
// profile configured.
var ErrNoProfile = errors.New("no current profile set")

// IsConnectionError reports whether err is (or wraps) a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// classify maps raw client errors onto the error taxonomy. nil passes
// through, and already-classified errors are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ce *ConnectionError
	var ae *AuthError
	if errors.As(err, &ce) || errors.As(err, &ae) {
		return err
	}

	switch {
	case errors.Is(err, rpctypes.ErrAuthFailed),
		errors.Is(err, rpctypes.ErrInvalidAuthToken),
		errors.Is(err, rpctypes.ErrPermissionDenied),
		errors.Is(err, rpctypes.ErrUserEmpty),
		errors.Is(err, rpctypes.ErrAuthNotEnabled):
		return &AuthError{Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &ConnectionError{Err: err}
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return &AuthError{Err: err}
		case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
			return &ConnectionError{Err: err}
		}
	}

	return &ConnectionError{Err: err}
}

// shouldRefresh reports whether err indicates an expired auth token, in which
// case dropping the cached client and reconnecting once is worth a retry.
func shouldRefresh(err error) bool {
	return errors.Is(err, rpctypes.ErrInvalidAuthToken)
}
