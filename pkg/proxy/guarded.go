// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package proxy

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-core-stack/wallet-gate-proxy/pkg/auth"
)

// StatusSessionExpired is the non-standard status the trading upstream uses
// alongside 401 for a stale session.
const StatusSessionExpired = 434

// ErrRefreshFailed reports that the session could not be renewed.
var ErrRefreshFailed = errors.New("failed to refresh access token")

// SessionGuard is the credential holder CallWithRefresh drives.
type SessionGuard interface {
	EnsureValid(ctx context.Context) error
	Refresh(ctx context.Context) error
	Credential() auth.Credential
}

// SessionCall performs one outbound request authenticated with cred.
type SessionCall func(ctx context.Context, cred auth.Credential) ([]byte, error)

// RetryError wraps the failure of the single retry that follows a refresh.
type RetryError struct {
	Err error
}

// Error implements the error interface for RetryError.
func (e *RetryError) Error() string {
	return fmt.Sprintf("retry after token refresh: %v", e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As checks.
func (e *RetryError) Unwrap() error {
	return e.Err
}

// SessionRejected reports whether err is an upstream 401 or 434.
func SessionRejected(err error) bool {
	switch StatusOf(err) {
	case 401, StatusSessionExpired:
		return true
	}
	return false
}

// CallWithRefresh runs call with a valid credential. When the upstream rejects
// the session it refreshes exactly once and retries exactly once. Refresh
// failures wrap ErrRefreshFailed; a failed retry comes back as *RetryError;
// any other failure of the first call is returned unchanged.
func CallWithRefresh(ctx context.Context, guard SessionGuard, call SessionCall) ([]byte, error) {
	if err := guard.EnsureValid(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	body, err := call(ctx, guard.Credential())
	if err == nil || !SessionRejected(err) {
		return body, err
	}

	if err := guard.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	body, err = call(ctx, guard.Credential())
	if err != nil {
		return nil, &RetryError{Err: err}
	}
	return body, nil
}
