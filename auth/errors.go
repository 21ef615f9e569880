package auth

import "github.com/pkg/errors"

// Service-level failures, mapped to OAuth error codes at the HTTP boundary.
// Code-exchange failures all collapse to ErrInvalidGrant so responses never
// reveal whether a guessed code exists, expired, or failed PKCE; the
// distinction lives in logs only.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidClient  = errors.New("invalid client")
	ErrInvalidScope   = errors.New("invalid scope")
	ErrAccessDenied   = errors.New("access denied")
	ErrInvalidGrant   = errors.New("invalid grant")
)
