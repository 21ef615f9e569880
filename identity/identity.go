// Package identity defines the credential bridge: the single point where a
// caller-supplied secret is turned into a verified identity, or rejected.
package identity

import (
	"context"

	"github.com/pkg/errors"
)

// ErrUnauthorized is the only failure a Verifier surfaces to callers.
// Network failures and explicit rejections are distinguished in logs, not
// in the returned error.
var ErrUnauthorized = errors.New("credential rejected")

// Identity is a verified end user. APIKey carries the upstream credential
// onward so tokens minted for this identity can call the job API.
type Identity struct {
	Subject string
	Email   string
	Name    string
	APIKey  string
}

// Verifier authenticates a presented credential against an external system.
// Implementations must bound their external call with a timeout and must
// not be invoked while holding session store locks.
type Verifier interface {
	Authenticate(ctx context.Context, credential string) (*Identity, error)
}
