// Package identityfake provides a credential bridge test double.
package identityfake

import (
	"context"
	"sync"

	"github.com/jobmesh/mcp-bridge/identity"
)

// FakeVerifier accepts credentials registered ahead of time and rejects
// everything else.
type FakeVerifier struct {
	mu         sync.Mutex
	identities map[string]*identity.Identity
	calls      int
	err        error
}

func NewFakeVerifier() *FakeVerifier {
	return &FakeVerifier{
		identities: make(map[string]*identity.Identity),
	}
}

var _ identity.Verifier = (*FakeVerifier)(nil)

// Allow registers a credential and the identity it resolves to.
func (f *FakeVerifier) Allow(credential string, id *identity.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identities[credential] = id
}

// FailWith makes every authentication attempt return err.
func (f *FakeVerifier) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Calls returns how many times Authenticate was invoked.
func (f *FakeVerifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeVerifier) Authenticate(_ context.Context, credential string) (*identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	id, ok := f.identities[credential]
	if !ok {
		return nil, identity.ErrUnauthorized
	}
	copied := *id
	return &copied, nil
}
