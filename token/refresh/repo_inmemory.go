package refresh

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Repo.Get for unknown tokens.
var ErrNotFound = errors.New("refresh token not found")

// InMemoryRepo stores refresh tokens in process memory. State does not
// survive restarts; in-flight refresh tokens become invalid.
type InMemoryRepo struct {
	mu       sync.RWMutex
	tokens   map[string]*StoredRefreshToken
	families map[string]map[string]struct{} // familyID -> token set
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		tokens:   make(map[string]*StoredRefreshToken),
		families: make(map[string]map[string]struct{}),
	}
}

var _ Repo = (*InMemoryRepo)(nil)

func (r *InMemoryRepo) Upsert(rt *StoredRefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *rt
	r.tokens[rt.Token] = &copied
	if rt.FamilyID != "" {
		if r.families[rt.FamilyID] == nil {
			r.families[rt.FamilyID] = make(map[string]struct{})
		}
		r.families[rt.FamilyID][rt.Token] = struct{}{}
	}
	return nil
}

func (r *InMemoryRepo) Get(token string) (*StoredRefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *rt
	return &copied, nil
}

func (r *InMemoryRepo) Delete(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteLocked(token)
	return nil
}

func (r *InMemoryRepo) DeleteFamily(familyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token := range r.families[familyID] {
		delete(r.tokens, token)
	}
	delete(r.families, familyID)
	return nil
}

func (r *InMemoryRepo) DeleteExpired(cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, rt := range r.tokens {
		if rt.IssuedAt.Before(cutoff) {
			r.deleteLocked(token)
		}
	}
	return nil
}

func (r *InMemoryRepo) deleteLocked(token string) {
	rt, ok := r.tokens[token]
	if !ok {
		return
	}
	delete(r.tokens, token)
	if rt.FamilyID != "" {
		if set, ok := r.families[rt.FamilyID]; ok {
			delete(set, token)
			if len(set) == 0 {
				delete(r.families, rt.FamilyID)
			}
		}
	}
}
