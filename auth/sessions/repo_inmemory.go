package sessions

import (
	"sync"
	"time"
)

// InMemoryRepo is a process-lifetime session store. All sessions are lost
// on restart, which only forces clients to re-run the authorization flow.
type InMemoryRepo struct {
	mu       sync.Mutex
	sessions map[string]*Session
	nowFunc  func() time.Time
}

type InMemoryRepoOption func(*InMemoryRepo)

// WithNowFunc sets the time source (primarily for testing).
func WithNowFunc(now func() time.Time) InMemoryRepoOption {
	return func(r *InMemoryRepo) {
		r.nowFunc = now
	}
}

func NewInMemoryRepo(options ...InMemoryRepoOption) *InMemoryRepo {
	r := &InMemoryRepo{
		sessions: make(map[string]*Session),
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

var _ Repo = (*InMemoryRepo)(nil)

func (r *InMemoryRepo) Upsert(session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *session
	r.sessions[session.Code] = &copied
	return nil
}

func (r *InMemoryRepo) Get(code string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.liveSessionLocked(code)
	if err != nil {
		return nil, err
	}
	copied := *session
	return &copied, nil
}

func (r *InMemoryRepo) MarkAuthenticated(code, subject, apiKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.liveSessionLocked(code)
	if err != nil {
		return err
	}
	session.Authenticated = true
	session.Subject = subject
	session.APIKey = apiKey
	return nil
}

// Consume transitions exactly once: the mutex is held across the state
// check and the flag write, so of two racing callers exactly one wins.
func (r *InMemoryRepo) Consume(code string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[code]
	if !ok {
		return nil, ErrNotFound
	}
	if session.Consumed {
		return nil, ErrAlreadyConsumed
	}
	if r.nowFunc().After(session.ExpiresAt) {
		delete(r.sessions, code)
		return nil, ErrExpired
	}
	if !session.Authenticated {
		return nil, ErrNotAuthenticated
	}

	session.Consumed = true
	copied := *session
	return &copied, nil
}

func (r *InMemoryRepo) DeleteExpired(cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for code, session := range r.sessions {
		if session.ExpiresAt.Before(cutoff) {
			delete(r.sessions, code)
		}
	}
	return nil
}

func (r *InMemoryRepo) liveSessionLocked(code string) (*Session, error) {
	session, ok := r.sessions[code]
	if !ok {
		return nil, ErrNotFound
	}
	if session.Consumed {
		return nil, ErrAlreadyConsumed
	}
	if r.nowFunc().After(session.ExpiresAt) {
		delete(r.sessions, code)
		return nil, ErrExpired
	}
	return session, nil
}
