package sessions

import (
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when no session exists for a code.
	ErrNotFound = errors.New("session not found")

	// ErrExpired is returned when a session exists but its expiry has
	// passed. Expiry is enforced at read time; no sweep is needed for
	// correctness.
	ErrExpired = errors.New("session expired")

	// ErrAlreadyConsumed is returned when the code was exchanged before.
	ErrAlreadyConsumed = errors.New("authorization code already consumed")

	// ErrNotAuthenticated is returned when Consume is called on a session
	// whose user never completed the credential check.
	ErrNotAuthenticated = errors.New("session not authenticated")
)

// Repo defines storage for in-flight authorization sessions.
//
// Consume must be atomic with respect to concurrent callers: exactly one
// caller may consume a given code, all others observe ErrAlreadyConsumed.
type Repo interface {
	// Upsert creates or updates a session keyed by its code
	Upsert(session *Session) error

	// Get retrieves a live session; expired sessions fail with ErrExpired
	Get(code string) (*Session, error)

	// MarkAuthenticated records the verified identity on a pending session
	MarkAuthenticated(code, subject, apiKey string) error

	// Consume atomically transitions an authenticated session to consumed
	// and returns its data
	Consume(code string) (*Session, error)

	// DeleteExpired removes sessions (and tombstones) past the cutoff
	DeleteExpired(cutoff time.Time) error
}
