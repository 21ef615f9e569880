package sessions_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobmesh/mcp-bridge/auth/sessions"
)

const testCode = "test-authorization-code"

func newSession(now time.Time) *sessions.Session {
	return &sessions.Session{
		Code:        testCode,
		ClientID:    "client-1",
		RedirectURI: "http://localhost:33418/callback",
		Scope:       "mcp:read",
		CreatedAt:   now,
		ExpiresAt:   now.Add(10 * time.Minute),
	}
}

func TestConsume_RequiresAuthentication(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	require.NoError(t, repo.Upsert(newSession(time.Now())))

	_, err := repo.Consume(testCode)
	require.ErrorIs(t, err, sessions.ErrNotAuthenticated)
}

func TestConsume_SucceedsOnceThenAlreadyConsumed(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	require.NoError(t, repo.Upsert(newSession(time.Now())))
	require.NoError(t, repo.MarkAuthenticated(testCode, "user-1", "sk-key"))

	session, err := repo.Consume(testCode)
	require.NoError(t, err)
	require.Equal(t, "user-1", session.Subject)
	require.Equal(t, "sk-key", session.APIKey)

	_, err = repo.Consume(testCode)
	require.ErrorIs(t, err, sessions.ErrAlreadyConsumed)
}

func TestConsume_ExactlyOneWinnerUnderConcurrency(t *testing.T) {
	repo := sessions.NewInMemoryRepo()
	require.NoError(t, repo.Upsert(newSession(time.Now())))
	require.NoError(t, repo.MarkAuthenticated(testCode, "user-1", "sk-key"))

	const goroutines = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Consume(testCode); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, winners, "exactly one concurrent consumer may win")
}

func TestGet_UnknownCode(t *testing.T) {
	repo := sessions.NewInMemoryRepo()

	_, err := repo.Get("no-such-code")
	require.ErrorIs(t, err, sessions.ErrNotFound)
}

func TestGet_ExpiredSession(t *testing.T) {
	now := time.Now()
	repo := sessions.NewInMemoryRepo(sessions.WithNowFunc(func() time.Time {
		return now
	}))
	require.NoError(t, repo.Upsert(newSession(now)))

	now = now.Add(11 * time.Minute)

	_, err := repo.Get(testCode)
	require.ErrorIs(t, err, sessions.ErrExpired)
}

func TestMarkAuthenticated_ExpiredSession(t *testing.T) {
	now := time.Now()
	repo := sessions.NewInMemoryRepo(sessions.WithNowFunc(func() time.Time {
		return now
	}))
	require.NoError(t, repo.Upsert(newSession(now)))

	now = now.Add(11 * time.Minute)

	err := repo.MarkAuthenticated(testCode, "user-1", "sk-key")
	require.ErrorIs(t, err, sessions.ErrExpired)
}

func TestDeleteExpired_RemovesDeadSessions(t *testing.T) {
	now := time.Now()
	repo := sessions.NewInMemoryRepo()

	old := newSession(now.Add(-time.Hour))
	old.ExpiresAt = now.Add(-50 * time.Minute)
	require.NoError(t, repo.Upsert(old))

	live := newSession(now)
	live.Code = "live-code"
	require.NoError(t, repo.Upsert(live))

	require.NoError(t, repo.DeleteExpired(now))

	_, err := repo.Get(testCode)
	require.ErrorIs(t, err, sessions.ErrNotFound)

	_, err = repo.Get("live-code")
	require.NoError(t, err)
}
