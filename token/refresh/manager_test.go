package refresh_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobmesh/mcp-bridge/token"
	"github.com/jobmesh/mcp-bridge/token/refresh"
)

const (
	testSubject  = "user-1"
	testClientID = "client-1"
	testScope    = "mcp:read"
	testAPIKey   = "sk-upstream-key"
)

type refreshFixture struct {
	manager      *refresh.Manager
	revokedCache token.RevokedTokenCache
	now          time.Time
}

func setupRefresh(t *testing.T) *refreshFixture {
	t.Helper()

	f := &refreshFixture{
		revokedCache: token.NewInMemoryRevokedTokenCache(),
		now:          time.Now(),
	}
	f.manager = refresh.NewManager(
		refresh.NewInMemoryRepo(),
		f.revokedCache,
		refresh.WithNowFunc(func() time.Time { return f.now }),
	)
	return f
}

func TestIssue_ReturnsOpaqueToken(t *testing.T) {
	f := setupRefresh(t)

	tok, err := f.manager.Issue(testSubject, testClientID, testScope, testAPIKey)
	require.NoError(t, err)
	require.Len(t, tok, 64, "256-bit token hex encoded")

	other, err := f.manager.Issue(testSubject, testClientID, testScope, testAPIKey)
	require.NoError(t, err)
	require.NotEqual(t, tok, other)
}

func TestRedeem_RotatesToken(t *testing.T) {
	f := setupRefresh(t)

	tok, err := f.manager.Issue(testSubject, testClientID, testScope, testAPIKey)
	require.NoError(t, err)

	record, next, err := f.manager.Redeem(tok)
	require.NoError(t, err)
	require.NotEqual(t, tok, next)
	require.Equal(t, testSubject, record.Subject)
	require.Equal(t, testClientID, record.ClientID)
	require.Equal(t, testScope, record.Scope)
	require.Equal(t, testAPIKey, record.APIKey)

	// The successor redeems normally and stays in the same family.
	successor, _, err := f.manager.Redeem(next)
	require.NoError(t, err)
	require.Equal(t, record.FamilyID, successor.FamilyID)
	require.Greater(t, successor.Generation, record.Generation)
}

func TestRedeem_UnknownToken(t *testing.T) {
	f := setupRefresh(t)

	_, _, err := f.manager.Redeem("deadbeef")
	require.ErrorIs(t, err, refresh.ErrInvalid)
}

func TestRedeem_ExpiredToken(t *testing.T) {
	f := setupRefresh(t)

	tok, err := f.manager.Issue(testSubject, testClientID, testScope, testAPIKey)
	require.NoError(t, err)

	f.now = f.now.Add(31 * 24 * time.Hour)

	_, _, err = f.manager.Redeem(tok)
	require.ErrorIs(t, err, refresh.ErrExpired)
}

func TestRedeem_ReuseKillsFamily(t *testing.T) {
	f := setupRefresh(t)

	tok, err := f.manager.Issue(testSubject, testClientID, testScope, testAPIKey)
	require.NoError(t, err)

	_, next, err := f.manager.Redeem(tok)
	require.NoError(t, err)

	// Replay the rotated token.
	_, _, err = f.manager.Redeem(tok)
	require.ErrorIs(t, err, refresh.ErrReused)

	// The whole family is gone, including the fresh successor.
	_, _, err = f.manager.Redeem(next)
	require.ErrorIs(t, err, refresh.ErrInvalid)
}

func TestRedeem_ReuseRevokesTrackedAccessTokens(t *testing.T) {
	f := setupRefresh(t)

	tok, err := f.manager.Issue(testSubject, testClientID, testScope, testAPIKey)
	require.NoError(t, err)

	_, next, err := f.manager.Redeem(tok)
	require.NoError(t, err)

	// Simulate an access token minted alongside the successor.
	f.manager.TrackAccessToken(next, "jti-1", f.now.Add(time.Hour))
	require.False(t, f.revokedCache.IsRevoked("jti-1"))

	_, _, err = f.manager.Redeem(tok)
	require.ErrorIs(t, err, refresh.ErrReused)

	require.True(t, f.revokedCache.IsRevoked("jti-1"), "family revocation must reach issued access tokens")
}

func TestInvalidate_RemovesToken(t *testing.T) {
	f := setupRefresh(t)

	tok, err := f.manager.Issue(testSubject, testClientID, testScope, testAPIKey)
	require.NoError(t, err)

	f.manager.Invalidate(tok)

	_, _, err = f.manager.Redeem(tok)
	require.ErrorIs(t, err, refresh.ErrInvalid)
}
