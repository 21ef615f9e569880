package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobmesh/mcp-bridge/token"
	"github.com/jobmesh/mcp-bridge/token/keys"
)

const (
	testIssuer   = "http://localhost:8080"
	testAudience = "http://localhost:8080/mcp"
	testSubject  = "user-1"
	testClientID = "client-1"
	testScope    = "mcp:read mcp:write"
	testAPIKey   = "sk-upstream-key"
)

type managerFixture struct {
	manager      *token.Manager
	revokedCache token.RevokedTokenCache
	now          time.Time
}

func setupManager(t *testing.T) *managerFixture {
	t.Helper()

	keyPair, err := keys.GenerateRSAKeyPair("test-key", 2048)
	require.NoError(t, err)

	f := &managerFixture{
		revokedCache: token.NewInMemoryRevokedTokenCache(),
		now:          time.Now(),
	}
	f.manager = token.New(
		keys.NewKeyPairSigner(keyPair),
		testIssuer,
		testAudience,
		token.WithRevokedTokenCache(f.revokedCache),
		token.WithNowFunc(func() time.Time { return f.now }),
	)
	return f
}

func TestCreateAccessToken_RoundTrip(t *testing.T) {
	f := setupManager(t)

	issued, err := f.manager.CreateAccessToken(testSubject, testClientID, testScope, testAPIKey)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.NotEmpty(t, issued.JTI)

	claims, err := f.manager.VerifyAccessToken(issued.Token)
	require.NoError(t, err)
	require.Equal(t, testSubject, claims.Subject)
	require.Equal(t, testIssuer, claims.Issuer)
	require.Equal(t, testAudience, claims.Audience)
	require.Equal(t, testClientID, claims.ClientID)
	require.Equal(t, testScope, claims.Scope)
	require.Equal(t, testAPIKey, claims.APIKey)
	require.Equal(t, issued.JTI, claims.JTI)
}

func TestCreateAccessToken_WithoutAPIKey(t *testing.T) {
	f := setupManager(t)

	issued, err := f.manager.CreateAccessToken(testSubject, testClientID, testScope, "")
	require.NoError(t, err)

	claims, err := f.manager.VerifyAccessToken(issued.Token)
	require.NoError(t, err)
	require.Empty(t, claims.APIKey)
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	f := setupManager(t)

	issued, err := f.manager.CreateAccessToken(testSubject, testClientID, testScope, testAPIKey)
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Hour)

	_, err = f.manager.VerifyAccessToken(issued.Token)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestVerifyAccessToken_WrongKey(t *testing.T) {
	f := setupManager(t)
	other := setupManager(t)

	issued, err := other.manager.CreateAccessToken(testSubject, testClientID, testScope, testAPIKey)
	require.NoError(t, err)

	_, err = f.manager.VerifyAccessToken(issued.Token)
	require.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	f := setupManager(t)

	_, err := f.manager.VerifyAccessToken("not.a.jwt")
	require.ErrorIs(t, err, token.ErrTokenInvalid)

	_, err = f.manager.VerifyAccessToken("")
	require.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestVerifyAccessToken_RevokedJTI(t *testing.T) {
	f := setupManager(t)

	issued, err := f.manager.CreateAccessToken(testSubject, testClientID, testScope, testAPIKey)
	require.NoError(t, err)

	_, err = f.manager.VerifyAccessToken(issued.Token)
	require.NoError(t, err)

	require.NoError(t, f.revokedCache.Add(issued.JTI, issued.ExpiresAt))

	_, err = f.manager.VerifyAccessToken(issued.Token)
	require.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestClaims_HasScope(t *testing.T) {
	claims := &token.Claims{Scope: testScope}

	require.True(t, claims.HasScope("mcp:read"))
	require.True(t, claims.HasScope("mcp:write"))
	require.False(t, claims.HasScope("mcp:admin"))
}

func TestGetJWKS_ContainsSigningKey(t *testing.T) {
	f := setupManager(t)

	jwks, err := f.manager.GetJWKS()
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, f.manager.KeyID(), jwks.Keys[0].Kid)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)
	require.Equal(t, "RS256", jwks.Keys[0].Alg)
	require.NotEmpty(t, jwks.Keys[0].N)
	require.NotEmpty(t, jwks.Keys[0].E)
}
