package clients_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobmesh/mcp-bridge/clients"
)

func publicClient() *clients.Client {
	return &clients.Client{
		ID:           "public-client",
		Type:         clients.ClientTypePublic,
		RedirectURIs: []string{"http://localhost:33418/callback"},
		Scopes:       []string{"mcp:read", "mcp:write"},
	}
}

func confidentialClient(t *testing.T, secret string) *clients.Client {
	t.Helper()

	hash, err := clients.HashSecret(secret)
	require.NoError(t, err)

	c := publicClient()
	c.ID = "confidential-client"
	c.Type = clients.ClientTypeConfidential
	c.SecretHash = hash
	return c
}

func TestValidateRedirectURI(t *testing.T) {
	c := publicClient()

	require.NoError(t, c.ValidateRedirectURI("http://localhost:33418/callback"))
	require.Error(t, c.ValidateRedirectURI("http://localhost:33418/callback/extra"))
	require.Error(t, c.ValidateRedirectURI("http://evil.example.com/callback"))
	require.Error(t, c.ValidateRedirectURI(""))
}

func TestValidateSecret_Confidential(t *testing.T) {
	c := confidentialClient(t, "s3cret")

	require.NoError(t, c.ValidateSecret("s3cret"))
	require.Error(t, c.ValidateSecret("wrong"))
	require.Error(t, c.ValidateSecret(""))
}

func TestValidateSecret_PublicClientMustNotSendSecret(t *testing.T) {
	c := publicClient()

	require.NoError(t, c.ValidateSecret(""))
	require.Error(t, c.ValidateSecret("unexpected"))
}

func TestValidateScopes(t *testing.T) {
	c := publicClient()

	require.NoError(t, c.ValidateScopes("mcp:read"))
	require.NoError(t, c.ValidateScopes("mcp:read mcp:write"))
	require.Error(t, c.ValidateScopes("mcp:read mcp:admin"))
}

func TestRepoInMemory_CRUD(t *testing.T) {
	repo := clients.NewInMemoryRepo()

	_, err := repo.Get("public-client")
	require.ErrorIs(t, err, clients.ErrNotFound)

	require.NoError(t, repo.Upsert(publicClient()))

	got, err := repo.Get("public-client")
	require.NoError(t, err)
	require.Equal(t, "public-client", got.ID)

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, repo.Delete("public-client"))
	_, err = repo.Get("public-client")
	require.ErrorIs(t, err, clients.ErrNotFound)
}
