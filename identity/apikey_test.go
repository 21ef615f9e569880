package identity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobmesh/mcp-bridge/identity"
	"github.com/jobmesh/mcp-bridge/jobapi"
)

const (
	apiKeyHeader = "x-api-key"
	validAPIKey  = "sk-valid-key"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(apiKeyHeader) != validAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":    "user-1",
			"email": "john.doe@example.com",
			"name":  "John Doe",
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAPIKeyVerifier_ValidKey(t *testing.T) {
	upstream := newUpstream(t)
	verifier := identity.NewAPIKeyVerifier(jobapi.NewClient(upstream.URL, apiKeyHeader))

	id, err := verifier.Authenticate(context.Background(), validAPIKey)
	require.NoError(t, err)
	require.Equal(t, "user-1", id.Subject)
	require.Equal(t, "john.doe@example.com", id.Email)
	require.Equal(t, validAPIKey, id.APIKey, "the credential itself becomes the upstream key")
}

func TestAPIKeyVerifier_RejectedKey(t *testing.T) {
	upstream := newUpstream(t)
	verifier := identity.NewAPIKeyVerifier(jobapi.NewClient(upstream.URL, apiKeyHeader))

	_, err := verifier.Authenticate(context.Background(), "sk-wrong-key")
	require.ErrorIs(t, err, identity.ErrUnauthorized)
}

func TestAPIKeyVerifier_UpstreamDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	verifier := identity.NewAPIKeyVerifier(jobapi.NewClient(server.URL, apiKeyHeader))

	// Upstream failure is indistinguishable from rejection for the caller.
	_, err := verifier.Authenticate(context.Background(), validAPIKey)
	require.ErrorIs(t, err, identity.ErrUnauthorized)
}

func TestAPIKeyVerifier_EmptyCredential(t *testing.T) {
	upstream := newUpstream(t)
	verifier := identity.NewAPIKeyVerifier(jobapi.NewClient(upstream.URL, apiKeyHeader))

	_, err := verifier.Authenticate(context.Background(), "")
	require.ErrorIs(t, err, identity.ErrUnauthorized)
}
