package jobapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobmesh/mcp-bridge/jobapi"
)

const (
	testAPIKeyHeader = "x-api-key"
	testAPIKey       = "sk-valid-key"
)

// newUpstream fakes the job API: a valid key reaches the handlers,
// anything else gets a 401.
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":    "user-1",
			"email": "john.doe@example.com",
			"name":  "John Doe",
		})
	})
	mux.HandleFunc("GET /api/v1/agents", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"id": "agent-1", "name": "Summarizer"},
			{"id": "agent-2", "name": "Translator"},
		})
	})
	mux.HandleFunc("POST /api/v1/agents/{id}/jobs", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":      "job-1",
			"agentId": r.PathValue("id"),
			"status":  "pending",
			"input":   body["input"],
		})
	})
	mux.HandleFunc("GET /api/v1/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":     r.PathValue("id"),
			"status": "completed",
			"output": "done",
		})
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(testAPIKeyHeader) != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestMe(t *testing.T) {
	upstream := newUpstream(t)
	client := jobapi.NewClient(upstream.URL, testAPIKeyHeader)

	user, err := client.Me(context.Background(), testAPIKey)
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)
	require.Equal(t, "john.doe@example.com", user.Email)
}

func TestMe_BadKey(t *testing.T) {
	upstream := newUpstream(t)
	client := jobapi.NewClient(upstream.URL, testAPIKeyHeader)

	_, err := client.Me(context.Background(), "sk-wrong-key")
	require.ErrorIs(t, err, jobapi.ErrUnauthorized)
}

func TestListAgents(t *testing.T) {
	upstream := newUpstream(t)
	client := jobapi.NewClient(upstream.URL, testAPIKeyHeader)

	agents, err := client.ListAgents(context.Background(), testAPIKey)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	require.Equal(t, "agent-1", agents[0].ID)
}

func TestSubmitJob(t *testing.T) {
	upstream := newUpstream(t)
	client := jobapi.NewClient(upstream.URL, testAPIKeyHeader)

	job, err := client.SubmitJob(context.Background(), testAPIKey, "agent-1", "summarize this")
	require.NoError(t, err)
	require.Equal(t, "job-1", job.ID)
	require.Equal(t, "agent-1", job.AgentID)
	require.Equal(t, "pending", job.Status)
}

func TestGetJob(t *testing.T) {
	upstream := newUpstream(t)
	client := jobapi.NewClient(upstream.URL, testAPIKeyHeader)

	job, err := client.GetJob(context.Background(), testAPIKey, "job-1")
	require.NoError(t, err)
	require.Equal(t, "completed", job.Status)
	require.Equal(t, "done", job.Output)
}

func TestUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := jobapi.NewClient(server.URL, testAPIKeyHeader)

	_, err := client.Me(context.Background(), testAPIKey)
	require.ErrorIs(t, err, jobapi.ErrUpstream)
}
