// Package mcptools exposes the job API as MCP tools over the streamable
// HTTP transport. Every tool handler reads the caller's verified claims
// from the request context and uses the upstream credential carried in
// them; the bearer middleware in the server package is responsible for
// putting the claims there.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/jobmesh/mcp-bridge/jobapi"
	"github.com/jobmesh/mcp-bridge/token"
)

// Service wraps the job API client and exposes it as MCP tools.
type Service struct {
	jobAPI    *jobapi.Client
	mcpServer *server.MCPServer
	logger    zerolog.Logger
}

type ServiceOption func(*Service)

// WithLogger sets the logger used for tool call diagnostics.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates the MCP tool surface backed by the given job API
// client.
func NewService(name, version string, jobAPI *jobapi.Client, options ...ServiceOption) *Service {
	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
	)

	s := &Service{
		jobAPI:    jobAPI,
		mcpServer: mcpServer,
		logger:    zerolog.Nop(),
	}

	for _, opt := range options {
		opt(s)
	}

	s.registerTools()
	return s
}

// Handler returns the streamable HTTP handler for the MCP endpoint. The
// caller must wrap it with bearer authentication; the handler itself
// trusts the claims it finds in the request context.
func (s *Service) Handler() http.Handler {
	return server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			// Carry the verified claims from the HTTP request into the
			// tool call context.
			if claims, ok := token.ClaimsFromContext(r.Context()); ok {
				return token.ContextWithClaims(ctx, claims)
			}
			return ctx
		}),
	)
}

func (s *Service) registerTools() {
	testConnectionTool := mcp.NewTool("test_connection",
		mcp.WithDescription("Verify that the bridge is reachable and the caller is authenticated"),
	)
	s.mcpServer.AddTool(testConnectionTool, s.handleTestConnection)

	echoTool := mcp.NewTool("echo",
		mcp.WithDescription("Echo a message back, for connectivity testing"),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Message to echo back"),
		),
	)
	s.mcpServer.AddTool(echoTool, s.handleEcho)

	getIdentityTool := mcp.NewTool("get_identity",
		mcp.WithDescription("Return the job API account the caller is acting as"),
	)
	s.mcpServer.AddTool(getIdentityTool, s.handleGetIdentity)

	listAgentsTool := mcp.NewTool("list_agents",
		mcp.WithDescription("List the agents available for job submission"),
	)
	s.mcpServer.AddTool(listAgentsTool, s.handleListAgents)

	submitJobTool := mcp.NewTool("submit_job",
		mcp.WithDescription("Submit a job to an agent"),
		mcp.WithString("agent_id",
			mcp.Required(),
			mcp.Description("ID of the agent to run the job"),
		),
		mcp.WithString("input",
			mcp.Required(),
			mcp.Description("Job input payload"),
		),
	)
	s.mcpServer.AddTool(submitJobTool, s.handleSubmitJob)

	getJobTool := mcp.NewTool("get_job",
		mcp.WithDescription("Get the status and result of a previously submitted job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("ID of the job to look up"),
		),
	)
	s.mcpServer.AddTool(getJobTool, s.handleGetJob)
}

func (s *Service) handleTestConnection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	claims, ok := token.ClaimsFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("not authenticated"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("connected as %s", claims.Subject)), nil
}

func (s *Service) handleEcho(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(message), nil
}

func (s *Service) handleGetIdentity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	apiKey, result := s.apiKeyFromContext(ctx)
	if result != nil {
		return result, nil
	}

	user, err := s.jobAPI.Me(ctx, apiKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("get_identity failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch identity: %v", err)), nil
	}

	return toolResultJSON(user)
}

func (s *Service) handleListAgents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	apiKey, result := s.apiKeyFromContext(ctx)
	if result != nil {
		return result, nil
	}

	agents, err := s.jobAPI.ListAgents(ctx, apiKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("list_agents failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to list agents: %v", err)), nil
	}

	return toolResultJSON(agents)
}

func (s *Service) handleSubmitJob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	apiKey, result := s.apiKeyFromContext(ctx)
	if result != nil {
		return result, nil
	}

	agentID, err := request.RequireString("agent_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	input, err := request.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	job, err := s.jobAPI.SubmitJob(ctx, apiKey, agentID, input)
	if err != nil {
		s.logger.Warn().Err(err).Str("agent_id", agentID).Msg("submit_job failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to submit job: %v", err)), nil
	}

	return toolResultJSON(job)
}

func (s *Service) handleGetJob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	apiKey, result := s.apiKeyFromContext(ctx)
	if result != nil {
		return result, nil
	}

	jobID, err := request.RequireString("job_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	job, err := s.jobAPI.GetJob(ctx, apiKey, jobID)
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("get_job failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to get job: %v", err)), nil
	}

	return toolResultJSON(job)
}

// apiKeyFromContext extracts the upstream credential from the verified
// claims. Returns a tool error result when the request carries no usable
// credential.
func (s *Service) apiKeyFromContext(ctx context.Context) (string, *mcp.CallToolResult) {
	claims, ok := token.ClaimsFromContext(ctx)
	if !ok {
		return "", mcp.NewToolResultError("not authenticated")
	}
	if claims.APIKey == "" {
		return "", mcp.NewToolResultError("no upstream credential associated with this token")
	}
	return claims.APIKey, nil
}

func toolResultJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
