package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Discovery Routes
	RouteProtectedResourceMetadata = "/.well-known/oauth-protected-resource"
	RouteAuthServerMetadata        = "/.well-known/oauth-authorization-server"
	RouteJWKS                      = "/.well-known/jwks.json"

	// OAuth Routes
	RouteOAuthAuthorize = "/oauth/authorize"
	RouteOAuthLogin     = "/oauth/login"
	RouteOAuthToken     = "/oauth/token"

	// Protected Routes
	RouteMCP = "/mcp"
)
