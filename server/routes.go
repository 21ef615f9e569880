package server

func (s *Server) initRoutes() {
	// Discovery
	s.RegisterRouteHandler("GET "+RouteProtectedResourceMetadata, ChainMiddleware(s.ProtectedResourceMetadataHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthServerMetadata, ChainMiddleware(s.AuthServerMetadataHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteJWKS, ChainMiddleware(s.JWKSHandler(), s.APIMiddleware()...))

	// OAuth flow
	s.RegisterRouteHandler("GET "+RouteOAuthAuthorize, ChainMiddleware(s.AuthorizeHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteOAuthLogin, s.LoginPageHandler())
	s.RegisterRouteFunc("POST "+RouteOAuthLogin, s.LoginSubmissionHandler())
	s.RegisterRouteHandler("POST "+RouteOAuthToken, ChainMiddleware(s.TokenHandler(), s.APIMiddleware()...))

	// Protected MCP endpoint
	s.RegisterRouteHandler(RouteMCP, ChainMiddleware(s.mcpHandler.ServeHTTP, append(s.APIMiddleware(), s.RequireAuth())...))
}
