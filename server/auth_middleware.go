package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jobmesh/mcp-bridge/token"
)

// RequireAuth is middleware guarding the protected resource. A directly
// presented API key (query parameter or upstream key header) is checked
// first; otherwise a Bearer access token is verified locally. Verified
// claims are attached to the request context for downstream handlers. An
// unauthenticated request gets a WWW-Authenticate challenge pointing at
// the protected resource metadata, which is what MCP clients use to
// discover the authorization server.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if apiKey := s.directAPIKey(r); apiKey != "" {
				identity, err := s.auth.AuthenticateCredential(r.Context(), apiKey)
				if err != nil {
					s.sendAuthChallenge(w, "Invalid API key")
					return
				}
				claims := &token.Claims{
					Subject: identity.Subject,
					Scope:   strings.Join(s.config.GetSupportedScopes(), " "),
					APIKey:  apiKey,
				}
				next(w, r.WithContext(token.ContextWithClaims(r.Context(), claims)))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				s.sendAuthChallenge(w, "Missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				s.sendAuthChallenge(w, "Invalid Authorization header format")
				return
			}

			rawToken := parts[1]
			if rawToken == "" {
				s.sendAuthChallenge(w, "Empty token")
				return
			}

			claims, err := s.auth.VerifyAccessToken(rawToken)
			if err != nil {
				s.logger.Debug().Err(err).Msg("bearer token rejected")
				s.sendAuthChallenge(w, "Invalid or expired token")
				return
			}

			r = r.WithContext(token.ContextWithClaims(r.Context(), claims))
			next(w, r)
		}
	}
}

// directAPIKey extracts a statically presented upstream credential from
// the query string or the configured key header.
func (s *Server) directAPIKey(r *http.Request) string {
	if key := r.URL.Query().Get("api_key"); key != "" {
		return key
	}
	return r.Header.Get(s.config.GetJobAPIKeyHeader())
}

// sendAuthChallenge writes a 401 with the resource_metadata challenge
// parameter (RFC 9728).
func (s *Server) sendAuthChallenge(w http.ResponseWriter, description string) {
	metadataURL := s.issuer() + RouteProtectedResourceMetadata
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer resource_metadata=%q`, metadataURL))
	writeJSONError(w, "invalid_token", description, http.StatusUnauthorized)
}
