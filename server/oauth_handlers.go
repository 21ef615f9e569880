package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/jobmesh/mcp-bridge/auth"
	"github.com/jobmesh/mcp-bridge/oauthmodel"
)

// ProtectedResourceMetadataHandler serves the protected resource metadata
// document (RFC 9728). MCP clients start discovery here after a 401.
func (s *Server) ProtectedResourceMetadataHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		issuer := s.issuer()

		resp := map[string]any{
			"resource":                 issuer + RouteMCP,
			"authorization_servers":    []string{issuer},
			"bearer_methods_supported": []string{oauthmodel.BearerMethodHeader},
			"scopes_supported":         s.config.GetSupportedScopes(),
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// AuthServerMetadataHandler serves the authorization server metadata
// document (RFC 8414).
func (s *Server) AuthServerMetadataHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		issuer := s.issuer()

		resp := map[string]any{
			"issuer":                 issuer,
			"authorization_endpoint": issuer + RouteOAuthAuthorize,
			"token_endpoint":         issuer + RouteOAuthToken,
			"jwks_uri":               issuer + RouteJWKS,

			"response_types_supported": []string{"code"},
			"response_modes_supported": []string{"query"},

			"grant_types_supported": []string{
				"authorization_code",
				"refresh_token",
			},

			// PKCE is mandatory and only S256 is accepted
			"code_challenge_methods_supported": []string{"S256"},

			"token_endpoint_auth_methods_supported": []string{
				"client_secret_post", // Credentials in POST body
				"none",               // For public clients with PKCE
			},

			"scopes_supported": s.config.GetSupportedScopes(),
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// JWKSHandler returns the JSON Web Key Set used to validate access tokens.
func (s *Server) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.auth.GetJWKS()
		if err != nil {
			http.Error(w, "Failed to get JWKS: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		_ = json.NewEncoder(w).Encode(jwks)
	}
}

// AuthorizeHandler begins the authorization flow. A valid request creates
// a pending session and lands the user on the login page with the
// authorization code carried along.
func (s *Server) AuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := parseAuthorizationParameters(r)

		code, err := s.auth.Authorize(params)
		if err != nil {
			// A bad client or redirect URI must never trigger a redirect;
			// everything validated after the redirect URI goes back to the
			// client as an error parameter.
			switch {
			case errors.Is(err, auth.ErrInvalidScope):
				redirectError(w, r, params.RedirectURI, oauthmodel.ErrorCodeInvalidScope, params.State)
			case errors.Is(err, auth.ErrInvalidRequest):
				redirectError(w, r, params.RedirectURI, oauthmodel.ErrorCodeInvalidRequest, params.State)
			default:
				http.Error(w, "Invalid authorization request: "+err.Error(), http.StatusBadRequest)
			}
			return
		}

		http.Redirect(w, r, RouteOAuthLogin+"?code="+url.QueryEscape(code), http.StatusSeeOther)
	}
}

// TokenHandler exchanges an authorization code or a refresh token for
// tokens.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oauthmodel.ErrorCodeInvalidRequest, "Failed to parse form data", http.StatusBadRequest)
			return
		}

		tokenReq := oauthmodel.TokenRequest{
			GrantType:    oauthmodel.GrantType(r.FormValue("grant_type")),
			ClientID:     r.FormValue("client_id"),
			ClientSecret: r.FormValue("client_secret"),
			Code:         r.FormValue("code"),
			CodeVerifier: r.FormValue("code_verifier"),
			RedirectURI:  r.FormValue("redirect_uri"),
			RefreshToken: r.FormValue("refresh_token"),
		}

		tokenResponse, err := s.auth.Token(tokenReq)
		if err != nil {
			// The description is deliberately generic; the service logs
			// the actual cause. A caller probing the endpoint learns only
			// the RFC error code.
			code, description, status := tokenErrorResponse(err)
			writeJSONError(w, code, description, status)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		_ = json.NewEncoder(w).Encode(tokenResponse)
	}
}

// Helper functions

// parseAuthorizationParameters extracts OAuth2 authorization parameters from the request
func parseAuthorizationParameters(r *http.Request) *oauthmodel.AuthorizationParameters {
	return &oauthmodel.AuthorizationParameters{
		ClientID:            r.URL.Query().Get("client_id"),
		ResponseType:        oauthmodel.ResponseType(r.URL.Query().Get("response_type")),
		RedirectURI:         r.URL.Query().Get("redirect_uri"),
		Scope:               r.URL.Query().Get("scope"),
		State:               r.URL.Query().Get("state"),
		CodeChallenge:       r.URL.Query().Get("code_challenge"),
		CodeChallengeMethod: oauthmodel.CodeMethodType(r.URL.Query().Get("code_challenge_method")),
		Resource:            r.URL.Query().Get("resource"),
	}
}

// tokenErrorResponse maps a service error to its RFC 6749 error code,
// a generic description and the HTTP status.
func tokenErrorResponse(err error) (string, string, int) {
	switch {
	case errors.Is(err, auth.ErrInvalidClient):
		return oauthmodel.ErrorCodeInvalidClient, "Client authentication failed", http.StatusUnauthorized
	case errors.Is(err, auth.ErrInvalidRequest):
		return oauthmodel.ErrorCodeInvalidRequest, "Invalid token request", http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidGrant):
		return oauthmodel.ErrorCodeInvalidGrant, "Invalid or expired grant", http.StatusBadRequest
	default:
		return oauthmodel.ErrorCodeServerError, "Internal server error", http.StatusInternalServerError
	}
}

// redirectError sends the user agent back to the client with an OAuth
// error parameter.
func redirectError(w http.ResponseWriter, r *http.Request, redirectURI, errorCode, state string) {
	separator := "?"
	if strings.Contains(redirectURI, "?") {
		separator = "&"
	}
	target := redirectURI + separator + "error=" + url.QueryEscape(errorCode)
	if state != "" {
		target += "&state=" + url.QueryEscape(state)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// writeJSONError writes an OAuth2 error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
