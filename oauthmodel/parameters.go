package oauthmodel

// AuthorizationParameters holds parameters for the OAuth2 authorization request.
// These are received as query parameters at the /oauth/authorize endpoint.
type AuthorizationParameters struct {
	// ClientID identifies the application requesting authorization.
	// Required: Yes
	// Example: "mcp-remote"
	// Validated against: clients.Client.ID in the client registry
	ClientID string

	// ResponseType specifies what the authorization endpoint should return.
	// Required: Yes
	// Example: "code" (only supported value)
	ResponseType ResponseType

	// RedirectURI is where the authorization response will be sent.
	// Required: Yes
	// Example: "http://127.0.0.1:33418/oauth/callback"
	// Security: Must exactly match a pre-registered URI to prevent open redirects
	RedirectURI string

	// Scope specifies the permissions being requested.
	// Required: No
	// Example: "mcp:read mcp:write"
	// Validated against: clients.Client.Scopes (allowed scopes for this client)
	Scope string

	// State is an opaque value used by the client to maintain state between
	// request and callback. The server stores it in the session and echoes it
	// back in the redirect so the client can detect CSRF.
	// Required: Recommended
	State string

	// CodeChallenge is the PKCE challenge derived from code_verifier.
	// Required: Yes (PKCE is mandatory for every client)
	// Example: BASE64URL(SHA256(code_verifier)), 43 characters for S256
	CodeChallenge string

	// CodeChallengeMethod specifies how code_challenge was derived.
	// Required: Yes, and must be "S256"
	CodeChallengeMethod CodeMethodType

	// Resource optionally names the protected resource the token is intended
	// for (RFC 8707). Defaults to the issuer when empty.
	Resource string
}

// Validate checks the structural requirements of the authorization request
// that do not depend on the client registration.
func (p *AuthorizationParameters) Validate() error {
	if p.ClientID == "" {
		return ErrInvalidClientID
	}
	if p.ResponseType != CodeResponseType {
		return ErrInvalidResponseType
	}
	if p.RedirectURI == "" {
		return ErrInvalidRedirectURI
	}
	if p.CodeChallenge == "" {
		return ErrInvalidCodeChallenge
	}
	if p.CodeChallengeMethod != CodeMethodTypeS256 {
		return ErrInvalidCodeChallengeMethod
	}
	return nil
}
