package oauthmodel

// TokenRequest holds the form-encoded parameters presented at the /oauth/token
// endpoint for both supported grant types.
type TokenRequest struct {
	GrantType    GrantType
	ClientID     string
	ClientSecret string

	// Authorization code grant
	Code         string
	CodeVerifier string
	RedirectURI  string

	// Refresh token grant
	RefreshToken string
}

// TokenResponse represents the response from an OAuth2 token request as
// defined in RFC 6749. Returned from the /oauth/token endpoint for both
// grant types.
type TokenResponse struct {
	// AccessToken is the RS256-signed JWT used to access protected resources.
	// Presented as "Authorization: Bearer <access_token>".
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token. This is a
	// hint; the authoritative expiry is the JWT's "exp" claim.
	ExpiresIn int `json:"expires_in"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	// It rotates on every use.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Scope is the space-separated list of granted scopes.
	Scope string `json:"scope,omitempty"`
}
