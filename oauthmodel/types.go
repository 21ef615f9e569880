package oauthmodel

// ResponseType represents the OAuth 2.0 response type requested at the
// authorization endpoint. Only the authorization code flow is supported.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// Example: /oauth/authorize?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"
)

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge
// method. Only S256 is accepted; "plain" offers no protection against an
// attacker that can read the authorization request and is rejected.
type CodeMethodType string

const (
	// CodeMethodTypeS256 indicates SHA-256 hashing of the code verifier.
	// Client sends: code_challenge = BASE64URL(SHA256(code_verifier))
	CodeMethodTypeS256 CodeMethodType = "S256"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges a one-time authorization code for tokens.
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for a rotated token pair.
	RefreshTokenGrant GrantType = "refresh_token"
)

// BearerMethodHeader is the only supported way of presenting an access token
// to the protected resource.
const BearerMethodHeader = "header"
