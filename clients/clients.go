package clients

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidScope        = errors.New("invalid scope")
	ErrInvalidRedirectURI  = errors.New("redirect uri not registered")
	ErrInvalidClientSecret = errors.New("invalid client secret")
)

type ClientType string

const (
	ClientTypeConfidential ClientType = "confidential" // Can keep secrets (server-side apps)
	ClientTypePublic       ClientType = "public"       // Cannot keep secrets (CLI bridges, SPAs)
)

// Client is a registered OAuth2 client. Most MCP bridge clients are public:
// PKCE-only, no secret.
type Client struct {
	ID           string     `json:"id"`
	Type         ClientType `json:"type"`
	Description  string     `json:"description"`
	SecretHash   string     `json:"secretHash"` // bcrypt, confidential clients only
	RedirectURIs []string   `json:"redirectURIs"`
	Scopes       []string   `json:"scopes"`
}

// IsPublic returns true if the client is a public client
func (c *Client) IsPublic() bool {
	return c.Type == ClientTypePublic
}

// ValidateRedirectURI checks the redirect URI against the registered
// whitelist. Exact match only, to avoid open-redirect gadgets.
func (c *Client) ValidateRedirectURI(uri string) error {
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return nil
		}
	}
	return ErrInvalidRedirectURI
}

// ValidateSecret compares a presented secret against the stored bcrypt hash.
// Public clients must not present a secret at all.
func (c *Client) ValidateSecret(secret string) error {
	if c.IsPublic() {
		if secret != "" {
			return errors.Wrap(ErrInvalidClientSecret, "public clients must not provide client_secret")
		}
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.SecretHash), []byte(secret)); err != nil {
		return ErrInvalidClientSecret
	}
	return nil
}

// HasScope checks if the client has permission for a specific scope
func (c *Client) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// ValidateScopes checks if all requested scopes are allowed for this client
func (c *Client) ValidateScopes(requestedScopes string) error {
	for _, scope := range strings.Fields(requestedScopes) {
		if !c.HasScope(scope) {
			return errors.Wrapf(ErrInvalidScope, "scope %q not allowed", scope)
		}
	}
	return nil
}

// HashSecret produces the bcrypt hash stored for confidential clients.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt.GenerateFromPassword")
	}
	return string(hash), nil
}
