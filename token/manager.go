package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jobmesh/mcp-bridge/token/keys"
)

var (
	// ErrTokenExpired reports a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid covers every other verification failure: bad signature,
	// wrong issuer or audience, malformed structure, missing claims, revoked.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims are the decoded contents of a verified access token.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  string
	ClientID  string
	Scope     string
	JTI       string
	APIKey    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HasScope reports whether the space-separated scope claim contains s.
func (c *Claims) HasScope(s string) bool {
	for _, granted := range strings.Fields(c.Scope) {
		if granted == s {
			return true
		}
	}
	return false
}

// IssuedToken is a freshly minted access token together with the metadata
// callers need to track it (the jti for revocation, the expiry for hints).
type IssuedToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// Manager mints and verifies signed access tokens. The signer is read-only
// after construction and may be shared across concurrent callers.
type Manager struct {
	signer            keys.Signer
	issuer            string
	audience          string
	revokedCache      RevokedTokenCache
	accessTokenExpiry time.Duration
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

// WithAccessTokenExpiry overrides the default one hour access token lifetime.
func WithAccessTokenExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = expiry
	}
}

// WithNowFunc sets the time source (primarily for testing).
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithRevokedTokenCache shares a revocation cache with the refresh token
// manager so family revocation reaches already-issued access tokens.
func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

func New(signer keys.Signer, issuer, audience string, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:       signer,
		issuer:       issuer,
		audience:     audience,
		revokedCache: NewInMemoryRevokedTokenCache(),
		nowFunc:      time.Now,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry == 0 {
		m.accessTokenExpiry = time.Hour
	}
	return m
}

// AccessTokenExpiry returns the configured access token lifetime.
func (m *Manager) AccessTokenExpiry() time.Duration {
	return m.accessTokenExpiry
}

// CreateAccessToken mints a signed JWT for the given subject. The upstream
// API key travels inside the token so the bridge can call the job API on the
// holder's behalf without a server-side lookup.
func (m *Manager) CreateAccessToken(subject, clientID, scope, apiKey string) (*IssuedToken, error) {
	now := m.nowFunc()
	jti := uuid.New().String()
	expiresAt := now.Add(m.accessTokenExpiry)

	claims := jwt.MapClaims{
		"iss":       m.issuer,
		"sub":       subject,
		"aud":       m.audience,
		"client_id": clientID,
		"scope":     scope,
		"iat":       now.Unix(),
		"nbf":       now.Unix(),
		"exp":       expiresAt.Unix(),
		"jti":       jti,
	}
	if apiKey != "" {
		claims["api_key"] = apiKey
	}

	signed, err := m.signer.Sign(claims)
	if err != nil {
		return nil, errors.Wrap(err, "Manager.CreateAccessToken sign")
	}
	return &IssuedToken{
		Token:     signed,
		JTI:       jti,
		ExpiresAt: expiresAt,
	}, nil
}

// VerifyAccessToken checks signature, issuer, audience, expiry and the
// revocation cache, and returns the decoded claims. Expiry is the only
// failure reported as ErrTokenExpired; everything else collapses to
// ErrTokenInvalid.
func (m *Manager) VerifyAccessToken(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrTokenInvalid
	}

	parsed, err := jwt.Parse(rawToken, m.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{keys.RS256}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	sub, _ := mapClaims["sub"].(string)
	iss, _ := mapClaims["iss"].(string)
	clientID, _ := mapClaims["client_id"].(string)
	scope, _ := mapClaims["scope"].(string)
	jti, _ := mapClaims["jti"].(string)
	apiKey, _ := mapClaims["api_key"].(string)
	iat, _ := mapClaims["iat"].(float64)
	exp, _ := mapClaims["exp"].(float64)

	var aud string
	if audList, err := mapClaims.GetAudience(); err == nil && len(audList) > 0 {
		aud = audList[0]
	}

	if sub == "" {
		return nil, ErrTokenInvalid
	}

	if jti != "" && m.revokedCache.IsRevoked(jti) {
		return nil, ErrTokenInvalid
	}

	return &Claims{
		Subject:   sub,
		Issuer:    iss,
		Audience:  aud,
		ClientID:  clientID,
		Scope:     scope,
		JTI:       jti,
		APIKey:    apiKey,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}

// GetJWKS returns the JSON Web Key Set for public key distribution
func (m *Manager) GetJWKS() (*keys.JWKS, error) {
	keyPairSigner, ok := m.signer.(*keys.KeyPairSigner)
	if !ok {
		return nil, errors.New("JWKS only supported for asymmetric signing")
	}
	return keyPairSigner.GetJWKS()
}

// KeyID returns the identifier of the current signing key.
func (m *Manager) KeyID() string {
	return m.signer.KeyID()
}

// CleanupRevokedTokens removes expired entries from the revocation cache.
func (m *Manager) CleanupRevokedTokens() {
	if m.revokedCache != nil {
		m.revokedCache.Cleanup()
	}
}
