package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jobmesh/mcp-bridge/auth/sessions"
	"github.com/jobmesh/mcp-bridge/clients"
	"github.com/jobmesh/mcp-bridge/identity"
	"github.com/jobmesh/mcp-bridge/oauthmodel"
	"github.com/jobmesh/mcp-bridge/token"
	"github.com/jobmesh/mcp-bridge/token/keys"
	"github.com/jobmesh/mcp-bridge/token/refresh"
)

const defaultCodeExpiry = 10 * time.Minute

// Repos holds the storage dependencies of the AuthorizationService.
type Repos struct {
	Sessions sessions.Repo
	Clients  clients.Repo
}

// AuthorizationService drives the authorization code flow: session
// creation, credential verification, code exchange and token refresh.
type AuthorizationService struct {
	repos          Repos
	tokenManager   *token.Manager
	refreshManager *refresh.Manager
	verifier       identity.Verifier
	codeExpiry     time.Duration
	nowFunc        func() time.Time
	logger         zerolog.Logger
}

type AuthorizationServiceOption func(*AuthorizationService)

// WithCodeExpiry overrides the default ten minute authorization code
// lifetime.
func WithCodeExpiry(expiry time.Duration) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.codeExpiry = expiry
	}
}

// WithNowTime sets the time source (primarily for testing).
func WithNowTime(nowFunc func() time.Time) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.nowFunc = nowFunc
	}
}

// WithLogger sets the logger for flow diagnostics and security events.
func WithLogger(logger zerolog.Logger) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.logger = logger
	}
}

// NewAuthorizationService initializes the service with its required
// dependencies.
func NewAuthorizationService(
	repos Repos,
	tokenManager *token.Manager,
	refreshManager *refresh.Manager,
	verifier identity.Verifier,
	options ...AuthorizationServiceOption,
) (*AuthorizationService, error) {
	if repos.Sessions == nil {
		return nil, errors.New("[NewAuthorizationService] Sessions repo is required")
	}
	if repos.Clients == nil {
		return nil, errors.New("[NewAuthorizationService] Clients repo is required")
	}
	if tokenManager == nil {
		return nil, errors.New("[NewAuthorizationService] tokenManager is required")
	}
	if refreshManager == nil {
		return nil, errors.New("[NewAuthorizationService] refreshManager is required")
	}
	if verifier == nil {
		return nil, errors.New("[NewAuthorizationService] verifier is required")
	}

	authService := &AuthorizationService{
		repos:          repos,
		tokenManager:   tokenManager,
		refreshManager: refreshManager,
		verifier:       verifier,
		codeExpiry:     defaultCodeExpiry,
		nowFunc:        time.Now,
		logger:         zerolog.Nop(),
	}

	for _, opt := range options {
		opt(authService)
	}

	return authService, nil
}

// Authorize validates an authorization request and creates the pending
// session. The returned code doubles as the session key; it only becomes
// exchangeable once Login marks the session authenticated.
func (as *AuthorizationService) Authorize(parameters *oauthmodel.AuthorizationParameters) (string, error) {
	// Client identity and redirect URI are checked before anything else.
	// Failures up to that point must never redirect; failures after it are
	// safe to report back to the client's validated redirect URI.
	client, err := as.repos.Clients.Get(parameters.ClientID)
	if err != nil {
		return "", errors.Wrap(ErrInvalidClient, "unknown client_id")
	}

	if err := client.ValidateRedirectURI(parameters.RedirectURI); err != nil {
		return "", errors.Wrap(ErrInvalidClient, err.Error())
	}

	if err := parameters.Validate(); err != nil {
		return "", errors.Wrap(ErrInvalidRequest, err.Error())
	}

	if err := client.ValidateScopes(parameters.Scope); err != nil {
		return "", errors.Wrap(ErrInvalidScope, err.Error())
	}

	code, err := generateAuthorizationCode()
	if err != nil {
		return "", err
	}

	now := as.nowFunc()
	if err := as.repos.Sessions.Upsert(&sessions.Session{
		Code:                code,
		ClientID:            parameters.ClientID,
		RedirectURI:         parameters.RedirectURI,
		Scope:               parameters.Scope,
		State:               parameters.State,
		CodeChallenge:       parameters.CodeChallenge,
		CodeChallengeMethod: parameters.CodeChallengeMethod,
		Resource:            parameters.Resource,
		CreatedAt:           now,
		ExpiresAt:           now.Add(as.codeExpiry),
	}); err != nil {
		return "", errors.Wrap(err, "[Authorize] failed to create session")
	}

	as.logger.Debug().Str("client_id", parameters.ClientID).Msg("authorization session created")
	return code, nil
}

// Login verifies the presented credential through the credential bridge and
// marks the session authenticated. The external check runs before any
// session state is touched, so no store lock is held while it is in flight.
func (as *AuthorizationService) Login(ctx context.Context, code, credential string) (*sessions.Session, error) {
	// Confirm the session is live before spending an upstream round trip.
	if _, err := as.repos.Sessions.Get(code); err != nil {
		return nil, errors.Wrap(ErrInvalidGrant, err.Error())
	}

	id, err := as.verifier.Authenticate(ctx, credential)
	if err != nil {
		as.logger.Info().Msg("credential check failed during login")
		return nil, errors.Wrap(ErrAccessDenied, "credential check failed")
	}

	if err := as.repos.Sessions.MarkAuthenticated(code, id.Subject, id.APIKey); err != nil {
		return nil, errors.Wrap(ErrInvalidGrant, err.Error())
	}

	session, err := as.repos.Sessions.Get(code)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidGrant, err.Error())
	}

	as.logger.Info().Str("subject", id.Subject).Str("client_id", session.ClientID).Msg("user authenticated")
	return session, nil
}

// Token handles the token endpoint for both grant types.
func (as *AuthorizationService) Token(parameters oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, error) {
	client, err := as.repos.Clients.Get(parameters.ClientID)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidClient, "unknown client_id")
	}
	if err := client.ValidateSecret(parameters.ClientSecret); err != nil {
		return nil, errors.Wrap(ErrInvalidClient, err.Error())
	}

	switch parameters.GrantType {
	case oauthmodel.AuthorizationCodeGrant:
		return as.exchangeAuthorizationCode(parameters)
	case oauthmodel.RefreshTokenGrant:
		return as.redeemRefreshToken(parameters)
	default:
		return nil, errors.Wrapf(ErrInvalidRequest, "unsupported grant_type %q", parameters.GrantType)
	}
}

// exchangeAuthorizationCode consumes a one-time code and mints tokens.
// Every failure surfaces as ErrInvalidGrant; the cause goes to the log.
func (as *AuthorizationService) exchangeAuthorizationCode(parameters oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, error) {
	session, err := as.repos.Sessions.Consume(parameters.Code)
	if err != nil {
		as.logger.Warn().Err(err).Str("client_id", parameters.ClientID).Msg("code exchange rejected")
		return nil, errors.Wrap(ErrInvalidGrant, err.Error())
	}

	if session.ClientID != parameters.ClientID {
		as.logger.Warn().Str("client_id", parameters.ClientID).Msg("code exchange rejected: client mismatch")
		return nil, errors.Wrap(ErrInvalidGrant, "client mismatch")
	}
	if session.RedirectURI != parameters.RedirectURI {
		as.logger.Warn().Str("client_id", parameters.ClientID).Msg("code exchange rejected: redirect_uri mismatch")
		return nil, errors.Wrap(ErrInvalidGrant, "redirect_uri mismatch")
	}
	if !VerifyPKCE(parameters.CodeVerifier, session.CodeChallenge) {
		as.logger.Warn().Str("client_id", parameters.ClientID).Msg("code exchange rejected: PKCE verification failed")
		return nil, errors.Wrap(ErrInvalidGrant, "PKCE verification failed")
	}

	accessToken, err := as.tokenManager.CreateAccessToken(session.Subject, session.ClientID, session.Scope, session.APIKey)
	if err != nil {
		return nil, errors.Wrap(err, "[Token] CreateAccessToken")
	}

	refreshToken, err := as.refreshManager.Issue(session.Subject, session.ClientID, session.Scope, session.APIKey)
	if err != nil {
		return nil, errors.Wrap(err, "[Token] Issue refresh token")
	}
	as.refreshManager.TrackAccessToken(refreshToken, accessToken.JTI, accessToken.ExpiresAt)

	as.logger.Info().
		Str("subject", session.Subject).
		Str("client_id", session.ClientID).
		Msg("authorization code exchanged for tokens")

	return &oauthmodel.TokenResponse{
		AccessToken:  accessToken.Token,
		TokenType:    "Bearer",
		ExpiresIn:    int(as.tokenManager.AccessTokenExpiry().Seconds()),
		RefreshToken: refreshToken,
		Scope:        session.Scope,
	}, nil
}

// redeemRefreshToken rotates a refresh token and mints a fresh access token.
func (as *AuthorizationService) redeemRefreshToken(parameters oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, error) {
	old, next, err := as.refreshManager.Redeem(parameters.RefreshToken)
	if err != nil {
		// Reuse is already logged at error severity by the refresh manager.
		return nil, errors.Wrap(ErrInvalidGrant, err.Error())
	}

	if old.ClientID != parameters.ClientID {
		as.logger.Warn().Str("client_id", parameters.ClientID).Msg("refresh rejected: client mismatch")
		return nil, errors.Wrap(ErrInvalidGrant, "client mismatch")
	}

	accessToken, err := as.tokenManager.CreateAccessToken(old.Subject, old.ClientID, old.Scope, old.APIKey)
	if err != nil {
		return nil, errors.Wrap(err, "[Token] CreateAccessToken for refresh")
	}
	as.refreshManager.TrackAccessToken(next, accessToken.JTI, accessToken.ExpiresAt)

	return &oauthmodel.TokenResponse{
		AccessToken:  accessToken.Token,
		TokenType:    "Bearer",
		ExpiresIn:    int(as.tokenManager.AccessTokenExpiry().Seconds()),
		RefreshToken: next,
		Scope:        old.Scope,
	}, nil
}

// VerifyAccessToken validates a bearer token presented to the protected
// resource and returns its claims.
func (as *AuthorizationService) VerifyAccessToken(rawToken string) (*token.Claims, error) {
	return as.tokenManager.VerifyAccessToken(rawToken)
}

// AuthenticateCredential verifies a directly presented upstream credential
// through the credential bridge, bypassing the token flow entirely. The
// protected resource boundary uses this for callers that send a static API
// key instead of a bearer token.
func (as *AuthorizationService) AuthenticateCredential(ctx context.Context, credential string) (*identity.Identity, error) {
	id, err := as.verifier.Authenticate(ctx, credential)
	if err != nil {
		as.logger.Warn().Err(err).Msg("direct credential rejected")
		return nil, errors.Wrap(ErrAccessDenied, "credential verification failed")
	}
	return id, nil
}

// GetJWKS returns the JSON Web Key Set for public key distribution.
func (as *AuthorizationService) GetJWKS() (*keys.JWKS, error) {
	return as.tokenManager.GetJWKS()
}

// CleanupExpired drops expired sessions, refresh tokens and revocation
// entries. Correctness never depends on this running; it only bounds
// memory growth.
func (as *AuthorizationService) CleanupExpired() {
	_ = as.repos.Sessions.DeleteExpired(as.nowFunc())
	as.refreshManager.Cleanup()
	as.tokenManager.CleanupRevokedTokens()
}
