package identity

import (
	"context"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// OIDCVerifier is the delegated credential bridge: the presented credential
// is an authorization code from an upstream OIDC issuer, exchanged for an
// ID token whose claims become the identity.
type OIDCVerifier struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	timeout     time.Duration
	logger      zerolog.Logger
}

type OIDCVerifierOption func(*OIDCVerifier)

// WithOIDCTimeout bounds the upstream exchange.
func WithOIDCTimeout(timeout time.Duration) OIDCVerifierOption {
	return func(v *OIDCVerifier) {
		v.timeout = timeout
	}
}

// WithOIDCLogger sets the logger for authentication diagnostics.
func WithOIDCLogger(logger zerolog.Logger) OIDCVerifierOption {
	return func(v *OIDCVerifier) {
		v.logger = logger
	}
}

// NewOIDCVerifier discovers the upstream issuer and prepares the exchange.
// Discovery failure is returned to the caller; an authorization server that
// cannot reach its delegate at startup should not start.
func NewOIDCVerifier(ctx context.Context, issuerURL, clientID, clientSecret, redirectURL string, options ...OIDCVerifierOption) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, err
	}

	v := &OIDCVerifier{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
		timeout:  defaultAuthenticateTimeout,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(v)
	}
	return v, nil
}

var _ Verifier = (*OIDCVerifier)(nil)

// AuthURL builds the upstream authorization URL for the given state.
func (v *OIDCVerifier) AuthURL(state string) string {
	return v.oauthConfig.AuthCodeURL(state)
}

func (v *OIDCVerifier) Authenticate(ctx context.Context, credential string) (*Identity, error) {
	if credential == "" {
		return nil, ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	oauthToken, err := v.oauthConfig.Exchange(ctx, credential)
	if err != nil {
		v.logger.Warn().Err(err).Msg("upstream code exchange failed")
		return nil, ErrUnauthorized
	}

	rawIDToken, ok := oauthToken.Extra("id_token").(string)
	if !ok {
		v.logger.Warn().Msg("upstream token response missing id_token")
		return nil, ErrUnauthorized
	}

	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		v.logger.Warn().Err(err).Msg("upstream id_token failed verification")
		return nil, ErrUnauthorized
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		v.logger.Warn().Err(err).Msg("upstream id_token claims unreadable")
		return nil, ErrUnauthorized
	}

	v.logger.Debug().Str("subject", idToken.Subject).Msg("credential verified against upstream issuer")

	return &Identity{
		Subject: idToken.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		APIKey:  oauthToken.AccessToken,
	}, nil
}
