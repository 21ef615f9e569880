package identity

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jobmesh/mcp-bridge/jobapi"
)

const defaultAuthenticateTimeout = 30 * time.Second

// APIKeyVerifier is the self-contained credential bridge: the presented
// credential is a job API key, validated against the upstream identity
// endpoint.
type APIKeyVerifier struct {
	client  *jobapi.Client
	timeout time.Duration
	logger  zerolog.Logger
}

type APIKeyVerifierOption func(*APIKeyVerifier)

// WithTimeout bounds the upstream identity call.
func WithTimeout(timeout time.Duration) APIKeyVerifierOption {
	return func(v *APIKeyVerifier) {
		v.timeout = timeout
	}
}

// WithLogger sets the logger for authentication diagnostics.
func WithLogger(logger zerolog.Logger) APIKeyVerifierOption {
	return func(v *APIKeyVerifier) {
		v.logger = logger
	}
}

func NewAPIKeyVerifier(client *jobapi.Client, options ...APIKeyVerifierOption) *APIKeyVerifier {
	v := &APIKeyVerifier{
		client:  client,
		timeout: defaultAuthenticateTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(v)
	}
	return v
}

var _ Verifier = (*APIKeyVerifier)(nil)

func (v *APIKeyVerifier) Authenticate(ctx context.Context, credential string) (*Identity, error) {
	if credential == "" {
		return nil, ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	user, err := v.client.Me(ctx, credential)
	if err != nil {
		// Rejection and upstream trouble look the same to the caller but
		// matter differently to operators.
		if errors.Is(err, jobapi.ErrUnauthorized) {
			v.logger.Info().Msg("job api rejected presented credential")
		} else {
			v.logger.Warn().Err(err).Msg("job api identity check failed")
		}
		return nil, ErrUnauthorized
	}

	v.logger.Debug().Str("subject", user.ID).Msg("credential verified against job api")

	return &Identity{
		Subject: user.ID,
		Email:   user.Email,
		Name:    user.Name,
		APIKey:  credential,
	}, nil
}
