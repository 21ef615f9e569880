package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jobmesh/mcp-bridge/auth"
	"github.com/jobmesh/mcp-bridge/auth/sessions"
	"github.com/jobmesh/mcp-bridge/clients"
	"github.com/jobmesh/mcp-bridge/identity"
	"github.com/jobmesh/mcp-bridge/internal/config"
	"github.com/jobmesh/mcp-bridge/jobapi"
	"github.com/jobmesh/mcp-bridge/mcptools"
	"github.com/jobmesh/mcp-bridge/server"
	"github.com/jobmesh/mcp-bridge/token"
	"github.com/jobmesh/mcp-bridge/token/keys"
	"github.com/jobmesh/mcp-bridge/token/refresh"
)

const version = "0.1.0"

const cleanupInterval = time.Minute

func main() {
	rootCmd := &cobra.Command{
		Use:          "mcp-bridge",
		Short:        "OAuth-protected MCP bridge for the job API",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	c := config.New()
	logger := newLogger(c)
	displayAppname(c.GetAppName())

	// Signing key: load from the environment when supplied, otherwise
	// generate a fresh pair. Generated keys invalidate all outstanding
	// tokens on restart, so production deployments supply a PEM.
	keyPair, err := loadOrGenerateKeyPair(c, logger)
	if err != nil {
		return errors.Wrap(err, "[run] signing key initialisation failed")
	}

	issuer := c.GetBaseURL()
	revokedCache := token.NewInMemoryRevokedTokenCache()
	tokenManager := token.New(
		keys.NewKeyPairSigner(keyPair),
		issuer,
		issuer+server.RouteMCP,
		token.WithAccessTokenExpiry(c.GetDefaultAccessTokenExpiry()),
		token.WithRevokedTokenCache(revokedCache),
	)
	refreshManager := refresh.NewManager(
		refresh.NewInMemoryRepo(),
		revokedCache,
		refresh.WithExpiry(c.GetDefaultRefreshTokenExpiry()),
		refresh.WithLogger(logger),
	)

	repos := auth.Repos{
		Sessions: sessions.NewInMemoryRepo(),
		Clients:  clients.NewInMemoryRepo(),
	}
	if err := seedClient(c, repos.Clients); err != nil {
		return errors.Wrap(err, "[run] failed to seed OAuth client")
	}

	jobAPI := jobapi.NewClient(c.GetJobAPIBaseURL(), c.GetJobAPIKeyHeader(), jobapi.WithLogger(logger))

	verifier, err := newVerifier(c, jobAPI, logger)
	if err != nil {
		return errors.Wrap(err, "[run] failed to build credential verifier")
	}

	authService, err := auth.NewAuthorizationService(
		repos,
		tokenManager,
		refreshManager,
		verifier,
		auth.WithCodeExpiry(c.GetAuthCodeTimeout()),
		auth.WithLogger(logger),
	)
	if err != nil {
		return errors.Wrap(err, "[run] failed to create authorization service")
	}

	tools := mcptools.NewService("jobmesh-mcp-bridge", version, jobAPI, mcptools.WithLogger(logger))

	srv, err := server.New(c, authService, tools.Handler(), server.WithLogger(logger))
	if err != nil {
		return errors.Wrap(err, "[run] failed to create server")
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}

	stopCleanup := startCleanupLoop(authService)
	defer stopCleanup()

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Str("issuer", issuer).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	waitForStopSignal()
	return shutdown(httpServer)
}

func newLogger(c config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if c.GetEnv() == "DEV" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger
}

func loadOrGenerateKeyPair(c config.Config, logger zerolog.Logger) (*keys.KeyPair, error) {
	if pem := c.GetSigningKeyPEM(); pem != "" {
		return keys.LoadKeyPairFromPEM(c.GetSigningKeyID(), pem)
	}
	logger.Warn().Msg("no signing key configured, generating an ephemeral RSA key pair")
	return keys.GenerateRSAKeyPair(c.GetSigningKeyID(), 2048)
}

func seedClient(c config.Config, repo clients.Repo) error {
	client := &clients.Client{
		ID:           c.GetSeedClientID(),
		Type:         clients.ClientTypePublic,
		Description:  "Seeded MCP client",
		RedirectURIs: c.GetSeedClientRedirectURIs(),
		Scopes:       c.GetSupportedScopes(),
	}
	if secret := c.GetSeedClientSecret(); secret != "" {
		hash, err := clients.HashSecret(secret)
		if err != nil {
			return err
		}
		client.Type = clients.ClientTypeConfidential
		client.SecretHash = hash
	}
	return repo.Upsert(client)
}

func newVerifier(c config.Config, jobAPI *jobapi.Client, logger zerolog.Logger) (identity.Verifier, error) {
	if c.GetOIDCIssuerURL() == "" {
		return identity.NewAPIKeyVerifier(jobAPI, identity.WithLogger(logger)), nil
	}
	return identity.NewOIDCVerifier(
		context.Background(),
		c.GetOIDCIssuerURL(),
		c.GetOIDCClientID(),
		c.GetOIDCClientSecret(),
		c.GetOIDCRedirectURL(),
	)
}

// startCleanupLoop sweeps expired sessions, refresh tokens and revocation
// entries in the background. Returns a stop function.
func startCleanupLoop(authService *auth.AuthorizationService) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				authService.CleanupExpired()
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
