package config

// UpstreamConfig describes the job API the bridge fronts and, optionally,
// an external OpenID Connect provider to delegate login to. When
// OIDC_ISSUER_URL is empty the bridge verifies job API keys directly.
type UpstreamConfig interface {
	GetJobAPIBaseURL() string
	GetJobAPIKeyHeader() string

	GetOIDCIssuerURL() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	GetOIDCRedirectURL() string
}

type Upstream struct{}

var _ UpstreamConfig = Upstream{}

func (Upstream) GetJobAPIBaseURL() string {
	return GetEnv("JOB_API_BASE_URL", "https://api.jobmesh.io")
}

func (Upstream) GetJobAPIKeyHeader() string {
	return GetEnv("JOB_API_KEY_HEADER", "x-api-key")
}

func (Upstream) GetOIDCIssuerURL() string {
	return GetEnv("OIDC_ISSUER_URL", "")
}

func (Upstream) GetOIDCClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}

func (Upstream) GetOIDCClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}

func (Upstream) GetOIDCRedirectURL() string {
	return GetEnv("OIDC_REDIRECT_URL", "")
}
