package config

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	KeysConfig
	UpstreamConfig
	ClientsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Keys
	Upstream
	Clients
}

func New() Config {
	return mainConfig{}
}
