package config

import "strings"

// ClientsConfig seeds the registered OAuth client at startup. MCP clients
// are public clients using loopback redirects; a secret may be configured
// to turn the seed client into a confidential one.
type ClientsConfig interface {
	GetSeedClientID() string
	GetSeedClientSecret() string
	GetSeedClientRedirectURIs() []string
}

type Clients struct{}

var _ ClientsConfig = Clients{}

func (Clients) GetSeedClientID() string {
	return GetEnv("CLIENT_ID", "mcp-client")
}

func (Clients) GetSeedClientSecret() string {
	return GetEnv("CLIENT_SECRET", "")
}

func (Clients) GetSeedClientRedirectURIs() []string {
	raw := GetEnv("CLIENT_REDIRECT_URIS", "http://localhost:33418/callback,http://127.0.0.1:33418/callback")
	var uris []string
	for _, uri := range strings.Split(raw, ",") {
		uri = strings.TrimSpace(uri)
		if uri != "" {
			uris = append(uris, uri)
		}
	}
	return uris
}
