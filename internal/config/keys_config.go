package config

// KeysConfig controls the RSA signing key. When no PEM is supplied a fresh
// key pair is generated at startup, which invalidates outstanding tokens on
// restart; supplying SIGNING_KEY_PEM keeps tokens verifiable across
// restarts.
type KeysConfig interface {
	GetSigningKeyPEM() string
	GetSigningKeyID() string
}

type Keys struct{}

var _ KeysConfig = Keys{}

func (Keys) GetSigningKeyPEM() string {
	return GetEnv("SIGNING_KEY_PEM", "")
}

func (Keys) GetSigningKeyID() string {
	return GetEnv("SIGNING_KEY_ID", "")
}
