package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"github.com/pkg/errors"
)

// Verifier length bounds from RFC 7636 §4.1, enforced before the transform.
const (
	minVerifierLength = 43
	maxVerifierLength = 128
)

// Authorization codes carry 256 bits of entropy.
const codeGenerationLength = 32

// VerifyPKCE checks a presented code verifier against the stored S256
// challenge. The comparison is constant time; the verifier is rejected on
// length alone before any hashing.
func VerifyPKCE(codeVerifier, storedChallenge string) bool {
	if len(codeVerifier) < minVerifierLength || len(codeVerifier) > maxVerifierLength {
		return false
	}
	if storedChallenge == "" {
		return false
	}
	hash := sha256.Sum256([]byte(codeVerifier))
	computed := base64.RawURLEncoding.EncodeToString(hash[:])
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedChallenge)) == 1
}

// ComputeChallenge derives the S256 challenge from a verifier. Exposed for
// clients and tests; the server itself only ever verifies.
func ComputeChallenge(codeVerifier string) string {
	hash := sha256.Sum256([]byte(codeVerifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// generateAuthorizationCode draws a fresh one-time code from crypto/rand.
func generateAuthorizationCode() (string, error) {
	raw := make([]byte, codeGenerationLength)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "generateAuthorizationCode rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
