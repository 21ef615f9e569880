package token

import "context"

type contextKey string

const claimsContextKey contextKey = "token_claims"

// ContextWithClaims attaches verified access token claims to the context.
// Set by the bearer middleware so downstream handlers can read the caller's
// identity and upstream credential.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the verified claims attached by the bearer
// middleware, or false when the request was not authenticated.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}
