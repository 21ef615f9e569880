package oauthmodel

import "errors"

// OAuth 2.0 error codes from RFC 6749 §5.2, used in the
// {"error": ..., "error_description": ...} response body.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidClient      = "invalid_client"
	ErrorCodeUnauthorizedClient = "unauthorized_client"
	ErrorCodeAccessDenied       = "access_denied"
	ErrorCodeInvalidGrant       = "invalid_grant"
	ErrorCodeInvalidScope       = "invalid_scope"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeServerError        = "server_error"
)

var (
	ErrInvalidResponseType        = errors.New("unsupported response type")
	ErrInvalidRedirectURI         = errors.New("invalid or no redirect uri")
	ErrInvalidCodeChallenge       = errors.New("invalid code challenge")
	ErrInvalidCodeChallengeMethod = errors.New("invalid code challenge method")
	ErrInvalidClientID            = errors.New("invalid client id")
	ErrInvalidScope               = errors.New("invalid scope")
)
