package sessions

import (
	"time"

	"github.com/jobmesh/mcp-bridge/oauthmodel"
)

// Session is one in-flight authorization request, keyed by its one-time
// authorization code. It moves through exactly three states: pending
// (created at /oauth/authorize), authenticated (credential verified) and
// consumed (code exchanged at /oauth/token). Consumed sessions are kept as
// tombstones until the sweep so a replayed code is recognised as such.
type Session struct {
	// Code is the opaque, single-use authorization code and primary key.
	Code string

	// Request parameters captured at /oauth/authorize
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod oauthmodel.CodeMethodType
	Resource            string

	// Identity fields, set by MarkAuthenticated
	Authenticated bool
	Subject       string
	APIKey        string

	Consumed  bool
	CreatedAt time.Time
	ExpiresAt time.Time
}
