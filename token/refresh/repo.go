package refresh

import "time"

// StoredRefreshToken is the server-side record behind an opaque refresh
// token. Used tokens are kept as tombstones until their family expires so
// that a replayed token can be recognised as reuse rather than garbage.
type StoredRefreshToken struct {
	Token      string
	Subject    string
	ClientID   string
	Scope      string
	APIKey     string
	FamilyID   string
	Generation int
	Used       bool
	IssuedAt   time.Time
}

// Repo defines storage for refresh tokens. Implementations only need plain
// CRUD; the Manager serialises rotation itself.
type Repo interface {
	// Upsert creates or updates a stored refresh token
	Upsert(rt *StoredRefreshToken) error

	// Get retrieves a token record, including used tombstones
	Get(token string) (*StoredRefreshToken, error)

	// Delete removes a token record
	Delete(token string) error

	// DeleteFamily removes every token record belonging to a family
	DeleteFamily(familyID string) error

	// DeleteExpired removes token records issued before the cutoff
	DeleteExpired(cutoff time.Time) error
}
