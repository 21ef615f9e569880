package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jobmesh/mcp-bridge/token"
)

var (
	// ErrInvalid is returned for tokens that were never issued or whose
	// record has already been cleaned up.
	ErrInvalid = errors.New("invalid refresh token")

	// ErrExpired is returned for tokens past the refresh token lifetime.
	ErrExpired = errors.New("refresh token expired")

	// ErrReused is returned when an already-rotated token is presented
	// again. The whole token family is revoked when this happens.
	ErrReused = errors.New("refresh token reuse detected")
)

const tokenByteLength = 32 // 256 bits of entropy

// Manager handles refresh token creation, redemption and rotation.
// Rotation is serialised by a single mutex so that exactly one of two
// concurrent redemptions of a token can win; the loser observes reuse.
type Manager struct {
	mu           sync.Mutex
	repo         Repo
	revokedCache token.RevokedTokenCache
	familyJTIs   map[string]map[string]time.Time // familyID -> access token jti -> exp
	expiry       time.Duration
	nowFunc      func() time.Time
	logger       zerolog.Logger
}

type ManagerOption func(*Manager)

// WithExpiry overrides the default 30 day refresh token lifetime.
func WithExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.expiry = expiry
	}
}

// WithNowFunc sets the time source (primarily for testing).
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithLogger sets the logger used for security events.
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a refresh token manager. The revoked cache must be the
// same instance the access token Manager verifies against, otherwise family
// revocation cannot reach already-issued access tokens.
func NewManager(repo Repo, revokedCache token.RevokedTokenCache, options ...ManagerOption) *Manager {
	m := &Manager{
		repo:         repo,
		revokedCache: revokedCache,
		familyJTIs:   make(map[string]map[string]time.Time),
		expiry:       30 * 24 * time.Hour,
		nowFunc:      time.Now,
		logger:       zerolog.Nop(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Issue creates a refresh token starting a new token family.
func (m *Manager) Issue(subject, clientID, scope, apiKey string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokenStr, err := generateToken()
	if err != nil {
		return "", err
	}

	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:    tokenStr,
		Subject:  subject,
		ClientID: clientID,
		Scope:    scope,
		APIKey:   apiKey,
		FamilyID: uuid.New().String(),
		IssuedAt: m.nowFunc(),
	}); err != nil {
		return "", errors.Wrap(err, "refresh.Manager.Issue upsert")
	}

	return tokenStr, nil
}

// Redeem rotates a refresh token: the presented token is marked used, a
// successor in the same family is stored, and the stored identity data is
// returned so the caller can mint a matching access token.
//
// Presenting an already-used token is treated as theft: the family is
// revoked, every access token tracked against it stops verifying, and
// ErrReused is returned.
func (m *Manager) Redeem(presented string) (*StoredRefreshToken, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rt, err := m.repo.Get(presented)
	if err != nil {
		return nil, "", ErrInvalid
	}

	if rt.Used {
		m.revokeFamilyLocked(rt)
		m.logger.Error().
			Str("subject", rt.Subject).
			Str("client_id", rt.ClientID).
			Str("family_id", rt.FamilyID).
			Int("generation", rt.Generation).
			Msg("refresh token reuse detected, token family revoked")
		return nil, "", ErrReused
	}

	if m.nowFunc().Sub(rt.IssuedAt) > m.expiry {
		_ = m.repo.Delete(presented)
		return nil, "", ErrExpired
	}

	// Tombstone the presented token, then store its successor.
	rt.Used = true
	if err := m.repo.Upsert(rt); err != nil {
		return nil, "", errors.Wrap(err, "refresh.Manager.Redeem tombstone")
	}

	next, err := generateToken()
	if err != nil {
		return nil, "", err
	}
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:      next,
		Subject:    rt.Subject,
		ClientID:   rt.ClientID,
		Scope:      rt.Scope,
		APIKey:     rt.APIKey,
		FamilyID:   rt.FamilyID,
		Generation: rt.Generation + 1,
		IssuedAt:   m.nowFunc(),
	}); err != nil {
		return nil, "", errors.Wrap(err, "refresh.Manager.Redeem upsert successor")
	}

	m.logger.Debug().
		Str("subject", rt.Subject).
		Str("family_id", rt.FamilyID).
		Int("generation", rt.Generation+1).
		Msg("refresh token rotated")

	return rt, next, nil
}

// TrackAccessToken associates an access token jti with the family of the
// refresh token it was issued alongside, so family revocation can reach it.
func (m *Manager) TrackAccessToken(refreshToken, jti string, exp time.Time) {
	if refreshToken == "" || jti == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rt, err := m.repo.Get(refreshToken)
	if err != nil || rt.FamilyID == "" {
		return
	}
	if m.familyJTIs[rt.FamilyID] == nil {
		m.familyJTIs[rt.FamilyID] = make(map[string]time.Time)
	}
	m.familyJTIs[rt.FamilyID][jti] = exp
}

// Invalidate removes a refresh token without revoking its family. Used at
// logout.
func (m *Manager) Invalidate(presented string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.repo.Delete(presented)
}

// Cleanup removes expired token records and their jti tracking.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.repo.DeleteExpired(m.nowFunc().Add(-m.expiry))

	now := m.nowFunc()
	for familyID, jtis := range m.familyJTIs {
		for jti, exp := range jtis {
			if now.After(exp) {
				delete(jtis, jti)
			}
		}
		if len(jtis) == 0 {
			delete(m.familyJTIs, familyID)
		}
	}
}

func (m *Manager) revokeFamilyLocked(rt *StoredRefreshToken) {
	_ = m.repo.DeleteFamily(rt.FamilyID)
	for jti, exp := range m.familyJTIs[rt.FamilyID] {
		_ = m.revokedCache.Add(jti, exp)
	}
	delete(m.familyJTIs, rt.FamilyID)
}

func generateToken() (string, error) {
	tokenBytes := make([]byte, tokenByteLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "refresh token rand.Read")
	}
	return hex.EncodeToString(tokenBytes), nil
}
