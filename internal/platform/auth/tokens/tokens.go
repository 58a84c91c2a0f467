package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/metrocab/taxi-dispatch-api/internal/domain"
)

// ErrInvalidToken covers every parse failure: bad signature, wrong signing
// method, malformed structure, or a token outside its validity window.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified content of a session token.
type Claims struct {
	IdentityID domain.IdentityID
	Role       domain.Role
	ExpiresAt  time.Time
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager issues and verifies signed HS256 session tokens for authenticated
// identities.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a manager with the provided secret, issuer, and lifetime.
func NewManager(secret, issuer string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// SetNowForTest overrides the time source for deterministic expiry tests.
// It should not be used in production code.
func (m *Manager) SetNowForTest(fn func() time.Time) {
	if fn != nil {
		m.now = fn
	}
}

// Issue signs a token asserting (identity, role) for the configured lifetime.
func (m *Manager) Issue(id domain.IdentityID, role domain.Role) (string, error) {
	now := m.now()
	claims := sessionClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   string(id),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies the signature and validity window and returns the claims.
// It does not consult any store; revocation is the caller's concern.
func (m *Manager) Parse(raw string) (Claims, error) {
	var sc sessionClaims
	_, err := jwt.ParseWithClaims(raw, &sc,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	role, err := domain.ParseRole(sc.Role)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	if sc.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{
		IdentityID: domain.IdentityID(sc.Subject),
		Role:       role,
		ExpiresAt:  sc.ExpiresAt.Time,
	}, nil
}
