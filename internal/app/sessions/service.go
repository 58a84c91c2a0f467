package sessions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/metrocab/taxi-dispatch-api/internal/domain"
	"github.com/metrocab/taxi-dispatch-api/internal/platform/auth/passwords"
	"github.com/metrocab/taxi-dispatch-api/internal/platform/auth/tokens"
	clockport "github.com/metrocab/taxi-dispatch-api/internal/ports/out/clock"
	"github.com/metrocab/taxi-dispatch-api/internal/ports/out/identityrepo"
	"github.com/metrocab/taxi-dispatch-api/internal/ports/out/revocationrepo"
)

// Principal is the verified acting identity behind a request.
type Principal struct {
	IdentityID domain.IdentityID
	Role       domain.Role
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  domain.Identity
}

// Service issues, verifies, and revokes session tokens.
type Service struct {
	identities identityrepo.Repository
	revoked    revocationrepo.Store
	tokens     *tokens.Manager
	clk        clockport.Clock
}

func NewService(identities identityrepo.Repository, revoked revocationrepo.Store, tm *tokens.Manager, clk clockport.Clock) *Service {
	return &Service{
		identities: identities,
		revoked:    revoked,
		tokens:     tm,
		clk:        clk,
	}
}

// Login verifies the credential and issues a session token. Blocked
// identities are refused even when the credential is correct.
func (s *Service) Login(ctx context.Context, email, secret string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || secret == "" {
		return Session{}, &Error{Status: 401, Code: "UNAUTHENTICATED", Message: "invalid credentials"}
	}

	rec, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identityrepo.ErrNotFound) {
			return Session{}, &Error{Status: 401, Code: "UNAUTHENTICATED", Message: "invalid credentials"}
		}
		return Session{}, err
	}
	if !passwords.Verify(secret, rec.CredentialHash) {
		return Session{}, &Error{Status: 401, Code: "UNAUTHENTICATED", Message: "invalid credentials"}
	}
	if rec.Blocked {
		return Session{}, &Error{Status: 401, Code: "UNAUTHENTICATED", Message: "account is blocked"}
	}

	raw, err := s.tokens.Issue(rec.ID, rec.Role)
	if err != nil {
		return Session{}, err
	}
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     raw,
		ExpiresAt: claims.ExpiresAt,
		Identity:  toDomain(rec),
	}, nil
}

// Verify resolves a raw token to the acting principal. It checks the
// signature, the validity window, and the revocation set. It does not re-read
// the referenced identity: a deleted or just-blocked identity keeps verifying
// until the token expires or is revoked.
func (s *Service) Verify(ctx context.Context, raw string) (Principal, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return Principal{}, &Error{Status: 401, Code: "UNAUTHENTICATED", Message: "invalid token"}
	}
	revoked, err := s.revoked.Contains(ctx, raw)
	if err != nil {
		return Principal{}, err
	}
	if revoked {
		return Principal{}, &Error{Status: 401, Code: "UNAUTHENTICATED", Message: "token revoked"}
	}
	return Principal{IdentityID: claims.IdentityID, Role: claims.Role}, nil
}

// Logout revokes a syntactically valid token. Revoking the same token twice
// is a no-op; revocation is never undone.
func (s *Service) Logout(ctx context.Context, raw string) error {
	if _, err := s.tokens.Parse(raw); err != nil {
		return &Error{Status: 401, Code: "UNAUTHENTICATED", Message: "invalid token"}
	}
	return s.revoked.Add(ctx, raw, s.clk.Now())
}

func toDomain(rec identityrepo.Identity) domain.Identity {
	return domain.Identity{
		ID:        rec.ID,
		Role:      rec.Role,
		Name:      rec.Name,
		Email:     rec.Email,
		Blocked:   rec.Blocked,
		Available: rec.Available,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
