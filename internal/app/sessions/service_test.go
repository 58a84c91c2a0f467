package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	memidentityrepo "github.com/metrocab/taxi-dispatch-api/internal/adapters/memory/identityrepo"
	memrevocationrepo "github.com/metrocab/taxi-dispatch-api/internal/adapters/memory/revocationrepo"
	"github.com/metrocab/taxi-dispatch-api/internal/domain"
	"github.com/metrocab/taxi-dispatch-api/internal/platform/auth/passwords"
	"github.com/metrocab/taxi-dispatch-api/internal/platform/auth/tokens"
	"github.com/metrocab/taxi-dispatch-api/internal/ports/out/identityrepo"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixture struct {
	svc        *Service
	identities *memidentityrepo.Repo
	tokens     *tokens.Manager
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	identities := memidentityrepo.NewRepo()
	revoked := memrevocationrepo.NewStore()
	tm := tokens.NewManager("test-secret", "taxi-dispatch", time.Hour)
	svc := NewService(identities, revoked, tm, fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)})
	return fixture{svc: svc, identities: identities, tokens: tm}
}

func (f fixture) seedIdentity(t *testing.T, id domain.IdentityID, role domain.Role, email, secret string, blocked bool) {
	t.Helper()
	hash, err := passwords.Hash(secret)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	err = f.identities.Create(context.Background(), identityrepo.Identity{
		ID:             id,
		Role:           role,
		Name:           "Test User",
		Email:          email,
		CredentialHash: hash,
		Blocked:        blocked,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("seed identity: %v", err)
	}
}

func assertSessionError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatalf("error %v is not a *sessions.Error", err)
	}
	if appErr.Status != status || appErr.Code != code {
		t.Fatalf("error = %d %s, want %d %s", appErr.Status, appErr.Code, status, code)
	}
}

func TestService_LoginAndVerify(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedIdentity(t, "u1", domain.RoleCustomer, "rider@example.com", "correct horse", false)
	ctx := context.Background()

	sess, err := f.svc.Login(ctx, "rider@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("empty session token")
	}
	if sess.Identity.ID != "u1" || sess.Identity.Role != domain.RoleCustomer {
		t.Fatalf("session identity = %+v", sess.Identity)
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Fatalf("ExpiresAt %v is not in the future", sess.ExpiresAt)
	}

	p, err := f.svc.Verify(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.IdentityID != "u1" || p.Role != domain.RoleCustomer {
		t.Fatalf("principal = %+v", p)
	}
}

func TestService_LoginTrimsEmail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedIdentity(t, "u1", domain.RoleCustomer, "rider@example.com", "correct horse", false)

	if _, err := f.svc.Login(context.Background(), "  rider@example.com  ", "correct horse"); err != nil {
		t.Fatalf("Login with padded email: %v", err)
	}
}

func TestService_LoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedIdentity(t, "u1", domain.RoleCustomer, "rider@example.com", "correct horse", false)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "rider@example.com", "wrong")
	assertSessionError(t, err, 401, "UNAUTHENTICATED")

	_, err = f.svc.Login(ctx, "nobody@example.com", "correct horse")
	assertSessionError(t, err, 401, "UNAUTHENTICATED")

	_, err = f.svc.Login(ctx, "", "")
	assertSessionError(t, err, 401, "UNAUTHENTICATED")
}

func TestService_LoginRejectsBlocked(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedIdentity(t, "u1", domain.RoleDriver, "driver@example.com", "correct horse", true)

	_, err := f.svc.Login(context.Background(), "driver@example.com", "correct horse")
	assertSessionError(t, err, 401, "UNAUTHENTICATED")
}

func TestService_LogoutRevokesPermanently(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedIdentity(t, "u1", domain.RoleCustomer, "rider@example.com", "correct horse", false)
	ctx := context.Background()

	sess, err := f.svc.Login(ctx, "rider@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.svc.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	_, err = f.svc.Verify(ctx, sess.Token)
	assertSessionError(t, err, 401, "UNAUTHENTICATED")

	// Logging out again is a no-op, and the token stays revoked.
	if err := f.svc.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	_, err = f.svc.Verify(ctx, sess.Token)
	assertSessionError(t, err, 401, "UNAUTHENTICATED")
}

func TestService_VerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedIdentity(t, "u1", domain.RoleCustomer, "rider@example.com", "correct horse", false)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	f.tokens.SetNowForTest(func() time.Time { return now })

	sess, err := f.svc.Login(ctx, "rider@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	now = base.Add(2 * time.Hour)
	_, err = f.svc.Verify(ctx, sess.Token)
	assertSessionError(t, err, 401, "UNAUTHENTICATED")
}

func TestService_VerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Verify(context.Background(), "not-a-token")
	assertSessionError(t, err, 401, "UNAUTHENTICATED")
}

func TestService_LogoutRejectsInvalidToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	err := f.svc.Logout(context.Background(), "not-a-token")
	assertSessionError(t, err, 401, "UNAUTHENTICATED")
}

// Deleting the identity after login does not invalidate the token; only
// expiry or revocation ends the session.
func TestService_VerifySurvivesIdentityDeletion(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedIdentity(t, "u1", domain.RoleCustomer, "rider@example.com", "correct horse", false)
	ctx := context.Background()

	sess, err := f.svc.Login(ctx, "rider@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.identities.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	p, err := f.svc.Verify(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Verify after deletion: %v", err)
	}
	if p.IdentityID != "u1" {
		t.Fatalf("principal = %+v", p)
	}
}
