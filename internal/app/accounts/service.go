package accounts

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/metrocab/taxi-dispatch-api/internal/domain"
	"github.com/metrocab/taxi-dispatch-api/internal/platform/auth/passwords"
	clockport "github.com/metrocab/taxi-dispatch-api/internal/ports/out/clock"
	"github.com/metrocab/taxi-dispatch-api/internal/ports/out/identityrepo"
	"github.com/metrocab/taxi-dispatch-api/internal/ports/out/riderepo"
)

const minSecretLength = 8

// Service manages identity records: registration, profiles, the blocked
// flag, and driver availability.
type Service struct {
	identities identityrepo.Repository
	rides      riderepo.Repository
	clk        clockport.Clock

	newIdentityID func() domain.IdentityID
}

func NewService(identities identityrepo.Repository, rides riderepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		identities: identities,
		rides:      rides,
		clk:        clk,
		newIdentityID: func() domain.IdentityID {
			return domain.IdentityID(uuid.NewString())
		},
	}
}

// SetNewIdentityIDForTest overrides identity ID generation for deterministic
// tests. It should not be used in production code.
func (s *Service) SetNewIdentityIDForTest(fn func() domain.IdentityID) {
	if fn != nil {
		s.newIdentityID = fn
	}
}

// Register creates a new identity. Drivers start unavailable until they
// explicitly go on duty.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.Identity, error) {
	name := domain.NormalizeHumanName(in.Name)
	if name == "" {
		return domain.Identity{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid name", Details: map[string]any{"name": "must be non-empty"}}
	}
	email := strings.TrimSpace(in.Email)
	if err := validateEmail(email); err != nil {
		return domain.Identity{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid email", Details: map[string]any{"email": err.Error()}}
	}
	if len(in.Secret) < minSecretLength {
		return domain.Identity{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid secret", Details: map[string]any{"secret": "must be at least 8 characters"}}
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return domain.Identity{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid role", Details: map[string]any{"role": "must be customer, driver, or admin"}}
	}

	hash, err := passwords.Hash(in.Secret)
	if err != nil {
		return domain.Identity{}, err
	}

	now := s.clk.Now()
	rec := identityrepo.Identity{
		ID:             s.newIdentityID(),
		Role:           role,
		Name:           name,
		Email:          email,
		CredentialHash: hash,
		Blocked:        false,
		Available:      false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.identities.Create(ctx, rec); err != nil {
		switch {
		case errors.Is(err, identityrepo.ErrEmailTaken):
			return domain.Identity{}, &Error{Status: 409, Code: "EMAIL_TAKEN", Message: "an account already exists for this email"}
		case errors.Is(err, identityrepo.ErrAlreadyExists):
			return domain.Identity{}, &Error{Status: 409, Code: "IDENTITY_ID_CONFLICT", Message: "identity id conflict"}
		default:
			return domain.Identity{}, err
		}
	}
	return toDomain(rec), nil
}

// EnsureAdmin idempotently seeds an initial admin account. It does nothing
// when any admin identity already exists.
func (s *Service) EnsureAdmin(ctx context.Context, email, secret string) error {
	existing, err := s.identities.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	_, err = s.Register(ctx, RegisterInput{
		Name:   "Admin",
		Email:  email,
		Secret: secret,
		Role:   string(domain.RoleAdmin),
	})
	return err
}

func (s *Service) GetIdentity(ctx context.Context, id domain.IdentityID) (domain.Identity, error) {
	rec, err := s.getRecord(ctx, id)
	if err != nil {
		return domain.Identity{}, err
	}
	return toDomain(rec), nil
}

// UpdateProfile changes name and/or email. Callers may update only their own
// profile; admins may update anyone's.
func (s *Service) UpdateProfile(ctx context.Context, caller domain.IdentityID, callerRole domain.Role, id domain.IdentityID, in UpdateProfileInput) (domain.Identity, error) {
	if caller != id && callerRole != domain.RoleAdmin {
		return domain.Identity{}, &Error{Status: 403, Code: "FORBIDDEN", Message: "cannot update another account"}
	}
	rec, err := s.getRecord(ctx, id)
	if err != nil {
		return domain.Identity{}, err
	}

	if in.Name != nil {
		name := domain.NormalizeHumanName(*in.Name)
		if name == "" {
			return domain.Identity{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid name", Details: map[string]any{"name": "must be non-empty"}}
		}
		rec.Name = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := validateEmail(email); err != nil {
			return domain.Identity{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid email", Details: map[string]any{"email": err.Error()}}
		}
		rec.Email = email
	}

	rec.UpdatedAt = s.clk.Now()
	if err := s.identities.Update(ctx, rec); err != nil {
		if errors.Is(err, identityrepo.ErrEmailTaken) {
			return domain.Identity{}, &Error{Status: 409, Code: "EMAIL_TAKEN", Message: "an account already exists for this email"}
		}
		return domain.Identity{}, err
	}
	return toDomain(rec), nil
}

// DeleteIdentity removes an account. Callers may delete only their own
// account; admins may delete anyone's.
func (s *Service) DeleteIdentity(ctx context.Context, caller domain.IdentityID, callerRole domain.Role, id domain.IdentityID) error {
	if caller != id && callerRole != domain.RoleAdmin {
		return &Error{Status: 403, Code: "FORBIDDEN", Message: "cannot delete another account"}
	}
	if err := s.identities.Delete(ctx, id); err != nil {
		if errors.Is(err, identityrepo.ErrNotFound) {
			return &Error{Status: 404, Code: "USER_NOT_FOUND", Message: "user not found"}
		}
		return err
	}
	return nil
}

// SetBlocked flips the blocked flag. Blocking takes effect at the next login;
// outstanding tokens keep verifying until expiry or revocation.
func (s *Service) SetBlocked(ctx context.Context, id domain.IdentityID, blocked bool) (domain.Identity, error) {
	rec, err := s.getRecord(ctx, id)
	if err != nil {
		return domain.Identity{}, err
	}
	rec.Blocked = blocked
	rec.UpdatedAt = s.clk.Now()
	if err := s.identities.Update(ctx, rec); err != nil {
		return domain.Identity{}, err
	}
	return toDomain(rec), nil
}

// SetAvailability overwrites a driver's bookable flag. The flag does not
// gate ride acceptance; it feeds the availability read path only.
func (s *Service) SetAvailability(ctx context.Context, driverID domain.IdentityID, available bool) (domain.Identity, error) {
	rec, err := s.getRecord(ctx, driverID)
	if err != nil {
		return domain.Identity{}, err
	}
	if rec.Role != domain.RoleDriver {
		return domain.Identity{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "identity is not a driver", Details: map[string]any{"id": "availability applies to drivers only"}}
	}
	rec.Available = available
	rec.UpdatedAt = s.clk.Now()
	if err := s.identities.Update(ctx, rec); err != nil {
		return domain.Identity{}, err
	}
	return toDomain(rec), nil
}

func (s *Service) IsAvailable(ctx context.Context, driverID domain.IdentityID) (bool, error) {
	rec, err := s.getRecord(ctx, driverID)
	if err != nil {
		return false, err
	}
	return rec.Role == domain.RoleDriver && rec.Available, nil
}

func (s *Service) ListDrivers(ctx context.Context) ([]domain.Identity, error) {
	return s.listByRole(ctx, domain.RoleDriver)
}

func (s *Service) ListPassengers(ctx context.Context) ([]domain.Identity, error) {
	return s.listByRole(ctx, domain.RoleCustomer)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Identity, error) {
	recs, err := s.identities.List(ctx)
	if err != nil {
		return nil, err
	}
	return toDomainSlice(recs), nil
}

// Analytics returns the admin counters: plain counts, no aggregation beyond
// what the repositories report.
func (s *Service) Analytics(ctx context.Context) (Analytics, error) {
	var out Analytics
	var err error
	if out.TotalUsers, err = s.identities.CountAll(ctx); err != nil {
		return Analytics{}, err
	}
	if out.TotalDrivers, err = s.identities.CountDrivers(ctx, false); err != nil {
		return Analytics{}, err
	}
	if out.AvailableDrivers, err = s.identities.CountDrivers(ctx, true); err != nil {
		return Analytics{}, err
	}
	if out.TotalRides, err = s.rides.Count(ctx); err != nil {
		return Analytics{}, err
	}
	return out, nil
}

func (s *Service) listByRole(ctx context.Context, role domain.Role) ([]domain.Identity, error) {
	recs, err := s.identities.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	return toDomainSlice(recs), nil
}

func (s *Service) getRecord(ctx context.Context, id domain.IdentityID) (identityrepo.Identity, error) {
	rec, err := s.identities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, identityrepo.ErrNotFound) {
			return identityrepo.Identity{}, &Error{Status: 404, Code: "USER_NOT_FOUND", Message: "user not found"}
		}
		return identityrepo.Identity{}, err
	}
	return rec, nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("must be non-empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("must be a valid email address")
	}
	return nil
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

func toDomainSlice(recs []identityrepo.Identity) []domain.Identity {
	out := make([]domain.Identity, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomain(rec))
	}
	return out
}
