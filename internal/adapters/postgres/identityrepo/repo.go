package identityrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/metrocab/taxi-dispatch-api/internal/adapters/postgres"
	"github.com/metrocab/taxi-dispatch-api/internal/domain"
	"github.com/metrocab/taxi-dispatch-api/internal/ports/out/identityrepo"
)

const identityColumns = `id, role, name, email, credential_hash, blocked, available, created_at, updated_at`

// Repo is a Postgres implementation of identityrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, rec identityrepo.Identity) error {
	id, err := uuid.Parse(string(rec.ID))
	if err != nil {
		return fmt.Errorf("invalid identity id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO identities (`+identityColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		id,
		string(rec.Role),
		rec.Name,
		rec.Email,
		rec.CredentialHash,
		rec.Blocked,
		rec.Available,
		rec.CreatedAt.UTC(),
		rec.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			if pe.ConstraintName == "identities_email_unique" {
				return identityrepo.ErrEmailTaken
			}
			return identityrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) Update(ctx context.Context, rec identityrepo.Identity) error {
	id, err := uuid.Parse(string(rec.ID))
	if err != nil {
		return identityrepo.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE identities
		SET role = $2,
		    name = $3,
		    email = $4,
		    credential_hash = $5,
		    blocked = $6,
		    available = $7,
		    updated_at = $8
		WHERE id = $1
	`,
		id,
		string(rec.Role),
		rec.Name,
		rec.Email,
		rec.CredentialHash,
		rec.Blocked,
		rec.Available,
		rec.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return identityrepo.ErrEmailTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return identityrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id domain.IdentityID) error {
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return identityrepo.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM identities WHERE id = $1`, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return identityrepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.IdentityID) (identityrepo.Identity, error) {
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return identityrepo.Identity{}, identityrepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, uid)
	return scanIdentity(row)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (identityrepo.Identity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE email = $1`, email)
	return scanIdentity(row)
}

func (r *Repo) List(ctx context.Context) ([]identityrepo.Identity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIdentities(rows)
}

func (r *Repo) ListByRole(ctx context.Context, role domain.Role) ([]identityrepo.Identity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE role = $1
		ORDER BY name ASC, id ASC
	`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIdentities(rows)
}

func (r *Repo) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM identities`).Scan(&n)
	return n, err
}

func (r *Repo) CountDrivers(ctx context.Context, onlyAvailable bool) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM identities
		WHERE role = $1 AND ($2 = FALSE OR available)
	`, string(domain.RoleDriver), onlyAvailable).Scan(&n)
	return n, err
}

func scanIdentity(row pgx.Row) (identityrepo.Identity, error) {
	var (
		id        uuid.UUID
		role      string
		rec       identityrepo.Identity
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&id, &role, &rec.Name, &rec.Email, &rec.CredentialHash, &rec.Blocked, &rec.Available, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identityrepo.Identity{}, identityrepo.ErrNotFound
		}
		return identityrepo.Identity{}, err
	}
	rec.ID = domain.IdentityID(id.String())
	rec.Role = domain.Role(role)
	rec.CreatedAt = createdAt.UTC()
	rec.UpdatedAt = updatedAt.UTC()
	return rec, nil
}

func collectIdentities(rows pgx.Rows) ([]identityrepo.Identity, error) {
	out := make([]identityrepo.Identity, 0)
	for rows.Next() {
		rec, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
