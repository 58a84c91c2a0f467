package revocationrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a Postgres implementation of revocationrepo.Store.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Add(ctx context.Context, token string, revokedAt time.Time) error {
	// First revocation wins; re-revoking is a no-op.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO token_revocations (token, revoked_at)
		VALUES ($1, $2)
		ON CONFLICT (token) DO NOTHING
	`, token, revokedAt.UTC())
	return err
}

func (s *Store) Contains(ctx context.Context, token string) (bool, error) {
	var revoked bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM token_revocations WHERE token = $1)
	`, token).Scan(&revoked)
	return revoked, err
}
