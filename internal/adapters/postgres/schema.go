package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL for all collections the adapters use. It is idempotent
// and applied at startup (and by the contract-test harness).
const Schema = `
CREATE TABLE IF NOT EXISTS identities (
	id              UUID PRIMARY KEY,
	role            TEXT NOT NULL,
	name            TEXT NOT NULL,
	email           TEXT NOT NULL,
	credential_hash TEXT NOT NULL,
	blocked         BOOLEAN NOT NULL DEFAULT FALSE,
	available       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	CONSTRAINT identities_email_unique UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS rides (
	id           UUID PRIMARY KEY,
	passenger_id UUID NOT NULL,
	driver_id    UUID,
	pickup       TEXT NOT NULL,
	dropoff      TEXT NOT NULL,
	fare         DOUBLE PRECISION NOT NULL,
	status       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	accepted_at  TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS rides_passenger_idx ON rides (passenger_id);
CREATE INDEX IF NOT EXISTS rides_driver_idx ON rides (driver_id);

CREATE TABLE IF NOT EXISTS token_revocations (
	token      TEXT PRIMARY KEY,
	revoked_at TIMESTAMPTZ NOT NULL
);
`

// Migrate applies the schema to the connected database.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}
