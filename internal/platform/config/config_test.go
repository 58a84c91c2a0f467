package config

import (
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("JWT_TTL_MINUTES", "")
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("ADMIN_SECRET", "")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.StorageBackend != "memory" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.JWTIssuer != "taxi-dispatch-api" || cfg.JWTTTL != time.Hour {
		t.Fatalf("jwt defaults = %+v", cfg)
	}
	if cfg.HTTPAddress() != ":8080" {
		t.Fatalf("HTTPAddress = %q", cfg.HTTPAddress())
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted empty JWT_SECRET")
	}
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORAGE_BACKEND", "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted postgres backend without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/taxi")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StorageBackend != "postgres" {
		t.Fatalf("backend = %q", cfg.StorageBackend)
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORAGE_BACKEND", "cassandra")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted unknown backend")
	}
}

func TestLoad_AdminPairMustBeComplete(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ADMIN_EMAIL", "admin@example.com")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted ADMIN_EMAIL without ADMIN_SECRET")
	}

	t.Setenv("ADMIN_SECRET", "super secret")
	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoad_TTLOverride(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_TTL_MINUTES", "15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWTTTL != 15*time.Minute {
		t.Fatalf("JWTTTL = %v", cfg.JWTTTL)
	}

	// Garbage falls back to the default rather than failing startup.
	t.Setenv("JWT_TTL_MINUTES", "soon")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWTTTL != time.Hour {
		t.Fatalf("JWTTTL fallback = %v", cfg.JWTTTL)
	}
}
