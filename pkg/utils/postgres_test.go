package utils

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505"})
	if !IsUniqueViolation(dup) {
		t.Fatalf("expected unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(errors.New("boom")) {
		t.Fatalf("plain error is not a unique violation")
	}
}

func TestPostgresPoolDefaults(t *testing.T) {
	got := PostgresPoolConfig{MaxOpenConns: 5}.withDefaults()
	if got.MaxOpenConns != 5 {
		t.Fatalf("explicit value overwritten: %d", got.MaxOpenConns)
	}
	if got.MaxIdleConns != 25 || got.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected defaults: %+v", got)
	}
}

func TestIsUUID(t *testing.T) {
	if !IsUUID("8f14e45f-ceea-467f-a0e6-2b3a1f2c9d10") {
		t.Fatalf("expected valid uuid")
	}
	for _, s := range []string{"", "abc", "123", "8f14e45f-ceea-467f-a0e6"} {
		if IsUUID(s) {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}
