package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"condo-ballots/internal/domain/ballot"
)

func TestStorageErrClassification(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		transient bool
	}{
		{"deadline", context.DeadlineExceeded, true},
		{"bad conn", fmt.Errorf("exec: %w", driver.ErrBadConn), true},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"check violation", &pgconn.PgError{Code: "23514"}, false},
		{"plain", errors.New("syntax error"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := errors.Is(storageErr(tc.err), ballot.ErrUnavailable)
			if got != tc.transient {
				t.Fatalf("storageErr(%v) unavailable = %v, want %v", tc.err, got, tc.transient)
			}
		})
	}
	if storageErr(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})) {
		t.Fatal("23505 should be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation is not a unique violation")
	}
}
