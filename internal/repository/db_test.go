package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapErr(t *testing.T) {
	other := errors.New("boom")
	fkViolation := &pgconn.PgError{Code: "23503"}
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, ErrDuplicate},
		{"other pg error", fkViolation, fkViolation},
		{"passthrough", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapErr(tt.in); !errors.Is(got, tt.want) {
				t.Fatalf("mapErr(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if mapErr(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestRequireRow(t *testing.T) {
	if err := requireRow(pgconn.NewCommandTag("UPDATE 0"), nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := requireRow(pgconn.NewCommandTag("DELETE 1"), nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	boom := errors.New("boom")
	if err := requireRow(pgconn.CommandTag{}, boom); !errors.Is(err, boom) {
		t.Fatalf("expected passthrough error, got %v", err)
	}
}
