package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestHasPgCode(t *testing.T) {
	t.Parallel()

	unique := &pgconn.PgError{Code: pgUniqueViolation}
	fk := &pgconn.PgError{Code: pgForeignKeyViolation}

	tests := []struct {
		name       string
		err        error
		wantUnique bool
		wantFK     bool
	}{
		{"nil", nil, false, false},
		{"plain error", errors.New("boom"), false, false},
		{"unique", unique, true, false},
		{"wrapped unique", fmt.Errorf("insert: %w", unique), true, false},
		{"foreign key", fk, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.wantUnique {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.wantUnique)
			}
			if got := isForeignKeyViolation(tt.err); got != tt.wantFK {
				t.Errorf("isForeignKeyViolation() = %v, want %v", got, tt.wantFK)
			}
		})
	}
}

func TestAuthorizationFilter_EffectiveLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultListLimit},
		{-5, DefaultListLimit},
		{10, 10},
		{DefaultListLimit + 1, DefaultListLimit},
	}

	for _, tt := range tests {
		if got := (AuthorizationFilter{Limit: tt.limit}).EffectiveLimit(); got != tt.want {
			t.Errorf("EffectiveLimit(%d) = %d, want %d", tt.limit, got, tt.want)
		}
	}
}
