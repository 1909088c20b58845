// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/cardvault/gateway/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 730211

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops and recreates the gateway tables from the migration files.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	for _, step := range []struct{ name, file string }{
		{"down", "000001_init.down.sql"},
		{"up", "000001_init.up.sql"},
	} {
		sql, err := os.ReadFile(filepath.Join(root, "migrations", step.file))
		if err != nil {
			return fmt.Errorf("read %s migration: %w", step.name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s migration: %w", step.name, err)
		}
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestCardToken creates a vaulted visa token with sensible defaults.
func NewTestCardToken(t testing.TB) *model.CardToken {
	t.Helper()
	return &model.CardToken{
		Token:       UniqueID("tok"),
		Last4:       "1111",
		Brand:       model.BrandVisa,
		ExpiryMonth: 12,
		ExpiryYear:  2030,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestAuthorization creates an open authorization against token.
func NewTestAuthorization(t testing.TB, token, ownerEmail string) *model.Authorization {
	t.Helper()
	return &model.Authorization{
		ID:         UniqueID("auth"),
		Amount:     1000,
		Token:      token,
		OwnerEmail: ownerEmail,
		Fee:        59,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestAccount creates a merchant account with a placeholder hash.
func NewTestAccount(t testing.TB, email string) *model.Account {
	t.Helper()
	return &model.Account{
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		Role:         model.RoleMerchant,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}
