package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardvault/gateway/internal/model"
)

func TestIdentity_SignupThenLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	acc, err := env.identity.Signup(ctx, Credentials{Email: " Merchant@X.com ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "merchant@x.com", acc.Email)
	assert.Equal(t, model.RoleMerchant, acc.Role)
	assert.True(t, strings.HasPrefix(acc.PasswordHash, "$argon2id$"))

	res, err := env.identity.Login(ctx, Credentials{Email: "merchant@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, model.RoleMerchant, res.Account.Role)

	id, err := env.sessions.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "merchant@x.com", id.Email)
	assert.Equal(t, model.RoleMerchant, id.Role)

	assert.EqualValues(t, 1, env.recorder.Snapshot().Signups)
}

func TestIdentity_OwnerRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	acc, err := env.identity.Signup(ctx, Credentials{Email: "OWNER@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, acc.Role)

	res, err := env.identity.Login(ctx, Credentials{Email: "owner@x.com", Password: "pw"})
	require.NoError(t, err)
	id, err := env.sessions.Verify(res.Token)
	require.NoError(t, err)
	assert.True(t, id.IsOwner())
}

func TestIdentity_SignupErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.identity.Signup(ctx, Credentials{Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   Credentials
		want error
	}{
		{"missing email", Credentials{Password: "pw"}, ErrMissingFields},
		{"missing password", Credentials{Email: "b@x.com"}, ErrMissingFields},
		{"blank email", Credentials{Email: "   ", Password: "pw"}, ErrMissingFields},
		{"bad email", Credentials{Email: "not-an-email", Password: "pw"}, ErrInvalidEmail},
		{"duplicate", Credentials{Email: "A@x.com", Password: "pw2"}, ErrEmailExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.identity.Signup(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIdentity_LoginErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.identity.Signup(ctx, Credentials{Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = env.identity.Login(ctx, Credentials{Email: "nobody@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = env.identity.Login(ctx, Credentials{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, KindAuth, KindOf(err))

	_, err = env.identity.Login(ctx, Credentials{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrMissingFields)

	assert.EqualValues(t, 2, env.recorder.Snapshot().LoginsFailed)
}

func TestIdentity_EnsureOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.identity.EnsureOwner(ctx, "initial")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.identity.EnsureOwner(ctx, "initial")
	require.NoError(t, err)
	assert.False(t, created, "second seeding is a no-op")

	acc, err := env.store.GetAccountByEmail(ctx, "owner@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, acc.Role)

	_, err = env.identity.Login(ctx, Credentials{Email: "owner@x.com", Password: "initial"})
	require.NoError(t, err)
}

func TestIdentity_EnsureOwnerWithoutOwnerEmail(t *testing.T) {
	env := newTestEnv(t)
	svc := NewIdentityService(env.store, env.sessions, "", nil, nil).WithHashParams(fastHash)

	created, err := svc.EnsureOwner(context.Background(), "pw")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, model.RoleMerchant, svc.RoleFor("owner@x.com"))
}
