package auth

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeep-jaiswar/core/internal/types"
)

func newTokenService(ttl time.Duration) *Service {
	return NewService(nil, "core-test", []byte("test-secret"), ttl, decimal.Zero, zerolog.Nop())
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTokenService(time.Hour)

	token, err := svc.signToken("acc-1", types.RoleAdmin)
	require.NoError(t, err)

	id, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", id.AccountID)
	assert.Equal(t, types.RoleAdmin, id.Role)
}

func TestParseToken_UnknownRoleDowngradesToTrader(t *testing.T) {
	svc := newTokenService(time.Hour)

	token, err := svc.signToken("acc-1", types.Role("SUPERUSER"))
	require.NoError(t, err)

	id, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, types.RoleTrader, id.Role)
}

func TestParseToken_RejectsExpired(t *testing.T) {
	svc := newTokenService(-time.Minute)

	token, err := svc.signToken("acc-1", types.RoleTrader)
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_RejectsWrongSecret(t *testing.T) {
	token, err := newTokenService(time.Hour).signToken("acc-1", types.RoleTrader)
	require.NoError(t, err)

	other := NewService(nil, "core-test", []byte("different-secret"), time.Hour, decimal.Zero, zerolog.Nop())
	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_RejectsWrongIssuer(t *testing.T) {
	stranger := NewService(nil, "someone-else", []byte("test-secret"), time.Hour, decimal.Zero, zerolog.Nop())
	token, err := stranger.signToken("acc-1", types.RoleTrader)
	require.NoError(t, err)

	_, err = newTokenService(time.Hour).ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_RejectsGarbage(t *testing.T) {
	_, err := newTokenService(time.Hour).ParseToken("not-a-token")
	assert.Error(t, err)
}
