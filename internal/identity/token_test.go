package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec(ttl time.Duration) *TokenCodec {
	return NewTokenCodec(TokenConfig{Secret: []byte("test-secret"), Issuer: "nutricoach-test", TTL: ttl})
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := testCodec(time.Hour)

	raw, err := codec.Mint(42, "coach@example.com", RoleDietitianTeam)
	require.NoError(t, err)

	claims, err := codec.Verify(raw)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "coach@example.com", claims.Email)
	assert.Equal(t, RoleDietitianTeam.String(), claims.Role)
}

func TestTokenCodec_Expired(t *testing.T) {
	codec := testCodec(-time.Minute)

	raw, err := codec.Mint(7, "old@example.com", RoleClient)
	require.NoError(t, err)

	_, err = codec.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_Tampered(t *testing.T) {
	codec := testCodec(time.Hour)

	raw, err := codec.Mint(7, "u@example.com", RoleClient)
	require.NoError(t, err)

	tampered := raw[:len(raw)-2] + "xx"
	_, err = codec.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	raw, err := testCodec(time.Hour).Mint(7, "u@example.com", RoleClient)
	require.NoError(t, err)

	other := NewTokenCodec(TokenConfig{Secret: []byte("other-secret"), TTL: time.Hour})
	_, err = other.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_UnknownRoleClaim(t *testing.T) {
	codec := testCodec(time.Hour)

	raw, err := codec.Mint(7, "u@example.com", Role("superuser"))
	require.NoError(t, err)

	_, err = codec.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"client", "dietitian_team_member", "dietitian", "admin", "superadmin"} {
		r, err := ParseRole(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, r.String())
	}
	_, err := ParseRole("root")
	assert.Error(t, err)
}

func TestRoleIn(t *testing.T) {
	assert.True(t, RoleAdmin.In([]Role{RoleAdmin, RoleSuperadmin}))
	assert.False(t, RoleDietitianTeam.In([]Role{RoleAdmin, RoleSuperadmin}))
	assert.False(t, RoleClient.In(nil))
}
