package auth

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dormhub/dormhub/internal/actor"
	"github.com/dormhub/dormhub/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	mgr, err := NewTokenManager(config.Config{AuthJWTSecret: "supersecret"})
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	admin := actor.Actor{ID: node.Generate(), Role: actor.RoleAdmin}

	raw, err := mgr.Issue(admin, time.Hour)
	require.NoError(t, err)

	parsed, err := mgr.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, admin, parsed)
}

func TestParseRejections(t *testing.T) {
	mgr, err := NewTokenManager(config.Config{AuthJWTSecret: "supersecret"})
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	act := actor.Actor{ID: node.Generate(), Role: actor.RoleUser}

	t.Run("garbage", func(t *testing.T) {
		_, err := mgr.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenManager(config.Config{AuthJWTSecret: "different"})
		require.NoError(t, err)
		raw, err := other.Issue(act, time.Hour)
		require.NoError(t, err)
		_, err = mgr.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		raw, err := mgr.Issue(act, -time.Minute)
		require.NoError(t, err)
		_, err = mgr.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  act.ID.String(),
			"role": "SUPERUSER",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		raw, err := token.SignedString([]byte("supersecret"))
		require.NoError(t, err)
		_, err = mgr.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"role": string(actor.RoleUser),
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		raw, err := token.SignedString([]byte("supersecret"))
		require.NoError(t, err)
		_, err = mgr.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager(config.Config{})
	assert.ErrorIs(t, err, ErrMissingSecret)
}
