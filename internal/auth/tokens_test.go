package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	t.Run("issued token round-trips its claims", func(t *testing.T) {
		token, err := issuer.Issue("user-123", "reader@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := issuer.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.Subject)
		assert.Equal(t, "reader@example.com", claims.Email)
	})

	t.Run("expired token", func(t *testing.T) {
		// Expiry far enough in the past to defeat the validation leeway.
		expired := NewTokenIssuer("test-secret", -2*time.Minute)
		token, err := expired.Issue("user-123", "reader@example.com")
		require.NoError(t, err)

		_, err = expired.Validate(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("token signed with a different secret", func(t *testing.T) {
		other := NewTokenIssuer("other-secret", time.Hour)
		token, err := other.Issue("user-123", "reader@example.com")
		require.NoError(t, err)

		_, err = issuer.Validate(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := issuer.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := issuer.Validate("")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}
