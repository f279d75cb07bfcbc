package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/aula/internal/lms"
)

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, jwt.MapClaims{
		"sub":      "ana@example.com",
		"user_id":  12,
		"role":     "teacher",
		"is_admin": true,
		"exp":      exp.Unix(),
	})

	c, err := ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", c.Subject)
	assert.Equal(t, "ana@example.com", c.Email)
	assert.Equal(t, int64(12), c.UserID)
	assert.Equal(t, "teacher", c.Role)
	assert.True(t, c.IsAdmin)
	assert.True(t, c.ExpiresAt.Equal(exp))
	assert.False(t, c.Expired(time.Now()))
	assert.True(t, c.Expired(exp.Add(time.Second)))
}

func TestParseClaims_StringUserIDAndNoExp(t *testing.T) {
	c, err := ParseClaims(signToken(t, jwt.MapClaims{"sub": "42", "user_id": "42"}))
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.UserID)
	assert.Empty(t, c.Email)
	assert.False(t, c.Expired(time.Now()))
}

func TestParseClaims_Garbage(t *testing.T) {
	_, err := ParseClaims("opaque-token")
	require.Error(t, err)
}

func TestClaimsFillKeepsServerFields(t *testing.T) {
	c := Claims{Email: "claims@example.com", UserID: 5, Role: "student"}
	u := c.fill(lms.UserSummary{ID: 9, Role: "teacher"})
	assert.Equal(t, int64(9), u.ID)
	assert.Equal(t, "teacher", u.Role)
	assert.Equal(t, "claims@example.com", u.Email)
}
