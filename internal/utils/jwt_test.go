package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailor-app/internal/models"
)

var admin = models.Principal{ID: models.AdminID, Email: "admin@tailor.shop", Name: "Admin", Role: models.RoleAdmin}

func TestJWTUtil_RoundTrip(t *testing.T) {
	j := NewJWTUtil("secret", time.Hour)

	token, issued, err := j.GenerateToken(admin)
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, admin, claims.Principal())
	assert.Equal(t, issued.ID, claims.ID)
}

func TestJWTUtil_WrongSecret(t *testing.T) {
	token, _, err := NewJWTUtil("secret", time.Hour).GenerateToken(admin)
	require.NoError(t, err)

	_, err = NewJWTUtil("other", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTUtil_Expired(t *testing.T) {
	j := NewJWTUtil("secret", time.Minute)
	j.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := j.GenerateToken(admin)
	require.NoError(t, err)

	_, err = j.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTUtil_RejectsNoneAlgorithm(t *testing.T) {
	claims := &SessionClaims{Role: models.RoleAdmin}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTUtil("secret", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}
