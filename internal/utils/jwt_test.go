package utils

import (
	"testing"
	"time"

	"shop_system/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("secret", 7*24*time.Hour)

	token, exp, err := issuer.Issue(42, domain.RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), exp, time.Minute)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestVerifyExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := issuer.Issue(1, domain.RoleAdmin)
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("one", time.Hour).Issue(1, domain.RoleSuperAdmin)
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

func TestVerifyMalformed(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	_, err := issuer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	_, err = issuer.Verify("")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrTokenSignatureInvalid)
}

func TestVerifyRequiresSubject(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}
