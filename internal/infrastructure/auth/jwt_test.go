package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/auth"
)

var donor = domain.DeriveAddress(domain.Identity{7}, "donor")

func TestJWTManagerGenerateAndPrincipal(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("super-secret", time.Minute)

	token, err := manager.Generate(donor)
	require.NoError(t, err)

	claims, err := manager.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, donor.String(), claims.Subject)
	assert.Equal(t, auth.Issuer, claims.Issuer)

	p, err := manager.Principal(token)
	require.NoError(t, err)
	assert.Equal(t, donor, p.Identity)
}

func TestJWTManagerRejectsZeroIdentity(t *testing.T) {
	t.Parallel()

	_, err := auth.NewJWTManager("secret", time.Minute).Generate(domain.Identity{})
	assert.ErrorIs(t, err, domain.ErrInvalidIdentity)
}

func TestJWTManagerVerifyErrors(t *testing.T) {
	t.Parallel()

	manager := auth.NewJWTManager("secret", time.Minute)

	expiredClaims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   donor.String(),
			Issuer:    auth.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
		},
	}

	expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = manager.Verify(expiredToken)
	assert.ErrorIs(t, err, domain.ErrExpiredToken)

	otherManager := auth.NewJWTManager("other-secret", time.Minute)
	_, err = otherManager.Verify(expiredToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = manager.Verify("not-a-token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestJWTManagerPrincipalRejectsBadSubject(t *testing.T) {
	t.Parallel()

	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-base58-0OIl",
			Issuer:    auth.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = auth.NewJWTManager("secret", time.Minute).Principal(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestJWTManagerRejectsForeignIssuer(t *testing.T) {
	t.Parallel()

	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   donor.String(),
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = auth.NewJWTManager("secret", time.Minute).Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
