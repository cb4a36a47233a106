package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/charityledger/internal/domain"
)

// Issuer is the iss claim on tokens minted by this service.
const Issuer = "charityledger"

// Claims represents the JWT claims. The subject is the base58 identity of the principal.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTManager manages JWT token creation and validation
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}
}

// Generate signs a token for identity.
func (m *JWTManager) Generate(identity domain.Identity) (string, error) {
	if identity.IsZero() {
		return "", fmt.Errorf("%w: cannot issue a token for the zero identity", domain.ErrInvalidIdentity)
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.String(),
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Verify verifies a JWT token and returns the claims
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithIssuer(Issuer),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}

// Principal verifies tokenString and resolves its subject to a principal.
func (m *JWTManager) Principal(tokenString string) (domain.Principal, error) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return domain.Principal{}, err
	}

	id, err := domain.ParseIdentity(claims.Subject)
	if err != nil || id.IsZero() {
		return domain.Principal{}, domain.ErrInvalidToken
	}

	return domain.Principal{Identity: id}, nil
}
