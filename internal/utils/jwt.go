package utils

import (
	"errors" // Error classification
	"time"   // Time for token expiration

	"shop_system/internal/domain" // Role type

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// Token verification failures
var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
)

// JWT Claims
type Claims struct {
	UserID               uint        `json:"user_id"` // Custom claim for user ID
	Role                 domain.Role `json:"role"`    // Role at issuance, informational only
	jwt.RegisteredClaims             // Standard JWT claims
}

// TokenIssuer signs and verifies session tokens with a shared secret
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer for HS256 tokens living ttl
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens
func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Issue creates a JWT token for a given user
func (i *TokenIssuer) Issue(userID uint, role domain.Role) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp), // Token expiry
			IssuedAt:  jwt.NewNumericDate(now), // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	signed, err := token.SignedString(i.secret)                // Sign the token with the secret
	return signed, exp, err
}

// Verify parses and validates a JWT token string
func (i *TokenIssuer) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return i.secret, nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, classify(err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignatureInvalid
	default:
		return ErrTokenMalformed
	}
}
