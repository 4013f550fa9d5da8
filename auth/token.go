package auth

import (
	"convo-hub/errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "convo-hub"

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates session tokens with a shared HMAC secret.
type TokenIssuer struct {
	secret   []byte
	duration time.Duration
}

func NewTokenIssuer(secret string, duration time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), duration: duration}
}

// GenerateToken creates a signed JWT for a specific user.
func (t *TokenIssuer) GenerateToken(userID, name string) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateToken parses and validates the signature and expiration of a JWT string.
// Every failure is reported as ErrInvalidToken.
func (t *TokenIssuer) ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}
