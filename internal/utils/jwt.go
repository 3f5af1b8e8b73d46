package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type jwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Claims is the verified identity carried by an access token.
type Claims struct {
	UserID uuid.UUID
	Email  string
}

// GenerateToken creates a signed access token for the provided user.
func GenerateToken(secret string, userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	claims := &jwtCustomClaims{
		UserID: userID.String(),
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates signature and expiry and returns the embedded claims.
// A failed parse returns only the error, never partial claims.
func ParseToken(secret, tokenString string) (Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Claims{}, err
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}

	return Claims{UserID: userID, Email: claims.Email}, nil
}
