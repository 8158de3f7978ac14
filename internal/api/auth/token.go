package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/courtsidehq/courtside/internal/api/authz"
)

const tokenTTL = 24 * time.Hour

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a bearer token carrying the user's id and role.
func IssueToken(secret string, user *authz.AuthUser) (string, error) {
	claims := sessionClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a bearer token and returns the identity it carries.
func ParseToken(secret, tokenString string) (*authz.AuthUser, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("invalid token subject")
	}
	role, ok := authz.ParseRole(claims.Role)
	if !ok {
		return nil, fmt.Errorf("invalid token role %q", claims.Role)
	}

	return &authz.AuthUser{ID: userID, Role: role}, nil
}
