// Package auth adapts the campus identity service's bearer tokens into a
// Principal. Who may teach what, registration and login all live outside
// this service; here a token is simply parsed and its role trusted.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles understood by the route guards.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Principal is the already-authenticated caller: a stable identifier plus a
// role resolved upstream.
type Principal struct {
	ID   string
	Role string
}

// Claims represents JWT payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token for the given principal. Used by deployment tooling
// and tests; production tokens come from the identity service.
func Issue(p Principal, issuer, key string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}

// Parse validates a token and returns the principal it carries.
func Parse(tokenStr, key, issuer string) (Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Principal{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Principal{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Principal{}, errors.New("issuer mismatch")
	}
	if claims.Subject == "" || claims.Role == "" {
		return Principal{}, errors.New("missing subject or role")
	}
	return Principal{ID: claims.Subject, Role: claims.Role}, nil
}
