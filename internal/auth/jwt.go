package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrEmptyToken is returned when no bearer token was presented.
	ErrEmptyToken = errors.New("auth: empty token")
	// ErrMissingSubject is returned when a token carries no subject.
	ErrMissingSubject = errors.New("auth: missing subject")
)

// Claims represents JWT claims issued by the identity provider.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity converts claims into a request identity.
func (c *Claims) Identity() Identity {
	return Identity{
		Subject: c.Subject,
		Name:    strings.TrimSpace(c.Name),
		Role:    strings.ToLower(strings.TrimSpace(c.Role)),
	}
}

// ParseJWT validates a JWT and returns claims.
func ParseJWT(tokenString string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrEmptyToken
	}
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret")
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("auth: invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("auth: invalid token")
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
		return nil, errors.New("auth: token expired")
	}
	return claims, nil
}

// SignJWT issues an HS256 token. It is used by tooling and tests; production
// tokens come from the identity provider.
func SignJWT(claims Claims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("auth: empty secret")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
