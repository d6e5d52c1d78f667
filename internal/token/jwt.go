// Package token issues and validates the signed bearer tokens that gate
// every API operation. Tokens are stateless HS256 JWTs carrying the account
// username as subject; signature and expiry are the only validity checks.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired indicates the token was well-formed and correctly signed
	// but its expiry timestamp has passed.
	ErrExpired = errors.New("token expired")

	// ErrInvalid covers every other validation failure: bad signature,
	// malformed token, wrong algorithm, missing subject.
	ErrInvalid = errors.New("invalid token")
)

// Manager signs and verifies access tokens with a process-wide secret.
// Rotating the secret invalidates all outstanding tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager builds a token manager with the given signing secret and
// default token lifetime.
func NewManager(secret []byte, ttl time.Duration) *Manager {
	return &Manager{secret: secret, ttl: ttl}
}

// Issue signs a token for the given subject using the default lifetime.
func (m *Manager) Issue(subject string) (string, error) {
	return m.IssueWithTTL(subject, m.ttl)
}

// IssueWithTTL signs a token for the given subject expiring after ttl.
func (m *Manager) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Subject verifies the token signature and expiry and returns the embedded
// subject. Expired and otherwise-invalid tokens yield distinct sentinel
// errors; callers must surface both identically to clients.
func (m *Manager) Subject(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", ErrInvalid
	}

	if !tok.Valid || claims.Subject == "" {
		return "", ErrInvalid
	}

	return claims.Subject, nil
}

// TTL returns the default token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
