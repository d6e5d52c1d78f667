// Package auth implements the authentication gate: credential verification
// at login and caller resolution from bearer tokens on every protected
// operation.
package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/moyobank/moyobank/internal/account"
	"github.com/moyobank/moyobank/internal/token"
)

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password. The two cases are deliberately indistinguishable to the
	// caller.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	// ErrUnauthorized covers every token failure: missing, malformed,
	// expired, bad signature, or a subject that no longer resolves to an
	// account. All are surfaced with the same generic message.
	ErrUnauthorized = errors.New("could not validate credentials")

	// ErrInactiveAccount indicates a valid token for a disabled account.
	// Unlike ErrUnauthorized it maps to a distinct status.
	ErrInactiveAccount = errors.New("inactive account")
)

// Service resolves callers from credentials or bearer tokens.
type Service struct {
	accounts account.Repository
	tokens   *token.Manager
}

// NewService builds the auth guard over an account store and token manager.
func NewService(accounts account.Repository, tokens *token.Manager) *Service {
	return &Service{accounts: accounts, tokens: tokens}
}

// Authenticate verifies a username/password pair and returns the matching
// account. Lookup and verification failures collapse into
// ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (account.Account, error) {
	acc, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return account.Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.HashedPassword), []byte(password)); err != nil {
		return account.Account{}, ErrInvalidCredentials
	}
	return acc, nil
}

// CurrentUser resolves the caller from a bearer token: validates the token,
// looks up the subject, and rejects disabled accounts. A token whose
// subject no longer exists is treated like any other invalid token.
func (s *Service) CurrentUser(ctx context.Context, bearer string) (account.Account, error) {
	subject, err := s.tokens.Subject(bearer)
	if err != nil {
		return account.Account{}, ErrUnauthorized
	}
	acc, err := s.accounts.GetByUsername(ctx, subject)
	if err != nil {
		return account.Account{}, ErrUnauthorized
	}
	if acc.Disabled {
		return account.Account{}, ErrInactiveAccount
	}
	return acc, nil
}
