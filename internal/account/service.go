package account

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const defaultListLimit = 100

// Service implements the account directory: CRUD over account records with
// uniqueness enforcement and password hashing at the creation boundary.
type Service struct {
	repo Repository
}

// NewService creates a new account directory service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput captures the fields accepted when opening an account. The
// plaintext password is hashed before anything is persisted.
type CreateInput struct {
	Username      string
	Email         string
	FullName      string
	AccountNumber int64
	Balance       int64
	Password      string
}

// UpdateInput is a full replace of the mutable account fields. Balance and
// password are deliberately absent: balance moves only through transfers.
type UpdateInput struct {
	Username      string
	Email         string
	FullName      string
	AccountNumber int64
}

// Create validates the input, rejects duplicates in username, email,
// account-number order (first match wins) and persists the account with a
// bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, input CreateInput) (Account, error) {
	if err := input.validate(); err != nil {
		return Account{}, err
	}

	if err := s.checkDuplicates(ctx, input.Username, input.Email, input.AccountNumber, 0); err != nil {
		return Account{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	return s.repo.Create(ctx, Account{
		Username:       input.Username,
		Email:          input.Email,
		FullName:       input.FullName,
		AccountNumber:  input.AccountNumber,
		Balance:        input.Balance,
		HashedPassword: string(hash),
	})
}

// Get fetches an account by id.
func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns accounts in insertion order. Negative offsets are clamped to
// zero and non-positive limits fall back to the default page size.
func (s *Service) List(ctx context.Context, offset, limit int) ([]Account, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repo.List(ctx, offset, limit)
}

// Update replaces the mutable fields of the account. The stored balance,
// password and disabled flag are untouched.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Account, error) {
	if input.Username == "" || input.Email == "" {
		return Account{}, fmt.Errorf("%w: username and email are required", ErrInvalidInput)
	}
	if input.AccountNumber <= 0 {
		return Account{}, fmt.Errorf("%w: account number must be positive", ErrInvalidInput)
	}

	if err := s.checkDuplicates(ctx, input.Username, input.Email, input.AccountNumber, id); err != nil {
		return Account{}, err
	}

	return s.repo.Update(ctx, Account{
		ID:            id,
		Username:      input.Username,
		Email:         input.Email,
		FullName:      input.FullName,
		AccountNumber: input.AccountNumber,
	})
}

// Delete removes the account and returns the deleted record.
func (s *Service) Delete(ctx context.Context, id int64) (Account, error) {
	return s.repo.Delete(ctx, id)
}

// checkDuplicates reports the first uniqueness violation in username,
// email, account-number order, ignoring the record identified by selfID.
// The store's own constraints remain the authoritative backstop for races.
func (s *Service) checkDuplicates(ctx context.Context, username, email string, accountNumber, selfID int64) error {
	if existing, err := s.repo.GetByUsername(ctx, username); err == nil {
		if existing.ID != selfID {
			return ErrDuplicateUsername
		}
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if existing, err := s.repo.GetByEmail(ctx, email); err == nil {
		if existing.ID != selfID {
			return ErrDuplicateEmail
		}
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if existing, err := s.repo.GetByAccountNumber(ctx, accountNumber); err == nil {
		if existing.ID != selfID {
			return ErrDuplicateAccountNumber
		}
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	return nil
}

func (in CreateInput) validate() error {
	if in.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if in.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if in.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if in.AccountNumber <= 0 {
		return fmt.Errorf("%w: account number must be positive", ErrInvalidInput)
	}
	if in.Balance < 0 {
		return fmt.Errorf("%w: balance cannot be negative", ErrInvalidInput)
	}
	return nil
}
