package account

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no account matches the given identifier.
	ErrNotFound = errors.New("account not found")

	// ErrConflict is the base error for every uniqueness violation. The
	// specific duplicates below all match it via errors.Is.
	ErrConflict = errors.New("account conflict")

	ErrDuplicateUsername      = fmt.Errorf("username already registered: %w", ErrConflict)
	ErrDuplicateEmail         = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrDuplicateAccountNumber = fmt.Errorf("account number already registered: %w", ErrConflict)

	// ErrInvalidInput indicates a missing or out-of-range field on a
	// boundary record.
	ErrInvalidInput = errors.New("invalid account input")

	// ErrInsufficientFunds occurs when the source account lacks the balance
	// to cover a requested funds move.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
