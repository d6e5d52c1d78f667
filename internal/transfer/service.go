// Package transfer implements the fund-transfer engine: precondition
// checks in a fixed order followed by an atomic two-row balance move.
package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/moyobank/moyobank/internal/account"
)

var (
	// ErrInvalidAmount rejects zero and negative transfer amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrDestinationNotFound indicates the destination account number does
	// not resolve to an account.
	ErrDestinationNotFound = errors.New("destination account not found")

	// ErrSelfTransfer rejects transfers where the destination is the
	// caller's own account. Controlled by the AllowSelfTransfer policy.
	ErrSelfTransfer = errors.New("cannot transfer to own account")

	// ErrTransactionFailed reports a storage failure during the apply
	// step. The transaction is rolled back; neither leg is applied.
	ErrTransactionFailed = errors.New("transfer transaction failed")
)

// Receipt reports the outcome of a successful transfer.
type Receipt struct {
	Success    bool   `json:"success"`
	NewBalance int64  `json:"new_balance"`
	Message    string `json:"message"`
}

// Service validates and applies balance moves between two accounts.
type Service struct {
	accounts          account.Repository
	allowSelfTransfer bool
}

// NewService builds the transfer engine. allowSelfTransfer permits
// transfers where destination == source, applied as a balance no-op.
func NewService(accounts account.Repository, allowSelfTransfer bool) *Service {
	return &Service{accounts: accounts, allowSelfTransfer: allowSelfTransfer}
}

// Transfer moves amount from the already-authenticated caller to the
// account identified by toAccountNumber. Preconditions are checked in
// order: positive amount, destination exists, destination is not the
// caller (unless allowed), sufficient funds. The funds check here is
// advisory; the authoritative check runs inside the storage transaction.
// The operation is not idempotent: replaying the same request applies it
// again.
func (s *Service) Transfer(ctx context.Context, caller account.Account, toAccountNumber, amount int64) (Receipt, error) {
	if amount <= 0 {
		return Receipt{}, ErrInvalidAmount
	}

	dest, err := s.accounts.GetByAccountNumber(ctx, toAccountNumber)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Receipt{}, ErrDestinationNotFound
		}
		return Receipt{}, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	if dest.ID == caller.ID && !s.allowSelfTransfer {
		return Receipt{}, ErrSelfTransfer
	}

	if caller.Balance < amount {
		return Receipt{}, account.ErrInsufficientFunds
	}

	newBalance, _, err := s.accounts.MoveFunds(ctx, caller.ID, dest.ID, amount)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrInsufficientFunds):
			return Receipt{}, err
		case errors.Is(err, account.ErrNotFound):
			return Receipt{}, ErrDestinationNotFound
		default:
			return Receipt{}, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
		}
	}

	return Receipt{
		Success:    true,
		NewBalance: newBalance,
		Message:    fmt.Sprintf("transferred %d to account %d", amount, toAccountNumber),
	}, nil
}
