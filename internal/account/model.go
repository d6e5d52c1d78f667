package account

import "time"

// Account is the single persisted record type: a user identity together
// with its ledger balance. Username, email and account number are each
// unique across all accounts. Balance is only ever mutated through
// Repository.MoveFunds or set at creation time.
type Account struct {
	ID             int64
	Username       string
	Email          string
	FullName       string
	AccountNumber  int64
	Balance        int64
	HashedPassword string
	Disabled       bool
	CreatedAt      time.Time
}
