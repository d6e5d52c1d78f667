package account

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	accounts map[int64]Account
	order    []int64
}

// NewMemoryRepository builds an in-memory account store. It backs the
// service in development mode and in tests; MoveFunds runs under the store
// lock so the same atomicity guarantees hold as with the Postgres backend.
func NewMemoryRepository() Repository {
	return &memoryRepository{accounts: make(map[int64]Account)}
}

func (r *memoryRepository) Create(_ context.Context, acc Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		switch {
		case existing.Username == acc.Username:
			return Account{}, ErrDuplicateUsername
		case existing.Email == acc.Email:
			return Account{}, ErrDuplicateEmail
		case existing.AccountNumber == acc.AccountNumber:
			return Account{}, ErrDuplicateAccountNumber
		}
	}

	r.nextID++
	acc.ID = r.nextID
	acc.CreatedAt = time.Now().UTC()
	r.accounts[acc.ID] = acc
	r.order = append(r.order, acc.ID)
	return acc, nil
}

func (r *memoryRepository) GetByID(_ context.Context, id int64) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acc, nil
}

func (r *memoryRepository) GetByUsername(_ context.Context, username string) (Account, error) {
	return r.find(func(acc Account) bool { return acc.Username == username })
}

func (r *memoryRepository) GetByEmail(_ context.Context, email string) (Account, error) {
	return r.find(func(acc Account) bool { return acc.Email == email })
}

func (r *memoryRepository) GetByAccountNumber(_ context.Context, number int64) (Account, error) {
	return r.find(func(acc Account) bool { return acc.AccountNumber == number })
}

func (r *memoryRepository) List(_ context.Context, offset, limit int) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if offset >= len(r.order) {
		return []Account{}, nil
	}
	end := offset + limit
	if end > len(r.order) {
		end = len(r.order)
	}

	accounts := make([]Account, 0, end-offset)
	for _, id := range r.order[offset:end] {
		accounts = append(accounts, r.accounts[id])
	}
	return accounts, nil
}

func (r *memoryRepository) Update(_ context.Context, acc Account) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[acc.ID]
	if !ok {
		return Account{}, ErrNotFound
	}

	for id, other := range r.accounts {
		if id == acc.ID {
			continue
		}
		switch {
		case other.Username == acc.Username:
			return Account{}, ErrDuplicateUsername
		case other.Email == acc.Email:
			return Account{}, ErrDuplicateEmail
		case other.AccountNumber == acc.AccountNumber:
			return Account{}, ErrDuplicateAccountNumber
		}
	}

	stored.Username = acc.Username
	stored.Email = acc.Email
	stored.FullName = acc.FullName
	stored.AccountNumber = acc.AccountNumber
	r.accounts[acc.ID] = stored
	return stored, nil
}

func (r *memoryRepository) Delete(_ context.Context, id int64) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	delete(r.accounts, id)
	for i, ordered := range r.order {
		if ordered == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return acc, nil
}

func (r *memoryRepository) MoveFunds(_ context.Context, fromID, toID, amount int64) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	from, ok := r.accounts[fromID]
	if !ok {
		return 0, 0, ErrNotFound
	}
	to, ok := r.accounts[toID]
	if !ok {
		return 0, 0, ErrNotFound
	}

	if from.Balance < amount {
		return 0, 0, ErrInsufficientFunds
	}

	if fromID == toID {
		return from.Balance, from.Balance, nil
	}

	from.Balance -= amount
	to.Balance += amount
	r.accounts[fromID] = from
	r.accounts[toID] = to
	return from.Balance, to.Balance, nil
}

func (r *memoryRepository) find(match func(Account) bool) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if acc := r.accounts[id]; match(acc) {
			return acc, nil
		}
	}
	return Account{}, ErrNotFound
}
