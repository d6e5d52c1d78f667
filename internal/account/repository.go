package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists accounts. Implementations must enforce the
// username/email/account-number uniqueness invariants and provide an atomic
// MoveFunds primitive: both balance mutations apply or neither does, and no
// concurrent caller observes a partially-applied move.
type Repository interface {
	Create(ctx context.Context, acc Account) (Account, error)
	GetByID(ctx context.Context, id int64) (Account, error)
	GetByUsername(ctx context.Context, username string) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByAccountNumber(ctx context.Context, number int64) (Account, error)
	List(ctx context.Context, offset, limit int) ([]Account, error)
	// Update replaces the mutable fields (username, email, full name,
	// account number) of the stored record. Balance, password and disabled
	// flag are never touched.
	Update(ctx context.Context, acc Account) (Account, error)
	Delete(ctx context.Context, id int64) (Account, error)
	// MoveFunds debits fromID and credits toID by amount in a single
	// transactional unit, returning the new balances. Fails with
	// ErrInsufficientFunds when the source balance cannot cover the amount
	// and ErrNotFound when either row is missing.
	MoveFunds(ctx context.Context, fromID, toID, amount int64) (int64, int64, error)
}

const accountColumns = `id, username, email, account_number, full_name, balance, hashed_password, disabled, created_at`

// PostgresRepository implements Repository on top of PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE accounts (
//	    id              BIGSERIAL PRIMARY KEY,
//	    username        TEXT        NOT NULL UNIQUE,
//	    email           TEXT        NOT NULL UNIQUE,
//	    account_number  BIGINT      NOT NULL UNIQUE,
//	    full_name       TEXT        NOT NULL DEFAULT '',
//	    balance         BIGINT      NOT NULL DEFAULT 0 CHECK (balance >= 0),
//	    hashed_password TEXT        NOT NULL,
//	    disabled        BOOLEAN     NOT NULL DEFAULT FALSE,
//	    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account and returns it with its assigned id. The
// table's UNIQUE constraints backstop the service-level duplicate checks;
// a violation surfaces as the matching duplicate error.
func (r *PostgresRepository) Create(ctx context.Context, acc Account) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (username, email, account_number, full_name, balance, hashed_password, disabled)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at`,
		acc.Username, acc.Email, acc.AccountNumber, acc.FullName, acc.Balance, acc.HashedPassword, acc.Disabled)

	var createdAt time.Time
	if err := row.Scan(&acc.ID, &createdAt); err != nil {
		return Account{}, mapUniqueViolation(err)
	}
	acc.CreatedAt = createdAt.UTC()
	return acc, nil
}

// GetByID fetches an account by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByUsername fetches an account by its unique username.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
}

// GetByEmail fetches an account by its unique email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

// GetByAccountNumber fetches an account by its unique account number.
func (r *PostgresRepository) GetByAccountNumber(ctx context.Context, number int64) (Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, number)
}

// List returns accounts in insertion (id) order with offset/limit paging.
func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// Update replaces the mutable fields of the stored record.
func (r *PostgresRepository) Update(ctx context.Context, acc Account) (Account, error) {
	row := r.db.QueryRow(ctx, `UPDATE accounts
        SET username = $1, email = $2, full_name = $3, account_number = $4
        WHERE id = $5
        RETURNING `+accountColumns,
		acc.Username, acc.Email, acc.FullName, acc.AccountNumber, acc.ID)
	updated, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, mapUniqueViolation(err)
	}
	return updated, nil
}

// Delete removes the account and returns the deleted record.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (Account, error) {
	row := r.db.QueryRow(ctx, `DELETE FROM accounts WHERE id = $1 RETURNING `+accountColumns, id)
	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return acc, nil
}

// MoveFunds applies the balance move inside one transaction. Row locks are
// acquired in ascending id order so two mirror-image transfers cannot
// deadlock, and the funds check runs against the locked source row so
// concurrent transfers sharing an account cannot both read a stale balance.
func (r *PostgresRepository) MoveFunds(ctx context.Context, fromID, toID, amount int64) (int64, int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	balances := map[int64]int64{}
	for _, id := range lockOrder(fromID, toID) {
		var balance int64
		if err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&balance); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, 0, ErrNotFound
			}
			return 0, 0, err
		}
		balances[id] = balance
	}

	if balances[fromID] < amount {
		return 0, 0, ErrInsufficientFunds
	}

	// Same-row move: funds checked, balances unchanged.
	if fromID == toID {
		return balances[fromID], balances[fromID], nil
	}

	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1 WHERE id = $2`, amount, fromID); err != nil {
		return 0, 0, err
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE id = $2`, amount, toID); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}

	return balances[fromID] - amount, balances[toID] + amount, nil
}

func (r *PostgresRepository) get(ctx context.Context, query string, arg any) (Account, error) {
	acc, err := scanAccount(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return acc, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var acc Account
	var createdAt time.Time
	if err := row.Scan(&acc.ID, &acc.Username, &acc.Email, &acc.AccountNumber, &acc.FullName,
		&acc.Balance, &acc.HashedPassword, &acc.Disabled, &createdAt); err != nil {
		return Account{}, err
	}
	acc.CreatedAt = createdAt.UTC()
	return acc, nil
}

func lockOrder(a, b int64) []int64 {
	if a == b {
		return []int64{a}
	}
	if b < a {
		a, b = b, a
	}
	return []int64{a, b}
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return ErrDuplicateUsername
	case strings.Contains(pgErr.ConstraintName, "email"):
		return ErrDuplicateEmail
	case strings.Contains(pgErr.ConstraintName, "account_number"):
		return ErrDuplicateAccountNumber
	default:
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
}
