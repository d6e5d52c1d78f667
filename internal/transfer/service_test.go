package transfer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moyobank/moyobank/internal/account"
)

func seedLedger(t *testing.T, repo account.Repository) (account.Account, account.Account) {
	t.Helper()
	ctx := context.Background()

	john, err := repo.Create(ctx, account.Account{
		Username: "johndoe", Email: "johndoe@example.com",
		AccountNumber: 1234567890, Balance: 1000, HashedPassword: "x",
	})
	require.NoError(t, err)

	jane, err := repo.Create(ctx, account.Account{
		Username: "janedoe", Email: "janedoe@example.com",
		AccountNumber: 9876543021, Balance: 900, HashedPassword: "x",
	})
	require.NoError(t, err)

	return john, jane
}

func TestTransferSuccess(t *testing.T) {
	repo := account.NewMemoryRepository()
	svc := NewService(repo, false)
	ctx := context.Background()
	john, jane := seedLedger(t, repo)

	receipt, err := svc.Transfer(ctx, john, jane.AccountNumber, 200)
	require.NoError(t, err)
	require.True(t, receipt.Success)
	require.Equal(t, int64(800), receipt.NewBalance)
	require.NotEmpty(t, receipt.Message)

	gotJohn, err := repo.GetByID(ctx, john.ID)
	require.NoError(t, err)
	gotJane, err := repo.GetByID(ctx, jane.ID)
	require.NoError(t, err)
	require.Equal(t, int64(800), gotJohn.Balance)
	require.Equal(t, int64(1100), gotJane.Balance)

	// Conservation: total across the pair unchanged.
	require.Equal(t, int64(1900), gotJohn.Balance+gotJane.Balance)
}

func TestTransferInvalidAmount(t *testing.T) {
	repo := account.NewMemoryRepository()
	svc := NewService(repo, false)
	ctx := context.Background()
	john, jane := seedLedger(t, repo)

	for _, amount := range []int64{0, -50} {
		_, err := svc.Transfer(ctx, john, jane.AccountNumber, amount)
		require.ErrorIs(t, err, ErrInvalidAmount)
	}

	assertBalancesUnchanged(t, repo, john.ID, jane.ID)
}

func TestTransferDestinationNotFound(t *testing.T) {
	repo := account.NewMemoryRepository()
	svc := NewService(repo, false)
	ctx := context.Background()
	john, jane := seedLedger(t, repo)

	_, err := svc.Transfer(ctx, john, 4040404040, 50)
	require.ErrorIs(t, err, ErrDestinationNotFound)

	assertBalancesUnchanged(t, repo, john.ID, jane.ID)
}

func TestTransferToSelfRejected(t *testing.T) {
	repo := account.NewMemoryRepository()
	svc := NewService(repo, false)
	ctx := context.Background()
	john, jane := seedLedger(t, repo)

	_, err := svc.Transfer(ctx, john, john.AccountNumber, 50)
	require.ErrorIs(t, err, ErrSelfTransfer)

	assertBalancesUnchanged(t, repo, john.ID, jane.ID)
}

func TestTransferToSelfAllowedByPolicy(t *testing.T) {
	repo := account.NewMemoryRepository()
	svc := NewService(repo, true)
	ctx := context.Background()
	john, jane := seedLedger(t, repo)

	receipt, err := svc.Transfer(ctx, john, john.AccountNumber, 50)
	require.NoError(t, err)
	require.True(t, receipt.Success)
	require.Equal(t, int64(1000), receipt.NewBalance)

	assertBalancesUnchanged(t, repo, john.ID, jane.ID)
}

func TestTransferInsufficientFunds(t *testing.T) {
	repo := account.NewMemoryRepository()
	svc := NewService(repo, false)
	ctx := context.Background()
	john, jane := seedLedger(t, repo)

	_, err := svc.Transfer(ctx, john, jane.AccountNumber, 1001)
	require.ErrorIs(t, err, account.ErrInsufficientFunds)

	assertBalancesUnchanged(t, repo, john.ID, jane.ID)
}

func TestTransferStaleCallerBalanceCaughtInApply(t *testing.T) {
	repo := account.NewMemoryRepository()
	svc := NewService(repo, false)
	ctx := context.Background()
	john, jane := seedLedger(t, repo)

	// Drain john behind the caller snapshot's back; the in-transaction
	// check must reject the transfer even though the snapshot has funds.
	_, _, err := repo.MoveFunds(ctx, john.ID, jane.ID, 950)
	require.NoError(t, err)

	_, err = svc.Transfer(ctx, john, jane.AccountNumber, 100)
	require.ErrorIs(t, err, account.ErrInsufficientFunds)
}

func TestTransferNotIdempotent(t *testing.T) {
	repo := account.NewMemoryRepository()
	svc := NewService(repo, false)
	ctx := context.Background()
	john, jane := seedLedger(t, repo)

	first, err := svc.Transfer(ctx, john, jane.AccountNumber, 100)
	require.NoError(t, err)
	require.Equal(t, int64(900), first.NewBalance)

	// Replaying the same request applies it again.
	refreshed, err := repo.GetByID(ctx, john.ID)
	require.NoError(t, err)
	second, err := svc.Transfer(ctx, refreshed, jane.AccountNumber, 100)
	require.NoError(t, err)
	require.Equal(t, int64(800), second.NewBalance)
}

func assertBalancesUnchanged(t *testing.T, repo account.Repository, johnID, janeID int64) {
	t.Helper()
	ctx := context.Background()
	john, err := repo.GetByID(ctx, johnID)
	require.NoError(t, err)
	jane, err := repo.GetByID(ctx, janeID)
	require.NoError(t, err)
	require.Equal(t, int64(1000), john.Balance)
	require.Equal(t, int64(900), jane.Balance)
}
