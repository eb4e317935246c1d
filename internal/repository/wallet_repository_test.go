package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletRepository_Credit(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewWalletRepository(db)
	ctx := context.Background()

	t.Run("creates account on first credit", func(t *testing.T) {
		txn, err := repo.Credit(ctx, 1, 10_000, model.SourceTopUp, nil)
		require.NoError(t, err)
		assert.Equal(t, model.WalletCredit, txn.Type)
		assert.Equal(t, int64(10_000), txn.BalanceAfter)

		balance, err := repo.Balance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(10_000), balance)
	})

	t.Run("accumulates balance", func(t *testing.T) {
		_, err := repo.Credit(ctx, 1, 5_000, model.SourceRefund, nil)
		require.NoError(t, err)

		balance, err := repo.Balance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(15_000), balance)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := repo.Credit(ctx, 1, 0, model.SourceTopUp, nil)
		assert.True(t, model.IsValidation(err))
	})
}

func TestWalletRepository_Debit(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewWalletRepository(db)
	ctx := context.Background()

	t.Run("successful debit appends ledger row", func(t *testing.T) {
		_, err := repo.Credit(ctx, 7, 1_000, model.SourceTopUp, nil)
		require.NoError(t, err)

		orderID := int64(42)
		txn, err := repo.Debit(ctx, 7, 300, model.SourceOrderPayment, &orderID)
		require.NoError(t, err)
		assert.Equal(t, model.WalletDebit, txn.Type)
		assert.Equal(t, int64(700), txn.BalanceAfter)
		require.NotNil(t, txn.OrderID)
		assert.Equal(t, orderID, *txn.OrderID)

		balance, err := repo.Balance(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(700), balance)
	})

	t.Run("insufficient funds leaves balance untouched", func(t *testing.T) {
		_, err := repo.Debit(ctx, 7, 5_000, model.SourceOrderPayment, nil)
		assert.ErrorIs(t, err, model.ErrInsufficientFunds)

		balance, err := repo.Balance(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(700), balance)
	})

	t.Run("missing account reads as insufficient", func(t *testing.T) {
		_, err := repo.Debit(ctx, 999, 100, model.SourceOrderPayment, nil)
		assert.ErrorIs(t, err, model.ErrInsufficientFunds)
	})
}

func TestWalletRepository_Debit_ConcurrentNeverOverdraws(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewWalletRepository(db)
	ctx := context.Background()

	userID := int64(31)
	_, err := repo.Credit(ctx, userID, 5_000, model.SourceTopUp, nil)
	require.NoError(t, err)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Debit(ctx, userID, 1_000, model.SourceOrderPayment, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins int
	for err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, model.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 5, wins, "only the funds that exist can be spent")

	balance, err := repo.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	_, total, err := repo.ListTransactions(ctx, model.WalletFilter{UserID: &userID})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total, "one credit plus a ledger row per successful debit")
}

func TestWalletRepository_LedgerBalanceIdentity(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewWalletRepository(db)
	ctx := context.Background()

	userID := int64(11)
	_, err := repo.Credit(ctx, userID, 20_000, model.SourceTopUp, nil)
	require.NoError(t, err)
	_, err = repo.Debit(ctx, userID, 4_500, model.SourceOrderPayment, nil)
	require.NoError(t, err)
	_, err = repo.Credit(ctx, userID, 1_000, model.SourceRefund, nil)
	require.NoError(t, err)

	txns, total, err := repo.ListTransactions(ctx, model.WalletFilter{UserID: &userID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	// fold the signed sequence and compare with the materialized balance
	var folded int64
	for _, txn := range txns {
		if txn.Type == model.WalletCredit {
			folded += txn.Amount
		} else {
			folded -= txn.Amount
		}
	}

	balance, err := repo.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, folded, balance)
	assert.Equal(t, balance, txns[0].BalanceAfter, "newest row carries the current balance")
}

func TestWalletRepository_ListTransactions_Filters(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewWalletRepository(db)
	ctx := context.Background()

	userID := int64(21)
	_, err := repo.Credit(ctx, userID, 1_000, model.SourceTopUp, nil)
	require.NoError(t, err)
	_, err = repo.Debit(ctx, userID, 400, model.SourceOrderPayment, nil)
	require.NoError(t, err)

	debit := model.WalletDebit
	txns, total, err := repo.ListTransactions(ctx, model.WalletFilter{UserID: &userID, Type: &debit})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txns, 1)
	assert.Equal(t, model.WalletDebit, txns[0].Type)
}
