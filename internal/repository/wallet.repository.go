package repository

import (
	"context"
	"errors"

	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrWalletNotFound = errors.New("wallet account not found")

type WalletRepository struct {
	*pg.DB
}

func NewWalletRepository(db *pg.DB) *WalletRepository {
	return &WalletRepository{
		db,
	}
}

// Credit appends a CREDIT ledger row and bumps the materialized balance in one
// atomic step. The account row is created on first use.
func (r *WalletRepository) Credit(ctx context.Context, userID, amount int64, source model.WalletSource, orderID *int64) (*model.WalletTransaction, error) {
	if amount <= 0 {
		return nil, model.Invalid("credit amount must be positive")
	}

	var txn *model.WalletTransaction
	err := withAtomicRetry(ctx, func() error {
		var err error
		txn, err = r.creditAttempt(ctx, userID, amount, source, orderID)
		return err
	})
	return txn, err
}

func (r *WalletRepository) creditAttempt(ctx context.Context, userID, amount int64, source model.WalletSource, orderID *int64) (*model.WalletTransaction, error) {
	var account WalletAccountEntity

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).
		Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = WalletAccountEntity{UserID: userID}
		if err := r.Write(ctx).WithContext(ctx).Create(&account).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&WalletAccountEntity{}).
		Where("user_id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrConcurrentUpdate
	}

	entry := &WalletTransactionEntity{
		UserID:       userID,
		Amount:       amount,
		Type:         string(model.WalletCredit),
		Source:       string(source),
		BalanceAfter: account.Balance + amount,
		OrderID:      orderID,
	}
	if err := r.Write(ctx).WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}

	return toWalletTransactionModel(entry), nil
}

// Debit appends a DEBIT ledger row after verifying the balance covers the
// amount. The balance update is conditional on the funds still being there,
// so two concurrent debits can never overdraw the account.
func (r *WalletRepository) Debit(ctx context.Context, userID, amount int64, source model.WalletSource, orderID *int64) (*model.WalletTransaction, error) {
	if amount <= 0 {
		return nil, model.Invalid("debit amount must be positive")
	}

	var txn *model.WalletTransaction
	err := withAtomicRetry(ctx, func() error {
		var err error
		txn, err = r.debitAttempt(ctx, userID, amount, source, orderID)
		return err
	})
	return txn, err
}

func (r *WalletRepository) debitAttempt(ctx context.Context, userID, amount int64, source model.WalletSource, orderID *int64) (*model.WalletTransaction, error) {
	var account WalletAccountEntity

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrInsufficientFunds
		}
		return nil, err
	}

	if account.Balance < amount {
		return nil, model.ErrInsufficientFunds
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&WalletAccountEntity{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrConcurrentUpdate
	}

	entry := &WalletTransactionEntity{
		UserID:       userID,
		Amount:       amount,
		Type:         string(model.WalletDebit),
		Source:       string(source),
		BalanceAfter: account.Balance - amount,
		OrderID:      orderID,
	}
	if err := r.Write(ctx).WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}

	return toWalletTransactionModel(entry), nil
}

// Balance returns the materialized balance; a user without an account row
// simply has zero.
func (r *WalletRepository) Balance(ctx context.Context, userID int64) (int64, error) {
	var account WalletAccountEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		First(&account).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return account.Balance, nil
}

func (r *WalletRepository) ListTransactions(ctx context.Context, f model.WalletFilter) ([]*model.WalletTransaction, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&WalletTransactionEntity{})

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Type != nil {
		q = q.Where("type = ?", string(*f.Type))
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*WalletTransactionEntity
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toWalletTransactionModels(entities), total, nil
}
