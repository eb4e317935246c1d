package repository

import (
	"time"

	"github.com/shamcart/grocer-gateway/internal/model"
)

type WalletAccountEntity struct {
	UserID  int64 `db:"user_id" gorm:"primaryKey;column:user_id"`
	Balance int64 `db:"balance" gorm:"column:balance;not null;default:0"`
}

func (WalletAccountEntity) TableName() string {
	return "wallet_accounts"
}

func toWalletAccountModel(e *WalletAccountEntity) *model.WalletAccount {
	if e == nil {
		return nil
	}
	return &model.WalletAccount{
		UserID:  e.UserID,
		Balance: e.Balance,
	}
}

type WalletTransactionEntity struct {
	ID           int64     `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	UserID       int64     `db:"user_id"       gorm:"column:user_id;not null;index"`
	Amount       int64     `db:"amount"        gorm:"column:amount;not null"`
	Type         string    `db:"type"          gorm:"column:type;not null"`
	Source       string    `db:"source"        gorm:"column:source;not null"`
	BalanceAfter int64     `db:"balance_after" gorm:"column:balance_after;not null"`
	OrderID      *int64    `db:"order_id"      gorm:"column:order_id;index"`
	CreatedAt    time.Time `db:"created_at"    gorm:"column:created_at;autoCreateTime"`
}

func (WalletTransactionEntity) TableName() string {
	return "wallet_transactions"
}

func toWalletTransactionModel(e *WalletTransactionEntity) *model.WalletTransaction {
	if e == nil {
		return nil
	}
	return &model.WalletTransaction{
		ID:           e.ID,
		UserID:       e.UserID,
		Amount:       e.Amount,
		Type:         model.WalletTransactionType(e.Type),
		Source:       model.WalletSource(e.Source),
		BalanceAfter: e.BalanceAfter,
		OrderID:      e.OrderID,
		CreatedAt:    e.CreatedAt,
	}
}

func toWalletTransactionModels(entities []*WalletTransactionEntity) []*model.WalletTransaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.WalletTransaction, len(entities))
	for i, e := range entities {
		models[i] = toWalletTransactionModel(e)
	}
	return models
}
