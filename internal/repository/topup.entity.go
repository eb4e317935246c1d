package repository

import (
	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/pkg/pg"
)

// TopUpEntity uses the uuid base model so review links in the admin console
// carry opaque identifiers.
type TopUpEntity struct {
	pg.Model
	UserID    int64  `db:"user_id"    gorm:"column:user_id;not null;index"`
	Amount    int64  `db:"amount"     gorm:"column:amount;not null"`
	Method    string `db:"method"     gorm:"column:method;not null"`
	Status    string `db:"status"     gorm:"column:status;not null;default:PENDING;index"`
	AdminNote string `db:"admin_note" gorm:"column:admin_note;not null;default:''"`
}

func (TopUpEntity) TableName() string {
	return "wallet_topups"
}

func toTopUpModel(e *TopUpEntity) *model.WalletTopUp {
	if e == nil {
		return nil
	}
	return &model.WalletTopUp{
		ID:        e.ID,
		UserID:    e.UserID,
		Amount:    e.Amount,
		Method:    model.TopUpMethod(e.Method),
		Status:    model.TopUpStatus(e.Status),
		AdminNote: e.AdminNote,
		CreatedAt: e.CreatedAt,
	}
}

func toTopUpModels(entities []*TopUpEntity) []*model.WalletTopUp {
	if entities == nil {
		return nil
	}
	models := make([]*model.WalletTopUp, len(entities))
	for i, e := range entities {
		models[i] = toTopUpModel(e)
	}
	return models
}
