package repository

import (
	"time"

	"github.com/shamcart/grocer-gateway/internal/model"
)

type PointsTransactionEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	UserID    int64     `db:"user_id"    gorm:"column:user_id;not null;index"`
	Points    int64     `db:"points"     gorm:"column:points;not null"`
	Type      string    `db:"type"       gorm:"column:type;not null;uniqueIndex:idx_points_order_type"`
	OrderID   *int64    `db:"order_id"   gorm:"column:order_id;uniqueIndex:idx_points_order_type"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (PointsTransactionEntity) TableName() string {
	return "points_transactions"
}

func toPointsTransactionModel(e *PointsTransactionEntity) *model.PointsTransaction {
	if e == nil {
		return nil
	}
	return &model.PointsTransaction{
		ID:        e.ID,
		UserID:    e.UserID,
		Points:    e.Points,
		Type:      model.PointsTransactionType(e.Type),
		OrderID:   e.OrderID,
		CreatedAt: e.CreatedAt,
	}
}

func toPointsTransactionModels(entities []*PointsTransactionEntity) []*model.PointsTransaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.PointsTransaction, len(entities))
	for i, e := range entities {
		models[i] = toPointsTransactionModel(e)
	}
	return models
}
