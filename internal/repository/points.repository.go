package repository

import (
	"context"
	"errors"

	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/pkg/pg"
	"gorm.io/gorm"
)

// PointsRepository maintains the loyalty ledger. The materialized counter
// lives on the user row; every mutation appends a matching ledger entry.
type PointsRepository struct {
	*pg.DB
}

func NewPointsRepository(db *pg.DB) *PointsRepository {
	return &PointsRepository{
		db,
	}
}

// Earn credits points and appends an EARN ledger entry. Per order the credit
// lands at most once: a replay returns the stored entry without touching the
// counter, backed by the unique (order_id, type) index.
func (r *PointsRepository) Earn(ctx context.Context, userID, points int64, orderID *int64) (*model.PointsTransaction, error) {
	if points <= 0 {
		return nil, model.Invalid("earned points must be positive")
	}

	if orderID != nil {
		existing, err := r.findOrderEntry(ctx, *orderID, model.PointsEarn)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	var txn *model.PointsTransaction
	err := withAtomicRetry(ctx, func() error {
		result := r.Write(ctx).WithContext(ctx).
			Model(&UserEntity{}).
			Where("id = ?", userID).
			Update("points", gorm.Expr("points + ?", points))

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}

		entry := &PointsTransactionEntity{
			UserID:  userID,
			Points:  points,
			Type:    string(model.PointsEarn),
			OrderID: orderID,
		}
		if err := r.Write(ctx).WithContext(ctx).Create(entry).Error; err != nil {
			return err
		}

		txn = toPointsTransactionModel(entry)
		return nil
	})
	return txn, err
}

// Redeem deducts points conditionally on the counter still covering the
// amount, so a concurrent redemption cannot push it negative.
func (r *PointsRepository) Redeem(ctx context.Context, userID, points int64, orderID *int64) (*model.PointsTransaction, error) {
	if points <= 0 {
		return nil, model.Invalid("redeemed points must be positive")
	}

	var txn *model.PointsTransaction
	err := withAtomicRetry(ctx, func() error {
		result := r.Write(ctx).WithContext(ctx).
			Model(&UserEntity{}).
			Where("id = ? AND points >= ?", userID, points).
			Update("points", gorm.Expr("points - ?", points))

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.checkRedeemFailureReason(ctx, userID, points)
		}

		entry := &PointsTransactionEntity{
			UserID:  userID,
			Points:  points,
			Type:    string(model.PointsRedeem),
			OrderID: orderID,
		}
		if err := r.Write(ctx).WithContext(ctx).Create(entry).Error; err != nil {
			return err
		}

		txn = toPointsTransactionModel(entry)
		return nil
	})
	return txn, err
}

func (r *PointsRepository) findOrderEntry(ctx context.Context, orderID int64, txType model.PointsTransactionType) (*model.PointsTransaction, error) {
	var entity PointsTransactionEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("order_id = ? AND type = ?", orderID, string(txType)).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toPointsTransactionModel(&entity), nil
}

// checkRedeemFailureReason distinguishes a missing user from a short balance.
func (r *PointsRepository) checkRedeemFailureReason(ctx context.Context, userID, points int64) error {
	var entity UserEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", userID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if entity.Points < points {
		return model.ErrInsufficientPoints
	}

	return ErrConcurrentUpdate
}

func (r *PointsRepository) List(ctx context.Context, userID int64, limit, offset int) ([]*model.PointsTransaction, int64, error) {
	q := r.Read(ctx).WithContext(ctx).
		Model(&PointsTransactionEntity{}).
		Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var entities []*PointsTransactionEntity
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toPointsTransactionModels(entities), total, nil
}
