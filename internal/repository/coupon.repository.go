package repository

import (
	"context"
	"errors"

	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponGlobalLimit = errors.New("coupon global usage limit reached")
	ErrCouponUserLimit   = errors.New("coupon per-user usage limit reached")
)

type CouponRepository struct {
	*pg.DB
}

func NewCouponRepository(db *pg.DB) *CouponRepository {
	return &CouponRepository{
		db,
	}
}

func (r *CouponRepository) Create(ctx context.Context, c *model.Coupon) (*model.Coupon, error) {
	entity := toCouponEntity(c)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toCouponModel(entity), nil
}

func (r *CouponRepository) Update(ctx context.Context, c *model.Coupon) (*model.Coupon, error) {
	entity := toCouponEntity(c)

	result := r.Write(ctx).WithContext(ctx).
		Model(&CouponEntity{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"code":              entity.Code,
			"discount_type":     entity.DiscountType,
			"discount_value":    entity.DiscountValue,
			"free_delivery":     entity.FreeDelivery,
			"usage_type":        entity.UsageType,
			"max_uses_per_user": entity.MaxUsesPerUser,
			"max_uses_global":   entity.MaxUsesGlobal,
			"assignment":        entity.Assignment,
			"assigned_users":    entity.AssignedUsers,
			"assigned_items":    entity.AssignedItems,
			"assigned_levels":   entity.AssignedLevels,
			"expires_at":        entity.ExpiresAt,
			"is_active":         entity.IsActive,
		})

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrCouponNotFound
	}

	return r.GetByID(ctx, c.ID)
}

func (r *CouponRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&CouponEntity{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCouponNotFound
	}

	return nil
}

func (r *CouponRepository) GetByID(ctx context.Context, id int64) (*model.Coupon, error) {
	var entity CouponEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	return toCouponModel(&entity), nil
}

// GetByCode matches case-insensitively; codes are stored normalized.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var entity CouponEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("code = ?", model.NormalizeCode(code)).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	return toCouponModel(&entity), nil
}

func (r *CouponRepository) List(ctx context.Context, f model.CouponFilter) ([]*model.Coupon, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&CouponEntity{})

	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
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

	var entities []*CouponEntity
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toCouponModels(entities), total, nil
}

// RedemptionCount returns how many times the user has redeemed the coupon.
func (r *CouponRepository) RedemptionCount(ctx context.Context, couponID, userID int64) (int64, error) {
	var entity CouponRedemptionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return entity.Count, nil
}

// Redeem bumps the global and per-user usage counters. Both increments are
// conditional on the limit still having headroom (a limit of zero means
// unlimited), so concurrent redemptions cannot exceed either cap.
func (r *CouponRepository) Redeem(ctx context.Context, couponID, userID, maxPerUser int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&CouponEntity{}).
		Where("id = ? AND (max_uses_global = 0 OR used_count < max_uses_global)", couponID).
		Update("used_count", gorm.Expr("used_count + 1"))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.checkRedeemFailureReason(ctx, couponID)
	}

	return r.bumpUserRedemption(ctx, couponID, userID, maxPerUser)
}

func (r *CouponRepository) checkRedeemFailureReason(ctx context.Context, couponID int64) error {
	var entity CouponEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", couponID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCouponNotFound
		}
		return err
	}

	return ErrCouponGlobalLimit
}

func (r *CouponRepository) bumpUserRedemption(ctx context.Context, couponID, userID, maxPerUser int64) error {
	q := r.Write(ctx).WithContext(ctx).
		Model(&CouponRedemptionEntity{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID)
	if maxPerUser > 0 {
		q = q.Where("count < ?", maxPerUser)
	}

	result := q.Update("count", gorm.Expr("count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	count, err := r.RedemptionCount(ctx, couponID, userID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCouponUserLimit
	}

	entry := &CouponRedemptionEntity{
		CouponID: couponID,
		UserID:   userID,
		Count:    1,
	}
	return r.Write(ctx).WithContext(ctx).Create(entry).Error
}
