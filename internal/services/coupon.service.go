package services

import (
	"context"
	"time"

	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/internal/repository"
	"github.com/shamcart/grocer-gateway/pkg/prom"
)

type CouponRepository interface {
	Create(ctx context.Context, c *model.Coupon) (*model.Coupon, error)
	Update(ctx context.Context, c *model.Coupon) (*model.Coupon, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*model.Coupon, error)
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	List(ctx context.Context, f model.CouponFilter) ([]*model.Coupon, int64, error)
	RedemptionCount(ctx context.Context, couponID, userID int64) (int64, error)
	Redeem(ctx context.Context, couponID, userID, maxPerUser int64) error
}

type CouponService struct {
	couponRepo CouponRepository
}

func NewCouponService(couponRepo CouponRepository) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
	}
}

func (s *CouponService) Create(ctx context.Context, c *model.Coupon) (*model.Coupon, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.UsedCount = 0
	return s.couponRepo.Create(ctx, c)
}

// Update never touches the usage counter; it is owned by the redemption path.
func (s *CouponService) Update(ctx context.Context, c *model.Coupon) (*model.Coupon, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return s.couponRepo.Update(ctx, c)
}

func (s *CouponService) Delete(ctx context.Context, id int64) error {
	return s.couponRepo.Delete(ctx, id)
}

func (s *CouponService) Get(ctx context.Context, id int64) (*model.Coupon, error) {
	return s.couponRepo.GetByID(ctx, id)
}

func (s *CouponService) List(ctx context.Context, f model.CouponFilter) ([]*model.Coupon, int64, error) {
	return s.couponRepo.List(ctx, f)
}

// Validate runs the eligibility checks in a fixed order so the caller always
// gets the most specific reason: existence and active flag, then expiry, then
// assignment, then usage limits.
func (s *CouponService) Validate(ctx context.Context, code string, user *model.User, cart []model.CheckoutItem, now time.Time) (*model.Coupon, error) {
	c, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		if err == repository.ErrCouponNotFound {
			return nil, s.fail(code, model.CouponNotFound)
		}
		return nil, err
	}

	if !c.IsActive {
		return nil, s.fail(code, model.CouponInactive)
	}
	if !now.Before(c.ExpiresAt) {
		return nil, s.fail(code, model.CouponExpired)
	}

	switch c.Assignment {
	case model.AssignRestricted:
		// active + unexpired is enough
	case model.AssignUsers:
		if !containsInt64(c.AssignedUsers, user.ID) {
			return nil, s.fail(code, model.CouponNotEligible)
		}
	case model.AssignProducts:
		if !cartIntersects(cart, c.AssignedItems) {
			return nil, s.fail(code, model.CouponNotEligible)
		}
	case model.AssignLevels:
		if !containsLevel(c.AssignedLevels, user.MembershipLevel) {
			return nil, s.fail(code, model.CouponNotEligible)
		}
	}

	userCount, err := s.couponRepo.RedemptionCount(ctx, c.ID, user.ID)
	if err != nil {
		return nil, err
	}

	if c.UsageType == model.UsageSingle {
		if userCount > 0 {
			return nil, s.fail(code, model.CouponLimitReached)
		}
	} else {
		if c.MaxUsesPerUser > 0 && userCount >= c.MaxUsesPerUser {
			return nil, s.fail(code, model.CouponLimitReached)
		}
		if c.MaxUsesGlobal > 0 && c.UsedCount >= c.MaxUsesGlobal {
			return nil, s.fail(code, model.CouponLimitReached)
		}
	}

	return c, nil
}

// Redeem bumps the counters atomically; a concurrent winner surfaces as
// LIMIT_REACHED even if Validate passed a moment earlier.
func (s *CouponService) Redeem(ctx context.Context, c *model.Coupon, userID int64) error {
	maxPerUser := c.MaxUsesPerUser
	if c.UsageType == model.UsageSingle {
		maxPerUser = 1
	}

	err := s.couponRepo.Redeem(ctx, c.ID, userID, maxPerUser)
	if err != nil {
		switch err {
		case repository.ErrCouponNotFound:
			return s.fail(c.Code, model.CouponNotFound)
		case repository.ErrCouponGlobalLimit, repository.ErrCouponUserLimit:
			return s.fail(c.Code, model.CouponLimitReached)
		}
		return err
	}

	prom.IncCouponRedemptions(string(c.UsageType))
	return nil
}

func (s *CouponService) fail(code string, reason model.CouponReason) error {
	prom.IncCouponValidationFails(string(reason))
	return model.NewCouponError(code, reason)
}

func containsInt64(set []int64, v int64) bool {
	for _, x := range set {
		if x == v {
			return true
		}
	}
	return false
}

func containsLevel(set []model.MembershipLevel, l model.MembershipLevel) bool {
	for _, x := range set {
		if x == l {
			return true
		}
	}
	return false
}

func cartIntersects(cart []model.CheckoutItem, products []int64) bool {
	for _, it := range cart {
		if containsInt64(products, it.ProductID) {
			return true
		}
	}
	return false
}
