package model

import (
	"strings"
	"time"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "PERCENT"
	DiscountFixed   DiscountType = "FIXED"
)

type CouponUsageType string

const (
	UsageSingle   CouponUsageType = "SINGLE"
	UsageMultiple CouponUsageType = "MULTIPLE"
)

type CouponAssignment string

const (
	AssignRestricted CouponAssignment = "RESTRICTED"
	AssignUsers      CouponAssignment = "USERS"
	AssignProducts   CouponAssignment = "PRODUCTS"
	AssignLevels     CouponAssignment = "LEVELS"
)

type Coupon struct {
	ID             int64             `json:"id"`
	Code           string            `json:"code"`
	DiscountType   DiscountType      `json:"discount_type"`
	DiscountValue  int64             `json:"discount_value"`
	FreeDelivery   bool              `json:"free_delivery"`
	UsageType      CouponUsageType   `json:"usage_type"`
	MaxUsesPerUser int64             `json:"max_uses_per_user"`
	MaxUsesGlobal  int64             `json:"max_uses_global"`
	UsedCount      int64             `json:"used_count"`
	Assignment     CouponAssignment  `json:"assignment"`
	AssignedUsers  []int64           `json:"assigned_users,omitempty"`
	AssignedItems  []int64           `json:"assigned_products,omitempty"`
	AssignedLevels []MembershipLevel `json:"assigned_levels,omitempty"`
	ExpiresAt      time.Time         `json:"expires_at"`
	IsActive       bool              `json:"is_active"`
	CreatedAt      time.Time         `json:"created_at"`
}

// NormalizeCode folds a code for case-insensitive matching.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (c Coupon) Validate() error {
	if NormalizeCode(c.Code) == "" {
		return Invalid("code is required")
	}
	switch c.DiscountType {
	case DiscountPercent:
		if c.DiscountValue < 0 || c.DiscountValue > 100 {
			return Invalid("percent discount must be within 0..100")
		}
	case DiscountFixed:
		if c.DiscountValue < 0 {
			return Invalid("fixed discount must not be negative")
		}
	default:
		return Invalid("unknown discount type %q", c.DiscountType)
	}
	if c.FreeDelivery && c.DiscountValue > 0 {
		return Invalid("free-delivery coupons must not carry a discount value")
	}
	if !c.FreeDelivery && c.DiscountValue == 0 {
		return Invalid("coupon must grant a discount or free delivery")
	}
	switch c.UsageType {
	case UsageSingle, UsageMultiple:
	default:
		return Invalid("unknown usage type %q", c.UsageType)
	}
	switch c.Assignment {
	case AssignRestricted, AssignUsers, AssignProducts, AssignLevels:
	default:
		return Invalid("unknown assignment %q", c.Assignment)
	}
	if c.MaxUsesPerUser < 0 || c.MaxUsesGlobal < 0 {
		return Invalid("usage limits must not be negative")
	}
	return nil
}

// CouponRedemption tracks per-user usage; needed to enforce MaxUsesPerUser
// independently of the global counter.
type CouponRedemption struct {
	CouponID int64 `json:"coupon_id"`
	UserID   int64 `json:"user_id"`
	Count    int64 `json:"count"`
}

type CouponFilter struct {
	Active *bool
	Limit  int
	Offset int
}
