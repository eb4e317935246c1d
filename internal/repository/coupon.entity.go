package repository

import (
	"encoding/json"
	"time"

	"github.com/shamcart/grocer-gateway/internal/model"
)

type CouponEntity struct {
	ID             int64     `db:"id"                gorm:"primaryKey;autoIncrement;column:id"`
	Code           string    `db:"code"              gorm:"column:code;not null;unique"`
	DiscountType   string    `db:"discount_type"     gorm:"column:discount_type;not null"`
	DiscountValue  int64     `db:"discount_value"    gorm:"column:discount_value;not null;default:0"`
	FreeDelivery   bool      `db:"free_delivery"     gorm:"column:free_delivery;not null;default:false"`
	UsageType      string    `db:"usage_type"        gorm:"column:usage_type;not null"`
	MaxUsesPerUser int64     `db:"max_uses_per_user" gorm:"column:max_uses_per_user;not null;default:0"`
	MaxUsesGlobal  int64     `db:"max_uses_global"   gorm:"column:max_uses_global;not null;default:0"`
	UsedCount      int64     `db:"used_count"        gorm:"column:used_count;not null;default:0"`
	Assignment     string    `db:"assignment"        gorm:"column:assignment;not null"`
	AssignedUsers  string    `db:"assigned_users"    gorm:"column:assigned_users;not null;default:''"`
	AssignedItems  string    `db:"assigned_items"    gorm:"column:assigned_items;not null;default:''"`
	AssignedLevels string    `db:"assigned_levels"   gorm:"column:assigned_levels;not null;default:''"`
	ExpiresAt      time.Time `db:"expires_at"        gorm:"column:expires_at;not null"`
	IsActive       bool      `db:"is_active"         gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time `db:"created_at"        gorm:"column:created_at;autoCreateTime"`
}

func (CouponEntity) TableName() string {
	return "coupons"
}

// Assignment lists are stored as JSON text so sqlite and postgres read them
// the same way.
func marshalList(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func unmarshalInt64List(s string) []int64 {
	if s == "" || s == "null" {
		return nil
	}
	var out []int64
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func unmarshalLevelList(s string) []model.MembershipLevel {
	if s == "" || s == "null" {
		return nil
	}
	var out []model.MembershipLevel
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func toCouponEntity(m *model.Coupon) *CouponEntity {
	if m == nil {
		return nil
	}
	return &CouponEntity{
		ID:             m.ID,
		Code:           model.NormalizeCode(m.Code),
		DiscountType:   string(m.DiscountType),
		DiscountValue:  m.DiscountValue,
		FreeDelivery:   m.FreeDelivery,
		UsageType:      string(m.UsageType),
		MaxUsesPerUser: m.MaxUsesPerUser,
		MaxUsesGlobal:  m.MaxUsesGlobal,
		UsedCount:      m.UsedCount,
		Assignment:     string(m.Assignment),
		AssignedUsers:  marshalList(m.AssignedUsers),
		AssignedItems:  marshalList(m.AssignedItems),
		AssignedLevels: marshalList(m.AssignedLevels),
		ExpiresAt:      m.ExpiresAt,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
	}
}

func toCouponModel(e *CouponEntity) *model.Coupon {
	if e == nil {
		return nil
	}
	return &model.Coupon{
		ID:             e.ID,
		Code:           e.Code,
		DiscountType:   model.DiscountType(e.DiscountType),
		DiscountValue:  e.DiscountValue,
		FreeDelivery:   e.FreeDelivery,
		UsageType:      model.CouponUsageType(e.UsageType),
		MaxUsesPerUser: e.MaxUsesPerUser,
		MaxUsesGlobal:  e.MaxUsesGlobal,
		UsedCount:      e.UsedCount,
		Assignment:     model.CouponAssignment(e.Assignment),
		AssignedUsers:  unmarshalInt64List(e.AssignedUsers),
		AssignedItems:  unmarshalInt64List(e.AssignedItems),
		AssignedLevels: unmarshalLevelList(e.AssignedLevels),
		ExpiresAt:      e.ExpiresAt,
		IsActive:       e.IsActive,
		CreatedAt:      e.CreatedAt,
	}
}

func toCouponModels(entities []*CouponEntity) []*model.Coupon {
	if entities == nil {
		return nil
	}
	models := make([]*model.Coupon, len(entities))
	for i, e := range entities {
		models[i] = toCouponModel(e)
	}
	return models
}

type CouponRedemptionEntity struct {
	CouponID int64 `db:"coupon_id" gorm:"primaryKey;column:coupon_id;autoIncrement:false"`
	UserID   int64 `db:"user_id"   gorm:"primaryKey;column:user_id;autoIncrement:false"`
	Count    int64 `db:"count"     gorm:"column:count;not null;default:0"`
}

func (CouponRedemptionEntity) TableName() string {
	return "coupon_redemptions"
}
