package repository

import (
	"github.com/shamcart/grocer-gateway/internal/model"
)

type SettingsEntity struct {
	BranchID             int64   `db:"branch_id"              gorm:"primaryKey;column:branch_id;autoIncrement:false"`
	StoreLat             float64 `db:"store_lat"              gorm:"column:store_lat;not null"`
	StoreLng             float64 `db:"store_lng"              gorm:"column:store_lng;not null"`
	DeliveryFreeKm       float64 `db:"delivery_free_km"       gorm:"column:delivery_free_km;not null"`
	DeliveryRatePerKm    int64   `db:"delivery_rate_per_km"   gorm:"column:delivery_rate_per_km;not null"`
	MembershipGraceDays  int     `db:"membership_grace_days"  gorm:"column:membership_grace_days;not null"`
	ThresholdSilver      int64   `db:"threshold_silver"       gorm:"column:threshold_silver;not null"`
	ThresholdGold        int64   `db:"threshold_gold"         gorm:"column:threshold_gold;not null"`
	ThresholdPlatinum    int64   `db:"threshold_platinum"     gorm:"column:threshold_platinum;not null"`
	ThresholdDiamond     int64   `db:"threshold_diamond"      gorm:"column:threshold_diamond;not null"`
	PointsPerAmount      int64   `db:"points_per_amount"      gorm:"column:points_per_amount;not null"`
	RewardThresholdPts   int64   `db:"reward_threshold_pts"   gorm:"column:reward_threshold_pts;not null"`
	RewardValue          int64   `db:"reward_value"           gorm:"column:reward_value;not null"`
	AllowMultipleCoupons bool    `db:"allow_multiple_coupons" gorm:"column:allow_multiple_coupons;not null;default:false"`
}

func (SettingsEntity) TableName() string {
	return "settings"
}

func toSettingsEntity(m *model.Settings) *SettingsEntity {
	if m == nil {
		return nil
	}
	return &SettingsEntity{
		BranchID:             m.BranchID,
		StoreLat:             m.StoreLat,
		StoreLng:             m.StoreLng,
		DeliveryFreeKm:       m.DeliveryFreeKm,
		DeliveryRatePerKm:    m.DeliveryRatePerKm,
		MembershipGraceDays:  m.MembershipGraceDays,
		ThresholdSilver:      m.Thresholds.Silver,
		ThresholdGold:        m.Thresholds.Gold,
		ThresholdPlatinum:    m.Thresholds.Platinum,
		ThresholdDiamond:     m.Thresholds.Diamond,
		PointsPerAmount:      m.PointsPerAmount,
		RewardThresholdPts:   m.RewardThresholdPts,
		RewardValue:          m.RewardValue,
		AllowMultipleCoupons: m.AllowMultipleCoupons,
	}
}

func toSettingsModel(e *SettingsEntity) *model.Settings {
	if e == nil {
		return nil
	}
	return &model.Settings{
		BranchID:            e.BranchID,
		StoreLat:            e.StoreLat,
		StoreLng:            e.StoreLng,
		DeliveryFreeKm:      e.DeliveryFreeKm,
		DeliveryRatePerKm:   e.DeliveryRatePerKm,
		MembershipGraceDays: e.MembershipGraceDays,
		Thresholds: model.TierThresholds{
			Silver:   e.ThresholdSilver,
			Gold:     e.ThresholdGold,
			Platinum: e.ThresholdPlatinum,
			Diamond:  e.ThresholdDiamond,
		},
		PointsPerAmount:      e.PointsPerAmount,
		RewardThresholdPts:   e.RewardThresholdPts,
		RewardValue:          e.RewardValue,
		AllowMultipleCoupons: e.AllowMultipleCoupons,
	}
}
