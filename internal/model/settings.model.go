package model

// TierThresholds are cumulative balance thresholds in minor currency units,
// strictly increasing Silver < Gold < Platinum < Diamond.
type TierThresholds struct {
	Silver   int64 `json:"silver"`
	Gold     int64 `json:"gold"`
	Platinum int64 `json:"platinum"`
	Diamond  int64 `json:"diamond"`
}

// Settings is the per-branch pricing and loyalty configuration. It is read on
// every checkout and admin-writable; callers receive a value, never a shared
// mutable singleton.
type Settings struct {
	BranchID             int64          `json:"branch_id"`
	StoreLat             float64        `json:"store_lat"`
	StoreLng             float64        `json:"store_lng"`
	DeliveryFreeKm       float64        `json:"delivery_free_km"`
	DeliveryRatePerKm    int64          `json:"delivery_rate_per_km"`
	MembershipGraceDays  int            `json:"membership_grace_days"`
	Thresholds           TierThresholds `json:"membership_thresholds"`
	PointsPerAmount      int64          `json:"points_per_amount"`
	RewardThresholdPts   int64          `json:"reward_threshold_points"`
	RewardValue          int64          `json:"reward_value"`
	AllowMultipleCoupons bool           `json:"allow_multiple_coupons"`
}

func (s Settings) Validate() error {
	if s.DeliveryFreeKm < 0 {
		return Invalid("delivery_free_km must not be negative")
	}
	if s.DeliveryRatePerKm < 0 {
		return Invalid("delivery_rate_per_km must not be negative")
	}
	if s.MembershipGraceDays < 0 {
		return Invalid("membership_grace_days must not be negative")
	}
	t := s.Thresholds
	if !(t.Silver > 0 && t.Gold > t.Silver && t.Platinum > t.Gold && t.Diamond > t.Platinum) {
		return Invalid("membership thresholds must be strictly increasing")
	}
	if s.PointsPerAmount < 0 {
		return Invalid("points_per_amount must not be negative")
	}
	if s.RewardThresholdPts < 0 || s.RewardValue < 0 {
		return Invalid("reward configuration must not be negative")
	}
	return nil
}
