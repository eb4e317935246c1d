// Package pricing composes the authoritative order quote: subtotal, coupon
// discount, delivery fee and points reward. Pure; the order service feeds it
// validated coupons and a server-computed distance.
package pricing

import (
	"github.com/shamcart/grocer-gateway/internal/geo"
	"github.com/shamcart/grocer-gateway/internal/model"
)

type Quote struct {
	Subtotal        int64   `json:"subtotal"`
	Discount        int64   `json:"discount"`
	DeliveryFee     int64   `json:"delivery_fee"`
	RewardDeduction int64   `json:"reward_deduction"`
	Total           int64   `json:"total"`
	DistanceKm      float64 `json:"distance_km"`
}

func Subtotal(items []model.CheckoutItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Quantity * it.UnitPrice
	}
	return sum
}

// CouponDiscount returns the value a single coupon takes off the subtotal.
// Free-delivery coupons carry no subtotal discount.
func CouponDiscount(c model.Coupon, subtotal int64) int64 {
	switch c.DiscountType {
	case model.DiscountPercent:
		return subtotal * c.DiscountValue / 100
	case model.DiscountFixed:
		return c.DiscountValue
	}
	return 0
}

// Compute builds the quote. The coupon discount applies before the points
// reward; the reward then reduces the grand total. Both are clamped so that
// discount <= subtotal and total >= 0 always hold.
func Compute(s model.Settings, items []model.CheckoutItem, coupons []model.Coupon, useReward bool, userPoints int64, distanceKm float64) (Quote, error) {
	if len(coupons) > 1 && !s.AllowMultipleCoupons {
		return Quote{}, model.Invalid("only one coupon may be applied per order")
	}

	q := Quote{
		Subtotal:   Subtotal(items),
		DistanceKm: distanceKm,
	}

	q.DeliveryFee = geo.DeliveryFee(distanceKm, s.DeliveryFreeKm, s.DeliveryRatePerKm)

	for _, c := range coupons {
		if c.FreeDelivery {
			q.DeliveryFee = 0
			continue
		}
		q.Discount += CouponDiscount(c, q.Subtotal)
	}
	if q.Discount > q.Subtotal {
		q.Discount = q.Subtotal
	}

	q.Total = q.Subtotal - q.Discount + q.DeliveryFee

	if useReward {
		if userPoints < s.RewardThresholdPts {
			return Quote{}, model.ErrInsufficientPoints
		}
		q.RewardDeduction = s.RewardValue
		if q.RewardDeduction > q.Total {
			q.RewardDeduction = q.Total
		}
		q.Total -= q.RewardDeduction
	}

	return q, nil
}

// EarnedPoints returns the points awarded at settlement: the goods value
// actually paid (subtotal less discount, delivery excluded) divided by the
// branch points rate, floored.
func EarnedPoints(subtotal, discount, pointsPerAmount int64) int64 {
	if pointsPerAmount <= 0 {
		return 0
	}
	paid := subtotal - discount
	if paid <= 0 {
		return 0
	}
	return paid / pointsPerAmount
}
