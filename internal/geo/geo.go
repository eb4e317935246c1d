// Package geo provides the distance and delivery-fee math used at checkout.
// Everything here is pure; the order service is the single authoritative
// caller, client-side estimates are advisory only.
package geo

import (
	"math"

	"github.com/shamcart/grocer-gateway/internal/model"
)

const earthRadiusKm = 6371.0

// ValidateCoordinate rejects non-finite or out-of-range lat/lng pairs.
func ValidateCoordinate(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return model.Invalid("coordinate must be finite")
	}
	if lat < -90 || lat > 90 {
		return model.Invalid("latitude %v out of range", lat)
	}
	if lng < -180 || lng > 180 {
		return model.Invalid("longitude %v out of range", lng)
	}
	return nil
}

// Distance returns the great-circle distance in kilometers between two
// coordinates, haversine formula, rounded to 2 decimals.
func Distance(aLat, aLng, bLat, bLng float64) float64 {
	la1 := aLat * math.Pi / 180
	la2 := bLat * math.Pi / 180
	dLa := (bLat - aLat) * math.Pi / 180
	dLo := (bLng - aLng) * math.Pi / 180

	h := math.Sin(dLa/2)*math.Sin(dLa/2) +
		math.Cos(la1)*math.Cos(la2)*math.Sin(dLo/2)*math.Sin(dLo/2)
	d := 2 * earthRadiusKm * math.Asin(math.Sqrt(h))

	return math.Round(d*100) / 100
}

// DeliveryFee computes the tiered fee: distance at or under the free radius
// is fee-free, every started kilometer beyond it is charged at the branch
// rate.
func DeliveryFee(distanceKm float64, freeKm float64, ratePerKm int64) int64 {
	over := distanceKm - freeKm
	if over <= 0 {
		return 0
	}
	return int64(math.Ceil(over)) * ratePerKm
}
