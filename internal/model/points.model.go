package model

import "time"

type PointsTransactionType string

const (
	PointsEarn   PointsTransactionType = "EARN"
	PointsRedeem PointsTransactionType = "REDEEM"
)

// PointsTransaction follows the same append-only discipline as the wallet
// ledger; User.Points is the materialized fold.
type PointsTransaction struct {
	ID        int64                 `json:"id"`
	UserID    int64                 `json:"user_id"`
	Points    int64                 `json:"points"`
	Type      PointsTransactionType `json:"type"`
	OrderID   *int64                `json:"order_id,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}
