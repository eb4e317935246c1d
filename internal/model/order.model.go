package model

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipping   OrderStatus = "SHIPPING"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// orderTransitions encodes the forward-only machine; CANCELLED is reachable
// from PENDING and PROCESSING only, and terminal states have no exits.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipping, OrderCancelled},
	OrderShipping:   {OrderDelivered},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipping, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PayCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PayWallet         PaymentMethod = "WALLET"
	PayShamCash       PaymentMethod = "SHAM_CASH"
	PayBankTransfer   PaymentMethod = "BANK_TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCashOnDelivery, PayWallet, PayShamCash, PayBankTransfer:
		return true
	}
	return false
}

// ManualSettlement reports whether the payment must be confirmed by staff
// before the order counts as settled.
func (m PaymentMethod) ManualSettlement() bool {
	return m == PayShamCash || m == PayBankTransfer
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentConfirmed PaymentStatus = "CONFIRMED"
)

type OrderItem struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

type DriverLocation struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Order struct {
	ID                 int64          `json:"id"`
	Reference          string         `json:"reference"`
	UserID             int64          `json:"user_id"`
	BranchID           int64          `json:"branch_id"`
	DriverID           *int64         `json:"driver_id,omitempty"`
	Items              []OrderItem    `json:"items"`
	Subtotal           int64          `json:"subtotal"`
	Discount           int64          `json:"discount"`
	DeliveryFee        int64          `json:"delivery_fee"`
	Total              int64          `json:"total"`
	Status             OrderStatus    `json:"status"`
	PaymentMethod      PaymentMethod  `json:"payment_method"`
	PaymentStatus      PaymentStatus  `json:"payment_status"`
	Address            string         `json:"address"`
	Lat                float64        `json:"lat"`
	Lng                float64        `json:"lng"`
	DeliveryDistanceKm float64        `json:"delivery_distance_km"`
	CouponCodes        []string       `json:"coupon_codes,omitempty"`
	DriverLocation     *DriverLocation `json:"driver_location,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
}

// Settled reports whether the order's payment has been accounted for.
func (o Order) Settled() bool {
	if o.PaymentMethod == PayCashOnDelivery {
		return o.Status == OrderDelivered
	}
	return o.PaymentStatus == PaymentConfirmed
}

type CheckoutItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

// CheckoutRequest is the server-authoritative checkout input; client-computed
// totals are never accepted.
type CheckoutRequest struct {
	UserID        int64
	BranchID      int64
	Items         []CheckoutItem
	PaymentMethod PaymentMethod
	CouponCodes   []string
	UseReward     bool
	Address       string
	Lat           float64
	Lng           float64
}

func (p CheckoutRequest) Validate() error {
	if p.UserID == 0 {
		return Invalid("user_id is required")
	}
	if len(p.Items) == 0 {
		return Invalid("order must contain at least one item")
	}
	for _, it := range p.Items {
		if it.ProductID == 0 {
			return Invalid("item product_id is required")
		}
		if it.Quantity <= 0 {
			return Invalid("item quantity must be positive")
		}
		if it.UnitPrice < 0 {
			return Invalid("item unit_price must not be negative")
		}
	}
	if !p.PaymentMethod.Valid() {
		return Invalid("unknown payment method %q", p.PaymentMethod)
	}
	if p.Address == "" {
		return Invalid("address is required")
	}
	return nil
}

type StatusUpdateRequest struct {
	OrderID       int64
	Status        OrderStatus
	PaymentStatus *PaymentStatus
}

type DriverPing struct {
	OrderID   int64
	Lat       float64
	Lng       float64
	Timestamp time.Time
}

type OrderFilter struct {
	UserID   *int64
	BranchID *int64
	DriverID *int64
	Statuses []OrderStatus
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
	Desc     bool
}

// SettlementEvent is published on the settlement stream when an order's
// payment is accounted for; the processor awards points and re-evaluates
// membership off the request path.
type SettlementEvent struct {
	OrderID       int64         `json:"order_id"`
	UserID        int64         `json:"user_id"`
	BranchID      int64         `json:"branch_id"`
	Subtotal      int64         `json:"subtotal"`
	Discount      int64         `json:"discount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	SettledAt     time.Time     `json:"settled_at"`
}
