package repository

import (
	"encoding/json"
	"time"

	"github.com/shamcart/grocer-gateway/internal/model"
)

type OrderEntity struct {
	ID                 int64      `db:"id"                   gorm:"primaryKey;autoIncrement;column:id"`
	Reference          string     `db:"reference"            gorm:"column:reference;not null;unique"`
	UserID             int64      `db:"user_id"              gorm:"column:user_id;not null;index"`
	BranchID           int64      `db:"branch_id"            gorm:"column:branch_id;not null;index"`
	DriverID           *int64     `db:"driver_id"            gorm:"column:driver_id;index"`
	Subtotal           int64      `db:"subtotal"             gorm:"column:subtotal;not null"`
	Discount           int64      `db:"discount"             gorm:"column:discount;not null;default:0"`
	DeliveryFee        int64      `db:"delivery_fee"         gorm:"column:delivery_fee;not null;default:0"`
	Total              int64      `db:"total"                gorm:"column:total;not null"`
	Status             string     `db:"status"               gorm:"column:status;not null;index"`
	PaymentMethod      string     `db:"payment_method"       gorm:"column:payment_method;not null"`
	PaymentStatus      string     `db:"payment_status"       gorm:"column:payment_status;not null"`
	Address            string     `db:"address"              gorm:"column:address;not null"`
	Lat                float64    `db:"lat"                  gorm:"column:lat;not null"`
	Lng                float64    `db:"lng"                  gorm:"column:lng;not null"`
	DeliveryDistanceKm float64    `db:"delivery_distance_km" gorm:"column:delivery_distance_km;not null;default:0"`
	CouponCodes        string     `db:"coupon_codes"         gorm:"column:coupon_codes;not null;default:''"`
	DriverLat          *float64   `db:"driver_lat"           gorm:"column:driver_lat"`
	DriverLng          *float64   `db:"driver_lng"           gorm:"column:driver_lng"`
	DriverLocatedAt    *time.Time `db:"driver_located_at"    gorm:"column:driver_located_at"`
	CreatedAt          time.Time  `db:"created_at"           gorm:"column:created_at;autoCreateTime"`
}

func (OrderEntity) TableName() string {
	return "orders"
}

type OrderItemEntity struct {
	ID        int64 `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	OrderID   int64 `db:"order_id"   gorm:"column:order_id;not null;index"`
	ProductID int64 `db:"product_id" gorm:"column:product_id;not null"`
	Quantity  int64 `db:"quantity"   gorm:"column:quantity;not null"`
	UnitPrice int64 `db:"unit_price" gorm:"column:unit_price;not null"`
}

func (OrderItemEntity) TableName() string {
	return "order_items"
}

func toOrderEntity(m *model.Order) *OrderEntity {
	if m == nil {
		return nil
	}
	codes, _ := json.Marshal(m.CouponCodes)
	e := &OrderEntity{
		ID:                 m.ID,
		Reference:          m.Reference,
		UserID:             m.UserID,
		BranchID:           m.BranchID,
		DriverID:           m.DriverID,
		Subtotal:           m.Subtotal,
		Discount:           m.Discount,
		DeliveryFee:        m.DeliveryFee,
		Total:              m.Total,
		Status:             string(m.Status),
		PaymentMethod:      string(m.PaymentMethod),
		PaymentStatus:      string(m.PaymentStatus),
		Address:            m.Address,
		Lat:                m.Lat,
		Lng:                m.Lng,
		DeliveryDistanceKm: m.DeliveryDistanceKm,
		CouponCodes:        string(codes),
		CreatedAt:          m.CreatedAt,
	}
	if m.DriverLocation != nil {
		e.DriverLat = &m.DriverLocation.Lat
		e.DriverLng = &m.DriverLocation.Lng
		at := m.DriverLocation.UpdatedAt
		e.DriverLocatedAt = &at
	}
	return e
}

func toOrderModel(e *OrderEntity) *model.Order {
	if e == nil {
		return nil
	}
	var codes []string
	if e.CouponCodes != "" && e.CouponCodes != "null" {
		_ = json.Unmarshal([]byte(e.CouponCodes), &codes)
	}
	m := &model.Order{
		ID:                 e.ID,
		Reference:          e.Reference,
		UserID:             e.UserID,
		BranchID:           e.BranchID,
		DriverID:           e.DriverID,
		Subtotal:           e.Subtotal,
		Discount:           e.Discount,
		DeliveryFee:        e.DeliveryFee,
		Total:              e.Total,
		Status:             model.OrderStatus(e.Status),
		PaymentMethod:      model.PaymentMethod(e.PaymentMethod),
		PaymentStatus:      model.PaymentStatus(e.PaymentStatus),
		Address:            e.Address,
		Lat:                e.Lat,
		Lng:                e.Lng,
		DeliveryDistanceKm: e.DeliveryDistanceKm,
		CouponCodes:        codes,
		CreatedAt:          e.CreatedAt,
	}
	if e.DriverLat != nil && e.DriverLng != nil && e.DriverLocatedAt != nil {
		m.DriverLocation = &model.DriverLocation{
			Lat:       *e.DriverLat,
			Lng:       *e.DriverLng,
			UpdatedAt: *e.DriverLocatedAt,
		}
	}
	return m
}

func toOrderModels(entities []*OrderEntity) []*model.Order {
	if entities == nil {
		return nil
	}
	models := make([]*model.Order, len(entities))
	for i, e := range entities {
		models[i] = toOrderModel(e)
	}
	return models
}

func toOrderItemEntities(orderID int64, items []model.OrderItem) []*OrderItemEntity {
	entities := make([]*OrderItemEntity, len(items))
	for i, it := range items {
		entities[i] = &OrderItemEntity{
			OrderID:   orderID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}
	return entities
}

func toOrderItemModels(entities []*OrderItemEntity) []model.OrderItem {
	items := make([]model.OrderItem, len(entities))
	for i, e := range entities {
		items[i] = model.OrderItem{
			ID:        e.ID,
			OrderID:   e.OrderID,
			ProductID: e.ProductID,
			Quantity:  e.Quantity,
			UnitPrice: e.UnitPrice,
		}
	}
	return items
}
