package repository

import (
	"context"
	"errors"

	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrStatusConflict means the order's stored status no longer matches the
	// one the caller transitioned from.
	ErrStatusConflict = errors.New("order status changed concurrently")
	// ErrStaleLocation means a newer driver ping has already been applied.
	ErrStaleLocation = errors.New("driver location ping is stale")
)

type OrderRepository struct {
	*pg.DB
}

func NewOrderRepository(db *pg.DB) *OrderRepository {
	return &OrderRepository{
		db,
	}
}

func (r *OrderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	entity := toOrderEntity(order)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	items := toOrderItemEntities(entity.ID, order.Items)
	if len(items) > 0 {
		if err := r.Write(ctx).WithContext(ctx).Create(items).Error; err != nil {
			return nil, err
		}
	}

	created := toOrderModel(entity)
	created.Items = toOrderItemModels(items)
	return created, nil
}

func (r *OrderRepository) Get(ctx context.Context, id int64) (*model.Order, error) {
	var entity OrderEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	var items []*OrderItemEntity
	if err := r.Read(ctx).WithContext(ctx).
		Where("order_id = ?", id).
		Order("id ASC").
		Find(&items).
		Error; err != nil {
		return nil, err
	}

	order := toOrderModel(&entity)
	order.Items = toOrderItemModels(items)
	return order, nil
}

func (r *OrderRepository) List(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&OrderEntity{})

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	if f.DriverID != nil {
		q = q.Where("driver_id = ?", *f.DriverID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*OrderEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toOrderModels(entities), total, nil
}

// UpdateStatus moves the order from one status to another, conditional on the
// stored status still being the one the caller read. A lost race returns
// ErrStatusConflict rather than clobbering the winner.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&OrderEntity{}).
		Where("id = ? AND status = ?", orderID, string(from)).
		Update("status", string(to))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.checkStatusFailureReason(ctx, orderID)
	}

	return nil
}

func (r *OrderRepository) checkStatusFailureReason(ctx context.Context, orderID int64) error {
	var entity OrderEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", orderID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	return ErrStatusConflict
}

// AssignDriver claims the order for a driver; only one driver can win.
func (r *OrderRepository) AssignDriver(ctx context.Context, orderID, driverID int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&OrderEntity{}).
		Where("id = ? AND (driver_id IS NULL OR driver_id = ?)", orderID, driverID).
		Update("driver_id", driverID)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.checkStatusFailureReason(ctx, orderID)
	}

	return nil
}

// ConfirmPayment flips the payment status exactly once.
func (r *OrderRepository) ConfirmPayment(ctx context.Context, orderID int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&OrderEntity{}).
		Where("id = ? AND payment_status = ?", orderID, string(model.PaymentPending)).
		Update("payment_status", string(model.PaymentConfirmed))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.checkStatusFailureReason(ctx, orderID)
	}

	return nil
}

// UpdateDriverLocation applies a ping last-write-wins by ping timestamp. A
// ping older than the stored one loses the race and returns ErrStaleLocation.
func (r *OrderRepository) UpdateDriverLocation(ctx context.Context, orderID int64, ping model.DriverPing) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&OrderEntity{}).
		Where("id = ? AND (driver_located_at IS NULL OR driver_located_at <= ?)", orderID, ping.Timestamp).
		Updates(map[string]interface{}{
			"driver_lat":        ping.Lat,
			"driver_lng":        ping.Lng,
			"driver_located_at": ping.Timestamp,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var entity OrderEntity
		err := r.Read(ctx).WithContext(ctx).
			Where("id = ?", orderID).
			First(&entity).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		return ErrStaleLocation
	}

	return nil
}
