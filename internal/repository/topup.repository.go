package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrTopUpNotFound = errors.New("top-up request not found")
	// ErrTopUpReviewed means the request was already resolved with a
	// different outcome; repeating the stored outcome is acknowledged.
	ErrTopUpReviewed = errors.New("top-up request already reviewed")
)

type TopUpRepository struct {
	*pg.DB
}

func NewTopUpRepository(db *pg.DB) *TopUpRepository {
	return &TopUpRepository{
		db,
	}
}

func (r *TopUpRepository) Create(ctx context.Context, req model.TopUpCreateRequest) (*model.WalletTopUp, error) {
	entity := &TopUpEntity{
		Model:  pg.Model{ID: uuid.New()},
		UserID: req.UserID,
		Amount: req.Amount,
		Method: string(req.Method),
		Status: string(model.TopUpPending),
	}

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toTopUpModel(entity), nil
}

func (r *TopUpRepository) Get(ctx context.Context, id uuid.UUID) (*model.WalletTopUp, error) {
	var entity TopUpEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTopUpNotFound
		}
		return nil, err
	}

	return toTopUpModel(&entity), nil
}

func (r *TopUpRepository) List(ctx context.Context, status *model.TopUpStatus, userID *int64, limit, offset int) ([]*model.WalletTopUp, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&TopUpEntity{})

	if status != nil {
		q = q.Where("status = ?", string(*status))
	}
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var entities []*TopUpEntity
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toTopUpModels(entities), total, nil
}

// Review resolves a pending request, conditional on it still being pending.
// Two admins reviewing the same request cannot both win: applied reports
// whether this call moved the row. A retry carrying the outcome already
// stored is a no-op ack; a conflicting outcome is rejected.
func (r *TopUpRepository) Review(ctx context.Context, id uuid.UUID, status model.TopUpStatus, note string) (*model.WalletTopUp, bool, error) {
	result := r.Write(ctx).WithContext(ctx).
		Model(&TopUpEntity{}).
		Where("id = ? AND status = ?", id, string(model.TopUpPending)).
		Updates(map[string]interface{}{
			"status":     string(status),
			"admin_note": note,
		})

	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 0 {
		stored, err := r.Get(ctx, id)
		if err != nil {
			return nil, false, err
		}
		if stored.Status == status {
			return stored, false, nil
		}
		return nil, false, ErrTopUpReviewed
	}

	reviewed, err := r.Get(ctx, id)
	return reviewed, true, err
}
