package repository

import (
	"context"
	"errors"

	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSettingsNotFound = errors.New("branch settings not found")

type SettingsRepository struct {
	*pg.DB
}

func NewSettingsRepository(db *pg.DB) *SettingsRepository {
	return &SettingsRepository{
		db,
	}
}

func (r *SettingsRepository) GetByBranch(ctx context.Context, branchID int64) (*model.Settings, error) {
	var entity SettingsEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("branch_id = ?", branchID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}

	return toSettingsModel(&entity), nil
}

// Save upserts the branch row; settings are written whole, never patched.
func (r *SettingsRepository) Save(ctx context.Context, s *model.Settings) (*model.Settings, error) {
	entity := toSettingsEntity(s)

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "branch_id"}},
			UpdateAll: true,
		}).
		Create(entity).
		Error

	if err != nil {
		return nil, err
	}

	return toSettingsModel(entity), nil
}
