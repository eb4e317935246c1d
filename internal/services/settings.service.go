package services

import (
	"context"
	"errors"

	"github.com/shamcart/grocer-gateway/internal/geo"
	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/internal/repository"
)

var ErrSettingsNotFound = errors.New("branch settings not found")

type SettingsService struct {
	settingsRepo SettingsRepository
}

func NewSettingsService(settingsRepo SettingsRepository) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
	}
}

func (s *SettingsService) Get(ctx context.Context, branchID int64) (*model.Settings, error) {
	settings, err := s.settingsRepo.GetByBranch(ctx, branchID)
	if err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	return settings, nil
}

func (s *SettingsService) Save(ctx context.Context, settings *model.Settings) (*model.Settings, error) {
	if settings.BranchID == 0 {
		return nil, model.Invalid("branch_id is required")
	}
	if err := geo.ValidateCoordinate(settings.StoreLat, settings.StoreLng); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return s.settingsRepo.Save(ctx, settings)
}
