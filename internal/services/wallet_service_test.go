package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func tierSettings() *model.Settings {
	return &model.Settings{
		BranchID:            1,
		MembershipGraceDays: 14,
		Thresholds: model.TierThresholds{
			Silver: 10_000, Gold: 50_000, Platinum: 200_000, Diamond: 500_000,
		},
	}
}

func TestWalletService_ReviewTopUp_Approve(t *testing.T) {
	ctx := context.Background()
	walletRepo := new(MockWalletRepository)
	topupRepo := new(MockTopUpRepository)
	userRepo := new(MockUserRepository)
	settingsRepo := new(MockSettingsRepository)
	svc := NewWalletService(walletRepo, topupRepo, userRepo, settingsRepo, 1)

	id := uuid.New()
	topup := &model.WalletTopUp{ID: id, UserID: 7, Amount: 60_000, Status: model.TopUpApproved}

	walletRepo.On("WithinTransaction", ctx, mock.Anything).Return(nil)
	topupRepo.On("Review", ctx, id, model.TopUpApproved, "receipt ok").Return(topup, true, nil)
	walletRepo.On("Credit", ctx, int64(7), int64(60_000), model.SourceTopUp, (*int64)(nil)).
		Return(&model.WalletTransaction{UserID: 7, Amount: 60_000, Type: model.WalletCredit, Source: model.SourceTopUp, BalanceAfter: 60_000}, nil)
	userRepo.On("Get", ctx, int64(7)).
		Return(&model.User{ID: 7, MembershipLevel: model.LevelNone}, nil)
	settingsRepo.On("GetByBranch", ctx, int64(1)).Return(tierSettings(), nil)
	userRepo.On("UpdateMembership", ctx, int64(7), model.LevelGold, (*time.Time)(nil)).Return(nil)

	reviewed, err := svc.ReviewTopUp(ctx, model.TopUpReviewRequest{
		ID:        id,
		Status:    model.TopUpApproved,
		AdminNote: "receipt ok",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TopUpApproved, reviewed.Status)

	walletRepo.AssertExpectations(t)
	userRepo.AssertCalled(t, "UpdateMembership", ctx, int64(7), model.LevelGold, (*time.Time)(nil))
}

func TestWalletService_ReviewTopUp_RejectDoesNotCredit(t *testing.T) {
	ctx := context.Background()
	walletRepo := new(MockWalletRepository)
	topupRepo := new(MockTopUpRepository)
	svc := NewWalletService(walletRepo, topupRepo, new(MockUserRepository), new(MockSettingsRepository), 1)

	id := uuid.New()
	walletRepo.On("WithinTransaction", ctx, mock.Anything).Return(nil)
	topupRepo.On("Review", ctx, id, model.TopUpRejected, "no transfer found").
		Return(&model.WalletTopUp{ID: id, Status: model.TopUpRejected}, true, nil)

	_, err := svc.ReviewTopUp(ctx, model.TopUpReviewRequest{
		ID:        id,
		Status:    model.TopUpRejected,
		AdminNote: "no transfer found",
	})
	require.NoError(t, err)

	walletRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWalletService_ReviewTopUp_RetrySameOutcomeAcked(t *testing.T) {
	ctx := context.Background()
	walletRepo := new(MockWalletRepository)
	topupRepo := new(MockTopUpRepository)
	svc := NewWalletService(walletRepo, topupRepo, new(MockUserRepository), new(MockSettingsRepository), 1)

	id := uuid.New()
	stored := &model.WalletTopUp{ID: id, UserID: 7, Amount: 60_000, Status: model.TopUpApproved}
	walletRepo.On("WithinTransaction", ctx, mock.Anything).Return(nil)
	topupRepo.On("Review", ctx, id, model.TopUpApproved, "").Return(stored, false, nil)

	reviewed, err := svc.ReviewTopUp(ctx, model.TopUpReviewRequest{ID: id, Status: model.TopUpApproved})
	require.NoError(t, err)
	assert.Equal(t, model.TopUpApproved, reviewed.Status)

	walletRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWalletService_ReviewTopUp_ConflictingOutcomeRejected(t *testing.T) {
	ctx := context.Background()
	walletRepo := new(MockWalletRepository)
	topupRepo := new(MockTopUpRepository)
	svc := NewWalletService(walletRepo, topupRepo, new(MockUserRepository), new(MockSettingsRepository), 1)

	id := uuid.New()
	walletRepo.On("WithinTransaction", ctx, mock.Anything).Return(nil)
	topupRepo.On("Review", ctx, id, model.TopUpRejected, "").Return(nil, false, repository.ErrTopUpReviewed)

	_, err := svc.ReviewTopUp(ctx, model.TopUpReviewRequest{ID: id, Status: model.TopUpRejected})
	assert.ErrorIs(t, err, ErrTopUpAlreadyReviewed)
	walletRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWalletService_ReviewTopUp_InvalidStatus(t *testing.T) {
	svc := NewWalletService(new(MockWalletRepository), new(MockTopUpRepository), new(MockUserRepository), new(MockSettingsRepository), 1)

	_, err := svc.ReviewTopUp(context.Background(), model.TopUpReviewRequest{
		ID:     uuid.New(),
		Status: model.TopUpPending,
	})
	assert.True(t, model.IsValidation(err))
}

func TestWalletService_Summary(t *testing.T) {
	ctx := context.Background()
	walletRepo := new(MockWalletRepository)
	userRepo := new(MockUserRepository)
	svc := NewWalletService(walletRepo, new(MockTopUpRepository), userRepo, new(MockSettingsRepository), 1)

	userRepo.On("Get", ctx, int64(7)).
		Return(&model.User{ID: 7, Points: 42, MembershipLevel: model.LevelGold}, nil)
	walletRepo.On("Balance", ctx, int64(7)).Return(int64(12_345), nil)
	walletRepo.On("ListTransactions", ctx, mock.Anything).
		Return([]*model.WalletTransaction{{UserID: 7, Amount: 12_345}}, int64(1), nil)

	summary, err := svc.Summary(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(12_345), summary.Balance)
	assert.Equal(t, int64(42), summary.Points)
	assert.Equal(t, model.LevelGold, summary.MembershipLevel)
	assert.Len(t, summary.Transactions, 1)
}
