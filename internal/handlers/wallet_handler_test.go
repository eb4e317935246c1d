package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) Summary(ctx context.Context, userID int64) (*services.WalletSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.WalletSummary), args.Error(1)
}

func (m *MockWalletService) RequestTopUp(ctx context.Context, req model.TopUpCreateRequest) (*model.WalletTopUp, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletTopUp), args.Error(1)
}

func (m *MockWalletService) ListTopUps(ctx context.Context, status *model.TopUpStatus, userID *int64, limit, offset int) ([]*model.WalletTopUp, int64, error) {
	args := m.Called(ctx, status, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.WalletTopUp), args.Get(1).(int64), args.Error(2)
}

func (m *MockWalletService) ReviewTopUp(ctx context.Context, req model.TopUpReviewRequest) (*model.WalletTopUp, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletTopUp), args.Error(1)
}

func TestWalletHandler_GetWallet(t *testing.T) {
	svc := new(MockWalletService)
	handler := NewWalletHandler(svc)

	svc.On("Summary", mock.Anything, int64(7)).Return(&services.WalletSummary{
		Balance:         42_000,
		Points:          120,
		MembershipLevel: model.LevelSilver,
	}, nil)

	ctx := asCustomer(setupTestContext("GET", "/wallet", nil), 7)
	handler.GetWallet(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())

	var summary services.WalletSummary
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &summary))
	assert.Equal(t, int64(42_000), summary.Balance)
	svc.AssertExpectations(t)
}

func TestWalletHandler_RequestTopUp(t *testing.T) {
	svc := new(MockWalletService)
	handler := NewWalletHandler(svc)

	svc.On("RequestTopUp", mock.Anything, mock.MatchedBy(func(r model.TopUpCreateRequest) bool {
		return r.UserID == 7 && r.Amount == 50_000
	})).Return(&model.WalletTopUp{ID: uuid.New(), UserID: 7, Amount: 50_000, Status: model.TopUpPending}, nil)

	body := []byte(`{"amount":50000,"method":"BANK_TRANSFER"}`)
	ctx := asCustomer(setupTestContext("POST", "/wallet/topups", body), 7)
	handler.RequestTopUp(ctx)

	assert.Equal(t, 201, ctx.Response.StatusCode())
	svc.AssertExpectations(t)
}

func TestWalletHandler_ListTopUps(t *testing.T) {
	t.Run("customer is scoped to own requests", func(t *testing.T) {
		svc := new(MockWalletService)
		handler := NewWalletHandler(svc)

		svc.On("ListTopUps", mock.Anything, (*model.TopUpStatus)(nil), mock.MatchedBy(func(userID *int64) bool {
			return userID != nil && *userID == 7
		}), 0, 0).Return([]*model.WalletTopUp{}, int64(0), nil)

		ctx := asCustomer(setupTestContext("GET", "/wallet/topups", nil), 7)
		handler.ListTopUps(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("staff filters by status", func(t *testing.T) {
		svc := new(MockWalletService)
		handler := NewWalletHandler(svc)

		svc.On("ListTopUps", mock.Anything, mock.MatchedBy(func(status *model.TopUpStatus) bool {
			return status != nil && *status == model.TopUpPending
		}), (*int64)(nil), 20, 0).Return([]*model.WalletTopUp{}, int64(0), nil)

		ctx := asRole(setupTestContext("GET", "/wallet/topups?status=PENDING&limit=20", nil), 3, model.RoleAdmin)
		handler.ListTopUps(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})
}

func TestWalletHandler_ReviewTopUp(t *testing.T) {
	id := uuid.New()

	t.Run("staff approves", func(t *testing.T) {
		svc := new(MockWalletService)
		handler := NewWalletHandler(svc)

		svc.On("ReviewTopUp", mock.Anything, mock.MatchedBy(func(r model.TopUpReviewRequest) bool {
			return r.ID == id && r.Status == model.TopUpApproved && r.AdminNote == "receipt verified"
		})).Return(&model.WalletTopUp{ID: id, Status: model.TopUpApproved}, nil)

		body := []byte(`{"status":"APPROVED","admin_note":"receipt verified"}`)
		ctx := asRole(setupTestContext("PUT", "/wallet/topups/"+id.String(), body), 3, model.RoleAdmin)
		ctx.SetUserValue("id", id.String())
		handler.ReviewTopUp(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("customer cannot review", func(t *testing.T) {
		svc := new(MockWalletService)
		handler := NewWalletHandler(svc)

		ctx := asCustomer(setupTestContext("PUT", "/wallet/topups/"+id.String(), []byte(`{"status":"APPROVED"}`)), 7)
		ctx.SetUserValue("id", id.String())
		handler.ReviewTopUp(ctx)

		assert.Equal(t, 403, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "ReviewTopUp", mock.Anything, mock.Anything)
	})

	t.Run("second review maps to 409", func(t *testing.T) {
		svc := new(MockWalletService)
		handler := NewWalletHandler(svc)

		svc.On("ReviewTopUp", mock.Anything, mock.Anything).
			Return(nil, services.ErrTopUpAlreadyReviewed)

		ctx := asRole(setupTestContext("PUT", "/wallet/topups/"+id.String(), []byte(`{"status":"REJECTED"}`)), 3, model.RoleAdmin)
		ctx.SetUserValue("id", id.String())
		handler.ReviewTopUp(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
	})

	t.Run("malformed id", func(t *testing.T) {
		svc := new(MockWalletService)
		handler := NewWalletHandler(svc)

		ctx := asRole(setupTestContext("PUT", "/wallet/topups/nope", []byte(`{"status":"APPROVED"}`)), 3, model.RoleAdmin)
		ctx.SetUserValue("id", "nope")
		handler.ReviewTopUp(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}
