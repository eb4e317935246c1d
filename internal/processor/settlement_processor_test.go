package processor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	gateway "github.com/shamcart/grocer-gateway/internal/gateways"
	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/internal/queue"
	"github.com/shamcart/grocer-gateway/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPointsLedger struct {
	mock.Mock
}

func (m *MockPointsLedger) Earn(ctx context.Context, userID, points int64, orderID *int64) (*model.PointsTransaction, error) {
	args := m.Called(ctx, userID, points, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PointsTransaction), args.Error(1)
}

type MockSettingsReader struct {
	mock.Mock
}

func (m *MockSettingsReader) GetByBranch(ctx context.Context, branchID int64) (*model.Settings, error) {
	args := m.Called(ctx, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Settings), args.Error(1)
}

type MockBalanceReader struct {
	mock.Mock
}

func (m *MockBalanceReader) Balance(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockTierEvaluator struct {
	mock.Mock
}

func (m *MockTierEvaluator) ReevaluateTier(ctx context.Context, userID, balance int64) error {
	args := m.Called(ctx, userID, balance)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, req *gateway.PushRequest) (*gateway.PushResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PushResponse), args.Error(1)
}

type settlementFixture struct {
	points   *MockPointsLedger
	settings *MockSettingsReader
	balances *MockBalanceReader
	tiers    *MockTierEvaluator
	notifier *MockNotifier
	proc     *SettlementProcessor
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	_, adapter := setupTestRedis(t)
	f := &settlementFixture{
		points:   new(MockPointsLedger),
		settings: new(MockSettingsReader),
		balances: new(MockBalanceReader),
		tiers:    new(MockTierEvaluator),
		notifier: new(MockNotifier),
	}
	idem := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	f.proc = NewSettlementProcessor(f.points, f.settings, f.balances, f.tiers, f.notifier, idem)
	return f
}

func settlementMessage(t *testing.T, event model.SettlementEvent) *queue.Message {
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return &queue.Message{
		ID:        "1-0",
		Data:      data,
		Timestamp: time.Now(),
	}
}

func testEvent() model.SettlementEvent {
	return model.SettlementEvent{
		OrderID:       501,
		UserID:        7,
		BranchID:      1,
		Subtotal:      40_000,
		Discount:      4_000,
		PaymentMethod: model.PayWallet,
		SettledAt:     time.Now().Add(-2 * time.Second),
	}
}

func TestSettlementProcessor_AwardsPointsAndReevaluates(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	event := testEvent()

	f.settings.On("GetByBranch", mock.Anything, int64(1)).
		Return(&model.Settings{BranchID: 1, PointsPerAmount: 1_000}, nil)
	// (40000 - 4000) / 1000 = 36 points
	f.points.On("Earn", mock.Anything, int64(7), int64(36), mock.Anything).
		Return(&model.PointsTransaction{UserID: 7, Points: 36, Type: model.PointsEarn}, nil)
	f.balances.On("Balance", mock.Anything, int64(7)).Return(int64(120_000), nil)
	f.tiers.On("ReevaluateTier", mock.Anything, int64(7), int64(120_000)).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(req *gateway.PushRequest) bool {
		return req.UserID == 7 && req.OrderID == 501
	})).Return(&gateway.PushResponse{Accepted: true, DeviceCount: 1}, nil)

	err := f.proc.Process(ctx, settlementMessage(t, event))
	require.NoError(t, err)

	f.points.AssertExpectations(t)
	f.tiers.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestSettlementProcessor_SecondDeliveryIsNoop(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	event := testEvent()

	f.settings.On("GetByBranch", mock.Anything, int64(1)).
		Return(&model.Settings{BranchID: 1, PointsPerAmount: 1_000}, nil)
	f.points.On("Earn", mock.Anything, int64(7), int64(36), mock.Anything).
		Return(&model.PointsTransaction{}, nil)
	f.balances.On("Balance", mock.Anything, int64(7)).Return(int64(0), nil)
	f.tiers.On("ReevaluateTier", mock.Anything, int64(7), int64(0)).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(&gateway.PushResponse{Accepted: true}, nil)

	require.NoError(t, f.proc.Process(ctx, settlementMessage(t, event)))
	require.NoError(t, f.proc.Process(ctx, settlementMessage(t, event)))

	f.points.AssertNumberOfCalls(t, "Earn", 1)
}

func TestSettlementProcessor_PushFailureDoesNotFailSettlement(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	event := testEvent()

	f.settings.On("GetByBranch", mock.Anything, int64(1)).
		Return(&model.Settings{BranchID: 1, PointsPerAmount: 1_000}, nil)
	f.points.On("Earn", mock.Anything, int64(7), int64(36), mock.Anything).
		Return(&model.PointsTransaction{}, nil)
	f.balances.On("Balance", mock.Anything, int64(7)).Return(int64(0), nil)
	f.tiers.On("ReevaluateTier", mock.Anything, int64(7), int64(0)).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	err := f.proc.Process(ctx, settlementMessage(t, event))
	require.NoError(t, err)

	settled, err := f.proc.idempotency.IsSettled(ctx, "501")
	require.NoError(t, err)
	assert.True(t, settled)
}

func TestSettlementProcessor_EarnFailureRetries(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	event := testEvent()

	f.settings.On("GetByBranch", mock.Anything, int64(1)).
		Return(&model.Settings{BranchID: 1, PointsPerAmount: 1_000}, nil)
	f.points.On("Earn", mock.Anything, int64(7), int64(36), mock.Anything).
		Return(nil, assert.AnError)

	err := f.proc.Process(ctx, settlementMessage(t, event))
	require.Error(t, err)

	count, err := f.proc.idempotency.GetRetryCount(ctx, "501")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	f.tiers.AssertNotCalled(t, "ReevaluateTier", mock.Anything, mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestSettlementProcessor_BranchWithoutSettingsEarnsNothing(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	event := testEvent()
	event.BranchID = 99

	f.settings.On("GetByBranch", mock.Anything, int64(99)).
		Return(nil, repository.ErrSettingsNotFound)
	f.balances.On("Balance", mock.Anything, int64(7)).Return(int64(0), nil)
	f.tiers.On("ReevaluateTier", mock.Anything, int64(7), int64(0)).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(&gateway.PushResponse{Accepted: true}, nil)

	err := f.proc.Process(ctx, settlementMessage(t, event))
	require.NoError(t, err)

	f.points.AssertNotCalled(t, "Earn", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementProcessor_MalformedPayload(t *testing.T) {
	f := newSettlementFixture(t)
	msg := &queue.Message{ID: "1-0", Data: []byte("{not json")}

	err := f.proc.Process(context.Background(), msg)
	require.Error(t, err)
}
