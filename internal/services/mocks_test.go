package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Credit(ctx context.Context, userID, amount int64, source model.WalletSource, orderID *int64) (*model.WalletTransaction, error) {
	args := m.Called(ctx, userID, amount, source, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletTransaction), args.Error(1)
}

func (m *MockWalletRepository) Debit(ctx context.Context, userID, amount int64, source model.WalletSource, orderID *int64) (*model.WalletTransaction, error) {
	args := m.Called(ctx, userID, amount, source, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletTransaction), args.Error(1)
}

func (m *MockWalletRepository) Balance(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletRepository) ListTransactions(ctx context.Context, f model.WalletFilter) ([]*model.WalletTransaction, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.WalletTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockWalletRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockTopUpRepository struct {
	mock.Mock
}

func (m *MockTopUpRepository) Create(ctx context.Context, req model.TopUpCreateRequest) (*model.WalletTopUp, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletTopUp), args.Error(1)
}

func (m *MockTopUpRepository) Get(ctx context.Context, id uuid.UUID) (*model.WalletTopUp, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletTopUp), args.Error(1)
}

func (m *MockTopUpRepository) List(ctx context.Context, status *model.TopUpStatus, userID *int64, limit, offset int) ([]*model.WalletTopUp, int64, error) {
	args := m.Called(ctx, status, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.WalletTopUp), args.Get(1).(int64), args.Error(2)
}

func (m *MockTopUpRepository) Review(ctx context.Context, id uuid.UUID, status model.TopUpStatus, note string) (*model.WalletTopUp, bool, error) {
	args := m.Called(ctx, id, status, note)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.WalletTopUp), args.Bool(1), args.Error(2)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateMembership(ctx context.Context, userID int64, level model.MembershipLevel, graceAt *time.Time) error {
	args := m.Called(ctx, userID, level, graceAt)
	return args.Error(0)
}

type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) GetByBranch(ctx context.Context, branchID int64) (*model.Settings, error) {
	args := m.Called(ctx, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Settings), args.Error(1)
}

func (m *MockSettingsRepository) Save(ctx context.Context, s *model.Settings) (*model.Settings, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Settings), args.Error(1)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) Get(ctx context.Context, id int64) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error {
	args := m.Called(ctx, orderID, from, to)
	return args.Error(0)
}

func (m *MockOrderRepository) AssignDriver(ctx context.Context, orderID, driverID int64) error {
	args := m.Called(ctx, orderID, driverID)
	return args.Error(0)
}

func (m *MockOrderRepository) ConfirmPayment(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateDriverLocation(ctx context.Context, orderID int64, ping model.DriverPing) error {
	args := m.Called(ctx, orderID, ping)
	return args.Error(0)
}

func (m *MockOrderRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockPointsRepository struct {
	mock.Mock
}

func (m *MockPointsRepository) Earn(ctx context.Context, userID, points int64, orderID *int64) (*model.PointsTransaction, error) {
	args := m.Called(ctx, userID, points, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PointsTransaction), args.Error(1)
}

func (m *MockPointsRepository) Redeem(ctx context.Context, userID, points int64, orderID *int64) (*model.PointsTransaction, error) {
	args := m.Called(ctx, userID, points, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PointsTransaction), args.Error(1)
}

type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) Create(ctx context.Context, c *model.Coupon) (*model.Coupon, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) Update(ctx context.Context, c *model.Coupon) (*model.Coupon, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCouponRepository) GetByID(ctx context.Context, id int64) (*model.Coupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) List(ctx context.Context, f model.CouponFilter) ([]*model.Coupon, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Coupon), args.Get(1).(int64), args.Error(2)
}

func (m *MockCouponRepository) RedemptionCount(ctx context.Context, couponID, userID int64) (int64, error) {
	args := m.Called(ctx, couponID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCouponRepository) Redeem(ctx context.Context, couponID, userID, maxPerUser int64) error {
	args := m.Called(ctx, couponID, userID, maxPerUser)
	return args.Error(0)
}
