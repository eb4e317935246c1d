package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shamcart/grocer-gateway/internal/geo"
	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/internal/pricing"
	"github.com/shamcart/grocer-gateway/internal/queue"
	"github.com/shamcart/grocer-gateway/internal/repository"
	"github.com/shamcart/grocer-gateway/pkg/logger"
	"github.com/shamcart/grocer-gateway/pkg/prom"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
	Get(ctx context.Context, id int64) (*model.Order, error)
	List(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error)
	UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error
	AssignDriver(ctx context.Context, orderID, driverID int64) error
	ConfirmPayment(ctx context.Context, orderID int64) error
	UpdateDriverLocation(ctx context.Context, orderID int64, ping model.DriverPing) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type PointsRepository interface {
	Earn(ctx context.Context, userID, points int64, orderID *int64) (*model.PointsTransaction, error)
	Redeem(ctx context.Context, userID, points int64, orderID *int64) (*model.PointsTransaction, error)
}

// CouponChecker is the slice of CouponService that checkout needs.
type CouponChecker interface {
	Validate(ctx context.Context, code string, user *model.User, cart []model.CheckoutItem, now time.Time) (*model.Coupon, error)
	Redeem(ctx context.Context, c *model.Coupon, userID int64) error
}

type OrderService struct {
	orderRepo    OrderRepository
	walletRepo   WalletRepository
	pointsRepo   PointsRepository
	userRepo     UserRepository
	settingsRepo SettingsRepository
	coupons      CouponChecker
	wallet       *WalletService
	settledQueue *queue.Queue
}

func NewOrderService(
	orderRepo OrderRepository,
	walletRepo WalletRepository,
	pointsRepo PointsRepository,
	userRepo UserRepository,
	settingsRepo SettingsRepository,
	coupons CouponChecker,
	wallet *WalletService,
	settledQueue *queue.Queue,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		walletRepo:   walletRepo,
		pointsRepo:   pointsRepo,
		userRepo:     userRepo,
		settingsRepo: settingsRepo,
		coupons:      coupons,
		wallet:       wallet,
		settledQueue: settledQueue,
	}
}

// Checkout prices the cart server-side and commits the order together with
// every ledger movement it implies in a single transaction. Client-computed
// totals are never accepted.
func (s *OrderService) Checkout(ctx context.Context, req model.CheckoutRequest) (*model.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := geo.ValidateCoordinate(req.Lat, req.Lng); err != nil {
		return nil, err
	}

	settings, err := s.settingsRepo.GetByBranch(ctx, req.BranchID)
	if err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			return nil, model.Invalid("branch %d is not configured", req.BranchID)
		}
		return nil, err
	}

	user, err := s.userRepo.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	distance := geo.Distance(settings.StoreLat, settings.StoreLng, req.Lat, req.Lng)
	now := time.Now()

	// the same code submitted twice counts once
	codes := dedupeCodes(req.CouponCodes)

	coupons := make([]model.Coupon, 0, len(codes))
	validated := make([]*model.Coupon, 0, len(codes))
	for _, code := range codes {
		c, err := s.coupons.Validate(ctx, code, user, req.Items, now)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, *c)
		validated = append(validated, c)
	}

	quote, err := pricing.Compute(*settings, req.Items, coupons, req.UseReward, user.Points, distance)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		Reference:          uuid.NewString(),
		UserID:             req.UserID,
		BranchID:           req.BranchID,
		Items:              toOrderItems(req.Items),
		Subtotal:           quote.Subtotal,
		Discount:           quote.Discount + quote.RewardDeduction,
		DeliveryFee:        quote.DeliveryFee,
		Total:              quote.Total,
		Status:             model.OrderPending,
		PaymentMethod:      req.PaymentMethod,
		PaymentStatus:      model.PaymentPending,
		Address:            req.Address,
		Lat:                req.Lat,
		Lng:                req.Lng,
		DeliveryDistanceKm: distance,
		CouponCodes:        codes,
	}
	if req.PaymentMethod == model.PayWallet {
		// the debit below settles the order at checkout
		order.PaymentStatus = model.PaymentConfirmed
	}

	var created *model.Order
	err = s.orderRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		created, err = s.orderRepo.Create(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if req.UseReward {
			if _, err := s.pointsRepo.Redeem(ctx, user.ID, settings.RewardThresholdPts, &created.ID); err != nil {
				return err
			}
		}

		if req.PaymentMethod == model.PayWallet {
			txn, err := s.walletRepo.Debit(ctx, user.ID, created.Total, model.SourceOrderPayment, &created.ID)
			if err != nil {
				return err
			}
			prom.IncWalletTransactions(string(txn.Type), string(txn.Source))

			if err := s.wallet.ReevaluateTier(ctx, user.ID, txn.BalanceAfter); err != nil {
				return err
			}
		}

		for _, c := range validated {
			if err := s.coupons.Redeem(ctx, c, user.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// published only once the transaction is committed, so the processor
	// never sees an order that was rolled back
	if req.PaymentMethod == model.PayWallet {
		s.publishSettlement(ctx, created)
	}

	prom.IncOrdersCreated(string(created.PaymentMethod))
	return created, nil
}

func (s *OrderService) Get(ctx context.Context, principal model.Principal, id int64) (*model.Order, error) {
	order, err := s.orderRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !s.canSee(principal, order) {
		// hide existence from strangers
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context, principal model.Principal, f model.OrderFilter) ([]*model.Order, int64, error) {
	switch principal.Role {
	case model.RoleCustomer:
		f.UserID = &principal.UserID
		f.DriverID = nil
	case model.RoleDriver:
		f.DriverID = &principal.UserID
		f.UserID = nil
	}
	return s.orderRepo.List(ctx, f)
}

// UpdateStatus moves the order along the state machine with role gating.
// Staff advance or cancel any order; a driver only walks their own order
// PROCESSING→SHIPPING→DELIVERED, claiming it at the first step.
func (s *OrderService) UpdateStatus(ctx context.Context, principal model.Principal, req model.StatusUpdateRequest) (*model.Order, error) {
	if !req.Status.Valid() && req.Status != "" {
		return nil, model.Invalid("unknown order status %q", req.Status)
	}
	if !principal.Role.CanAdvanceOrders() {
		return nil, model.ErrForbidden
	}

	order, err := s.orderRepo.Get(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	var toSettle []*model.Order
	err = s.orderRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		if req.Status != "" && req.Status != order.Status {
			settled, err := s.applyTransition(ctx, principal, order, req.Status)
			if err != nil {
				return err
			}
			if settled != nil {
				toSettle = append(toSettle, settled)
			}
		}

		if req.PaymentStatus != nil && *req.PaymentStatus == model.PaymentConfirmed {
			settled, err := s.confirmPayment(ctx, principal, order)
			if err != nil {
				return err
			}
			if settled != nil {
				toSettle = append(toSettle, settled)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// settlement events go out only after the commit
	for _, settled := range toSettle {
		s.publishSettlement(ctx, settled)
	}

	return s.orderRepo.Get(ctx, req.OrderID)
}

// applyTransition moves the row and reports the order snapshot to settle
// once the surrounding transaction commits, or nil when the transition does
// not settle anything.
func (s *OrderService) applyTransition(ctx context.Context, principal model.Principal, order *model.Order, next model.OrderStatus) (*model.Order, error) {
	if !order.Status.CanTransitionTo(next) {
		return nil, model.ErrInvalidTransition
	}

	if principal.Role == model.RoleDriver {
		if err := s.checkDriverTransition(principal, order, next); err != nil {
			return nil, err
		}
		if order.DriverID == nil {
			if err := s.orderRepo.AssignDriver(ctx, order.ID, principal.UserID); err != nil {
				return nil, mapStatusErr(err)
			}
		}
	}

	if err := s.orderRepo.UpdateStatus(ctx, order.ID, order.Status, next); err != nil {
		return nil, mapStatusErr(err)
	}
	order.Status = next

	// COD settles when the driver hands the order over
	if next == model.OrderDelivered && order.PaymentMethod == model.PayCashOnDelivery {
		settled := *order
		return &settled, nil
	}
	return nil, nil
}

func (s *OrderService) checkDriverTransition(principal model.Principal, order *model.Order, next model.OrderStatus) error {
	if order.DriverID != nil && *order.DriverID != principal.UserID {
		return model.ErrForbidden
	}

	allowed := (order.Status == model.OrderProcessing && next == model.OrderShipping) ||
		(order.Status == model.OrderShipping && next == model.OrderDelivered)
	if !allowed {
		return model.ErrForbidden
	}
	return nil
}

// confirmPayment marks a manual-method payment confirmed and reports the
// snapshot to settle after commit.
func (s *OrderService) confirmPayment(ctx context.Context, principal model.Principal, order *model.Order) (*model.Order, error) {
	if !principal.Role.IsStaff() {
		return nil, model.ErrForbidden
	}
	if !order.PaymentMethod.ManualSettlement() {
		return nil, model.Invalid("payment method %s does not take manual confirmation", order.PaymentMethod)
	}
	if order.PaymentStatus == model.PaymentConfirmed {
		return nil, nil
	}

	if err := s.orderRepo.ConfirmPayment(ctx, order.ID); err != nil {
		return nil, mapStatusErr(err)
	}
	order.PaymentStatus = model.PaymentConfirmed

	settled := *order
	return &settled, nil
}

// UpdateDriverLocation applies a ping from the assigned driver while the
// order is SHIPPING. Last write wins by ping timestamp; a stale ping is
// acknowledged and dropped.
func (s *OrderService) UpdateDriverLocation(ctx context.Context, principal model.Principal, ping model.DriverPing) error {
	if principal.Role != model.RoleDriver {
		return model.ErrForbidden
	}
	if err := geo.ValidateCoordinate(ping.Lat, ping.Lng); err != nil {
		return err
	}
	if ping.Timestamp.IsZero() {
		ping.Timestamp = time.Now()
	}

	order, err := s.orderRepo.Get(ctx, ping.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	if order.DriverID == nil || *order.DriverID != principal.UserID {
		return model.ErrForbidden
	}
	if order.Status != model.OrderShipping {
		return model.Invalid("driver location is tracked only while shipping")
	}

	err = s.orderRepo.UpdateDriverLocation(ctx, ping.OrderID, ping)
	if errors.Is(err, repository.ErrStaleLocation) {
		// older than the stored ping; ack without applying
		return nil
	}
	return err
}

// publishSettlement emits the settlement event for a committed order. It
// must never run while a ledger transaction is open; callers invoke it after
// WithinTransaction returns.
func (s *OrderService) publishSettlement(ctx context.Context, order *model.Order) {
	if s.settledQueue == nil {
		return
	}

	event := model.SettlementEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		BranchID:      order.BranchID,
		Subtotal:      order.Subtotal,
		Discount:      order.Discount,
		PaymentMethod: order.PaymentMethod,
		SettledAt:     time.Now(),
	}

	if _, err := s.settledQueue.PublishJSON(ctx, event, map[string]string{"type": "settlement"}); err != nil {
		// the processor reconciles from the stream; a lost publish is logged,
		// not fatal to the order
		logger.Error("publish settlement event failed", "order_id", order.ID, "err", err)
	}
}

func (s *OrderService) canSee(p model.Principal, order *model.Order) bool {
	switch p.Role {
	case model.RoleCustomer:
		return order.UserID == p.UserID
	case model.RoleDriver:
		return order.DriverID != nil && *order.DriverID == p.UserID
	default:
		return p.Role.IsStaff()
	}
}

func mapStatusErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		return ErrOrderNotFound
	case errors.Is(err, repository.ErrStatusConflict):
		return model.ErrInvalidTransition
	default:
		return err
	}
}

func toOrderItems(items []model.CheckoutItem) []model.OrderItem {
	out := make([]model.OrderItem, len(items))
	for i, it := range items {
		out[i] = model.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}
	return out
}

// dedupeCodes normalizes coupon codes and drops repeats, keeping first-seen
// order.
func dedupeCodes(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		n := model.NormalizeCode(c)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
