package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	gateway "github.com/shamcart/grocer-gateway/internal/gateways"
	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/internal/pricing"
	"github.com/shamcart/grocer-gateway/internal/queue"
	"github.com/shamcart/grocer-gateway/internal/repository"
	"github.com/shamcart/grocer-gateway/pkg/logger"
	"github.com/shamcart/grocer-gateway/pkg/prom"
)

type PointsLedger interface {
	Earn(ctx context.Context, userID, points int64, orderID *int64) (*model.PointsTransaction, error)
}

type SettingsReader interface {
	GetByBranch(ctx context.Context, branchID int64) (*model.Settings, error)
}

type BalanceReader interface {
	Balance(ctx context.Context, userID int64) (int64, error)
}

type TierEvaluator interface {
	ReevaluateTier(ctx context.Context, userID, balance int64) error
}

type Notifier interface {
	Notify(ctx context.Context, req *gateway.PushRequest) (*gateway.PushResponse, error)
}

// SettlementProcessor consumes settlement events and performs the off-path
// half of an order: award loyalty points, re-evaluate the membership tier,
// and tell the customer. The push notification is best-effort; the ledger
// work is not.
type SettlementProcessor struct {
	points      PointsLedger
	settings    SettingsReader
	balances    BalanceReader
	tiers       TierEvaluator
	notifier    Notifier
	idempotency *IdempotencyService
}

func NewSettlementProcessor(points PointsLedger, settings SettingsReader, balances BalanceReader, tiers TierEvaluator, notifier Notifier, idempotency *IdempotencyService) *SettlementProcessor {
	return &SettlementProcessor{
		points:      points,
		settings:    settings,
		balances:    balances,
		tiers:       tiers,
		notifier:    notifier,
		idempotency: idempotency,
	}
}

func (p *SettlementProcessor) GetType() string {
	return "settlement"
}

func (p *SettlementProcessor) Process(ctx context.Context, queueMessage *queue.Message) error {
	var event model.SettlementEvent
	if err := json.Unmarshal(queueMessage.Data, &event); err != nil {
		logger.Error("failed to unmarshal settlement event", "error", err)
		return err // malformed payload goes to the DLQ
	}

	orderKey := strconv.FormatInt(event.OrderID, 10)

	sc, err := p.idempotency.AcquireSettlementLock(ctx, orderKey)
	if err != nil {
		if errors.Is(err, ErrAlreadySettled) {
			logger.Info("order already settled, skipping", "order_id", event.OrderID)
			return nil
		}
		if errors.Is(err, ErrMaxRetriesExceeded) {
			logger.Error("settlement abandoned after max retries", "order_id", event.OrderID)
			return nil // ACK so the DLQ reclaim does not spin on it
		}
		if errors.Is(err, ErrLockAcquireFailed) {
			return errors.New("settlement lock held by another consumer")
		}
		logger.Error("failed to acquire settlement lock", "order_id", event.OrderID, "error", err)
		return err
	}

	defer func() {
		if sc.lockAcquired {
			p.idempotency.ReleaseLock(ctx, sc)
		}
	}()

	logger.Info("settling order",
		"order_id", event.OrderID,
		"user_id", event.UserID,
		"payment_method", event.PaymentMethod,
		"retry_count", sc.RetryCount)

	points, err := p.awardPoints(ctx, event)
	if err != nil {
		logger.Error("failed to award points", "order_id", event.OrderID, "error", err)
		if markErr := p.idempotency.MarkFailure(ctx, sc, err); markErr != nil {
			logger.Error("failed to mark settlement failure", "order_id", event.OrderID, "error", markErr)
		}
		return err
	}

	if err := p.reevaluateTier(ctx, event.UserID); err != nil {
		logger.Error("failed to re-evaluate membership", "order_id", event.OrderID, "user_id", event.UserID, "error", err)
		if markErr := p.idempotency.MarkFailure(ctx, sc, err); markErr != nil {
			logger.Error("failed to mark settlement failure", "order_id", event.OrderID, "error", markErr)
		}
		return err
	}

	p.notifyCustomer(ctx, event, points)

	prom.AddOrderSettlementDuration(time.Since(event.SettledAt).Seconds(), string(event.PaymentMethod))

	if markErr := p.idempotency.MarkSettled(ctx, sc); markErr != nil {
		logger.Error("failed to mark settlement done", "order_id", event.OrderID, "error", markErr)
		// The points are in the ledger; the duplicate guard on earn keeps a
		// redelivery harmless, so still ACK.
	}

	return nil
}

// awardPoints credits the points earned by the order. A branch without
// settings earns nothing, as does a branch with a zero points rate.
func (p *SettlementProcessor) awardPoints(ctx context.Context, event model.SettlementEvent) (int64, error) {
	settings, err := p.settings.GetByBranch(ctx, event.BranchID)
	if err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			logger.Warn("branch has no settings, no points awarded", "branch_id", event.BranchID, "order_id", event.OrderID)
			return 0, nil
		}
		return 0, err
	}

	points := pricing.EarnedPoints(event.Subtotal, event.Discount, settings.PointsPerAmount)
	if points == 0 {
		return 0, nil
	}

	orderID := event.OrderID
	if _, err := p.points.Earn(ctx, event.UserID, points, &orderID); err != nil {
		return 0, err
	}

	logger.Info("points awarded", "order_id", event.OrderID, "user_id", event.UserID, "points", points)
	return points, nil
}

func (p *SettlementProcessor) reevaluateTier(ctx context.Context, userID int64) error {
	balance, err := p.balances.Balance(ctx, userID)
	if err != nil {
		return err
	}
	return p.tiers.ReevaluateTier(ctx, userID, balance)
}

// notifyCustomer is fire-and-forget: a push failure never rolls back or
// retries the settlement.
func (p *SettlementProcessor) notifyCustomer(ctx context.Context, event model.SettlementEvent, points int64) {
	if p.notifier == nil {
		return
	}

	body := fmt.Sprintf("Your order #%d has been settled.", event.OrderID)
	if points > 0 {
		body = fmt.Sprintf("Your order #%d has been settled. You earned %d points.", event.OrderID, points)
	}

	req := &gateway.PushRequest{
		UserID:  event.UserID,
		OrderID: event.OrderID,
		Title:   "Order settled",
		Body:    body,
	}

	if _, err := p.notifier.Notify(ctx, req); err != nil {
		logger.Warn("push notification failed", "order_id", event.OrderID, "user_id", event.UserID, "error", err)
	}
}
