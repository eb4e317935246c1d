package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shamcart/grocer-gateway/internal/membership"
	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/internal/repository"
	"github.com/shamcart/grocer-gateway/pkg/logger"
	"github.com/shamcart/grocer-gateway/pkg/prom"
)

// ErrTopUpAlreadyReviewed means the request was resolved with a different
// outcome than the one submitted. Repeating the stored outcome succeeds
// without moving money again.
var ErrTopUpAlreadyReviewed = errors.New("top-up request already reviewed")

type WalletRepository interface {
	Credit(ctx context.Context, userID, amount int64, source model.WalletSource, orderID *int64) (*model.WalletTransaction, error)
	Debit(ctx context.Context, userID, amount int64, source model.WalletSource, orderID *int64) (*model.WalletTransaction, error)
	Balance(ctx context.Context, userID int64) (int64, error)
	ListTransactions(ctx context.Context, f model.WalletFilter) ([]*model.WalletTransaction, int64, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type TopUpRepository interface {
	Create(ctx context.Context, req model.TopUpCreateRequest) (*model.WalletTopUp, error)
	Get(ctx context.Context, id uuid.UUID) (*model.WalletTopUp, error)
	List(ctx context.Context, status *model.TopUpStatus, userID *int64, limit, offset int) ([]*model.WalletTopUp, int64, error)
	Review(ctx context.Context, id uuid.UUID, status model.TopUpStatus, note string) (*model.WalletTopUp, bool, error)
}

type UserRepository interface {
	Get(ctx context.Context, id int64) (*model.User, error)
	UpdateMembership(ctx context.Context, userID int64, level model.MembershipLevel, graceAt *time.Time) error
}

type SettingsRepository interface {
	GetByBranch(ctx context.Context, branchID int64) (*model.Settings, error)
	Save(ctx context.Context, s *model.Settings) (*model.Settings, error)
}

// WalletSummary is the customer-facing wallet view.
type WalletSummary struct {
	Balance         int64                      `json:"balance"`
	Points          int64                      `json:"points"`
	MembershipLevel model.MembershipLevel      `json:"membership_level"`
	Transactions    []*model.WalletTransaction `json:"transactions"`
}

type WalletService struct {
	walletRepo   WalletRepository
	topupRepo    TopUpRepository
	userRepo     UserRepository
	settingsRepo SettingsRepository
	tierBranchID int64
}

// NewWalletService wires the wallet workflows. tierBranchID names the branch
// whose settings drive membership evaluation; the wallet itself is not
// branch-scoped.
func NewWalletService(walletRepo WalletRepository, topupRepo TopUpRepository, userRepo UserRepository, settingsRepo SettingsRepository, tierBranchID int64) *WalletService {
	return &WalletService{
		walletRepo:   walletRepo,
		topupRepo:    topupRepo,
		userRepo:     userRepo,
		settingsRepo: settingsRepo,
		tierBranchID: tierBranchID,
	}
}

func (s *WalletService) Summary(ctx context.Context, userID int64) (*WalletSummary, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	balance, err := s.walletRepo.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	txns, _, err := s.walletRepo.ListTransactions(ctx, model.WalletFilter{UserID: &userID, Limit: 20})
	if err != nil {
		return nil, err
	}

	return &WalletSummary{
		Balance:         balance,
		Points:          user.Points,
		MembershipLevel: user.MembershipLevel,
		Transactions:    txns,
	}, nil
}

func (s *WalletService) ListTransactions(ctx context.Context, f model.WalletFilter) ([]*model.WalletTransaction, int64, error) {
	return s.walletRepo.ListTransactions(ctx, f)
}

func (s *WalletService) RequestTopUp(ctx context.Context, req model.TopUpCreateRequest) (*model.WalletTopUp, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.topupRepo.Create(ctx, req)
}

func (s *WalletService) GetTopUp(ctx context.Context, id uuid.UUID) (*model.WalletTopUp, error) {
	return s.topupRepo.Get(ctx, id)
}

func (s *WalletService) ListTopUps(ctx context.Context, status *model.TopUpStatus, userID *int64, limit, offset int) ([]*model.WalletTopUp, int64, error) {
	return s.topupRepo.List(ctx, status, userID, limit, offset)
}

// ReviewTopUp resolves a pending request. Approval credits the wallet and
// re-evaluates the membership tier in the same transaction; the conditional
// review update guarantees the credit lands at most once per request. A
// retried review carrying the outcome already stored is acknowledged without
// a second credit.
func (s *WalletService) ReviewTopUp(ctx context.Context, req model.TopUpReviewRequest) (*model.WalletTopUp, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var reviewed *model.WalletTopUp
	err := s.walletRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		topup, applied, err := s.topupRepo.Review(ctx, req.ID, req.Status, req.AdminNote)
		if err != nil {
			if errors.Is(err, repository.ErrTopUpReviewed) {
				return ErrTopUpAlreadyReviewed
			}
			return err
		}
		reviewed = topup

		if !applied || req.Status != model.TopUpApproved {
			return nil
		}

		txn, err := s.walletRepo.Credit(ctx, topup.UserID, topup.Amount, model.SourceTopUp, nil)
		if err != nil {
			return fmt.Errorf("credit approved top-up: %w", err)
		}
		prom.IncWalletTransactions(string(txn.Type), string(txn.Source))

		return s.ReevaluateTier(ctx, topup.UserID, txn.BalanceAfter)
	})
	if err != nil {
		return nil, err
	}
	return reviewed, nil
}

// ReevaluateTier applies the membership decision for the user's new balance.
// Callers invoke it inside the transaction that moved the balance.
func (s *WalletService) ReevaluateTier(ctx context.Context, userID, balance int64) error {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return err
	}

	settings, err := s.settingsRepo.GetByBranch(ctx, s.tierBranchID)
	if err != nil {
		if errors.Is(err, repository.ErrSettingsNotFound) {
			// no thresholds configured yet; tiers stay put
			return nil
		}
		return err
	}

	d := membership.Evaluate(*user, balance, *settings, time.Now())
	if d.Outcome == membership.OutcomeKeep &&
		d.Level == user.MembershipLevel &&
		equalGrace(d.GraceUntil, user.MembershipGraceAt) {
		return nil
	}

	if err := s.userRepo.UpdateMembership(ctx, userID, d.Level, d.GraceUntil); err != nil {
		return err
	}

	logger.Info("membership re-evaluated",
		"user_id", userID,
		"outcome", string(d.Outcome),
		"level", string(d.Level),
	)
	return nil
}

func equalGrace(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
