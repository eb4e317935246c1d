package model

import (
	"time"

	"github.com/google/uuid"
)

type WalletTransactionType string

const (
	WalletCredit WalletTransactionType = "CREDIT"
	WalletDebit  WalletTransactionType = "DEBIT"
)

type WalletSource string

const (
	SourceTopUp        WalletSource = "TOPUP"
	SourceOrderPayment WalletSource = "ORDER_PAYMENT"
	SourceRefund       WalletSource = "REFUND"
	SourceAdminAdjust  WalletSource = "ADMIN_ADJUST"
)

// WalletAccount caches the running balance for O(1) reads. It is mutated only
// through ledger transactions, never written directly.
type WalletAccount struct {
	UserID  int64 `json:"user_id"`
	Balance int64 `json:"balance"`
}

// WalletTransaction is an immutable ledger row; the account balance is the
// fold over the signed sequence. BalanceAfter is denormalized for audit.
type WalletTransaction struct {
	ID           int64                 `json:"id"`
	UserID       int64                 `json:"user_id"`
	Amount       int64                 `json:"amount"`
	Type         WalletTransactionType `json:"type"`
	Source       WalletSource          `json:"source"`
	BalanceAfter int64                 `json:"balance_after"`
	OrderID      *int64                `json:"order_id,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

type TopUpMethod string

const (
	TopUpCashStore    TopUpMethod = "CASH_STORE"
	TopUpShamCash     TopUpMethod = "SHAM_CASH"
	TopUpBankTransfer TopUpMethod = "BANK_TRANSFER"
)

type TopUpStatus string

const (
	TopUpPending  TopUpStatus = "PENDING"
	TopUpApproved TopUpStatus = "APPROVED"
	TopUpRejected TopUpStatus = "REJECTED"
)

type WalletTopUp struct {
	ID        uuid.UUID   `json:"id"`
	UserID    int64       `json:"user_id"`
	Amount    int64       `json:"amount"`
	Method    TopUpMethod `json:"method"`
	Status    TopUpStatus `json:"status"`
	AdminNote string      `json:"admin_note,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

type TopUpCreateRequest struct {
	UserID int64
	Amount int64
	Method TopUpMethod
}

func (p TopUpCreateRequest) Validate() error {
	if p.UserID == 0 {
		return Invalid("user_id is required")
	}
	if p.Amount <= 0 {
		return Invalid("amount must be positive")
	}
	switch p.Method {
	case TopUpCashStore, TopUpShamCash, TopUpBankTransfer:
	default:
		return Invalid("unknown top-up method %q", p.Method)
	}
	return nil
}

type TopUpReviewRequest struct {
	ID        uuid.UUID
	Status    TopUpStatus
	AdminNote string
}

func (p TopUpReviewRequest) Validate() error {
	if p.Status != TopUpApproved && p.Status != TopUpRejected {
		return Invalid("review status must be APPROVED or REJECTED")
	}
	return nil
}

// WalletFilter controls ledger listing.
type WalletFilter struct {
	UserID *int64
	Type   *WalletTransactionType
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
	Desc   bool
}
