package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds is returned when a wallet debit exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	// ErrInsufficientPoints is returned when a points redemption exceeds the
	// user's points or the reward threshold is not met.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrInvalidTransition is returned on a forbidden order state change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrForbidden is returned when the principal's role may not perform the
	// operation.
	ErrForbidden = errors.New("operation not permitted for role")
)

// ValidationError marks malformed input rejected before any mutation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CouponReason is the machine-readable cause of a coupon rejection. Clients
// render a specific message per reason, so redemption code must never collapse
// these into a generic failure.
type CouponReason string

const (
	CouponNotFound     CouponReason = "NOT_FOUND"
	CouponExpired      CouponReason = "EXPIRED"
	CouponInactive     CouponReason = "INACTIVE"
	CouponNotEligible  CouponReason = "NOT_ELIGIBLE"
	CouponLimitReached CouponReason = "LIMIT_REACHED"
)

type CouponError struct {
	Code   string
	Reason CouponReason
}

func (e *CouponError) Error() string {
	return fmt.Sprintf("coupon %q rejected: %s", e.Code, e.Reason)
}

func NewCouponError(code string, reason CouponReason) *CouponError {
	return &CouponError{Code: code, Reason: reason}
}

func AsCouponError(err error) (*CouponError, bool) {
	var ce *CouponError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
