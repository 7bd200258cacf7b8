// Package admin holds the staff-facing panels: pending top-ups and wallet
// corrections, staff earnings approval, and salary payouts.
package admin

import (
	"errors"

	"github.com/TheDarkness2001/SMS-sub002/internal/form"
	"github.com/TheDarkness2001/SMS-sub002/internal/money"
)

// Action names an admin operation that takes a free-text reason
type Action string

// Actions with reason rules
const (
	RejectTopUp       Action = "reject-top-up"
	WalletPenalty     Action = "wallet-penalty"
	WalletRefund      Action = "wallet-refund"
	WalletAdjustment  Action = "wallet-adjustment"
	EarningBonus      Action = "earning-bonus"
	EarningPenalty    Action = "earning-penalty"
	EarningAdjustment Action = "earning-adjustment"
	CancelPayout      Action = "cancel-payout"
)

// ReasonRules is the minimum reason length, in characters, per action
var ReasonRules = map[Action]int{
	RejectTopUp:       5,
	WalletPenalty:     10,
	WalletRefund:      5,
	WalletAdjustment:  10,
	EarningBonus:      5,
	EarningPenalty:    10,
	EarningAdjustment: 10,
	CancelPayout:      10,
}

// ReasonMaxLen caps every admin reason
const ReasonMaxLen = 500

// ErrInvalidTransition is returned for a payout change its status does not allow
var ErrInvalidTransition = errors.New("payout status does not allow this change")

// ValidationError is a rejected admin form field
type ValidationError = form.ValidationError

var fieldKeys = map[string]string{
	"studentId": "validation.student_required",
	"staffId":   "validation.staff_required",
	"direction": "validation.direction_invalid",
	"method":    "validation.method_invalid",
}

func checkReason(action Action, reason string) error {
	return form.Reason("reason", reason, ReasonRules[action], ReasonMaxLen)
}

// parseAmount converts a positive major-unit input to minor units
func parseAmount(input string) (int64, error) {
	amount, err := money.ParseMajor(input)
	switch {
	case errors.Is(err, money.ErrEmpty):
		return 0, form.Invalid("amount", "validation.amount_required")
	case err != nil:
		return 0, form.Invalid("amount", "validation.amount_not_number")
	case amount <= 0:
		return 0, form.Invalid("amount", "validation.amount_not_positive")
	}
	return amount, nil
}
