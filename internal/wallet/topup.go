// Package wallet is the student-facing wallet: the dashboard with balances
// and history, and the top-up request workflow.
package wallet

import (
	"context"
	"errors"

	"github.com/TheDarkness2001/SMS-sub002/internal/api"
	"github.com/TheDarkness2001/SMS-sub002/internal/config"
	"github.com/TheDarkness2001/SMS-sub002/internal/form"
	"github.com/TheDarkness2001/SMS-sub002/internal/money"
)

// PaymentMethod is a local payment rail for top-ups
type PaymentMethod string

// Payment methods
const (
	MethodCash         PaymentMethod = "cash"
	MethodClick        PaymentMethod = "click"
	MethodPayme        PaymentMethod = "payme"
	MethodUzcard       PaymentMethod = "uzcard"
	MethodHumo         PaymentMethod = "humo"
	MethodBankTransfer PaymentMethod = "bank-transfer"
)

// PaymentMethods returns every accepted method in display order
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{MethodCash, MethodClick, MethodPayme, MethodUzcard, MethodHumo, MethodBankTransfer}
}

// DefaultQuickAmounts are the preset buttons, in major units
var DefaultQuickAmounts = []int64{50000, 100000, 200000, 500000, 1000000}

// ValidationError is a rejected top-up field
type ValidationError = form.ValidationError

// Limits mirror the server's top-up bounds in major units. They are
// advisory; the server decides.
type Limits struct {
	Min          int64
	Max          int64
	ReasonMaxLen int
}

// DefaultLimits returns 1 000 to 10 000 000 with a 200 character reason
func DefaultLimits() Limits {
	return Limits{Min: 1000, Max: 10000000, ReasonMaxLen: 200}
}

// LimitsFromConfig reads the wallet section of the configuration
func LimitsFromConfig(cfg config.WalletConfig) Limits {
	l := DefaultLimits()
	if cfg.MinTopUp > 0 {
		l.Min = cfg.MinTopUp
	}
	if cfg.MaxTopUp > 0 {
		l.Max = cfg.MaxTopUp
	}
	if cfg.ReasonMaxLen > 0 {
		l.ReasonMaxLen = cfg.ReasonMaxLen
	}
	return l
}

// TopUpForm is the top-up modal's input
type TopUpForm struct {
	Amount        string `json:"amount"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=cash click payme uzcard humo bank-transfer"`
	Reason        string `json:"reason"`
}

var topUpKeys = map[string]string{
	"paymentMethod": "validation.method_invalid",
}

// ValidateTopUp checks f against limits and returns the amount in minor
// units. Both bounds are inclusive.
func ValidateTopUp(f TopUpForm, limits Limits) (int64, error) {
	amount, err := money.ParseMajor(f.Amount)
	switch {
	case errors.Is(err, money.ErrEmpty):
		return 0, form.Invalid("amount", "validation.amount_required")
	case err != nil:
		return 0, form.Invalid("amount", "validation.amount_not_number")
	}

	if amount <= 0 {
		return 0, form.Invalid("amount", "validation.amount_not_positive")
	}
	if lo := money.ToMinor(limits.Min); amount < lo {
		return 0, form.Invalid("amount", "validation.amount_below_min", money.FormatMajor(lo))
	}
	if hi := money.ToMinor(limits.Max); limits.Max > 0 && amount > hi {
		return 0, form.Invalid("amount", "validation.amount_above_max", money.FormatMajor(hi))
	}

	if err := form.Struct(f, topUpKeys); err != nil {
		return 0, err
	}
	if err := form.Reason("reason", f.Reason, 0, limits.ReasonMaxLen); err != nil {
		return 0, err
	}
	return amount, nil
}

// QuickAmounts returns the presets, in major units, that pass validation
// under limits. A nil presets slice uses DefaultQuickAmounts.
func QuickAmounts(limits Limits, presets []int64) []int64 {
	if presets == nil {
		presets = DefaultQuickAmounts
	}
	out := make([]int64, 0, len(presets))
	for _, p := range presets {
		f := TopUpForm{Amount: money.FormatMajor(money.ToMinor(p)), PaymentMethod: string(MethodCash)}
		if _, err := ValidateTopUp(f, limits); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// Requester creates top-up requests; *api.WalletAPI satisfies it
type Requester interface {
	RequestTopUp(ctx context.Context, req api.TopUpRequest) (api.Transaction, error)
}

// TopUp submits validated top-up requests
type TopUp struct {
	wallet Requester
	limits Limits
}

// NewTopUp creates the top-up workflow
func NewTopUp(wallet Requester, limits Limits) *TopUp {
	return &TopUp{wallet: wallet, limits: limits}
}

// Limits returns the bounds the workflow validates against
func (t *TopUp) Limits() Limits {
	return t.limits
}

// Submit validates f and requests the top-up for owner. Validation failures
// return before any call; API errors are returned to the caller unhandled.
// The created transaction is pending until an admin confirms it.
func (t *TopUp) Submit(ctx context.Context, owner api.Owner, f TopUpForm) (api.Transaction, error) {
	amount, err := ValidateTopUp(f, t.limits)
	if err != nil {
		return api.Transaction{}, err
	}
	return t.wallet.RequestTopUp(ctx, api.TopUpRequest{
		OwnerID:       owner.ID,
		OwnerType:     owner.Type,
		Amount:        amount,
		PaymentMethod: f.PaymentMethod,
		Reason:        f.Reason,
	})
}
