package api

import (
	"context"

	"github.com/TheDarkness2001/SMS-sub002/internal/apiclient"
)

// PayoutsAPI wraps the /salary-payouts endpoints
type PayoutsAPI struct {
	gw Gateway
}

// NewPayoutsAPI creates a PayoutsAPI
func NewPayoutsAPI(gw Gateway) *PayoutsAPI {
	return &PayoutsAPI{gw: gw}
}

// List returns payouts matching f
func (a *PayoutsAPI) List(ctx context.Context, f PayoutFilter) (apiclient.Result[[]SalaryPayout], error) {
	return callResult[[]SalaryPayout](ctx, a.gw, get("/salary-payouts", f.Params()))
}

// Create records a new pending payout
func (a *PayoutsAPI) Create(ctx context.Context, req CreatePayoutRequest) (SalaryPayout, error) {
	return call[SalaryPayout](ctx, a.gw, post("/salary-payouts", req))
}

// Complete marks a payout as handed over
func (a *PayoutsAPI) Complete(ctx context.Context, id string) (SalaryPayout, error) {
	return call[SalaryPayout](ctx, a.gw, patch(join("salary-payouts", id, "complete"), nil))
}

// Cancel cancels a pending payout with a reason
func (a *PayoutsAPI) Cancel(ctx context.Context, id, reason string) (SalaryPayout, error) {
	return call[SalaryPayout](ctx, a.gw, patch(join("salary-payouts", id, "cancel"), map[string]string{"reason": reason}))
}
