package api

import (
	"context"

	"github.com/TheDarkness2001/SMS-sub002/internal/apiclient"
)

// EarningsAPI wraps the /staff-earnings endpoints
type EarningsAPI struct {
	gw Gateway
}

// NewEarningsAPI creates an EarningsAPI
func NewEarningsAPI(gw Gateway) *EarningsAPI {
	return &EarningsAPI{gw: gw}
}

// Account returns a staff member's totals
func (a *EarningsAPI) Account(ctx context.Context, staffID string) (StaffAccount, error) {
	return call[StaffAccount](ctx, a.gw, get(join("staff-earnings", "account", staffID), nil))
}

// List returns earning entries matching f
func (a *EarningsAPI) List(ctx context.Context, f EarningFilter) (apiclient.Result[[]StaffEarning], error) {
	return callResult[[]StaffEarning](ctx, a.gw, get("/staff-earnings", f.Params()))
}

// Pending returns every earning awaiting approval
func (a *EarningsAPI) Pending(ctx context.Context) ([]StaffEarning, error) {
	return call[[]StaffEarning](ctx, a.gw, get("/staff-earnings/pending", nil))
}

// Approve moves a pending earning to approved
func (a *EarningsAPI) Approve(ctx context.Context, id string) (StaffEarning, error) {
	return call[StaffEarning](ctx, a.gw, patch(join("staff-earnings", id, "approve"), nil))
}

// Bonus records a bonus entry
func (a *EarningsAPI) Bonus(ctx context.Context, req StaffEntryRequest) (StaffEarning, error) {
	return call[StaffEarning](ctx, a.gw, post("/staff-earnings/bonus", req))
}

// Penalty records a penalty entry
func (a *EarningsAPI) Penalty(ctx context.Context, req StaffEntryRequest) (StaffEarning, error) {
	return call[StaffEarning](ctx, a.gw, post("/staff-earnings/penalty", req))
}

// Adjustment records a manual correction in req.Direction
func (a *EarningsAPI) Adjustment(ctx context.Context, req StaffEntryRequest) (StaffEarning, error) {
	return call[StaffEarning](ctx, a.gw, post("/staff-earnings/adjustment", req))
}
