package admin

import (
	"context"

	"go.uber.org/zap"

	"github.com/TheDarkness2001/SMS-sub002/internal/api"
	"github.com/TheDarkness2001/SMS-sub002/internal/form"
	"github.com/TheDarkness2001/SMS-sub002/internal/logger"
	"github.com/TheDarkness2001/SMS-sub002/internal/view"
)

// EarningsService is the earnings API the panel uses; *api.EarningsAPI satisfies it
type EarningsService interface {
	Pending(ctx context.Context) ([]api.StaffEarning, error)
	Approve(ctx context.Context, id string) (api.StaffEarning, error)
	Bonus(ctx context.Context, req api.StaffEntryRequest) (api.StaffEarning, error)
	Penalty(ctx context.Context, req api.StaffEntryRequest) (api.StaffEarning, error)
	Adjustment(ctx context.Context, req api.StaffEntryRequest) (api.StaffEarning, error)
}

// StaffEntryForm is the bonus, penalty and adjustment input. Direction is
// only read for adjustments.
type StaffEntryForm struct {
	StaffID   string        `json:"staffId" validate:"required"`
	Amount    string        `json:"amount"`
	Direction api.Direction `json:"direction"`
	Reason    string        `json:"reason"`
}

// EarningsPanel is the admin earnings approval screen
type EarningsPanel struct {
	svc   EarningsService
	scope *view.Scope

	Pending *view.Loader[[]api.StaffEarning]
}

// NewEarningsPanel creates the panel; the pending list loads on Refresh
func NewEarningsPanel(scope *view.Scope, svc EarningsService) *EarningsPanel {
	return &EarningsPanel{
		svc:     svc,
		scope:   scope,
		Pending: view.NewLoader[[]api.StaffEarning](scope),
	}
}

// Refresh reloads the earnings awaiting approval
func (p *EarningsPanel) Refresh() error {
	return p.Pending.Load(p.svc.Pending)
}

// Approve approves an earning and reloads the pending list
func (p *EarningsPanel) Approve(id string) error {
	ctx := p.scope.Context()
	if _, err := p.svc.Approve(ctx, id); err != nil {
		logger.L(ctx).Warn("Earning approval failed", zap.String("earning_id", id), zap.Error(err))
		return err
	}
	logger.L(ctx).Info("Earning approved", zap.String("earning_id", id))
	p.refetch(ctx)
	return nil
}

// Bonus adds a bonus entry
func (p *EarningsPanel) Bonus(f StaffEntryForm) (api.StaffEarning, error) {
	return p.submit(f, EarningBonus, p.svc.Bonus)
}

// Penalty adds a penalty entry
func (p *EarningsPanel) Penalty(f StaffEntryForm) (api.StaffEarning, error) {
	return p.submit(f, EarningPenalty, p.svc.Penalty)
}

// Adjustment adds a correction in f.Direction
func (p *EarningsPanel) Adjustment(f StaffEntryForm) (api.StaffEarning, error) {
	if !f.Direction.Valid() {
		return api.StaffEarning{}, form.Invalid("direction", "validation.direction_invalid")
	}
	return p.submit(f, EarningAdjustment, p.svc.Adjustment)
}

func (p *EarningsPanel) submit(f StaffEntryForm, action Action, send func(context.Context, api.StaffEntryRequest) (api.StaffEarning, error)) (api.StaffEarning, error) {
	if err := form.Struct(f, fieldKeys); err != nil {
		return api.StaffEarning{}, err
	}
	amount, err := parseAmount(f.Amount)
	if err != nil {
		return api.StaffEarning{}, err
	}
	if err := checkReason(action, f.Reason); err != nil {
		return api.StaffEarning{}, err
	}

	req := api.StaffEntryRequest{StaffID: f.StaffID, Amount: amount, Reason: f.Reason}
	if action == EarningAdjustment {
		req.Direction = f.Direction
	}

	ctx := p.scope.Context()
	entry, err := send(ctx, req)
	if err != nil {
		logger.L(ctx).Warn("Staff entry failed", zap.String("action", string(action)), zap.String("staff_id", f.StaffID), zap.Error(err))
		return api.StaffEarning{}, err
	}
	logger.L(ctx).Info("Staff entry recorded",
		zap.String("action", string(action)),
		zap.String("staff_id", f.StaffID),
		zap.String("earning_id", entry.ID),
	)
	p.refetch(ctx)
	return entry, nil
}

func (p *EarningsPanel) refetch(ctx context.Context) {
	if err := p.Refresh(); err != nil {
		logger.L(ctx).Warn("Failed to reload pending earnings", zap.Error(err))
	}
}
