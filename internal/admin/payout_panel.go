package admin

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TheDarkness2001/SMS-sub002/internal/api"
	"github.com/TheDarkness2001/SMS-sub002/internal/apiclient"
	"github.com/TheDarkness2001/SMS-sub002/internal/form"
	"github.com/TheDarkness2001/SMS-sub002/internal/logger"
	"github.com/TheDarkness2001/SMS-sub002/internal/view"
)

// PayoutService is the payouts API the panel uses; *api.PayoutsAPI satisfies it
type PayoutService interface {
	List(ctx context.Context, f api.PayoutFilter) (apiclient.Result[[]api.SalaryPayout], error)
	Create(ctx context.Context, req api.CreatePayoutRequest) (api.SalaryPayout, error)
	Complete(ctx context.Context, id string) (api.SalaryPayout, error)
	Cancel(ctx context.Context, id, reason string) (api.SalaryPayout, error)
}

// TeacherLister lists staff for the payout form; the teachers resource satisfies it
type TeacherLister interface {
	List(ctx context.Context, params api.Params) (apiclient.Result[[]api.Teacher], error)
}

// PayoutForm is the record-payout input. Amount is in major units. The card
// number is only read for card methods.
type PayoutForm struct {
	StaffID       string           `json:"staffId" validate:"required"`
	Amount        string           `json:"amount"`
	Method        api.PayoutMethod `json:"method" validate:"required,oneof=cash bank-transfer uzcard humo card"`
	CardNumber    string           `json:"cardNumber" validate:"omitempty,card"`
	BankName      string           `json:"bankName"`
	AccountNumber string           `json:"accountNumber"`
	HolderName    string           `json:"holderName"`
	Notes         string           `json:"notes"`
}

// AllowedTransitions returns the statuses a payout in from may move to
func AllowedTransitions(from api.PayoutStatus) []api.PayoutStatus {
	if from == api.PayoutPending {
		return []api.PayoutStatus{api.PayoutCompleted, api.PayoutCancelled}
	}
	return nil
}

// CanTransition reports whether from may move to to
func CanTransition(from, to api.PayoutStatus) bool {
	for _, s := range AllowedTransitions(from) {
		if s == to {
			return true
		}
	}
	return false
}

// PayoutPanel is the admin salary payout screen
type PayoutPanel struct {
	svc      PayoutService
	teachers TeacherLister
	scope    *view.Scope
	filter   api.PayoutFilter

	Teachers *view.Loader[[]api.Teacher]
	Payouts  *view.Loader[[]api.SalaryPayout]
}

// NewPayoutPanel creates the panel; data loads on Refresh
func NewPayoutPanel(scope *view.Scope, svc PayoutService, teachers TeacherLister) *PayoutPanel {
	return &PayoutPanel{
		svc:      svc,
		teachers: teachers,
		scope:    scope,
		Teachers: view.NewLoader[[]api.Teacher](scope),
		Payouts:  view.NewLoader[[]api.SalaryPayout](scope),
	}
}

// SetFilter narrows the history loaded by the next Refresh
func (p *PayoutPanel) SetFilter(f api.PayoutFilter) {
	p.filter = f
}

// Refresh loads the teacher list and the payout history concurrently. A
// failed teacher list is logged and shown as empty; only a history failure
// is returned.
func (p *PayoutPanel) Refresh() error {
	var g errgroup.Group
	g.Go(func() error {
		_ = p.Teachers.Load(func(ctx context.Context) ([]api.Teacher, error) {
			res, err := p.teachers.List(ctx, nil)
			if err != nil {
				logger.L(ctx).Warn("Failed to load teachers for payouts", zap.Error(err))
				return []api.Teacher{}, nil
			}
			return res.Data, nil
		})
		return nil
	})
	g.Go(func() error {
		return p.loadPayouts()
	})
	return g.Wait()
}

func (p *PayoutPanel) loadPayouts() error {
	f := p.filter
	return p.Payouts.Load(func(ctx context.Context) ([]api.SalaryPayout, error) {
		res, err := p.svc.List(ctx, f)
		return res.Data, err
	})
}

// Record validates f and creates a pending payout
func (p *PayoutPanel) Record(f PayoutForm) (api.SalaryPayout, error) {
	if !f.Method.IsCard() {
		f.CardNumber = ""
	}
	if err := form.Struct(f, fieldKeys); err != nil {
		return api.SalaryPayout{}, err
	}
	amount, err := parseAmount(f.Amount)
	if err != nil {
		return api.SalaryPayout{}, err
	}

	ctx := p.scope.Context()
	payout, err := p.svc.Create(ctx, api.CreatePayoutRequest{
		StaffID:     f.StaffID,
		Amount:      amount,
		Method:      f.Method,
		BankDetails: bankDetails(f),
		Notes:       strings.TrimSpace(f.Notes),
	})
	if err != nil {
		logger.L(ctx).Warn("Payout recording failed", zap.String("staff_id", f.StaffID), zap.Error(err))
		return api.SalaryPayout{}, err
	}
	logger.L(ctx).Info("Payout recorded",
		zap.String("payout_id", payout.PayoutID),
		zap.String("staff_id", f.StaffID),
		zap.Int64("amount", amount),
	)
	p.refetch(ctx)
	return payout, nil
}

// Complete marks a pending payout as handed over
func (p *PayoutPanel) Complete(id string) (api.SalaryPayout, error) {
	if err := p.checkTransition(id, api.PayoutCompleted); err != nil {
		return api.SalaryPayout{}, err
	}
	ctx := p.scope.Context()
	payout, err := p.svc.Complete(ctx, id)
	if err != nil {
		logger.L(ctx).Warn("Payout completion failed", zap.String("id", id), zap.Error(err))
		return api.SalaryPayout{}, err
	}
	p.refetch(ctx)
	return payout, nil
}

// Cancel cancels a pending payout. The reason is checked before any call.
func (p *PayoutPanel) Cancel(id, reason string) (api.SalaryPayout, error) {
	if err := checkReason(CancelPayout, reason); err != nil {
		return api.SalaryPayout{}, err
	}
	if err := p.checkTransition(id, api.PayoutCancelled); err != nil {
		return api.SalaryPayout{}, err
	}
	ctx := p.scope.Context()
	payout, err := p.svc.Cancel(ctx, id, reason)
	if err != nil {
		logger.L(ctx).Warn("Payout cancellation failed", zap.String("id", id), zap.Error(err))
		return api.SalaryPayout{}, err
	}
	p.refetch(ctx)
	return payout, nil
}

// checkTransition rejects changes to payouts known to be settled. Payouts
// not in the loaded history are left to the server.
func (p *PayoutPanel) checkTransition(id string, to api.PayoutStatus) error {
	for _, payout := range p.Payouts.State().Data {
		if payout.ID == id && !CanTransition(payout.Status, to) {
			return ErrInvalidTransition
		}
	}
	return nil
}

func (p *PayoutPanel) refetch(ctx context.Context) {
	if err := p.loadPayouts(); err != nil {
		logger.L(ctx).Warn("Failed to reload payouts", zap.Error(err))
	}
}

func bankDetails(f PayoutForm) *api.BankDetails {
	d := api.BankDetails{
		BankName:      strings.TrimSpace(f.BankName),
		AccountNumber: strings.TrimSpace(f.AccountNumber),
		CardNumber:    strings.NewReplacer(" ", "", "-", "").Replace(f.CardNumber),
		HolderName:    strings.TrimSpace(f.HolderName),
	}
	if d == (api.BankDetails{}) {
		return nil
	}
	return &d
}
