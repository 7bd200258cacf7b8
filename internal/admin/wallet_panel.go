package admin

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TheDarkness2001/SMS-sub002/internal/api"
	"github.com/TheDarkness2001/SMS-sub002/internal/apiclient"
	"github.com/TheDarkness2001/SMS-sub002/internal/form"
	"github.com/TheDarkness2001/SMS-sub002/internal/logger"
	"github.com/TheDarkness2001/SMS-sub002/internal/view"
)

// WalletService is the wallet API the panel uses; *api.WalletAPI satisfies it
type WalletService interface {
	AllTransactions(ctx context.Context, f api.TransactionFilter) (apiclient.Result[[]api.Transaction], error)
	ConfirmTopUp(ctx context.Context, txID string) (api.Transaction, error)
	FailTopUp(ctx context.Context, txID, reason string) (api.Transaction, error)
	Penalty(ctx context.Context, req api.PenaltyRequest) (api.Transaction, error)
	Refund(ctx context.Context, req api.RefundRequest) (api.Transaction, error)
	Summary(ctx context.Context, owner api.Owner) (api.WalletSummary, error)
	Adjustment(ctx context.Context, walletID string, req api.AdjustmentRequest, idempotencyKey string) (api.Transaction, error)
}

// EntryForm is the penalty and refund input. Amount is in major units.
type EntryForm struct {
	StudentID string `json:"studentId" validate:"required"`
	Amount    string `json:"amount"`
	Reason    string `json:"reason"`
	// OriginalTransactionID optionally links a refund to what it reverses
	OriginalTransactionID string `json:"originalTransactionId"`
}

// AdjustmentForm is the wallet correction input. Keep one form value per
// opened dialog so re-submits share the idempotency key.
type AdjustmentForm struct {
	StudentID string        `json:"studentId" validate:"required"`
	Amount    string        `json:"amount"`
	Direction api.Direction `json:"direction" validate:"required,oneof=credit debit"`
	Reason    string        `json:"reason"`

	key string
}

// NewAdjustmentForm returns an empty form with a fresh idempotency key
func NewAdjustmentForm() *AdjustmentForm {
	return &AdjustmentForm{key: uuid.NewString()}
}

// IdempotencyKey returns the form's key, generating it on first use
func (f *AdjustmentForm) IdempotencyKey() string {
	if f.key == "" {
		f.key = uuid.NewString()
	}
	return f.key
}

// WalletPanel is the admin wallet screen
type WalletPanel struct {
	svc   WalletService
	scope *view.Scope

	Pending *view.Loader[[]api.Transaction]
}

// NewWalletPanel creates the panel; the pending list loads on Refresh
func NewWalletPanel(scope *view.Scope, svc WalletService) *WalletPanel {
	return &WalletPanel{
		svc:     svc,
		scope:   scope,
		Pending: view.NewLoader[[]api.Transaction](scope),
	}
}

// PendingTopUps fetches every transaction and keeps the pending top-ups.
// The filtering happens here, not on the server.
func (p *WalletPanel) PendingTopUps(ctx context.Context) ([]api.Transaction, error) {
	res, err := p.svc.AllTransactions(ctx, api.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]api.Transaction, 0, len(res.Data))
	for _, tx := range res.Data {
		if tx.IsPendingTopUp() {
			out = append(out, tx)
		}
	}
	return out, nil
}

// Refresh reloads the pending list
func (p *WalletPanel) Refresh() error {
	return p.Pending.Load(p.PendingTopUps)
}

// Confirm approves a pending top-up. The pending list is re-fetched
// whatever the outcome; the confirm error is returned.
func (p *WalletPanel) Confirm(txID string) error {
	ctx := p.scope.Context()
	_, err := p.svc.ConfirmTopUp(ctx, txID)
	p.logOutcome(ctx, "Top-up confirmed", txID, err)
	p.refetch(ctx)
	return err
}

// Reject fails a pending top-up. An invalid reason returns before any call.
func (p *WalletPanel) Reject(txID, reason string) error {
	if err := checkReason(RejectTopUp, reason); err != nil {
		return err
	}
	ctx := p.scope.Context()
	_, err := p.svc.FailTopUp(ctx, txID, reason)
	p.logOutcome(ctx, "Top-up rejected", txID, err)
	p.refetch(ctx)
	return err
}

// IssuePenalty debits a student's wallet
func (p *WalletPanel) IssuePenalty(f EntryForm) (api.Transaction, error) {
	amount, err := p.validateEntry(f, WalletPenalty)
	if err != nil {
		return api.Transaction{}, err
	}
	ctx := p.scope.Context()
	tx, err := p.svc.Penalty(ctx, api.PenaltyRequest{StudentID: f.StudentID, Amount: amount, Reason: f.Reason})
	p.logOutcome(ctx, "Penalty issued", tx.ID, err)
	return tx, err
}

// IssueRefund credits a student's wallet
func (p *WalletPanel) IssueRefund(f EntryForm) (api.Transaction, error) {
	amount, err := p.validateEntry(f, WalletRefund)
	if err != nil {
		return api.Transaction{}, err
	}
	ctx := p.scope.Context()
	tx, err := p.svc.Refund(ctx, api.RefundRequest{
		StudentID:             f.StudentID,
		Amount:                amount,
		Reason:                f.Reason,
		OriginalTransactionID: f.OriginalTransactionID,
	})
	p.logOutcome(ctx, "Refund issued", tx.ID, err)
	return tx, err
}

// IssueAdjustment looks up the student's wallet id, then applies the
// correction with the form's idempotency key.
func (p *WalletPanel) IssueAdjustment(f *AdjustmentForm) (api.Transaction, error) {
	if err := form.Struct(f, fieldKeys); err != nil {
		return api.Transaction{}, err
	}
	amount, err := parseAmount(f.Amount)
	if err != nil {
		return api.Transaction{}, err
	}
	if err := checkReason(WalletAdjustment, f.Reason); err != nil {
		return api.Transaction{}, err
	}

	ctx := p.scope.Context()
	summary, err := p.svc.Summary(ctx, api.StudentOwner(f.StudentID))
	if err != nil {
		p.logOutcome(ctx, "Wallet lookup for adjustment", f.StudentID, err)
		return api.Transaction{}, err
	}
	tx, err := p.svc.Adjustment(ctx, summary.Wallet.ID, api.AdjustmentRequest{
		Amount:    amount,
		Direction: f.Direction,
		Reason:    f.Reason,
	}, f.IdempotencyKey())
	p.logOutcome(ctx, "Adjustment applied", tx.ID, err)
	return tx, err
}

func (p *WalletPanel) validateEntry(f EntryForm, action Action) (int64, error) {
	if err := form.Struct(f, fieldKeys); err != nil {
		return 0, err
	}
	amount, err := parseAmount(f.Amount)
	if err != nil {
		return 0, err
	}
	if err := checkReason(action, f.Reason); err != nil {
		return 0, err
	}
	return amount, nil
}

func (p *WalletPanel) refetch(ctx context.Context) {
	if err := p.Refresh(); err != nil {
		logger.L(ctx).Warn("Failed to reload pending top-ups", zap.Error(err))
	}
}

func (p *WalletPanel) logOutcome(ctx context.Context, msg, id string, err error) {
	if err != nil {
		logger.L(ctx).Warn(msg+" failed", zap.String("id", id), zap.Error(err))
		return
	}
	logger.L(ctx).Info(msg, zap.String("id", id))
}
