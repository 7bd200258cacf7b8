package wallet

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TheDarkness2001/SMS-sub002/internal/api"
	"github.com/TheDarkness2001/SMS-sub002/internal/apiclient"
	"github.com/TheDarkness2001/SMS-sub002/internal/i18n"
	"github.com/TheDarkness2001/SMS-sub002/internal/logger"
	"github.com/TheDarkness2001/SMS-sub002/internal/money"
	"github.com/TheDarkness2001/SMS-sub002/internal/view"
)

// Service is the wallet API the dashboard uses; *api.WalletAPI satisfies it
type Service interface {
	Requester
	Summary(ctx context.Context, owner api.Owner) (api.WalletSummary, error)
	OwnerTransactions(ctx context.Context, owner api.Owner, f api.TransactionFilter) (apiclient.Result[[]api.Transaction], error)
}

// Dashboard is the wallet screen for one owner
type Dashboard struct {
	svc    Service
	owner  api.Owner
	topUp  *TopUp
	scope  *view.Scope
	filter api.TransactionFilter

	Summary *view.Loader[api.WalletSummary]
	History *view.Loader[[]api.Transaction]
}

// NewDashboard creates the dashboard; data loads on Refresh
func NewDashboard(scope *view.Scope, svc Service, owner api.Owner, limits Limits) *Dashboard {
	return &Dashboard{
		svc:     svc,
		owner:   owner,
		topUp:   NewTopUp(svc, limits),
		scope:   scope,
		Summary: view.NewLoader[api.WalletSummary](scope),
		History: view.NewLoader[[]api.Transaction](scope),
	}
}

// SetFilter changes the history filter used by the next Refresh
func (d *Dashboard) SetFilter(f api.TransactionFilter) {
	d.filter = f
}

// Refresh loads the summary and the history concurrently. Each loader keeps
// its own error; the first one is returned.
func (d *Dashboard) Refresh() error {
	var g errgroup.Group
	g.Go(func() error {
		return d.Summary.Load(func(ctx context.Context) (api.WalletSummary, error) {
			return d.svc.Summary(ctx, d.owner)
		})
	})
	g.Go(func() error {
		return d.History.Load(func(ctx context.Context) ([]api.Transaction, error) {
			res, err := d.svc.OwnerTransactions(ctx, d.owner, d.filter)
			return res.Data, err
		})
	})
	return g.Wait()
}

// TopUp submits the form and, on success, refreshes summary and history.
// Failures are logged and returned for display; the dashboard keeps working.
func (d *Dashboard) TopUp(f TopUpForm) (api.Transaction, error) {
	ctx := d.scope.Context()
	tx, err := d.topUp.Submit(ctx, d.owner, f)
	if err != nil {
		logger.L(ctx).Warn("Top-up request failed",
			zap.String("owner_id", d.owner.ID),
			zap.Error(err),
		)
		return api.Transaction{}, err
	}

	logger.L(ctx).Info("Top-up requested",
		zap.String("owner_id", d.owner.ID),
		zap.String("transaction_id", tx.ID),
		zap.Int64("amount", tx.Amount),
	)
	if err := d.Refresh(); err != nil {
		logger.L(ctx).Warn("Refresh after top-up failed", zap.Error(err))
	}
	return tx, nil
}

// Limits returns the top-up bounds
func (d *Dashboard) Limits() Limits {
	return d.topUp.Limits()
}

// Overview is the balance card, formatted for display
type Overview struct {
	Balance    string
	Available  string
	Pending    string
	Locked     bool
	LockReason string
	Consistent bool
}

// Overview formats the loaded summary
func (d *Dashboard) Overview(lang i18n.Language) (Overview, bool) {
	st := d.Summary.State()
	if !st.Loaded {
		return Overview{}, false
	}
	w := st.Data.Wallet
	return Overview{
		Balance:    money.FormatMinor(w.Balance, lang),
		Available:  money.FormatMinor(w.AvailableBalance, lang),
		Pending:    money.FormatMinor(w.PendingBalance, lang),
		Locked:     w.IsLocked,
		LockReason: w.LockReason,
		Consistent: w.Consistent(),
	}, true
}

// Row is one history line, formatted for display
type Row struct {
	ID          string
	Date        time.Time
	Type        api.TransactionType
	Status      api.TransactionStatus
	Amount      string
	Reason      string
	TypeColor   money.Color
	StatusColor money.Color
	// Pending rows are not yet spendable
	Pending bool
}

// Rows formats the loaded history
func (d *Dashboard) Rows(lang i18n.Language) []Row {
	return FormatRows(d.History.State().Data, lang)
}

// FormatRows formats transactions with a sign taken from their direction
func FormatRows(txs []api.Transaction, lang i18n.Language) []Row {
	rows := make([]Row, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, Row{
			ID:          tx.ID,
			Date:        tx.CreatedAt,
			Type:        tx.TransactionType,
			Status:      tx.Status,
			Amount:      money.Signed(tx.Amount, string(tx.Direction), lang),
			Reason:      tx.Reason,
			TypeColor:   money.TransactionTypeColor(string(tx.TransactionType)),
			StatusColor: money.TransactionStatusColor(string(tx.Status)),
			Pending:     tx.IsPending(),
		})
	}
	return rows
}
