// Package earnings is the read-only view a teacher gets of their own
// earning entries and totals.
package earnings

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TheDarkness2001/SMS-sub002/internal/api"
	"github.com/TheDarkness2001/SMS-sub002/internal/apiclient"
	"github.com/TheDarkness2001/SMS-sub002/internal/i18n"
	"github.com/TheDarkness2001/SMS-sub002/internal/money"
	"github.com/TheDarkness2001/SMS-sub002/internal/view"
)

// DeductionKey is the message key appended to negative amounts
const DeductionKey = "earnings.deduction"

// Locale renders amounts and labels; *i18n.Locale satisfies it
type Locale interface {
	Language() i18n.Language
	T(key string, args ...interface{}) string
}

// Service is the earnings API the ledger reads; *api.EarningsAPI satisfies it
type Service interface {
	Account(ctx context.Context, staffID string) (api.StaffAccount, error)
	List(ctx context.Context, f api.EarningFilter) (apiclient.Result[[]api.StaffEarning], error)
}

// Amount is a formatted earning amount
type Amount struct {
	Text     string
	Negative bool
}

// DisplayAmount formats amount in minor units. Negative amounts are shown
// as their absolute value followed by the deduction label.
func DisplayAmount(amount int64, loc Locale) Amount {
	if amount < 0 {
		return Amount{
			Text:     money.FormatMinor(-amount, loc.Language()) + " " + loc.T(DeductionKey),
			Negative: true,
		}
	}
	return Amount{Text: money.FormatMinor(amount, loc.Language())}
}

// Ledger loads one staff member's account totals and entries
type Ledger struct {
	svc     Service
	staffID string
	filter  api.EarningFilter

	Account *view.Loader[api.StaffAccount]
	Entries *view.Loader[[]api.StaffEarning]
}

// NewLedger creates the ledger for staffID; data loads on Refresh
func NewLedger(scope *view.Scope, svc Service, staffID string) *Ledger {
	return &Ledger{
		svc:     svc,
		staffID: staffID,
		Account: view.NewLoader[api.StaffAccount](scope),
		Entries: view.NewLoader[[]api.StaffEarning](scope),
	}
}

// StaffID returns whose ledger this is
func (l *Ledger) StaffID() string {
	return l.staffID
}

// SetFilter narrows the entries loaded by the next Refresh. The staff id
// is always the ledger's own.
func (l *Ledger) SetFilter(f api.EarningFilter) {
	f.StaffID = l.staffID
	l.filter = f
}

// Refresh loads totals and entries concurrently
func (l *Ledger) Refresh() error {
	f := l.filter
	f.StaffID = l.staffID

	var g errgroup.Group
	g.Go(func() error {
		return l.Account.Load(func(ctx context.Context) (api.StaffAccount, error) {
			return l.svc.Account(ctx, l.staffID)
		})
	})
	g.Go(func() error {
		return l.Entries.Load(func(ctx context.Context) ([]api.StaffEarning, error) {
			res, err := l.svc.List(ctx, f)
			return res.Data, err
		})
	})
	return g.Wait()
}

// Row is one ledger line, formatted for display
type Row struct {
	ID          string
	Date        time.Time
	Type        api.EarningType
	Status      api.EarningStatus
	Amount      Amount
	Reason      string
	TypeColor   money.Color
	StatusColor money.Color
}

// Rows formats the loaded entries
func (l *Ledger) Rows(loc Locale) []Row {
	return FormatRows(l.Entries.State().Data, loc)
}

// FormatRows formats earning entries
func FormatRows(entries []api.StaffEarning, loc Locale) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Row{
			ID:          e.ID,
			Date:        e.ReferenceDate,
			Type:        e.EarningType,
			Status:      e.Status,
			Amount:      DisplayAmount(e.Amount, loc),
			Reason:      e.Reason,
			TypeColor:   money.EarningTypeColor(string(e.EarningType)),
			StatusColor: money.EarningStatusColor(string(e.Status)),
		})
	}
	return rows
}

// Totals sums entries per status
func Totals(entries []api.StaffEarning) map[api.EarningStatus]int64 {
	out := make(map[api.EarningStatus]int64)
	for _, e := range entries {
		out[e.Status] += e.Amount
	}
	return out
}

// AccountTotals is the server's account summary, formatted for display
type AccountTotals struct {
	Pending  Amount
	Approved Amount
	Paid     Amount
}

// Totals formats the loaded account
func (l *Ledger) Totals(loc Locale) (AccountTotals, bool) {
	st := l.Account.State()
	if !st.Loaded {
		return AccountTotals{}, false
	}
	return AccountTotals{
		Pending:  DisplayAmount(st.Data.PendingTotal, loc),
		Approved: DisplayAmount(st.Data.ApprovedTotal, loc),
		Paid:     DisplayAmount(st.Data.PaidTotal, loc),
	}, true
}
