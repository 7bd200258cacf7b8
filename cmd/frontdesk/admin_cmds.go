package main

import (
	"context"
	"fmt"

	"github.com/TheDarkness2001/SMS-sub002/internal/admin"
	"github.com/TheDarkness2001/SMS-sub002/internal/api"
	"github.com/TheDarkness2001/SMS-sub002/internal/earnings"
	"github.com/TheDarkness2001/SMS-sub002/internal/money"
	"github.com/TheDarkness2001/SMS-sub002/internal/session"
	"github.com/TheDarkness2001/SMS-sub002/internal/view"
)

// requireStaff returns the signed-in user if they are staff
func (a *app) requireStaff() (session.User, error) {
	u, err := a.requireUser()
	if err != nil {
		return u, err
	}
	if !u.IsStaff() {
		return u, session.ErrNotStaff
	}
	return u, nil
}

func oneID(args []string, usage string) (string, []string, error) {
	if len(args) == 0 || args[0] == "" || args[0][0] == '-' {
		return "", nil, usagef("usage: frontdesk %s", usage)
	}
	return args[0], args[1:], nil
}

func cmdPending(ctx context.Context, a *app, args []string) error {
	if _, err := a.requireStaff(); err != nil {
		return err
	}
	scope := view.NewScope(ctx)
	defer scope.Close()
	panel := admin.NewWalletPanel(scope, a.api.Wallet)
	if err := panel.Refresh(); err != nil {
		return err
	}
	a.printTopUps(panel.Pending.State().Data)
	return nil
}

func (a *app) printTopUps(txs []api.Transaction) {
	if len(txs) == 0 {
		a.printf("admin.pending_empty")
		return
	}
	lang := a.locale.Language()
	t := a.table("col.id", "col.date", "col.student", "col.amount", "col.method", "col.status")
	for _, tx := range txs {
		student := tx.StudentName
		if student == "" {
			student = tx.StudentID
		}
		t.row(tx.ID, formatDate(tx.CreatedAt), orDash(student), money.FormatMinor(tx.Amount, lang), orDash(tx.PaymentMethod),
			a.paint(money.TransactionStatusColor(string(tx.Status)), string(tx.Status)))
	}
	t.flush()
}

func cmdConfirm(ctx context.Context, a *app, args []string) error {
	id, _, err := oneID(args, "confirm <transaction id>")
	if err != nil {
		return err
	}
	if _, err := a.requireStaff(); err != nil {
		return err
	}
	scope := view.NewScope(ctx)
	defer scope.Close()
	if err := admin.NewWalletPanel(scope, a.api.Wallet).Confirm(id); err != nil {
		return err
	}
	a.printf("admin.confirmed")
	return nil
}

func cmdReject(ctx context.Context, a *app, args []string) error {
	id, rest, err := oneID(args, "reject <transaction id> -reason <text>")
	if err != nil {
		return err
	}
	fs := a.newFlags("reject")
	reason := fs.String("reason", "", "Why the top-up is rejected")
	if err := parse(fs, rest); err != nil {
		return err
	}
	if _, err := a.requireStaff(); err != nil {
		return err
	}
	scope := view.NewScope(ctx)
	defer scope.Close()
	if err := admin.NewWalletPanel(scope, a.api.Wallet).Reject(id, *reason); err != nil {
		return err
	}
	a.printf("admin.rejected")
	return nil
}

func cmdPenalty(ctx context.Context, a *app, args []string) error {
	return a.walletEntry(ctx, "penalty", args)
}

func cmdRefund(ctx context.Context, a *app, args []string) error {
	return a.walletEntry(ctx, "refund", args)
}

func (a *app) walletEntry(ctx context.Context, name string, args []string) error {
	fs := a.newFlags(name)
	var f admin.EntryForm
	fs.StringVar(&f.StudentID, "student", "", "Student id")
	fs.StringVar(&f.Amount, "amount", "", "Amount in "+money.Suffix(a.locale.Language()))
	fs.StringVar(&f.Reason, "reason", "", "Reason shown to the family")
	if name == "refund" {
		fs.StringVar(&f.OriginalTransactionID, "original", "", "Transaction the refund reverses")
	}
	if err := parse(fs, args); err != nil {
		return err
	}
	if _, err := a.requireStaff(); err != nil {
		return err
	}

	scope := view.NewScope(ctx)
	defer scope.Close()
	panel := admin.NewWalletPanel(scope, a.api.Wallet)
	issue, done := panel.IssuePenalty, "admin.penalty_issued"
	if name == "refund" {
		issue, done = panel.IssueRefund, "admin.refund_issued"
	}
	tx, err := issue(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s  %s\n", tx.ID, money.Signed(tx.Amount, string(tx.Direction), a.locale.Language()))
	a.printf(done)
	return nil
}

func cmdAdjust(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("adjust")
	f := admin.NewAdjustmentForm()
	var direction string
	fs.StringVar(&f.StudentID, "student", "", "Student id")
	fs.StringVar(&f.Amount, "amount", "", "Amount in "+money.Suffix(a.locale.Language()))
	fs.StringVar(&direction, "direction", "", "credit or debit")
	fs.StringVar(&f.Reason, "reason", "", "Why the balance is corrected")
	if err := parse(fs, args); err != nil {
		return err
	}
	f.Direction = api.Direction(direction)
	if _, err := a.requireStaff(); err != nil {
		return err
	}

	scope := view.NewScope(ctx)
	defer scope.Close()
	tx, err := admin.NewWalletPanel(scope, a.api.Wallet).IssueAdjustment(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s  %s\n", tx.ID, money.Signed(tx.Amount, string(tx.Direction), a.locale.Language()))
	a.printf("admin.adjustment_issued")
	return nil
}

func cmdEarnings(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("earnings")
	staff := fs.String("staff", "", "Staff id (defaults to yourself)")
	status := fs.String("status", "", "Filter by status")
	if err := parse(fs, args); err != nil {
		return err
	}
	u, err := a.requireStaff()
	if err != nil {
		return err
	}
	staffID := *staff
	if staffID == "" {
		staffID = u.ID
	}

	scope := view.NewScope(ctx)
	defer scope.Close()
	ledger := earnings.NewLedger(scope, a.api.Earnings, staffID)
	ledger.SetFilter(api.EarningFilter{Status: api.EarningStatus(*status)})
	if err := ledger.Refresh(); err != nil {
		return err
	}

	if totals, ok := ledger.Totals(a.locale); ok {
		a.printf("earnings.totals", totals.Pending.Text, totals.Approved.Text, totals.Paid.Text)
	}
	rows := ledger.Rows(a.locale)
	if len(rows) == 0 {
		a.printf("earnings.empty")
		return nil
	}
	a.printEarnings(rows)
	return nil
}

func (a *app) printEarnings(rows []earnings.Row) {
	t := a.table("col.id", "col.date", "col.type", "col.amount", "col.reason", "col.status")
	for _, r := range rows {
		t.row(r.ID, formatDate(r.Date), string(r.Type), r.Amount.Text, orDash(r.Reason), a.paint(r.StatusColor, string(r.Status)))
	}
	t.flush()
}

func cmdApprove(ctx context.Context, a *app, args []string) error {
	if _, err := a.requireStaff(); err != nil {
		return err
	}
	scope := view.NewScope(ctx)
	defer scope.Close()
	panel := admin.NewEarningsPanel(scope, a.api.Earnings)

	if len(args) == 0 {
		if err := panel.Refresh(); err != nil {
			return err
		}
		pending := panel.Pending.State().Data
		if len(pending) == 0 {
			a.printf("earnings.pending_empty")
			return nil
		}
		a.printEarnings(earnings.FormatRows(pending, a.locale))
		return nil
	}

	if err := panel.Approve(args[0]); err != nil {
		return err
	}
	a.printf("admin.earning_approved")
	return nil
}

func cmdStaffEntry(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("staff-entry")
	kind := fs.String("kind", "bonus", "bonus, penalty or adjustment")
	var f admin.StaffEntryForm
	var direction string
	fs.StringVar(&f.StaffID, "staff", "", "Staff id")
	fs.StringVar(&f.Amount, "amount", "", "Amount in "+money.Suffix(a.locale.Language()))
	fs.StringVar(&direction, "direction", "", "credit or debit (adjustments only)")
	fs.StringVar(&f.Reason, "reason", "", "Reason for the entry")
	if err := parse(fs, args); err != nil {
		return err
	}
	f.Direction = api.Direction(direction)

	scope := view.NewScope(ctx)
	defer scope.Close()
	panel := admin.NewEarningsPanel(scope, a.api.Earnings)
	submit, ok := map[string]func(admin.StaffEntryForm) (api.StaffEarning, error){
		"bonus":      panel.Bonus,
		"penalty":    panel.Penalty,
		"adjustment": panel.Adjustment,
	}[*kind]
	if !ok {
		return usagef("-kind must be bonus, penalty or adjustment")
	}
	if _, err := a.requireStaff(); err != nil {
		return err
	}
	entry, err := submit(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s  %s\n", entry.ID, earnings.DisplayAmount(entry.Amount, a.locale).Text)
	a.printf("admin.entry_recorded")
	return nil
}

func cmdPayouts(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("payouts")
	staff := fs.String("staff", "", "Filter by staff id")
	status := fs.String("status", "", "Filter by status")
	if err := parse(fs, args); err != nil {
		return err
	}
	if _, err := a.requireStaff(); err != nil {
		return err
	}

	scope := view.NewScope(ctx)
	defer scope.Close()
	panel := admin.NewPayoutPanel(scope, a.api.Payouts, a.api.Teachers)
	panel.SetFilter(api.PayoutFilter{StaffID: *staff, Status: api.PayoutStatus(*status)})
	if err := panel.Refresh(); err != nil {
		return err
	}

	payouts := panel.Payouts.State().Data
	if len(payouts) == 0 {
		a.printf("payouts.empty")
		return nil
	}
	lang := a.locale.Language()
	t := a.table("col.id", "col.date", "col.staff", "col.amount", "col.method", "col.status")
	for _, p := range payouts {
		staffName := p.StaffName
		if staffName == "" {
			staffName = p.StaffID
		}
		t.row(p.ID, formatDate(p.CreatedAt), staffName, money.FormatMinor(p.Amount, lang), string(p.Method),
			a.paint(money.PayoutStatusColor(string(p.Status)), string(p.Status)))
	}
	t.flush()
	return nil
}

func cmdPayoutCreate(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("payout-create")
	var f admin.PayoutForm
	var method string
	fs.StringVar(&f.StaffID, "staff", "", "Staff id")
	fs.StringVar(&f.Amount, "amount", "", "Amount in "+money.Suffix(a.locale.Language()))
	fs.StringVar(&method, "method", "cash", "cash, bank-transfer, uzcard, humo or card")
	fs.StringVar(&f.CardNumber, "card", "", "Card number (card methods only)")
	fs.StringVar(&f.BankName, "bank", "", "Bank name")
	fs.StringVar(&f.AccountNumber, "account", "", "Bank account number")
	fs.StringVar(&f.HolderName, "holder", "", "Card or account holder")
	fs.StringVar(&f.Notes, "notes", "", "Notes")
	if err := parse(fs, args); err != nil {
		return err
	}
	f.Method = api.PayoutMethod(method)
	if _, err := a.requireStaff(); err != nil {
		return err
	}

	scope := view.NewScope(ctx)
	defer scope.Close()
	p, err := admin.NewPayoutPanel(scope, a.api.Payouts, a.api.Teachers).Record(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s  %s  %s\n", p.ID, money.FormatMinor(p.Amount, a.locale.Language()), p.Status)
	a.printf("admin.payout_recorded")
	return nil
}

func cmdPayoutComplete(ctx context.Context, a *app, args []string) error {
	id, _, err := oneID(args, "payout-complete <payout id>")
	if err != nil {
		return err
	}
	if _, err := a.requireStaff(); err != nil {
		return err
	}
	scope := view.NewScope(ctx)
	defer scope.Close()
	panel := admin.NewPayoutPanel(scope, a.api.Payouts, a.api.Teachers)
	if err := panel.Refresh(); err != nil {
		return err
	}
	if _, err := panel.Complete(id); err != nil {
		return err
	}
	a.printf("admin.payout_completed")
	return nil
}

func cmdPayoutCancel(ctx context.Context, a *app, args []string) error {
	id, rest, err := oneID(args, "payout-cancel <payout id> -reason <text>")
	if err != nil {
		return err
	}
	fs := a.newFlags("payout-cancel")
	reason := fs.String("reason", "", "Why the payout is cancelled")
	if err := parse(fs, rest); err != nil {
		return err
	}
	if _, err := a.requireStaff(); err != nil {
		return err
	}
	scope := view.NewScope(ctx)
	defer scope.Close()
	panel := admin.NewPayoutPanel(scope, a.api.Payouts, a.api.Teachers)
	if err := panel.Refresh(); err != nil {
		return err
	}
	if _, err := panel.Cancel(id, *reason); err != nil {
		return err
	}
	a.printf("admin.payout_cancelled")
	return nil
}
