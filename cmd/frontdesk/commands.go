package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/TheDarkness2001/SMS-sub002/internal/api"
	"github.com/TheDarkness2001/SMS-sub002/internal/i18n"
	"github.com/TheDarkness2001/SMS-sub002/internal/money"
	"github.com/TheDarkness2001/SMS-sub002/internal/view"
	"github.com/TheDarkness2001/SMS-sub002/internal/wallet"
)

var commands = map[string]command{
	"login":           {"Sign in as a teacher, parent or student", cmdLogin},
	"logout":          {"Sign out", cmdLogout},
	"whoami":          {"Show the signed-in user", cmdWhoami},
	"lang":            {"Show or change the language (en, ru, uz)", cmdLang},
	"branch":          {"List branches, or select one with <id> (-clear for all)", cmdBranch},
	"notify":          {"Turn notifications on or off for this device", cmdNotify},
	"wallet":          {"Show wallet balances and history", cmdWallet},
	"topup":           {"Request a wallet top-up", cmdTopUp},
	"pending":         {"List top-ups awaiting confirmation", cmdPending},
	"confirm":         {"Confirm a pending top-up: confirm <transaction id>", cmdConfirm},
	"reject":          {"Reject a pending top-up: reject <transaction id> -reason ...", cmdReject},
	"penalty":         {"Charge a penalty to a student's wallet", cmdPenalty},
	"refund":          {"Refund money to a student's wallet", cmdRefund},
	"adjust":          {"Correct a student's wallet balance", cmdAdjust},
	"earnings":        {"Show a staff member's earnings", cmdEarnings},
	"approve":         {"List pending earnings, or approve one: approve <earning id>", cmdApprove},
	"staff-entry":     {"Add a bonus, penalty or adjustment for a staff member", cmdStaffEntry},
	"payouts":         {"List salary payouts", cmdPayouts},
	"payout-create":   {"Record a salary payout", cmdPayoutCreate},
	"payout-complete": {"Mark a payout as handed over: payout-complete <payout id>", cmdPayoutComplete},
	"payout-cancel":   {"Cancel a payout: payout-cancel <payout id> -reason ...", cmdPayoutCancel},
	"view-as":         {"View the app as a student: view-as <student id>", cmdViewAs},
	"return":          {"Return from viewing as a student", cmdReturn},
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("login")
	userType := fs.String("type", string(api.UserTeacher), "teacher, parent or student")
	login := fs.String("login", "", "Email (teacher), phone (parent) or student id (student)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !api.UserType(*userType).Valid() {
		return usagef("-type must be teacher, parent or student")
	}
	if *login == "" {
		return usagef("-login is required")
	}

	password, err := a.promptPassword()
	if err != nil {
		return err
	}
	u, err := a.session.Login(ctx, api.UserType(*userType), api.Credentials{Login: *login, Password: password})
	if err != nil {
		return err
	}
	a.printf("auth.logged_in", u.Name, u.Role)

	if owner, err := a.studentOwner(""); err == nil {
		a.askNotifications(ctx, owner.ID)
	}
	return nil
}

func (a *app) askNotifications(ctx context.Context, studentID string) {
	ask, err := a.device.ShouldAsk(ctx, studentID)
	if err != nil || !ask {
		return
	}
	a.printf("notifications.ask")
	_ = a.device.MarkAsked(ctx, studentID)
}

func cmdLogout(ctx context.Context, a *app, args []string) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	a.printf("auth.logged_out")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, args []string) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}
	a.printf("auth.who", u.Name, u.Role, u.UserType)
	if branchID := a.branch.Selected(); branchID != "" {
		a.printf("branch.selected", branchID)
	}
	if a.session.IsImpersonating() {
		a.printf("auth.viewing_as", u.Name)
	}
	return nil
}

func cmdLang(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		a.printf("lang.current", a.locale.Language())
		return nil
	}
	lang, err := i18n.ParseLanguage(args[0])
	if err != nil {
		return usagef("%v", err)
	}
	if err := a.locale.SetLanguage(ctx, lang); err != nil {
		return err
	}
	a.printf("lang.changed")
	return nil
}

func cmdBranch(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("branch")
	all := fs.Bool("clear", false, "Show all branches again")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *all {
		if err := a.branch.Clear(ctx); err != nil {
			return err
		}
		a.printf("branch.cleared")
		return nil
	}
	if fs.NArg() > 0 {
		if err := a.branch.Select(ctx, fs.Arg(0)); err != nil {
			return err
		}
		a.printf("branch.selected", fs.Arg(0))
		return nil
	}

	res, err := a.api.Branches.List(ctx, nil)
	if err != nil {
		return err
	}
	t := a.table("col.id", "col.name", "col.status")
	for _, b := range res.Data {
		mark := ""
		if b.ID == a.branch.Selected() {
			mark = "*"
		}
		t.row(b.ID, b.Name, mark)
	}
	t.flush()
	if a.branch.Selected() == "" {
		a.printf("branch.all")
	}
	return nil
}

func cmdNotify(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("notify")
	off := fs.Bool("off", false, "Turn notifications off")
	student := fs.String("student", "", "Student id (defaults to your child or yourself)")
	if err := parse(fs, args); err != nil {
		return err
	}
	owner, err := a.studentOwner(*student)
	if err != nil {
		return err
	}
	deviceID, err := a.device.ID(ctx)
	if err != nil {
		return err
	}
	if err := a.api.Notifications.Subscribe(ctx, api.SubscribeRequest{
		StudentID: owner.ID,
		DeviceID:  deviceID,
		Enabled:   !*off,
	}); err != nil {
		return err
	}
	_ = a.device.MarkAsked(ctx, owner.ID)
	if *off {
		a.printf("notifications.disabled")
	} else {
		a.printf("notifications.enabled")
	}
	return nil
}

func cmdWallet(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("wallet")
	student := fs.String("student", "", "Student id (staff only)")
	status := fs.String("status", "", "Filter history by status")
	txType := fs.String("type", "", "Filter history by transaction type")
	if err := parse(fs, args); err != nil {
		return err
	}
	owner, err := a.studentOwner(*student)
	if err != nil {
		return err
	}

	scope := view.NewScope(ctx)
	defer scope.Close()
	dash := wallet.NewDashboard(scope, a.api.Wallet, owner, a.limits())
	dash.SetFilter(api.TransactionFilter{Status: api.TransactionStatus(*status), Type: api.TransactionType(*txType)})
	if err := dash.Refresh(); err != nil {
		return err
	}

	lang := a.locale.Language()
	if ov, ok := dash.Overview(lang); ok {
		fmt.Fprintf(a.out, "%s: %s\n%s: %s\n%s: %s\n",
			a.locale.T("wallet.balance"), ov.Balance,
			a.locale.T("wallet.available"), ov.Available,
			a.locale.T("wallet.pending"), ov.Pending,
		)
		if ov.Locked {
			a.printf("wallet.locked", orDash(ov.LockReason))
		}
		if !ov.Consistent {
			a.printf("wallet.inconsistent")
		}
	}

	rows := dash.Rows(lang)
	fmt.Fprintln(a.out)
	if len(rows) == 0 {
		a.printf("wallet.empty_history")
		return nil
	}
	a.printf("wallet.history")
	t := a.table("col.date", "col.type", "col.amount", "col.reason", "col.status")
	for _, r := range rows {
		t.row(formatDate(r.Date), string(r.Type), r.Amount, orDash(r.Reason), a.paint(r.StatusColor, string(r.Status)))
	}
	t.flush()
	return nil
}

func cmdTopUp(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("topup")
	amount := fs.String("amount", "", "Amount in "+money.Suffix(a.locale.Language()))
	method := fs.String("method", "", "Payment method: "+joinMethods())
	reason := fs.String("reason", "", "Optional note")
	student := fs.String("student", "", "Student id (staff only)")
	quick := fs.Bool("quick", false, "List the quick amounts and limits")
	if err := parse(fs, args); err != nil {
		return err
	}

	limits := a.limits()
	lang := a.locale.Language()
	if *quick {
		a.printf("wallet.topup_limits", money.FormatMinor(money.ToMinor(limits.Min), lang), money.FormatMinor(money.ToMinor(limits.Max), lang))
		fmt.Fprintf(a.out, "%s:", a.locale.T("wallet.quick_amounts"))
		for _, q := range wallet.QuickAmounts(limits, a.cfg.Wallet.QuickAmounts) {
			fmt.Fprintf(a.out, "  %s", money.FormatMinor(money.ToMinor(q), lang))
		}
		fmt.Fprintln(a.out)
		return nil
	}

	owner, err := a.studentOwner(*student)
	if err != nil {
		return err
	}
	tx, err := wallet.NewTopUp(a.api.Wallet, limits).Submit(ctx, owner, wallet.TopUpForm{
		Amount:        *amount,
		PaymentMethod: *method,
		Reason:        *reason,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s  %s  %s\n", tx.ID, money.FormatMinor(tx.Amount, lang), a.paint(money.TransactionStatusColor(string(tx.Status)), string(tx.Status)))
	a.printf("wallet.topup_requested")
	return nil
}

func joinMethods() string {
	methods := wallet.PaymentMethods()
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = string(m)
	}
	return strings.Join(out, ", ")
}

func cmdViewAs(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return usagef("usage: frontdesk view-as <student id>")
	}
	u, err := a.session.ViewAsStudent(ctx, args[0])
	if err != nil {
		return err
	}
	a.printf("auth.viewing_as", u.Name)
	return nil
}

func cmdReturn(ctx context.Context, a *app, args []string) error {
	u, err := a.session.ReturnToStaff(ctx)
	if err != nil {
		return err
	}
	a.printf("auth.returned", u.Name)
	return nil
}
