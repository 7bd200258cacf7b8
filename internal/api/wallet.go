package api

import (
	"context"
	"net/http"

	"github.com/TheDarkness2001/SMS-sub002/internal/apiclient"
)

// IdempotencyHeader carries the per-form key for wallet adjustments
const IdempotencyHeader = "Idempotency-Key"

// WalletAPI wraps the /wallet endpoints
type WalletAPI struct {
	gw Gateway
}

// NewWalletAPI creates a WalletAPI
func NewWalletAPI(gw Gateway) *WalletAPI {
	return &WalletAPI{gw: gw}
}

// Balance returns the owner's wallet balances
func (a *WalletAPI) Balance(ctx context.Context, owner Owner) (Wallet, error) {
	return call[Wallet](ctx, a.gw, get(join("wallet", "balance", string(owner.Type), owner.ID), nil))
}

// Summary returns the owner's wallet with its recent transactions. This is
// also how the wallet id is discovered for an owner.
func (a *WalletAPI) Summary(ctx context.Context, owner Owner) (WalletSummary, error) {
	return call[WalletSummary](ctx, a.gw, get(join("wallet", "summary", string(owner.Type), owner.ID), nil))
}

// Transactions lists one wallet's transactions
func (a *WalletAPI) Transactions(ctx context.Context, walletID string, f TransactionFilter) (apiclient.Result[[]Transaction], error) {
	return callResult[[]Transaction](ctx, a.gw, get(join("wallet", walletID, "transactions"), f.Params()))
}

// OwnerTransactions lists the transactions of the owner's wallet without
// needing its id first
func (a *WalletAPI) OwnerTransactions(ctx context.Context, owner Owner, f TransactionFilter) (apiclient.Result[[]Transaction], error) {
	return callResult[[]Transaction](ctx, a.gw, get(join("wallet", string(owner.Type), owner.ID, "transactions"), f.Params()))
}

// AllTransactions lists transactions across every wallet (admin)
func (a *WalletAPI) AllTransactions(ctx context.Context, f TransactionFilter) (apiclient.Result[[]Transaction], error) {
	return callResult[[]Transaction](ctx, a.gw, get("/wallet/transactions", f.Params()))
}

// RequestTopUp creates a pending top-up transaction
func (a *WalletAPI) RequestTopUp(ctx context.Context, req TopUpRequest) (Transaction, error) {
	return call[Transaction](ctx, a.gw, post("/wallet/topup", req))
}

// ConfirmTopUp moves a pending top-up to completed
func (a *WalletAPI) ConfirmTopUp(ctx context.Context, txID string) (Transaction, error) {
	return call[Transaction](ctx, a.gw, patch(join("wallet", "topup", txID, "confirm"), nil))
}

// FailTopUp rejects a pending top-up with a reason
func (a *WalletAPI) FailTopUp(ctx context.Context, txID, reason string) (Transaction, error) {
	return call[Transaction](ctx, a.gw, patch(join("wallet", "topup", txID, "fail"), map[string]string{"reason": reason}))
}

// ClassDeduction charges a student for a class
func (a *WalletAPI) ClassDeduction(ctx context.Context, req ClassDeductionRequest) (Transaction, error) {
	return call[Transaction](ctx, a.gw, post("/wallet/class-deduction", req))
}

// Penalty debits a student's wallet
func (a *WalletAPI) Penalty(ctx context.Context, req PenaltyRequest) (Transaction, error) {
	return call[Transaction](ctx, a.gw, post("/wallet/penalty", req))
}

// Refund credits a student's wallet
func (a *WalletAPI) Refund(ctx context.Context, req RefundRequest) (Transaction, error) {
	return call[Transaction](ctx, a.gw, post("/wallet/refund", req))
}

// Adjustment corrects a wallet. A non-empty idempotencyKey is sent so that a
// re-submitted form is applied at most once by servers that honour it.
func (a *WalletAPI) Adjustment(ctx context.Context, walletID string, req AdjustmentRequest, idempotencyKey string) (Transaction, error) {
	r := apiclient.Request{
		Method: http.MethodPost,
		Path:   join("wallet", walletID, "adjustment"),
		Body:   req,
	}
	if idempotencyKey != "" {
		r.Headers = map[string]string{IdempotencyHeader: idempotencyKey}
	}
	return call[Transaction](ctx, a.gw, r)
}
