package testutil

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TheDarkness2001/SMS-sub002/internal/api"
)

func currentUser(c *gin.Context) api.User {
	u, _ := c.Get("user")
	user, _ := u.(api.User)
	return user
}

var loginField = map[api.UserType]string{
	api.UserTeacher: "email",
	api.UserParent:  "phone",
	api.UserStudent: "studentId",
}

func (b *Backend) login(userType api.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			fail(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		login := body[loginField[userType]]

		b.mu.Lock()
		defer b.mu.Unlock()
		for _, a := range b.accounts[userType] {
			if a.login == login && body["password"] == Password {
				ok(c, http.StatusOK, api.LoginResponse{Token: b.issueLocked(a.user), User: a.user})
				return
			}
		}
		fail(c, http.StatusUnauthorized, "Invalid credentials")
	}
}

func (b *Backend) me(c *gin.Context) {
	ok(c, http.StatusOK, currentUser(c))
}

func (b *Backend) viewAsStudent(c *gin.Context) {
	if !currentUser(c).IsStaff() {
		fail(c, http.StatusForbidden, "Only staff can view as a student")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.students {
		if s.ID == c.Param("id") {
			u := api.User{ID: s.ID, Name: s.Name, Role: "student", UserType: api.UserStudent, StudentID: s.StudentID}
			ok(c, http.StatusOK, api.LoginResponse{Token: b.issueLocked(u), User: u})
			return
		}
	}
	fail(c, http.StatusNotFound, "Student not found")
}

// walletRoute dispatches /wallet/*; the mix of static and parameter
// segments at the same depth does not fit a single route tree.
func (b *Backend) walletRoute(c *gin.Context) {
	seg := strings.Split(strings.Trim(c.Param("rest"), "/"), "/")
	switch c.Request.Method {
	case http.MethodGet:
		switch {
		case len(seg) == 3 && seg[0] == "balance":
			b.walletBalance(c, api.OwnerType(seg[1]), seg[2])
			return
		case len(seg) == 3 && seg[0] == "summary":
			b.walletSummary(c, api.OwnerType(seg[1]), seg[2])
			return
		case len(seg) == 1 && seg[0] == "transactions":
			b.listTransactions(c, func(api.Transaction) bool { return true })
			return
		case len(seg) == 2 && seg[1] == "transactions":
			b.listTransactions(c, func(tx api.Transaction) bool { return tx.WalletID == seg[0] })
			return
		case len(seg) == 3 && seg[2] == "transactions":
			b.mu.Lock()
			id := b.walletLocked(api.OwnerType(seg[0]), seg[1]).ID
			b.mu.Unlock()
			b.listTransactions(c, func(tx api.Transaction) bool { return tx.WalletID == id })
			return
		}
	case http.MethodPost:
		switch {
		case len(seg) == 1 && seg[0] == "topup":
			b.requestTopUp(c)
			return
		case len(seg) == 1 && seg[0] == "class-deduction":
			b.classDeduction(c)
			return
		case len(seg) == 1 && seg[0] == "penalty":
			b.studentMovement(c, api.TxPenalty, api.Debit)
			return
		case len(seg) == 1 && seg[0] == "refund":
			b.studentMovement(c, api.TxRefund, api.Credit)
			return
		case len(seg) == 2 && seg[1] == "adjustment":
			b.adjustment(c, seg[0])
			return
		}
	case http.MethodPatch:
		if len(seg) == 3 && seg[0] == "topup" {
			switch seg[2] {
			case "confirm":
				b.settleTopUp(c, seg[1], api.TxCompleted)
				return
			case "fail":
				b.settleTopUp(c, seg[1], api.TxFailed)
				return
			}
		}
	}
	fail(c, http.StatusNotFound, "Route not found")
}

func (b *Backend) walletBalance(c *gin.Context, ownerType api.OwnerType, ownerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ok(c, http.StatusOK, *b.walletLocked(ownerType, ownerID))
}

func (b *Backend) walletSummary(c *gin.Context, ownerType api.OwnerType, ownerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w := b.walletLocked(ownerType, ownerID)
	var recent []api.Transaction
	for i := len(b.transactions) - 1; i >= 0 && len(recent) < 5; i-- {
		if b.transactions[i].WalletID == w.ID {
			recent = append(recent, b.transactions[i])
		}
	}
	ok(c, http.StatusOK, api.WalletSummary{Wallet: *w, RecentTransactions: recent})
}

func (b *Backend) listTransactions(c *gin.Context, match func(api.Transaction) bool) {
	status := c.Query("status")
	typ := c.Query("transactionType")

	b.mu.Lock()
	defer b.mu.Unlock()
	out := []api.Transaction{}
	for i := len(b.transactions) - 1; i >= 0; i-- {
		tx := b.transactions[i]
		if !match(tx) {
			continue
		}
		if status != "" && string(tx.Status) != status {
			continue
		}
		if typ != "" && string(tx.TransactionType) != typ {
			continue
		}
		out = append(out, tx)
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    out,
		"meta":    gin.H{"total": len(out), "page": 1, "page_size": len(out), "total_pages": 1},
	})
}

func (b *Backend) requestTopUp(c *gin.Context) {
	var req api.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Amount <= 0 {
		fail(c, http.StatusBadRequest, "Amount must be positive")
		return
	}
	if req.PaymentMethod == "" {
		fail(c, http.StatusBadRequest, "Payment method is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	w := b.walletLocked(req.OwnerType, req.OwnerID)
	w.Balance += req.Amount
	w.PendingBalance += req.Amount
	tx := b.appendTxLocked(w, api.TxTopUp, api.Credit, api.TxPending, req.Amount, req.Reason)
	tx.PaymentMethod = req.PaymentMethod
	tx.CreatedBy = currentUser(c).ID
	b.transactions[len(b.transactions)-1] = tx
	ok(c, http.StatusCreated, tx)
}

func (b *Backend) settleTopUp(c *gin.Context, txID string, to api.TransactionStatus) {
	var body struct {
		Reason string `json:"reason"`
	}
	if to == api.TxFailed {
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Reason) == "" {
			fail(c, http.StatusBadRequest, "Reason is required")
			return
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.txIndexLocked(txID)
	if i < 0 {
		fail(c, http.StatusNotFound, "Transaction not found")
		return
	}
	tx := b.transactions[i]
	if !tx.IsPendingTopUp() {
		fail(c, http.StatusConflict, "Transaction is not a pending top-up")
		return
	}
	w := b.walletByIDLocked(tx.WalletID)
	w.PendingBalance -= tx.Amount
	if to == api.TxCompleted {
		w.AvailableBalance += tx.Amount
	} else {
		w.Balance -= tx.Amount
		tx.Reason = body.Reason
	}
	tx.Status = to
	tx.RecordedBy = currentUser(c).ID
	tx.UpdatedAt = time.Now().UTC()
	b.transactions[i] = tx
	ok(c, http.StatusOK, tx)
}

func (b *Backend) classDeduction(c *gin.Context) {
	var req api.ClassDeductionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		fail(c, http.StatusBadRequest, "Amount must be positive")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	w := b.walletLocked(api.OwnerStudent, req.StudentID)
	b.applyLocked(w, api.Debit, req.Amount)
	ok(c, http.StatusCreated, b.appendTxLocked(w, api.TxClassDeduction, api.Debit, api.TxCompleted, req.Amount, req.Reason))
}

func (b *Backend) studentMovement(c *gin.Context, typ api.TransactionType, dir api.Direction) {
	var req struct {
		StudentID string `json:"studentId"`
		Amount    int64  `json:"amount"`
		Reason    string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Amount <= 0 {
		fail(c, http.StatusBadRequest, "Amount must be positive")
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		fail(c, http.StatusBadRequest, "Reason is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	w := b.walletLocked(api.OwnerStudent, req.StudentID)
	b.applyLocked(w, dir, req.Amount)
	tx := b.appendTxLocked(w, typ, dir, api.TxCompleted, req.Amount, req.Reason)
	ok(c, http.StatusCreated, tx)
}

func (b *Backend) adjustment(c *gin.Context, walletID string) {
	var req api.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Amount <= 0 || !req.Direction.Valid() || strings.TrimSpace(req.Reason) == "" {
		fail(c, http.StatusBadRequest, "Amount, direction and reason are required")
		return
	}
	key := c.GetHeader(api.IdempotencyHeader)

	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, seen := b.idempotency[key]; key != "" && seen {
		ok(c, http.StatusOK, prev)
		return
	}
	w := b.walletByIDLocked(walletID)
	if w == nil {
		fail(c, http.StatusNotFound, "Wallet not found")
		return
	}
	b.applyLocked(w, req.Direction, req.Amount)
	tx := b.appendTxLocked(w, api.TxAdjustment, req.Direction, api.TxCompleted, req.Amount, req.Reason)
	if key != "" {
		b.idempotency[key] = tx
	}
	ok(c, http.StatusCreated, tx)
}

func (b *Backend) applyLocked(w *api.Wallet, dir api.Direction, amount int64) {
	if dir == api.Debit {
		amount = -amount
	}
	w.Balance += amount
	w.AvailableBalance += amount
}

func (b *Backend) listEarnings(c *gin.Context) {
	staffID := c.Query("staffId")
	status := c.Query("status")
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []api.StaffEarning{}
	for _, e := range b.earnings {
		if staffID != "" && e.StaffID != staffID {
			continue
		}
		if status != "" && string(e.Status) != status {
			continue
		}
		out = append(out, e)
	}
	ok(c, http.StatusOK, out)
}

func (b *Backend) pendingEarnings(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []api.StaffEarning{}
	for _, e := range b.earnings {
		if e.Status == api.EarningPending {
			out = append(out, e)
		}
	}
	ok(c, http.StatusOK, out)
}

func (b *Backend) earningAccount(c *gin.Context) {
	staffID := c.Param("staffId")
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := api.StaffAccount{StaffID: staffID}
	for _, e := range b.earnings {
		if e.StaffID != staffID {
			continue
		}
		switch e.Status {
		case api.EarningPending:
			acc.PendingTotal += e.Amount
		case api.EarningApproved:
			acc.ApprovedTotal += e.Amount
		case api.EarningPaid:
			acc.PaidTotal += e.Amount
		}
	}
	ok(c, http.StatusOK, acc)
}

func (b *Backend) approveEarning(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.earnings {
		if e.ID != c.Param("id") {
			continue
		}
		if e.Status != api.EarningPending {
			fail(c, http.StatusConflict, "Earning is not pending")
			return
		}
		e.Status = api.EarningApproved
		e.ApprovedBy = currentUser(c).ID
		b.earnings[i] = e
		ok(c, http.StatusOK, e)
		return
	}
	fail(c, http.StatusNotFound, "Earning not found")
}

func (b *Backend) createEarning(typ api.EarningType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req api.StaffEntryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.StaffID == "" || req.Amount <= 0 || strings.TrimSpace(req.Reason) == "" {
			fail(c, http.StatusBadRequest, "Staff, a positive amount and a reason are required")
			return
		}
		amount := req.Amount
		if typ == api.EarningPenalty || (typ == api.EarningAdjustment && req.Direction == api.Debit) {
			amount = -amount
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		now := time.Now().UTC()
		e := api.StaffEarning{
			ID:            b.nextID("ern"),
			StaffID:       req.StaffID,
			StaffName:     b.teacherNameLocked(req.StaffID),
			EarningType:   typ,
			Amount:        amount,
			Status:        api.EarningPending,
			ReferenceDate: now.Truncate(24 * time.Hour),
			Reason:        req.Reason,
			CreatedAt:     now,
		}
		b.earnings = append(b.earnings, e)
		ok(c, http.StatusCreated, e)
	}
}

func (b *Backend) listPayouts(c *gin.Context) {
	staffID := c.Query("staffId")
	status := c.Query("status")
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []api.SalaryPayout{}
	for i := len(b.payouts) - 1; i >= 0; i-- {
		p := b.payouts[i]
		if staffID != "" && p.StaffID != staffID {
			continue
		}
		if status != "" && string(p.Status) != status {
			continue
		}
		out = append(out, p)
	}
	ok(c, http.StatusOK, out)
}

func (b *Backend) createPayout(c *gin.Context) {
	var req api.CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.StaffID == "" || req.Amount <= 0 || req.Method == "" {
		fail(c, http.StatusBadRequest, "Staff, a positive amount and a method are required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	ok(c, http.StatusCreated, b.newPayoutLocked(req))
}

func (b *Backend) completePayout(c *gin.Context) {
	b.transitionPayout(c, api.PayoutCompleted, "")
}

func (b *Backend) cancelPayout(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Reason) == "" {
		fail(c, http.StatusBadRequest, "Reason is required")
		return
	}
	b.transitionPayout(c, api.PayoutCancelled, body.Reason)
}

func (b *Backend) transitionPayout(c *gin.Context, to api.PayoutStatus, reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, p := range b.payouts {
		if p.ID != c.Param("id") {
			continue
		}
		if p.Status != api.PayoutPending {
			fail(c, http.StatusConflict, "Payout is not pending")
			return
		}
		p.Status = to
		p.Reason = reason
		if to == api.PayoutCompleted {
			now := time.Now().UTC()
			p.CompletedAt = &now
		}
		b.payouts[i] = p
		ok(c, http.StatusOK, p)
		return
	}
	fail(c, http.StatusNotFound, "Payout not found")
}

func (b *Backend) subscribe(c *gin.Context) {
	var req api.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.StudentID == "" || req.DeviceID == "" {
		fail(c, http.StatusBadRequest, "studentId and deviceId are required")
		return
	}
	b.mu.Lock()
	b.subscribed[req.StudentID+"/"+req.DeviceID] = req
	b.mu.Unlock()
	ok(c, http.StatusOK, req)
}

func (b *Backend) listTeachers(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ok(c, http.StatusOK, append([]api.Teacher{}, b.teachers...))
}

func (b *Backend) listStudents(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ok(c, http.StatusOK, append([]api.Student{}, b.students...))
}
