package testutil

import (
	"fmt"
	"time"

	"github.com/TheDarkness2001/SMS-sub002/internal/api"
)

// AddAdmin seeds an admin staff login and returns it
func (b *Backend) AddAdmin() api.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := api.User{
		ID:       b.nextID("adm"),
		Name:     b.faker.Name(),
		Email:    b.faker.Email(),
		Role:     "admin",
		UserType: api.UserTeacher,
		BranchID: "b1",
	}
	b.accounts[api.UserTeacher] = append(b.accounts[api.UserTeacher], account{user: u, login: u.Email})
	return u
}

// AddTeacher seeds a teacher who can log in with their email
func (b *Backend) AddTeacher() api.Teacher {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := api.Teacher{
		ID:       b.nextID("tch"),
		Name:     b.faker.Name(),
		Email:    b.faker.Email(),
		Phone:    b.faker.Phone(),
		Role:     "teacher",
		BranchID: "b1",
		Status:   "active",
	}
	b.teachers = append(b.teachers, t)
	u := api.User{ID: t.ID, Name: t.Name, Email: t.Email, Role: t.Role, UserType: api.UserTeacher, BranchID: t.BranchID}
	b.accounts[api.UserTeacher] = append(b.accounts[api.UserTeacher], account{user: u, login: t.Email})
	return t
}

// AddStudent seeds a student, their parent login and their wallet holding
// balance minor units
func (b *Backend) AddStudent(balance int64) api.Student {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := api.Student{
		ID:          b.nextID("stu"),
		StudentID:   fmt.Sprintf("ST-%04d", b.seq),
		Name:        b.faker.Name(),
		Phone:       b.faker.Phone(),
		ParentName:  b.faker.Name(),
		ParentPhone: b.faker.Phone(),
		BranchID:    "b1",
		Status:      "active",
	}
	b.students = append(b.students, s)
	b.accounts[api.UserStudent] = append(b.accounts[api.UserStudent], account{
		user:  api.User{ID: s.ID, Name: s.Name, Role: "student", UserType: api.UserStudent, StudentID: s.StudentID},
		login: s.StudentID,
	})
	b.accounts[api.UserParent] = append(b.accounts[api.UserParent], account{
		user:  api.User{ID: b.nextID("par"), Name: s.ParentName, Phone: s.ParentPhone, Role: "parent", UserType: api.UserParent, StudentID: s.ID},
		login: s.ParentPhone,
	})

	w := b.walletLocked(api.OwnerStudent, s.ID)
	w.Balance = balance
	w.AvailableBalance = balance
	return s
}

// AddPendingTopUp seeds a pending top-up for a student and counts it in
// the wallet's pending balance
func (b *Backend) AddPendingTopUp(studentID string, amount int64) api.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	w := b.walletLocked(api.OwnerStudent, studentID)
	w.Balance += amount
	w.PendingBalance += amount
	tx := b.appendTxLocked(w, api.TxTopUp, api.Credit, api.TxPending, amount, "")
	tx.PaymentMethod = "cash"
	b.transactions[len(b.transactions)-1] = tx
	return tx
}

// AddTransaction seeds a completed transaction without touching balances
func (b *Backend) AddTransaction(studentID string, typ api.TransactionType, dir api.Direction, amount int64, reason string) api.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.appendTxLocked(b.walletLocked(api.OwnerStudent, studentID), typ, dir, api.TxCompleted, amount, reason)
}

// AddEarning seeds a staff earning entry. amount carries its sign.
func (b *Backend) AddEarning(staffID string, typ api.EarningType, status api.EarningStatus, amount int64) api.StaffEarning {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := api.StaffEarning{
		ID:            b.nextID("ern"),
		StaffID:       staffID,
		StaffName:     b.teacherNameLocked(staffID),
		EarningType:   typ,
		Amount:        amount,
		Status:        status,
		ReferenceDate: time.Now().UTC().Truncate(24 * time.Hour),
		CreatedAt:     time.Now().UTC(),
	}
	b.earnings = append(b.earnings, e)
	return e
}

// AddPayout seeds a payout in status
func (b *Backend) AddPayout(staffID string, amount int64, status api.PayoutStatus) api.SalaryPayout {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.newPayoutLocked(api.CreatePayoutRequest{StaffID: staffID, Amount: amount, Method: api.PayoutCash})
	p.Status = status
	b.payouts[len(b.payouts)-1] = p
	return p
}

// Wallet returns a copy of the owner's wallet
func (b *Backend) Wallet(ownerType api.OwnerType, ownerID string) api.Wallet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *b.walletLocked(ownerType, ownerID)
}

// Transaction returns a seeded or created transaction by id
func (b *Backend) Transaction(id string) (api.Transaction, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.txIndexLocked(id)
	if i < 0 {
		return api.Transaction{}, false
	}
	return b.transactions[i], true
}

// Earning returns an earning entry by id
func (b *Backend) Earning(id string) (api.StaffEarning, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.earnings {
		if e.ID == id {
			return e, true
		}
	}
	return api.StaffEarning{}, false
}

// Payout returns a payout record by id
func (b *Backend) Payout(id string) (api.SalaryPayout, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.payouts {
		if p.ID == id {
			return p, true
		}
	}
	return api.SalaryPayout{}, false
}

// Earnings returns every earning entry
func (b *Backend) Earnings() []api.StaffEarning {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.StaffEarning(nil), b.earnings...)
}

// Transactions returns every transaction, oldest first
func (b *Backend) Transactions() []api.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Transaction(nil), b.transactions...)
}

func (b *Backend) walletLocked(ownerType api.OwnerType, ownerID string) *api.Wallet {
	key := string(ownerType) + "/" + ownerID
	w, ok := b.wallets[key]
	if !ok {
		w = &api.Wallet{ID: b.nextID("wal"), OwnerID: ownerID, OwnerType: ownerType}
		b.wallets[key] = w
	}
	return w
}

func (b *Backend) walletByIDLocked(id string) *api.Wallet {
	for _, w := range b.wallets {
		if w.ID == id {
			return w
		}
	}
	return nil
}

func (b *Backend) appendTxLocked(w *api.Wallet, typ api.TransactionType, dir api.Direction, status api.TransactionStatus, amount int64, reason string) api.Transaction {
	now := time.Now().UTC()
	tx := api.Transaction{
		ID:              b.nextID("txn"),
		WalletID:        w.ID,
		TransactionType: typ,
		Direction:       dir,
		Amount:          amount,
		Status:          status,
		Reason:          reason,
		StudentID:       w.OwnerID,
		StudentName:     b.studentNameLocked(w.OwnerID),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.transactions = append(b.transactions, tx)
	return tx
}

func (b *Backend) txIndexLocked(id string) int {
	for i, tx := range b.transactions {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

func (b *Backend) studentNameLocked(id string) string {
	for _, s := range b.students {
		if s.ID == id {
			return s.Name
		}
	}
	return ""
}

func (b *Backend) teacherNameLocked(id string) string {
	for _, t := range b.teachers {
		if t.ID == id {
			return t.Name
		}
	}
	return ""
}

func (b *Backend) newPayoutLocked(req api.CreatePayoutRequest) api.SalaryPayout {
	p := api.SalaryPayout{
		ID:          b.nextID("pay"),
		PayoutID:    fmt.Sprintf("PO-%04d", len(b.payouts)+1),
		StaffID:     req.StaffID,
		StaffName:   b.teacherNameLocked(req.StaffID),
		Amount:      req.Amount,
		Method:      req.Method,
		Status:      api.PayoutPending,
		BankDetails: req.BankDetails,
		Notes:       req.Notes,
		CreatedAt:   time.Now().UTC(),
	}
	b.payouts = append(b.payouts, p)
	return p
}
