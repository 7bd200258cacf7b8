package api

import (
	"strings"
	"time"
)

// OwnerType identifies what kind of party owns a wallet
type OwnerType string

// Wallet owner types
const (
	OwnerStudent OwnerType = "student"
	OwnerTeacher OwnerType = "teacher"
)

// Owner is the (id, type) pair that owns exactly one wallet
type Owner struct {
	ID   string
	Type OwnerType
}

// StudentOwner returns the owner of a student's wallet
func StudentOwner(id string) Owner {
	return Owner{ID: id, Type: OwnerStudent}
}

// TransactionType is the kind of wallet movement
type TransactionType string

// Transaction types
const (
	TxTopUp          TransactionType = "top-up"
	TxClassDeduction TransactionType = "class-deduction"
	TxPenalty        TransactionType = "penalty"
	TxRefund         TransactionType = "refund"
	TxAdjustment     TransactionType = "adjustment"
)

// Direction says whether a transaction adds to or removes from the balance
type Direction string

// Directions
const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// Valid reports whether d is credit or debit
func (d Direction) Valid() bool {
	return d == Credit || d == Debit
}

// TransactionStatus is a wallet transaction's lifecycle state
type TransactionStatus string

// Transaction statuses
const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
	TxReversed  TransactionStatus = "reversed"
)

// Wallet is a server-owned balance projection. All amounts are minor units.
type Wallet struct {
	ID               string                    `json:"_id"`
	OwnerID          string                    `json:"ownerId"`
	OwnerType        OwnerType                 `json:"ownerType"`
	Balance          int64                     `json:"balance"`
	AvailableBalance int64                     `json:"availableBalance"`
	PendingBalance   int64                     `json:"pendingBalance"`
	IsLocked         bool                      `json:"isLocked"`
	LockReason       string                    `json:"lockReason,omitempty"`
	TransactionStats map[TransactionType]int64 `json:"transactionStats,omitempty"`
}

// Consistent reports whether balance equals available plus pending.
// The server owns this invariant; the result is only used for a display warning.
func (w Wallet) Consistent() bool {
	return w.Balance == w.AvailableBalance+w.PendingBalance
}

// WalletSummary is the wallet together with its most recent movements
type WalletSummary struct {
	Wallet             Wallet        `json:"wallet"`
	RecentTransactions []Transaction `json:"recentTransactions,omitempty"`
}

// Transaction is an append-only wallet record. Amount is never negative;
// the sign is carried by Direction.
type Transaction struct {
	ID              string            `json:"_id"`
	WalletID        string            `json:"walletId"`
	TransactionType TransactionType   `json:"transactionType"`
	Direction       Direction         `json:"direction"`
	Amount          int64             `json:"amount"`
	Status          TransactionStatus `json:"status"`
	Reason          string            `json:"reason,omitempty"`
	PaymentMethod   string            `json:"paymentMethod,omitempty"`
	StudentID       string            `json:"studentId,omitempty"`
	StudentName     string            `json:"studentName,omitempty"`
	CreatedBy       string            `json:"createdBy,omitempty"`
	RecordedBy      string            `json:"recordedBy,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// IsPending reports a transaction not yet settled
func (t Transaction) IsPending() bool {
	return Canonical(string(t.Status)) == string(TxPending)
}

// IsPendingTopUp reports a top-up still awaiting admin confirmation
func (t Transaction) IsPendingTopUp() bool {
	return t.IsPending() && Canonical(string(t.TransactionType)) == string(TxTopUp)
}

// Canonical folds a server enum value to the lower-case hyphenated form the
// constants use, so "TOP_UP", "top_up" and "top-up" compare equal.
func Canonical(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "_", "-")
}

// TransactionFilter narrows transaction listings
type TransactionFilter struct {
	Status    TransactionStatus
	Type      TransactionType
	Direction Direction
	From      string
	To        string
	Page      int
	Limit     int
}

// Params converts the filter to query parameters
func (f TransactionFilter) Params() Params {
	p := Params{
		"status":          string(f.Status),
		"transactionType": string(f.Type),
		"direction":       string(f.Direction),
		"from":            f.From,
		"to":              f.To,
	}
	setInt(p, "page", f.Page)
	setInt(p, "limit", f.Limit)
	return p
}

// TopUpRequest asks for money to be added; it lands as a pending transaction
type TopUpRequest struct {
	OwnerID       string    `json:"ownerId"`
	OwnerType     OwnerType `json:"ownerType"`
	Amount        int64     `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
	Reason        string    `json:"reason,omitempty"`
}

// ClassDeductionRequest charges a student for an attended class
type ClassDeductionRequest struct {
	StudentID string `json:"studentId"`
	ClassID   string `json:"classId"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason,omitempty"`
}

// PenaltyRequest debits a student's wallet
type PenaltyRequest struct {
	StudentID string `json:"studentId"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
}

// RefundRequest credits a student's wallet
type RefundRequest struct {
	StudentID             string `json:"studentId"`
	Amount                int64  `json:"amount"`
	Reason                string `json:"reason"`
	OriginalTransactionID string `json:"originalTransactionId,omitempty"`
}

// AdjustmentRequest corrects a wallet in either direction
type AdjustmentRequest struct {
	Amount    int64     `json:"amount"`
	Direction Direction `json:"direction"`
	Reason    string    `json:"reason"`
}

// EarningType is the kind of staff earning entry
type EarningType string

// Earning types
const (
	EarningPerClass   EarningType = "per-class"
	EarningHourly     EarningType = "hourly"
	EarningCommission EarningType = "commission"
	EarningBonus      EarningType = "bonus"
	EarningAdjustment EarningType = "adjustment"
	EarningPenalty    EarningType = "penalty"
)

// EarningStatus is a staff earning's lifecycle state
type EarningStatus string

// Earning statuses
const (
	EarningPending   EarningStatus = "pending"
	EarningApproved  EarningStatus = "approved"
	EarningPaid      EarningStatus = "paid"
	EarningCancelled EarningStatus = "cancelled"
)

// StaffEarning is one ledger entry for a staff member, in minor units.
// Penalties and debit adjustments arrive with a negative amount.
type StaffEarning struct {
	ID            string        `json:"_id"`
	StaffID       string        `json:"staffId"`
	StaffName     string        `json:"staffName,omitempty"`
	EarningType   EarningType   `json:"earningType"`
	Amount        int64         `json:"amount"`
	Status        EarningStatus `json:"status"`
	ReferenceDate time.Time     `json:"referenceDate"`
	ApprovedBy    string        `json:"approvedBy,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	ClassID       string        `json:"classId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// StaffAccount holds a staff member's earning totals per status
type StaffAccount struct {
	StaffID       string `json:"staffId"`
	PendingTotal  int64  `json:"pendingTotal"`
	ApprovedTotal int64  `json:"approvedTotal"`
	PaidTotal     int64  `json:"paidTotal"`
}

// EarningFilter narrows earning listings
type EarningFilter struct {
	StaffID string
	Status  EarningStatus
	Type    EarningType
	From    string
	To      string
	Page    int
	Limit   int
}

// Params converts the filter to query parameters
func (f EarningFilter) Params() Params {
	p := Params{
		"staffId":     f.StaffID,
		"status":      string(f.Status),
		"earningType": string(f.Type),
		"from":        f.From,
		"to":          f.To,
	}
	setInt(p, "page", f.Page)
	setInt(p, "limit", f.Limit)
	return p
}

// StaffEntryRequest creates a bonus, penalty or adjustment earning.
// Direction is only sent for adjustments.
type StaffEntryRequest struct {
	StaffID   string    `json:"staffId"`
	Amount    int64     `json:"amount"`
	Direction Direction `json:"direction,omitempty"`
	Reason    string    `json:"reason"`
}

// PayoutMethod is how a salary payout was handed over
type PayoutMethod string

// Payout methods
const (
	PayoutCash         PayoutMethod = "cash"
	PayoutBankTransfer PayoutMethod = "bank-transfer"
	PayoutUzcard       PayoutMethod = "uzcard"
	PayoutHumo         PayoutMethod = "humo"
	PayoutCard         PayoutMethod = "card"
)

// IsCard reports whether the method pays out to a bank card
func (m PayoutMethod) IsCard() bool {
	return m == PayoutUzcard || m == PayoutHumo || m == PayoutCard
}

// PayoutStatus is a payout record's lifecycle state
type PayoutStatus string

// Payout statuses
const (
	PayoutPending   PayoutStatus = "pending"
	PayoutCompleted PayoutStatus = "completed"
	PayoutCancelled PayoutStatus = "cancelled"
)

// BankDetails optionally accompanies bank and card payouts
type BankDetails struct {
	BankName      string `json:"bankName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	CardNumber    string `json:"cardNumber,omitempty"`
	HolderName    string `json:"holderName,omitempty"`
}

// SalaryPayout records an actual payment to staff, in minor units
type SalaryPayout struct {
	ID          string       `json:"_id"`
	PayoutID    string       `json:"payoutId"`
	StaffID     string       `json:"staffId"`
	StaffName   string       `json:"staffName,omitempty"`
	Amount      int64        `json:"amount"`
	Method      PayoutMethod `json:"method"`
	Status      PayoutStatus `json:"status"`
	BankDetails *BankDetails `json:"bankDetails,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
}

// PayoutFilter narrows payout listings
type PayoutFilter struct {
	StaffID string
	Status  PayoutStatus
	Method  PayoutMethod
	Page    int
	Limit   int
}

// Params converts the filter to query parameters
func (f PayoutFilter) Params() Params {
	p := Params{
		"staffId": f.StaffID,
		"status":  string(f.Status),
		"method":  string(f.Method),
	}
	setInt(p, "page", f.Page)
	setInt(p, "limit", f.Limit)
	return p
}

// CreatePayoutRequest records a new payout
type CreatePayoutRequest struct {
	StaffID     string       `json:"staffId"`
	Amount      int64        `json:"amount"`
	Method      PayoutMethod `json:"method"`
	BankDetails *BankDetails `json:"bankDetails,omitempty"`
	Notes       string       `json:"notes,omitempty"`
}

// UserType selects the login endpoint
type UserType string

// User types
const (
	UserTeacher UserType = "teacher"
	UserParent  UserType = "parent"
	UserStudent UserType = "student"
)

// Valid reports whether t is a known user type
func (t UserType) Valid() bool {
	switch t {
	case UserTeacher, UserParent, UserStudent:
		return true
	}
	return false
}

// User is the signed-in identity as returned by the login endpoints
type User struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Role        string   `json:"role"`
	UserType    UserType `json:"userType"`
	BranchID    string   `json:"branchId,omitempty"`
	StudentID   string   `json:"studentId,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// IsAdmin reports staff with administrative rights
func (u User) IsAdmin() bool {
	switch strings.ToLower(u.Role) {
	case "admin", "founder", "manager":
		return true
	}
	return false
}

// IsStaff reports a teacher-type login (teachers, admins, managers)
func (u User) IsStaff() bool {
	return u.UserType == UserTeacher
}

// Credentials are what the user typed on the login form. Login is an
// email for staff, a phone number for parents and a student id for students.
type Credentials struct {
	Login    string
	Password string
}

// LoginResponse carries the issued bearer token and the user
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Teacher is a staff member
type Teacher struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone,omitempty"`
	Role     string   `json:"role,omitempty"`
	Subjects []string `json:"subjects,omitempty"`
	BranchID string   `json:"branchId,omitempty"`
	Status   string   `json:"status,omitempty"`
}

// Student is an enrolled learner
type Student struct {
	ID          string   `json:"_id"`
	StudentID   string   `json:"studentId,omitempty"`
	Name        string   `json:"name"`
	Phone       string   `json:"phone,omitempty"`
	ParentName  string   `json:"parentName,omitempty"`
	ParentPhone string   `json:"parentPhone,omitempty"`
	ClassIDs    []string `json:"classes,omitempty"`
	BranchID    string   `json:"branchId,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// Subject is a taught subject with its per-class price in minor units
type Subject struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Code  string `json:"code,omitempty"`
	Price int64  `json:"price,omitempty"`
}

// Class is a recurring group of students with one teacher
type Class struct {
	ID            string   `json:"_id"`
	Name          string   `json:"name"`
	SubjectID     string   `json:"subjectId,omitempty"`
	TeacherID     string   `json:"teacherId,omitempty"`
	StudentIDs    []string `json:"students,omitempty"`
	BranchID      string   `json:"branchId,omitempty"`
	PricePerClass int64    `json:"pricePerClass,omitempty"`
}

// AttendanceStatus is a student's presence at one class session
type AttendanceStatus string

// Attendance statuses
const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// AttendanceRecord is one student's attendance at one session
type AttendanceRecord struct {
	ID        string           `json:"_id"`
	StudentID string           `json:"studentId"`
	ClassID   string           `json:"classId,omitempty"`
	Date      time.Time        `json:"date"`
	Status    AttendanceStatus `json:"status"`
	Note      string           `json:"note,omitempty"`
}

// Exam is a scheduled assessment
type Exam struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	SubjectID string    `json:"subjectId,omitempty"`
	ClassID   string    `json:"classId,omitempty"`
	Date      time.Time `json:"date"`
	MaxScore  int       `json:"maxScore,omitempty"`
}

// Feedback is a teacher's note about a student
type Feedback struct {
	ID        string    `json:"_id"`
	StudentID string    `json:"studentId"`
	TeacherID string    `json:"teacherId,omitempty"`
	Message   string    `json:"message"`
	Rating    int       `json:"rating,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TimetableEntry is a weekly slot for a class
type TimetableEntry struct {
	ID        string `json:"_id"`
	ClassID   string `json:"classId"`
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Room      string `json:"room,omitempty"`
}

// ScheduleSlot is a one-off scheduled session
type ScheduleSlot struct {
	ID        string    `json:"_id"`
	ClassID   string    `json:"classId"`
	TeacherID string    `json:"teacherId,omitempty"`
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
	Status    string    `json:"status,omitempty"`
}

// Branch is a physical location of the center
type Branch struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	IsActive bool   `json:"isActive"`
}

// Setting is a server-side configuration value
type Setting struct {
	ID    string `json:"_id,omitempty"`
	Key   string `json:"key"`
	Value string `json:"value"`
}
