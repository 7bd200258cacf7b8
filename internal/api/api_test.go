package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheDarkness2001/SMS-sub002/internal/apiclient"
)

type recorded struct {
	Method string
	Path   string
	Query  map[string]string
	Header http.Header
	Body   map[string]interface{}
}

type recorder struct {
	mu       sync.Mutex
	requests []recorded
}

func (r *recorder) last(t *testing.T) recorded {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.requests)
	return r.requests[len(r.requests)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

// newTestAPI starts a server that records each request and answers with reply
func newTestAPI(t *testing.T, status int, reply string) (*Client, *recorder, *apiclient.Client) {
	t.Helper()
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := recorded{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Query: map[string]string{}}
		for k := range r.URL.Query() {
			entry.Query[k] = r.URL.Query().Get(k)
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &entry.Body)
		}
		rec.mu.Lock()
		rec.requests = append(rec.requests, entry)
		rec.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)

	gw, err := apiclient.New(apiclient.Config{BaseURL: server.URL + "/api", Timeout: 5 * time.Second},
		apiclient.TokenFunc(func() string { return "tok" }))
	require.NoError(t, err)
	return NewClient(gw), rec, gw
}

func TestWalletAPI_Endpoints(t *testing.T) {
	ctx := context.Background()
	c, rec, _ := newTestAPI(t, http.StatusOK, `{"success":true,"data":{}}`)
	owner := StudentOwner("s1")

	tests := []struct {
		name   string
		call   func() error
		method string
		path   string
	}{
		{"balance", func() error { _, err := c.Wallet.Balance(ctx, owner); return err }, "GET", "/api/wallet/balance/student/s1"},
		{"summary", func() error { _, err := c.Wallet.Summary(ctx, owner); return err }, "GET", "/api/wallet/summary/student/s1"},
		{"top-up", func() error {
			_, err := c.Wallet.RequestTopUp(ctx, TopUpRequest{OwnerID: "s1", OwnerType: OwnerStudent, Amount: 5000000, PaymentMethod: "cash"})
			return err
		}, "POST", "/api/wallet/topup"},
		{"confirm", func() error { _, err := c.Wallet.ConfirmTopUp(ctx, "tx1"); return err }, "PATCH", "/api/wallet/topup/tx1/confirm"},
		{"fail", func() error { _, err := c.Wallet.FailTopUp(ctx, "tx1", "no receipt"); return err }, "PATCH", "/api/wallet/topup/tx1/fail"},
		{"class deduction", func() error {
			_, err := c.Wallet.ClassDeduction(ctx, ClassDeductionRequest{StudentID: "s1", ClassID: "c1", Amount: 3000000})
			return err
		}, "POST", "/api/wallet/class-deduction"},
		{"penalty", func() error {
			_, err := c.Wallet.Penalty(ctx, PenaltyRequest{StudentID: "s1", Amount: 100, Reason: "late again"})
			return err
		}, "POST", "/api/wallet/penalty"},
		{"refund", func() error {
			_, err := c.Wallet.Refund(ctx, RefundRequest{StudentID: "s1", Amount: 100, Reason: "dup"})
			return err
		}, "POST", "/api/wallet/refund"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call())
			got := rec.last(t)
			assert.Equal(t, tt.method, got.Method)
			assert.Equal(t, tt.path, got.Path)
			assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
		})
	}

	assert.Equal(t, "no receipt", rec.requests[4].Body["reason"])
	assert.Equal(t, float64(5000000), rec.requests[2].Body["amount"])
	assert.Equal(t, "student", rec.requests[2].Body["ownerType"])
}

func TestWalletAPI_AdjustmentIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	c, rec, _ := newTestAPI(t, http.StatusCreated, `{"success":true,"data":{"_id":"tx9","direction":"debit","amount":2500}}`)

	tx, err := c.Wallet.Adjustment(ctx, "w1", AdjustmentRequest{Amount: 2500, Direction: Debit, Reason: "correction of entry"}, "key-123")
	require.NoError(t, err)
	assert.Equal(t, "tx9", tx.ID)
	assert.Equal(t, Debit, tx.Direction)

	got := rec.last(t)
	assert.Equal(t, "/api/wallet/w1/adjustment", got.Path)
	assert.Equal(t, "key-123", got.Header.Get(IdempotencyHeader))

	_, err = c.Wallet.Adjustment(ctx, "w1", AdjustmentRequest{Amount: 1, Direction: Credit, Reason: "x"}, "")
	require.NoError(t, err)
	assert.Empty(t, rec.last(t).Header.Get(IdempotencyHeader))
}

func TestWalletAPI_TransactionsFilterAndMeta(t *testing.T) {
	ctx := context.Background()
	c, rec, _ := newTestAPI(t, http.StatusOK,
		`{"success":true,"data":[{"_id":"t1","transactionType":"top-up","status":"pending","direction":"credit","amount":100}],"meta":{"total":1,"page":1,"page_size":20,"total_pages":1}}`)

	res, err := c.Wallet.AllTransactions(ctx, TransactionFilter{Status: TxPending, Limit: 20})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.True(t, res.Data[0].IsPendingTopUp())
	assert.Equal(t, int64(1), res.Meta.Total)

	got := rec.last(t)
	assert.Equal(t, "/api/wallet/transactions", got.Path)
	assert.Equal(t, map[string]string{"status": "pending", "limit": "20"}, got.Query)

	_, err = c.Wallet.OwnerTransactions(ctx, StudentOwner("s1"), TransactionFilter{Type: TxRefund})
	require.NoError(t, err)
	assert.Equal(t, "/api/wallet/student/s1/transactions", rec.last(t).Path)
	assert.Equal(t, "refund", rec.last(t).Query["transactionType"])

	_, err = c.Wallet.Transactions(ctx, "w 1", TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, "/api/wallet/w 1/transactions", rec.last(t).Path)
}

func TestWalletAPI_PlainBodyDecodes(t *testing.T) {
	c, _, _ := newTestAPI(t, http.StatusOK, `{"_id":"w1","ownerId":"s1","ownerType":"student","balance":300,"availableBalance":200,"pendingBalance":100}`)

	w, err := c.Wallet.Balance(context.Background(), StudentOwner("s1"))
	require.NoError(t, err)
	assert.Equal(t, int64(300), w.Balance)
	assert.True(t, w.Consistent())

	w.PendingBalance = 0
	assert.False(t, w.Consistent())
}

func TestWalletAPI_ErrorPropagates(t *testing.T) {
	c, _, _ := newTestAPI(t, http.StatusBadRequest, `{"success":false,"error":{"code":"LIMIT","message":"Amount exceeds limit"}}`)

	_, err := c.Wallet.RequestTopUp(context.Background(), TopUpRequest{})
	require.Error(t, err)
	assert.Equal(t, "Amount exceeds limit", apiclient.UserMessage(err, "fallback"))
}

func TestEarningsAPI_Endpoints(t *testing.T) {
	ctx := context.Background()
	c, rec, _ := newTestAPI(t, http.StatusOK, `{"success":true,"data":[]}`)

	_, err := c.Earnings.List(ctx, EarningFilter{StaffID: "t1", Status: EarningApproved})
	require.NoError(t, err)
	assert.Equal(t, "/api/staff-earnings", rec.last(t).Path)
	assert.Equal(t, map[string]string{"staffId": "t1", "status": "approved"}, rec.last(t).Query)

	_, err = c.Earnings.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/api/staff-earnings/pending", rec.last(t).Path)

	c2, rec2, _ := newTestAPI(t, http.StatusOK, `{"success":true,"data":{"staffId":"t1","pendingTotal":100}}`)
	acct, err := c2.Earnings.Account(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), acct.PendingTotal)
	assert.Equal(t, "/api/staff-earnings/account/t1", rec2.last(t).Path)

	_, err = c2.Earnings.Approve(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "PATCH", rec2.last(t).Method)
	assert.Equal(t, "/api/staff-earnings/e1/approve", rec2.last(t).Path)

	for path, fn := range map[string]func(context.Context, StaffEntryRequest) (StaffEarning, error){
		"/api/staff-earnings/bonus":      c2.Earnings.Bonus,
		"/api/staff-earnings/penalty":    c2.Earnings.Penalty,
		"/api/staff-earnings/adjustment": c2.Earnings.Adjustment,
	} {
		_, err := fn(ctx, StaffEntryRequest{StaffID: "t1", Amount: 500000, Reason: "great month"})
		require.NoError(t, err)
		assert.Equal(t, path, rec2.last(t).Path)
		assert.Equal(t, "POST", rec2.last(t).Method)
		assert.NotContains(t, rec2.last(t).Body, "direction")
	}
}

func TestPayoutsAPI_Endpoints(t *testing.T) {
	ctx := context.Background()
	c, rec, _ := newTestAPI(t, http.StatusOK, `{"success":true,"data":{"_id":"p1","status":"pending","method":"uzcard","amount":10000000}}`)

	p, err := c.Payouts.Create(ctx, CreatePayoutRequest{StaffID: "t1", Amount: 10000000, Method: PayoutUzcard,
		BankDetails: &BankDetails{CardNumber: "8600123412341234"}})
	require.NoError(t, err)
	assert.Equal(t, PayoutPending, p.Status)
	assert.True(t, p.Method.IsCard())
	assert.Equal(t, "/api/salary-payouts", rec.last(t).Path)
	assert.Equal(t, map[string]interface{}{"cardNumber": "8600123412341234"}, rec.last(t).Body["bankDetails"])

	_, err = c.Payouts.Complete(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "/api/salary-payouts/p1/complete", rec.last(t).Path)

	_, err = c.Payouts.Cancel(ctx, "p1", "paid twice by mistake")
	require.NoError(t, err)
	assert.Equal(t, "/api/salary-payouts/p1/cancel", rec.last(t).Path)
	assert.Equal(t, "paid twice by mistake", rec.last(t).Body["reason"])
}

func TestResource_CRUD(t *testing.T) {
	ctx := context.Background()
	c, rec, _ := newTestAPI(t, http.StatusOK, `{"success":true,"data":{"_id":"st1","name":"Malika"}}`)

	s, err := c.Students.Get(ctx, "st1")
	require.NoError(t, err)
	assert.Equal(t, "Malika", s.Name)
	assert.Equal(t, "/api/students/st1", rec.last(t).Path)

	_, err = c.Students.Create(ctx, Student{Name: "Malika"})
	require.NoError(t, err)
	assert.Equal(t, "POST", rec.last(t).Method)

	_, err = c.Students.Update(ctx, "st1", Student{Name: "Malika R."})
	require.NoError(t, err)
	assert.Equal(t, "PUT", rec.last(t).Method)

	require.NoError(t, c.Students.Delete(ctx, "st1"))
	assert.Equal(t, "DELETE", rec.last(t).Method)

	paths := []string{
		c.Teachers.Path(), c.Subjects.Path(), c.Classes.Path(), c.Exams.Path(), c.Feedback.Path(),
		c.Timetable.Path(), c.Scheduler.Path(), c.Branches.Path(), c.Settings.Path(), c.Attendance.Path(),
	}
	assert.Equal(t, []string{"/teachers", "/subjects", "/classes", "/exams", "/feedback",
		"/timetable", "/scheduler", "/branches", "/settings", "/attendance"}, paths)
}

func TestResource_ListWithBranch(t *testing.T) {
	c, rec, _ := newTestAPI(t, http.StatusOK, `[{"_id":"t1","name":"Aziz"},{"_id":"t2","name":"Nodira"}]`)

	res, err := c.Teachers.List(context.Background(), Params{"branch_id": "b1"})
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Nil(t, res.Meta)
	assert.Equal(t, "b1", rec.last(t).Query["branch_id"])
}

func TestAuthAPI_Login(t *testing.T) {
	ctx := context.Background()
	c, rec, gw := newTestAPI(t, http.StatusOK, `{"success":true,"data":{"token":"jwt","user":{"_id":"u1","name":"Aziz","role":"admin","userType":"teacher"}}}`)

	var expired bool
	gw.OnUnauthorized(func() { expired = true })

	tests := []struct {
		userType UserType
		path     string
		field    string
	}{
		{UserTeacher, "/api/auth/teacher/login", "email"},
		{UserParent, "/api/auth/parent/login", "phone"},
		{UserStudent, "/api/auth/student/login", "studentId"},
	}
	for _, tt := range tests {
		t.Run(string(tt.userType), func(t *testing.T) {
			resp, err := c.Auth.Login(ctx, tt.userType, Credentials{Login: "who", Password: "secret"})
			require.NoError(t, err)
			assert.Equal(t, "jwt", resp.Token)
			assert.True(t, resp.User.IsAdmin())
			assert.Equal(t, tt.path, rec.last(t).Path)
			assert.Equal(t, "who", rec.last(t).Body[tt.field])
			assert.Equal(t, "secret", rec.last(t).Body["password"])
		})
	}

	_, err := c.Auth.Login(ctx, UserType("robot"), Credentials{})
	assert.Error(t, err)
	assert.Equal(t, 3, rec.count())
	assert.False(t, expired)
}

func TestAuthAPI_LoginRejectedDoesNotExpireSession(t *testing.T) {
	c, _, gw := newTestAPI(t, http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
	var expired bool
	gw.OnUnauthorized(func() { expired = true })

	_, err := c.Auth.Login(context.Background(), UserTeacher, Credentials{Login: "a@b.uz", Password: "nope"})
	require.ErrorIs(t, err, apiclient.ErrUnauthorized)
	assert.False(t, expired)

	_, err = c.Auth.Me(context.Background())
	require.ErrorIs(t, err, apiclient.ErrUnauthorized)
	assert.True(t, expired)
}

func TestAuthAPI_ViewAsStudent(t *testing.T) {
	c, rec, _ := newTestAPI(t, http.StatusOK, `{"token":"student-jwt","user":{"_id":"s1","name":"Jasur","userType":"student"}}`)

	resp, err := c.Auth.ViewAsStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "student-jwt", resp.Token)
	assert.Equal(t, UserStudent, resp.User.UserType)
	assert.Equal(t, "/api/auth/view-as-student/s1", rec.last(t).Path)
}

func TestNotificationsAPI_Subscribe(t *testing.T) {
	c, rec, _ := newTestAPI(t, http.StatusOK, `{"success":true}`)

	require.NoError(t, c.Notifications.Subscribe(context.Background(), SubscribeRequest{StudentID: "s1", DeviceID: "d1", Enabled: true}))
	got := rec.last(t)
	assert.Equal(t, "/api/notifications/subscribe", got.Path)
	assert.Equal(t, true, got.Body["enabled"])
}

func TestAttendance(t *testing.T) {
	c, rec, _ := newTestAPI(t, http.StatusOK, `[{"_id":"a1","studentId":"s1","status":"present"},{"_id":"a2","studentId":"s1","status":"absent"},{"_id":"a3","studentId":"s1","status":"late"}]`)

	records, err := c.Attendance.ByStudent(context.Background(), "s1", "2026-09")
	require.NoError(t, err)
	assert.Equal(t, "/api/attendance/student/s1", rec.last(t).Path)
	assert.Equal(t, "2026-09", rec.last(t).Query["month"])

	assert.Equal(t, 66.7, AttendanceRate(records))
	assert.Equal(t, float64(0), AttendanceRate(nil))
}

func TestParams_With(t *testing.T) {
	p := Params{"a": "1"}
	q := p.With("b", "2")
	assert.Equal(t, Params{"a": "1"}, p)
	assert.Equal(t, Params{"a": "1", "b": "2"}, q)
}

func TestTransaction_IsPendingTopUp(t *testing.T) {
	tests := []struct {
		status TransactionStatus
		typ    TransactionType
		want   bool
	}{
		{"pending", "top-up", true},
		{"PENDING", "TOP_UP", true},
		{" pending ", "top_up", true},
		{"completed", "top-up", false},
		{"pending", "class_deduction", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+string(tt.typ), func(t *testing.T) {
			tx := Transaction{Status: tt.status, TransactionType: tt.typ}
			assert.Equal(t, tt.want, tx.IsPendingTopUp())
		})
	}
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "top-up", Canonical("TOP_UP"))
	assert.Equal(t, "bank-transfer", Canonical(" Bank_Transfer "))
	assert.Equal(t, "per-class", Canonical("per-class"))
}
