package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheDarkness2001/SMS-sub002/internal/api"
	"github.com/TheDarkness2001/SMS-sub002/internal/money"
	"github.com/TheDarkness2001/SMS-sub002/internal/testutil"
)

type harness struct {
	t       *testing.T
	backend *testutil.Backend
	dir     string
	config  string
}

type result struct {
	code   int
	stdout string
	stderr string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, backend: testutil.NewBackend(t), dir: t.TempDir()}
	h.config = filepath.Join(h.dir, "frontdesk.toml")
	cfg := fmt.Sprintf(`[app]
language = "en"
env = "test"

[api]
base_url = %q
timeout = "5s"

[storage]
session_driver = "file"
session_path = %q
durable_driver = "sqlite"
durable_path = %q

[log]
level = "error"
`, h.backend.URL(), filepath.Join(h.dir, "session.json"), filepath.Join(h.dir, "device.db"))
	require.NoError(t, os.WriteFile(h.config, []byte(cfg), 0o600))
	return h
}

func (h *harness) run(stdin string, args ...string) result {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"-config", h.config}, args...)
	code := run(context.Background(), full, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (h *harness) login(userType api.UserType, login string) result {
	h.t.Helper()
	res := h.run(testutil.Password+"\n", "login", "-type", string(userType), "-login", login)
	require.Equal(h.t, exitOK, res.code, res.stderr)
	return res
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-version"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout.String(), "frontdesk dev")
}

func TestRunUsageErrors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no command", nil, "COMMANDS:"},
		{"unknown command", []string{"teleport"}, `unknown command "teleport"`},
		{"bad login type", []string{"login", "-type", "janitor", "-login", "x"}, "-type must be"},
		{"missing id", []string{"confirm"}, "usage: frontdesk confirm"},
		{"bad staff entry kind", []string{"staff-entry", "-kind", "gift"}, "-kind must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.run("", tt.args...)
			assert.Equal(t, exitUsage, res.code)
			assert.Contains(t, res.stderr, tt.want)
		})
	}
}

func TestLoginAndWhoami(t *testing.T) {
	h := newHarness(t)
	adminUser := h.backend.AddAdmin()

	res := h.login(api.UserTeacher, adminUser.Email)
	assert.Contains(t, res.stdout, "Signed in as "+adminUser.Name+" (admin)")
	assert.Contains(t, res.stderr, "Password: ")

	res = h.run("", "whoami")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, adminUser.Name)

	res = h.run("", "logout")
	require.Equal(t, exitOK, res.code)
	res = h.run("", "whoami")
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "Not signed in")
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)
	adminUser := h.backend.AddAdmin()

	res := h.run("wrong\n", "login", "-type", "teacher", "-login", adminUser.Email)

	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "Invalid credentials")
}

func TestStudentWalletAndTopUp(t *testing.T) {
	h := newHarness(t)
	student := h.backend.AddStudent(money.ToMinor(100000))
	h.backend.AddTransaction(student.ID, api.TxClassDeduction, api.Debit, money.ToMinor(5000), "Math")

	res := h.login(api.UserStudent, student.StudentID)
	assert.Contains(t, res.stdout, "frontdesk notify")

	// the notification prompt is shown once per student
	res = h.login(api.UserStudent, student.StudentID)
	assert.NotContains(t, res.stdout, "frontdesk notify")

	res = h.run("", "wallet")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "100,000 UZS")
	assert.Contains(t, res.stdout, "-5,000 UZS")
	assert.Contains(t, res.stdout, "Math")

	res = h.run("", "topup", "-amount", "50000", "-method", "click")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Top-up request sent")
	assert.Equal(t, money.ToMinor(50000), h.backend.Wallet(api.OwnerStudent, student.ID).PendingBalance)
}

func TestTopUpValidationSendsNothing(t *testing.T) {
	h := newHarness(t)
	student := h.backend.AddStudent(0)
	h.login(api.UserStudent, student.StudentID)
	h.backend.ResetCalls()

	res := h.run("", "topup", "-amount", "10", "-method", "click")

	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "Minimum top-up is 1000")
	assert.Zero(t, h.backend.CallCount("POST", "/wallet"))
}

func TestTopUpQuickAmounts(t *testing.T) {
	h := newHarness(t)

	res := h.run("", "topup", "-quick")

	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Top-up between 1,000 UZS and 10,000,000 UZS")
	assert.Contains(t, res.stdout, "50,000 UZS")
}

func TestAdminConfirmsPendingTopUp(t *testing.T) {
	h := newHarness(t)
	adminUser := h.backend.AddAdmin()
	student := h.backend.AddStudent(0)
	tx := h.backend.AddPendingTopUp(student.ID, money.ToMinor(20000))
	h.login(api.UserTeacher, adminUser.Email)

	res := h.run("", "pending")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, tx.ID)
	assert.Contains(t, res.stdout, "20,000 UZS")

	res = h.run("", "confirm", tx.ID)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Top-up confirmed")

	got, ok := h.backend.Transaction(tx.ID)
	require.True(t, ok)
	assert.Equal(t, api.TxCompleted, got.Status)

	res = h.run("", "pending")
	require.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, "No pending top-ups")
}

func TestAdminRejectNeedsReason(t *testing.T) {
	h := newHarness(t)
	adminUser := h.backend.AddAdmin()
	student := h.backend.AddStudent(0)
	tx := h.backend.AddPendingTopUp(student.ID, money.ToMinor(20000))
	h.login(api.UserTeacher, adminUser.Email)

	res := h.run("", "reject", tx.ID, "-reason", "no")
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "at least 5 characters")

	res = h.run("", "reject", tx.ID, "-reason", "Receipt is unreadable")
	require.Equal(t, exitOK, res.code, res.stderr)
	got, _ := h.backend.Transaction(tx.ID)
	assert.Equal(t, api.TxFailed, got.Status)
}

func TestStudentCannotUseAdminCommands(t *testing.T) {
	h := newHarness(t)
	student := h.backend.AddStudent(0)
	h.login(api.UserStudent, student.StudentID)
	h.backend.ResetCalls()

	res := h.run("", "pending")

	assert.Equal(t, exitError, res.code)
	assert.Empty(t, h.backend.Calls())
}

func TestEarningsAndPayouts(t *testing.T) {
	h := newHarness(t)
	adminUser := h.backend.AddAdmin()
	teacher := h.backend.AddTeacher()
	h.backend.AddEarning(teacher.ID, api.EarningPerClass, api.EarningPending, money.ToMinor(300000))
	h.backend.AddEarning(teacher.ID, api.EarningPenalty, api.EarningApproved, -money.ToMinor(20000))
	h.login(api.UserTeacher, adminUser.Email)

	res := h.run("", "earnings", "-staff", teacher.ID)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "300,000 UZS")
	assert.Contains(t, res.stdout, "20,000 UZS (deduction)")

	res = h.run("", "payout-create", "-staff", teacher.ID, "-amount", "280000", "-method", "card", "-card", "8600 1234 5678 9013")
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "Card number is not valid")

	res = h.run("", "payout-create", "-staff", teacher.ID, "-amount", "280000", "-method", "cash")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Payout recorded")
	id := strings.Fields(res.stdout)[0]

	res = h.run("", "payout-complete", id)
	require.Equal(t, exitOK, res.code, res.stderr)
	p, ok := h.backend.Payout(id)
	require.True(t, ok)
	assert.Equal(t, api.PayoutCompleted, p.Status)

	// a completed payout cannot be cancelled
	res = h.run("", "payout-cancel", id, "-reason", "Paid twice by mistake")
	assert.Equal(t, exitError, res.code)
	assert.Contains(t, res.stderr, "can no longer be changed")
}

func TestSessionExpiry(t *testing.T) {
	h := newHarness(t)
	adminUser := h.backend.AddAdmin()
	h.login(api.UserTeacher, adminUser.Email)
	h.backend.RevokeAll()

	res := h.run("", "pending")

	assert.Equal(t, exitSessionExpired, res.code)
	assert.Contains(t, res.stderr, "Your session has expired")
	assert.Contains(t, res.stderr, "frontdesk login")

	// the stored session was cleared
	res = h.run("", "whoami")
	assert.Equal(t, exitError, res.code)
}

func TestLanguagePersists(t *testing.T) {
	h := newHarness(t)

	res := h.run("", "lang", "uz")
	require.Equal(t, exitOK, res.code, res.stderr)

	res = h.run("", "lang")
	require.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, "uz")

	res = h.run("", "lang", "fr")
	assert.Equal(t, exitUsage, res.code)
}

func TestMetricsFile(t *testing.T) {
	h := newHarness(t)
	adminUser := h.backend.AddAdmin()
	path := filepath.Join(h.dir, "metrics.prom")

	res := h.run(testutil.Password+"\n", "-metrics-file", path, "login", "-type", "teacher", "-login", adminUser.Email)
	require.Equal(t, exitOK, res.code, res.stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "requests_total")
}
