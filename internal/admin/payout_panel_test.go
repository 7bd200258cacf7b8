package admin

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheDarkness2001/SMS-sub002/internal/api"
)

func TestAllowedTransitions(t *testing.T) {
	assert.Equal(t, []api.PayoutStatus{api.PayoutCompleted, api.PayoutCancelled}, AllowedTransitions(api.PayoutPending))
	assert.Empty(t, AllowedTransitions(api.PayoutCompleted))
	assert.Empty(t, AllowedTransitions(api.PayoutCancelled))
	assert.True(t, CanTransition(api.PayoutPending, api.PayoutCancelled))
	assert.False(t, CanTransition(api.PayoutCompleted, api.PayoutCancelled))
	assert.False(t, CanTransition(api.PayoutPending, api.PayoutPending))
}

func TestPayoutPanel_Refresh(t *testing.T) {
	f := newFixture(t)
	teacher := f.backend.AddTeacher()
	f.backend.AddPayout(teacher.ID, 150000000, api.PayoutCompleted)

	panel := NewPayoutPanel(f.scope, f.client.Payouts, f.client.Teachers)
	require.NoError(t, panel.Refresh())
	assert.Len(t, panel.Teachers.State().Data, 1)
	assert.Len(t, panel.Payouts.State().Data, 1)
}

func TestPayoutPanel_TeacherFailureLeavesEmptyList(t *testing.T) {
	f := newFixture(t)
	teacher := f.backend.AddTeacher()
	f.backend.AddPayout(teacher.ID, 150000000, api.PayoutPending)
	f.backend.FailNext(http.MethodGet, "/teachers", http.StatusInternalServerError, "boom")

	panel := NewPayoutPanel(f.scope, f.client.Payouts, f.client.Teachers)
	require.NoError(t, panel.Refresh())

	teachers := panel.Teachers.State()
	assert.True(t, teachers.Loaded)
	assert.NoError(t, teachers.Err)
	assert.Empty(t, teachers.Data)
	assert.Len(t, panel.Payouts.State().Data, 1)
}

func TestPayoutPanel_Record(t *testing.T) {
	f := newFixture(t)
	teacher := f.backend.AddTeacher()
	panel := NewPayoutPanel(f.scope, f.client.Payouts, f.client.Teachers)

	tests := []struct {
		name string
		form PayoutForm
		key  string
	}{
		{"no staff", PayoutForm{Amount: "100", Method: api.PayoutCash}, "validation.staff_required"},
		{"no method", PayoutForm{StaffID: teacher.ID, Amount: "100"}, "validation.method_invalid"},
		{"unknown method", PayoutForm{StaffID: teacher.ID, Amount: "100", Method: "cheque"}, "validation.method_invalid"},
		{"bad card", PayoutForm{StaffID: teacher.ID, Amount: "100", Method: api.PayoutUzcard, CardNumber: "8600 1234 5678 9013"}, "validation.card_invalid"},
		{"short card", PayoutForm{StaffID: teacher.ID, Amount: "100", Method: api.PayoutHumo, CardNumber: "4111 1111"}, "validation.card_invalid"},
		{"zero amount", PayoutForm{StaffID: teacher.ID, Amount: "0", Method: api.PayoutCash}, "validation.amount_not_positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := panel.Record(tt.form)
			requireKey(t, err, tt.key)
		})
	}
	assert.Zero(t, f.backend.CallCount(http.MethodPost, "/salary-payouts"))

	payout, err := panel.Record(PayoutForm{
		StaffID:    teacher.ID,
		Amount:     "1 500 000",
		Method:     api.PayoutCard,
		CardNumber: "4111-1111-1111-1111",
		HolderName: teacher.Name,
	})
	require.NoError(t, err)
	assert.Equal(t, api.PayoutPending, payout.Status)
	assert.Equal(t, int64(150000000), payout.Amount)
	require.NotNil(t, payout.BankDetails)
	assert.Equal(t, "4111111111111111", payout.BankDetails.CardNumber)
	assert.Len(t, panel.Payouts.State().Data, 1)

	cash, err := panel.Record(PayoutForm{StaffID: teacher.ID, Amount: "100", Method: api.PayoutCash, CardNumber: "not a card"})
	require.NoError(t, err)
	assert.Nil(t, cash.BankDetails)
}

func TestPayoutPanel_CompleteAndCancel(t *testing.T) {
	f := newFixture(t)
	teacher := f.backend.AddTeacher()
	pending := f.backend.AddPayout(teacher.ID, 100000, api.PayoutPending)
	other := f.backend.AddPayout(teacher.ID, 200000, api.PayoutPending)

	panel := NewPayoutPanel(f.scope, f.client.Payouts, f.client.Teachers)
	require.NoError(t, panel.Refresh())

	done, err := panel.Complete(pending.ID)
	require.NoError(t, err)
	assert.Equal(t, api.PayoutCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	_, err = panel.Cancel(pending.ID, "Paid twice by mistake")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	_, err = panel.Complete(pending.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 1, f.backend.CallCount(http.MethodPatch, "/salary-payouts"))

	_, err = panel.Cancel(other.ID, "Too short")
	requireKey(t, err, "validation.reason_too_short")

	cancelled, err := panel.Cancel(other.ID, "Teacher left in March")
	require.NoError(t, err)
	assert.Equal(t, api.PayoutCancelled, cancelled.Status)
	assert.Equal(t, "Teacher left in March", cancelled.Reason)
}

func TestPayoutPanel_UnknownPayoutLeftToServer(t *testing.T) {
	f := newFixture(t)
	teacher := f.backend.AddTeacher()
	settled := f.backend.AddPayout(teacher.ID, 100000, api.PayoutCompleted)

	panel := NewPayoutPanel(f.scope, f.client.Payouts, f.client.Teachers)
	_, err := panel.Complete(settled.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 1, f.backend.CallCount(http.MethodPatch, "/salary-payouts/"+settled.ID))
}
