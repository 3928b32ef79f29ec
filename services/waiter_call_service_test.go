package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-ordering/apperror"
	"github.com/yeremiapane/cafe-ordering/models"
)

func (f *fixture) createCall(t *testing.T, table uint) *models.WaiterCall {
	t.Helper()
	call, err := f.calls.Create(context.Background(), table, f.issue(t, table), "")
	require.NoError(t, err)
	return call
}

func TestCreateWaiterCall(t *testing.T) {
	f := newFixture(t)
	token := f.issue(t, 6)

	call, err := f.calls.Create(context.Background(), 6, token, " need napkins ")
	require.NoError(t, err)
	assert.Equal(t, models.CallPending, call.Status)
	assert.Equal(t, "need napkins", call.Notes)
	assert.True(t, call.Timestamp.Equal(testEpoch))
	assert.Len(t, call.SessionID, 32)
}

func TestCreateWaiterCallRequiresSession(t *testing.T) {
	f := newFixture(t)
	token := f.issue(t, 6)

	_, err := f.calls.Create(context.Background(), 7, token, "")
	requireKind(t, err, apperror.KindSessionInvalid)

	f.clock.Advance(3 * time.Minute)
	_, err = f.calls.Create(context.Background(), 6, token, "")
	appErr := requireKind(t, err, apperror.KindSessionInvalid)
	assert.True(t, appErr.IsExpired)
}

func TestAttendWaiterCall(t *testing.T) {
	f := newFixture(t)
	call := f.createCall(t, 2)
	ctx := context.Background()

	_, err := f.calls.Transition(ctx, call.ID, TransitionCallInput{Status: models.CallAttended})
	requireKind(t, err, apperror.KindValidation)

	f.clock.Advance(2 * time.Minute)
	attended, err := f.calls.Transition(ctx, call.ID, TransitionCallInput{Status: models.CallAttended, AttendedBy: "Budi"})
	require.NoError(t, err)
	assert.Equal(t, models.CallAttended, attended.Status)
	assert.Equal(t, "Budi", attended.AttendedBy)
	require.NotNil(t, attended.AttendedAt)
	assert.True(t, attended.AttendedAt.Equal(testEpoch.Add(2*time.Minute)))
}

func TestWaiterCallTerminalStatesNeverMove(t *testing.T) {
	all := []models.CallStatus{models.CallPending, models.CallAttended, models.CallCancelled}

	for _, terminal := range []models.CallStatus{models.CallAttended, models.CallCancelled} {
		f := newFixture(t)
		call := f.createCall(t, 1)
		_, err := f.calls.Transition(context.Background(), call.ID, TransitionCallInput{Status: terminal, AttendedBy: "Sari"})
		require.NoError(t, err)

		for _, target := range all {
			t.Run(string(terminal)+"->"+string(target), func(t *testing.T) {
				_, err := f.calls.Transition(context.Background(), call.ID, TransitionCallInput{Status: target, AttendedBy: "Sari"})
				requireKind(t, err, apperror.KindInvalidTransition)
			})
		}
	}
}

func TestWaiterCallSameStatusIsNoOp(t *testing.T) {
	f := newFixture(t)
	call := f.createCall(t, 1)
	notes := "table by the window"

	updated, err := f.calls.Transition(context.Background(), call.ID, TransitionCallInput{Status: models.CallPending, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, models.CallPending, updated.Status)
	assert.Equal(t, notes, updated.Notes)
	assert.Nil(t, updated.AttendedAt)
}

func TestWaiterCallTransitionErrors(t *testing.T) {
	f := newFixture(t)
	call := f.createCall(t, 1)

	_, err := f.calls.Transition(context.Background(), call.ID, TransitionCallInput{Status: "ignored"})
	requireKind(t, err, apperror.KindValidation)

	_, err = f.calls.Transition(context.Background(), 404, TransitionCallInput{Status: models.CallCancelled})
	requireKind(t, err, apperror.KindNotFound)
}

func TestListWaiterCalls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createCall(t, 1)
	f.clock.Advance(time.Second)
	f.createCall(t, 2)
	f.clock.Advance(time.Second)
	last := f.createCall(t, 1)

	_, err := f.calls.Transition(ctx, first.ID, TransitionCallInput{Status: models.CallCancelled})
	require.NoError(t, err)

	calls, total, err := f.calls.List(ctx, CallFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, last.ID, calls[0].ID)

	table := uint(1)
	pending := models.CallPending
	calls, total, err = f.calls.List(ctx, CallFilter{TableNumber: &table, Status: &pending}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, calls, 1)
	assert.Equal(t, last.ID, calls[0].ID)
}

func TestListWaiterCallsUrgencyFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	waiting := f.createCall(t, 1)
	f.clock.Advance(time.Minute)
	done := f.createCall(t, 2)
	f.clock.Advance(time.Minute)
	recent := f.createCall(t, 3)
	_, err := f.calls.Transition(ctx, done.ID, TransitionCallInput{Status: models.CallCancelled})
	require.NoError(t, err)

	calls, total, err := f.calls.List(ctx, CallFilter{UrgencyFirst: true}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, calls, 2)
	assert.Equal(t, waiting.ID, calls[0].ID)
	assert.Equal(t, recent.ID, calls[1].ID)

	calls, _, err = f.calls.List(ctx, CallFilter{UrgencyFirst: true}, 2, 2)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, done.ID, calls[0].ID)
}
