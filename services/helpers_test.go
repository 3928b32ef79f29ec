package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-ordering/apperror"
	"github.com/yeremiapane/cafe-ordering/database"
	"gorm.io/gorm"
)

const testSecret = "test-token-secret"

var testEpoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db     *gorm.DB
	clock  *clockwork.FakeClock
	tokens *SessionTokenService
	orders *OrderService
	calls  *WaiterCallService
	tables *TableService
}

func newFixture(t *testing.T, orderOpts ...OrderServiceOption) *fixture {
	t.Helper()

	db := database.SetupTestDB(t)
	clock := clockwork.NewFakeClockAt(testEpoch)
	tokens := NewSessionTokenService(db, clock, testSecret)
	return &fixture{
		db:     db,
		clock:  clock,
		tokens: tokens,
		orders: NewOrderService(db, clock, tokens, orderOpts...),
		calls:  NewWaiterCallService(db, clock, tokens),
		tables: NewTableService(db, clock, tokens, "http://cafe.test/"),
	}
}

func (f *fixture) issue(t *testing.T, table uint) string {
	t.Helper()
	token, _, err := f.tokens.Issue(context.Background(), table)
	require.NoError(t, err)
	return token
}

func price(v float64) *float64 { return &v }

func requireKind(t *testing.T, err error, kind apperror.Kind) *apperror.Error {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr), "unexpected error type %T: %v", err, err)
	require.Equal(t, kind, appErr.Kind, appErr.Error())
	return appErr
}

// recordingSink keeps every alert it receives.
type recordingSink struct {
	mu     sync.Mutex
	alerts []Alert
}

func (r *recordingSink) Emit(_ context.Context, alert Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *recordingSink) count(kind AlertKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.alerts {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

func countKind(alerts []Alert, kind AlertKind) int {
	n := 0
	for _, a := range alerts {
		if a.Kind == kind {
			n++
		}
	}
	return n
}
