package client_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-ordering/client"
	"github.com/yeremiapane/cafe-ordering/config"
	"github.com/yeremiapane/cafe-ordering/database"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/router"
	"github.com/yeremiapane/cafe-ordering/services"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

const (
	adminEmail    = "admin@cafe.test"
	adminPassword = "s3cret-pass"
)

type harness struct {
	deps  router.Deps
	clock *clockwork.FakeClock
	srv   *httptest.Server
	api   *client.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := database.SetupTestDB(t)
	require.NoError(t, database.SeedAdmin(db, adminEmail, adminPassword))

	clock := clockwork.NewFakeClockAt(epoch)
	cfg := config.Config{
		JWTSecret:       "jwt-test",
		JWTTTL:          time.Hour,
		TokenSecret:     "token-test",
		SessionTTL:      120 * time.Second,
		RefreshCooldown: 3 * time.Second,
		PriceEpsilon:    0.01,
		PublicBaseURL:   "http://cafe.test",
		CORSOrigins:     []string{"*"},
	}
	deps := router.NewDeps(db, cfg, clock, nil)
	srv := httptest.NewServer(router.SetupRouter(deps))
	t.Cleanup(srv.Close)

	return &harness{deps: deps, clock: clock, srv: srv, api: client.New(srv.URL, srv.Client())}
}

func (h *harness) table(t *testing.T, number uint) *models.Table {
	t.Helper()
	table, err := h.deps.Tables.Create(context.Background(), number, "")
	require.NoError(t, err)
	return table
}

func (h *harness) session(t *testing.T, number uint, opts ...client.SessionOption) *client.TableSession {
	t.Helper()
	table := h.table(t, number)
	opts = append([]client.SessionOption{client.WithClock(h.clock)}, opts...)
	session, err := h.api.VerifyTable(context.Background(), number, table.SecurityCode, opts...)
	require.NoError(t, err)
	return session
}

func (h *harness) placeOrder(t *testing.T, session *client.TableSession) *models.Order {
	t.Helper()
	price := 12.5
	order, err := h.deps.Orders.Create(context.Background(), services.CreateOrderInput{
		TableNumber:  session.Table(),
		Token:        session.Token(),
		Items:        []services.OrderItemInput{{ProductID: 1, Name: "Latte", Price: &price, Quantity: 2}},
		ClaimedTotal: 25,
	})
	require.NoError(t, err)
	return order
}
