package controllers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-ordering/models"
)

type orderPage struct {
	Items []models.Order `json:"items"`
	Total int64          `json:"total"`
}

func orderBody(token string, claimed float64) gin.H {
	return gin.H{
		"token": token,
		"items": []gin.H{
			{"product_id": 1, "name": "Latte", "price": 10, "quantity": 2},
			{"product_id": 2, "name": "Croissant", "price": 5, "quantity": 1},
		},
		"claimed_total": claimed,
		"customer_name": "Dewi",
	}
}

func (s *testServer) placeOrder(table uint, token string) models.Order {
	s.t.Helper()
	w, resp := s.do(http.MethodPost, tablePath(table, "/orders"), "", orderBody(token, 25))
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Order](s.t, resp.Data)
}

func TestCreateOrderEndpoint(t *testing.T) {
	s := newTestServer(t)
	session := s.verify(5)

	order := s.placeOrder(5, session.Token)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, 25.0, order.TotalPrice)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, 15, order.EstimatedTime)

	w, resp := s.do(http.MethodPost, "/tables/5/orders", "", orderBody(session.Token, 20))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", resp.Error)

	w, resp = s.do(http.MethodPost, "/tables/5/orders", "", gin.H{"token": session.Token, "items": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", resp.Error)

	s.clock.Advance(3 * time.Minute)
	w, resp = s.do(http.MethodPost, "/tables/5/orders", "", orderBody(session.Token, 25))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, resp.IsExpired)
	assert.True(t, *resp.IsExpired)
}

func TestStaffOrderEndpointsRequireAuth(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodGet, "/admin/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/admin/orders", s.staffToken("cleaner"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListOrdersByUrgency(t *testing.T) {
	s := newTestServer(t)
	staff := s.staffToken("staff")

	old := s.placeOrder(1, s.verify(1).Token)
	s.clock.Advance(12 * time.Minute)
	fresh := s.placeOrder(2, s.verify(2).Token)
	s.clock.Advance(time.Minute)
	served := s.placeOrder(3, s.verify(3).Token)
	for _, status := range []string{"preparing", "ready", "served"} {
		w, _ := s.do(http.MethodPatch, fmt.Sprintf("/admin/orders/%d", served.ID), staff, gin.H{"status": status})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, resp := s.do(http.MethodGet, "/admin/orders?sort=urgency", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[orderPage](t, resp.Data)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 3)
	assert.Equal(t, old.ID, page.Items[0].ID)
	assert.Equal(t, fresh.ID, page.Items[1].ID)
	assert.Equal(t, served.ID, page.Items[2].ID)

	// the oldest pending order leads page one even when it is not among the newest rows
	w, resp = s.do(http.MethodGet, "/admin/orders?sort=urgency&limit=2", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[orderPage](t, resp.Data)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, old.ID, page.Items[0].ID)
	assert.Equal(t, fresh.ID, page.Items[1].ID)

	w, resp = s.do(http.MethodGet, "/admin/orders?sort=urgency&limit=2&page=2", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[orderPage](t, resp.Data)
	require.Len(t, page.Items, 1)
	assert.Equal(t, served.ID, page.Items[0].ID)

	w, resp = s.do(http.MethodGet, "/admin/orders?status=pending&table=2", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[orderPage](t, resp.Data)
	require.Len(t, page.Items, 1)
	assert.Equal(t, fresh.ID, page.Items[0].ID)

	w, _ = s.do(http.MethodGet, "/admin/orders?status=lost", staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransitionOrderEndpoint(t *testing.T) {
	s := newTestServer(t)
	staff := s.staffToken("chef")
	order := s.placeOrder(1, s.verify(1).Token)
	path := fmt.Sprintf("/admin/orders/%d", order.ID)

	w, resp := s.do(http.MethodPatch, path, staff, gin.H{"status": "preparing", "estimated_time": 20})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.Order](t, resp.Data)
	assert.Equal(t, models.OrderPreparing, updated.Status)
	assert.Equal(t, 20, updated.EstimatedTime)

	w, resp = s.do(http.MethodPatch, path, staff, gin.H{"status": "served"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_transition", resp.Error)

	w, _ = s.do(http.MethodPatch, path, staff, gin.H{"status": "cancelled"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPatch, path, staff, gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, resp = s.do(http.MethodGet, path, staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.OrderCancelled, decode[models.Order](t, resp.Data).Status)

	w, _ = s.do(http.MethodGet, "/admin/orders/999", staff, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
