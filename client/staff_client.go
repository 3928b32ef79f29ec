package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/services"
)

type page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// StaffClient is an authenticated staff connection to the admin API.
type StaffClient struct {
	api   *Client
	token string
	role  string
}

// Login signs a staff member in and returns a client carrying their JWT.
func (c *Client) Login(ctx context.Context, email, password string) (*StaffClient, error) {
	var payload struct {
		Token    string `json:"token"`
		UserRole string `json:"user_role"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", "", body, &payload); err != nil {
		return nil, err
	}
	return &StaffClient{api: c, token: payload.Token, role: payload.UserRole}, nil
}

func (s *StaffClient) Role() string { return s.role }

func listQuery(status string, table *uint, urgencyFirst bool, pageNum, limit int) string {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if table != nil {
		q.Set("table", strconv.FormatUint(uint64(*table), 10))
	}
	if pageNum > 0 {
		q.Set("page", strconv.Itoa(pageNum))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if urgencyFirst {
		q.Set("sort", "urgency")
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (s *StaffClient) ListOrders(ctx context.Context, filter services.OrderFilter, pageNum, limit int) ([]models.Order, int64, error) {
	var status string
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	var out page[models.Order]
	path := "/admin/orders" + listQuery(status, filter.TableNumber, filter.UrgencyFirst, pageNum, limit)
	if err := s.api.do(ctx, http.MethodGet, path, s.token, nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Total, nil
}

func (s *StaffClient) ListCalls(ctx context.Context, filter services.CallFilter, pageNum, limit int) ([]models.WaiterCall, int64, error) {
	var status string
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	var out page[models.WaiterCall]
	path := "/admin/waiter-calls" + listQuery(status, filter.TableNumber, filter.UrgencyFirst, pageNum, limit)
	if err := s.api.do(ctx, http.MethodGet, path, s.token, nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Total, nil
}

func (s *StaffClient) TransitionOrder(ctx context.Context, orderID uint, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	path := "/admin/orders/" + strconv.FormatUint(uint64(orderID), 10)
	if err := s.api.do(ctx, http.MethodPatch, path, s.token, map[string]string{"status": string(status)}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// AttendCall marks a call attended; an empty attendedBy lets the server use
// the signed-in staff name.
func (s *StaffClient) AttendCall(ctx context.Context, callID uint, attendedBy string) (*models.WaiterCall, error) {
	var call models.WaiterCall
	path := "/admin/waiter-calls/" + strconv.FormatUint(uint64(callID), 10)
	body := map[string]string{"status": string(models.CallAttended), "attended_by": attendedBy}
	if err := s.api.do(ctx, http.MethodPatch, path, s.token, body, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

// Orders adapts the client to the notifier's order lister.
func (s *StaffClient) Orders() services.OrderLister { return orderLister{s} }

// Calls adapts the client to the notifier's call lister.
func (s *StaffClient) Calls() services.CallLister { return callLister{s} }

type orderLister struct{ s *StaffClient }

func (l orderLister) List(ctx context.Context, filter services.OrderFilter, pageNum, limit int) ([]models.Order, int64, error) {
	return l.s.ListOrders(ctx, filter, pageNum, limit)
}

type callLister struct{ s *StaffClient }

func (l callLister) List(ctx context.Context, filter services.CallFilter, pageNum, limit int) ([]models.WaiterCall, int64, error) {
	return l.s.ListCalls(ctx, filter, pageNum, limit)
}
