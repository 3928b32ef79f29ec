package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/yeremiapane/cafe-ordering/apperror"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/services"
	"github.com/yeremiapane/cafe-ordering/utils"
)

type OrderController struct {
	Orders *services.OrderService
	Clock  clockwork.Clock
}

func NewOrderController(orders *services.OrderService, clock clockwork.Clock) *OrderController {
	return &OrderController{Orders: orders, Clock: clock}
}

// CreateOrder -> placed by a table holding a valid session token
func (oc *OrderController) CreateOrder(c *gin.Context) {
	tableNumber, err := uintParam(c, "table_number")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	var body struct {
		Token        string                    `json:"token" binding:"required"`
		Items        []services.OrderItemInput `json:"items"`
		ClaimedTotal float64                   `json:"claimed_total"`
		Notes        string                    `json:"notes"`
		CustomerName string                    `json:"customer_name"`
		Priority     string                    `json:"priority"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.Create(c.Request.Context(), services.CreateOrderInput{
		TableNumber:  tableNumber,
		Token:        body.Token,
		Items:        body.Items,
		ClaimedTotal: body.ClaimedTotal,
		Notes:        body.Notes,
		CustomerName: body.CustomerName,
		Priority:     body.Priority,
	})
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetAllOrders -> ?status=&table=&page=&limit=&sort=urgency
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	var filter services.OrderFilter
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseOrderStatus(raw)
		if !ok {
			utils.RespondServiceError(c, apperror.Validation("unknown order status %q", raw))
			return
		}
		filter.Status = &status
	}
	table, err := optionalUintQuery(c, "table")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	filter.TableNumber = table

	filter.UrgencyFirst = c.Query("sort") == "urgency"

	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", services.DefaultPageLimit)
	page, limit = services.NormalizePage(page, limit)
	orders, total, err := oc.Orders.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	if filter.UrgencyFirst {
		services.SortWorklist(orders, oc.Clock.Now())
	}

	utils.RespondJSON(c, http.StatusOK, "List of orders", pageData{Items: orders, Total: total, Page: page, Limit: limit})
}

// GetOrderByID -> detail 1 order
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, err := uintParam(c, "order_id")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	order, err := oc.Orders.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateOrderStatus -> staff moves an order through its lifecycle
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, err := uintParam(c, "order_id")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	var body struct {
		Status        string  `json:"status" binding:"required"`
		EstimatedTime *int    `json:"estimated_time"`
		Notes         *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.Transition(c.Request.Context(), id, services.TransitionOrderInput{
		Status:        models.OrderStatus(body.Status),
		EstimatedTime: body.EstimatedTime,
		Notes:         body.Notes,
	})
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}
