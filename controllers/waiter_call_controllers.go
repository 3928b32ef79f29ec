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

type WaiterCallController struct {
	Calls *services.WaiterCallService
	Clock clockwork.Clock
}

func NewWaiterCallController(calls *services.WaiterCallService, clock clockwork.Clock) *WaiterCallController {
	return &WaiterCallController{Calls: calls, Clock: clock}
}

func (wc *WaiterCallController) CreateWaiterCall(c *gin.Context) {
	tableNumber, err := uintParam(c, "table_number")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	var body struct {
		Token string `json:"token" binding:"required"`
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	call, err := wc.Calls.Create(c.Request.Context(), tableNumber, body.Token, body.Notes)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Waiter called", call)
}

func (wc *WaiterCallController) GetAllWaiterCalls(c *gin.Context) {
	var filter services.CallFilter
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseCallStatus(raw)
		if !ok {
			utils.RespondServiceError(c, apperror.Validation("unknown waiter call status %q", raw))
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
	calls, total, err := wc.Calls.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	if filter.UrgencyFirst {
		services.SortWorklist(calls, wc.Clock.Now())
	}

	utils.RespondJSON(c, http.StatusOK, "List of waiter calls", pageData{Items: calls, Total: total, Page: page, Limit: limit})
}

// UpdateWaiterCallStatus -> attended_by falls back to the logged in staff name
func (wc *WaiterCallController) UpdateWaiterCallStatus(c *gin.Context) {
	id, err := uintParam(c, "call_id")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	var body struct {
		Status     string  `json:"status" binding:"required"`
		AttendedBy string  `json:"attended_by"`
		Notes      *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.AttendedBy == "" {
		body.AttendedBy = c.GetString("name")
	}

	call, err := wc.Calls.Transition(c.Request.Context(), id, services.TransitionCallInput{
		Status:     models.CallStatus(body.Status),
		AttendedBy: body.AttendedBy,
		Notes:      body.Notes,
	})
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Waiter call updated", call)
}
