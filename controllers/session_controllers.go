package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-ordering/apperror"
	"github.com/yeremiapane/cafe-ordering/services"
	"github.com/yeremiapane/cafe-ordering/utils"
)

// SessionController is the table-facing side of session tokens.
type SessionController struct {
	Tables *services.TableService
	Tokens *services.SessionTokenService
}

func NewSessionController(tables *services.TableService, tokens *services.SessionTokenService) *SessionController {
	return &SessionController{Tables: tables, Tokens: tokens}
}

// VerifyTable -> exchange the printed security code for a session token
func (sc *SessionController) VerifyTable(c *gin.Context) {
	tableNumber, err := uintParam(c, "table_number")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	var body struct {
		SecurityCode string `json:"security_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	token, expiresAt, err := sc.Tables.Verify(c.Request.Context(), tableNumber, body.SecurityCode)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table verified", gin.H{
		"token":        token,
		"expires_at":   expiresAt.UnixMilli(),
		"ttl_ms":       sc.Tokens.TTL().Milliseconds(),
		"table_number": tableNumber,
	})
}

// ValidateSession -> 200 when the token is usable, 401 with is_expired otherwise
func (sc *SessionController) ValidateSession(c *gin.Context) {
	tableNumber, err := uintParam(c, "table_number")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	var body struct {
		Token         string `json:"token" binding:"required"`
		ClaimedExpiry *int64 `json:"claimed_expiry"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := sc.Tokens.Validate(c.Request.Context(), tableNumber, body.Token, body.ClaimedExpiry)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	if !result.Valid {
		utils.RespondServiceError(c, apperror.SessionInvalid(result.IsExpired))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Session valid", gin.H{
		"valid":      true,
		"is_expired": false,
		"expires_at": result.ExpiresAt.UnixMilli(),
	})
}

// RefreshSession -> new token with a fresh expiry, or the same one while throttled
func (sc *SessionController) RefreshSession(c *gin.Context) {
	tableNumber, err := uintParam(c, "table_number")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	var body struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	token, expiresAt, err := sc.Tokens.Refresh(c.Request.Context(), tableNumber, body.Token)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Session refreshed", gin.H{
		"token":      token,
		"expires_at": expiresAt.UnixMilli(),
		"refreshed":  token != body.Token,
	})
}
