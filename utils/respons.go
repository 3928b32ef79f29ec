package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-ordering/apperror"
)

type JSONResponse struct {
	Status    bool        `json:"status"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	IsExpired *bool       `json:"is_expired,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondError writes err with the status its kind maps to. code is used
// for errors outside the apperror taxonomy, such as binding failures.
func RespondError(c *gin.Context, code int, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		c.JSON(code, JSONResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}

	resp := JSONResponse{
		Status:  false,
		Message: appErr.Message,
		Error:   string(appErr.Kind),
	}
	if appErr.Kind == apperror.KindSessionInvalid {
		expired := appErr.IsExpired
		resp.IsExpired = &expired
	}
	if appErr.Kind == apperror.KindInternal {
		ErrorLogger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("request failed")
	}
	c.JSON(appErr.HTTPStatus(), resp)
}

// RespondServiceError is RespondError for errors coming out of services.
func RespondServiceError(c *gin.Context, err error) {
	RespondError(c, http.StatusInternalServerError, err)
}
