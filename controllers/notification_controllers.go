package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-ordering/apperror"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/utils"
	"gorm.io/gorm"
)

const maxNotificationBatch = 100

// NotificationController serves the alerts the change notifier stored.
type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// GetNotifications -> ?after_id=&limit= oldest first, for incremental polling
func (nc *NotificationController) GetNotifications(c *gin.Context) {
	afterID, err := optionalUintQuery(c, "after_id")
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	limit := intQuery(c, "limit", 50)
	if limit <= 0 || limit > maxNotificationBatch {
		limit = maxNotificationBatch
	}

	query := nc.DB.WithContext(c.Request.Context()).Order("id ASC").Limit(limit)
	if afterID != nil {
		query = query.Where("id > ?", *afterID)
	}

	var notifs []models.Notification
	if err := query.Find(&notifs).Error; err != nil {
		utils.RespondServiceError(c, apperror.Internal(err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notifications", notifs)
}
