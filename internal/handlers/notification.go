// internal/handlers/notification.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/collab-backend/internal/services"
	"github.com/javajoker/collab-backend/internal/utils"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// GET /notifications?limit=
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	party, ok := currentParty(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	notifications, err := h.notificationService.ListNotifications(c.Request.Context(), party.UserID, limit)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, notifications)
}
