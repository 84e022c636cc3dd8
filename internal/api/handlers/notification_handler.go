package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swapp/api/internal/apperr"
	"swapp/api/internal/services"
	"swapp/api/internal/utils"
)

// NotificationHandler serves the notification inbox and offer responses.
type NotificationHandler struct {
	notifications services.INotificationService
	negotiation   services.INegotiationService
}

func NewNotificationHandler(notifications services.INotificationService, negotiation services.INegotiationService) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		negotiation:   negotiation,
	}
}

// respondRequest names the offer by its notification or by its thread.
type respondRequest struct {
	Action         services.Action `json:"action" validate:"required,oneof=accept reject"`
	NotificationID *utils.SixID    `json:"notification_id"`
	ThreadID       *utils.SixID    `json:"thread_id"`
}

// List handles GET /v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	notifications, err := h.notifications.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": notifications})
}

// Detail handles GET /v1/notifications/:id
func (h *NotificationHandler) Detail(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	notificationID, ok := idParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.notifications.Detail(c.Request.Context(), userID, notificationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// MarkRead handles POST /v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	notificationID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), userID, notificationID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Respond handles POST /v1/notifications/respond
func (h *NotificationHandler) Respond(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req respondRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.NotificationID == nil && req.ThreadID == nil {
		respondError(c, apperr.Validation("notification_id", "notification_id or thread_id is required"))
		return
	}
	result, err := h.negotiation.Respond(c.Request.Context(), userID, req.Action, services.OfferRef{
		NotificationID: req.NotificationID,
		ThreadID:       req.ThreadID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
