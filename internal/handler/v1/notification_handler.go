package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/lawrencemontaril/noynay-app/internal/domain/notification"
	"github.com/lawrencemontaril/noynay-app/internal/service"
)

type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List always scopes to the authenticated user's own inbox.
func (h *NotificationHandler) List(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	page, err := h.svc.List(c.Request.Context(), &notification.ListNotificationsQuery{
		UserID:     claims.UserID,
		UnreadOnly: c.Query("unread") == "true",
		Page:       parseQueryInt(c, "page", 1),
		PageSize:   parseQueryInt(c, "page_size", 20),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, page)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), id, claims.UserID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondNoContent(c)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	if err := h.svc.MarkAllRead(c.Request.Context(), claims.UserID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondNoContent(c)
}
