package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/homebase/internal/apperr"
	"github.com/mmynk/homebase/internal/respond"
	"github.com/mmynk/homebase/internal/service"
)

type NotificationHandler struct {
	svc            *service.NotificationService
	vapidPublicKey string
}

// NewNotificationHandler creates the notification and push handlers.
// An empty vapidPublicKey means web push is not configured.
func NewNotificationHandler(svc *service.NotificationService, vapidPublicKey string) *NotificationHandler {
	return &NotificationHandler{svc: svc, vapidPublicKey: vapidPublicKey}
}

// List supports ?unread=true and ?limit=.
func (h *NotificationHandler) List(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respond.Error(c, apperr.Validation("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	list, err := h.svc.List(c.Request.Context(), id, queryBool(c, "unread"), limit)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, list)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), id, c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	n, err := h.svc.MarkAllRead(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, gin.H{"updated": n})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id, c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.NoContent(c)
}

// Subscribe accepts a browser PushSubscription as produced by
// PushManager.subscribe().toJSON().
func (h *NotificationHandler) Subscribe(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var in service.SubscribeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Bind(c, err)
		return
	}
	sub, err := h.svc.Subscribe(c.Request.Context(), id, in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, sub)
}

// Unsubscribe takes the endpoint from ?endpoint= or a JSON body.
func (h *NotificationHandler) Unsubscribe(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		var body struct {
			Endpoint string `json:"endpoint" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			respond.Bind(c, err)
			return
		}
		endpoint = body.Endpoint
	}
	if err := h.svc.Unsubscribe(c.Request.Context(), id, endpoint); err != nil {
		respond.Error(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *NotificationHandler) VAPIDKey(c *gin.Context) {
	if h.vapidPublicKey == "" {
		respond.Error(c, apperr.NotFound("web push is not configured"))
		return
	}
	respond.OK(c, gin.H{"public_key": h.vapidPublicKey})
}
