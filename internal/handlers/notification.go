package handlers

import (
	"net/http"

	"github.com/fundtrack/fundtrack/internal/types"
	"github.com/fundtrack/fundtrack/internal/utils"
	"github.com/gin-gonic/gin"
)

type CreateNotificationRequest struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
}

func (h *Handler) ListNotifications(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	notifications, err := h.notifications.GetUserNotifications(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewNotificationResponses(notifications))
}

func (h *Handler) MarkNotificationRead(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	notificationID, err := utils.GetNotificationID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	count, err := h.notifications.MarkAsRead(ctx.Request.Context(), userID, notificationID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.CountResponse{Count: count})
}

func (h *Handler) MarkAllNotificationsRead(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	count, err := h.notifications.MarkAllAsRead(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.CountResponse{Count: count})
}

func (h *Handler) CreateNotification(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	var body CreateNotificationRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		badRequest(ctx, err)
		return
	}

	notification, err := h.notifications.CreateNotification(ctx.Request.Context(), userID, body.Title, body.Message)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, types.NewNotificationResponse(*notification))
}

// NotificationSocket upgrades to a websocket that receives the user's new
// notifications as they are created.
func (h *Handler) NotificationSocket(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)

	if err != nil {
		// The upgrader has already written an error response.
		logger.Warningf("websocket upgrade for user %d failed: %v", userID, err)
		return
	}

	h.hub.Serve(userID, conn)
}
