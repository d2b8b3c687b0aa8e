package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/application/presence"
)

// PresenceController exposes the mirrored presence flag and unread counters
// to marketplace pages that have no socket (listing cards, dashboards).
type PresenceController struct {
	Mirror *presence.Mirror
}

func NewPresenceController(mirror *presence.Mirror) *PresenceController {
	return &PresenceController{Mirror: mirror}
}

func (h *PresenceController) HandleStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		c.JSON(http.StatusOK, gin.H{
			"user_id": userID,
			"online":  h.Mirror.IsOnline(ctx, userID),
		})
	}
}

func (h *PresenceController) HandleUnread() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Query("conversation_id")
		userID := c.Query("user_id")
		if conversationID == "" || userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id and user_id are required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		c.JSON(http.StatusOK, gin.H{
			"conversation_id": conversationID,
			"user_id":         userID,
			"unread":          h.Mirror.UnreadCount(ctx, conversationID, userID),
		})
	}
}
