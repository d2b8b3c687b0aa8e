package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	qport "github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/queue/port"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/application/task"
)

// MarkReadController persists read receipts out of band: the request is
// acknowledged once the receipt is queued, keeping the path fast. Chat views
// call this alongside their realtime mark_read intent.
type MarkReadController struct {
	Q qport.Client
}

func NewMarkReadController(client qport.Client) *MarkReadController {
	return &MarkReadController{Q: client}
}

// markReadRequest is the DTO for the HTTP request body
type markReadRequest struct {
	ConversationID string   `json:"conversation_id" binding:"required"`
	ReaderID       string   `json:"reader_id" binding:"required"`
	MessageIDs     []string `json:"message_ids"`
}

func (h *MarkReadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req markReadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(req.MessageIDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message_ids must include at least one id"})
			return
		}

		payload, err := json.Marshal(task.PersistReadReceiptPayload{
			ConversationID: req.ConversationID,
			ReaderID:       req.ReaderID,
			MessageIDs:     req.MessageIDs,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode task payload"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		opts := qport.EnqueueOption{Queue: "messaging", MaxRetry: 20}
		id, err := h.Q.Enqueue(ctx, qport.Task{Type: task.PersistReadReceiptTaskType, Payload: payload}, opts)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue read receipt"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":          "queued",
			"task_id":         id,
			"conversation_id": req.ConversationID,
		})
	}
}
