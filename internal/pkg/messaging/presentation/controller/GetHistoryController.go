package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/application/usecase"
	"github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/identity"
	repository "github.com/HM18042005/UrbanEase-sub000/internal/pkg/messaging/persistence/repository/port"
)

// GetHistoryController serves the history-lookup collaborator endpoint used
// by chat views to pre-populate a conversation (one controller per endpoint).
type GetHistoryController struct {
	UC *usecase.GetHistoryUseCase
}

func NewGetHistoryController(repo repository.MessageRepository) *GetHistoryController {
	return &GetHistoryController{UC: usecase.NewGetHistoryUseCase(repo)}
}

func (h *GetHistoryController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		selfID := c.Query("self")
		otherID := c.Query("other")
		if selfID == "" || otherID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "self and other are required"})
			return
		}

		limit := 100
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		msgs, err := h.UC.Execute(ctx, usecase.GetHistoryInput{SelfID: selfID, OtherID: otherID, Limit: limit})
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			} else if errors.Is(err, identity.ErrEmptyParticipant) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"messages": msgs,
			"count":    len(msgs),
		})
	}
}
