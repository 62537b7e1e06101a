package handlers

import (
	"context"
	"net/http"

	"trivia-service/internal/apperrors"
	"trivia-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StateSyncer interface {
	GetCurrentGameState(ctx context.Context) (*models.GameState, error)
	Cleanup() error
}

// StateHandler serves the pull side of snapshot/delta reconciliation:
// clients call it on (re)connect and whenever they suspect a missed event.
type StateHandler struct {
	newSync func(sessionID string) StateSyncer
}

func NewStateHandler(newSync func(sessionID string) StateSyncer) *StateHandler {
	return &StateHandler{newSync: newSync}
}

func (h *StateHandler) HandleGetState(c *gin.Context) {
	sessionID := c.Query("session_id")
	if _, err := uuid.Parse(sessionID); err != nil {
		JsonError(c, apperrors.NewValidation("Invalid session id"))
		return
	}

	sync := h.newSync(sessionID)
	defer sync.Cleanup()

	state, err := sync.GetCurrentGameState(c.Request.Context())
	if err != nil {
		JsonError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}
