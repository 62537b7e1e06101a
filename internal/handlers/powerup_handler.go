package handlers

import (
	"context"
	"net/http"

	"trivia-service/internal/apperrors"
	"trivia-service/internal/constants"
	"trivia-service/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PowerUpRunner interface {
	UsePowerUp(ctx context.Context, in game.UsePowerUpInput) (*game.UsePowerUpResult, error)
	InitializePlayerPowerUps(ctx context.Context, playerID string) error
}

type PowerUpHandler struct {
	powerUps PowerUpRunner
}

func NewPowerUpHandler(powerUps PowerUpRunner) *PowerUpHandler {
	return &PowerUpHandler{powerUps: powerUps}
}

type PowerUpRequest struct {
	Action      string `json:"action" binding:"required,oneof=use initialize"`
	PlayerID    string `json:"player_id" binding:"required,uuid"`
	SessionID   string `json:"session_id"`
	PowerUpType string `json:"power_up_type"`
	QuestionID  string `json:"question_id"`
}

func (h *PowerUpHandler) HandlePowerUp(c *gin.Context) {
	var req PowerUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JsonError(c, apperrors.NewValidation("Invalid request data"))
		return
	}

	ctx := c.Request.Context()

	switch req.Action {
	case constants.PowerUpActionUse:
		if !constants.IsPowerUpType(req.PowerUpType) {
			JsonError(c, apperrors.NewValidation("Invalid request data"))
			return
		}
		if _, err := uuid.Parse(req.SessionID); err != nil {
			JsonError(c, apperrors.NewValidation("Invalid request data"))
			return
		}
		if _, err := uuid.Parse(req.QuestionID); err != nil {
			JsonError(c, apperrors.NewValidation("Invalid request data"))
			return
		}

		result, err := h.powerUps.UsePowerUp(ctx, game.UsePowerUpInput{
			SessionID:   req.SessionID,
			PlayerID:    req.PlayerID,
			PowerUpType: req.PowerUpType,
			QuestionID:  req.QuestionID,
		})
		if err != nil {
			JsonError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)

	case constants.PowerUpActionInitialize:
		if err := h.powerUps.InitializePlayerPowerUps(ctx, req.PlayerID); err != nil {
			JsonError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Power-ups initialized",
		})
	}
}
