package handlers

import (
	"context"
	"log"
	"net/http"

	"trivia-service/internal/apperrors"
	"trivia-service/internal/broadcast"
	"trivia-service/internal/game"
	"trivia-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AnswerScorer interface {
	SubmitAnswer(ctx context.Context, in game.SubmitAnswerInput) (*game.SubmitAnswerResult, error)
	GetSessionLeaderboard(ctx context.Context, sessionID string) ([]models.LeaderboardEntry, error)
}

type AnswerPublisher interface {
	BroadcastAnswerSubmitted(ctx context.Context, payload broadcast.AnswerSubmittedPayload) error
	Cleanup() error
}

// AnswerHandler is the player-facing submission surface: score first, then
// ask the broadcaster to publish the result.
type AnswerHandler struct {
	scoring      AnswerScorer
	newPublisher func(sessionID string) AnswerPublisher
}

func NewAnswerHandler(scoring AnswerScorer, newPublisher func(sessionID string) AnswerPublisher) *AnswerHandler {
	return &AnswerHandler{
		scoring:      scoring,
		newPublisher: newPublisher,
	}
}

type SubmitAnswerRequest struct {
	PlayerID           string  `json:"player_id" binding:"required,uuid"`
	QuestionID         string  `json:"question_id" binding:"required,uuid"`
	SelectedAnswer     string  `json:"selected_answer" binding:"required"`
	CorrectAnswer      string  `json:"correct_answer" binding:"required"`
	SessionID          string  `json:"session_id" binding:"required,uuid"`
	TimeRemaining      float64 `json:"time_remaining" binding:"gte=0"`
	ActiveDoublePoints bool    `json:"active_double_points"`
}

type SubmitAnswerResponse struct {
	Success bool `json:"success"`
	game.SubmitAnswerResult
}

func (h *AnswerHandler) HandleSubmitAnswer(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JsonError(c, apperrors.NewValidation("Invalid request data"))
		return
	}

	ctx := c.Request.Context()

	result, err := h.scoring.SubmitAnswer(ctx, game.SubmitAnswerInput{
		SessionID:          req.SessionID,
		PlayerID:           req.PlayerID,
		QuestionID:         req.QuestionID,
		SelectedAnswer:     req.SelectedAnswer,
		CorrectAnswer:      req.CorrectAnswer,
		TimeRemainingSec:   req.TimeRemaining,
		ActiveDoublePoints: req.ActiveDoublePoints,
	})
	if err != nil {
		JsonError(c, err)
		return
	}

	// The score is durable at this point; a lost event only delays
	// subscribers until their next snapshot pull.
	publisher := h.newPublisher(req.SessionID)
	defer publisher.Cleanup()

	payload := broadcast.AnswerSubmittedPayload{
		PlayerID:       req.PlayerID,
		QuestionID:     req.QuestionID,
		SelectedAnswer: req.SelectedAnswer,
		IsCorrect:      result.IsCorrect,
		PointsEarned:   result.PointsEarned,
		NewScore:       result.NewScore,
		Timestamp:      result.Answer.AnsweredAt.UnixMilli(),
	}
	if err := publisher.BroadcastAnswerSubmitted(ctx, payload); err != nil {
		log.Printf("Failed to broadcast answer for session %s: %v", req.SessionID, err)
	}

	c.JSON(http.StatusOK, SubmitAnswerResponse{
		Success:            true,
		SubmitAnswerResult: *result,
	})
}

func (h *AnswerHandler) HandleGetLeaderboard(c *gin.Context) {
	sessionID := c.Query("session_id")
	if _, err := uuid.Parse(sessionID); err != nil {
		JsonError(c, apperrors.NewValidation("Invalid session id"))
		return
	}

	leaderboard, err := h.scoring.GetSessionLeaderboard(c.Request.Context(), sessionID)
	if err != nil {
		JsonError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": leaderboard})
}
