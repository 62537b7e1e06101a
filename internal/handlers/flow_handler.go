package handlers

import (
	"context"
	"net/http"

	"trivia-service/internal/apperrors"
	"trivia-service/internal/constants"
	"trivia-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FlowRunner interface {
	Initialize(ctx context.Context) error
	StartGame(ctx context.Context, hostID string, questions []*models.Question) error
	NextQuestion(ctx context.Context, hostID string, questions []*models.Question) error
	RevealAnswer(ctx context.Context, hostID, questionID string) error
	CompleteGame(ctx context.Context, hostID string) error
	RestartGame(ctx context.Context, hostID string) error
	Cleanup() error
}

type SessionGetter interface {
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
}

type QuestionLister interface {
	ListQuestionsByQuiz(ctx context.Context, quizID string) ([]*models.Question, error)
}

// FlowHandler exposes the host's verb-dispatch flow surface. A manager is
// constructed per request and always cleaned up, success or failure.
type FlowHandler struct {
	sessions   SessionGetter
	questions  QuestionLister
	newManager func(sessionID string) FlowRunner
}

func NewFlowHandler(sessions SessionGetter, questions QuestionLister, newManager func(sessionID string) FlowRunner) *FlowHandler {
	return &FlowHandler{
		sessions:   sessions,
		questions:  questions,
		newManager: newManager,
	}
}

// FlowActionRequest is a tagged union discriminated by Action; each action
// validates exactly the fields it needs.
type FlowActionRequest struct {
	Action        string          `json:"action" binding:"required,oneof=start next reveal complete restart"`
	SessionID     string          `json:"session_id" binding:"required,uuid"`
	HostID        string          `json:"host_id" binding:"required,uuid"`
	QuestionID    string          `json:"question_id"`
	PlayerAnswers []AnswerSummary `json:"player_answers"`
}

type AnswerSummary struct {
	PlayerID       string `json:"player_id"`
	SelectedAnswer string `json:"selected_answer"`
	IsCorrect      bool   `json:"is_correct"`
}

func (h *FlowHandler) HandleFlowAction(c *gin.Context) {
	var req FlowActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JsonError(c, apperrors.NewValidation("Invalid request data"))
		return
	}

	if req.Action == constants.FlowActionReveal {
		if req.QuestionID == "" {
			JsonError(c, apperrors.NewValidation("Invalid request data"))
			return
		}
		if _, err := uuid.Parse(req.QuestionID); err != nil {
			JsonError(c, apperrors.NewValidation("Invalid request data"))
			return
		}
	}

	ctx := c.Request.Context()

	manager := h.newManager(req.SessionID)
	defer manager.Cleanup()

	if err := manager.Initialize(ctx); err != nil {
		JsonError(c, err)
		return
	}

	var err error
	switch req.Action {
	case constants.FlowActionStart:
		var questions []*models.Question
		questions, err = h.quizQuestions(ctx, req.SessionID)
		if err == nil {
			err = manager.StartGame(ctx, req.HostID, questions)
		}
	case constants.FlowActionNext:
		var questions []*models.Question
		questions, err = h.quizQuestions(ctx, req.SessionID)
		if err == nil {
			err = manager.NextQuestion(ctx, req.HostID, questions)
		}
	case constants.FlowActionReveal:
		err = manager.RevealAnswer(ctx, req.HostID, req.QuestionID)
	case constants.FlowActionComplete:
		err = manager.CompleteGame(ctx, req.HostID)
	case constants.FlowActionRestart:
		err = manager.RestartGame(ctx, req.HostID)
	}
	if err != nil {
		JsonError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"action":  req.Action,
	})
}

func (h *FlowHandler) quizQuestions(ctx context.Context, sessionID string) ([]*models.Question, error) {
	session, err := h.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	questions, err := h.questions.ListQuestionsByQuiz(ctx, session.QuizID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, apperrors.NewValidation("Quiz has no questions")
	}
	return questions, nil
}
