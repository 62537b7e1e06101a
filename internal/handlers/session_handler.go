package handlers

import (
	"context"
	"log"
	"net/http"

	"trivia-service/internal/apperrors"
	"trivia-service/internal/constants"
	"trivia-service/internal/models"

	"github.com/gin-gonic/gin"
)

type SessionWriter interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionByJoinCode(ctx context.Context, joinCode string) (*models.Session, error)
}

type PlayerWriter interface {
	CreatePlayer(ctx context.Context, player *models.Player) error
}

type PowerUpInitializer interface {
	InitializePlayerPowerUps(ctx context.Context, playerID string) error
}

// SessionHandler covers the lobby: hosts create sessions, players join by
// code before the game starts.
type SessionHandler struct {
	sessions SessionWriter
	players  PlayerWriter
	powerUps PowerUpInitializer
}

func NewSessionHandler(sessions SessionWriter, players PlayerWriter, powerUps PowerUpInitializer) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		players:  players,
		powerUps: powerUps,
	}
}

type CreateSessionRequest struct {
	QuizID string `json:"quiz_id" binding:"required,uuid"`
	HostID string `json:"host_id" binding:"required,uuid"`
}

func (h *SessionHandler) HandleCreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JsonError(c, apperrors.NewValidation("Invalid request data"))
		return
	}

	session := &models.Session{
		QuizID: req.QuizID,
		HostID: req.HostID,
	}
	if err := h.sessions.CreateSession(c.Request.Context(), session); err != nil {
		JsonError(c, err)
		return
	}

	log.Printf("Session created: session=%s, quiz=%s", session.ID, session.QuizID)
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

type JoinSessionRequest struct {
	JoinCode string `json:"join_code" binding:"required,len=6"`
	Nickname string `json:"nickname" binding:"required,min=1,max=24"`
}

func (h *SessionHandler) HandleJoinSession(c *gin.Context) {
	var req JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JsonError(c, apperrors.NewValidation("Invalid request data"))
		return
	}

	ctx := c.Request.Context()

	session, err := h.sessions.GetSessionByJoinCode(ctx, req.JoinCode)
	if err != nil {
		JsonError(c, err)
		return
	}
	if session.Status != constants.SessionStatusWaiting {
		JsonError(c, apperrors.NewValidation("Game has already started"))
		return
	}

	player := &models.Player{
		SessionID: session.ID,
		Nickname:  req.Nickname,
	}
	if err := h.players.CreatePlayer(ctx, player); err != nil {
		JsonError(c, err)
		return
	}

	// The seat is taken; missing counters surface later as soft failures
	// and the client can retry with an initialize action.
	if err := h.powerUps.InitializePlayerPowerUps(ctx, player.ID); err != nil {
		log.Printf("Failed to initialize power-ups: player=%s: %v", player.ID, err)
	}

	log.Printf("Player joined: player=%s, session=%s", player.ID, session.ID)
	c.JSON(http.StatusCreated, gin.H{
		"session": session,
		"player":  player,
	})
}
